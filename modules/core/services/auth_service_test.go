package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/otp"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/session"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

type memoryUserRepo struct {
	byID    map[uint]user.User
	byEmail map[string]user.User
	nextID  uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: map[uint]user.User{}, byEmail: map[string]user.User{}}
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, composables.ErrNotFound
	}
	return u, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, composables.ErrNotFound
	}
	return u, nil
}

func (m *memoryUserRepo) GetPaginated(_ context.Context, _ *user.FindParams) ([]user.User, error) {
	out := make([]user.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUserRepo) Count(_ context.Context, _ *user.FindParams) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *memoryUserRepo) Create(_ context.Context, data user.User) (user.User, error) {
	m.nextID++
	created := user.New(data.Email(), data.FirstName(), data.LastName(),
		user.WithID(m.nextID),
		user.WithRole(data.Role()),
		user.WithStatus(data.Status()),
		user.WithEnvAccess(data.EnvAccess()),
		user.WithPasswordHash(data.PasswordHash()),
	)
	m.byID[created.ID()] = created
	m.byEmail[created.Email()] = created
	return created, nil
}

func (m *memoryUserRepo) Update(_ context.Context, data user.User) error {
	if _, ok := m.byID[data.ID()]; !ok {
		return composables.ErrNotFound
	}
	m.byID[data.ID()] = data
	m.byEmail[data.Email()] = data
	return nil
}

func (m *memoryUserRepo) UpdateLastLogin(_ context.Context, id uint) error {
	if _, ok := m.byID[id]; !ok {
		return composables.ErrNotFound
	}
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id uint) error {
	u, ok := m.byID[id]
	if !ok {
		return composables.ErrNotFound
	}
	delete(m.byEmail, u.Email())
	delete(m.byID, id)
	return nil
}

type memorySessionRepo struct {
	byToken map[string]*session.Session
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{byToken: map[string]*session.Session{}}
}

func (m *memorySessionRepo) GetByToken(_ context.Context, token string) (*session.Session, error) {
	s, ok := m.byToken[token]
	if !ok {
		return nil, composables.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memorySessionRepo) Create(_ context.Context, data *session.Session) error {
	copied := *data
	m.byToken[copied.Token] = &copied
	return nil
}

func (m *memorySessionRepo) Delete(_ context.Context, token string) error {
	delete(m.byToken, token)
	return nil
}

func (m *memorySessionRepo) DeleteByUserID(_ context.Context, userID uint) error {
	for token, s := range m.byToken {
		if s.UserID == userID {
			delete(m.byToken, token)
		}
	}
	return nil
}

func (m *memorySessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for token, s := range m.byToken {
		if s.Expired() {
			delete(m.byToken, token)
			n++
		}
	}
	return n, nil
}

type memoryOTPRepo struct {
	byUser map[uint]*otp.Challenge
	nextID uint
}

func newMemoryOTPRepo() *memoryOTPRepo {
	return &memoryOTPRepo{byUser: map[uint]*otp.Challenge{}}
}

func (m *memoryOTPRepo) GetActiveByUserID(_ context.Context, userID uint) (*otp.Challenge, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, composables.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memoryOTPRepo) Create(_ context.Context, data *otp.Challenge) (*otp.Challenge, error) {
	m.nextID++
	copied := *data
	copied.ID = m.nextID
	m.byUser[copied.UserID] = &copied
	out := copied
	return &out, nil
}

func (m *memoryOTPRepo) Update(_ context.Context, data *otp.Challenge) error {
	if _, ok := m.byUser[data.UserID]; !ok {
		return composables.ErrNotFound
	}
	copied := *data
	m.byUser[copied.UserID] = &copied
	return nil
}

func (m *memoryOTPRepo) DeleteByUserID(_ context.Context, userID uint) error {
	delete(m.byUser, userID)
	return nil
}

// captureSender records the last delivered code instead of sending it.
type captureSender struct {
	lastCode string
	sent     int
}

func (c *captureSender) SendOTP(_ context.Context, _ user.User, code string) error {
	c.lastCode = code
	c.sent++
	return nil
}

type authFixture struct {
	svc      *AuthService
	users    *memoryUserRepo
	sessions *memorySessionRepo
	otps     *memoryOTPRepo
	sender   *captureSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newMemoryUserRepo(),
		sessions: newMemorySessionRepo(),
		otps:     newMemoryOTPRepo(),
		sender:   &captureSender{},
	}
	f.svc = NewAuthService(f.users, f.sessions, f.otps, f.sender, eventbus.NewEventPublisher(logrus.New()))
	return f
}

func (f *authFixture) seedUser(t *testing.T, email, password string, opts ...user.Option) user.User {
	t.Helper()
	u := user.New(email, "Alex", "Auditor", opts...)
	withPassword, err := u.SetPassword(password)
	require.NoError(t, err)
	created, err := f.users.Create(context.Background(), withPassword)
	require.NoError(t, err)
	return created
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "wrong")
	require.ErrorIs(t, err, composables.ErrInvalidPassword)

	// Unknown accounts produce the same error so the login form cannot be
	// used for enumeration.
	_, err = f.svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, composables.ErrInvalidPassword)
}

func TestLogin_InactiveUserRefused(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "gone@example.com", "correct-horse", user.WithStatus(user.StatusInactive))

	_, err := f.svc.Login(context.Background(), "gone@example.com", "correct-horse")
	require.ErrorIs(t, err, composables.ErrInvalidPassword)
}

func TestLogin_IssuesChallengeAndVerifyReturnsTokens(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "correct-horse")

	res, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	require.True(t, res.ShowOTP)
	require.False(t, res.Locked)
	require.NotEmpty(t, f.sender.lastCode)

	pair, err := f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.CipherText)

	u, sess, err := f.svc.Authorize(context.Background(), pair.Token)
	require.NoError(t, err)
	require.Equal(t, seeded.ID(), u.ID())
	require.Equal(t, seeded.ID(), sess.UserID)

	// The challenge is single use.
	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTP_WrongCodesLockTheChallenge(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)

	// Default budget is three attempts; the first two burn, the third locks.
	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", "000000")
	require.ErrorIs(t, err, ErrOTPInvalid)
	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", "000000")
	require.ErrorIs(t, err, ErrOTPInvalid)
	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", "000000")
	require.ErrorIs(t, err, ErrOTPLocked)

	// Even the right code is refused while locked.
	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.ErrorIs(t, err, ErrOTPLocked)

	// Login now reports the lockout instead of reissuing.
	res, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	require.True(t, res.Locked)
	require.False(t, res.ShowOTP)

	// Once the lock expires a fresh challenge can be issued.
	challenge := f.otps.byUser[seeded.ID()]
	past := time.Now().Add(-time.Minute)
	challenge.LockedUntil = &past

	res, err = f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	require.True(t, res.ShowOTP)
}

func TestVerifyOTP_ExpiredChallenge(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)

	f.otps.byUser[seeded.ID()].ExpiresAt = time.Now().Add(-time.Second)

	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestResendOTP_CooldownAndReissue(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	firstCode := f.sender.lastCode

	err = f.svc.ResendOTP(context.Background(), "alex@example.com")
	require.ErrorIs(t, err, ErrOTPCooldown)

	f.otps.byUser[seeded.ID()].LastSentAt = time.Now().Add(-time.Minute)

	err = f.svc.ResendOTP(context.Background(), "alex@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, f.sender.sent)

	// The old code died with the old challenge.
	if f.sender.lastCode != firstCode {
		_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", firstCode)
		require.ErrorIs(t, err, ErrOTPInvalid)
	}

	_, err = f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.NoError(t, err)
}

func TestResendOTP_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.ResendOTP(context.Background(), "nobody@example.com"))
	require.Zero(t, f.sender.sent)
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	pair, err := f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), pair.Token))

	// The token is still within its lifetime but the session row is gone.
	_, _, err = f.svc.Authorize(context.Background(), pair.Token)
	require.ErrorIs(t, err, composables.ErrUnauthorized)
}

func TestAuthorize_GarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Authorize(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, composables.ErrUnauthorized)
}

func TestAuthorize_DeactivatedUserRefused(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "alex@example.com", "correct-horse")
	require.NoError(t, err)
	pair, err := f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.NoError(t, err)

	require.NoError(t, f.users.Update(context.Background(), seeded.SetStatus(user.StatusInactive)))

	_, _, err = f.svc.Authorize(context.Background(), pair.Token)
	require.ErrorIs(t, err, composables.ErrUnauthorized)
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alex@example.com", "old-password")

	// Unknown accounts get a silent success, same as resend.
	require.NoError(t, f.svc.ForgotPassword(context.Background(), "nobody@example.com"))
	require.Zero(t, f.sender.sent)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "alex@example.com"))
	resetToken := f.sender.lastCode
	require.NotEmpty(t, resetToken)

	require.NoError(t, f.svc.CheckToken(context.Background(), resetToken))
	require.ErrorIs(t, f.svc.CheckToken(context.Background(), "bogus"), ErrResetToken)

	// A live session from before the reset must not survive it.
	_, err := f.svc.Login(context.Background(), "alex@example.com", "old-password")
	require.NoError(t, err)
	pair, err := f.svc.VerifyOTP(context.Background(), "alex@example.com", f.sender.lastCode)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(context.Background(), resetToken, "new-password"))

	_, _, err = f.svc.Authorize(context.Background(), pair.Token)
	require.ErrorIs(t, err, composables.ErrUnauthorized)

	_, err = f.svc.Login(context.Background(), "alex@example.com", "old-password")
	require.ErrorIs(t, err, composables.ErrInvalidPassword)
	res, err := f.svc.Login(context.Background(), "alex@example.com", "new-password")
	require.NoError(t, err)
	require.True(t, res.ShowOTP)

	// An access token cannot stand in for a reset token.
	require.ErrorIs(t, f.svc.CheckToken(context.Background(), pair.Token), ErrResetToken)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "alex@example.com", "old-password")
	ctx := composables.WithUser(context.Background(), seeded)

	err := f.svc.ChangePassword(ctx, "wrong", "new-password")
	require.ErrorIs(t, err, composables.ErrInvalidPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, "old-password", "new-password"))

	updated, err := f.users.GetByID(context.Background(), seeded.ID())
	require.NoError(t, err)
	require.True(t, updated.CheckPassword("new-password"))
}
