package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/otp"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/session"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

var (
	ErrOTPInvalid  = serrors.NewError("OTP_INVALID", "the code is incorrect", "")
	ErrOTPExpired  = serrors.NewError("OTP_EXPIRED", "the code has expired, request a new one", "")
	ErrOTPLocked   = serrors.NewError("OTP_LOCKED", "too many incorrect codes, try again later", "")
	ErrOTPCooldown = serrors.NewError("OTP_COOLDOWN", "a code was sent recently, wait before requesting another", "")
	ErrResetToken  = serrors.NewError("RESET_TOKEN_INVALID", "the reset link is invalid or has expired", "")
)

// OTPSender delivers a one-time code out of band. The development sender just
// logs it.
type OTPSender interface {
	SendOTP(ctx context.Context, u user.User, code string) error
}

type TokenPair struct {
	Token      string
	CipherText string
}

// LoginResult tells the client which second step to render. Locked is
// distinguished so the UI shows the lockout countdown instead of an
// invalid-credentials message.
type LoginResult struct {
	ShowOTP bool
	Locked  bool
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"uid"`
}

type AuthService struct {
	users     user.Repository
	sessions  session.Repository
	otps      otp.Repository
	sender    OTPSender
	publisher eventbus.EventBus
}

func NewAuthService(
	users user.Repository,
	sessions session.Repository,
	otps otp.Repository,
	sender OTPSender,
	publisher eventbus.EventBus,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		otps:      otps,
		sender:    sender,
		publisher: publisher,
	}
}

// Login checks credentials and, on success, issues an OTP challenge. Tokens
// are only handed out after VerifyOTP.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, composables.ErrNotFound) {
			return nil, composables.ErrInvalidPassword
		}
		return nil, err
	}
	if u.Status() != user.StatusActive || !u.CheckPassword(password) {
		return nil, composables.ErrInvalidPassword
	}

	existing, err := s.otps.GetActiveByUserID(ctx, u.ID())
	if err != nil && !errors.Is(err, composables.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Locked() {
		return &LoginResult{Locked: true}, nil
	}

	if err := s.issueChallenge(ctx, u); err != nil {
		return nil, err
	}
	return &LoginResult{ShowOTP: true}, nil
}

func (s *AuthService) issueChallenge(ctx context.Context, u user.User) error {
	conf := configuration.Use()
	code, err := generateCode(conf.OTP.Length)
	if err != nil {
		return err
	}
	now := time.Now()
	challenge := &otp.Challenge{
		UserID:     u.ID(),
		CodeHash:   hashCode(code),
		ExpiresAt:  now.Add(conf.OTP.TTL),
		LastSentAt: now,
		CreatedAt:  now,
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.otps.DeleteByUserID(txCtx, u.ID()); err != nil {
			return err
		}
		_, err := s.otps.Create(txCtx, challenge)
		return err
	})
	if err != nil {
		return err
	}
	return s.sender.SendOTP(ctx, u, code)
}

// VerifyOTP exchanges a correct code for a token pair. Wrong codes burn an
// attempt; exhausting the budget locks the challenge for the configured
// period.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	conf := configuration.Use()
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, composables.ErrNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, err
	}
	challenge, err := s.otps.GetActiveByUserID(ctx, u.ID())
	if err != nil {
		if errors.Is(err, composables.ErrNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, err
	}
	if challenge.Locked() {
		return nil, ErrOTPLocked
	}
	if challenge.Expired() {
		return nil, ErrOTPExpired
	}
	if hashCode(code) != challenge.CodeHash {
		challenge.Attempts++
		if challenge.Attempts >= conf.OTP.MaxAttempts {
			lockedUntil := time.Now().Add(conf.OTP.LockoutPeriod)
			challenge.LockedUntil = &lockedUntil
		}
		if err := composables.InTx(ctx, func(txCtx context.Context) error {
			return s.otps.Update(txCtx, challenge)
		}); err != nil {
			return nil, err
		}
		if challenge.LockedUntil != nil {
			return nil, ErrOTPLocked
		}
		return nil, ErrOTPInvalid
	}

	ip, _ := composables.UseIP(ctx)
	userAgent, _ := composables.UseUserAgent(ctx)

	var pair *TokenPair
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.otps.DeleteByUserID(txCtx, u.ID()); err != nil {
			return err
		}
		var err error
		pair, err = s.issueTokens(txCtx, u, ip, userAgent)
		if err != nil {
			return err
		}
		return s.users.UpdateLastLogin(txCtx, u.ID())
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// ResendOTP reissues the challenge unless the cooldown window is still open.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	conf := configuration.Use()
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, composables.ErrNotFound) {
			// No account enumeration on the resend endpoint.
			return nil
		}
		return err
	}
	challenge, err := s.otps.GetActiveByUserID(ctx, u.ID())
	if err != nil && !errors.Is(err, composables.ErrNotFound) {
		return err
	}
	if challenge != nil {
		if challenge.Locked() {
			return ErrOTPLocked
		}
		if time.Since(challenge.LastSentAt) < conf.OTP.ResendCooldown {
			return ErrOTPCooldown
		}
	}
	return s.issueChallenge(ctx, u)
}

func (s *AuthService) issueTokens(ctx context.Context, u user.User, ip, userAgent string) (*TokenPair, error) {
	conf := configuration.Use()
	now := time.Now()
	jti := uuid.NewString()
	expiresAt := now.Add(conf.Session.AccessDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    conf.Session.TokenIssuer,
			Subject:   u.Email(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: u.ID(),
	})
	signed, err := token.SignedString([]byte(conf.Session.Secret))
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	cipher, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	dto := session.CreateDTO{
		Token:         jti,
		RefreshCipher: cipher,
		UserID:        u.ID(),
		IP:            ip,
		UserAgent:     userAgent,
		ExpiresAt:     now.Add(conf.Session.RefreshDuration),
	}
	entity := dto.ToEntity()
	if err := s.sessions.Create(ctx, entity); err != nil {
		return nil, err
	}
	s.publisher.Publish(session.CreatedEvent{Session: *entity, UserID: u.ID()})
	return &TokenPair{Token: signed, CipherText: cipher}, nil
}

// Authorize resolves a bearer token to its user. The session row must still
// exist so logout and server-side revocation win over token lifetime.
func (s *AuthService) Authorize(ctx context.Context, token string) (user.User, *session.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil, composables.ErrUnauthorized
	}
	sess, err := s.sessions.GetByToken(ctx, claims.ID)
	if err != nil {
		return nil, nil, composables.ErrUnauthorized
	}
	if sess.Expired() {
		return nil, nil, composables.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, composables.ErrUnauthorized
	}
	if u.Status() != user.StatusActive {
		return nil, nil, composables.ErrUnauthorized
	}
	return u, sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return composables.ErrUnauthorized
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.sessions.Delete(txCtx, claims.ID)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(session.DeletedEvent{Token: claims.ID, UserID: claims.UserID})
	return nil
}

// ForgotPassword issues a short-lived signed reset token, delivered through
// the OTP sender channel. The endpoint never reveals whether the account
// exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, composables.ErrNotFound) {
			return nil
		}
		return err
	}
	conf := configuration.Use()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    conf.Session.TokenIssuer,
		Subject:   u.Email(),
		Audience:  jwt.ClaimStrings{"password-reset"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(conf.Session.Secret))
	if err != nil {
		return errors.Wrap(err, "failed to sign reset token")
	}
	return s.sender.SendOTP(ctx, u, signed)
}

// CheckToken reports whether a reset token is still usable.
func (s *AuthService) CheckToken(ctx context.Context, token string) error {
	_, err := s.parseResetToken(ctx, token)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	u, err := s.parseResetToken(ctx, token)
	if err != nil {
		return err
	}
	updated, err := u.SetPassword(password)
	if err != nil {
		return err
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Update(txCtx, updated); err != nil {
			return err
		}
		// Resets revoke every live session.
		return s.sessions.DeleteByUserID(txCtx, u.ID())
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	u, err := composables.UseUser(ctx)
	if err != nil {
		return err
	}
	if !u.CheckPassword(oldPassword) {
		return composables.ErrInvalidPassword
	}
	updated, err := u.SetPassword(newPassword)
	if err != nil {
		return err
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.users.Update(txCtx, updated)
	})
}

func (s *AuthService) parseToken(token string) (*accessClaims, error) {
	conf := configuration.Use()
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.Session.Secret), nil
	}, jwt.WithIssuer(conf.Session.TokenIssuer))
	if err != nil || !parsed.Valid {
		return nil, composables.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) parseResetToken(ctx context.Context, token string) (user.User, error) {
	conf := configuration.Use()
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.Session.Secret), nil
	}, jwt.WithIssuer(conf.Session.TokenIssuer), jwt.WithAudience("password-reset"))
	if err != nil || !parsed.Valid {
		return nil, ErrResetToken
	}
	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, ErrResetToken
	}
	return u, nil
}

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
