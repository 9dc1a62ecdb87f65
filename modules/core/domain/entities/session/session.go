package session

import (
	"context"
	"time"
)

// Session is the server-side record backing an issued token pair. Token is the
// signed access token's id (jti); RefreshCipher is the opaque value handed to
// the client as `ciperText` (name kept for wire compatibility).
type Session struct {
	Token         string
	RefreshCipher string
	UserID        uint
	IP            string
	UserAgent     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

type CreateDTO struct {
	Token         string
	RefreshCipher string
	UserID        uint
	IP            string
	UserAgent     string
	ExpiresAt     time.Time
}

func (d *CreateDTO) ToEntity() *Session {
	return &Session{
		Token:         d.Token,
		RefreshCipher: d.RefreshCipher,
		UserID:        d.UserID,
		IP:            d.IP,
		UserAgent:     d.UserAgent,
		ExpiresAt:     d.ExpiresAt,
		CreatedAt:     time.Now(),
	}
}

// CreatedEvent fires after a successful sign-in, once the session row exists.
type CreatedEvent struct {
	Session Session
	UserID  uint
}

type DeletedEvent struct {
	Token  string
	UserID uint
}

type Repository interface {
	GetByToken(ctx context.Context, token string) (*Session, error)
	Create(ctx context.Context, data *Session) error
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}
