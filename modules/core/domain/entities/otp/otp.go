package otp

import (
	"context"
	"time"
)

// Challenge is one outstanding OTP for a user. Codes are stored hashed; the
// plaintext exists only in the delivery channel.
type Challenge struct {
	ID        uint
	UserID    uint
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	// LockedUntil is set once the attempt budget is exhausted. While in the
	// future, login is refused with the distinguished `locked` flag.
	LockedUntil *time.Time
	LastSentAt  time.Time
	CreatedAt   time.Time
}

func (c *Challenge) Expired() bool {
	return time.Now().After(c.ExpiresAt)
}

func (c *Challenge) Locked() bool {
	return c.LockedUntil != nil && time.Now().Before(*c.LockedUntil)
}

type Repository interface {
	GetActiveByUserID(ctx context.Context, userID uint) (*Challenge, error)
	Create(ctx context.Context, data *Challenge) (*Challenge, error)
	Update(ctx context.Context, data *Challenge) error
	DeleteByUserID(ctx context.Context, userID uint) error
}
