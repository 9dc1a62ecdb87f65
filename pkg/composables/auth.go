package composables

import (
	"context"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/session"
	"github.com/bankhub/testcard-portal/pkg/constants"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

var (
	ErrNotFound        = serrors.NewError("NOT_FOUND", "record not found", "")
	ErrForbidden       = serrors.NewError("FORBIDDEN", "you don't have permission to perform this action", "")
	ErrUnauthorized    = serrors.NewError("UNAUTHORIZED", "authentication required", "")
	ErrInvalidPassword = serrors.NewError("INVALID_CREDENTIALS", "invalid email or password", "")
)

// WithUser returns a new context with the authenticated user.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated user or ErrUnauthorized.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// WithSession returns a new context with the active session.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, sess)
}

// UseSession returns the active session or ErrUnauthorized.
func UseSession(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(constants.SessionKey).(*session.Session)
	if !ok {
		return nil, ErrUnauthorized
	}
	return sess, nil
}
