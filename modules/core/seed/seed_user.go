package seed

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

// AdminUser creates the initial manager account if no user owns its email
// yet. Idempotent so repeated seeding is safe.
func AdminUser(ctx context.Context, users user.Repository, email, password string) (user.User, error) {
	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, composables.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to look up admin user")
	}

	admin := user.New(email, "Portal", "Admin",
		user.WithRole(user.RoleManager),
		user.WithEnvAccess(user.EnvAccess{Prod: true, QA: true, Test: true}),
	)
	admin, err = admin.SetPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set admin password")
	}

	created, err := users.Create(ctx, admin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create admin user")
	}
	return created, nil
}
