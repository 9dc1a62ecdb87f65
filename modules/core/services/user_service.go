package services

import (
	"context"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

var usersObject = authz.ObjectName("core", "users")

var authorizeUsersFn = authz.Authorize

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus) *UserService {
	return &UserService{repo: repo, publisher: publisher}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (user.User, error) {
	if err := authorizeUsersFn(ctx, usersObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	if err := authorizeUsersFn(ctx, usersObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *UserService) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	if err := authorizeUsersFn(ctx, usersObject, "list"); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, params)
}

func (s *UserService) Create(ctx context.Context, data user.User) (user.User, error) {
	if err := authorizeUsersFn(ctx, usersObject, "create"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var created user.User
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Create(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(user.CreatedEvent{Sender: actor.ID(), Result: created})
	return created, nil
}

func (s *UserService) Update(ctx context.Context, data user.User) (user.User, error) {
	if err := authorizeUsersFn(ctx, usersObject, "update"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated user.User
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			return err
		}
		updated, err = s.repo.GetByID(txCtx, data.ID())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(user.UpdatedEvent{Sender: actor.ID(), Result: updated})
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := authorizeUsersFn(ctx, usersObject, "delete"); err != nil {
		return err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return err
	}

	var deleted user.User
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		deleted, err = s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(user.DeletedEvent{Sender: actor.ID(), Result: deleted})
	return nil
}
