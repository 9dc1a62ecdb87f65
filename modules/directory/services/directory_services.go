package services

import (
	"context"

	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

// Reference data shares one authz object: anyone who may manage issuers may
// manage partners and system defaults too.
var directoryObject = authz.ObjectName("directory", "reference_data")

var authorizeDirectoryFn = authz.Authorize

type IssuerService struct {
	repo      directory.IssuerRepository
	publisher eventbus.EventBus
}

func NewIssuerService(repo directory.IssuerRepository, publisher eventbus.EventBus) *IssuerService {
	return &IssuerService{repo: repo, publisher: publisher}
}

func (s *IssuerService) GetPaginated(ctx context.Context, params *directory.FindParams) ([]*directory.Issuer, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *IssuerService) GetByID(ctx context.Context, id uint) (*directory.Issuer, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *IssuerService) Create(ctx context.Context, data *directory.Issuer) (*directory.Issuer, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "create"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	if data.Status == "" {
		data.Status = directory.StatusDraft
	}

	var created *directory.Issuer
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Create(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.IssuerCreatedEvent{Sender: actor.ID(), Result: created})
	return created, nil
}

func (s *IssuerService) Update(ctx context.Context, data *directory.Issuer) (*directory.Issuer, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "update"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *directory.Issuer
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		updated, err = s.repo.Update(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.IssuerUpdatedEvent{Sender: actor.ID(), Result: updated})
	return updated, nil
}

type PartnerService struct {
	repo      directory.PartnerRepository
	publisher eventbus.EventBus
}

func NewPartnerService(repo directory.PartnerRepository, publisher eventbus.EventBus) *PartnerService {
	return &PartnerService{repo: repo, publisher: publisher}
}

func (s *PartnerService) GetPaginated(ctx context.Context, params *directory.FindParams) ([]*directory.Partner, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *PartnerService) GetByID(ctx context.Context, id uint) (*directory.Partner, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *PartnerService) Create(ctx context.Context, data *directory.Partner) (*directory.Partner, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "create"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	if data.Status == "" {
		data.Status = directory.StatusDraft
	}

	var created *directory.Partner
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Create(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.PartnerCreatedEvent{Sender: actor.ID(), Result: created})
	return created, nil
}

func (s *PartnerService) Update(ctx context.Context, data *directory.Partner) (*directory.Partner, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "update"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *directory.Partner
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		updated, err = s.repo.Update(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.PartnerUpdatedEvent{Sender: actor.ID(), Result: updated})
	return updated, nil
}

type SystemDefaultService struct {
	repo      directory.SystemDefaultRepository
	publisher eventbus.EventBus
}

func NewSystemDefaultService(repo directory.SystemDefaultRepository, publisher eventbus.EventBus) *SystemDefaultService {
	return &SystemDefaultService{repo: repo, publisher: publisher}
}

func (s *SystemDefaultService) GetPaginated(ctx context.Context, params *directory.DefaultFindParams) ([]*directory.SystemDefault, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *SystemDefaultService) GetByID(ctx context.Context, id uint) (*directory.SystemDefault, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *SystemDefaultService) Create(ctx context.Context, data *directory.SystemDefault) (*directory.SystemDefault, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "create"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var created *directory.SystemDefault
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Create(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.SystemDefaultCreatedEvent{Sender: actor.ID(), Result: created})
	return created, nil
}

func (s *SystemDefaultService) Update(ctx context.Context, data *directory.SystemDefault) (*directory.SystemDefault, error) {
	if err := authorizeDirectoryFn(ctx, directoryObject, "update"); err != nil {
		return nil, err
	}
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *directory.SystemDefault
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		updated, err = s.repo.Update(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(directory.SystemDefaultUpdatedEvent{Sender: actor.ID(), Result: updated})
	return updated, nil
}
