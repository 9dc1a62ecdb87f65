package services

import (
	"context"

	"github.com/bankhub/testcard-portal/modules/audit/domain/audittrail"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

var auditObject = authz.ObjectName("audit", "trails")

var authorizeAuditFn = authz.Authorize

type AuditService struct {
	repo audittrail.Repository
}

func NewAuditService(repo audittrail.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Append records an entry. Called from event handlers, not user requests, so
// there is no authz check here.
func (s *AuditService) Append(ctx context.Context, entry *audittrail.Entry) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Append(txCtx, entry)
	})
}

func (s *AuditService) TwoEvents(ctx context.Context, recordID, tableName string) (*audittrail.TwoEvents, error) {
	if err := authorizeAuditFn(ctx, auditObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.TwoEvents(ctx, recordID, tableName)
}

func (s *AuditService) GetByRecord(ctx context.Context, recordID, tableName string) ([]*audittrail.Entry, error) {
	if err := authorizeAuditFn(ctx, auditObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByRecord(ctx, recordID, tableName)
}
