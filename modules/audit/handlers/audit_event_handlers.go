package handlers

import (
	"context"
	"strconv"

	"github.com/bankhub/testcard-portal/modules/audit/domain/audittrail"
	"github.com/bankhub/testcard-portal/modules/audit/services"
	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

// AuditEventHandler turns committed mutation events into trail rows. Writes
// are best effort in their own transaction; a failed append never fails the
// mutation that triggered it.
type AuditEventHandler struct {
	app   application.Application
	audit *services.AuditService
}

func Register(app application.Application) {
	handler := &AuditEventHandler{
		app:   app,
		audit: app.Service(services.AuditService{}).(*services.AuditService),
	}
	bus := app.EventPublisher()

	bus.Subscribe(handler.onCardRequestCreated)
	bus.Subscribe(handler.onCardRequestUpdated)
	bus.Subscribe(handler.onCardRequestTransitioned)
	bus.Subscribe(handler.onUserCreated)
	bus.Subscribe(handler.onUserUpdated)
	bus.Subscribe(handler.onUserDeleted)
	bus.Subscribe(handler.onIssuerCreated)
	bus.Subscribe(handler.onIssuerUpdated)
	bus.Subscribe(handler.onPartnerCreated)
	bus.Subscribe(handler.onPartnerUpdated)
	bus.Subscribe(handler.onSystemDefaultCreated)
	bus.Subscribe(handler.onSystemDefaultUpdated)
	bus.Subscribe(handler.onNotificationCreated)
	bus.Subscribe(handler.onNotificationUpdated)
	bus.Subscribe(handler.onNotificationTransitioned)
}

func (h *AuditEventHandler) append(recordID, tableName, action string, userID uint) {
	ctx := composables.WithPool(context.Background(), h.app.DB())
	entry := &audittrail.Entry{
		RecordID:  recordID,
		TableName: tableName,
		Action:    action,
		UserID:    userID,
	}
	if err := h.audit.Append(ctx, entry); err != nil {
		h.app.Logger().WithError(err).
			WithField("table", tableName).
			WithField("record", recordID).
			Warn("audit: failed to append trail entry")
	}
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (h *AuditEventHandler) onCardRequestCreated(event cardrequest.CreatedEvent) {
	h.append(event.Result.ID.String(), "card_requests", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onCardRequestUpdated(event cardrequest.UpdatedEvent) {
	h.append(event.Result.ID.String(), "card_requests", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onCardRequestTransitioned(event cardrequest.TransitionedEvent) {
	h.append(event.Result.ID.String(), "card_requests", audittrail.ActionTransition, event.Sender)
}

func (h *AuditEventHandler) onUserCreated(event user.CreatedEvent) {
	h.append(formatID(event.Result.ID()), "users", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onUserUpdated(event user.UpdatedEvent) {
	h.append(formatID(event.Result.ID()), "users", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onUserDeleted(event user.DeletedEvent) {
	h.append(formatID(event.Result.ID()), "users", audittrail.ActionDelete, event.Sender)
}

func (h *AuditEventHandler) onIssuerCreated(event directory.IssuerCreatedEvent) {
	h.append(formatID(event.Result.ID), "issuers", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onIssuerUpdated(event directory.IssuerUpdatedEvent) {
	h.append(formatID(event.Result.ID), "issuers", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onPartnerCreated(event directory.PartnerCreatedEvent) {
	h.append(formatID(event.Result.ID), "partners", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onPartnerUpdated(event directory.PartnerUpdatedEvent) {
	h.append(formatID(event.Result.ID), "partners", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onSystemDefaultCreated(event directory.SystemDefaultCreatedEvent) {
	h.append(formatID(event.Result.ID), "system_defaults", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onSystemDefaultUpdated(event directory.SystemDefaultUpdatedEvent) {
	h.append(formatID(event.Result.ID), "system_defaults", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onNotificationCreated(event notification.CreatedEvent) {
	h.append(formatID(event.Result.ID), "notifications", audittrail.ActionCreate, event.Sender)
}

func (h *AuditEventHandler) onNotificationUpdated(event notification.UpdatedEvent) {
	h.append(formatID(event.Result.ID), "notifications", audittrail.ActionUpdate, event.Sender)
}

func (h *AuditEventHandler) onNotificationTransitioned(event notification.TransitionedEvent) {
	h.append(formatID(event.Result.ID), "notifications", audittrail.ActionTransition, event.Sender)
}
