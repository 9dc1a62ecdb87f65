package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

var notificationsObject = authz.ObjectName("notifications", "notices")

var authorizeNotificationsFn = authz.Authorize

var (
	ErrNotEditable   = serrors.NewError("ACTION_NOT_ALLOWED", "the notice can no longer be edited", "")
	ErrAttachmentPDF = serrors.NewError("ATTACHMENT_NOT_PDF", "only PDF attachments are accepted", "")
)

type NotificationService struct {
	repo      notification.Repository
	publisher eventbus.EventBus
}

func NewNotificationService(repo notification.Repository, publisher eventbus.EventBus) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

func (s *NotificationService) GetByID(ctx context.Context, id uint) (*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *NotificationService) GetPaginated(ctx context.Context, params *notification.FindParams) ([]*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

// ActiveWeb backs the header badge poll. Every signed-in user may read it.
func (s *NotificationService) ActiveWeb(ctx context.Context) ([]*notification.Notification, error) {
	return s.repo.ActiveWeb(ctx, time.Now())
}

func (s *NotificationService) Create(ctx context.Context, data *notification.Notification) (*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, "create"); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	data.Status = notification.StatusDraft
	data.CreatedBy = u.ID()

	var created *notification.Notification
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Create(txCtx, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(notification.CreatedEvent{Sender: u.ID(), Result: created})
	return created, nil
}

// Update edits text, type and dates. Only drafts and returned notices may
// change; the status itself moves through Transition.
func (s *NotificationService) Update(ctx context.Context, data *notification.Notification) (*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, "update"); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *notification.Notification
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, data.ID)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return ErrNotEditable
		}
		current.Type = data.Type
		current.StartDate = data.StartDate
		current.EndDate = data.EndDate
		current.Text = data.Text
		updated, err = s.repo.Update(txCtx, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(notification.UpdatedEvent{Sender: u.ID(), Result: updated})
	return updated, nil
}

func (s *NotificationService) Submit(ctx context.Context, id uint) (*notification.Notification, error) {
	return s.transition(ctx, id, notification.StatusSubmitted, "update")
}

func (s *NotificationService) Approve(ctx context.Context, id uint) (*notification.Notification, error) {
	return s.transition(ctx, id, notification.StatusApproved, "approve")
}

func (s *NotificationService) Return(ctx context.Context, id uint) (*notification.Notification, error) {
	return s.transition(ctx, id, notification.StatusReturned, "approve")
}

func (s *NotificationService) Delete(ctx context.Context, id uint) (*notification.Notification, error) {
	return s.transition(ctx, id, notification.StatusDeleted, "delete")
}

func (s *NotificationService) transition(ctx context.Context, id uint, to notification.Status, action string) (*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, action); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	var from notification.Status
	var updated *notification.Notification
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(to) {
			return notification.ErrActionNotAllowed
		}
		from = current.Status
		current.Status = to
		updated, err = s.repo.Update(txCtx, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(notification.TransitionedEvent{Sender: u.ID(), From: from, To: to, Result: updated})
	return updated, nil
}

// AttachPDF stores a PDF under the uploads path and records its location on
// the notice. The content is sniffed, not trusted from the filename.
func (s *NotificationService) AttachPDF(ctx context.Context, id uint, file io.Reader) (*notification.Notification, error) {
	if err := authorizeNotificationsFn(ctx, notificationsObject, "update"); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	mime, recycled, err := detectMime(file)
	if err != nil {
		return nil, err
	}
	if !mime.Is("application/pdf") {
		return nil, ErrAttachmentPDF
	}

	conf := configuration.Use()
	if err := os.MkdirAll(conf.UploadsPath, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("notice-%d-%s.pdf", id, uuid.New().String())
	path := filepath.Join(conf.UploadsPath, name)
	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, recycled); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	var updated *notification.Notification
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return ErrNotEditable
		}
		current.AttachmentPath = name
		updated, err = s.repo.Update(txCtx, current)
		return err
	})
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	s.publisher.Publish(notification.UpdatedEvent{Sender: u.ID(), Result: updated})
	return updated, nil
}

// ExpireOverdue is the sweeper entry point. It runs without a session user,
// so no authz check applies.
func (s *NotificationService) ExpireOverdue(ctx context.Context) (int64, error) {
	var expired int64
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		expired, err = s.repo.ExpireOverdue(txCtx, time.Now())
		return err
	})
	return expired, err
}

// detectMime sniffs the stream head and returns a reader that replays the
// consumed bytes followed by the rest.
func detectMime(file io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), file), nil
}
