package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

type memoryNotificationRepo struct {
	records map[uint]*notification.Notification
	nextID  uint
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{records: map[uint]*notification.Notification{}}
}

func (m *memoryNotificationRepo) GetByID(_ context.Context, id uint) (*notification.Notification, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, composables.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memoryNotificationRepo) GetPaginated(_ context.Context, params *notification.FindParams) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, rec := range m.records {
		if rec.Status == notification.StatusDeleted {
			continue
		}
		if params != nil {
			if params.Type != "" && rec.Type != params.Type {
				continue
			}
			if params.Status != "" && rec.Status != params.Status {
				continue
			}
		}
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryNotificationRepo) ActiveWeb(_ context.Context, now time.Time) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, rec := range m.records {
		if rec.Type == notification.TypeWeb && rec.ActiveAt(now) {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryNotificationRepo) Create(_ context.Context, data *notification.Notification) (*notification.Notification, error) {
	m.nextID++
	copied := *data
	copied.ID = m.nextID
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.records[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memoryNotificationRepo) Update(_ context.Context, data *notification.Notification) (*notification.Notification, error) {
	if _, ok := m.records[data.ID]; !ok {
		return nil, composables.ErrNotFound
	}
	copied := *data
	copied.UpdatedAt = time.Now()
	m.records[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memoryNotificationRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, rec := range m.records {
		if rec.Status == notification.StatusApproved && rec.EndDate.Before(now) {
			rec.Status = notification.StatusExpired
			n++
		}
	}
	return n, nil
}

func smeCtx() context.Context {
	u := user.New("sme@example.com", "Sam", "SME", user.WithID(1), user.WithRole(user.RoleSME))
	return composables.WithUser(context.Background(), u)
}

func newNotificationFixture(t *testing.T) (*NotificationService, *memoryNotificationRepo) {
	t.Helper()
	repo := newMemoryNotificationRepo()
	svc := NewNotificationService(repo, eventbus.NewEventPublisher(logrus.New()))
	return svc, repo
}

func draftNotice(t *testing.T, svc *NotificationService) *notification.Notification {
	t.Helper()
	created, err := svc.Create(smeCtx(), &notification.Notification{
		Type:      notification.TypeWeb,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		Text:      "QA maintenance window on Saturday",
	})
	require.NoError(t, err)
	return created
}

func TestCreate_ForcesDraftAndOwner(t *testing.T) {
	svc, _ := newNotificationFixture(t)

	created, err := svc.Create(smeCtx(), &notification.Notification{
		Type:   notification.TypeWeb,
		Status: notification.StatusApproved,
		Text:   "sneaky",
	})
	require.NoError(t, err)
	require.Equal(t, notification.StatusDraft, created.Status)
	require.Equal(t, uint(1), created.CreatedBy)
}

func TestUpdate_OnlyWhileEditable(t *testing.T) {
	svc, _ := newNotificationFixture(t)
	created := draftNotice(t, svc)

	created.Text = "rescheduled to Sunday"
	updated, err := svc.Update(smeCtx(), created)
	require.NoError(t, err)
	require.Equal(t, "rescheduled to Sunday", updated.Text)

	_, err = svc.Submit(smeCtx(), created.ID)
	require.NoError(t, err)

	updated.Text = "too late"
	_, err = svc.Update(smeCtx(), updated)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestTransitions_FollowTheMachine(t *testing.T) {
	svc, _ := newNotificationFixture(t)
	created := draftNotice(t, svc)

	// A draft cannot be approved outright.
	_, err := svc.Approve(smeCtx(), created.ID)
	require.ErrorIs(t, err, notification.ErrActionNotAllowed)

	submitted, err := svc.Submit(smeCtx(), created.ID)
	require.NoError(t, err)
	require.Equal(t, notification.StatusSubmitted, submitted.Status)

	returned, err := svc.Return(smeCtx(), created.ID)
	require.NoError(t, err)
	require.Equal(t, notification.StatusReturned, returned.Status)

	// Returned notices go back through submit, never straight to approved.
	_, err = svc.Approve(smeCtx(), created.ID)
	require.ErrorIs(t, err, notification.ErrActionNotAllowed)

	_, err = svc.Submit(smeCtx(), created.ID)
	require.NoError(t, err)
	approved, err := svc.Approve(smeCtx(), created.ID)
	require.NoError(t, err)
	require.Equal(t, notification.StatusApproved, approved.Status)

	deleted, err := svc.Delete(smeCtx(), created.ID)
	require.NoError(t, err)
	require.Equal(t, notification.StatusDeleted, deleted.Status)

	_, err = svc.Submit(smeCtx(), created.ID)
	require.ErrorIs(t, err, notification.ErrActionNotAllowed)
}

func TestActiveWeb_OnlyApprovedWebNoticesInWindow(t *testing.T) {
	svc, repo := newNotificationFixture(t)
	now := time.Now()

	repo.records[1] = &notification.Notification{
		ID: 1, Type: notification.TypeWeb, Status: notification.StatusApproved,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
	}
	repo.records[2] = &notification.Notification{
		ID: 2, Type: notification.TypeMobile, Status: notification.StatusApproved,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
	}
	repo.records[3] = &notification.Notification{
		ID: 3, Type: notification.TypeWeb, Status: notification.StatusApproved,
		StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour),
	}
	repo.records[4] = &notification.Notification{
		ID: 4, Type: notification.TypeWeb, Status: notification.StatusSubmitted,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
	}
	repo.nextID = 4

	active, err := svc.ActiveWeb(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, uint(1), active[0].ID)
}

func TestExpireOverdue(t *testing.T) {
	svc, repo := newNotificationFixture(t)
	now := time.Now()

	repo.records[1] = &notification.Notification{
		ID: 1, Type: notification.TypeWeb, Status: notification.StatusApproved,
		StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Hour),
	}
	repo.records[2] = &notification.Notification{
		ID: 2, Type: notification.TypeWeb, Status: notification.StatusApproved,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
	}
	repo.nextID = 2

	expired, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), expired)
	require.Equal(t, notification.StatusExpired, repo.records[1].Status)
	require.Equal(t, notification.StatusApproved, repo.records[2].Status)

	// A second sweep finds nothing.
	expired, err = svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, expired)
}

func TestAttachPDF(t *testing.T) {
	svc, repo := newNotificationFixture(t)
	created := draftNotice(t, svc)

	conf := configuration.Use()
	original := conf.UploadsPath
	conf.UploadsPath = t.TempDir()
	t.Cleanup(func() { conf.UploadsPath = original })

	_, err := svc.AttachPDF(smeCtx(), created.ID, strings.NewReader("just some text"))
	require.ErrorIs(t, err, ErrAttachmentPDF)

	pdf := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"
	updated, err := svc.AttachPDF(smeCtx(), created.ID, strings.NewReader(pdf))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.AttachmentPath, "notice-1-"))
	require.True(t, strings.HasSuffix(updated.AttachmentPath, ".pdf"))

	// Attachments are frozen once the notice leaves the editable states.
	_, err = svc.Submit(smeCtx(), created.ID)
	require.NoError(t, err)
	_, err = svc.Approve(smeCtx(), created.ID)
	require.NoError(t, err)
	_, err = svc.AttachPDF(smeCtx(), created.ID, strings.NewReader(pdf))
	require.ErrorIs(t, err, ErrNotEditable)
	require.Equal(t, updated.AttachmentPath, repo.records[created.ID].AttachmentPath)
}
