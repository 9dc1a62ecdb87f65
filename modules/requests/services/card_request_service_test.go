package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/domain/workflow"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
	"github.com/sirupsen/logrus"
)

type memoryRequestRepo struct {
	records   map[uuid.UUID]*cardrequest.CardRequest
	nextSeq   int64
	updateErr error
}

func newMemoryRequestRepo() *memoryRequestRepo {
	return &memoryRequestRepo{records: map[uuid.UUID]*cardrequest.CardRequest{}}
}

func (m *memoryRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, composables.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memoryRequestRepo) GetPaginated(_ context.Context, params *cardrequest.FindParams) ([]*cardrequest.CardRequest, error) {
	var out []*cardrequest.CardRequest
	for _, rec := range m.records {
		if params != nil {
			if params.Status != "" && rec.Status != params.Status {
				continue
			}
			if params.RequestorID != 0 && rec.RequestorID != params.RequestorID {
				continue
			}
			if params.Environment != 0 && rec.Environment != params.Environment {
				continue
			}
		}
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryRequestRepo) Count(ctx context.Context, params *cardrequest.FindParams) (int64, error) {
	items, err := m.GetPaginated(ctx, params)
	return int64(len(items)), err
}

func (m *memoryRequestRepo) Create(_ context.Context, data *cardrequest.CardRequest) (*cardrequest.CardRequest, error) {
	m.nextSeq++
	copied := *data
	copied.RequestID = m.nextSeq
	copied.Version = 1
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.records[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memoryRequestRepo) Update(_ context.Context, data *cardrequest.CardRequest) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	current, ok := m.records[data.ID]
	if !ok {
		return composables.ErrNotFound
	}
	if current.Version != data.Version {
		return cardrequest.ErrVersionConflict
	}
	copied := *data
	copied.Version++
	copied.UpdatedAt = time.Now()
	copied.Comments = current.Comments
	m.records[data.ID] = &copied
	return nil
}

func (m *memoryRequestRepo) AppendComment(_ context.Context, id uuid.UUID, comment cardrequest.Comment) error {
	rec, ok := m.records[id]
	if !ok {
		return composables.ErrNotFound
	}
	comment.ID = uint(len(rec.Comments) + 1)
	rec.Comments = append(rec.Comments, comment)
	return nil
}

func (m *memoryRequestRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func testUser(id uint, role user.Role) user.User {
	return user.New("tester@example.com", "Terry", "Tester",
		user.WithID(id),
		user.WithRole(role),
		user.WithEnvAccess(user.EnvAccess{Prod: true, QA: true, Test: true}),
	)
}

func ctxWithUser(u user.User) context.Context {
	return composables.WithUser(context.Background(), u)
}

func newService(t *testing.T) (*CardRequestService, *memoryRequestRepo) {
	t.Helper()
	repo := newMemoryRequestRepo()
	bus := eventbus.NewEventPublisher(logrus.New())
	return NewCardRequestService(repo, bus), repo
}

func TestSaveRequestorInfo_RequestForSelfCopiesSessionIdentity(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN100",
		RequestForSelf: true,
		Email:          "ignored@example.com",
		RequestorName:  "Ignored Name",
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusDraft, created.Status)
	require.Equal(t, "tester@example.com", created.RequestorInfo.Email)
	require.Equal(t, "Terry Tester", created.RequestorInfo.RequestorName)
	require.Equal(t, int64(1), created.RequestID)
}

func TestSaveRequestorInfo_RequestForOtherKeepsPayloadIdentity(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN101",
		RequestForSelf: false,
		Email:          "colleague@example.com",
		RequestorName:  "Casey Colleague",
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	require.Equal(t, "colleague@example.com", created.RequestorInfo.Email)
	require.Equal(t, "Casey Colleague", created.RequestorInfo.RequestorName)
}

// Full happy path: requester drafts and submits, SME verifies and approves.
func TestLifecycle_DraftSubmitApprove(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)
	sme := testUser(1, user.RoleSME)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN100",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusDraft, created.Status)

	submitted, err := svc.SaveShippingDetails(ctxWithUser(requester), created.ID, cardrequest.ShippingInfo{
		CardCount: 2,
		Addresses: []cardrequest.Address{{Line1: "1 Main St", City: "Springfield", Country: "US"}},
	})
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusSubmitted, submitted.Status)

	// Approval without verification is refused and changes nothing.
	_, err = svc.Approve(ctxWithUser(sme), created.ID, "")
	require.ErrorIs(t, err, workflow.ErrSNNotVerified)
	current, err := svc.GetByID(ctxWithUser(sme), created.ID)
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusSubmitted, current.Status)

	_, err = svc.SetSNStatusVerify(ctxWithUser(sme), created.ID, true)
	require.NoError(t, err)

	approved, err := svc.Approve(ctxWithUser(sme), created.ID, "looks good")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusApproved, approved.Status)

	// The assignment step is now actionable for the SME.
	d := workflow.Gate(approved.Status, sme.Role(), approved.Environment, approved.TerminalType)
	require.True(t, d.Allowed(workflow.ActionAssign))
}

func TestReject_AppendsAuditCommentAndReEnablesRequester(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)
	sme := testUser(1, user.RoleSME)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN100",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	_, err = svc.SaveShippingDetails(ctxWithUser(requester), created.ID, cardrequest.ShippingInfo{CardCount: 1})
	require.NoError(t, err)

	_, err = svc.Reject(ctxWithUser(sme), created.ID, "  ")
	require.ErrorIs(t, err, workflow.ErrReasonRequired)

	returned, err := svc.Reject(ctxWithUser(sme), created.ID, "missing BIN")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusReturned, returned.Status)

	last := returned.Comments[len(returned.Comments)-1]
	require.Equal(t, "missing BIN", last.Text)
	require.Equal(t, sme.ID(), last.AuthorID)
	require.Equal(t, cardrequest.StatusReturned, last.Status)
	require.False(t, last.CreatedAt.IsZero())

	d := workflow.Gate(returned.Status, requester.Role(), returned.Environment, returned.TerminalType)
	require.True(t, d.Allowed(workflow.ActionSave))
	require.True(t, d.Allowed(workflow.ActionSubmit))
}

func TestApprove_MediaCardOnlyTestPosCompletesImmediately(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)
	sme := testUser(1, user.RoleSME)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN200",
		RequestForSelf: true,
	}, environment.Test, cardrequest.TerminalPos)
	require.NoError(t, err)

	_, err = svc.SaveTerminalInfo(ctxWithUser(requester), created.ID, cardrequest.TerminalInfo{
		TerminalDetail:    "countertop",
		SecuredConnection: true,
	})
	require.NoError(t, err)

	_, err = svc.SaveShippingDetails(ctxWithUser(requester), created.ID, cardrequest.ShippingInfo{
		Testers: []cardrequest.Tester{{Name: "Pat", MediaCard: true, PhysicalCard: false}},
	})
	require.NoError(t, err)

	_, err = svc.SetSNStatusVerify(ctxWithUser(sme), created.ID, true)
	require.NoError(t, err)

	completed, err := svc.Approve(ctxWithUser(sme), created.ID, "no physical card needed")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusCompleted, completed.Status)
}

func TestSubmit_PosWithoutSecuredConnectionRefused(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN300",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalPos)
	require.NoError(t, err)

	_, err = svc.SaveShippingDetails(ctxWithUser(requester), created.ID, cardrequest.ShippingInfo{CardCount: 1})
	require.ErrorIs(t, err, workflow.ErrSecuredConnection)

	current, err := svc.GetByID(ctxWithUser(requester), created.ID)
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusDraft, current.Status)
}

func TestRequesterCannotTouchForeignRequests(t *testing.T) {
	svc, _ := newService(t)
	owner := testUser(7, user.RoleRequester)
	other := testUser(8, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(owner), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN400",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)

	_, err = svc.SaveTestInfo(ctxWithUser(other), created.ID, cardrequest.TestInfo{Objective: "steal"})
	require.ErrorIs(t, err, composables.ErrForbidden)
}

func TestEnvironmentAccessSuppression(t *testing.T) {
	svc, repo := newService(t)
	requester := testUser(7, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN500",
		RequestForSelf: true,
	}, environment.Prod, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	require.Len(t, repo.records, 1)

	// Same user stripped of prod access: record is suppressed from reads and
	// lists, even though the repository still returns it.
	restricted := user.New("tester@example.com", "Terry", "Tester",
		user.WithID(7),
		user.WithRole(user.RoleRequester),
		user.WithEnvAccess(user.EnvAccess{QA: true, Test: true}),
	)
	_, err = svc.GetByID(ctxWithUser(restricted), created.ID)
	require.ErrorIs(t, err, composables.ErrNotFound)

	items, err := svc.GetPaginated(ctxWithUser(restricted), nil)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestUpdate_VersionConflictSurfaces(t *testing.T) {
	svc, repo := newService(t)
	requester := testUser(7, user.RoleRequester)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN600",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)

	// A concurrent writer got in between our read and our write.
	repo.updateErr = cardrequest.ErrVersionConflict

	_, err = svc.SaveTestInfo(ctxWithUser(requester), created.ID, cardrequest.TestInfo{Objective: "contactless"})
	require.ErrorIs(t, err, cardrequest.ErrVersionConflict)
}

func TestDuplicate_ResetsVerificationAndOwnership(t *testing.T) {
	svc, _ := newService(t)
	requester := testUser(7, user.RoleRequester)
	sme := testUser(1, user.RoleSME)

	created, err := svc.SaveRequestorInfo(ctxWithUser(requester), uuid.Nil, cardrequest.RequestorInfo{
		SNTicket:       "SN700",
		RequestForSelf: true,
	}, environment.QA, cardrequest.TerminalEcomm)
	require.NoError(t, err)
	_, err = svc.SetSNStatusVerify(ctxWithUser(sme), created.ID, true)
	require.NoError(t, err)

	clone, err := svc.Duplicate(ctxWithUser(sme), created.ID)
	require.NoError(t, err)
	require.NotEqual(t, created.ID, clone.ID)
	require.Equal(t, cardrequest.StatusDraft, clone.Status)
	require.Equal(t, sme.ID(), clone.RequestorID)
	require.False(t, clone.RequestorInfo.SNStatusVerified)
}
