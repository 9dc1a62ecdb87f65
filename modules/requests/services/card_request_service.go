package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/domain/workflow"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

var cardRequestsObject = authz.ObjectName("requests", "card_requests")

// Swappable for tests, following the service test seam used across modules.
var authorizeCardRequestsFn = authz.Authorize

type CardRequestService struct {
	repo      cardrequest.Repository
	publisher eventbus.EventBus
}

func NewCardRequestService(repo cardrequest.Repository, publisher eventbus.EventBus) *CardRequestService {
	return &CardRequestService{repo: repo, publisher: publisher}
}

func (s *CardRequestService) gateView(req *cardrequest.CardRequest) workflow.Request {
	return workflow.Request{
		Status:                     req.Status,
		Environment:                req.Environment,
		TerminalType:               req.TerminalType,
		SNStatusVerified:           req.RequestorInfo.SNStatusVerified,
		SecuredConnectionConfirmed: req.SecuredConnectionConfirmed(),
		MediaCardOnly:              req.MediaCardOnly(),
	}
}

// load fetches the record and applies the environment access check. Records
// in environments the caller cannot touch are reported as not found, matching
// the list endpoints' suppression behaviour.
func (s *CardRequestService) load(ctx context.Context, id uuid.UUID) (*cardrequest.CardRequest, user.User, error) {
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !u.EnvAccess().Has(req.Environment) {
		return nil, nil, composables.ErrNotFound
	}
	return req, u, nil
}

// requireOwner ensures the acting requester edits only their own requests.
func requireOwner(u user.User, req *cardrequest.CardRequest) error {
	if u.Role() == user.RoleRequester && req.RequestorID != u.ID() {
		return composables.ErrForbidden
	}
	return nil
}

func (s *CardRequestService) GetByID(ctx context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "view"); err != nil {
		return nil, err
	}
	req, _, err := s.load(ctx, id)
	return req, err
}

// GetPaginated lists requests, suppressing records in environments the caller
// lacks even when the SQL filter already excluded them.
func (s *CardRequestService) GetPaginated(ctx context.Context, params *cardrequest.FindParams) ([]*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "list"); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.Role() == user.RoleRequester {
		// Requesters see their own history only.
		params = withRequestor(params, u.ID())
	}
	items, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]*cardrequest.CardRequest, 0, len(items))
	for _, item := range items {
		if u.EnvAccess().Has(item.Environment) {
			out = append(out, item)
		}
	}
	return out, nil
}

func withRequestor(params *cardrequest.FindParams, id uint) *cardrequest.FindParams {
	if params == nil {
		return &cardrequest.FindParams{RequestorID: id}
	}
	copied := *params
	copied.RequestorID = id
	return &copied
}

func (s *CardRequestService) Count(ctx context.Context, params *cardrequest.FindParams) (int64, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "list"); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, params)
}

// FulfilmentQueue is the SME work list: everything awaiting a decision or a
// card.
func (s *CardRequestService) FulfilmentQueue(ctx context.Context, params *cardrequest.FindParams) ([]*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "fulfil"); err != nil {
		return nil, err
	}
	if params == nil {
		params = &cardrequest.FindParams{}
	}
	if len(params.Statuses) == 0 {
		params.Statuses = []cardrequest.Status{
			cardrequest.StatusSubmitted, cardrequest.StatusApproved, cardrequest.StatusAssignCard,
		}
	}
	return s.repo.GetPaginated(ctx, params)
}

// SaveRequestorInfo creates the request on first save (status draft) or
// updates the requestor step of an editable request. When the request is for
// the requester themselves, identity fields come from the session user, not
// the payload.
func (s *CardRequestService) SaveRequestorInfo(
	ctx context.Context,
	id uuid.UUID,
	info cardrequest.RequestorInfo,
	env environment.Environment,
	terminalType cardrequest.TerminalType,
) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "update"); err != nil {
		return nil, err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	if info.RequestForSelf {
		info.Email = u.Email()
		info.RequestorName = u.FullName()
	}

	if id == uuid.Nil {
		return s.create(ctx, u, info, env, terminalType)
	}

	req, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(u, req); err != nil {
		return nil, err
	}
	// Verification is the SME's call, never the requester's payload.
	info.SNStatusVerified = req.RequestorInfo.SNStatusVerified
	next, err := workflow.Transition(s.gateView(req), workflow.ActionSave, u.Role(), "")
	if err != nil {
		return nil, err
	}
	req.RequestorInfo = info
	req.Status = next
	return s.persist(ctx, u, req)
}

func (s *CardRequestService) create(
	ctx context.Context,
	u user.User,
	info cardrequest.RequestorInfo,
	env environment.Environment,
	terminalType cardrequest.TerminalType,
) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "create"); err != nil {
		return nil, err
	}
	request := &cardrequest.CardRequest{
		ID:            uuid.New(),
		Status:        cardrequest.StatusNew,
		Environment:   env,
		TerminalType:  terminalType,
		RequestorID:   u.ID(),
		RequestorInfo: info,
	}
	if !u.EnvAccess().Has(request.Environment) {
		return nil, composables.ErrForbidden
	}
	next, err := workflow.Transition(s.gateView(request), workflow.ActionSave, u.Role(), "")
	if err != nil {
		return nil, err
	}
	request.Status = next

	var created *cardrequest.CardRequest
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, request)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(cardrequest.CreatedEvent{Sender: u.ID(), Result: created})
	return created, nil
}

func (s *CardRequestService) SaveTestInfo(ctx context.Context, id uuid.UUID, info cardrequest.TestInfo) (*cardrequest.CardRequest, error) {
	return s.saveStep(ctx, id, func(req *cardrequest.CardRequest) error {
		req.TestInfo = &info
		return nil
	})
}

func (s *CardRequestService) SaveTerminalInfo(ctx context.Context, id uuid.UUID, info cardrequest.TerminalInfo) (*cardrequest.CardRequest, error) {
	return s.saveStep(ctx, id, func(req *cardrequest.CardRequest) error {
		if req.TerminalType != cardrequest.TerminalPos {
			return workflow.ErrActionNotAllowed
		}
		req.TerminalInfo = &info
		return nil
	})
}

func (s *CardRequestService) saveStep(ctx context.Context, id uuid.UUID, apply func(*cardrequest.CardRequest) error) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "update"); err != nil {
		return nil, err
	}
	req, u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(u, req); err != nil {
		return nil, err
	}
	next, err := workflow.Transition(s.gateView(req), workflow.ActionSave, u.Role(), "")
	if err != nil {
		return nil, err
	}
	if err := apply(req); err != nil {
		return nil, err
	}
	req.Status = next
	return s.persist(ctx, u, req)
}

// SaveShippingDetails persists the final wizard step and submits the request.
func (s *CardRequestService) SaveShippingDetails(ctx context.Context, id uuid.UUID, info cardrequest.ShippingInfo) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "submit"); err != nil {
		return nil, err
	}
	req, u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(u, req); err != nil {
		return nil, err
	}
	req.ShippingInfo = &info
	from := req.Status
	next, err := workflow.Transition(s.gateView(req), workflow.ActionSubmit, u.Role(), "")
	if err != nil {
		return nil, err
	}
	req.Status = next
	return s.transition(ctx, u, req, from, "request submitted")
}

// SetSNStatusVerify records the SME's ServiceNow verification flag.
func (s *CardRequestService) SetSNStatusVerify(ctx context.Context, id uuid.UUID, verified bool) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "approve"); err != nil {
		return nil, err
	}
	req, u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	req.RequestorInfo.SNStatusVerified = verified
	return s.persist(ctx, u, req)
}

func (s *CardRequestService) Approve(ctx context.Context, id uuid.UUID, comment string) (*cardrequest.CardRequest, error) {
	return s.decide(ctx, id, workflow.ActionApprove, "approve", comment)
}

func (s *CardRequestService) Reject(ctx context.Context, id uuid.UUID, reason string) (*cardrequest.CardRequest, error) {
	return s.decide(ctx, id, workflow.ActionReject, "approve", reason)
}

func (s *CardRequestService) AssignCard(ctx context.Context, id uuid.UUID, comment string) (*cardrequest.CardRequest, error) {
	return s.decide(ctx, id, workflow.ActionAssign, "assign", comment)
}

func (s *CardRequestService) Ship(ctx context.Context, id uuid.UUID, comment string) (*cardrequest.CardRequest, error) {
	return s.decide(ctx, id, workflow.ActionShip, "ship", comment)
}

func (s *CardRequestService) Delete(ctx context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	return s.decide(ctx, id, workflow.ActionDelete, "delete", "")
}

func (s *CardRequestService) decide(ctx context.Context, id uuid.UUID, action workflow.Action, authzAction, comment string) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, authzAction); err != nil {
		return nil, err
	}
	req, u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := req.Status
	next, err := workflow.Transition(s.gateView(req), action, u.Role(), comment)
	if err != nil {
		return nil, err
	}
	req.Status = next
	if action == workflow.ActionApprove || action == workflow.ActionReject {
		req.FulfilmentInfo = &cardrequest.FulfilmentInfo{
			Comment:  comment,
			Decision: string(action),
		}
	}
	return s.transition(ctx, u, req, from, comment)
}

// Duplicate clones an existing request into a fresh draft owned by the caller.
func (s *CardRequestService) Duplicate(ctx context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	if err := authorizeCardRequestsFn(ctx, cardRequestsObject, "create"); err != nil {
		return nil, err
	}
	src, u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	clone := &cardrequest.CardRequest{
		ID:            uuid.New(),
		Status:        cardrequest.StatusDraft,
		Environment:   src.Environment,
		TerminalType:  src.TerminalType,
		RequestorID:   u.ID(),
		RequestorInfo: src.RequestorInfo,
		TestInfo:      src.TestInfo,
		TerminalInfo:  src.TerminalInfo,
		ShippingInfo:  src.ShippingInfo,
	}
	// Verification never carries over to a new request.
	clone.RequestorInfo.SNStatusVerified = false

	var created *cardrequest.CardRequest
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, clone)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(cardrequest.CreatedEvent{Sender: u.ID(), Result: created})
	return created, nil
}

// persist writes a content mutation that does not move the status machine.
func (s *CardRequestService) persist(ctx context.Context, u user.User, req *cardrequest.CardRequest) (*cardrequest.CardRequest, error) {
	var updated *cardrequest.CardRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, req); err != nil {
			return err
		}
		var err error
		updated, err = s.repo.GetByID(txCtx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(cardrequest.UpdatedEvent{Sender: u.ID(), Result: updated})
	return updated, nil
}

// transition writes a status move plus its audit comment atomically.
func (s *CardRequestService) transition(ctx context.Context, u user.User, req *cardrequest.CardRequest, from cardrequest.Status, comment string) (*cardrequest.CardRequest, error) {
	var updated *cardrequest.CardRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, req); err != nil {
			return err
		}
		entry := cardrequest.Comment{
			AuthorID:  u.ID(),
			Author:    u.FullName(),
			Status:    req.Status,
			Text:      comment,
			CreatedAt: time.Now(),
		}
		if err := s.repo.AppendComment(txCtx, req.ID, entry); err != nil {
			return err
		}
		var err error
		updated, err = s.repo.GetByID(txCtx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(cardrequest.TransitionedEvent{
		Sender: u.ID(),
		From:   from,
		To:     updated.Status,
		Result: updated,
	})
	return updated, nil
}
