// Package workflow is the single authority on what the card-request wizard
// may show, enable and do. The legacy dashboard scattered these rules as
// inline status comparisons across every screen; here they are one declarative
// table consumed by every caller, UI and server alike.
package workflow

import (
	"strings"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

// Step is one wizard screen, in workflow order.
type Step int

const (
	StepRequestorInfo Step = iota
	StepTestInfo
	StepTerminalDetails
	StepTesterDetails
	StepShipping
	StepFulfilment
	StepCardAssignment
	StepShipment
)

func Steps() []Step {
	return []Step{
		StepRequestorInfo, StepTestInfo, StepTerminalDetails, StepTesterDetails,
		StepShipping, StepFulfilment, StepCardAssignment, StepShipment,
	}
}

func (s Step) String() string {
	switch s {
	case StepRequestorInfo:
		return "requestor_info"
	case StepTestInfo:
		return "test_info"
	case StepTerminalDetails:
		return "terminal_details"
	case StepTesterDetails:
		return "tester_details"
	case StepShipping:
		return "shipping"
	case StepFulfilment:
		return "fulfilment"
	case StepCardAssignment:
		return "card_assignment"
	case StepShipment:
		return "shipment"
	default:
		return "unknown"
	}
}

// Action is a mutating operation on a card request.
type Action string

const (
	ActionSave    Action = "save"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionAssign  Action = "assign"
	ActionShip    Action = "ship"
	ActionDelete  Action = "delete"
)

// Request is the narrow view of a card request the gate evaluates. Services
// build it from the aggregate; tests build it directly.
type Request struct {
	Status                     cardrequest.Status
	Environment                environment.Environment
	TerminalType               cardrequest.TerminalType
	SNStatusVerified           bool
	SecuredConnectionConfirmed bool
	MediaCardOnly              bool
}

// Guard failures. Surfaced verbatim through the API envelope; no transition
// takes place when one fires.
var (
	ErrActionNotAllowed  = serrors.NewError("ACTION_NOT_ALLOWED", "this action is not available for the request in its current state", "")
	ErrSNNotVerified     = serrors.NewError("SN_NOT_VERIFIED", "the ServiceNow ticket status must be verified before approval", "")
	ErrReasonRequired    = serrors.NewError("REASON_REQUIRED", "a rejection reason is required", "")
	ErrSecuredConnection = serrors.NewError("SECURED_CONNECTION_REQUIRED", "confirm a secured connection before submitting a POS request", "")
)

// editableStatuses are the states in which the requester may still change the
// request's content.
func editable(status cardrequest.Status) bool {
	return status == cardrequest.StatusNew ||
		status == cardrequest.StatusDraft ||
		status == cardrequest.StatusReturned
}

// Decision is the gate's verdict for one (status, role, environment,
// terminal type) combination.
type Decision struct {
	status cardrequest.Status
	role   user.Role
	env    environment.Environment
	tt     cardrequest.TerminalType
}

// Gate evaluates the decision table. It is a pure function of its inputs.
func Gate(status cardrequest.Status, role user.Role, env environment.Environment, tt cardrequest.TerminalType) Decision {
	return Decision{status: status, role: role, env: env, tt: tt}
}

// StepVisible applies the visibility table:
//
//	Terminal Details              hidden when terminalType = ecomm
//	Shipping (address)            hidden when environment = prod AND terminalType = ecomm
//	Tester Details, Card Assignment  hidden when environment = test AND terminalType = pos
func (d Decision) StepVisible(step Step) bool {
	switch step {
	case StepTerminalDetails:
		return d.tt != cardrequest.TerminalEcomm
	case StepShipping:
		return !(d.env == environment.Prod && d.tt == cardrequest.TerminalEcomm)
	case StepTesterDetails, StepCardAssignment:
		return !(d.env == environment.Test && d.tt == cardrequest.TerminalPos)
	default:
		return true
	}
}

// StepEditable reports whether the step's controls accept input for this
// actor. Visibility is orthogonal: a hidden step is never editable.
func (d Decision) StepEditable(step Step) bool {
	if !d.StepVisible(step) {
		return false
	}
	switch step {
	case StepRequestorInfo, StepTestInfo, StepTerminalDetails, StepTesterDetails, StepShipping:
		return d.role == user.RoleRequester && editable(d.status)
	case StepFulfilment:
		return d.role == user.RoleSME && d.status == cardrequest.StatusSubmitted
	case StepCardAssignment:
		return fulfilmentRole(d.role) && d.status == cardrequest.StatusApproved
	case StepShipment:
		return fulfilmentRole(d.role) && d.status == cardrequest.StatusAssignCard
	default:
		return false
	}
}

// Allowed reports whether the action is available at all for this actor and
// state, before data guards are checked.
func (d Decision) Allowed(action Action) bool {
	switch action {
	case ActionSave:
		return d.role == user.RoleRequester && editable(d.status)
	case ActionSubmit:
		return d.role == user.RoleRequester &&
			(d.status == cardrequest.StatusDraft || d.status == cardrequest.StatusReturned)
	case ActionApprove, ActionReject:
		return d.role == user.RoleSME && d.status == cardrequest.StatusSubmitted
	case ActionAssign:
		return fulfilmentRole(d.role) && d.status == cardrequest.StatusApproved
	case ActionShip:
		return fulfilmentRole(d.role) && d.status == cardrequest.StatusAssignCard
	case ActionDelete:
		return fulfilmentRole(d.role) && !d.status.Terminal() &&
			d.status != cardrequest.StatusApproved && d.status != cardrequest.StatusAssignCard
	default:
		return false
	}
}

func fulfilmentRole(role user.Role) bool {
	return role == user.RoleSME || role == user.RoleManager
}

// Transition computes the next status for an action, enforcing the guard
// conditions. comment carries the rejection reason for ActionReject and is
// ignored otherwise. The request is left untouched on any error.
func Transition(req Request, action Action, role user.Role, comment string) (cardrequest.Status, error) {
	d := Gate(req.Status, role, req.Environment, req.TerminalType)
	if !d.Allowed(action) {
		return "", ErrActionNotAllowed
	}

	switch action {
	case ActionSave:
		// Interim saves never run the submit-time guards; a returned request
		// stays returned until resubmitted.
		if req.Status == cardrequest.StatusReturned {
			return cardrequest.StatusReturned, nil
		}
		return cardrequest.StatusDraft, nil

	case ActionSubmit:
		if req.TerminalType == cardrequest.TerminalPos && !req.SecuredConnectionConfirmed {
			return "", ErrSecuredConnection
		}
		return cardrequest.StatusSubmitted, nil

	case ActionApprove:
		if !req.SNStatusVerified {
			return "", ErrSNNotVerified
		}
		// Test-environment POS requests with media-only testers need no card
		// assignment or shipment.
		if req.Environment == environment.Test &&
			req.TerminalType == cardrequest.TerminalPos &&
			req.MediaCardOnly {
			return cardrequest.StatusCompleted, nil
		}
		return cardrequest.StatusApproved, nil

	case ActionReject:
		if strings.TrimSpace(comment) == "" {
			return "", ErrReasonRequired
		}
		return cardrequest.StatusReturned, nil

	case ActionAssign:
		return cardrequest.StatusAssignCard, nil

	case ActionShip:
		return cardrequest.StatusShipped, nil

	case ActionDelete:
		return cardrequest.StatusDeleted, nil

	default:
		return "", ErrActionNotAllowed
	}
}
