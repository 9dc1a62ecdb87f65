package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/domain/workflow"
)

var allRoles = []user.Role{user.RoleSME, user.RoleRequester, user.RoleViewer, user.RoleManager}

var allStatuses = []cardrequest.Status{
	cardrequest.StatusNew, cardrequest.StatusDraft, cardrequest.StatusSubmitted,
	cardrequest.StatusReturned, cardrequest.StatusApproved, cardrequest.StatusAssignCard,
	cardrequest.StatusShipped, cardrequest.StatusCompleted, cardrequest.StatusDeleted,
}

func TestGate_RequesterStepsLockedOutsideEditableStatuses(t *testing.T) {
	requesterSteps := []workflow.Step{
		workflow.StepRequestorInfo, workflow.StepTestInfo,
		workflow.StepTerminalDetails, workflow.StepShipping,
	}
	locked := []cardrequest.Status{
		cardrequest.StatusSubmitted, cardrequest.StatusApproved,
		cardrequest.StatusAssignCard, cardrequest.StatusShipped,
		cardrequest.StatusCompleted, cardrequest.StatusDeleted,
	}
	for _, status := range locked {
		for _, role := range allRoles {
			d := workflow.Gate(status, role, environment.QA, cardrequest.TerminalPos)
			for _, step := range requesterSteps {
				require.False(t, d.StepEditable(step),
					"step %s must be read-only in status %s for role %s", step, status, role)
			}
		}
	}
}

func TestGate_RequesterStepsEditableForRequesterOnly(t *testing.T) {
	for _, status := range []cardrequest.Status{cardrequest.StatusNew, cardrequest.StatusDraft, cardrequest.StatusReturned} {
		d := workflow.Gate(status, user.RoleRequester, environment.QA, cardrequest.TerminalPos)
		require.True(t, d.StepEditable(workflow.StepRequestorInfo))
		require.True(t, d.StepEditable(workflow.StepShipping))

		for _, role := range []user.Role{user.RoleSME, user.RoleViewer, user.RoleManager} {
			d := workflow.Gate(status, role, environment.QA, cardrequest.TerminalPos)
			require.False(t, d.StepEditable(workflow.StepRequestorInfo),
				"role %s must not edit requester steps", role)
		}
	}
}

func TestGate_VisibilityTable(t *testing.T) {
	cases := []struct {
		name    string
		env     environment.Environment
		tt      cardrequest.TerminalType
		step    workflow.Step
		visible bool
	}{
		{"terminal details hidden for ecomm", environment.QA, cardrequest.TerminalEcomm, workflow.StepTerminalDetails, false},
		{"terminal details shown for pos", environment.QA, cardrequest.TerminalPos, workflow.StepTerminalDetails, true},
		{"shipping hidden for prod ecomm", environment.Prod, cardrequest.TerminalEcomm, workflow.StepShipping, false},
		{"shipping shown for prod pos", environment.Prod, cardrequest.TerminalPos, workflow.StepShipping, true},
		{"shipping shown for qa ecomm", environment.QA, cardrequest.TerminalEcomm, workflow.StepShipping, true},
		{"assignment hidden for test pos", environment.Test, cardrequest.TerminalPos, workflow.StepCardAssignment, false},
		{"assignment shown for test ecomm", environment.Test, cardrequest.TerminalEcomm, workflow.StepCardAssignment, true},
		{"assignment shown for qa pos", environment.QA, cardrequest.TerminalPos, workflow.StepCardAssignment, true},
		{"tester details hidden for test pos", environment.Test, cardrequest.TerminalPos, workflow.StepTesterDetails, false},
		{"tester details shown for qa pos", environment.QA, cardrequest.TerminalPos, workflow.StepTesterDetails, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, role := range allRoles {
				d := workflow.Gate(cardrequest.StatusDraft, role, tc.env, tc.tt)
				require.Equal(t, tc.visible, d.StepVisible(tc.step))
			}
		})
	}
}

func TestTransition_ApproveRequiresSNVerification(t *testing.T) {
	for _, status := range allStatuses {
		req := workflow.Request{
			Status:       status,
			Environment:  environment.QA,
			TerminalType: cardrequest.TerminalEcomm,
		}
		_, err := workflow.Transition(req, workflow.ActionApprove, user.RoleSME, "")
		require.Error(t, err, "approve must fail without SN verification in status %s", status)
		if status == cardrequest.StatusSubmitted {
			require.ErrorIs(t, err, workflow.ErrSNNotVerified)
		} else {
			require.ErrorIs(t, err, workflow.ErrActionNotAllowed)
		}
	}
}

func TestTransition_ApproveSucceedsWhenVerified(t *testing.T) {
	req := workflow.Request{
		Status:           cardrequest.StatusSubmitted,
		Environment:      environment.QA,
		TerminalType:     cardrequest.TerminalEcomm,
		SNStatusVerified: true,
	}
	next, err := workflow.Transition(req, workflow.ActionApprove, user.RoleSME, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusApproved, next)
}

func TestTransition_RejectRequiresComment(t *testing.T) {
	req := workflow.Request{
		Status:       cardrequest.StatusSubmitted,
		Environment:  environment.QA,
		TerminalType: cardrequest.TerminalEcomm,
	}
	for _, comment := range []string{"", "   ", "\t\n"} {
		_, err := workflow.Transition(req, workflow.ActionReject, user.RoleSME, comment)
		require.ErrorIs(t, err, workflow.ErrReasonRequired)
	}

	next, err := workflow.Transition(req, workflow.ActionReject, user.RoleSME, "missing BIN")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusReturned, next)
}

func TestTransition_MediaCardShortcutToCompleted(t *testing.T) {
	req := workflow.Request{
		Status:           cardrequest.StatusSubmitted,
		Environment:      environment.Test,
		TerminalType:     cardrequest.TerminalPos,
		SNStatusVerified: true,
		MediaCardOnly:    true,
	}
	next, err := workflow.Transition(req, workflow.ActionApprove, user.RoleSME, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusCompleted, next)

	// Any deviation from test+pos+media-only keeps the normal approve path.
	for _, variant := range []workflow.Request{
		{Status: cardrequest.StatusSubmitted, Environment: environment.QA, TerminalType: cardrequest.TerminalPos, SNStatusVerified: true, MediaCardOnly: true},
		{Status: cardrequest.StatusSubmitted, Environment: environment.Test, TerminalType: cardrequest.TerminalEcomm, SNStatusVerified: true, MediaCardOnly: true},
		{Status: cardrequest.StatusSubmitted, Environment: environment.Test, TerminalType: cardrequest.TerminalPos, SNStatusVerified: true, MediaCardOnly: false},
	} {
		next, err := workflow.Transition(variant, workflow.ActionApprove, user.RoleSME, "")
		require.NoError(t, err)
		require.Equal(t, cardrequest.StatusApproved, next)
	}
}

func TestTransition_PosSubmitRequiresSecuredConnection(t *testing.T) {
	req := workflow.Request{
		Status:       cardrequest.StatusDraft,
		Environment:  environment.QA,
		TerminalType: cardrequest.TerminalPos,
	}
	_, err := workflow.Transition(req, workflow.ActionSubmit, user.RoleRequester, "")
	require.ErrorIs(t, err, workflow.ErrSecuredConnection)

	// Interim saves don't run the submit-time guard.
	next, err := workflow.Transition(req, workflow.ActionSave, user.RoleRequester, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusDraft, next)

	req.SecuredConnectionConfirmed = true
	next, err = workflow.Transition(req, workflow.ActionSubmit, user.RoleRequester, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusSubmitted, next)

	// Ecomm requests never need the attestation.
	ecomm := workflow.Request{
		Status:       cardrequest.StatusDraft,
		Environment:  environment.QA,
		TerminalType: cardrequest.TerminalEcomm,
	}
	next, err = workflow.Transition(ecomm, workflow.ActionSubmit, user.RoleRequester, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusSubmitted, next)
}

func TestTransition_SaveKeepsReturnedEditable(t *testing.T) {
	req := workflow.Request{
		Status:       cardrequest.StatusReturned,
		Environment:  environment.QA,
		TerminalType: cardrequest.TerminalEcomm,
	}
	next, err := workflow.Transition(req, workflow.ActionSave, user.RoleRequester, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusReturned, next)

	next, err = workflow.Transition(req, workflow.ActionSubmit, user.RoleRequester, "")
	require.NoError(t, err)
	require.Equal(t, cardrequest.StatusSubmitted, next)
}

func TestTransition_FulfilmentChain(t *testing.T) {
	for _, role := range []user.Role{user.RoleSME, user.RoleManager} {
		next, err := workflow.Transition(workflow.Request{Status: cardrequest.StatusApproved}, workflow.ActionAssign, role, "")
		require.NoError(t, err)
		require.Equal(t, cardrequest.StatusAssignCard, next)

		next, err = workflow.Transition(workflow.Request{Status: cardrequest.StatusAssignCard}, workflow.ActionShip, role, "")
		require.NoError(t, err)
		require.Equal(t, cardrequest.StatusShipped, next)
	}

	for _, role := range []user.Role{user.RoleRequester, user.RoleViewer} {
		_, err := workflow.Transition(workflow.Request{Status: cardrequest.StatusApproved}, workflow.ActionAssign, role, "")
		require.ErrorIs(t, err, workflow.ErrActionNotAllowed)
	}
}

func TestTransition_NoBackwardsMovement(t *testing.T) {
	// Once shipped or completed, nothing moves the request again.
	for _, status := range []cardrequest.Status{cardrequest.StatusShipped, cardrequest.StatusCompleted, cardrequest.StatusDeleted} {
		for _, action := range []workflow.Action{
			workflow.ActionSave, workflow.ActionSubmit, workflow.ActionApprove,
			workflow.ActionReject, workflow.ActionAssign, workflow.ActionShip, workflow.ActionDelete,
		} {
			for _, role := range allRoles {
				_, err := workflow.Transition(workflow.Request{Status: status}, action, role, "reason")
				require.ErrorIs(t, err, workflow.ErrActionNotAllowed,
					"status %s action %s role %s", status, action, role)
			}
		}
	}
}
