package console

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	w, err := Transition(Workflow{}, Event{Type: EventOpen, ID: "wf-1", Payload: RevokePayload{UserID: "42"}})
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, w.Phase)
	assert.Equal(t, ActionRevoke, w.Kind())

	w, err = Transition(w, Event{Type: EventConfirm})
	require.NoError(t, err)
	assert.Equal(t, PhaseInFlight, w.Phase)

	w, err = Transition(w, Event{Type: EventResolve, ID: "wf-1"})
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, w.Phase)
	assert.Equal(t, OutcomeSuccess, w.Outcome)

	w, err = Transition(w, Event{Type: EventDismiss})
	require.NoError(t, err)
	assert.True(t, w.IsIdle())
}

func TestTransitionConfirmWhileInFlight(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseInFlight, Payload: RemovePayload{UserID: "1"}}
	next, err := Transition(w, Event{Type: EventConfirm})
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, w, next)
}

func TestTransitionOpenWhileInFlight(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseInFlight, Payload: RemovePayload{UserID: "1"}}
	_, err := Transition(w, Event{Type: EventOpen, Payload: RevokePayload{UserID: "2"}})
	assert.ErrorIs(t, err, ErrWorkflowBusy)
}

func TestTransitionConfirmIdle(t *testing.T) {
	_, err := Transition(Workflow{}, Event{Type: EventConfirm})
	assert.ErrorIs(t, err, ErrNoWorkflow)
}

func TestTransitionResolveStale(t *testing.T) {
	w := Workflow{ID: "wf-2", Phase: PhaseInFlight, Payload: RemovePayload{UserID: "1"}}
	_, err := Transition(w, Event{Type: EventResolve, ID: "wf-1"})
	assert.ErrorIs(t, err, ErrStaleWorkflow)
}

func TestTransitionFailedInviteReturnsToForm(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseInFlight, Payload: InvitePayload{Days: 7}}
	w, err := Transition(w, Event{Type: EventResolve, ID: "wf-1", Err: errors.New("boom")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, w.Outcome)

	w, err = Transition(w, Event{Type: EventDismiss})
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, w.Phase)
	assert.Equal(t, InvitePayload{Days: 7}, w.Payload)
	assert.NoError(t, w.Err)
}

func TestTransitionFailedAccessEditStaysOpen(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseCompleted, Outcome: OutcomeError, Payload: UpdateAccessPayload{UserID: "1", EndDate: "2024-12-31"}}
	w, err := Transition(w, Event{Type: EventDismiss})
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, w.Phase)
}

func TestTransitionFailedAdminActionCloses(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseCompleted, Outcome: OutcomeError, Payload: RevokePayload{UserID: "1"}}
	w, err := Transition(w, Event{Type: EventDismiss})
	require.NoError(t, err)
	assert.True(t, w.IsIdle())
}

func TestTransitionInviteLinkHeldUntilCopy(t *testing.T) {
	invite := &Invite{Link: "https://t.me/x"}
	w := Workflow{ID: "wf-1", Phase: PhaseInFlight, Payload: InvitePayload{Days: 30}}
	w, err := Transition(w, Event{Type: EventResolve, ID: "wf-1", Invite: invite})
	require.NoError(t, err)

	w, err = Transition(w, Event{Type: EventDismiss})
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, w.Phase)
	assert.Equal(t, invite, w.Invite)

	w, err = Transition(w, Event{Type: EventCopy})
	require.NoError(t, err)
	assert.True(t, w.IsIdle())
}

func TestTransitionCopyWithoutLink(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseAwaitingConfirmation, Payload: InvitePayload{Days: 30}}
	_, err := Transition(w, Event{Type: EventCopy})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionEditRules(t *testing.T) {
	w := Workflow{ID: "wf-1", Phase: PhaseAwaitingConfirmation, Payload: InvitePayload{Days: 30}}
	next, err := Transition(w, Event{Type: EventEdit, Payload: InvitePayload{Days: 7, Name: "Ana"}})
	require.NoError(t, err)
	assert.Equal(t, InvitePayload{Days: 7, Name: "Ana"}, next.Payload)

	_, err = Transition(w, Event{Type: EventEdit, Payload: RevokePayload{UserID: "1"}})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	inFlight := Workflow{ID: "wf-1", Phase: PhaseInFlight, Payload: InvitePayload{Days: 30}}
	_, err = Transition(inFlight, Event{Type: EventEdit, Payload: InvitePayload{Days: 1}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionCancelAlwaysIdles(t *testing.T) {
	for _, phase := range []Phase{PhaseAwaitingConfirmation, PhaseInFlight, PhaseCompleted} {
		w, err := Transition(Workflow{ID: "wf", Phase: phase, Payload: InvitePayload{Days: 3}}, Event{Type: EventCancel})
		require.NoError(t, err)
		assert.True(t, w.IsIdle(), "phase %s", phase)
	}
}

func TestTransitionOpenGeneratesID(t *testing.T) {
	w, err := Transition(Workflow{}, Event{Type: EventOpen, Payload: DefaultInvitePayload()})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, InvitePayload{Days: DefaultInviteDays}, w.Payload)
}

func TestFlowFor(t *testing.T) {
	assert.Equal(t, FlowAdminAction, FlowFor(ActionAllow))
	assert.Equal(t, FlowAdminAction, FlowFor(ActionRevoke))
	assert.Equal(t, FlowAdminAction, FlowFor(ActionRemove))
	assert.Equal(t, FlowInvite, FlowFor(ActionInvite))
	assert.Equal(t, FlowAccessEdit, FlowFor(ActionUpdateAccess))
}
