package console

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	orch      *Orchestrator
	allow     *stubCommander[AccessGrant]
	revoke    *stubCommander[AccessRevocation]
	remove    *stubCommander[UserRemoval]
	update    *stubCommander[AccessUpdate]
	invite    *stubInviteQuery
	refresher *stubRefresher
	session   *stubSessionHook
	now       time.Time
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		allow:     &stubCommander[AccessGrant]{},
		revoke:    &stubCommander[AccessRevocation]{},
		remove:    &stubCommander[UserRemoval]{},
		update:    &stubCommander[AccessUpdate]{},
		invite:    &stubInviteQuery{link: "https://t.me/access_console_bot?start=abc"},
		refresher: &stubRefresher{},
		session:   &stubSessionHook{},
		now:       time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC),
	}
	f.orch = NewOrchestrator(OrchestratorOptions{
		Commands: Commands{
			Allow:  f.allow,
			Revoke: f.revoke,
			Remove: f.remove,
			Update: f.update,
			Invite: f.invite,
		},
		Refresher:   f.refresher,
		SessionHook: f.session,
		Clock:       func() time.Time { return f.now },
	})
	return f
}

func TestOrchestratorRemoveScenario(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	w, err := f.orch.RequestRemove(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, w.Phase)
	assert.Equal(t, 0, f.remove.count(), "no request before confirmation")

	confirmation := f.orch.Confirmation(w)
	assert.Equal(t, "Excluir Usuário", confirmation.Title)
	assert.True(t, confirmation.Destructive)

	resolved, err := f.orch.Confirm(ctx, FlowAdminAction)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, resolved.Outcome)
	assert.Equal(t, 1, f.remove.count())
	assert.Equal(t, UserRemoval{UserID: "42"}, f.remove.last())
	assert.Equal(t, 1, f.refresher.count())

	fb, ok := f.orch.Feedback().Current()
	require.True(t, ok)
	assert.Equal(t, FeedbackSuccess, fb.Variant)
	assert.Equal(t, "Sucesso!", fb.Title)
	assert.Equal(t, "Usuário excluído com sucesso.", fb.Message)

	_, ok = f.orch.DismissFeedback(ctx)
	require.True(t, ok)
	assert.True(t, f.orch.Workflow(FlowAdminAction).IsIdle())
}

func TestOrchestratorCancelBeforeConfirmSendsNothing(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orch.RequestRevoke(ctx, "7")
	require.NoError(t, err)
	f.orch.Cancel(ctx, FlowAdminAction)

	_, err = f.orch.Confirm(ctx, FlowAdminAction)
	assert.ErrorIs(t, err, ErrNoWorkflow)
	assert.Equal(t, 0, f.revoke.count())
	assert.Equal(t, 0, f.refresher.count())
}

func TestOrchestratorRejectsDuplicateSubmission(t *testing.T) {
	f := newOrchestratorFixture()
	f.remove.started = make(chan struct{}, 1)
	f.remove.release = make(chan struct{})
	ctx := context.Background()

	_, err := f.orch.RequestRemove(ctx, "42")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Confirm(ctx, FlowAdminAction)
		done <- err
	}()
	<-f.remove.started

	_, err = f.orch.Confirm(ctx, FlowAdminAction)
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = f.orch.RequestRevoke(ctx, "43")
	assert.ErrorIs(t, err, ErrWorkflowBusy)

	close(f.remove.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.remove.count())
	assert.Equal(t, 0, f.revoke.count())
	assert.Equal(t, 1, f.refresher.count())
}

func TestOrchestratorDiscardsResponseAfterCancel(t *testing.T) {
	f := newOrchestratorFixture()
	f.revoke.started = make(chan struct{}, 1)
	f.revoke.release = make(chan struct{})
	ctx := context.Background()

	_, err := f.orch.RequestRevoke(ctx, "42")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Confirm(ctx, FlowAdminAction)
		done <- err
	}()
	<-f.revoke.started
	f.orch.Cancel(ctx, FlowAdminAction)
	close(f.revoke.release)

	assert.ErrorIs(t, <-done, ErrStaleWorkflow)
	assert.True(t, f.orch.Workflow(FlowAdminAction).IsIdle())
	_, ok := f.orch.Feedback().Current()
	assert.False(t, ok)
	assert.Equal(t, 0, f.refresher.count())
}

func TestOrchestratorUnauthorizedResetsFlow(t *testing.T) {
	f := newOrchestratorFixture()
	f.revoke.err = &UnauthorizedError{Op: "revoke"}
	ctx := context.Background()

	_, err := f.orch.RequestRevoke(ctx, "42")
	require.NoError(t, err)

	w, err := f.orch.Confirm(ctx, FlowAdminAction)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, w.IsIdle())
	assert.Equal(t, 1, f.session.count())
	assert.Equal(t, 0, f.refresher.count())
	_, ok := f.orch.Feedback().Current()
	assert.False(t, ok)
}

func TestOrchestratorAllowUsesThirtyDayWindow(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	w, err := f.orch.RequestAllow(ctx, " @carla_fx ")
	require.NoError(t, err)
	assert.Equal(t, "Confirmar Autorização", f.orch.Confirmation(w).Title)
	assert.Contains(t, f.orch.Confirmation(w).Message, "@carla_fx")

	_, err = f.orch.Confirm(ctx, FlowAdminAction)
	require.NoError(t, err)

	grant := f.allow.last()
	assert.Equal(t, "@carla_fx", grant.Target)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), grant.StartDate)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), grant.EndDate)

	fb, _ := f.orch.Feedback().Current()
	assert.Equal(t, "Usuário @carla_fx autorizado e notificado!", fb.Message)
}

func TestOrchestratorFailureMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("allow fallback", func(t *testing.T) {
		f := newOrchestratorFixture()
		f.allow.err = &ApplicationError{Op: "allow", StatusCode: 500}
		_, err := f.orch.RequestAllow(ctx, "123")
		require.NoError(t, err)

		w, err := f.orch.Confirm(ctx, FlowAdminAction)
		require.NoError(t, err)
		assert.Equal(t, OutcomeError, w.Outcome)
		assert.Equal(t, 0, f.refresher.count())

		fb, _ := f.orch.Feedback().Current()
		assert.Equal(t, FeedbackError, fb.Variant)
		assert.Equal(t, "Erro", fb.Title)
		assert.Equal(t, "Falha ao autorizar", fb.Message)
	})

	t.Run("server message wins", func(t *testing.T) {
		f := newOrchestratorFixture()
		f.revoke.err = &ApplicationError{Op: "revoke", StatusCode: 404, Message: "Usuário não encontrado"}
		_, err := f.orch.RequestRevoke(ctx, "9")
		require.NoError(t, err)

		_, err = f.orch.Confirm(ctx, FlowAdminAction)
		require.NoError(t, err)
		fb, _ := f.orch.Feedback().Current()
		assert.Equal(t, "Usuário não encontrado", fb.Message)
	})

	t.Run("connectivity uses generic text", func(t *testing.T) {
		f := newOrchestratorFixture()
		f.remove.err = &ConnectivityError{Op: "remove", Err: errors.New("refused")}
		_, err := f.orch.RequestRemove(ctx, "9")
		require.NoError(t, err)

		_, err = f.orch.Confirm(ctx, FlowAdminAction)
		require.NoError(t, err)
		fb, _ := f.orch.Feedback().Current()
		assert.Equal(t, "Ocorreu um erro", fb.Message)
	})
}

func TestOrchestratorInviteScenario(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	w, err := f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	assert.Equal(t, InvitePayload{Days: 30}, w.Payload)

	_, err = f.orch.EditInvite(ctx, 7, "")
	require.NoError(t, err)

	resolved, err := f.orch.Confirm(ctx, FlowInvite)
	require.NoError(t, err)
	require.Len(t, f.invite.calls, 1)
	assert.Equal(t, InviteRequest{Days: 7, Name: ""}, f.invite.calls[0])
	require.NotNil(t, resolved.Invite)
	assert.Equal(t, "https://t.me/access_console_bot?start=abc", resolved.Invite.Link)

	_, ok := f.orch.DismissFeedback(ctx)
	require.True(t, ok)
	held := f.orch.Workflow(FlowInvite)
	assert.Equal(t, PhaseCompleted, held.Phase)
	require.NotNil(t, held.Invite)

	invite, err := f.orch.CopyInvite(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/access_console_bot?start=abc", invite.Link)
	assert.True(t, f.orch.Workflow(FlowInvite).IsIdle())
}

func TestOrchestratorFailedInviteKeepsForm(t *testing.T) {
	f := newOrchestratorFixture()
	f.invite.err = &ApplicationError{Op: "invite", StatusCode: 500}
	ctx := context.Background()

	_, err := f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	_, err = f.orch.EditInvite(ctx, 7, "Ana")
	require.NoError(t, err)

	w, err := f.orch.Confirm(ctx, FlowInvite)
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, w.Outcome)
	assert.Nil(t, w.Invite)

	_, ok := f.orch.DismissFeedback(ctx)
	require.True(t, ok)
	form := f.orch.Workflow(FlowInvite)
	assert.Equal(t, PhaseAwaitingConfirmation, form.Phase)
	assert.Equal(t, InvitePayload{Days: 7, Name: "Ana"}, form.Payload)

	_, err = f.orch.CopyInvite(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrchestratorAccessEdit(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orch.OpenAccessEdit(ctx, "100", "2024-12-31")
	require.NoError(t, err)
	_, err = f.orch.EditAccess(ctx, "2025-01-15")
	require.NoError(t, err)

	_, err = f.orch.Confirm(ctx, FlowAccessEdit)
	require.NoError(t, err)
	update := f.update.last()
	assert.Equal(t, "100", update.UserID)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), update.EndDate)
	assert.Equal(t, 1, f.refresher.count())
}

func TestOrchestratorFailedAccessEditKeepsForm(t *testing.T) {
	f := newOrchestratorFixture()
	f.update.err = &ApplicationError{Op: "update-access", StatusCode: 500}
	ctx := context.Background()

	_, err := f.orch.OpenAccessEdit(ctx, "100", "2025-01-15")
	require.NoError(t, err)

	w, err := f.orch.Confirm(ctx, FlowAccessEdit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, w.Outcome)
	assert.Equal(t, 1, f.update.count())
	assert.Equal(t, 0, f.refresher.count())

	fb, ok := f.orch.Feedback().Current()
	require.True(t, ok)
	assert.Equal(t, FeedbackError, fb.Variant)

	_, ok = f.orch.DismissFeedback(ctx)
	require.True(t, ok)
	form := f.orch.Workflow(FlowAccessEdit)
	assert.Equal(t, PhaseAwaitingConfirmation, form.Phase)
	assert.Equal(t, UpdateAccessPayload{UserID: "100", EndDate: "2025-01-15"}, form.Payload)
	assert.Equal(t, OutcomeNone, form.Outcome)

	f.update.err = nil
	_, err = f.orch.Confirm(ctx, FlowAccessEdit)
	require.NoError(t, err)
	assert.Equal(t, 2, f.update.count())
	assert.Equal(t, 1, f.refresher.count())
}

func TestOrchestratorAcceptsBareHandleAndLongInviteName(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orch.RequestAllow(ctx, "carla_fx")
	require.NoError(t, err)

	_, err = f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	name := strings.Repeat("a", 65)
	w, err := f.orch.EditInvite(ctx, 7, name)
	require.NoError(t, err)
	assert.Equal(t, InvitePayload{Days: 7, Name: name}, w.Payload)
}

func TestOrchestratorValidatesBeforeOpening(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orch.RequestAllow(ctx, "not a handle!")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "target", verr.Field)
	assert.True(t, f.orch.Workflow(FlowAdminAction).IsIdle())

	_, err = f.orch.OpenAccessEdit(ctx, "1", "31/12/2024")
	require.ErrorAs(t, err, &verr)

	_, err = f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	_, err = f.orch.EditInvite(ctx, 0, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InvitePayload{Days: 30}, f.orch.Workflow(FlowInvite).Payload)
	assert.Equal(t, 0, f.allow.count())
}

func TestOrchestratorNewFeedbackSettlesPreviousWorkflow(t *testing.T) {
	f := newOrchestratorFixture()
	f.invite.err = errors.New("boom")
	ctx := context.Background()

	_, err := f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	_, err = f.orch.Confirm(ctx, FlowInvite)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, f.orch.Workflow(FlowInvite).Phase)

	_, err = f.orch.RequestRemove(ctx, "42")
	require.NoError(t, err)
	_, err = f.orch.Confirm(ctx, FlowAdminAction)
	require.NoError(t, err)

	assert.Equal(t, PhaseAwaitingConfirmation, f.orch.Workflow(FlowInvite).Phase)
	fb, _ := f.orch.Feedback().Current()
	assert.Equal(t, FlowAdminAction, fb.Flow)
}

func TestOrchestratorFlowsAreIndependent(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orch.OpenInvite(ctx)
	require.NoError(t, err)
	_, err = f.orch.RequestRevoke(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, ActionInvite, f.orch.Workflow(FlowInvite).Kind())
	assert.Equal(t, ActionRevoke, f.orch.Workflow(FlowAdminAction).Kind())
}

func TestOrchestratorNotify(t *testing.T) {
	f := newOrchestratorFixture()
	fb := f.orch.Notify(context.Background(), KeyFeedbackHistorySoon, nil)
	assert.Equal(t, FeedbackInfo, fb.Variant)
	assert.Equal(t, "Funcionalidade de histórico em breve!", fb.Message)
}
