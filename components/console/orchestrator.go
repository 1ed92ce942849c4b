package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// Commands are the executors behind each action kind.
type Commands struct {
	Allow  gocommand.Commander[AccessGrant]
	Revoke gocommand.Commander[AccessRevocation]
	Remove gocommand.Commander[UserRemoval]
	Update gocommand.Commander[AccessUpdate]
	Invite gocommand.Querier[InviteRequest, Invite]
}

// Refresher reloads the snapshot after a successful mutation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// OrchestratorOptions configures an Orchestrator. Every collaborator except
// Commands has a default.
type OrchestratorOptions struct {
	Commands    Commands
	Refresher   Refresher
	Feedback    *FeedbackPresenter
	Localizer   *Localizer
	Validator   InputValidator
	SessionHook SessionHook
	Events      EventHook
	Telemetry   Telemetry
	Logger      *slog.Logger
	Clock       func() time.Time
	NewID       func() string
}

// Confirmation is the text of a confirmation dialog.
type Confirmation struct {
	Title       string
	Message     string
	Destructive bool
}

// Orchestrator drives the invite, admin-action and access-edit flows through
// confirm, execute, refresh and feedback. It never touches the snapshot
// directly; successful mutations trigger exactly one refresh.
type Orchestrator struct {
	commands    Commands
	refresher   Refresher
	feedback    *FeedbackPresenter
	loc         *Localizer
	validator   InputValidator
	sessionHook SessionHook
	events      EventHook
	telemetry   Telemetry
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string

	mu    sync.Mutex
	flows map[Flow]Workflow
}

// NewOrchestrator builds an Orchestrator with safe defaults.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Feedback == nil {
		opts.Feedback = NewFeedbackPresenter(opts.Events)
	}
	if opts.Localizer == nil {
		opts.Localizer = defaultLocalizer()
	}
	if opts.Validator == nil {
		opts.Validator = NewSchemaValidator()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Orchestrator{
		commands:    opts.Commands,
		refresher:   opts.Refresher,
		feedback:    opts.Feedback,
		loc:         opts.Localizer,
		validator:   opts.Validator,
		sessionHook: normalizeSessionHook(opts.SessionHook),
		events:      normalizeEventHook(opts.Events),
		telemetry:   normalizeTelemetry(opts.Telemetry),
		logger:      opts.Logger,
		now:         opts.Clock,
		newID:       opts.NewID,
		flows:       make(map[Flow]Workflow),
	}
}

// Feedback exposes the presenter used for outcomes.
func (o *Orchestrator) Feedback() *FeedbackPresenter {
	return o.feedback
}

// Workflow returns the current workflow of a flow.
func (o *Orchestrator) Workflow(flow Flow) Workflow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flows[flow]
}

// RequestAllow opens a direct-grant confirmation for a numeric id or @handle.
func (o *Orchestrator) RequestAllow(ctx context.Context, target string) (Workflow, error) {
	return o.open(ctx, AllowPayload{Target: strings.TrimSpace(target)})
}

// RequestRevoke opens a revoke confirmation for userID.
func (o *Orchestrator) RequestRevoke(ctx context.Context, userID string) (Workflow, error) {
	return o.open(ctx, RevokePayload{UserID: strings.TrimSpace(userID)})
}

// RequestRemove opens a delete confirmation for userID.
func (o *Orchestrator) RequestRemove(ctx context.Context, userID string) (Workflow, error) {
	return o.open(ctx, RemovePayload{UserID: strings.TrimSpace(userID)})
}

// OpenInvite opens the invite form with default values.
func (o *Orchestrator) OpenInvite(ctx context.Context) (Workflow, error) {
	return o.open(ctx, DefaultInvitePayload())
}

// EditInvite changes the invite form values.
func (o *Orchestrator) EditInvite(ctx context.Context, days int, name string) (Workflow, error) {
	return o.edit(ctx, InvitePayload{Days: days, Name: strings.TrimSpace(name)})
}

// OpenAccessEdit opens the access window editor for a user.
func (o *Orchestrator) OpenAccessEdit(ctx context.Context, userID, endDate string) (Workflow, error) {
	return o.open(ctx, UpdateAccessPayload{
		UserID:  strings.TrimSpace(userID),
		EndDate: strings.TrimSpace(endDate),
	})
}

// EditAccess changes the end date in the open access editor.
func (o *Orchestrator) EditAccess(ctx context.Context, endDate string) (Workflow, error) {
	current := o.Workflow(FlowAccessEdit)
	payload, ok := current.Payload.(UpdateAccessPayload)
	if !ok {
		return current, ErrNoWorkflow
	}
	payload.EndDate = strings.TrimSpace(endDate)
	return o.edit(ctx, payload)
}

// Confirmation describes the dialog for w.
func (o *Orchestrator) Confirmation(w Workflow) Confirmation {
	kind := w.Kind()
	var args map[string]any
	switch p := w.Payload.(type) {
	case AllowPayload:
		args = map[string]any{"target": p.Target}
	case UpdateAccessPayload:
		args = map[string]any{"user": p.UserID, "end_date": p.EndDate}
	case InvitePayload:
		args = map[string]any{"days": p.Days}
	}
	return Confirmation{
		Title:       o.loc.T(messageKey("confirm", kind, "title"), args),
		Message:     o.loc.T(messageKey("confirm", kind, "message"), args),
		Destructive: kind == ActionRemove,
	}
}

// Confirm executes the awaiting workflow of flow. Confirming an in-flight
// workflow returns ErrInFlight without issuing another request. Remote
// failures are reported through the workflow outcome and feedback, not as
// the returned error; an UnauthorizedError resets the flow and is returned.
func (o *Orchestrator) Confirm(ctx context.Context, flow Flow) (Workflow, error) {
	o.mu.Lock()
	current := o.flows[flow]
	inFlight, err := Transition(current, Event{Type: EventConfirm})
	if err != nil {
		o.mu.Unlock()
		return current, err
	}
	o.flows[flow] = inFlight
	o.mu.Unlock()
	o.publishWorkflow(ctx, flow, inFlight)

	invite, execErr := o.execute(ctx, inFlight.Payload)

	o.mu.Lock()
	latest := o.flows[flow]
	if latest.ID != inFlight.ID || latest.Phase != PhaseInFlight {
		o.mu.Unlock()
		o.logger.InfoContext(ctx, "discarding response for superseded workflow",
			"flow", flow,
			"workflow_id", inFlight.ID,
			"kind", inFlight.Kind(),
			"error", execErr,
		)
		return latest, ErrStaleWorkflow
	}
	if IsUnauthorized(execErr) {
		o.flows[flow] = Workflow{}
		o.mu.Unlock()
		o.logger.WarnContext(ctx, "admin credential rejected", "kind", inFlight.Kind(), "error", execErr)
		o.sessionHook.SessionInvalidated(ctx, execErr)
		publish(ctx, o.events, ConsoleEvent{Kind: EventSessionInvalidated, Flow: flow, WorkflowID: inFlight.ID, Err: execErr.Error(), At: o.now()})
		o.publishWorkflow(ctx, flow, Workflow{})
		return Workflow{}, execErr
	}
	resolved, err := Transition(latest, Event{Type: EventResolve, ID: inFlight.ID, Err: execErr, Invite: invite})
	if err != nil {
		o.mu.Unlock()
		return latest, err
	}
	o.flows[flow] = resolved
	o.mu.Unlock()
	o.publishWorkflow(ctx, flow, resolved)

	if execErr == nil {
		if o.refresher != nil {
			if err := o.refresher.Refresh(ctx); err != nil {
				o.logger.WarnContext(ctx, "refresh after action failed", "kind", resolved.Kind(), "error", err)
			}
		}
	} else {
		o.logger.ErrorContext(ctx, "action failed", "kind", resolved.Kind(), "workflow_id", resolved.ID, "error", execErr)
	}
	o.telemetry.Record(ctx, EventName("console", string(resolved.Kind()), string(resolved.Outcome)), map[string]any{
		"workflow_id": resolved.ID,
	})
	o.present(ctx, flow, resolved)
	return resolved, nil
}

// DismissFeedback clears the active feedback and settles the workflow that
// produced it.
func (o *Orchestrator) DismissFeedback(ctx context.Context) (Feedback, bool) {
	fb, ok := o.feedback.Dismiss(ctx)
	if !ok {
		return fb, false
	}
	o.settle(ctx, fb)
	return fb, true
}

// CopyInvite hands out the generated link and closes the invite flow.
func (o *Orchestrator) CopyInvite(ctx context.Context) (Invite, error) {
	o.mu.Lock()
	current := o.flows[FlowInvite]
	next, err := Transition(current, Event{Type: EventCopy})
	if err != nil {
		o.mu.Unlock()
		return Invite{}, err
	}
	invite := *current.Invite
	o.flows[FlowInvite] = next
	o.mu.Unlock()
	o.publishWorkflow(ctx, FlowInvite, next)
	return invite, nil
}

// Cancel closes a flow. A request already in flight keeps running; its
// response is discarded.
func (o *Orchestrator) Cancel(ctx context.Context, flow Flow) {
	o.mu.Lock()
	current := o.flows[flow]
	next, _ := Transition(current, Event{Type: EventCancel})
	o.flows[flow] = next
	o.mu.Unlock()
	if current.Phase == PhaseInFlight {
		o.logger.InfoContext(ctx, "workflow cancelled while in flight", "flow", flow, "workflow_id", current.ID)
	}
	if !current.IsIdle() {
		o.publishWorkflow(ctx, flow, next)
	}
}

// Notify shows an informational feedback such as a placeholder notice.
func (o *Orchestrator) Notify(ctx context.Context, key string, args map[string]any) Feedback {
	fb := Feedback{
		Variant: FeedbackInfo,
		Title:   o.loc.T(KeyFeedbackTitleInfo, nil),
		Message: o.loc.T(key, args),
		ShownAt: o.now(),
	}
	if replaced, ok := o.feedback.Show(ctx, fb); ok {
		o.settle(ctx, replaced)
	}
	return fb
}

func (o *Orchestrator) open(ctx context.Context, p Payload) (Workflow, error) {
	if err := o.validator.ValidatePayload(p); err != nil {
		return Workflow{}, err
	}
	flow := FlowFor(p.Kind())
	o.mu.Lock()
	current := o.flows[flow]
	next, err := Transition(current, Event{Type: EventOpen, ID: o.newID(), Payload: p})
	if err != nil {
		o.mu.Unlock()
		return current, err
	}
	o.flows[flow] = next
	o.mu.Unlock()
	o.publishWorkflow(ctx, flow, next)
	return next, nil
}

func (o *Orchestrator) edit(ctx context.Context, p Payload) (Workflow, error) {
	if err := o.validator.ValidatePayload(p); err != nil {
		return o.Workflow(FlowFor(p.Kind())), err
	}
	flow := FlowFor(p.Kind())
	o.mu.Lock()
	current := o.flows[flow]
	next, err := Transition(current, Event{Type: EventEdit, Payload: p})
	if err != nil {
		o.mu.Unlock()
		return current, err
	}
	o.flows[flow] = next
	o.mu.Unlock()
	o.publishWorkflow(ctx, flow, next)
	return next, nil
}

func (o *Orchestrator) execute(ctx context.Context, payload Payload) (*Invite, error) {
	switch p := payload.(type) {
	case AllowPayload:
		if o.commands.Allow == nil {
			return nil, missingCommand(ActionAllow)
		}
		now := o.now()
		return nil, o.commands.Allow.Execute(ctx, AccessGrant{
			Target:    p.Target,
			StartDate: dateOnly(now),
			EndDate:   dateOnly(now.UTC().AddDate(0, 0, DefaultAccessWindowDays)),
		})
	case RevokePayload:
		if o.commands.Revoke == nil {
			return nil, missingCommand(ActionRevoke)
		}
		return nil, o.commands.Revoke.Execute(ctx, AccessRevocation{Target: p.UserID})
	case RemovePayload:
		if o.commands.Remove == nil {
			return nil, missingCommand(ActionRemove)
		}
		return nil, o.commands.Remove.Execute(ctx, UserRemoval{UserID: p.UserID})
	case UpdateAccessPayload:
		if o.commands.Update == nil {
			return nil, missingCommand(ActionUpdateAccess)
		}
		end, err := time.Parse(DateLayout, p.EndDate)
		if err != nil {
			return nil, &ValidationError{Field: "endDate", Message: "must be a calendar date (YYYY-MM-DD)"}
		}
		return nil, o.commands.Update.Execute(ctx, AccessUpdate{UserID: p.UserID, EndDate: end})
	case InvitePayload:
		if o.commands.Invite == nil {
			return nil, missingCommand(ActionInvite)
		}
		invite, err := o.commands.Invite.Query(ctx, InviteRequest{Days: p.Days, Name: p.Name})
		if err != nil {
			return nil, err
		}
		return &invite, nil
	default:
		return nil, fmt.Errorf("%w: unsupported payload %T", ErrInvalidTransition, payload)
	}
}

func (o *Orchestrator) present(ctx context.Context, flow Flow, w Workflow) {
	fb := Feedback{Flow: flow, WorkflowID: w.ID, ShownAt: o.now()}
	if w.Outcome == OutcomeSuccess {
		fb.Variant = FeedbackSuccess
		fb.Title = o.loc.T(KeyFeedbackTitleSuccess, nil)
		fb.Message = o.loc.T(messageKey("feedback", w.Kind(), "success"), successArgs(w))
	} else {
		fb.Variant = FeedbackError
		fb.Title = o.loc.T(KeyFeedbackTitleError, nil)
		fb.Message = FeedbackMessage(w.Err, o.failureFallback(w.Kind()))
	}
	if replaced, ok := o.feedback.Show(ctx, fb); ok && replaced.WorkflowID != w.ID {
		o.settle(ctx, replaced)
	}
}

// settle applies the dismissal of fb to the workflow that produced it, if
// that workflow is still the active one of its flow.
func (o *Orchestrator) settle(ctx context.Context, fb Feedback) {
	if fb.WorkflowID == "" {
		return
	}
	o.mu.Lock()
	current, ok := o.flows[fb.Flow]
	if !ok || current.ID != fb.WorkflowID || current.Phase != PhaseCompleted {
		o.mu.Unlock()
		return
	}
	next, err := Transition(current, Event{Type: EventDismiss})
	if err != nil {
		o.mu.Unlock()
		return
	}
	o.flows[fb.Flow] = next
	o.mu.Unlock()
	o.publishWorkflow(ctx, fb.Flow, next)
}

func (o *Orchestrator) failureFallback(kind ActionKind) string {
	if kind == ActionAllow {
		return o.loc.T(KeyFeedbackAllowError, nil)
	}
	return o.loc.T(KeyFeedbackGenericError, nil)
}

func (o *Orchestrator) publishWorkflow(ctx context.Context, flow Flow, w Workflow) {
	event := ConsoleEvent{
		Kind:       EventWorkflowChanged,
		Flow:       flow,
		WorkflowID: w.ID,
		Phase:      w.Phase,
		At:         o.now(),
	}
	if event.Phase == "" {
		event.Phase = PhaseIdle
	}
	if w.Err != nil {
		event.Err = w.Err.Error()
	}
	publish(ctx, o.events, event)
}

func successArgs(w Workflow) map[string]any {
	switch p := w.Payload.(type) {
	case AllowPayload:
		return map[string]any{"target": p.Target}
	case UpdateAccessPayload:
		return map[string]any{"user": p.UserID, "end_date": p.EndDate}
	default:
		return nil
	}
}

func messageKey(prefix string, kind ActionKind, suffix string) string {
	return EventName(prefix, string(kind), suffix)
}

func missingCommand(kind ActionKind) error {
	return fmt.Errorf("console: %s command not configured", kind)
}
