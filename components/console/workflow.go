package console

import (
	"fmt"

	"github.com/google/uuid"
)

// ActionKind names an orchestrated operator action.
type ActionKind string

const (
	ActionAllow        ActionKind = "allow"
	ActionRevoke       ActionKind = "revoke"
	ActionRemove       ActionKind = "remove"
	ActionUpdateAccess ActionKind = "update-access"
	ActionInvite       ActionKind = "invite"
)

// Flow groups action kinds sharing one workflow slot. Flows are independent
// of each other.
type Flow string

const (
	FlowAdminAction Flow = "admin-action"
	FlowInvite      Flow = "invite"
	FlowAccessEdit  Flow = "access-edit"
)

// FlowFor returns the flow that runs kind.
func FlowFor(kind ActionKind) Flow {
	switch kind {
	case ActionInvite:
		return FlowInvite
	case ActionUpdateAccess:
		return FlowAccessEdit
	default:
		return FlowAdminAction
	}
}

// Phase is the lifecycle position of a workflow.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingConfirmation Phase = "awaiting-confirmation"
	PhaseInFlight             Phase = "in-flight"
	PhaseCompleted            Phase = "completed"
)

// Outcome is set once a workflow completes.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Payload is the typed input of one action kind.
type Payload interface {
	Kind() ActionKind
}

// AllowPayload targets a numeric id or @handle for a direct grant.
type AllowPayload struct {
	Target string `json:"target"`
}

func (AllowPayload) Kind() ActionKind { return ActionAllow }

// RevokePayload targets the user whose access is disabled.
type RevokePayload struct {
	UserID string `json:"userId"`
}

func (RevokePayload) Kind() ActionKind { return ActionRevoke }

// RemovePayload targets the user to delete.
type RemovePayload struct {
	UserID string `json:"userId"`
}

func (RemovePayload) Kind() ActionKind { return ActionRemove }

// UpdateAccessPayload carries the new end date as YYYY-MM-DD.
type UpdateAccessPayload struct {
	UserID  string `json:"userId"`
	EndDate string `json:"endDate"`
}

func (UpdateAccessPayload) Kind() ActionKind { return ActionUpdateAccess }

// InvitePayload holds the invite form values.
type InvitePayload struct {
	Days int    `json:"days"`
	Name string `json:"name"`
}

func (InvitePayload) Kind() ActionKind { return ActionInvite }

// DefaultInvitePayload is the invite form after a reset.
func DefaultInvitePayload() InvitePayload {
	return InvitePayload{Days: DefaultInviteDays}
}

// Workflow is one orchestrated action. The zero value is an idle slot.
type Workflow struct {
	ID      string
	Phase   Phase
	Payload Payload
	Outcome Outcome
	Err     error
	Invite  *Invite
}

// Kind returns the action kind, or "" for an idle slot.
func (w Workflow) Kind() ActionKind {
	if w.Payload == nil {
		return ""
	}
	return w.Payload.Kind()
}

// IsIdle reports whether the slot holds no workflow.
func (w Workflow) IsIdle() bool {
	return w.Phase == "" || w.Phase == PhaseIdle
}

// EventType names a workflow transition trigger.
type EventType string

const (
	EventOpen    EventType = "open"
	EventEdit    EventType = "edit"
	EventConfirm EventType = "confirm"
	EventResolve EventType = "resolve"
	EventDismiss EventType = "dismiss"
	EventCopy    EventType = "copy"
	EventCancel  EventType = "cancel"
)

// Event drives Transition. ID addresses the workflow instance for Open (new
// id, generated when empty) and Resolve (must match).
type Event struct {
	Type    EventType
	ID      string
	Payload Payload
	Err     error
	Invite  *Invite
}

// Transition is the single reducer for every action kind.
//
//	idle -open-> awaiting-confirmation -confirm-> in-flight -resolve-> completed
//	completed -dismiss-> idle
//
// Failed invite and access edits return to awaiting-confirmation on dismiss
// so the form stays open. A successful invite holds its link until copy or
// cancel.
func Transition(w Workflow, ev Event) (Workflow, error) {
	switch ev.Type {
	case EventOpen:
		if w.Phase == PhaseInFlight {
			return w, ErrWorkflowBusy
		}
		if ev.Payload == nil {
			return w, fmt.Errorf("%w: open requires a payload", ErrInvalidTransition)
		}
		id := ev.ID
		if id == "" {
			id = uuid.NewString()
		}
		return Workflow{ID: id, Phase: PhaseAwaitingConfirmation, Payload: ev.Payload}, nil

	case EventEdit:
		if w.IsIdle() {
			return w, ErrNoWorkflow
		}
		if w.Phase != PhaseAwaitingConfirmation {
			return w, fmt.Errorf("%w: cannot edit while %s", ErrInvalidTransition, w.Phase)
		}
		if ev.Payload == nil || ev.Payload.Kind() != w.Kind() {
			return w, fmt.Errorf("%w: edit payload does not match %s", ErrInvalidTransition, w.Kind())
		}
		w.Payload = ev.Payload
		return w, nil

	case EventConfirm:
		switch w.Phase {
		case PhaseInFlight:
			return w, ErrInFlight
		case PhaseAwaitingConfirmation:
			w.Phase = PhaseInFlight
			return w, nil
		case PhaseCompleted:
			return w, fmt.Errorf("%w: workflow already completed", ErrInvalidTransition)
		default:
			return w, ErrNoWorkflow
		}

	case EventResolve:
		if w.Phase != PhaseInFlight {
			return w, fmt.Errorf("%w: resolve requires an in-flight workflow", ErrInvalidTransition)
		}
		if ev.ID != w.ID {
			return w, ErrStaleWorkflow
		}
		w.Phase = PhaseCompleted
		w.Err = ev.Err
		if ev.Err != nil {
			w.Outcome = OutcomeError
			return w, nil
		}
		w.Outcome = OutcomeSuccess
		w.Invite = ev.Invite
		return w, nil

	case EventDismiss:
		if w.IsIdle() {
			return w, ErrNoWorkflow
		}
		if w.Phase != PhaseCompleted {
			return w, fmt.Errorf("%w: nothing to dismiss while %s", ErrInvalidTransition, w.Phase)
		}
		switch {
		case w.Outcome == OutcomeError && (w.Kind() == ActionInvite || w.Kind() == ActionUpdateAccess):
			w.Phase = PhaseAwaitingConfirmation
			w.Outcome = OutcomeNone
			w.Err = nil
			return w, nil
		case w.Outcome == OutcomeSuccess && w.Kind() == ActionInvite:
			return w, nil
		default:
			return Workflow{}, nil
		}

	case EventCopy:
		if w.Kind() != ActionInvite || w.Phase != PhaseCompleted || w.Outcome != OutcomeSuccess || w.Invite == nil {
			return w, fmt.Errorf("%w: no invite link to copy", ErrInvalidTransition)
		}
		return Workflow{}, nil

	case EventCancel:
		return Workflow{}, nil

	default:
		return w, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Type)
	}
}
