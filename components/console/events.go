package console

import (
	"context"
	"sync"
	"time"
)

// EventKind classifies console state changes.
type EventKind string

const (
	EventSnapshotRefreshed  EventKind = "snapshot.refreshed"
	EventSessionInvalidated EventKind = "session.invalidated"
	EventWorkflowChanged    EventKind = "workflow.changed"
	EventFeedbackShown      EventKind = "feedback.shown"
	EventFeedbackDismissed  EventKind = "feedback.dismissed"
	EventHistoryChanged     EventKind = "history.changed"
)

// ConsoleEvent describes one state change. Only the fields relevant to the
// kind are populated.
type ConsoleEvent struct {
	Kind       EventKind    `json:"kind"`
	Flow       Flow         `json:"flow,omitempty"`
	WorkflowID string       `json:"workflow_id,omitempty"`
	Phase      Phase        `json:"phase,omitempty"`
	Snapshot   *Snapshot    `json:"snapshot,omitempty"`
	Feedback   *Feedback    `json:"feedback,omitempty"`
	History    *HistoryView `json:"history,omitempty"`
	Err        string       `json:"error,omitempty"`
	At         time.Time    `json:"at"`
}

// EventHook receives console events.
type EventHook interface {
	Publish(ctx context.Context, event ConsoleEvent) error
}

type noopEventHook struct{}

func (noopEventHook) Publish(context.Context, ConsoleEvent) error { return nil }

func normalizeEventHook(h EventHook) EventHook {
	if h == nil {
		return noopEventHook{}
	}
	return h
}

func publish(ctx context.Context, hook EventHook, event ConsoleEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	_ = hook.Publish(ctx, event)
}

// BroadcastHook fans out console events to in-process subscribers. Slow
// subscribers miss events rather than blocking publishers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan ConsoleEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]chan ConsoleEvent),
	}
}

// Publish satisfies EventHook and broadcasts the event.
func (h *BroadcastHook) Publish(_ context.Context, event ConsoleEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of console events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan ConsoleEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan ConsoleEvent, 16)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// MultiHook publishes to several hooks in order.
type MultiHook []EventHook

// Publish forwards the event to every hook and returns the first error.
func (m MultiHook) Publish(ctx context.Context, event ConsoleEvent) error {
	var first error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
