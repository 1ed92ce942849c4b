package console

import (
	"context"
	"sync"
	"time"
)

// FeedbackVariant selects how an outcome is presented.
type FeedbackVariant string

const (
	FeedbackSuccess FeedbackVariant = "success"
	FeedbackError   FeedbackVariant = "error"
	FeedbackInfo    FeedbackVariant = "info"
)

// Feedback is the terminal surface of an action. WorkflowID links it to the
// workflow that produced it, if any.
type Feedback struct {
	Variant    FeedbackVariant `json:"variant"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Flow       Flow            `json:"flow,omitempty"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	ShownAt    time.Time       `json:"shown_at"`
}

// FeedbackPresenter holds the single active feedback. A new feedback replaces
// the current one; only Dismiss clears it.
type FeedbackPresenter struct {
	mu      sync.Mutex
	current *Feedback
	events  EventHook
	now     func() time.Time
}

// NewFeedbackPresenter builds a presenter publishing to events.
func NewFeedbackPresenter(events EventHook) *FeedbackPresenter {
	return &FeedbackPresenter{
		events: normalizeEventHook(events),
		now:    time.Now,
	}
}

// Show displays fb and returns the feedback it replaced, if any.
func (p *FeedbackPresenter) Show(ctx context.Context, fb Feedback) (Feedback, bool) {
	if fb.ShownAt.IsZero() {
		fb.ShownAt = p.now()
	}
	p.mu.Lock()
	previous := p.current
	shown := fb
	p.current = &shown
	p.mu.Unlock()

	publish(ctx, p.events, ConsoleEvent{
		Kind:       EventFeedbackShown,
		Flow:       fb.Flow,
		WorkflowID: fb.WorkflowID,
		Feedback:   &fb,
		At:         fb.ShownAt,
	})
	if previous == nil {
		return Feedback{}, false
	}
	return *previous, true
}

// Current returns the active feedback.
func (p *FeedbackPresenter) Current() (Feedback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Feedback{}, false
	}
	return *p.current, true
}

// Dismiss clears and returns the active feedback.
func (p *FeedbackPresenter) Dismiss(ctx context.Context) (Feedback, bool) {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()
	if current == nil {
		return Feedback{}, false
	}
	publish(ctx, p.events, ConsoleEvent{
		Kind:       EventFeedbackDismissed,
		Flow:       current.Flow,
		WorkflowID: current.WorkflowID,
		Feedback:   current,
		At:         p.now(),
	})
	return *current, true
}
