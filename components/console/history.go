package console

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HistoryStatus is the lifecycle of the history panel.
type HistoryStatus string

const (
	HistoryClosed  HistoryStatus = "closed"
	HistoryLoading HistoryStatus = "loading"
	HistoryLoaded  HistoryStatus = "loaded"
	HistoryFailed  HistoryStatus = "failed"
)

// HistoryView is what the history panel shows. An empty ledger is
// HistoryLoaded with no transactions; a fetch error is HistoryFailed.
type HistoryView struct {
	Status  HistoryStatus `json:"status"`
	User    User          `json:"user"`
	History History       `json:"history"`
	Err     error         `json:"-"`
}

// Empty reports a successfully loaded ledger with no entries.
func (v HistoryView) Empty() bool {
	return v.Status == HistoryLoaded && len(v.History.Transactions) == 0
}

// HistoryOptions configures a HistoryViewer.
type HistoryOptions struct {
	Source HistorySource
	Events EventHook
	Logger *slog.Logger
}

// HistoryViewer loads one user's ledger on demand, independently of the
// main snapshot's loading state.
type HistoryViewer struct {
	source HistorySource
	events EventHook
	logger *slog.Logger

	mu   sync.Mutex
	view HistoryView
	seq  uint64
}

// NewHistoryViewer builds a viewer with safe defaults.
func NewHistoryViewer(opts HistoryOptions) *HistoryViewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &HistoryViewer{
		source: opts.Source,
		events: normalizeEventHook(opts.Events),
		logger: opts.Logger,
		view:   HistoryView{Status: HistoryClosed},
	}
}

// View returns the current panel state.
func (v *HistoryViewer) View() HistoryView {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.view
	out.History = cloneHistory(v.view.History)
	return out
}

// Open switches the panel to user, loads the ledger and returns the final
// state. A newer Open supersedes an older one still loading; the older call
// then returns the newer state unchanged.
func (v *HistoryViewer) Open(ctx context.Context, user User) HistoryView {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.view = HistoryView{Status: HistoryLoading, User: user}
	loading := v.view
	v.mu.Unlock()
	v.publish(ctx, loading)

	var (
		history History
		err     error
	)
	if v.source == nil {
		err = errMissingHistorySource
	} else {
		history, err = v.source.FetchHistory(ctx, user.ID)
	}

	v.mu.Lock()
	if seq != v.seq {
		current := v.view
		v.mu.Unlock()
		return current
	}
	if err != nil {
		v.view = HistoryView{Status: HistoryFailed, User: user, Err: err}
	} else {
		if history.UserID == "" {
			history.UserID = user.ID
		}
		v.view = HistoryView{Status: HistoryLoaded, User: user, History: cloneHistory(history)}
	}
	final := v.view
	v.mu.Unlock()

	if err != nil {
		v.logger.ErrorContext(ctx, "history fetch failed", "user_id", user.ID, "error", err)
	}
	v.publish(ctx, final)
	return final
}

// Close hides the panel. Loads still running are discarded.
func (v *HistoryViewer) Close(ctx context.Context) {
	v.mu.Lock()
	v.seq++
	v.view = HistoryView{Status: HistoryClosed}
	closed := v.view
	v.mu.Unlock()
	v.publish(ctx, closed)
}

func (v *HistoryViewer) publish(ctx context.Context, view HistoryView) {
	event := ConsoleEvent{Kind: EventHistoryChanged, History: &view, At: time.Now()}
	if view.Err != nil {
		event.Err = view.Err.Error()
	}
	publish(ctx, v.events, event)
}
