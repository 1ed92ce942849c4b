package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var errMissingGateway = errors.New("console: gateway not configured")

// Options configures the console Service. Every collaborator is an interface
// so applications can swap the HTTP gateway for fixtures or other backends.
type Options struct {
	Gateway     Gateway
	Commands    Commands
	Localizer   *Localizer
	Validator   InputValidator
	SessionHook SessionHook
	Events      EventHook
	Telemetry   Telemetry
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Service wires the controller, orchestrator, history viewer and feedback
// presenter around one gateway.
type Service struct {
	gateway      Gateway
	loc          *Localizer
	controller   *Controller
	orchestrator *Orchestrator
	history      *HistoryViewer
	feedback     *FeedbackPresenter
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Localizer == nil {
		opts.Localizer = defaultLocalizer()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	feedback := NewFeedbackPresenter(opts.Events)
	controller := NewController(ControllerOptions{
		Users:       opts.Gateway,
		Analytics:   opts.Gateway,
		SessionHook: opts.SessionHook,
		Events:      opts.Events,
		Logger:      opts.Logger,
		Clock:       opts.Clock,
	})
	orchestrator := NewOrchestrator(OrchestratorOptions{
		Commands:    opts.Commands,
		Refresher:   controller,
		Feedback:    feedback,
		Localizer:   opts.Localizer,
		Validator:   opts.Validator,
		SessionHook: opts.SessionHook,
		Events:      opts.Events,
		Telemetry:   opts.Telemetry,
		Logger:      opts.Logger,
		Clock:       opts.Clock,
	})
	history := NewHistoryViewer(HistoryOptions{
		Source: opts.Gateway,
		Events: opts.Events,
		Logger: opts.Logger,
	})
	return &Service{
		gateway:      opts.Gateway,
		loc:          opts.Localizer,
		controller:   controller,
		orchestrator: orchestrator,
		history:      history,
		feedback:     feedback,
	}
}

// Controller returns the snapshot controller.
func (s *Service) Controller() *Controller { return s.controller }

// Orchestrator returns the action orchestrator.
func (s *Service) Orchestrator() *Orchestrator { return s.orchestrator }

// History returns the history viewer.
func (s *Service) History() *HistoryViewer { return s.history }

// Feedback returns the feedback presenter.
func (s *Service) Feedback() *FeedbackPresenter { return s.feedback }

// Localizer returns the localizer used for every label.
func (s *Service) Localizer() *Localizer { return s.loc }

// Refresh reloads the snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	if s.gateway == nil {
		return errMissingGateway
	}
	return s.controller.Refresh(ctx)
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() Snapshot {
	return s.controller.Snapshot()
}

// ResolveView filters the current snapshot for selector.
func (s *Service) ResolveView(selector string) ViewResult {
	return ResolveView(s.controller.Snapshot().Users, selector, s.loc)
}

// FindUser looks up a user in the current snapshot by id or @handle.
func (s *Service) FindUser(idOrHandle string) (User, bool) {
	idOrHandle = strings.TrimSpace(idOrHandle)
	handle := strings.TrimPrefix(idOrHandle, "@")
	for _, u := range s.controller.Snapshot().Users {
		if u.ID == idOrHandle || (handle != "" && strings.EqualFold(u.Username, handle)) {
			return u, true
		}
	}
	return User{}, false
}

// OpenHistory loads the ledger for a user, resolving it from the snapshot
// when possible.
func (s *Service) OpenHistory(ctx context.Context, userID string) HistoryView {
	user, ok := s.FindUser(userID)
	if !ok {
		user = User{ID: strings.TrimSpace(userID)}
	}
	return s.history.Open(ctx, user)
}
