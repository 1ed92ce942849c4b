package console

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the controller-owned copy of remote state.
type Snapshot struct {
	Users     []User    `json:"users"`
	Analytics Analytics `json:"analytics"`
	// AnalyticsStale is set when the last analytics fetch failed and the
	// aggregates shown are the previous (or zero) values.
	AnalyticsStale bool      `json:"analytics_stale"`
	Loading        bool      `json:"loading"`
	Loaded         bool      `json:"loaded"`
	// RefreshedAt and Generation move only when the data above changes, so
	// refreshing against unchanged remote state yields an equal Snapshot.
	RefreshedAt time.Time `json:"refreshed_at"`
	Generation  uint64    `json:"generation"`
}

func sameUsers(a, b []User) bool {
	return slices.EqualFunc(a, b, func(x, y User) bool {
		return x.ID == y.ID &&
			x.Username == y.Username &&
			x.Allowed == y.Allowed &&
			sameTime(x.StartDate, y.StartDate) &&
			sameTime(x.EndDate, y.EndDate) &&
			sameTime(x.LastInteraction, y.LastInteraction)
	})
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Users = cloneUsers(s.Users)
	return out
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Users       UserSource
	Analytics   AnalyticsSource
	SessionHook SessionHook
	Events      EventHook
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Controller owns the users and analytics snapshot and refreshes it
// wholesale from the admin API.
type Controller struct {
	users       UserSource
	analytics   AnalyticsSource
	sessionHook SessionHook
	events      EventHook
	logger      *slog.Logger
	now         func() time.Time

	mu           sync.RWMutex
	snapshot     Snapshot
	inflight     int
	started      uint64
	usersSeq     uint64
	analyticsSeq uint64
}

// NewController builds a Controller with safe defaults.
func NewController(opts ControllerOptions) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		users:       opts.Users,
		analytics:   opts.Analytics,
		sessionHook: normalizeSessionHook(opts.SessionHook),
		events:      normalizeEventHook(opts.Events),
		logger:      opts.Logger,
		now:         opts.Clock,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone()
}

// Refresh fetches users and analytics concurrently and waits for both.
//
// An analytics failure keeps the previous aggregates and marks them stale
// without returning an error. A users failure leaves the previous users in
// place and is returned; when it is an UnauthorizedError the session hook is
// notified first. A refresh never overwrites data written by a refresh that
// started after it.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.users == nil {
		return errMissingUserSource
	}
	if c.analytics == nil {
		return errMissingAnalyticsSource
	}

	c.mu.Lock()
	c.started++
	seq := c.started
	c.inflight++
	c.snapshot.Loading = true
	c.mu.Unlock()

	var (
		users        []User
		analytics    Analytics
		usersErr     error
		analyticsErr error
		group        errgroup.Group
	)
	group.Go(func() error {
		users, usersErr = c.users.ListUsers(ctx)
		return nil
	})
	group.Go(func() error {
		analytics, analyticsErr = c.analytics.FetchAnalytics(ctx)
		return nil
	})
	_ = group.Wait()

	c.mu.Lock()
	c.inflight--
	c.snapshot.Loading = c.inflight > 0
	changed := false
	if usersErr == nil && seq > c.usersSeq {
		c.usersSeq = seq
		if !c.snapshot.Loaded || !sameUsers(c.snapshot.Users, users) {
			c.snapshot.Users = cloneUsers(users)
			c.snapshot.Loaded = true
			changed = true
		}
	}
	if seq > c.analyticsSeq {
		if analyticsErr == nil {
			c.analyticsSeq = seq
			if c.snapshot.Analytics != analytics || c.snapshot.AnalyticsStale {
				c.snapshot.Analytics = analytics
				c.snapshot.AnalyticsStale = false
				changed = true
			}
		} else if !c.snapshot.AnalyticsStale {
			c.snapshot.AnalyticsStale = true
			changed = true
		}
	}
	if changed {
		c.snapshot.Generation++
		c.snapshot.RefreshedAt = c.now()
	}
	snap := c.snapshot.clone()
	c.mu.Unlock()

	if analyticsErr != nil {
		c.logger.WarnContext(ctx, "analytics refresh failed, keeping previous values",
			"error", analyticsErr,
		)
	}
	if usersErr != nil {
		if IsUnauthorized(usersErr) {
			c.logger.WarnContext(ctx, "admin credential rejected", "error", usersErr)
			c.sessionHook.SessionInvalidated(ctx, usersErr)
			publish(ctx, c.events, ConsoleEvent{Kind: EventSessionInvalidated, Err: usersErr.Error(), At: c.now()})
		} else {
			c.logger.ErrorContext(ctx, "user list refresh failed, keeping previous snapshot",
				"error", usersErr,
			)
		}
	}
	publish(ctx, c.events, ConsoleEvent{Kind: EventSnapshotRefreshed, Snapshot: &snap, At: c.now()})
	return usersErr
}
