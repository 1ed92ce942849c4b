package console

import (
	"context"
	"sync"
	"time"
)

type stubGateway struct {
	mu             sync.Mutex
	users          []User
	analytics      Analytics
	usersErr       error
	analyticsErr   error
	history        map[string]History
	historyErr     error
	listCalls      int
	analyticsCalls int
	historyCalls   int
	usersGate      chan struct{}
}

func (s *stubGateway) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.usersGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	return cloneUsers(s.users), nil
}

func (s *stubGateway) FetchAnalytics(context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyticsCalls++
	if s.analyticsErr != nil {
		return Analytics{}, s.analyticsErr
	}
	return s.analytics, nil
}

func (s *stubGateway) FetchHistory(_ context.Context, userID string) (History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	if s.historyErr != nil {
		return History{}, s.historyErr
	}
	return s.history[userID], nil
}

func (s *stubGateway) AllowAccess(context.Context, AccessGrant) error { return nil }

func (s *stubGateway) RevokeAccess(context.Context, AccessRevocation) error { return nil }

func (s *stubGateway) RemoveUser(context.Context, UserRemoval) error { return nil }

func (s *stubGateway) UpdateAccess(context.Context, AccessUpdate) error { return nil }

func (s *stubGateway) CreateInvite(_ context.Context, req InviteRequest) (Invite, error) {
	return Invite{Days: req.Days, Name: req.Name}, nil
}

var _ Gateway = (*stubGateway)(nil)

func (s *stubGateway) set(fn func(*stubGateway)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type stubSessionHook struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSessionHook) SessionInvalidated(_ context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.err = err
}

func (s *stubSessionHook) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubRefresher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubCommander records executions and optionally blocks until released.
type stubCommander[T any] struct {
	mu      sync.Mutex
	calls   []T
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.mu.Lock()
	s.calls = append(s.calls, msg)
	started, release, err := s.started, s.release, s.err
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return err
}

func (s *stubCommander[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubCommander[T]) last() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type stubInviteQuery struct {
	mu    sync.Mutex
	calls []InviteRequest
	link  string
	err   error
}

func (s *stubInviteQuery) Query(_ context.Context, msg InviteRequest) (Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, msg)
	if s.err != nil {
		return Invite{}, s.err
	}
	return Invite{Link: s.link, Days: msg.Days, Name: msg.Name, IssuedAt: time.Now()}, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
