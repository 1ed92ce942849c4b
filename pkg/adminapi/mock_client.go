package adminapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-access-console/components/console"
)

// MockData seeds deterministic responses for tests or local demos.
type MockData struct {
	Users []console.User
	// Analytics overrides the aggregates derived from Users when set.
	Analytics *console.Analytics
	History   map[string]console.History
	// InviteBase prefixes generated invite links.
	InviteBase string
}

// Call records one request made against the MockClient, using the same
// method, path and body shape the HTTP client would send.
type Call struct {
	Method string
	Path   string
	Body   any
}

// MockClient implements console.Gateway using in-memory fixtures. Mutations
// are applied to the fixtures so later reads observe them.
type MockClient struct {
	mu       sync.RWMutex
	data     MockData
	calls    []Call
	failures map[string]error
	now      func() time.Time
}

var _ console.Gateway = (*MockClient)(nil)

// NewMockClient builds a mock admin client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	data.Users = cloneUsers(data.Users)
	if data.History == nil {
		data.History = map[string]console.History{}
	}
	if data.InviteBase == "" {
		data.InviteBase = "https://t.me/access_console_bot?start="
	}
	return &MockClient{
		data:     data,
		failures: map[string]error{},
		now:      time.Now,
	}
}

// FailOn makes every request to path return err until cleared with a nil err.
func (c *MockClient) FailOn(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, path)
		return
	}
	c.failures[path] = err
}

// Calls returns the recorded requests in order.
func (c *MockClient) Calls() []Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Call(nil), c.calls...)
}

// CallsTo returns the recorded requests to path.
func (c *MockClient) CallsTo(method, path string) []Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Call
	for _, call := range c.calls {
		if call.Method == method && call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

// ListUsers returns the fixture users.
func (c *MockClient) ListUsers(context.Context) ([]console.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodGet, PathUsers, nil); err != nil {
		return nil, err
	}
	return cloneUsers(c.data.Users), nil
}

// FetchAnalytics returns the configured analytics or derives them from users.
func (c *MockClient) FetchAnalytics(context.Context) (console.Analytics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodGet, PathAnalytics, nil); err != nil {
		return console.Analytics{}, err
	}
	if c.data.Analytics != nil {
		return *c.data.Analytics, nil
	}
	return deriveAnalytics(c.data.Users, c.data.History), nil
}

// AllowAccess grants access, creating the user when the target is unknown.
func (c *MockClient) AllowAccess(_ context.Context, grant console.AccessGrant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	body := allowRequest{
		Target:    grant.Target,
		StartDate: grant.StartDate.UTC().Format(console.DateLayout),
		EndDate:   grant.EndDate.UTC().Format(console.DateLayout),
	}
	if err := c.record(http.MethodPost, PathAllow, body); err != nil {
		return err
	}
	start, end := grant.StartDate, grant.EndDate
	idx := c.indexOf(grant.Target)
	if idx < 0 {
		user := console.User{ID: grant.Target}
		if strings.HasPrefix(grant.Target, "@") {
			user = console.User{ID: uuid.NewString(), Username: strings.TrimPrefix(grant.Target, "@")}
		}
		c.data.Users = append(c.data.Users, user)
		idx = len(c.data.Users) - 1
	}
	c.data.Users[idx].Allowed = true
	c.data.Users[idx].StartDate = &start
	c.data.Users[idx].EndDate = &end
	return nil
}

// RevokeAccess clears the allowed flag.
func (c *MockClient) RevokeAccess(_ context.Context, revocation console.AccessRevocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodPost, PathRevoke, revokeRequest{Target: revocation.Target}); err != nil {
		return err
	}
	idx := c.indexOf(revocation.Target)
	if idx < 0 {
		return &console.ApplicationError{Op: "revoke access", StatusCode: http.StatusNotFound, Message: "Usuário não encontrado"}
	}
	c.data.Users[idx].Allowed = false
	return nil
}

// RemoveUser deletes the user and its history.
func (c *MockClient) RemoveUser(_ context.Context, removal console.UserRemoval) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodDelete, PathRemove, removeRequest{UserID: removal.UserID}); err != nil {
		return err
	}
	idx := c.indexOf(removal.UserID)
	if idx < 0 {
		return &console.ApplicationError{Op: "remove user", StatusCode: http.StatusNotFound, Message: "Usuário não encontrado"}
	}
	c.data.Users = append(c.data.Users[:idx], c.data.Users[idx+1:]...)
	delete(c.data.History, removal.UserID)
	return nil
}

// UpdateAccess moves the end date.
func (c *MockClient) UpdateAccess(_ context.Context, update console.AccessUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	body := updateAccessRequest{UserID: update.UserID, EndDate: update.EndDate.UTC().Format(console.DateLayout)}
	if err := c.record(http.MethodPost, PathUpdateAccess, body); err != nil {
		return err
	}
	idx := c.indexOf(update.UserID)
	if idx < 0 {
		return &console.ApplicationError{Op: "update access", StatusCode: http.StatusNotFound, Message: "Usuário não encontrado"}
	}
	end := update.EndDate
	c.data.Users[idx].EndDate = &end
	return nil
}

// CreateInvite returns a unique link.
func (c *MockClient) CreateInvite(_ context.Context, req console.InviteRequest) (console.Invite, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodPost, PathInvite, inviteRequest{Days: req.Days, Name: req.Name}); err != nil {
		return console.Invite{}, err
	}
	return console.Invite{
		Link:     c.data.InviteBase + uuid.NewString(),
		Days:     req.Days,
		Name:     req.Name,
		IssuedAt: c.now(),
	}, nil
}

// FetchHistory returns the fixture ledger, empty when none was seeded.
func (c *MockClient) FetchHistory(_ context.Context, userID string) (console.History, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(http.MethodGet, PathHistoryPrefix+userID, nil); err != nil {
		return console.History{}, err
	}
	history, ok := c.data.History[userID]
	if !ok {
		return console.History{UserID: userID, Transactions: []console.Transaction{}}, nil
	}
	history.UserID = userID
	history.Transactions = append([]console.Transaction{}, history.Transactions...)
	return history, nil
}

// record appends the call and returns the injected failure, if any. Callers
// hold the write lock.
func (c *MockClient) record(method, path string, body any) error {
	c.calls = append(c.calls, Call{Method: method, Path: path, Body: body})
	if err, ok := c.failures[path]; ok {
		return err
	}
	if strings.HasPrefix(path, PathHistoryPrefix) {
		if err, ok := c.failures[PathHistoryPrefix]; ok {
			return err
		}
	}
	return nil
}

func (c *MockClient) indexOf(target string) int {
	handle := strings.TrimPrefix(target, "@")
	for i, u := range c.data.Users {
		if u.ID == target || (handle != "" && strings.EqualFold(u.Username, handle)) {
			return i
		}
	}
	return -1
}

func deriveAnalytics(users []console.User, history map[string]console.History) console.Analytics {
	var out console.Analytics
	for _, u := range users {
		out.Users.Total++
		switch {
		case u.Allowed:
			out.Users.Active++
		case u.HasInteracted():
			out.Users.Blocked++
			out.Users.Pending++
		default:
			out.Users.Blocked++
		}
	}
	for _, h := range history {
		for _, tx := range h.Transactions {
			if tx.Amount > 0 {
				out.Financials.TotalVolume += tx.Amount
			} else {
				out.Financials.TotalVolume -= tx.Amount
			}
		}
	}
	return out
}

func cloneUsers(users []console.User) []console.User {
	if users == nil {
		return nil
	}
	out := make([]console.User, len(users))
	for i, u := range users {
		out[i] = u
		out[i].StartDate = cloneTime(u.StartDate)
		out[i].EndDate = cloneTime(u.EndDate)
		out[i].LastInteraction = cloneTime(u.LastInteraction)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
