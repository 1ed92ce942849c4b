package console

import (
	"context"
	"time"
)

const (
	// DefaultAccessWindowDays is the grant length used by the allow flow.
	DefaultAccessWindowDays = 30
	// DefaultInviteDays is the pre-filled validity requested for new invites.
	DefaultInviteDays = 30
	// RenewalThresholdDays marks active users whose access is due for renewal.
	RenewalThresholdDays = 30
	// InviteLinkValidity is how long the remote service honours a generated link.
	// It is informational only; nothing checks it client-side.
	InviteLinkValidity = 24 * time.Hour

	// DateLayout is the calendar date format exchanged with the admin API.
	DateLayout = time.DateOnly
)

// User mirrors a subscriber record returned by the admin API.
type User struct {
	ID              string     `json:"id_telegram"`
	Username        string     `json:"username,omitempty"`
	Allowed         bool       `json:"allowed"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}

// Alias returns the @-prefixed username or an empty string.
func (u User) Alias() string {
	if u.Username == "" {
		return ""
	}
	return "@" + u.Username
}

// HasInteracted reports whether the user ever reached the bot.
func (u User) HasInteracted() bool {
	return u.LastInteraction != nil
}

// DaysActive returns whole days elapsed since the access start date, or -1
// when the user has no start date.
func (u User) DaysActive(now time.Time) int {
	if u.StartDate == nil {
		return -1
	}
	elapsed := now.Sub(*u.StartDate)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// NeedsRenewal flags allowed users that have been active for a full window.
func (u User) NeedsRenewal(now time.Time) bool {
	return u.Allowed && u.DaysActive(now) >= RenewalThresholdDays
}

// UserCounts aggregates subscriber totals by status.
type UserCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Blocked int `json:"blocked"`
	Pending int `json:"pending"`
}

// Financials aggregates money movement across all users.
type Financials struct {
	TotalVolume float64 `json:"totalVolume"`
}

// Analytics is the aggregate snapshot shown above the user list. The zero
// value is what gets displayed before the first successful fetch.
type Analytics struct {
	Users      UserCounts `json:"users"`
	Financials Financials `json:"financials"`
}

// TransactionKindGain tags money entering a user's balance.
const TransactionKindGain = "gain"

// Transaction is a single ledger entry owned by one user.
type Transaction struct {
	Kind        string    `json:"type"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsGain reports whether the entry credits the balance.
func (t Transaction) IsGain() bool {
	return t.Kind == TransactionKindGain
}

// History is a user's transaction ledger in remote order plus the balance.
type History struct {
	UserID       string        `json:"user_id"`
	Transactions []Transaction `json:"transactions"`
	Balance      float64       `json:"balance"`
}

// AccessGrant opens a dated access window for a numeric id or @handle.
type AccessGrant struct {
	Target    string
	StartDate time.Time
	EndDate   time.Time
}

// AccessRevocation disables access for a user without deleting it.
type AccessRevocation struct {
	Target string
}

// UserRemoval deletes a user permanently.
type UserRemoval struct {
	UserID string
}

// AccessUpdate moves the end of a user's access window.
type AccessUpdate struct {
	UserID  string
	EndDate time.Time
}

// InviteRequest asks the remote service for a new single-use invite link.
type InviteRequest struct {
	Days int
	Name string
}

// Invite is the generated link together with the request that produced it.
type Invite struct {
	Link     string
	Days     int
	Name     string
	IssuedAt time.Time
}

// ExpiresAt returns when the link stops being honoured remotely.
func (i Invite) ExpiresAt() time.Time {
	return i.IssuedAt.Add(InviteLinkValidity)
}

// UserSource lists subscribers.
type UserSource interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// AnalyticsSource loads the aggregate snapshot.
type AnalyticsSource interface {
	FetchAnalytics(ctx context.Context) (Analytics, error)
}

// AccessManager mutates user access on the remote service.
type AccessManager interface {
	AllowAccess(ctx context.Context, grant AccessGrant) error
	RevokeAccess(ctx context.Context, revocation AccessRevocation) error
	RemoveUser(ctx context.Context, removal UserRemoval) error
	UpdateAccess(ctx context.Context, update AccessUpdate) error
}

// InviteIssuer generates invite links.
type InviteIssuer interface {
	CreateInvite(ctx context.Context, req InviteRequest) (Invite, error)
}

// HistorySource loads a user's transaction ledger.
type HistorySource interface {
	FetchHistory(ctx context.Context, userID string) (History, error)
}

// Gateway is the full admin API surface.
type Gateway interface {
	UserSource
	AnalyticsSource
	AccessManager
	InviteIssuer
	HistorySource
}

// SessionHook is notified when the remote service rejects the credential.
// Implementations typically clear the stored token and force a new login.
type SessionHook interface {
	SessionInvalidated(ctx context.Context, err error)
}

type noopSessionHook struct{}

func (noopSessionHook) SessionInvalidated(context.Context, error) {}

// SessionHookFunc adapts a function to SessionHook.
type SessionHookFunc func(ctx context.Context, err error)

// SessionInvalidated calls f.
func (f SessionHookFunc) SessionInvalidated(ctx context.Context, err error) {
	f(ctx, err)
}

func normalizeSessionHook(h SessionHook) SessionHook {
	if h == nil {
		return noopSessionHook{}
	}
	return h
}

func cloneUsers(users []User) []User {
	if users == nil {
		return nil
	}
	out := make([]User, len(users))
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

func cloneHistory(h History) History {
	out := h
	if h.Transactions != nil {
		out.Transactions = append([]Transaction(nil), h.Transactions...)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
