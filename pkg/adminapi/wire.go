package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-access-console/components/console"
)

type userPayload struct {
	ID              flexString `json:"id_telegram"`
	Username        string     `json:"username"`
	Allowed         bool       `json:"allowed"`
	StartDate       flexTime   `json:"start_date"`
	EndDate         flexTime   `json:"end_date"`
	LastInteraction flexTime   `json:"last_interaction"`
}

func (u userPayload) toUser() console.User {
	return console.User{
		ID:              string(u.ID),
		Username:        strings.TrimPrefix(strings.TrimSpace(u.Username), "@"),
		Allowed:         u.Allowed,
		StartDate:       u.StartDate.ptr(),
		EndDate:         u.EndDate.ptr(),
		LastInteraction: u.LastInteraction.ptr(),
	}
}

type analyticsPayload struct {
	Users struct {
		Total   int `json:"total"`
		Active  int `json:"active"`
		Blocked int `json:"blocked"`
		Pending int `json:"pending"`
	} `json:"users"`
	Financials struct {
		TotalVolume flexFloat `json:"totalVolume"`
	} `json:"financials"`
}

func (a analyticsPayload) toAnalytics() console.Analytics {
	return console.Analytics{
		Users: console.UserCounts{
			Total:   a.Users.Total,
			Active:  a.Users.Active,
			Blocked: a.Users.Blocked,
			Pending: a.Users.Pending,
		},
		Financials: console.Financials{TotalVolume: float64(a.Financials.TotalVolume)},
	}
}

type allowRequest struct {
	Target    string `json:"id_telegramOrUsername"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type revokeRequest struct {
	Target string `json:"id_telegramOrUsername"`
}

type removeRequest struct {
	UserID string `json:"id_telegram"`
}

type updateAccessRequest struct {
	UserID  string `json:"id_telegram"`
	EndDate string `json:"endDate"`
}

type inviteRequest struct {
	Days int    `json:"days"`
	Name string `json:"name"`
}

type inviteResponse struct {
	Link string `json:"link"`
}

type transactionPayload struct {
	Kind        string    `json:"type"`
	Description string    `json:"description"`
	Amount      flexFloat `json:"amount"`
	CreatedAt   flexTime  `json:"created_at"`
}

type historyResponse struct {
	Transactions []transactionPayload `json:"transactions"`
	Balance      flexFloat            `json:"balance"`
}

func (h historyResponse) toHistory(userID string) console.History {
	out := console.History{
		UserID:       userID,
		Transactions: make([]console.Transaction, 0, len(h.Transactions)),
		Balance:      float64(h.Balance),
	}
	for _, tx := range h.Transactions {
		entry := console.Transaction{
			Kind:        tx.Kind,
			Description: tx.Description,
			Amount:      float64(tx.Amount),
		}
		if tx.CreatedAt.valid {
			entry.CreatedAt = tx.CreatedAt.t
		}
		out.Transactions = append(out.Transactions, entry)
	}
	return out
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("adminapi: expected string or number id, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("adminapi: invalid amount %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// flexTime accepts ISO-8601 timestamps, calendar dates, empty strings and
// null. Empty values decode as absent.
type flexTime struct {
	t     time.Time
	valid bool
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("adminapi: expected date string, got %s", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = flexTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime{t: t, valid: true}
			return nil
		}
	}
	return fmt.Errorf("adminapi: unrecognized date %q", s)
}

func (f flexTime) ptr() *time.Time {
	if !f.valid {
		return nil
	}
	t := f.t
	return &t
}
