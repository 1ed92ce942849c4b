package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-access-console/components/console"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Credentials: StaticCredential(token)})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestHTTPClientListUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != PathUsers {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(HeaderAdminToken); got != "secret" {
			t.Fatalf("expected admin token header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected json content type, got %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"id_telegram": 123456789, "username": "ana", "allowed": true, "start_date": "2024-01-01", "end_date": "2024-01-31T00:00:00.000Z", "last_interaction": null},
			{"id_telegram": "987", "allowed": false, "last_interaction": "2024-01-01T10:00:00Z"}
		]`))
	}, "secret")

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != "123456789" || users[0].Username != "ana" || !users[0].Allowed {
		t.Fatalf("unexpected first user %+v", users[0])
	}
	if users[0].StartDate == nil || users[0].StartDate.Format(console.DateLayout) != "2024-01-01" {
		t.Fatalf("expected start date, got %v", users[0].StartDate)
	}
	if users[0].LastInteraction != nil {
		t.Fatalf("expected nil last interaction")
	}
	if users[1].ID != "987" || users[1].LastInteraction == nil {
		t.Fatalf("unexpected second user %+v", users[1])
	}
}

func TestHTTPClientOmitsHeaderWithoutCredential(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header[http.CanonicalHeaderKey(HeaderAdminToken)]; ok {
			t.Fatalf("expected no admin token header")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}, "")

	_, err := client.ListUsers(context.Background())
	if !console.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestHTTPClientFetchAnalytics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathAnalytics {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"users":{"total":10,"active":4,"blocked":6,"pending":2},"financials":{"totalVolume":"1234.50"}}`))
	}, "secret")

	analytics, err := client.FetchAnalytics(context.Background())
	if err != nil {
		t.Fatalf("fetch analytics: %v", err)
	}
	want := console.Analytics{
		Users:      console.UserCounts{Total: 10, Active: 4, Blocked: 6, Pending: 2},
		Financials: console.Financials{TotalVolume: 1234.5},
	}
	if analytics != want {
		t.Fatalf("expected %+v, got %+v", want, analytics)
	}
}

func TestHTTPClientAllowAccessSendsDates(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathAllow {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}, "secret")

	start := time.Date(2024, 3, 10, 22, 15, 0, 0, time.UTC)
	err := client.AllowAccess(context.Background(), console.AccessGrant{
		Target:    "@ana",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 30),
	})
	if err != nil {
		t.Fatalf("allow access: %v", err)
	}
	if body["id_telegramOrUsername"] != "@ana" || body["startDate"] != "2024-03-10" || body["endDate"] != "2024-04-09" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHTTPClientRemoveUserUsesDelete(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != PathRemove {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}, "secret")

	if err := client.RemoveUser(context.Background(), console.UserRemoval{UserID: "42"}); err != nil {
		t.Fatalf("remove user: %v", err)
	}
	if body["id_telegram"] != "42" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHTTPClientApplicationErrorPrefersServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Usuário não encontrado"}`))
	}, "secret")

	err := client.RevokeAccess(context.Background(), console.AccessRevocation{Target: "1"})
	var appErr *console.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected application error, got %v", err)
	}
	if appErr.StatusCode != http.StatusBadRequest || appErr.Message != "Usuário não encontrado" {
		t.Fatalf("unexpected error %+v", appErr)
	}
	if got := console.FeedbackMessage(err, "Ocorreu um erro"); got != "Usuário não encontrado" {
		t.Fatalf("expected server message, got %q", got)
	}
}

func TestHTTPClientApplicationErrorWithoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}, "secret")

	err := client.UpdateAccess(context.Background(), console.AccessUpdate{UserID: "1", EndDate: time.Now()})
	if got := console.FeedbackMessage(err, "Ocorreu um erro"); got != "Ocorreu um erro" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestHTTPClientConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: url})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.ListUsers(context.Background())
	if !console.IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestHTTPClientCreateInvite(t *testing.T) {
	var body inviteRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathInvite {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(inviteResponse{Link: "https://t.me/bot?start=xyz"})
	}, "secret")

	invite, err := client.CreateInvite(context.Background(), console.InviteRequest{Days: 7, Name: ""})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if body.Days != 7 || body.Name != "" {
		t.Fatalf("unexpected body %+v", body)
	}
	if invite.Link != "https://t.me/bot?start=xyz" || invite.Days != 7 {
		t.Fatalf("unexpected invite %+v", invite)
	}
}

func TestHTTPClientFetchHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathHistoryPrefix+"42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"transactions":[
			{"type":"gain","description":"Depósito","amount":"100.5","created_at":"2024-02-01T12:00:00Z"},
			{"type":"loss","description":"Saque","amount":-20,"created_at":"2024-01-01T12:00:00Z"}
		],"balance":80.5}`))
	}, "secret")

	history, err := client.FetchHistory(context.Background(), "42")
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if history.UserID != "42" || history.Balance != 80.5 {
		t.Fatalf("unexpected history %+v", history)
	}
	if len(history.Transactions) != 2 || history.Transactions[0].Description != "Depósito" {
		t.Fatalf("expected remote order preserved, got %+v", history.Transactions)
	}
	if !history.Transactions[0].IsGain() || history.Transactions[1].Amount != -20 {
		t.Fatalf("unexpected transactions %+v", history.Transactions)
	}
}

func TestHTTPClientRateLimitHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, "secret")
	limited, err := NewHTTPClient(HTTPConfig{BaseURL: client.baseURL, RateLimit: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := limited.ListUsers(context.Background()); err != nil {
		t.Fatalf("first request should use the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := limited.ListUsers(ctx); !console.IsConnectivity(err) {
		t.Fatalf("expected limiter wait to fail with connectivity error, got %v", err)
	}
}
