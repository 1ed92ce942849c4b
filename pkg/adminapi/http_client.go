package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-access-console/components/console"
)

// HeaderAdminToken carries the admin credential on every request.
const HeaderAdminToken = "x-admin-token"

const maxResponseBytes = 4 << 20

// API paths.
const (
	PathUsers         = "/api/admin/users"
	PathAnalytics     = "/api/admin/users/analytics"
	PathAllow         = "/api/admin/users/allow"
	PathRevoke        = "/api/admin/users/revoke"
	PathRemove        = "/api/admin/users/remove"
	PathInvite        = "/api/admin/users/invite"
	PathUpdateAccess  = "/api/admin/users/update-access"
	PathHistoryPrefix = "/api/admin/transactions/history/"
)

// CredentialProvider supplies the admin token at call time. An empty token
// means no credential header is sent.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed token.
type StaticCredential string

// Credential implements CredentialProvider.
func (s StaticCredential) Credential(context.Context) (string, error) {
	return string(s), nil
}

// HTTPConfig configures the HTTP admin client.
type HTTPConfig struct {
	BaseURL     string
	Credentials CredentialProvider
	HTTPClient  *http.Client
	// RateLimit caps requests per second; zero disables pacing.
	RateLimit float64
	Burst     int
	Logger    *slog.Logger
}

// HTTPClient talks to the admin REST API. It performs no retries.
type HTTPClient struct {
	baseURL     string
	credentials CredentialProvider
	client      *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ console.Gateway = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the admin API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("adminapi: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("adminapi: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	credentials := cfg.Credentials
	if credentials == nil {
		credentials = StaticCredential("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: credentials,
		client:      httpClient,
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// ListUsers implements console.UserSource.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]console.User, error) {
	var resp []userPayload
	if err := c.do(ctx, "list users", http.MethodGet, PathUsers, nil, &resp); err != nil {
		return nil, err
	}
	users := make([]console.User, 0, len(resp))
	for _, u := range resp {
		users = append(users, u.toUser())
	}
	return users, nil
}

// FetchAnalytics implements console.AnalyticsSource.
func (c *HTTPClient) FetchAnalytics(ctx context.Context) (console.Analytics, error) {
	var resp analyticsPayload
	if err := c.do(ctx, "analytics", http.MethodGet, PathAnalytics, nil, &resp); err != nil {
		return console.Analytics{}, err
	}
	return resp.toAnalytics(), nil
}

// AllowAccess implements console.AccessManager.
func (c *HTTPClient) AllowAccess(ctx context.Context, grant console.AccessGrant) error {
	req := allowRequest{
		Target:    grant.Target,
		StartDate: grant.StartDate.UTC().Format(console.DateLayout),
		EndDate:   grant.EndDate.UTC().Format(console.DateLayout),
	}
	return c.do(ctx, "allow access", http.MethodPost, PathAllow, req, nil)
}

// RevokeAccess implements console.AccessManager.
func (c *HTTPClient) RevokeAccess(ctx context.Context, revocation console.AccessRevocation) error {
	req := revokeRequest{Target: revocation.Target}
	return c.do(ctx, "revoke access", http.MethodPost, PathRevoke, req, nil)
}

// RemoveUser implements console.AccessManager.
func (c *HTTPClient) RemoveUser(ctx context.Context, removal console.UserRemoval) error {
	req := removeRequest{UserID: removal.UserID}
	return c.do(ctx, "remove user", http.MethodDelete, PathRemove, req, nil)
}

// UpdateAccess implements console.AccessManager.
func (c *HTTPClient) UpdateAccess(ctx context.Context, update console.AccessUpdate) error {
	req := updateAccessRequest{
		UserID:  update.UserID,
		EndDate: update.EndDate.UTC().Format(console.DateLayout),
	}
	return c.do(ctx, "update access", http.MethodPost, PathUpdateAccess, req, nil)
}

// CreateInvite implements console.InviteIssuer.
func (c *HTTPClient) CreateInvite(ctx context.Context, req console.InviteRequest) (console.Invite, error) {
	var resp inviteResponse
	if err := c.do(ctx, "create invite", http.MethodPost, PathInvite, inviteRequest{Days: req.Days, Name: req.Name}, &resp); err != nil {
		return console.Invite{}, err
	}
	return console.Invite{
		Link:     resp.Link,
		Days:     req.Days,
		Name:     req.Name,
		IssuedAt: time.Now(),
	}, nil
}

// FetchHistory implements console.HistorySource.
func (c *HTTPClient) FetchHistory(ctx context.Context, userID string) (console.History, error) {
	var resp historyResponse
	path := PathHistoryPrefix + url.PathEscape(userID)
	if err := c.do(ctx, "transaction history", http.MethodGet, path, nil, &resp); err != nil {
		return console.History{}, err
	}
	return resp.toHistory(userID), nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload any, target any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &console.ConnectivityError{Op: op, Err: err}
		}
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("adminapi: %s: encode payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("adminapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token, err := c.credentials.Credential(ctx)
	if err != nil {
		return fmt.Errorf("adminapi: %s: load credential: %w", op, err)
	}
	if token != "" {
		req.Header.Set(HeaderAdminToken, token)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &console.ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &console.ConnectivityError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.DebugContext(ctx, "admin api request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &console.UnauthorizedError{Op: op, Message: parseErrorMessage(raw)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &console.ApplicationError{Op: op, StatusCode: resp.StatusCode, Message: parseErrorMessage(raw)}
	}
	if target == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("adminapi: %s: decode response: %w", op, err)
	}
	return nil
}

// parseErrorMessage extracts `error` or `message` from a JSON error body.
func parseErrorMessage(raw []byte) string {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Message)
}
