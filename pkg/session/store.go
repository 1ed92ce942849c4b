package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoSession is returned by Load when no secret has been stored.
var ErrNoSession = errors.New("session: not logged in")

// Session is the persisted operator credential.
type Session struct {
	Token   string    `yaml:"token"`
	BaseURL string    `yaml:"base_url,omitempty"`
	SavedAt time.Time `yaml:"saved_at"`
}

// ErrBaseURLMismatch is returned when a stored secret is used against an API
// other than the one it was saved for.
var ErrBaseURLMismatch = errors.New("session: stored for a different base URL")

// Targets reports whether the session was saved for baseURL. Sessions saved
// without a base URL match any.
func (s Session) Targets(baseURL string) bool {
	if s.BaseURL == "" {
		return true
	}
	return normalizeURL(s.BaseURL) == normalizeURL(baseURL)
}

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}

// LoadFor reads the stored session and checks it was saved for baseURL.
func (s *FileStore) LoadFor(baseURL string) (Session, error) {
	sess, err := s.Load()
	if err != nil {
		return Session{}, err
	}
	if !sess.Targets(baseURL) {
		return sess, fmt.Errorf("%w: saved for %s, using %s", ErrBaseURLMismatch, sess.BaseURL, baseURL)
	}
	return sess, nil
}

// FileStore keeps the admin secret in a private YAML file. It supplies the
// gateway credential and clears itself when the server rejects it.
type FileStore struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFileStore builds a store at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger, now: time.Now}
}

// Path returns the session file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save stores token with owner-only permissions.
func (s *FileStore) Save(token, baseURL string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: token is required")
	}
	data, err := yaml.Marshal(Session{Token: token, BaseURL: baseURL, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}
	return os.Chmod(s.path, 0o600)
}

// Load reads the stored session.
func (s *FileStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: read %s: %w", s.path, err)
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("session: parse %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the stored secret. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

// Credential returns the stored token, or "" when logged out so the request
// goes out without a credential header.
func (s *FileStore) Credential(context.Context) (string, error) {
	sess, err := s.Load()
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// SessionInvalidated clears the secret after the server rejected it.
func (s *FileStore) SessionInvalidated(ctx context.Context, cause error) {
	if err := s.Clear(); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear rejected session", "path", s.path, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "admin session invalidated; run login again", "path", s.path, "cause", cause)
}
