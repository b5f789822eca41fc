// Package session owns the client's authentication state: the current user
// and bearer token, persisted across runs in two slots under the state
// directory and rehydrated once at startup.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"floo/internal/api"
	"floo/internal/core"
	"floo/internal/log"
)

// Storage slot names, one file each under the state directory. Both are
// present together or absent together; Initialize enforces this.
const (
	slotToken = "token"
	slotUser  = "user"
)

// Session is a read-only snapshot of the authenticated identity.
type Session struct {
	User  *core.User
	Token string
}

// Authenticated reports whether the session holds a complete identity.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Navigator receives navigation signals from the session lifecycle. The CLI
// maps these to user-facing hints; tests record them.
type Navigator interface {
	// ToLogin signals that the unauthenticated entry point should take over.
	ToLogin()
	// ToDashboard signals that the session is ready for authenticated views.
	ToDashboard()
}

// NopNavigator ignores all navigation signals.
type NopNavigator struct{}

func (NopNavigator) ToLogin()     {}
func (NopNavigator) ToDashboard() {}

// Store is the single source of truth for the session. All mutation funnels
// through Initialize, Login and Logout; Current and Token never block on
// network or storage.
type Store struct {
	stateDir string
	http     api.Doer
	base     *url.URL
	nav      Navigator
	logger   *log.Logger

	mu          sync.RWMutex
	current     Session
	initialized bool
}

// NewStore creates a session store persisting to stateDir and logging in
// against the given API origin. nav may be nil.
func NewStore(stateDir string, httpClient api.Doer, base *url.URL, nav Navigator, logger *log.Logger) *Store {
	if nav == nil {
		nav = NopNavigator{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSession)
	}
	return &Store{
		stateDir: stateDir,
		http:     httpClient,
		base:     base,
		nav:      nav,
		logger:   logger,
	}
}

// Initialize rehydrates the session from the state directory. A partial or
// unparseable pair of slots is cleared and the store comes up logged out;
// this self-heal is silent apart from a log line. Initialize never touches
// the network and is idempotent.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	token, tokenErr := os.ReadFile(filepath.Join(s.stateDir, slotToken))
	userData, userErr := os.ReadFile(filepath.Join(s.stateDir, slotUser))

	switch {
	case tokenErr == nil && userErr == nil:
		var user core.User
		trimmed := strings.TrimSpace(string(token))
		if trimmed == "" || json.Unmarshal(userData, &user) != nil {
			s.logger.Warn("clearing malformed persisted session")
			s.clearSlots()
		} else {
			s.current = Session{User: &user, Token: trimmed}
			s.logger.Debug("session restored", log.FieldUsername, user.Username)
		}
	case tokenErr == nil || userErr == nil:
		// Exactly one slot present: prefer a clean logged-out state over a
		// partial session.
		s.logger.Warn("clearing partial persisted session")
		s.clearSlots()
	}

	s.initialized = true
	return nil
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        core.User `json:"user"`
}

// Login submits credentials as a www-form-urlencoded body to /login. On
// success the token and user snapshot are persisted and the in-memory
// session replaced atomically; on failure the session is left untouched.
func (s *Store) Login(ctx context.Context, username, password string) error {
	const op = "POST /login"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	u := s.base.JoinPath("login")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return &api.Error{Kind: api.KindOperation, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "login request failed", log.FieldError, err.Error())
		return &api.Error{Kind: api.KindOperation, Op: op, Detail: "server unreachable", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &api.Error{Kind: api.KindOperation, Status: resp.StatusCode, Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		detail := loginDetail(data, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return &api.Error{Kind: api.KindAuthentication, Status: resp.StatusCode, Detail: detail, Op: op}
		}
		return &api.Error{Kind: api.KindOperation, Status: resp.StatusCode, Detail: detail, Op: op}
	}

	var body loginResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return &api.Error{Kind: api.KindOperation, Status: resp.StatusCode, Op: op, Err: fmt.Errorf("decode login response: %w", err)}
	}
	if body.AccessToken == "" {
		return &api.Error{Kind: api.KindOperation, Status: resp.StatusCode, Op: op, Detail: "login response missing access token"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(body.AccessToken, body.User); err != nil {
		return &api.Error{Kind: api.KindOperation, Op: op, Err: err}
	}
	user := body.User
	s.current = Session{User: &user, Token: body.AccessToken}
	s.initialized = true

	s.logger.InfoContext(ctx, "logged in", log.FieldUsername, user.Username)
	s.nav.ToDashboard()
	return nil
}

// Logout clears the persisted and in-memory session unconditionally and
// signals navigation to the login entry point. It never fails.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.clearSlots()
	hadUser := s.current.User != nil
	s.current = Session{}
	s.mu.Unlock()

	if hadUser {
		s.logger.InfoContext(ctx, "logged out")
	}
	s.nav.ToLogin()
}

// Current returns the in-memory session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.current
	if snapshot.User != nil {
		user := *snapshot.User
		snapshot.User = &user
	}
	return snapshot
}

// Token implements api.TokenSource: the resource client reads the token
// through it at dispatch time.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// persist writes the token slot and then the user slot. The two writes are
// individually atomic only; the small window between them is accepted.
func (s *Store) persist(token string, user core.User) error {
	if err := os.MkdirAll(s.stateDir, 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.stateDir, slotToken), []byte(token), 0600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.stateDir, slotUser), userData, 0600); err != nil {
		return fmt.Errorf("persist user snapshot: %w", err)
	}
	return nil
}

func (s *Store) clearSlots() {
	_ = os.Remove(filepath.Join(s.stateDir, slotToken))
	_ = os.Remove(filepath.Join(s.stateDir, slotUser))
}

func loginDetail(data []byte, status int) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return http.StatusText(status)
}
