package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"floo/internal/api"
	"floo/internal/core"
)

type recordingNavigator struct {
	toLogin     int
	toDashboard int
}

func (n *recordingNavigator) ToLogin()     { n.toLogin++ }
func (n *recordingNavigator) ToDashboard() { n.toDashboard++ }

func testUser() core.User {
	return core.User{ID: 1, Username: "testuser", Fullname: "Test User", Email: "test@example.com", IsActive: true}
}

func writeSlot(t *testing.T, dir, slot, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, slot), []byte(content), 0600); err != nil {
		t.Fatalf("write slot %s: %v", slot, err)
	}
}

func slotExists(t *testing.T, dir, slot string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(dir, slot))
	return err == nil
}

func loginServer(t *testing.T, handler http.HandlerFunc) (*http.Client, *url.URL) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return srv.Client(), base
}

func okLoginHandler(t *testing.T, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("login path = %q, want /login", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse login form: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         testUser(),
		})
	}
}

func TestStore_Initialize_EmptyStateDir(t *testing.T) {
	store := NewStore(t.TempDir(), http.DefaultClient, nil, nil, nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if store.Current().Authenticated() {
		t.Error("fresh store should come up logged out")
	}
}

func TestStore_Initialize_RestoresSession(t *testing.T) {
	dir := t.TempDir()
	userData, _ := json.Marshal(testUser())
	writeSlot(t, dir, slotToken, "persisted-token")
	writeSlot(t, dir, slotUser, string(userData))

	store := NewStore(dir, http.DefaultClient, nil, nil, nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	current := store.Current()
	if !current.Authenticated() {
		t.Fatal("store should restore the persisted session")
	}
	if current.Token != "persisted-token" {
		t.Errorf("Token = %q, want persisted-token", current.Token)
	}
	if current.User.Username != "testuser" {
		t.Errorf("Username = %q, want testuser", current.User.Username)
	}
}

func TestStore_Initialize_ClearsPartialState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "token slot only",
			setup: func(t *testing.T, dir string) {
				writeSlot(t, dir, slotToken, "orphan-token")
			},
		},
		{
			name: "user slot only",
			setup: func(t *testing.T, dir string) {
				userData, _ := json.Marshal(testUser())
				writeSlot(t, dir, slotUser, string(userData))
			},
		},
		{
			name: "corrupt user slot",
			setup: func(t *testing.T, dir string) {
				writeSlot(t, dir, slotToken, "some-token")
				writeSlot(t, dir, slotUser, "{not json")
			},
		},
		{
			name: "blank token slot",
			setup: func(t *testing.T, dir string) {
				userData, _ := json.Marshal(testUser())
				writeSlot(t, dir, slotToken, "   ")
				writeSlot(t, dir, slotUser, string(userData))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			store := NewStore(dir, http.DefaultClient, nil, nil, nil)
			if err := store.Initialize(); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			if store.Current().Authenticated() {
				t.Error("store should come up logged out")
			}
			if slotExists(t, dir, slotToken) || slotExists(t, dir, slotUser) {
				t.Error("both slots should be cleared")
			}
		})
	}
}

func TestStore_Initialize_Idempotent(t *testing.T) {
	dir := t.TempDir()
	userData, _ := json.Marshal(testUser())
	writeSlot(t, dir, slotToken, "persisted-token")
	writeSlot(t, dir, slotUser, string(userData))

	store := NewStore(dir, http.DefaultClient, nil, nil, nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// A second call must not reread storage.
	os.Remove(filepath.Join(dir, slotToken))
	os.Remove(filepath.Join(dir, slotUser))
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !store.Current().Authenticated() {
		t.Error("second Initialize should keep the in-memory session")
	}
}

func TestStore_Login_Success(t *testing.T) {
	dir := t.TempDir()
	httpClient, base := loginServer(t, okLoginHandler(t, "fresh-token"))
	nav := &recordingNavigator{}
	store := NewStore(dir, httpClient, base, nav, nil)

	if err := store.Login(context.Background(), "testuser", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	current := store.Current()
	if !current.Authenticated() {
		t.Fatal("session should be authenticated after login")
	}
	if current.Token != "fresh-token" {
		t.Errorf("Token = %q, want fresh-token", current.Token)
	}
	if nav.toDashboard != 1 {
		t.Errorf("ToDashboard called %d times, want 1", nav.toDashboard)
	}
	if !slotExists(t, dir, slotToken) || !slotExists(t, dir, slotUser) {
		t.Error("both slots should be persisted after login")
	}
}

func TestStore_Login_InvalidCredentials(t *testing.T) {
	dir := t.TempDir()
	httpClient, base := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
	})
	nav := &recordingNavigator{}
	store := NewStore(dir, httpClient, base, nav, nil)

	err := store.Login(context.Background(), "testuser", "wrong")
	if !api.IsAuthentication(err) {
		t.Fatalf("Login() error = %v, want authentication kind", err)
	}
	apiErr, _ := api.AsError(err)
	if apiErr.Detail != "Incorrect username or password" {
		t.Errorf("Detail = %q, want server message", apiErr.Detail)
	}

	if store.Current().Authenticated() {
		t.Error("failed login must leave the session logged out")
	}
	if slotExists(t, dir, slotToken) || slotExists(t, dir, slotUser) {
		t.Error("failed login must not persist anything")
	}
	if nav.toDashboard != 0 {
		t.Error("failed login must not navigate to the dashboard")
	}
}

func TestStore_Login_ServerError(t *testing.T) {
	httpClient, base := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	store := NewStore(t.TempDir(), httpClient, base, nil, nil)

	err := store.Login(context.Background(), "testuser", "secret")
	apiErr, ok := api.AsError(err)
	if !ok {
		t.Fatalf("Login() error = %v, want *api.Error", err)
	}
	if apiErr.Kind != api.KindOperation {
		t.Errorf("Kind = %v, want operation", apiErr.Kind)
	}
}

func TestStore_Login_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base, _ := url.Parse(srv.URL)
	httpClient := srv.Client()
	srv.Close()

	store := NewStore(t.TempDir(), httpClient, base, nil, nil)
	err := store.Login(context.Background(), "testuser", "secret")
	apiErr, ok := api.AsError(err)
	if !ok {
		t.Fatalf("Login() error = %v, want *api.Error", err)
	}
	if apiErr.Kind != api.KindOperation {
		t.Errorf("Kind = %v, want operation", apiErr.Kind)
	}
	if apiErr.Detail != "server unreachable" {
		t.Errorf("Detail = %q, want server unreachable", apiErr.Detail)
	}
}

func TestStore_Logout(t *testing.T) {
	dir := t.TempDir()
	httpClient, base := loginServer(t, okLoginHandler(t, "fresh-token"))
	nav := &recordingNavigator{}
	store := NewStore(dir, httpClient, base, nav, nil)

	if err := store.Login(context.Background(), "testuser", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	store.Logout(context.Background())

	if store.Current().Authenticated() {
		t.Error("session should be logged out")
	}
	if store.Token() != "" {
		t.Error("Token() should be empty after logout")
	}
	if slotExists(t, dir, slotToken) || slotExists(t, dir, slotUser) {
		t.Error("both slots should be cleared")
	}
	if nav.toLogin != 1 {
		t.Errorf("ToLogin called %d times, want 1", nav.toLogin)
	}
}

func TestStore_Logout_WhenAlreadyLoggedOut(t *testing.T) {
	nav := &recordingNavigator{}
	store := NewStore(t.TempDir(), http.DefaultClient, nil, nav, nil)

	store.Logout(context.Background())

	if nav.toLogin != 1 {
		t.Errorf("ToLogin called %d times, want 1", nav.toLogin)
	}
}

func TestStore_Current_ReturnsCopy(t *testing.T) {
	httpClient, base := loginServer(t, okLoginHandler(t, "fresh-token"))
	store := NewStore(t.TempDir(), httpClient, base, nil, nil)
	if err := store.Login(context.Background(), "testuser", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	snapshot := store.Current()
	snapshot.User.Username = "mutated"

	if store.Current().User.Username != "testuser" {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestStore_SessionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	httpClient, base := loginServer(t, okLoginHandler(t, "fresh-token"))
	store := NewStore(dir, httpClient, base, nil, nil)
	if err := store.Login(context.Background(), "testuser", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	restarted := NewStore(dir, httpClient, base, nil, nil)
	if err := restarted.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	current := restarted.Current()
	if !current.Authenticated() {
		t.Fatal("session should survive a restart")
	}
	if current.Token != "fresh-token" {
		t.Errorf("Token = %q, want fresh-token", current.Token)
	}
	if current.User.Username != "testuser" {
		t.Errorf("Username = %q, want testuser", current.User.Username)
	}
}

func TestStore_TokenSource(t *testing.T) {
	var _ api.TokenSource = (*Store)(nil)
}
