package cli

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"floo/internal/session"
)

func TestRequireSession_LoggedOut(t *testing.T) {
	store := session.NewStore(t.TempDir(), http.DefaultClient, nil, nil, nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	_, err := RequireSession(store)
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("RequireSession() error = %v, want %v", err, ErrNotLoggedIn)
	}
}

func TestTerminalNavigator_PrintsLoginHintOnce(t *testing.T) {
	var buf bytes.Buffer
	nav := NewTerminalNavigator(&buf)

	nav.ToLogin()
	nav.ToLogin()
	nav.ToLogin()

	if got := strings.Count(buf.String(), "floo login"); got != 1 {
		t.Errorf("login hint printed %d times, want 1", got)
	}
}

func TestTerminalNavigator_DashboardIsSilent(t *testing.T) {
	var buf bytes.Buffer
	nav := NewTerminalNavigator(&buf)

	nav.ToDashboard()

	if buf.Len() != 0 {
		t.Errorf("ToDashboard wrote %q, want nothing", buf.String())
	}
}

func TestReadPassword_PipeFallback(t *testing.T) {
	password, err := ReadPassword(strings.NewReader("secret\n"))
	if err != nil {
		t.Fatalf("ReadPassword() error = %v", err)
	}
	if password != "secret" {
		t.Errorf("ReadPassword() = %q, want secret", password)
	}
}

func TestReadPassword_EmptyInput(t *testing.T) {
	if _, err := ReadPassword(strings.NewReader("")); err == nil {
		t.Error("ReadPassword() expected error for empty input")
	}
}
