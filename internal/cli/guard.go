package cli

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"floo/internal/session"
)

// ErrNotLoggedIn gates authenticated commands.
var ErrNotLoggedIn = errors.New("not logged in: run 'floo login' first")

// RequireSession is the command gate: it returns the current session or
// directs the user to the login entry point.
func RequireSession(store *session.Store) (session.Session, error) {
	current := store.Current()
	if !current.Authenticated() {
		return session.Session{}, ErrNotLoggedIn
	}
	return current, nil
}

// TerminalNavigator turns session navigation signals into terminal hints.
// The login redirect is printed at most once per command run, however many
// calls end in a 401.
type TerminalNavigator struct {
	out  io.Writer
	once sync.Once
}

func NewTerminalNavigator(out io.Writer) *TerminalNavigator {
	return &TerminalNavigator{out: out}
}

func (n *TerminalNavigator) ToLogin() {
	n.once.Do(func() {
		fmt.Fprintln(n.out, "Session ended. Run 'floo login' to sign in again.")
	})
}

func (n *TerminalNavigator) ToDashboard() {}
