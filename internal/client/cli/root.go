package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	a.mu.Unlock()

	if a.trips != nil {
		if n := a.trips.Status(context.Background()).PendingCount; n > 0 {
			s = fmt.Sprintf("%s, %d pending", s, n)
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to tripkeeper (type 'help' for commands)")
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not signed in: use 'login' or 'register'")
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
