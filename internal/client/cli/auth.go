package cli

import (
	"context"
	"fmt"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getPassword = GetPassword

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts the user for an email and password and creates a new
// account. The server signs the new user in, so on success the session is
// stored and the prompt shows the user name.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.authService.Register(ctx, userName, string(password)); err != nil {
		return err
	}

	a.setUser(userName)
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts the user for credentials and authenticates against the
// server. Login needs connectivity; there is no offline sign-in.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.authService.Login(ctx, userName, string(password)); err != nil {
		return err
	}

	a.log.Info(ctx, "signed in", "user", userName)
	a.setUser(userName)
	fmt.Fprintln(a.out, "Signed in")
	return nil
}

// Logout forgets the session and the cached trips. Queued changes are kept
// and replayed after the next sign-in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setUser("")
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}
