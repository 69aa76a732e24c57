package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/services"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

type fakeAuth struct {
	mu sync.Mutex

	loggedIn bool
	authErr  error

	regUser, regPass     string
	loginUser, loginPass string
	regErr, loginErr     error
	logoutErr            error
	logoutCalled         bool
}

func (f *fakeAuth) Register(_ context.Context, user, pass string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regUser, f.regPass = user, pass
	if f.regErr == nil {
		f.loggedIn = true
	}
	return f.regErr
}

func (f *fakeAuth) Login(_ context.Context, user, pass string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginUser, f.loginPass = user, pass
	if f.loginErr == nil {
		f.loggedIn = true
	}
	return f.loginErr
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalled = true
	if f.logoutErr == nil {
		f.loggedIn = false
	}
	return f.logoutErr
}

func (f *fakeAuth) Ping(context.Context) error { return nil }

func (f *fakeAuth) IsAuthenticated(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn, f.authErr
}

type fakeTrips struct {
	trips    []models.Trip
	upcoming []models.Trip
	stats    models.UserStats
	status   models.SyncStatus
	report   services.SyncReport

	created   []models.Trip
	createID  string
	createErr error

	deleted   []string
	deleteErr error

	uploaded  []string
	uploadURL string
	uploadErr error
}

func (f *fakeTrips) GetTrips(context.Context) []models.Trip         { return f.trips }
func (f *fakeTrips) GetUpcomingTrips(context.Context) []models.Trip { return f.upcoming }
func (f *fakeTrips) GetUserStats(context.Context) models.UserStats  { return f.stats }
func (f *fakeTrips) Status(context.Context) models.SyncStatus       { return f.status }
func (f *fakeTrips) SyncNow(context.Context) services.SyncReport    { return f.report }

func (f *fakeTrips) CreateTrip(_ context.Context, trip models.Trip) (models.Trip, error) {
	if f.createErr != nil {
		return models.Trip{}, f.createErr
	}
	f.created = append(f.created, trip)
	trip.ID = f.createID
	return trip, nil
}

func (f *fakeTrips) DeleteTrip(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTrips) UploadImage(_ context.Context, localURI string) (string, error) {
	f.uploaded = append(f.uploaded, localURI)
	return f.uploadURL, f.uploadErr
}

type fakeConn struct {
	online, pinned bool
}

func (c *fakeConn) IsOnline() bool { return c.online }
func (c *fakeConn) Pin(online bool) {
	c.pinned = true
	c.online = online
}
func (c *fakeConn) Unpin()       { c.pinned = false }
func (c *fakeConn) Pinned() bool { return c.pinned }

type testApp struct {
	*App
	auth  *fakeAuth
	trips *fakeTrips
	conn  *fakeConn
	out   *bytes.Buffer
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	ta := &testApp{
		auth:  &fakeAuth{},
		trips: &fakeTrips{},
		conn:  &fakeConn{online: true},
		out:   &bytes.Buffer{},
	}
	ta.App = &App{
		log:         logging.Nop(),
		authService: ta.auth,
		trips:       ta.trips,
		conn:        ta.conn,
		Mode:        ModeOnline,
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         ta.out,
	}
	return ta
}

// stubInputs replaces the interactive prompts with canned answers served
// in order.
func stubInputs(t *testing.T, answers ...string) {
	t.Helper()
	origST, origML, origGP := getSimpleText, getMultiline, getPassword
	t.Cleanup(func() {
		getSimpleText, getMultiline, getPassword = origST, origML, origGP
	})

	next := func() string {
		if len(answers) == 0 {
			t.Fatalf("unexpected prompt")
		}
		a := answers[0]
		answers = answers[1:]
		return a
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(next()), nil }
}
