package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/services"
)

// ---- fakes ----

type fakeUsers struct {
	tokens     *services.TokenPair
	err        error
	refreshErr error
	gotUser    string
	gotPass    string
	gotRefresh string
}

func (f *fakeUsers) Register(_ context.Context, u, p string) (*services.TokenPair, error) {
	f.gotUser, f.gotPass = u, p
	return f.tokens, f.err
}

func (f *fakeUsers) Login(_ context.Context, u, p string) (*services.TokenPair, error) {
	f.gotUser, f.gotPass = u, p
	return f.tokens, f.err
}

func (f *fakeUsers) RefreshToken(_ context.Context, t string) (*services.TokenPair, error) {
	f.gotRefresh = t
	return f.tokens, f.refreshErr
}

// Authenticate accepts "good-<user>" and reports "expired" as expired.
func (f *fakeUsers) Authenticate(token string) (string, error) {
	switch {
	case token == "expired":
		return "", common.ErrTokenExpired
	case len(token) > 5 && token[:5] == "good-":
		return token[5:], nil
	default:
		return "", common.ErrInvalidToken
	}
}

type fakeTrips struct {
	trips   []models.Trip
	err     error
	gotUser string
	gotID   string
	gotTrip models.Trip
}

func (f *fakeTrips) List(_ context.Context, userID string) ([]models.Trip, error) {
	f.gotUser = userID
	return f.trips, f.err
}

func (f *fakeTrips) Create(_ context.Context, userID string, t models.Trip) (*models.Trip, error) {
	f.gotUser, f.gotTrip = userID, t
	if f.err != nil {
		return nil, f.err
	}
	t.ID = "srv-1"
	return &t, nil
}

func (f *fakeTrips) Update(_ context.Context, userID, id string, t models.Trip) (*models.Trip, error) {
	f.gotUser, f.gotID, f.gotTrip = userID, id, t
	if f.err != nil {
		return nil, f.err
	}
	t.ID = id
	return &t, nil
}

func (f *fakeTrips) Delete(_ context.Context, userID, id string) error {
	f.gotUser, f.gotID = userID, id
	return f.err
}

type fakeImages struct {
	url         string
	err         error
	filename    string
	contentType string
	body        string
}

func (f *fakeImages) Upload(_ context.Context, filename, contentType string, body io.Reader, _ int64) (string, error) {
	b, _ := io.ReadAll(body)
	f.filename, f.contentType, f.body = filename, contentType, string(b)
	return f.url, f.err
}

type testServer struct {
	users  *fakeUsers
	trips  *fakeTrips
	images *fakeImages
	srv    *httptest.Server
}

func newTestServer(t *testing.T, files http.Handler) *testServer {
	t.Helper()
	ts := &testServer{
		users:  &fakeUsers{tokens: &services.TokenPair{AccessToken: "a", RefreshToken: "r"}},
		trips:  &fakeTrips{},
		images: &fakeImages{url: "http://cdn/x.jpg"},
	}
	s := NewHTTPServer("127.0.0.1:0", logging.Nop(), ts.users, ts.trips, ts.images, files)
	ts.srv = httptest.NewServer(s.Router())
	t.Cleanup(ts.srv.Close)
	return ts
}
