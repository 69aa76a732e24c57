package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrip_Country(t *testing.T) {
	tests := []struct {
		destination string
		want        string
	}{
		{"Paris, France", "France"},
		{"Tokyo,Japan", "Japan"},
		{"Kyoto, Kansai, Japan", "Kansai"},
		{"Lisbon", ""},
		{"Nowhere,   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.destination, func(t *testing.T) {
			assert.Equal(t, tt.want, Trip{Destination: tt.destination}.Country())
		})
	}
}

func TestTrip_JSONOmitsEmptyID(t *testing.T) {
	b, err := json.Marshal(Trip{ID: "abc", Title: "t"}.WithoutID())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	_, hasID := m["id"]
	assert.False(t, hasID)
	assert.Equal(t, "t", m["title"])
	assert.Contains(t, m, "startDate")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-05-01T10:00:00Z", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), true},
		{"2026-05-01T10:00:00.123Z", time.Date(2026, 5, 1, 10, 0, 0, 123000000, time.UTC), true},
		{"2026-05-01", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"next tuesday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}
}

func TestIsLocalID(t *testing.T) {
	assert.True(t, IsLocalID("local-1700000000000"))
	assert.False(t, IsLocalID("8c1f"))
	assert.True(t, Trip{ID: "local-1"}.IsLocal())
}

func TestTokens_Valid(t *testing.T) {
	var nilTokens *Tokens
	assert.False(t, nilTokens.Valid())
	assert.False(t, (&Tokens{RefreshToken: "r"}).Valid())
	assert.True(t, (&Tokens{AccessToken: "a"}).Valid())
}

func TestTrip_UnmarshalID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `{"id":"abc","title":"Rome"}`, want: "abc"},
		{name: "number", body: `{"id":17,"title":"Rome"}`, want: "17"},
		{name: "large number", body: `{"id":12345678901234567890,"title":"Rome"}`, want: "12345678901234567890"},
		{name: "missing", body: `{"title":"Rome"}`, want: ""},
		{name: "null", body: `{"id":null,"title":"Rome"}`, want: ""},
		{name: "object", body: `{"id":{"v":1},"title":"Rome"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trip Trip
			err := json.Unmarshal([]byte(tt.body), &trip)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, trip.ID)
			assert.Equal(t, "Rome", trip.Title)
		})
	}
}

func TestTrip_UnmarshalKeepsOtherFields(t *testing.T) {
	var trip Trip
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"title":"Oslo","destination":"Oslo, Norway",
		"startDate":"2030-01-01","endDate":"2030-01-05","description":"d","image":"i","photos":["a","b"]}`), &trip))

	assert.Equal(t, Trip{
		ID: "3", Title: "Oslo", Destination: "Oslo, Norway", StartDate: "2030-01-01", EndDate: "2030-01-05",
		Description: "d", Image: "i", Photos: []string{"a", "b"},
	}, trip)

	out, err := json.Marshal(trip)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id":"3"`)
}
