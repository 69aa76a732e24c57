// Package models defines the client-side data types: trips as the remote
// service returns them, queued offline actions, session tokens and the
// derived read models shown by the host UI.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalIDPrefix marks ids synthesised for trips created while offline.
const LocalIDPrefix = "local-"

// Trip is a journal trip as exchanged with the remote service. Dates are
// ISO-8601 strings carried verbatim; ordering of StartDate and EndDate is
// the caller's concern.
type Trip struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Photos      []string `json:"photos"`
}

// UnmarshalJSON accepts the id as a JSON string or number.
func (t *Trip) UnmarshalJSON(data []byte) error {
	type plain Trip
	aux := struct {
		*plain
		ID json.RawMessage `json:"id,omitempty"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := DecodeID(aux.ID)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// DecodeID converts a server id to its string form. Strings and numbers
// are accepted; an absent or null id yields "".
func DecodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported id %s", raw)
}

// IsLocal reports whether the trip still carries an optimistic local id.
func (t Trip) IsLocal() bool {
	return IsLocalID(t.ID)
}

// IsLocalID reports whether id was synthesised offline.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// WithoutID returns a copy suitable for a create request body.
func (t Trip) WithoutID() Trip {
	t.ID = ""
	return t
}

// Country returns the trimmed second comma-separated component of the
// destination ("Paris, France" -> "France"), or "" when there is none.
func (t Trip) Country() string {
	parts := strings.Split(t.Destination, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDate parses the ISO-8601 forms the mobile app produces.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Start returns the parsed start date.
func (t Trip) Start() (time.Time, bool) {
	return ParseDate(t.StartDate)
}

// UserStats is the derived profile summary.
type UserStats struct {
	Trips     int `json:"trips"`
	Photos    int `json:"photos"`
	Countries int `json:"countries"`
}
