// Package session keeps a user's backend credentials and map preferences
// in a signed, encrypted, client-held cookie. There is no server-side
// session storage; the cookie is decoded once per request and rewritten
// once at the end of the request when it changed.
package session

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
)

// Preference names a settable UI preference.
type Preference string

const (
	CircleSize Preference = "circleSize"
	OSRMURL    Preference = "osrmURL"
)

// Preferences are opaque JSON values; nil means unset.
type Preferences struct {
	CircleSize json.RawMessage
	OSRMURL    json.RawMessage
}

// Session is the decoded state of one request's cookie. Username and
// password are either both set or both empty.
type Session struct {
	username  string
	password  string
	prefs     Preferences
	permanent bool

	// loaded is true when the state came from a valid cookie.
	loaded  bool
	dirty   bool
	cleared bool
}

// New returns an empty anonymous session.
func New() *Session { return &Session{} }

// Establish stores a validated credential pair and makes the session
// long-lived. It performs no backend call.
func (s *Session) Establish(username, password string) {
	s.username, s.password = username, password
	s.permanent = true
	s.cleared = false
	s.dirty = true
}

// SetPreference upserts one preference. No credentials are needed.
// An empty or null value unsets it.
func (s *Session) SetPreference(key Preference, value json.RawMessage) {
	if len(value) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		value = nil
	}
	switch key {
	case CircleSize:
		s.prefs.CircleSize = value
	case OSRMURL:
		s.prefs.OSRMURL = value
	default:
		return
	}
	s.permanent = true
	s.cleared = false
	s.dirty = true
}

// Preferences returns the stored preferences.
func (s *Session) Preferences() Preferences {
	return s.prefs
}

// Credentials returns the stored pair, or false when anonymous.
func (s *Session) Credentials() (owntracks.Credentials, bool) {
	if s.username == "" || s.password == "" {
		return owntracks.Credentials{}, false
	}
	return owntracks.Credentials{Username: s.username, Password: s.password}, true
}

// Username is empty for anonymous sessions.
func (s *Session) Username() string {
	if _, ok := s.Credentials(); !ok {
		return ""
	}
	return s.username
}

// Clear drops everything, credentials and preferences alike.
func (s *Session) Clear() {
	*s = Session{loaded: s.loaded, cleared: true}
}

// OSRMBaseURL returns the osrmURL preference when it is a non-empty JSON string.
func (s *Session) OSRMBaseURL() string {
	if len(s.prefs.OSRMURL) == 0 {
		return ""
	}
	var u string
	if err := json.Unmarshal(s.prefs.OSRMURL, &u); err != nil {
		return ""
	}
	return u
}

// Permanent reports whether the cookie outlives the browser session.
func (s *Session) Permanent() bool { return s.permanent }

// Empty reports whether there is nothing worth persisting.
func (s *Session) Empty() bool {
	return s.username == "" && s.password == "" &&
		s.prefs.CircleSize == nil && s.prefs.OSRMURL == nil
}
