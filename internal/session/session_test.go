package session

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", Options{TTL: time.Hour, RefreshEachRequest: true})
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", Options{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestDerivedKeysDiffer(t *testing.T) {
	k, err := deriveKeys("secret")
	require.NoError(t, err)
	assert.Len(t, k.sign, keySize)
	assert.NotEqual(t, k.sign, k.encrypt)

	raw, err := base64.StdEncoding.DecodeString(k.encodedEncryptionKey())
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := newManager(t)
	s := New()
	s.Establish("Alice", "CorrectHorse1")
	s.SetPreference(CircleSize, json.RawMessage(`50`))
	s.SetPreference(OSRMURL, json.RawMessage(`"http://osrm.local"`))

	tok, err := m.Encode(s)
	require.NoError(t, err)

	got, err := m.Decode(tok)
	require.NoError(t, err)
	creds, ok := got.Credentials()
	require.True(t, ok)
	assert.Equal(t, "Alice", creds.Username)
	assert.Equal(t, "CorrectHorse1", creds.Password)
	assert.Equal(t, `50`, string(got.Preferences().CircleSize))
	assert.Equal(t, "http://osrm.local", got.OSRMBaseURL())
	assert.True(t, got.Permanent())
}

func TestDecodeRejectsTamperingAndExpiry(t *testing.T) {
	m := newManager(t)
	s := New()
	s.Establish("alice", "pw")
	tok, err := m.Encode(s)
	require.NoError(t, err)

	other, err := NewManager("different-secret", Options{})
	require.NoError(t, err)
	got, err := other.Decode(tok)
	assert.Error(t, err)
	_, ok := got.Credentials()
	assert.False(t, ok)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	_, err = m.Decode(parts[0] + "." + parts[1] + ".AAAA")
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Decode(tok)
	assert.Error(t, err)
}

func TestHalfPairIsAnonymous(t *testing.T) {
	m := newManager(t)
	s := &Session{username: "alice", permanent: true}
	tok, err := m.Encode(s)
	require.NoError(t, err)

	got, err := m.Decode(tok)
	require.NoError(t, err)
	_, ok := got.Credentials()
	assert.False(t, ok)
	assert.Empty(t, got.Username())
}

func TestClearDropsEverything(t *testing.T) {
	s := New()
	s.Establish("alice", "pw")
	s.SetPreference(CircleSize, json.RawMessage(`10`))
	s.Clear()

	_, ok := s.Credentials()
	assert.False(t, ok)
	assert.Nil(t, s.Preferences().CircleSize)
	assert.True(t, s.Empty())
}

func TestSetPreferenceNullUnsets(t *testing.T) {
	s := New()
	s.SetPreference(OSRMURL, json.RawMessage(`"http://x"`))
	s.SetPreference(OSRMURL, json.RawMessage(`null`))
	assert.Nil(t, s.Preferences().OSRMURL)

	s.SetPreference(OSRMURL, json.RawMessage(`42`))
	assert.Empty(t, s.OSRMBaseURL(), "non-string override is ignored")
}

// app wires the middleware with two routes that mutate the session.
func app(m *Manager) *fiber.App {
	a := fiber.New()
	a.Use(m.Middleware())
	a.Post("/login", func(c *fiber.Ctx) error {
		FromCtx(c).Establish("alice", "pw")
		return c.SendStatus(http.StatusNoContent)
	})
	a.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(FromCtx(c).Username())
	})
	a.Get("/out", func(c *fiber.Ctx) error {
		FromCtx(c).Clear()
		return c.SendStatus(http.StatusNoContent)
	})
	return a
}

func sessionCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestMiddlewareLifecycle(t *testing.T) {
	m := newManager(t)
	a := app(m)

	resp, err := a.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	ck := sessionCookie(t, resp, "session")
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, int(time.Hour/time.Second), ck.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: ck.Value})
	resp, err = a.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(body))
	assert.NotNil(t, sessionCookie(t, resp, "session"), "permanent session is refreshed")

	req = httptest.NewRequest(http.MethodGet, "/out", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: ck.Value})
	resp, err = a.Test(req)
	require.NoError(t, err)
	cleared := sessionCookie(t, resp, "session")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))
}

func TestMiddlewareAnonymousWritesNothing(t *testing.T) {
	a := app(newManager(t))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	resp, err := a.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, string(body))
	assert.Nil(t, sessionCookie(t, resp, "session"))
}
