package owntracks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", AuthTimeout: 2 * time.Second}, srv.Client())
}

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   Verdict
	}{
		{"ok", http.StatusOK, Accepted},
		{"forbidden", http.StatusForbidden, Rejected},
		{"unauthorized", http.StatusUnauthorized, Rejected},
		{"server error", http.StatusBadGateway, Rejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, pathLast, r.URL.Path)
				u, p, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "alice", u)
				assert.Equal(t, "pw", p)
				w.WriteHeader(tc.status)
			})
			res := c.ValidateLogin(context.Background(), Credentials{Username: "alice", Password: "pw"})
			assert.Equal(t, tc.want, res.Verdict)
			assert.Equal(t, tc.status, res.Status)
		})
	}
}

func TestValidateLoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: base}, http.DefaultClient)
	res := c.ValidateLogin(context.Background(), Credentials{Username: "a", Password: "b"})
	assert.Equal(t, Unreachable, res.Verdict)
	assert.ErrorIs(t, res.Cause, ErrUnreachable)
}

func TestValidateLoginTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	c := NewClient(Config{BaseURL: srv.URL, AuthTimeout: 50 * time.Millisecond}, srv.Client())
	res := c.ValidateLogin(context.Background(), Credentials{Username: "a", Password: "b"})
	assert.Equal(t, Unreachable, res.Verdict)
}

func TestRegisterPassesThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathRegister, r.URL.Path)
		_, _, hasAuth := r.BasicAuth()
		assert.False(t, hasAuth)

		var got accountPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, accountPayload{Username: "bob", Password: "ValidPass123"}, got)

		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"User already exists"}`)
	})

	pt, err := c.Register(context.Background(), Credentials{Username: "bob", Password: "ValidPass123"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, pt.Status)
	assert.JSONEq(t, `{"error":"User already exists"}`, string(pt.Body))
}

func TestDeleteAccountMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathDelete, r.URL.Path)
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.DeleteAccount(context.Background(), Credentials{Username: "bob", Password: "x"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestLocations(t *testing.T) {
	const geo = `{"type":"FeatureCollection","features":[]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathLocations, r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("user"))
		assert.Equal(t, "geojson", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, geo)
	})

	q := url.Values{"user": {"alice"}, "format": {"geojson"}}
	body, err := c.Locations(context.Background(), Credentials{Username: "alice", Password: "pw"}, q)
	require.NoError(t, err)
	assert.JSONEq(t, geo, string(body))
}

func TestLocationsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"internal":"details"}`)
	})

	_, err := c.Locations(context.Background(), Credentials{Username: "a", Password: "b"}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestLastPositions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"username":"alice","device":"phone"},{"username":"bob","device":"car"}]`)
	})

	entries, err := c.LastPositions(context.Background(), Credentials{Username: "a", Password: "b"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"username":"bob","device":"car"}`, string(entries[1]))
}
