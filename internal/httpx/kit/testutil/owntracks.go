package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// OwnTracks is an in-memory stand-in for the location backend. Accounts
// map usernames to passwords; Devices is served from /api/0/last to any
// valid account.
type OwnTracks struct {
	*httptest.Server

	// DenyStatus answers bad credentials on authenticated reads (401 if zero).
	DenyStatus int
	Devices    []map[string]any
	Locations  json.RawMessage

	mu        sync.Mutex
	accounts  map[string]string
	lastQuery url.Values
}

// NewOwnTracks starts a backend that knows the given accounts and closes
// it with the test.
func NewOwnTracks(t *testing.T, accounts map[string]string) *OwnTracks {
	t.Helper()
	ot := &OwnTracks{
		accounts:  map[string]string{},
		Locations: json.RawMessage(`{"type":"FeatureCollection","features":[]}`),
	}
	for u, p := range accounts {
		ot.accounts[u] = p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/0/last", ot.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ot.Devices)
	}))
	mux.HandleFunc("/api/0/locations", ot.authed(func(w http.ResponseWriter, r *http.Request) {
		ot.mu.Lock()
		ot.lastQuery = r.URL.Query()
		ot.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(ot.Locations)
	}))
	mux.HandleFunc("/api/register", ot.register)
	mux.HandleFunc("/api/delete-account", ot.deleteAccount)

	ot.Server = httptest.NewServer(mux)
	t.Cleanup(ot.Server.Close)
	return ot
}

// HasAccount reports whether username is registered.
func (ot *OwnTracks) HasAccount(username string) bool {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	_, ok := ot.accounts[username]
	return ok
}

// LastQuery returns the query string of the latest locations read.
func (ot *OwnTracks) LastQuery() url.Values {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	return ot.lastQuery
}

func (ot *OwnTracks) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		ot.mu.Lock()
		want, known := ot.accounts[u]
		ot.mu.Unlock()
		if !ok || !known || want != p {
			status := ot.DenyStatus
			if status == 0 {
				status = http.StatusUnauthorized
			}
			w.WriteHeader(status)
			return
		}
		next(w, r)
	}
}

type accountBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ot *OwnTracks) register(w http.ResponseWriter, r *http.Request) {
	var body accountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	ot.mu.Lock()
	defer ot.mu.Unlock()
	if _, exists := ot.accounts[body.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "User already exists"})
		return
	}
	ot.accounts[body.Username] = body.Password
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

func (ot *OwnTracks) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var body accountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	ot.mu.Lock()
	defer ot.mu.Unlock()
	if want, ok := ot.accounts[body.Username]; !ok || want != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}
	delete(ot.accounts, body.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
