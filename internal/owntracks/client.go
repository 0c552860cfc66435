// Package owntracks talks to the location-tracking backend: credential
// probes, account registration and deletion, and location reads.
package owntracks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/upstream"
)

var log = logx.GetScope("owntracks")

const (
	pathLast      = "/api/0/last"
	pathLocations = "/api/0/locations"
	pathRegister  = "/api/register"
	pathDelete    = "/api/delete-account"

	maxBodyBytes = 32 << 20
)

var (
	// ErrUnreachable wraps transport failures, timeouts and an open breaker.
	ErrUnreachable = errors.New("owntracks: backend unreachable")
	// ErrMalformedResponse means the backend answered with a body that is not JSON.
	ErrMalformedResponse = errors.New("owntracks: malformed response")
)

// StatusError is a non-success answer to a data read.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("owntracks %s returned status %d", e.Endpoint, e.Status)
}

// Credentials are a backend username and password, sent as basic auth.
type Credentials struct {
	Username string
	Password string
}

// Verdict classifies a credential probe.
type Verdict int

const (
	Accepted Verdict = iota
	Rejected
	Unreachable
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// ValidationResult is the outcome of ValidateLogin. Status is set for
// Accepted and Rejected, Cause for Unreachable.
type ValidationResult struct {
	Verdict Verdict
	Status  int
	Cause   error
}

// PassThrough is a backend answer relayed to the caller unchanged.
type PassThrough struct {
	Status int
	Body   json.RawMessage
}

// Config for a Client.
type Config struct {
	BaseURL string
	// AuthTimeout bounds credential probes, registration and deletion.
	AuthTimeout time.Duration
	// Timeout bounds location reads.
	Timeout time.Duration
}

// Client calls the backend through doer.
type Client struct {
	baseURL     string
	doer        upstream.Doer
	authTimeout time.Duration
	timeout     time.Duration
}

func NewClient(cfg Config, doer upstream.Doer) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		doer:        doer,
		authTimeout: durationOr(cfg.AuthTimeout, 10*time.Second),
		timeout:     durationOr(cfg.Timeout, 30*time.Second),
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// ValidateLogin probes the cheapest authenticated endpoint with creds.
// The response body is discarded.
func (c *Client) ValidateLogin(ctx context.Context, creds Credentials) ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, pathLast, nil, nil, &creds)
	if err != nil {
		return ValidationResult{Verdict: Unreachable, Cause: err}
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return ValidationResult{Verdict: Rejected, Status: resp.StatusCode}
	}
	return ValidationResult{Verdict: Accepted, Status: resp.StatusCode}
}

// Register asks the backend to create an account. Any status is relayed.
func (c *Client) Register(ctx context.Context, creds Credentials) (*PassThrough, error) {
	return c.accountCall(ctx, pathRegister, creds)
}

// DeleteAccount asks the backend to delete an account. Any status is relayed.
func (c *Client) DeleteAccount(ctx context.Context, creds Credentials) (*PassThrough, error) {
	return c.accountCall(ctx, pathDelete, creds)
}

type accountPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) accountCall(ctx context.Context, path string, creds Credentials) (*PassThrough, error) {
	ctx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	payload, err := json.Marshal(accountPayload{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, payload, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	body, err := readJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &PassThrough{Status: resp.StatusCode, Body: body}, nil
}

// Locations fetches location history for creds. The GeoJSON body is
// returned as is.
func (c *Client) Locations(ctx context.Context, creds Credentials, query url.Values) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, pathLocations, query, nil, &creds)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: pathLocations, Status: resp.StatusCode}
	}
	return readJSON(resp)
}

// LastPositions fetches the last known position of every device visible
// to creds. Entries are kept opaque.
func (c *Client) LastPositions(ctx context.Context, creds Credentials) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, pathLast, nil, nil, &creds)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: pathLast, Status: resp.StatusCode}
	}
	var entries []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, creds *Credentials) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	return resp, nil
}

func readJSON(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !json.Valid(body) {
		return nil, ErrMalformedResponse
	}
	return json.RawMessage(body), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
}
