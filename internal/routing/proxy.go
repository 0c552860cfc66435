// Package routing forwards directions requests to an OSRM server that is
// only reachable over plain HTTP, so browsers on HTTPS pages can use it.
package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/upstream"
)

var log = logx.GetScope("routing")

const (
	routePrefix     = "/route/v1/"
	legacyOverview  = "?overview=false"
	maxRouteBodyLen = 16 << 20
)

var (
	// ErrMissingCoords is returned when the request has no coords parameter.
	ErrMissingCoords = errors.New("routing: coords parameter required")
	// ErrUnreachable covers transport errors, an open breaker and non-JSON answers.
	ErrUnreachable = errors.New("routing: backend unreachable")
)

// BuildTarget joins base and coords into an OSRM route URL. The first
// character of coords is always dropped: the map UI prefixes it with a
// separator. A URL ending in "?overview=false" has every occurrence of
// that fragment removed.
func BuildTarget(base, coords string) string {
	_, size := utf8.DecodeRuneInString(coords)
	coords = coords[size:]
	target := base + routePrefix + coords
	if strings.HasSuffix(target, legacyOverview) {
		target = strings.ReplaceAll(target, legacyOverview, "")
	}
	return target
}

// Request is one proxied route lookup.
type Request struct {
	// Override is the osrmURL query parameter.
	Override string
	// SessionURL is the osrmURL preference stored in the session.
	SessionURL string
	Coords     string
	HasCoords  bool
}

type Proxy struct {
	doer       upstream.Doer
	defaultURL string
	timeout    time.Duration
}

func NewProxy(doer upstream.Doer, defaultURL string, timeout time.Duration) *Proxy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Proxy{doer: doer, defaultURL: defaultURL, timeout: timeout}
}

// BaseURL picks the query override, then the session preference, then
// the configured default.
func (p *Proxy) BaseURL(r Request) string {
	switch {
	case r.Override != "":
		return r.Override
	case r.SessionURL != "":
		return r.SessionURL
	default:
		return p.defaultURL
	}
}

// Route makes a single GET to the routing backend and returns its JSON
// body unchanged. The backend status is not inspected.
func (p *Proxy) Route(ctx context.Context, r Request) (json.RawMessage, error) {
	if !r.HasCoords {
		return nil, ErrMissingCoords
	}
	target := BuildTarget(p.BaseURL(r), r.Coords)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.doer.Do(req)
	if err != nil {
		log.Error("proxy: routing backend failed", zap.String("target", target), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRouteBodyLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !json.Valid(body) {
		log.Error("proxy: routing backend returned non-JSON",
			zap.String("target", target),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: non-JSON body with status %d", ErrUnreachable, resp.StatusCode)
	}
	log.Debug("proxy: routed", zap.String("target", target), zap.Int("status", resp.StatusCode))
	return body, nil
}
