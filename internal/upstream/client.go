// Package upstream is the shared outbound HTTP client for backend calls.
// Each backend gets its own client and circuit breaker so an unreachable
// routing server never trips calls to the location backend.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/metrics"
)

var log = logx.GetScope("upstream")

// ErrCircuitOpen is returned without contacting the backend while its
// breaker is open.
var ErrCircuitOpen = errors.New("circuit open")

// Doer sends one HTTP request. *http.Client and *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BreakerConfig controls when a backend is considered down.
type BreakerConfig struct {
	Enable      bool
	MaxFailures int
	OpenTimeout time.Duration
}

// maxHostBreakers bounds the per-host breaker table. Hosts come from
// client input, so the table cannot grow without limit.
const maxHostBreakers = 256

// Client wraps an *http.Client with a breaker and per-backend metrics.
// HTTP status codes are never failures; only transport errors are.
type Client struct {
	name    string
	http    *http.Client
	cfg     BreakerConfig
	perHost bool
	cb      *gobreaker.CircuitBreaker[*http.Response]

	mu    sync.Mutex
	hosts map[string]*gobreaker.CircuitBreaker[*http.Response]
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// PerHost gives every target host its own breaker. Use it when the
// target comes from client input: a dead host then only trips itself.
func PerHost() Option {
	return func(c *Client) { c.perHost = true }
}

// New builds the client for the backend called name. Deadlines come from
// each request's context rather than a client-wide timeout.
func New(name string, cfg BreakerConfig, opts ...Option) *Client {
	c := &Client{
		name: name,
		cfg:  cfg,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	if !cfg.Enable {
		return c
	}

	if c.perHost {
		c.hosts = make(map[string]*gobreaker.CircuitBreaker[*http.Response])
		return c
	}
	c.cb = c.newBreaker(name, func(to gobreaker.State) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
	})
	return c
}

func (c *Client) newBreaker(name string, onState func(gobreaker.State)) *gobreaker.CircuitBreaker[*http.Response] {
	maxFailures := uint32(max(c.cfg.MaxFailures, 1))
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     c.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if onState != nil {
				onState(to)
			}
		},
	})
}

// breakerFor returns the breaker guarding host, or nil when requests to
// it go unguarded.
func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker[*http.Response] {
	if !c.perHost {
		return c.cb
	}
	if !c.cfg.Enable {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.hosts[host]; ok {
		return cb
	}
	if len(c.hosts) >= maxHostBreakers {
		// closed breakers hold nothing worth keeping
		for h, cb := range c.hosts {
			if cb.State() == gobreaker.StateClosed {
				delete(c.hosts, h)
			}
		}
		if len(c.hosts) >= maxHostBreakers {
			return nil
		}
	}
	cb := c.newBreaker(c.name+"@"+host, nil)
	c.hosts[host] = cb
	return cb
}

// Name returns the backend label used in logs and metrics.
func (c *Client) Name() string { return c.name }

// State reports the breaker state; always closed when breaking is off.
// With PerHost use StateOf.
func (c *Client) State() gobreaker.State {
	if c.cb == nil {
		return gobreaker.StateClosed
	}
	return c.cb.State()
}

// StateOf reports the state of the breaker guarding host.
func (c *Client) StateOf(host string) gobreaker.State {
	if !c.perHost {
		return c.State()
	}
	c.mu.Lock()
	cb, ok := c.hosts[host]
	c.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

// Do sends req once. There are no retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var (
		resp *http.Response
		err  error
	)
	if cb := c.breakerFor(req.URL.Host); cb == nil {
		resp, err = c.http.Do(req)
	} else {
		resp, err = cb.Execute(func() (*http.Response, error) {
			return c.http.Do(req)
		})
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ObserveUpstream(c.name, metrics.OutcomeRejected, time.Since(start))
		return nil, fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	case err != nil:
		metrics.ObserveUpstream(c.name, metrics.OutcomeError, time.Since(start))
		return nil, err
	case resp.StatusCode >= 400:
		metrics.ObserveUpstream(c.name, metrics.OutcomeStatusError, time.Since(start))
	default:
		metrics.ObserveUpstream(c.name, metrics.OutcomeOK, time.Since(start))
	}
	return resp, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
