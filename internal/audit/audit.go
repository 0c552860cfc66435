// Package audit records security-relevant account events. Events go to
// RabbitMQ and Elasticsearch when those are configured; delivery happens
// off the request path and failures are only logged.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/metrics"
)

var log = logx.GetScope("audit")

// Type doubles as the RabbitMQ routing key.
type Type string

const (
	LoginSucceeded    Type = "login.succeeded"
	LoginRejected     Type = "login.rejected"
	AccountRegistered Type = "account.registered"
	AccountDeleted    Type = "account.deleted"
	SessionSignedOut  Type = "session.signed_out"
)

// Event never carries a password.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Username  string         `json:"username"`
	RemoteIP  string         `json:"remote_ip,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	At        time.Time      `json:"at"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Publisher is satisfied by *mqx.RabbitPublisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Indexer is satisfied by *esx.Indexer.
type Indexer interface {
	IndexEvent(ctx context.Context, id string, doc any) error
}

// maxInFlight bounds deliveries waiting on slow sinks.
const maxInFlight = 64

// Recorder fans events out to the configured sinks in the background.
type Recorder struct {
	pub     Publisher
	idx     Indexer
	timeout time.Duration
	now     func() time.Time

	slots chan struct{}
	wg    sync.WaitGroup
}

// NewRecorder accepts nil sinks; with neither it only logs.
func NewRecorder(pub Publisher, idx Indexer) *Recorder {
	return &Recorder{
		pub:     pub,
		idx:     idx,
		timeout: 2 * time.Second,
		now:     time.Now,
		slots:   make(chan struct{}, maxInFlight),
	}
}

// Record fills in ID and At when unset and hands ev to the sinks without
// waiting for them. Both sinks share one deadline. When too many
// deliveries are pending the event is dropped.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = r.now().UTC()
	}
	log.Debug("audit event",
		zap.String("type", string(ev.Type)),
		zap.String("user", ev.Username),
		zap.String("id", ev.ID))

	if r.pub == nil && r.idx == nil {
		metrics.AuditEvents.WithLabelValues(string(ev.Type), "skipped").Inc()
		return
	}

	select {
	case r.slots <- struct{}{}:
	default:
		metrics.AuditEvents.WithLabelValues(string(ev.Type), "dropped").Inc()
		log.Warn("audit backlog full; event dropped",
			zap.String("type", string(ev.Type)),
			zap.String("id", ev.ID))
		return
	}
	r.wg.Add(1)
	go func() {
		defer func() {
			<-r.slots
			r.wg.Done()
		}()
		r.deliver(context.WithoutCancel(ctx), ev)
	}()
}

func (r *Recorder) deliver(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result := "delivered"
	if r.pub != nil {
		body, err := json.Marshal(ev)
		if err == nil {
			err = r.pub.Publish(ctx, string(ev.Type), body)
		}
		if err != nil {
			result = "failed"
			log.Warn("publish audit event", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}
	if r.idx != nil {
		if err := r.idx.IndexEvent(ctx, ev.ID, ev); err != nil {
			result = "failed"
			log.Warn("index audit event", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}
	metrics.AuditEvents.WithLabelValues(string(ev.Type), result).Inc()
}

// Drain waits for pending deliveries or until ctx is done.
func (r *Recorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
