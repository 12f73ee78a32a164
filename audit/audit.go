// Package audit records an append-only trail of auth protocol events:
// logins, session token mints, and both phases of a permission grant.
//
// Emission is asynchronous. Events are queued onto a buffered channel and
// dispatched to the configured handlers on a single background goroutine,
// so handlers never run on the request path and never need their own
// locking. Close drains the queue before returning.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	authcore "github.com/chimerakang/authcore-go"
)

// Action identifies the protocol step an event records.
type Action string

const (
	ActionLogin       Action = "login"
	ActionTokenMint   Action = "token_mint"
	ActionGrantIssue  Action = "grant_issue"
	ActionGrantRedeem Action = "grant_redeem"
)

// Event outcomes.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultFailure = "failure"
)

// Event is one entry in the audit trail. Subject is the open_id of the
// acting user, when known.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Action    Action    `json:"action"`
	Result    string    `json:"result"`
	Details   string    `json:"details,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ForUser builds an event attributed to the snapshot's subject. A nil
// snapshot yields an unattributed event.
func ForUser(action Action, result string, user *authcore.UserSnapshot) Event {
	e := Event{Action: action, Result: result}
	if user != nil {
		e.Subject = user.OpenID
	}
	return e
}

// Handler consumes events. Handlers run on the trail's dispatch goroutine
// and should not block.
type Handler func(Event)

// Trail is an asynchronous audit event sink.
type Trail struct {
	handlers []Handler
	queue    chan Event
	quit     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Option configures a Trail.
type Option func(*Trail)

// WithHandler adds an event handler.
func WithHandler(h Handler) Option {
	return func(t *Trail) { t.handlers = append(t.handlers, h) }
}

// WithStdoutHandler adds a handler writing one JSON line per event to stdout.
func WithStdoutHandler() Option {
	enc := json.NewEncoder(os.Stdout)
	return WithHandler(func(e Event) {
		_ = enc.Encode(e)
	})
}

// WithSlogHandler adds a handler forwarding events to a structured logger.
func WithSlogHandler(l *slog.Logger) Option {
	return WithHandler(func(e Event) {
		l.Info("audit",
			"action", string(e.Action),
			"result", e.Result,
			"subject", e.Subject,
			"details", e.Details,
		)
	})
}

// New creates an audit trail with the given queue capacity. A capacity at
// or below zero falls back to 1000.
func New(capacity int, opts ...Option) *Trail {
	if capacity <= 0 {
		capacity = 1000
	}
	t := &Trail{
		queue: make(chan Event, capacity),
		quit:  make(chan struct{}),
	}
	for _, o := range opts {
		o(t)
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Emit queues an event without blocking the caller. Events emitted after
// Close are dropped; the Timestamp is filled in if unset.
func (t *Trail) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case t.queue <- e:
	case <-t.quit:
	}
}

func (t *Trail) run() {
	defer t.wg.Done()
	for {
		select {
		case e := <-t.queue:
			t.dispatch(e)
		case <-t.quit:
			// Drain whatever was queued before Close.
			for {
				select {
				case e := <-t.queue:
					t.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (t *Trail) dispatch(e Event) {
	for _, h := range t.handlers {
		h(e)
	}
}

// Close flushes queued events and stops the trail. Safe to call more than
// once.
func (t *Trail) Close() error {
	t.once.Do(func() { close(t.quit) })
	t.wg.Wait()
	return nil
}

type ctxKey string

const (
	ctxKeyTrail     ctxKey = "audit_trail"
	ctxKeyRequestID ctxKey = "audit_request_id"
)

// WithContext stores the trail in the context.
func WithContext(ctx context.Context, t *Trail) context.Context {
	return context.WithValue(ctx, ctxKeyTrail, t)
}

// FromContext extracts the trail from the context, or nil.
func FromContext(ctx context.Context) *Trail {
	t, _ := ctx.Value(ctxKeyTrail).(*Trail)
	return t
}

// WithRequestID stores a request correlation id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestID extracts the request correlation id from the context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
