package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"govnet/pkg/platform/circuit"
	"govnet/pkg/requestcontext"
)

var (
	// ErrBufferFull is returned when the async buffer cannot accept an event.
	ErrBufferFull = errors.New("event buffer full")
	// ErrSinkUnavailable is returned while the sink's circuit is open.
	ErrSinkUnavailable = errors.New("event sink unavailable")
)

// Sink receives events after they are logged.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher logs every event and forwards it to an optional sink.
type Publisher struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger

	buffer chan Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets the audit logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSink forwards events to sink after logging them.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithBreaker skips the sink while it keeps failing. Events are still
// written to the audit log.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// WithAsyncBuffer makes sink delivery asynchronous through a bounded buffer.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan Event, size)
		}
	}
}

// NewPublisher creates a publisher. Without a sink it only logs.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil && p.sink != nil {
		p.wg.Add(1)
		go p.drain()
	} else {
		p.buffer = nil
	}
	return p
}

// Emit records event. The audit log line is always written; sink failures
// in sync mode are returned, in async mode a full buffer returns ErrBufferFull.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	p.log(ctx, event)

	if p.sink == nil {
		return nil
	}
	if p.buffer == nil {
		return p.forward(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.forward(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Close stops accepting async events and drains the buffer.
func (p *Publisher) Close() error {
	if p == nil || p.buffer == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.forward(ctx, event); err != nil {
			p.logger.Error("failed to forward governance event",
				"event", string(event.Type),
				"client_id", event.ClientID.String(),
				"error", err,
			)
		}
		cancel()
	}
}

func (p *Publisher) forward(ctx context.Context, event Event) error {
	if p.breaker == nil {
		return p.sink.Publish(ctx, event)
	}
	if !p.breaker.Allow() {
		return ErrSinkUnavailable
	}
	if err := p.sink.Publish(ctx, event); err != nil {
		if p.breaker.RecordFailure() {
			p.logger.WarnContext(ctx, "event sink circuit opened", "sink", p.breaker.Name(), "error", err)
		}
		return err
	}
	p.breaker.RecordSuccess()
	return nil
}

func (p *Publisher) log(ctx context.Context, event Event) {
	attrs := []any{
		"log_type", "audit",
		"event", string(event.Type),
		"request_id", event.RequestID,
	}
	if !event.ClientID.IsNil() {
		attrs = append(attrs, "client_id", event.ClientID.String())
	}
	if !event.StewardID.IsNil() {
		attrs = append(attrs, "steward_id", event.StewardID.String())
	}
	if !event.RegistrationID.IsNil() {
		attrs = append(attrs, "registration_id", event.RegistrationID.String())
	}
	if event.Outcome != "" {
		attrs = append(attrs, "outcome", event.Outcome)
	}
	if event.Trigger != "" {
		attrs = append(attrs, "trigger", event.Trigger)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	p.logger.InfoContext(ctx, string(event.Type), attrs...)
}
