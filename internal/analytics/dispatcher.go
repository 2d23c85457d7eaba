package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sink receives tracked events.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Send(ctx context.Context, ev Event) error { return f(ctx, ev) }

// DispatcherDeps bundles constructor inputs for the dispatcher.
type DispatcherDeps struct {
	Sinks  []Sink
	Clock  func() time.Time
	Logger *zap.Logger
}

// Dispatcher fans each event out to every sink in order.
type Dispatcher struct {
	sinks  []Sink
	clock  func() time.Time
	logger *zap.Logger
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sinks := make([]Sink, 0, len(deps.Sinks))
	for _, s := range deps.Sinks {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return &Dispatcher{
		sinks:  sinks,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
	}
}

// Track stamps the event and delivers it to every sink. Sink errors and panics
// are logged and never stop delivery to the remaining sinks.
func (d *Dispatcher) Track(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = d.clock()
	}
	for _, s := range d.sinks {
		if err := d.send(ctx, s, ev); err != nil {
			d.logger.Warn("analytics: sink failed",
				zap.String("sink", fmt.Sprintf("%T", s)),
				zap.String("category", string(ev.Category)),
				zap.String("action", ev.Action),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, s Sink, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analytics: sink panic: %v", r)
		}
	}()
	return s.Send(ctx, ev)
}
