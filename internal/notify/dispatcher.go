package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives events from the dispatcher. Implementations deliver them to
// push/email infrastructure; failures are theirs to handle and are only
// logged here.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// LogSink writes every event to a structured log. It is the default sink in
// deployments where delivery is handled by a log-tailing collaborator, and a
// convenient stand-in for local development.
type LogSink struct {
	Log zerolog.Logger
}

// Deliver implements Sink.
func (s LogSink) Deliver(_ context.Context, ev Event) error {
	s.Log.Info().
		Str("kind", ev.Kind).
		Str("barcode", ev.Barcode).
		Str("tier", ev.Tier).
		Float64("weighted_total", ev.WeightedTotal).
		Int("from_position", ev.FromPosition).
		Int("to_position", ev.ToPosition).
		Time("at", ev.At).
		Msg("demand transition")
	return nil
}

// Dispatcher fans engine events out to a Sink from a single background
// goroutine. Publish never blocks: when the buffer is full the event is
// dropped and counted in the log, which is acceptable because transition
// events are advisory notifications, not state.
type Dispatcher struct {
	sink Sink
	log  zerolog.Logger

	ch   chan Event
	wg   sync.WaitGroup
	once sync.Once
}

// NewDispatcher constructs a Dispatcher with the given buffer size and sink
// and starts its delivery goroutine. Buffer sizes below 1 are coerced to 1.
func NewDispatcher(sink Sink, buffer int, log zerolog.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		sink: sink,
		log:  log,
		ch:   make(chan Event, buffer),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Publish enqueues an event for delivery. It never blocks and never reports
// failure to the caller; a full buffer drops the event with a warning.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.ch <- ev:
	default:
		d.log.Warn().
			Str("kind", ev.Kind).
			Str("barcode", ev.Barcode).
			Msg("notification buffer full, event dropped")
	}
}

// Close stops accepting events, drains the buffer, and waits for the
// delivery goroutine to finish. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.ch) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.ch {
		if err := d.sink.Deliver(context.Background(), ev); err != nil {
			d.log.Error().
				Err(err).
				Str("kind", ev.Kind).
				Str("barcode", ev.Barcode).
				Msg("notification delivery failed")
		}
	}
}
