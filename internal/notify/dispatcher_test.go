package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// recordingSink captures delivered events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Deliver(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 8, zerolog.Nop())

	d.Publish(Event{Kind: KindThresholdReached, Barcode: "a"})
	d.Publish(Event{Kind: KindUrgencyEscalated, Barcode: "a", Tier: "trending"})
	d.Publish(Event{Kind: KindQueuePositionJump, Barcode: "b", FromPosition: 9, ToPosition: 2})
	d.Close()

	got := sink.all()
	if len(got) != 3 {
		t.Fatalf("want 3 delivered, got %d", len(got))
	}
	if got[0].Kind != KindThresholdReached || got[2].Barcode != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	// A sink that parks forever would deadlock Publish if it blocked.
	block := make(chan struct{})
	sink := sinkFunc(func(context.Context, Event) error {
		<-block
		return nil
	})
	d := NewDispatcher(sink, 1, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Publish(Event{Kind: KindThresholdReached, Barcode: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow sink")
	}
	close(block)
	d.Close()
}

func TestDispatcher_DeliveryErrorIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("smtp down")}
	d := NewDispatcher(sink, 4, zerolog.Nop())
	d.Publish(Event{Kind: KindThresholdReached, Barcode: "a"})
	d.Close() // must not panic or hang

	if len(sink.all()) != 1 {
		t.Fatal("event not handed to sink")
	}
}

func TestDispatcher_CloseIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, 1, zerolog.Nop())
	d.Close()
	d.Close() // second close must be a no-op
}

// sinkFunc adapts a function to the Sink interface.
type sinkFunc func(context.Context, Event) error

func (f sinkFunc) Deliver(ctx context.Context, ev Event) error { return f(ctx, ev) }
