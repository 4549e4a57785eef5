// Package events is the change notification bus. Every successful write
// through the persistence adapter publishes a typed event naming what
// changed, so subscribers can refetch selectively.
package events

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/metrics"
)

var logg = logger.New()

type Signal string

const (
	DataChanged  Signal = "data_changed"
	SessionEnded Signal = "session_ended"
)

type Kind string

const (
	KindUser       Kind = "user"
	KindPost       Kind = "post"
	KindComment    Kind = "comment"
	KindFollow     Kind = "follow"
	KindLike       Kind = "like"
	KindBookmark   Kind = "bookmark"
	KindSession    Kind = "session"
	KindSuggestion Kind = "suggestion"
	KindSeed       Kind = "seed"
)

// Ref names the entity a write touched.
type Ref struct {
	Kind      Kind
	ID        string
	SessionID string
}

type Event struct {
	Signal    Signal    `json:"signal"`
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	At        time.Time `json:"at"`

	// Remote is set on events that arrived from another process.
	Remote bool `json:"-"`
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	Signals []Signal
	Kinds   []Kind
}

func (f Filter) Match(e Event) bool {
	if len(f.Signals) > 0 && !slices.Contains(f.Signals, e.Signal) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	return true
}

type Handler func(Event)

type subscription struct {
	id      uint64
	filter  Filter
	handler Handler
	active  atomic.Bool
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID uint64
	origin string
	now    func() time.Time
}

// NewBus creates a bus whose locally published events carry origin.
func NewBus(origin string) *Bus {
	return &Bus{
		origin: origin,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Origin identifies this process on events that leave it.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers h for events matching f. The returned function
// removes the subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(f Filter, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	s := &subscription{id: b.nextID, filter: f, handler: h}
	s.active.Store(true)
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return func() {
		if !s.active.CompareAndSwap(true, false) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(o *subscription) bool { return o.id == s.id })
	}
}

// Publish delivers e to every matching subscriber.
func (b *Bus) Publish(e Event) {
	if e.Origin == "" {
		e.Origin = b.origin
	}
	if e.At.IsZero() {
		e.At = b.now()
	}
	metrics.EventsPublished.WithLabelValues(string(e.Signal), string(e.Kind)).Inc()

	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.active.Load() || !s.filter.Match(e) {
			continue
		}
		b.deliver(s, e)
	}
}

// Changed publishes a DataChanged event for ref.
func (b *Bus) Changed(ref Ref) {
	b.Publish(Event{Signal: DataChanged, Kind: ref.Kind, ID: ref.ID, SessionID: ref.SessionID})
}

// Ended publishes a SessionEnded event for a session.
func (b *Bus) Ended(sessionID string) {
	b.Publish(Event{Signal: SessionEnded, Kind: KindSession, ID: sessionID, SessionID: sessionID})
}

func (b *Bus) deliver(s *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logg.Error("events", "Subscriber panicked", fmt.Errorf("%v", r))
		}
	}()
	s.handler(e)
}

// Stream returns a channel receiving events matching f until ctx ends.
// A full buffer drops the new event instead of blocking the publisher.
func (b *Bus) Stream(ctx context.Context, f Filter, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	var mu sync.Mutex
	closed := false

	unsubscribe := b.Subscribe(f, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			metrics.EventsDropped.Inc()
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
