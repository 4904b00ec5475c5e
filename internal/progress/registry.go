package progress

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the queue size used when Subscribe is given none.
const DefaultCapacity = 1024

// ErrClosed is returned by Next once a drained subscription is closed.
var ErrClosed = errors.New("subscription closed")

// Registry fans events out to subscribers. Each subscriber has its own
// bounded queue that drops its oldest event on overflow, so Publish never
// blocks on a slow or absent reader.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscription)}
}

// Subscribe registers id with a queue of capacity events. An existing
// subscription with the same id is closed and replaced.
func (r *Registry) Subscribe(id string, capacity int) *Subscription {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Subscription{
		id:     id,
		buf:    make([]Event, capacity),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	old := r.subs[id]
	r.subs[id] = s
	r.mu.Unlock()

	if old != nil {
		old.close()
	}
	return s
}

// Unsubscribe removes and closes the subscription for id.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	s := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()

	if s != nil {
		s.close()
	}
}

// Publish delivers ev to every subscriber without blocking.
func (r *Registry) Publish(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		s.push(ev)
	}
}

// Close closes every subscription. Readers still receive queued events.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[string]*Subscription)
	r.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// Len returns the number of active subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Subscription is one subscriber's ring queue.
type Subscription struct {
	id string

	mu      sync.Mutex
	buf     []Event
	head    int
	size    int
	dropped uint64
	closed  bool

	notify chan struct{}
	done   chan struct{}
}

// ID returns the subscriber identity.
func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.size == len(s.buf) {
		s.head = (s.head + 1) % len(s.buf)
		s.size--
		s.dropped++
	}
	s.buf[(s.head+s.size)%len(s.buf)] = ev
	s.size++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (Event, bool) {
	if s.size == 0 {
		return nil, false
	}
	ev := s.buf[s.head]
	s.buf[s.head] = nil
	s.head = (s.head + 1) % len(s.buf)
	s.size--
	return ev, true
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Drain returns every queued event in order and empties the queue.
func (s *Subscription) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, s.size)
	for {
		ev, ok := s.pop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

// Next blocks until an event is queued, the subscription is closed and
// empty (ErrClosed), or ctx is done.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		ev, ok := s.pop()
		closed := s.closed
		s.mu.Unlock()
		if ok {
			return ev, nil
		}
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		case <-s.done:
		}
	}
}

// Dropped returns how many events were discarded on overflow.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Len returns the number of queued events.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
