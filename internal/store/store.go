// internal/store/store.go
package store

import (
	"log/slog"
	"sync"
)

// Listener observes every applied event together with the state it produced.
type Listener func(ev Event, st State)

// Filter runs before the reducer and drops the event when it returns false.
type Filter func(ev Event, st State) bool

// Store is the single authoritative container for State.
// Events are applied strictly in the order they were dispatched. A listener may
// dispatch; the nested event is applied once the current one has been delivered.
type Store struct {
	mu        sync.Mutex
	state     State
	queue     []Event
	draining  bool
	nextID    int
	listeners []listenerEntry
	filters   []filterEntry
	logger    *slog.Logger
}

type listenerEntry struct {
	id int
	fn Listener
}

type filterEntry struct {
	id int
	fn Filter
}

// New creates a Store holding InitialState.
func New(logger *slog.Logger) *Store {
	return &Store{
		state:  InitialState(),
		logger: logger,
	}
}

// State returns the current snapshot. Snapshots must be treated as read-only.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a function that removes it.
// Listeners are called in registration order.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Use registers f and returns a function that removes it.
// Filters run in registration order and stop at the first one that drops the event.
func (s *Store) Use(f Filter) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.filters = append(s.filters, filterEntry{id: id, fn: f})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.filters {
			if e.id == id {
				s.filters = append(s.filters[:i:i], s.filters[i+1:]...)
				return
			}
		}
	}
}

// Dispatch enqueues ev. If no other goroutine is applying events, the caller
// applies the whole queue before returning.
func (s *Store) Dispatch(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
}

func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		prev := s.state
		filters := make([]Filter, len(s.filters))
		for i, f := range s.filters {
			filters[i] = f.fn
		}
		s.mu.Unlock()

		if !accept(filters, ev, prev) {
			s.logger.Debug("Event dropped by filter", "event", ev.Type())
			continue
		}

		next := Reduce(prev, ev)

		s.mu.Lock()
		s.state = next
		listeners := make([]Listener, len(s.listeners))
		for i, l := range s.listeners {
			listeners[i] = l.fn
		}
		s.mu.Unlock()

		for _, l := range listeners {
			s.deliver(l, ev, next)
		}
	}
}

func accept(filters []Filter, ev Event, st State) bool {
	for _, f := range filters {
		if !f(ev, st) {
			return false
		}
	}
	return true
}

func (s *Store) deliver(l Listener, ev Event, st State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Store listener panicked", "event", ev.Type(), "panic", r)
		}
	}()
	l(ev, st)
}
