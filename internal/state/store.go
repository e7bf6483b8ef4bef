package state

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when dispatching to a closed Store.
var ErrClosed = errors.New("state: store closed")

type dispatch struct {
	action Action
	reply  chan State
}

// Store serialises every state change through one goroutine.
type Store struct {
	actions   chan dispatch
	reads     chan chan State
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	final     State
}

// NewStore starts a store holding initial.
func NewStore(initial State) *Store {
	s := &Store{
		actions: make(chan dispatch),
		reads:   make(chan chan State),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop(initial)
	return s
}

func (s *Store) loop(current State) {
	defer close(s.stopped)
	for {
		select {
		case d := <-s.actions:
			current = Reduce(current, d.action)
			d.reply <- current
		case r := <-s.reads:
			r <- current
		case <-s.done:
			s.final = current
			return
		}
	}
}

// Dispatch reduces a and returns the resulting state.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	d := dispatch{action: a, reply: make(chan State, 1)}
	select {
	case s.actions <- d:
	case <-s.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	return <-d.reply, nil
}

// Snapshot returns the current state, or the last state once closed.
func (s *Store) Snapshot() State {
	r := make(chan State, 1)
	select {
	case s.reads <- r:
		return <-r
	case <-s.done:
		<-s.stopped
		return s.final
	}
}

// Close stops the store goroutine and waits for it to exit.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}
