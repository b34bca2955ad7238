// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "sync"

// Subject is a hub that is simultaneously an Observer-like producer facade
// (Next/Error/Completed) and an Observable. All three subject flavors
// (PublishSubject, BehaviorSubject, ReplaySubject) implement it.
type Subject[T any] interface {
	// Observable returns the observable side of the hub.
	Observable() Observable[T]

	// Next multicasts v to every currently subscribed observer.
	Next(v T)

	// Error multicasts a terminal error. First-terminal-wins: once the
	// subject has seen a terminal event, later ones are discarded.
	Error(err error)

	// Completed multicasts a terminal completion. First-terminal-wins.
	Completed()
}

// deliverTerminal calls Error or Completed on o depending on whether err
// is non-nil, matching the subjects' single {None|Completed|Error} cache
// slot (spec §3, §9).
func deliverTerminal[T any](o *Observer[T], err error) {
	if err != nil {
		o.Error(err)
	} else {
		o.Completed()
	}
}

// PublishSubject multicasts every value it receives, live, to whichever
// observers are subscribed at the time. Observers subscribing after a
// value was published never see it.
type PublishSubject[T any] struct {
	mu          sync.Mutex
	observers   []*Observer[T]
	hasTerminal bool
	terminalErr error
}

// NewPublishSubject returns an empty PublishSubject.
func NewPublishSubject[T any]() *PublishSubject[T] {
	return &PublishSubject[T]{}
}

// Observable returns the subscribable side of the subject.
func (s *PublishSubject[T]) Observable() Observable[T] {
	return FuncObservable[T](s.subscribe)
}

func (s *PublishSubject[T]) subscribe(down *Observer[T]) {
	s.mu.Lock()
	if s.hasTerminal {
		err := s.terminalErr
		s.mu.Unlock()
		deliverTerminal(down, err)
		return
	}
	s.observers = append(s.observers, down)
	s.mu.Unlock()

	down.SetUpstream(NewDisposable(func() { s.remove(down) }))
}

func (s *PublishSubject[T]) remove(down *Observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == down {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Next snapshots the current observer list under the lock, then dispatches
// outside of it — so an observer callback that resubscribes or disposes
// during dispatch neither deadlocks nor corrupts the in-flight iteration,
// and newly-added observers never see the event already in flight.
func (s *PublishSubject[T]) Next(v T) {
	s.mu.Lock()
	snapshot := append([]*Observer[T](nil), s.observers...)
	s.mu.Unlock()

	for _, o := range snapshot {
		if !o.IsDisposed() {
			o.Next(v)
		}
	}
}

// Error is Next's terminal counterpart: first-terminal-wins, and it
// clears the observer list (each observer already terminates itself and
// removes itself via its subscription disposable, but clearing here
// avoids a redundant walk).
func (s *PublishSubject[T]) Error(err error) { s.terminal(err) }

// Completed is Error with a nil error.
func (s *PublishSubject[T]) Completed() { s.terminal(nil) }

func (s *PublishSubject[T]) terminal(err error) {
	s.mu.Lock()
	if s.hasTerminal {
		s.mu.Unlock()
		return
	}
	s.hasTerminal = true
	s.terminalErr = err
	snapshot := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, o := range snapshot {
		deliverTerminal(o, err)
	}
}
