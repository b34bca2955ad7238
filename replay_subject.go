// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"sync"
	"time"
)

// replayConfig holds a ReplaySubject's bounds. Zero means unbounded for
// both.
type replayConfig struct {
	maxSize int
	maxAge  time.Duration
}

// ReplayOption configures a ReplaySubject at construction.
type ReplayOption func(*replayConfig)

// WithMaxSize bounds the replay buffer to the last n values.
func WithMaxSize(n int) ReplayOption {
	return func(c *replayConfig) { c.maxSize = n }
}

// WithMaxAge drops buffered values older than d relative to the time of
// the triggering operation (Next or Subscribe).
func WithMaxAge(d time.Duration) ReplayOption {
	return func(c *replayConfig) { c.maxAge = d }
}

type replayItem[T any] struct {
	at    time.Time
	value T
}

// ReplaySubject buffers the values it has seen (bounded by size and/or
// age) and replays them, in order, to every new subscriber before
// splicing it into the live observer set.
type ReplaySubject[T any] struct {
	cfg replayConfig

	mu          sync.Mutex
	buffer      []replayItem[T]
	observers   []*Observer[T]
	hasTerminal bool
	terminalErr error
}

// NewReplaySubject returns a ReplaySubject configured by opts. With no
// options the buffer is unbounded in both size and age.
func NewReplaySubject[T any](opts ...ReplayOption) *ReplaySubject[T] {
	s := &ReplaySubject[T]{}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	return s
}

// Observable returns the subscribable side of the subject.
func (s *ReplaySubject[T]) Observable() Observable[T] {
	return FuncObservable[T](s.subscribe)
}

// trimLocked drops entries beyond maxSize (oldest first) and entries
// older than maxAge relative to now. Must be called with s.mu held.
func (s *ReplaySubject[T]) trimLocked(now time.Time) {
	if s.cfg.maxSize > 0 {
		for len(s.buffer) > s.cfg.maxSize {
			s.buffer = s.buffer[1:]
		}
	}
	if s.cfg.maxAge > 0 {
		cutoff := now.Add(-s.cfg.maxAge)
		i := 0
		for i < len(s.buffer) && s.buffer[i].at.Before(cutoff) {
			i++
		}
		s.buffer = s.buffer[i:]
	}
}

func (s *ReplaySubject[T]) subscribe(down *Observer[T]) {
	s.mu.Lock()
	s.trimLocked(time.Now())
	items := append([]replayItem[T](nil), s.buffer...)
	terminal, err := s.hasTerminal, s.terminalErr
	s.mu.Unlock()

	for _, item := range items {
		if down.IsDisposed() {
			return
		}
		down.Next(item.value)
	}

	if terminal {
		deliverTerminal(down, err)
		return
	}

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

func (s *ReplaySubject[T]) remove(down *Observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == down {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Next appends v to the replay buffer (trimming afterwards) and
// multicasts it to every live observer.
func (s *ReplaySubject[T]) Next(v T) {
	s.mu.Lock()
	now := time.Now()
	s.buffer = append(s.buffer, replayItem[T]{at: now, value: v})
	s.trimLocked(now)
	snapshot := append([]*Observer[T](nil), s.observers...)
	s.mu.Unlock()

	for _, o := range snapshot {
		if !o.IsDisposed() {
			o.Next(v)
		}
	}
}

// Error is the terminal counterpart of Next, first-terminal-wins.
func (s *ReplaySubject[T]) Error(err error) { s.terminal(err) }

// Completed is Error with a nil error.
func (s *ReplaySubject[T]) Completed() { s.terminal(nil) }

func (s *ReplaySubject[T]) terminal(err error) {
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
