// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// reentrantMutex is a mutex the owning goroutine may Lock again without
// blocking on itself; Unlock only releases it once the outermost Lock is
// matched. No dependency surfaced anywhere in the reviewed example pack
// implements goroutine-aware reentrant locking (Go's sync.Mutex is
// deliberately not reentrant), so this is hand-rolled: a buffered channel
// of size one acts as the real lock, and a small critical section tracks
// which goroutine (by the id runtime.Stack prints in its header line)
// currently owns it and how many times.
type reentrantMutex struct {
	sem chan struct{}

	mu    sync.Mutex
	owner int64
	depth int
}

func newReentrantMutex() *reentrantMutex {
	return &reentrantMutex{sem: make(chan struct{}, 1)}
}

func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	field = field[:bytes.IndexByte(field, ' ')]
	id, _ := strconv.ParseInt(string(field), 10, 64)
	return id
}

func (m *reentrantMutex) Lock() {
	id := currentGoroutineID()

	m.mu.Lock()
	if m.depth > 0 && m.owner == id {
		m.depth++
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.sem <- struct{}{}

	m.mu.Lock()
	m.owner = id
	m.depth = 1
	m.mu.Unlock()
}

func (m *reentrantMutex) Unlock() {
	m.mu.Lock()
	m.depth--
	release := m.depth == 0
	m.mu.Unlock()

	if release {
		<-m.sem
	}
}

// SerializedSubject wraps any Subject behind a reentrant lock held around
// every public method (Next, Error, Completed, and Subscribe via
// Observable). Reentrancy matters because an observer's callback — itself
// invoked while the lock is held — may call back into the subject on the
// same goroutine (spec §5).
type SerializedSubject[T any] struct {
	inner Subject[T]
	lock  *reentrantMutex
}

// Serialized wraps inner so that all of its methods, including the
// Subscribe reached through Observable, serialize via a single reentrant
// lock.
func Serialized[T any](inner Subject[T]) *SerializedSubject[T] {
	return &SerializedSubject[T]{inner: inner, lock: newReentrantMutex()}
}

// Observable returns an Observable whose Subscribe is guarded by the
// serializing lock.
func (s *SerializedSubject[T]) Observable() Observable[T] {
	inner := s.inner.Observable()
	return FuncObservable[T](func(down *Observer[T]) {
		s.lock.Lock()
		defer s.lock.Unlock()
		inner.Subscribe(down)
	})
}

// Next is inner.Next guarded by the serializing lock.
func (s *SerializedSubject[T]) Next(v T) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inner.Next(v)
}

// Error is inner.Error guarded by the serializing lock.
func (s *SerializedSubject[T]) Error(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inner.Error(err)
}

// Completed is inner.Completed guarded by the serializing lock.
func (s *SerializedSubject[T]) Completed() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inner.Completed()
}

// SerializedBehaviorSubject is Serialized specialized for BehaviorSubject,
// additionally exposing a guarded GetValue.
type SerializedBehaviorSubject[T any] struct {
	*SerializedSubject[T]
	behavior *BehaviorSubject[T]
}

// SerializedBehavior wraps a BehaviorSubject behind the same reentrant
// lock as SerializedSubject, also serializing GetValue.
func SerializedBehavior[T any](inner *BehaviorSubject[T]) *SerializedBehaviorSubject[T] {
	return &SerializedBehaviorSubject[T]{
		SerializedSubject: Serialized[T](inner),
		behavior:          inner,
	}
}

// GetValue is behavior.GetValue guarded by the serializing lock.
func (s *SerializedBehaviorSubject[T]) GetValue() T {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.behavior.GetValue()
}
