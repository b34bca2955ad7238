// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"log"
	"sync"
)

// Disposable is a cancellation handle. Disposal is idempotent and safe to
// call from multiple goroutines; the underlying cleanup runs at most once.
type Disposable interface {
	// Dispose cancels the handle. Calling Dispose more than once has no
	// additional effect.
	Dispose()

	// IsDisposed reports whether Dispose has been called. Once true it
	// never becomes false again.
	IsDisposed() bool
}

// leafDisposable wraps a single optional cleanup action.
type leafDisposable struct {
	mu       sync.Mutex
	disposed bool
	action   func()
}

// NewDisposable returns a leaf Disposable that runs action (if non-nil)
// exactly once, on the first call to Dispose.
func NewDisposable(action func()) Disposable {
	return &leafDisposable{action: action}
}

func (d *leafDisposable) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	action := d.action
	d.action = nil
	d.mu.Unlock()

	if action != nil {
		runCleanup(action)
	}
}

func (d *leafDisposable) IsDisposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

// CompositeDisposable holds a dynamic set of child Disposables. Disposing a
// composite disposes every child it currently holds, and disposes any
// future child immediately on Add. Composites are themselves Disposables,
// so they nest.
type CompositeDisposable struct {
	mu       sync.Mutex
	disposed bool
	children map[Disposable]struct{}
}

// NewCompositeDisposable returns an empty, not-yet-disposed composite.
func NewCompositeDisposable() *CompositeDisposable {
	return &CompositeDisposable{}
}

// Dispose marks the composite disposed and disposes every child it
// currently holds. The child set is swapped out under the lock and the
// children are disposed outside of it, so a child's cleanup can safely
// call back into the composite (e.g. Remove) without deadlocking.
func (c *CompositeDisposable) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for child := range children {
		child.Dispose()
	}
}

func (c *CompositeDisposable) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Add registers child with the composite's lifetime. If the composite is
// already disposed, child is disposed immediately and not retained.
func (c *CompositeDisposable) Add(child Disposable) {
	if child == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		child.Dispose()
		return
	}
	if c.children == nil {
		c.children = make(map[Disposable]struct{})
	}
	c.children[child] = struct{}{}
	c.mu.Unlock()
}

// Remove forgets child without disposing it. A no-op if child was never
// added or the composite is already disposed.
func (c *CompositeDisposable) Remove(child Disposable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.children != nil {
		delete(c.children, child)
	}
}

// Clear disposes and forgets every child currently held, without marking
// the composite itself disposed. Future Adds are accepted normally.
func (c *CompositeDisposable) Clear() {
	c.mu.Lock()
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for child := range children {
		child.Dispose()
	}
}

// runCleanup invokes action, swallowing (and logging) any panic so that
// sibling children still get disposed.
func runCleanup(action func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("rpp: disposable cleanup panicked: %v", r)
		}
	}()
	action()
}
