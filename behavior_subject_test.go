// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

// S10: behavior_subject(seed=0): subscribe -> next(0), next(1) ->
// next(1), get_value() -> 1.
func TestBehaviorSubjectDeliversCurrentValueOnSubscribe(t *testing.T) {
	s := rpp.NewBehaviorSubject(0)
	mock := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(mock.Observer())

	assertSlice(t, "initial", []int{0}, mock.Values())

	s.Next(1)
	assertSlice(t, "after next(1)", []int{0, 1}, mock.Values())

	if got := s.GetValue(); got != 1 {
		t.Fatalf("GetValue() = %d, want 1", got)
	}
}

func TestBehaviorSubjectGetValueWithNoSubscribers(t *testing.T) {
	s := rpp.NewBehaviorSubject("seed")
	if got := s.GetValue(); got != "seed" {
		t.Fatalf("GetValue() = %q, want %q", got, "seed")
	}
	s.Next("updated")
	if got := s.GetValue(); got != "updated" {
		t.Fatalf("GetValue() = %q, want %q", got, "updated")
	}
}

// GetValue after a terminal error keeps returning the last pushed value
// (the resolved Open Question recorded in behavior_subject.go).
func TestBehaviorSubjectGetValueAfterTerminalError(t *testing.T) {
	s := rpp.NewBehaviorSubject(1)
	s.Next(2)
	s.Error(errTest)

	if got := s.GetValue(); got != 2 {
		t.Fatalf("GetValue() after terminal error = %d, want 2 (last pushed value)", got)
	}
}

func TestBehaviorSubjectSubscribeAfterTerminalReplaysTerminal(t *testing.T) {
	s := rpp.NewBehaviorSubject(1)
	s.Completed()

	mock := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(mock.Observer())

	events := mock.Events()
	if len(events) != 1 || events[0].Kind != rpptest.EventCompleted {
		t.Fatalf("got %+v, want a late subscriber to see only the terminal event", events)
	}
}

func TestBehaviorSubjectSecondSubscriberSeesLatestNotFirst(t *testing.T) {
	s := rpp.NewBehaviorSubject(0)
	first := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(first.Observer())

	s.Next(5)

	second := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(second.Observer())

	assertSlice(t, "first", []int{0, 5}, first.Values())
	assertSlice(t, "second", []int{5}, second.Values())
}
