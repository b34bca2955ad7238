// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

func TestSerializedSubjectMulticasts(t *testing.T) {
	s := rpp.Serialized[int](rpp.NewPublishSubject[int]())
	mock := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(mock.Observer())

	s.Next(1)
	s.Next(2)
	s.Completed()

	assertSlice(t, "values", []int{1, 2}, mock.Values())
	if !mock.Terminated() {
		t.Fatal("not terminated")
	}
}

// Next re-entering Subscribe on the same goroutine, from inside an
// observer's own callback, must not deadlock.
func TestSerializedSubjectReentrantNextFromCallback(t *testing.T) {
	s := rpp.Serialized[int](rpp.NewPublishSubject[int]())

	var secondValues []int
	first := rpp.NewObserver(rpp.Strategy[int]{
		OnNext: func(v int) {
			if v == 1 {
				s.Observable().Subscribe(rpp.NewObserver(rpp.Strategy[int]{
					OnNext: func(v int) { secondValues = append(secondValues, v) },
				}))
				s.Next(2)
			}
		},
	})
	s.Observable().Subscribe(first)

	s.Next(1)

	assertSlice(t, "secondValues", []int{2}, secondValues)
}

func TestSerializedBehaviorSubjectGetValue(t *testing.T) {
	s := rpp.SerializedBehavior[int](rpp.NewBehaviorSubject(1))
	s.Next(2)
	if got := s.GetValue(); got != 2 {
		t.Fatalf("GetValue() = %d, want 2", got)
	}

	mock := rpptest.NewMockObserver[int]()
	s.Observable().Subscribe(mock.Observer())
	assertSlice(t, "initial", []int{2}, mock.Values())
}
