// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

func TestSubscribeFuncNilCallbacksAreOptional(t *testing.T) {
	var got int
	d := rpp.Just(1, 2, 3).SubscribeFunc(func(v int) { got += v }, nil, nil)
	if got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
	if !d.IsDisposed() {
		t.Fatal("subscription not disposed after completion")
	}
}

func TestSubscribeFuncOnErrorSuppressesPanic(t *testing.T) {
	var gotErr error
	rpp.Error[int](errTest).SubscribeFunc(nil, func(err error) { gotErr = err }, nil)
	if gotErr != errTest {
		t.Fatalf("got %v, want %v", gotErr, errTest)
	}
}

func TestObservableFanOutIndependentSubscriptions(t *testing.T) {
	src := rpp.Just(1, 2, 3)

	a := rpptest.NewMockObserver[int]()
	b := rpptest.NewMockObserver[int]()
	src.Subscribe(a.Observer())
	src.Subscribe(b.Observer())

	assertSlice(t, "a", []int{1, 2, 3}, a.Values())
	assertSlice(t, "b", []int{1, 2, 3}, b.Values())
}
