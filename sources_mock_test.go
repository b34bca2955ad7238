// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

func TestNeverProducesNothing(t *testing.T) {
	mock := rpptest.NewMockObserver[int]()
	obs := mock.Observer()
	rpp.Never[int]().Subscribe(obs)
	obs.Dispose()
	if len(mock.Events()) != 0 {
		t.Fatalf("got %+v, want no events", mock.Events())
	}
}
