// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"errors"
	"testing"
)

// errTest is a shared sentinel used across this package's tests wherever
// the specific error value doesn't matter, only its identity.
var errTest = errors.New("test error")

func assertSlice[T comparable](t *testing.T, what string, expected, actual []T) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("assertSlice[%s]: expected %d items, got %d (%v)", what, len(expected), len(actual), actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("assertSlice[%s]: at index %d, expected %v, got %v", what, i, expected[i], actual[i])
		}
	}
}

func assertNil(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error in %s: %s", what, err)
	}
}
