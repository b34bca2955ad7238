// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

// Package rpp is a Go port of the core of ReactivePlusPlus (rpp): a
// push-based, Rx-style dataflow library. Producers (Observable) emit a
// sequence of typed values to consumers (Observer), terminated by either
// Completed or Error, with operators composing transformations between
// them. Cancellation flows the other way, through Disposable.
//
// The grammar every Observer enforces is: zero or more Next, followed by
// at most one of Error or Completed. Once a terminal event is delivered,
// or the Observer's Disposable is disposed, no further event reaches it.
package rpp
