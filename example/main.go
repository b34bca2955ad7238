// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/GitJQ/ReactivePlusPlus"
)

func fatal(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url, srv := startHTTPServer()
	defer srv.Shutdown(context.Background())

	lines := rpp.MergeWith(
		HTTPGetByLine(url+"/hex"),
		HTTPGetByLine(url+"/oct"),
		HTTPGetByLine(url+"/dec"),

		// Also once a second insert a dividing line.
		rpp.Map(rpp.Interval(time.Second, rpp.NewThread), func(_ int) string { return "-------" }),
	)

	// On errors, retry unless our context has expired.
	lines = rpp.Retry(lines, func(err error) bool {
		if ctx.Err() != nil {
			return false
		}
		time.Sleep(time.Second)
		return true
	})

	var subErr error
	done := make(chan struct{})
	obs := rpp.NewObserver(rpp.Strategy[string]{
		OnNext: func(line string) { fmt.Println(line) },
		OnError: func(err error) {
			subErr = err
			close(done)
		},
		OnCompleted: func() { close(done) },
	})
	go lines.Subscribe(obs)

	select {
	case <-ctx.Done():
		obs.Dispose()
	case <-done:
	}

	if subErr != nil && ctx.Err() == nil {
		fatal("error: %s", subErr)
	}
}
