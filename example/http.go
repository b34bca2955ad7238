// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/GitJQ/ReactivePlusPlus"
)

// HTTPGetByLine is a hand-written source built directly with
// rpp.FuncObservable rather than composing sources/http and an operator,
// for contrast with the clients/http/example variant. The round trip and
// scan run on their own goroutine so that several HTTPGetByLine sources
// merged together actually fetch concurrently instead of one blocking the
// next's subscription.
func HTTPGetByLine(url string) rpp.Observable[string] {
	return rpp.FuncObservable[string](func(down *rpp.Observer[string]) {
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			down.Error(err)
			return
		}
		cancel := make(chan struct{})
		down.SetUpstream(rpp.NewDisposable(func() { close(cancel) }))
		req.Cancel = cancel //nolint:staticcheck

		go func() {
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				down.Error(err)
				return
			}
			defer resp.Body.Close()

			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if down.IsDisposed() {
					return
				}
				down.Next(scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				down.Error(err)
				return
			}
			down.Completed()
		}()
	})
}

func streamHandler(format string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			w.WriteHeader(500)
			fmt.Fprintf(w, "error: no http.Flusher\n")
			return
		}

		w.WriteHeader(200)
		for i := 0; ; i++ {
			_, err := fmt.Fprintf(w, format+"\n", i)
			if err != nil {
				break
			}
			flusher.Flush()
			time.Sleep(time.Millisecond * 50)
		}
	}
}

func startHTTPServer() (string, *http.Server) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		fatal("error from Listen: %s", err)
	}

	srv := &http.Server{Addr: "127.0.0.1:0"}
	http.HandleFunc("/hex", streamHandler("0x%x"))
	http.HandleFunc("/dec", streamHandler("%d"))
	http.HandleFunc("/oct", streamHandler("0%o"))

	go func() {
		srv.Serve(listener)
		listener.Close()
	}()
	return "http://" + listener.Addr().String(), srv
}
