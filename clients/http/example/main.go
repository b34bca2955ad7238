// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/GitJQ/ReactivePlusPlus"
	httpsrc "github.com/GitJQ/ReactivePlusPlus/sources/http"
)

func fatal(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

// GetByLine turns a response stream into a stream of its body's lines,
// closing each response's body once its lines are exhausted.
func GetByLine(resp rpp.Observable[*http.Response]) rpp.Observable[string] {
	return rpp.Lift(resp, func(down *rpp.Observer[string]) rpp.Strategy[*http.Response] {
		return rpp.Strategy[*http.Response]{
			OnNext: func(resp *http.Response) {
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
				}
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
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

func main() {
	url, srv := startHTTPServer()
	defer srv.Shutdown(context.Background())

	lines := rpp.MergeWith(
		GetByLine(httpsrc.Get(url+"/hex")),
		GetByLine(httpsrc.Get(url+"/oct")),
		GetByLine(httpsrc.Get(url+"/dec")),

		// Also once a second insert a dividing line.
		rpp.Map(rpp.Interval(time.Second, rpp.NewThread), func(_ int) string { return "-------" }),
	)

	// Retry the whole pipeline on error, backing off between attempts,
	// forever.
	lines = rpp.Retry(lines, rpp.BackoffRetry(rpp.AlwaysRetry, time.Second, 10*time.Second))

	err := rpp.BlockingSubscribe(lines, func(line string) {
		fmt.Println(line)
	})
	if err != nil {
		fatal("error: %s", err)
	}
}
