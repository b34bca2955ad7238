// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package http

import (
	"io"
	"net/http"

	"github.com/GitJQ/ReactivePlusPlus"
)

// Option mutates an outgoing *http.Request before it is sent.
type Option func(*http.Request)

func WithBasicAuth(username, password string) Option {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

func WithBody(body io.Reader) Option {
	return func(req *http.Request) {
		rc, ok := body.(io.ReadCloser)
		if !ok && body != nil {
			rc = io.NopCloser(body)
		}
		req.Body = rc
	}
}

func WithHeader(key, value string) Option {
	return func(req *http.Request) {
		req.Header.Add(key, value)
	}
}

// Get issues a GET request to url when subscribed, emitting exactly one
// *http.Response (Single semantics, spec §4.9) or an Error. The request is
// cancelled, aborting an in-flight round trip, if the subscription is
// disposed before the response arrives.
func Get(url string, options ...Option) rpp.Observable[*http.Response] {
	return do("GET", url, nil, options...)
}

// Post issues a POST of body to url when subscribed.
func Post(url string, body io.Reader, options ...Option) rpp.Observable[*http.Response] {
	return do("POST", url, body, options...)
}

// do issues the round trip on its own goroutine: the network call blocks,
// and a blocking Subscribe would otherwise serialize it behind whatever
// else shares its outer Observable (e.g. sibling sources under Merge).
func do(method, url string, body io.Reader, options ...Option) rpp.Observable[*http.Response] {
	return rpp.FuncObservable[*http.Response](func(down *rpp.Observer[*http.Response]) {
		req, err := http.NewRequest(method, url, body)
		if err != nil {
			down.Error(err)
			return
		}
		for _, opt := range options {
			opt(req)
		}

		cancel := make(chan struct{})
		down.SetUpstream(rpp.NewDisposable(func() { close(cancel) }))
		req.Cancel = cancel //nolint:staticcheck // request-scoped cancellation without context, mirrors client-provided disposal

		go func() {
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				down.Error(err)
				return
			}
			if down.IsDisposed() {
				resp.Body.Close()
				return
			}
			down.Next(resp)
			down.Completed()
		}()
	})
}

// ResponseBody reads and closes the body of every response in, emitting
// its bytes as a Single.
func ResponseBody(in rpp.Observable[*http.Response]) rpp.Observable[[]byte] {
	return rpp.Lift(in, func(down *rpp.Observer[[]byte]) rpp.Strategy[*http.Response] {
		return rpp.Strategy[*http.Response]{
			OnNext: func(resp *http.Response) {
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				if err != nil {
					down.Error(err)
					return
				}
				down.Next(body)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}
