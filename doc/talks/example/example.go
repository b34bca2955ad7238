// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"fmt"

	"github.com/GitJQ/ReactivePlusPlus"
)

// singleInteger emits its own value to whatever Observer subscribes,
// showing that Observable is just a subscribe function: any producer,
// however small, becomes one by wrapping it in rpp.FuncObservable.
type singleInteger int

func (num singleInteger) toObservable() rpp.Observable[int] {
	return rpp.FuncObservable[int](func(down *rpp.Observer[int]) {
		down.Next(int(num))
		down.Completed()
	})
}

func main() {
	ten := singleInteger(10).toObservable()

	// The 'Map' operator takes a stream and a function and applies
	// the function to each element.
	twenty := rpp.Map(ten, func(x int) int { return x * 2 })

	twenty.SubscribeFunc(func(x int) {
		fmt.Printf("%d\n", x)
	}, nil, nil)
}
