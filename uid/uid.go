// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uid mints the identifiers used to build unique layer names.
package uid

import (
	"math"
	"sync/atomic"
)

// Allocator hands out strictly increasing identifiers, starting from 1.
// It is safe for concurrent use.
type Allocator struct {
	last atomic.Uint64
}

// New returns an allocator independent from the process one, mostly
// useful for tests.
func New() *Allocator {
	return new(Allocator)
}

var process = New()

// Process returns the allocator shared by the whole process. It is created
// once and never reset, so identifiers it returns are never reused.
func Process() *Allocator {
	return process
}

// Next returns a new identifier. It panics if the identifier space is
// exhausted.
func (a *Allocator) Next() uint64 {
	for {
		last := a.last.Load()
		if last == math.MaxUint64 {
			panic("uid: identifier space exhausted")
		}
		if a.last.CompareAndSwap(last, last+1) {
			return last + 1
		}
	}
}

// Observe records that id is already in use, so that Next only returns
// larger values.
func (a *Allocator) Observe(id uint64) {
	for {
		last := a.last.Load()
		if id <= last || a.last.CompareAndSwap(last, id) {
			return
		}
	}
}

// Last returns the most recently minted or observed identifier.
func (a *Allocator) Last() uint64 {
	return a.last.Load()
}
