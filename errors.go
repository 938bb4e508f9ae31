// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/infer"
)

// Error kinds. Errors returned by this package are marked with the kind
// that applies, so callers can test it with errors.Is.
var (
	// ErrDuplicateName is returned when a blob or layer name is already
	// taken where a new one was required.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrNotFound is returned when a referenced blob or layer is absent.
	ErrNotFound = errors.New("not found")
	// ErrShape is returned when shape inference cannot proceed.
	ErrShape = infer.ErrShape
	// ErrPrune is returned for invalid or disconnected prune boundaries.
	ErrPrune = errors.New("invalid prune boundaries")
	// ErrInvalidLayer is returned when a layer definition is inconsistent
	// (missing or invalid parameters, malformed in-place declaration).
	ErrInvalidLayer = errors.New("invalid layer")
	// ErrCycle is returned when the graph is not acyclic.
	ErrCycle = errors.New("graph contains a cycle")
)

func markf(kind error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kind)
}

func duplicatef(format string, args ...interface{}) error {
	return markf(ErrDuplicateName, format, args...)
}

func notFoundf(format string, args ...interface{}) error {
	return markf(ErrNotFound, format, args...)
}

func prunef(format string, args ...interface{}) error {
	return markf(ErrPrune, format, args...)
}

func invalidLayerf(format string, args ...interface{}) error {
	return markf(ErrInvalidLayer, format, args...)
}
