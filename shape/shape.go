// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import (
	"encoding/json"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// The Shape of a blob, as an ordered list of dimensions (typically NCHW).
//
// An empty Shape means the shape is not known yet: blobs are created
// without a shape and receive one from shape inference.
type Shape []int

// Make returns a Shape holding a copy of dims.
func Make(dims ...int) Shape {
	if len(dims) == 0 {
		return nil
	}
	s := make(Shape, len(dims))
	copy(s, dims)
	return s
}

// Known reports whether the shape has been set.
func (s Shape) Known() bool {
	return len(s) > 0
}

// Rank is the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Clone returns an independent copy of s.
func (s Shape) Clone() Shape {
	return Make(s...)
}

// Equal reports whether s and o have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate returns an error if the shape contains negative dimensions.
func (s Shape) Validate() error {
	for i, v := range s {
		if v < 0 {
			return errors.Newf("shape contains negative value %d at axis %d", v, i)
		}
	}
	return nil
}

// NumElements returns the product of all dimensions, failing on unknown
// shapes, negative values or int overflow.
func (s Shape) NumElements() (int, error) {
	if !s.Known() {
		return 0, errors.New("shape is unknown")
	}
	size := uint(1)
	for _, v := range s {
		if v < 0 {
			return 0, errors.Newf("shape contains negative value %d", v)
		}
		var hi uint
		if hi, size = bits.Mul(size, uint(v)); hi != 0 {
			return 0, errors.New("int overflow computing number of elements from shape")
		}
	}
	if size > math.MaxInt {
		return 0, errors.Newf("number of elements is too large for int type: %d", size)
	}
	return int(size), nil
}

// Axis converts a possibly negative axis (counting from the end) into an
// index of s, failing if it is out of range.
func (s Shape) Axis(axis int) (int, error) {
	r := len(s)
	if axis < -r || axis >= r {
		return 0, errors.Newf("axis %d out of range for rank %d", axis, r)
	}
	if axis < 0 {
		axis += r
	}
	return axis, nil
}

// String renders the shape as "1x3x224x224", or "unknown".
func (s Shape) String() string {
	if !s.Known() {
		return "unknown"
	}
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "x")
}

// MarshalJSON prevents a nil Shape to be serialized as "null",
// preferring an empty array "[]" instead.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}

// UnmarshalJSON decodes an array of integers, mapping "[]" and "null"
// to the unknown (nil) Shape.
func (s *Shape) UnmarshalJSON(b []byte) error {
	var dims []int
	if err := json.Unmarshal(b, &dims); err != nil {
		return errors.Wrap(err, "invalid shape value")
	}
	*s = Make(dims...)
	return nil
}
