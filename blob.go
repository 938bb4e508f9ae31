// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import "github.com/nlpodyssey/xgraph/shape"

// Blob is a named placeholder for the tensor flowing between layers.
// Its Shape stays unknown until shape inference reaches its producer.
type Blob struct {
	Name  string      `json:"name"`
	Shape shape.Shape `json:"shape"`
}

func (b *Blob) String() string {
	return b.Name + " " + b.Shape.String()
}
