// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/infer"
	"github.com/nlpodyssey/xgraph/shape"
)

// InferLayer computes the shapes of the top blobs of the named layer from
// the shapes of its bottom blobs, and stores them. An in-place layer
// overwrites the shape of the blob it shares.
func (g *Graph) InferLayer(name string) error {
	l, err := g.RequireLayerPresent(name)
	if err != nil {
		return err
	}

	inputs := make([]shape.Shape, len(l.bottom))
	for i, name := range l.bottom {
		b, err := g.RequireBlobPresent(name)
		if err != nil {
			return errors.Wrapf(err, "bottom of layer %q", l.uname)
		}
		inputs[i] = b.Shape
	}
	tops := make([]*Blob, len(l.top))
	for i, name := range l.top {
		if tops[i], err = g.RequireBlobPresent(name); err != nil {
			return errors.Wrapf(err, "top of layer %q", l.uname)
		}
	}

	out, err := infer.OutputShapes(l.params, inputs)
	if err != nil {
		return errors.Wrapf(err, "layer %q", l.uname)
	}
	if len(out) != len(tops) {
		return markf(ErrShape, "layer %q: %s produces %d outputs but declares %d top blobs", l.uname, l.Type(), len(out), len(tops))
	}
	for i, b := range tops {
		b.Shape = out[i]
	}
	g.logger.V(2).Info("inferred layer shapes", "layer", l.uname, "top", l.top, "shapes", out)
	return nil
}

// InferShapes runs InferLayer on every layer in topological order and stops
// at the first error. Layers inferred before the failure keep their shapes.
func (g *Graph) InferShapes() error {
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, u := range order {
		if err := g.InferLayer(u); err != nil {
			return err
		}
	}
	g.logger.V(1).Info("inferred graph shapes", "layers", len(order))
	return nil
}

// SetResizeShape records the height and width input images are resized to.
func (g *Graph) SetResizeShape(height, width int) {
	g.Preprocess.ResizeHeight = height
	g.Preprocess.ResizeWidth = width
}
