// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package infer

import (
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
)

func softmax(p *param.Softmax, in shape.Shape) (shape.Shape, error) {
	if _, err := in.Axis(p.Axis); err != nil {
		return nil, shapeErrorf("%s: %v", layertype.Softmax, err)
	}
	return in.Clone(), nil
}

func argMax(p *param.ArgMax, in shape.Shape) (shape.Shape, error) {
	if p.Axis != nil {
		axis, err := in.Axis(*p.Axis)
		if err != nil {
			return nil, shapeErrorf("%s: %v", layertype.ArgMax, err)
		}
		if p.TopK > in[axis] {
			return nil, shapeErrorf("%s: top_k %d exceeds dimension %d of axis %d", layertype.ArgMax, p.TopK, in[axis], axis)
		}
		out := in.Clone()
		out[axis] = p.TopK
		return out, nil
	}
	n, _ := in.NumElements()
	if perSample := n / in[0]; p.TopK > perSample {
		return nil, shapeErrorf("%s: top_k %d exceeds %d values per sample", layertype.ArgMax, p.TopK, perSample)
	}
	if p.OutMaxVal {
		return shape.Make(in[0], 2, p.TopK), nil
	}
	return shape.Make(in[0], 1, p.TopK), nil
}

func concat(p *param.Concat, in []shape.Shape) (shape.Shape, error) {
	first := in[0]
	axis, err := first.Axis(p.Axis)
	if err != nil {
		return nil, shapeErrorf("%s: %v", layertype.Concat, err)
	}
	out := first.Clone()
	for i, s := range in[1:] {
		if s.Rank() != first.Rank() {
			return nil, shapeErrorf("%s: input %d is %s but input 0 is %s (rank mismatch)", layertype.Concat, i+1, s, first)
		}
		for d := range s {
			if d != axis && s[d] != first[d] {
				return nil, shapeErrorf("%s: input %d is %s but input 0 is %s (mismatch outside axis %d)", layertype.Concat, i+1, s, first, axis)
			}
		}
		out[axis] += s[axis]
	}
	return out, nil
}

func eltwise(in []shape.Shape) (shape.Shape, error) {
	for i, s := range in[1:] {
		if !s.Equal(in[0]) {
			return nil, shapeErrorf("%s: input %d is %s but input 0 is %s", layertype.Eltwise, i+1, s, in[0])
		}
	}
	return in[0].Clone(), nil
}

func flatten(p *param.Flatten, in shape.Shape) (shape.Shape, error) {
	begin, err := in.Axis(p.Axis)
	if err != nil {
		return nil, shapeErrorf("%s: %v", layertype.Flatten, err)
	}
	end, err := in.Axis(p.EndAxis)
	if err != nil {
		return nil, shapeErrorf("%s: %v", layertype.Flatten, err)
	}
	if begin > end {
		return nil, shapeErrorf("%s: axis %d comes after end axis %d", layertype.Flatten, begin, end)
	}
	out := make(shape.Shape, 0, in.Rank()-(end-begin))
	out = append(out, in[:begin]...)
	collapsed, _ := in[begin : end+1].NumElements()
	out = append(out, collapsed)
	return append(out, in[end+1:]...), nil
}

func reshape(p *param.Reshape, in shape.Shape) (shape.Shape, error) {
	total, _ := in.NumElements()
	out := make(shape.Shape, len(p.Shape))
	wildcard := -1
	known := 1
	for i, v := range p.Shape {
		switch v {
		case 0:
			if i >= in.Rank() {
				return nil, shapeErrorf("%s: dimension %d copies axis %d of %s", layertype.Reshape, i, i, in)
			}
			out[i] = in[i]
		case -1:
			wildcard = i
			continue
		default:
			out[i] = v
		}
		known *= out[i]
	}
	if wildcard >= 0 {
		if known == 0 || total%known != 0 {
			return nil, shapeErrorf("%s: cannot infer dimension %d of %v from %s", layertype.Reshape, wildcard, p.Shape, in)
		}
		out[wildcard] = total / known
		known = total
	}
	if known != total {
		return nil, shapeErrorf("%s: target %s has %d elements but input %s has %d", layertype.Reshape, out, known, in, total)
	}
	return out, nil
}

func crop(p *param.Crop, in, ref shape.Shape) (shape.Shape, error) {
	if in.Rank() != ref.Rank() {
		return nil, shapeErrorf("%s: input %s and reference %s differ in rank", layertype.Crop, in, ref)
	}
	axis, err := in.Axis(p.Axis)
	if err != nil {
		return nil, shapeErrorf("%s: %v", layertype.Crop, err)
	}
	cropped := in.Rank() - axis
	if n := len(p.Offset); n > 1 && n != cropped {
		return nil, shapeErrorf("%s: %d offsets given for %d cropped axes", layertype.Crop, n, cropped)
	}
	out := in.Clone()
	for i := axis; i < in.Rank(); i++ {
		offset := 0
		switch len(p.Offset) {
		case 0:
		case 1:
			offset = p.Offset[0]
		default:
			offset = p.Offset[i-axis]
		}
		if offset+ref[i] > in[i] {
			return nil, shapeErrorf("%s: axis %d of %s cannot hold %d values from offset %d", layertype.Crop, i, in, ref[i], offset)
		}
		out[i] = ref[i]
	}
	return out, nil
}

func permute(p *param.Permute, in shape.Shape) (shape.Shape, error) {
	if len(p.Order) != in.Rank() {
		return nil, shapeErrorf("%s: order %v does not match rank of %s", layertype.Permute, p.Order, in)
	}
	out := make(shape.Shape, len(p.Order))
	for i, a := range p.Order {
		out[i] = in[a]
	}
	return out, nil
}
