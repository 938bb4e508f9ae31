// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package infer computes the output shapes of a layer from its parameters
// and the shapes of its inputs.
//
// Nothing here touches data: every rule only reasons about dimensions.
// Callers are expected to visit layers in topological order so that all
// inputs are known by the time a layer is inferred.
package infer

import (
	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
)

// ErrShape marks every failure of shape inference: unknown input shapes,
// incompatible inputs, or parameters that do not fit the input rank.
var ErrShape = errors.New("shape error")

func shapeErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrShape)
}

// arity is the accepted number of inputs; max < 0 means unbounded.
type arity struct{ min, max int }

var arities = map[layertype.Type]arity{
	layertype.Input:    {0, 0},
	layertype.Concat:   {1, -1},
	layertype.Eltwise:  {2, -1},
	layertype.Crop:     {2, 2},
	layertype.PriorBox: {2, 2},
	layertype.NMS:      {3, 4},
	layertype.Custom:   {0, -1},
}

func checkArity(t layertype.Type, n int) error {
	a, ok := arities[t]
	if !ok {
		a = arity{1, 1}
	}
	if n < a.min || (a.max >= 0 && n > a.max) {
		switch {
		case a.min == a.max:
			return shapeErrorf("%s expects %d inputs, got %d", t, a.min, n)
		case a.max < 0:
			return shapeErrorf("%s expects at least %d inputs, got %d", t, a.min, n)
		default:
			return shapeErrorf("%s expects %d to %d inputs, got %d", t, a.min, a.max, n)
		}
	}
	return nil
}

// OutputShapes returns the shapes of the outputs of a layer configured by
// p whose inputs have the given shapes. The returned shapes are new values
// owned by the caller. Every error satisfies errors.Is(err, ErrShape).
func OutputShapes(p param.Params, inputs []shape.Shape) ([]shape.Shape, error) {
	if p == nil {
		return nil, shapeErrorf("missing layer parameters")
	}
	t := p.Type()
	if err := checkArity(t, len(inputs)); err != nil {
		return nil, err
	}
	for i, in := range inputs {
		if !in.Known() {
			return nil, shapeErrorf("%s: input %d has unknown shape", t, i)
		}
		if err := checkOutput(in); err != nil {
			return nil, shapeErrorf("%s: input %d (%s): %v", t, i, in, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s: invalid parameters", t), ErrShape)
	}

	out, err := dispatch(p, inputs)
	if err != nil {
		return nil, err
	}
	for i, s := range out {
		if err := checkOutput(s); err != nil {
			return nil, shapeErrorf("%s: output %d (%s): %v", t, i, s, err)
		}
	}
	return out, nil
}

func dispatch(p param.Params, in []shape.Shape) ([]shape.Shape, error) {
	var (
		s   shape.Shape
		err error
	)
	switch p := p.(type) {
	case *param.Input:
		s = p.Shape.Clone()
	case *param.Convolution:
		s, err = convolution(p, in[0])
	case *param.Deconvolution:
		s, err = deconvolution(p, in[0])
	case *param.Pooling:
		s, err = pooling(p, in[0])
	case *param.InnerProduct:
		s = shape.Make(in[0][0], p.NumOutput)
	case *param.ArgMax:
		s, err = argMax(p, in[0])
	case *param.Softmax:
		s, err = softmax(p, in[0])
	case *param.LRN:
		s, err = rank4(layertype.LRN, in[0])
	case *param.ReLU, *param.Dropout, *param.Power, *param.Pack:
		s = in[0].Clone()
	case *param.L2Normalize:
		s, err = minRank(layertype.L2Normalize, in[0], 2)
	case *param.BatchNorm:
		s, err = perChannel(layertype.BatchNorm, in[0], p.Channels())
	case *param.Scale:
		s, err = perChannel(layertype.Scale, in[0], p.Channels())
	case *param.Concat:
		s, err = concat(p, in)
	case *param.Eltwise:
		s, err = eltwise(in)
	case *param.Flatten:
		s, err = flatten(p, in[0])
	case *param.Reshape:
		s, err = reshape(p, in[0])
	case *param.Crop:
		s, err = crop(p, in[0], in[1])
	case *param.Permute:
		s, err = permute(p, in[0])
	case *param.PriorBox:
		s, err = priorBox(p, in[0], in[1])
	case *param.NMS:
		s = shape.Make(1, 1, p.KeepTopK, 7)
	case *param.Custom:
		return custom(p, in)
	default:
		return nil, shapeErrorf("no shape inference rule for %s", p.Type())
	}
	if err != nil {
		return nil, err
	}
	return []shape.Shape{s}, nil
}

func checkOutput(s shape.Shape) error {
	for _, v := range s {
		if v <= 0 {
			return errors.New("tensor is empty")
		}
	}
	if _, err := s.NumElements(); err != nil {
		return errors.New("tensor is too large")
	}
	return nil
}

func rank4(t layertype.Type, in shape.Shape) (shape.Shape, error) {
	if in.Rank() != 4 {
		return nil, shapeErrorf("%s expects a 4D input, got %s", t, in)
	}
	return in.Clone(), nil
}

func minRank(t layertype.Type, in shape.Shape, r int) (shape.Shape, error) {
	if in.Rank() < r {
		return nil, shapeErrorf("%s expects an input of rank >= %d, got %s", t, r, in)
	}
	return in.Clone(), nil
}

func perChannel(t layertype.Type, in shape.Shape, channels int) (shape.Shape, error) {
	if channels == 0 {
		return in.Clone(), nil
	}
	if in.Rank() < 2 || in[1] != channels {
		return nil, shapeErrorf("%s holds %d per-channel values but input is %s", t, channels, in)
	}
	return in.Clone(), nil
}

func custom(p *param.Custom, in []shape.Shape) ([]shape.Shape, error) {
	if len(p.OutputShapes) > 0 {
		out := make([]shape.Shape, len(p.OutputShapes))
		for i, s := range p.OutputShapes {
			out[i] = s.Clone()
		}
		return out, nil
	}
	if len(in) == 0 {
		return nil, shapeErrorf("custom layer %q has neither inputs nor declared output shapes", p.Kind)
	}
	return []shape.Shape{in[0].Clone()}, nil
}
