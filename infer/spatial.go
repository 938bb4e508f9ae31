// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package infer

import (
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
)

// window is the number of positions of a sliding window over a padded
// input: floor((in + 2*pad - extent) / stride) + 1. A negative result means
// the window does not fit at all.
func window(in, kernel, stride, pad, dilation int) int {
	n := in + 2*pad - (1 + (kernel-1)*dilation)
	if n < 0 {
		return n
	}
	return n/stride + 1
}

func convolution(p *param.Convolution, in shape.Shape) (shape.Shape, error) {
	if in.Rank() != 4 {
		return nil, shapeErrorf("%s expects a 4D input, got %s", layertype.Convolution, in)
	}
	if c := in[1]; c%p.Group != 0 {
		return nil, shapeErrorf("%s: input has %d channels (not divisible by %d groups)", layertype.Convolution, c, p.Group)
	}
	h := window(in[2], p.KernelH, p.StrideH, p.PadH, p.DilationH)
	w := window(in[3], p.KernelW, p.StrideW, p.PadW, p.DilationW)
	return shape.Make(in[0], p.NumOutput, h, w), nil
}

func deconvolution(p *param.Deconvolution, in shape.Shape) (shape.Shape, error) {
	if in.Rank() != 4 {
		return nil, shapeErrorf("%s expects a 4D input, got %s", layertype.Deconvolution, in)
	}
	if c := in[1]; c%p.Group != 0 {
		return nil, shapeErrorf("%s: input has %d channels (not divisible by %d groups)", layertype.Deconvolution, c, p.Group)
	}
	h := p.StrideH*(in[2]-1) + p.DilationH*(p.KernelH-1) + 1 - 2*p.PadH
	w := p.StrideW*(in[3]-1) + p.DilationW*(p.KernelW-1) + 1 - 2*p.PadW
	return shape.Make(in[0], p.NumOutput, h, w), nil
}

func pooling(p *param.Pooling, in shape.Shape) (shape.Shape, error) {
	if in.Rank() != 4 {
		return nil, shapeErrorf("%s expects a 4D input, got %s", layertype.Pooling, in)
	}
	if p.Global {
		return shape.Make(in[0], in[1], 1, 1), nil
	}
	h := window(in[2], p.KernelH, p.StrideH, p.PadH, 1)
	w := window(in[3], p.KernelW, p.StrideW, p.PadW, 1)
	return shape.Make(in[0], in[1], h, w), nil
}

func priorBox(p *param.PriorBox, feature, image shape.Shape) (shape.Shape, error) {
	if feature.Rank() != 4 || image.Rank() != 4 {
		return nil, shapeErrorf("%s expects 4D feature map and image, got %s and %s", layertype.PriorBox, feature, image)
	}
	return shape.Make(1, 2, feature[2]*feature[3]*p.NumPriors()*4), nil
}
