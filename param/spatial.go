// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
)

// Convolution configures a 2D convolution.
type Convolution struct {
	NumOutput int  `json:"num_output"`
	KernelH   int  `json:"kernel_h"`
	KernelW   int  `json:"kernel_w"`
	StrideH   int  `json:"stride_h"`
	StrideW   int  `json:"stride_w"`
	PadH      int  `json:"pad_h"`
	PadW      int  `json:"pad_w"`
	DilationH int  `json:"dilation_h"`
	DilationW int  `json:"dilation_w"`
	Group     int  `json:"group"`
	BiasTerm  bool `json:"bias_term"`
}

// NewConvolution returns a square convolution with no dilation and a
// single group.
func NewConvolution(numOutput, kernel, stride, pad int) *Convolution {
	return &Convolution{
		NumOutput: numOutput,
		KernelH:   kernel,
		KernelW:   kernel,
		StrideH:   stride,
		StrideW:   stride,
		PadH:      pad,
		PadW:      pad,
		DilationH: 1,
		DilationW: 1,
		Group:     1,
		BiasTerm:  true,
	}
}

func (*Convolution) params() {}

// Type returns layertype.Convolution.
func (*Convolution) Type() layertype.Type { return layertype.Convolution }

// Validate checks sizes, strides, dilations and grouping.
func (c *Convolution) Validate() error {
	if err := positive("num_output", c.NumOutput); err != nil {
		return err
	}
	if err := positive("kernel size", c.KernelH, c.KernelW); err != nil {
		return err
	}
	if err := positive("stride", c.StrideH, c.StrideW); err != nil {
		return err
	}
	if err := nonNegative("padding", c.PadH, c.PadW); err != nil {
		return err
	}
	if err := positive("dilation", c.DilationH, c.DilationW); err != nil {
		return err
	}
	if err := positive("group", c.Group); err != nil {
		return err
	}
	if c.NumOutput%c.Group != 0 {
		return errors.Newf("num_output %d not divisible by %d groups", c.NumOutput, c.Group)
	}
	return nil
}

// Deconvolution configures a transposed convolution. Its fields have the
// same meaning as in Convolution.
type Deconvolution struct {
	Convolution
}

// NewDeconvolution returns a square deconvolution with no dilation and a
// single group.
func NewDeconvolution(numOutput, kernel, stride, pad int) *Deconvolution {
	return &Deconvolution{*NewConvolution(numOutput, kernel, stride, pad)}
}

// Type returns layertype.Deconvolution.
func (*Deconvolution) Type() layertype.Type { return layertype.Deconvolution }

// PoolMode selects the pooling reduction.
type PoolMode string

const (
	PoolMax PoolMode = "MAX"
	PoolAvg PoolMode = "AVE"
)

// Pooling configures a spatial pooling. When Global is set the kernel
// covers the whole input plane and kernel, stride and padding are ignored.
type Pooling struct {
	Mode    PoolMode `json:"mode"`
	KernelH int      `json:"kernel_h"`
	KernelW int      `json:"kernel_w"`
	StrideH int      `json:"stride_h"`
	StrideW int      `json:"stride_w"`
	PadH    int      `json:"pad_h"`
	PadW    int      `json:"pad_w"`
	Global  bool     `json:"global"`
}

// NewPooling returns a square pooling.
func NewPooling(mode PoolMode, kernel, stride, pad int) *Pooling {
	return &Pooling{
		Mode:    mode,
		KernelH: kernel,
		KernelW: kernel,
		StrideH: stride,
		StrideW: stride,
		PadH:    pad,
		PadW:    pad,
	}
}

func (*Pooling) params() {}

// Type returns layertype.Pooling.
func (*Pooling) Type() layertype.Type { return layertype.Pooling }

// Validate checks the mode and, for non-global pooling, the window.
func (p *Pooling) Validate() error {
	if p.Mode != PoolMax && p.Mode != PoolAvg {
		return errors.Newf("invalid pooling mode %q", p.Mode)
	}
	if p.Global {
		return nil
	}
	if err := positive("kernel size", p.KernelH, p.KernelW); err != nil {
		return err
	}
	if err := positive("stride", p.StrideH, p.StrideW); err != nil {
		return err
	}
	if err := nonNegative("padding", p.PadH, p.PadW); err != nil {
		return err
	}
	if p.PadH >= p.KernelH || p.PadW >= p.KernelW {
		return errors.New("too much padding")
	}
	return nil
}
