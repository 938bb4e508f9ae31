// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/shape"
)

// ReLU configures a rectified linear unit; a non-zero NegativeSlope makes
// it leaky.
type ReLU struct {
	NegativeSlope float32 `json:"negative_slope"`
}

func (*ReLU) params()              {}
func (*ReLU) Type() layertype.Type { return layertype.ReLU }
func (*ReLU) Validate() error      { return nil }

// Softmax normalizes along Axis.
type Softmax struct {
	Axis int `json:"axis"`
}

func (*Softmax) params()              {}
func (*Softmax) Type() layertype.Type { return layertype.Softmax }

// Validate accepts any axis; the range is checked against the input rank
// during shape inference.
func (*Softmax) Validate() error { return nil }

// InnerProduct configures a fully-connected layer.
type InnerProduct struct {
	NumOutput int  `json:"num_output"`
	BiasTerm  bool `json:"bias_term"`
}

func (*InnerProduct) params()              {}
func (*InnerProduct) Type() layertype.Type { return layertype.InnerProduct }

func (ip *InnerProduct) Validate() error {
	return positive("num_output", ip.NumOutput)
}

// ArgMax selects the TopK largest entries. Without an explicit Axis the
// whole sample is searched and the output is [N, 1 or 2, TopK].
type ArgMax struct {
	TopK      int  `json:"top_k"`
	OutMaxVal bool `json:"out_max_val"`
	Axis      *int `json:"axis,omitempty"`
}

func (*ArgMax) params()              {}
func (*ArgMax) Type() layertype.Type { return layertype.ArgMax }

func (a *ArgMax) Validate() error {
	return positive("top_k", a.TopK)
}

// Dropout keeps the training ratio for reference only.
type Dropout struct {
	Ratio float32 `json:"ratio"`
}

func (*Dropout) params()              {}
func (*Dropout) Type() layertype.Type { return layertype.Dropout }

func (d *Dropout) Validate() error {
	if d.Ratio < 0 || d.Ratio >= 1 {
		return errors.Newf("dropout ratio must be in [0, 1), got %g", d.Ratio)
	}
	return nil
}

// Input declares the shape of a network input.
type Input struct {
	Shape shape.Shape `json:"shape"`
}

func (*Input) params()              {}
func (*Input) Type() layertype.Type { return layertype.Input }

func (in *Input) Validate() error {
	if !in.Shape.Known() {
		return errors.New("input shape is required")
	}
	return positive("input dimension", in.Shape...)
}

// LRNRegion selects where local response normalization sums.
type LRNRegion string

const (
	AcrossChannels LRNRegion = "ACROSS_CHANNELS"
	WithinChannel  LRNRegion = "WITHIN_CHANNEL"
)

// LRN configures a local response normalization.
type LRN struct {
	LocalSize int       `json:"local_size"`
	Alpha     float32   `json:"alpha"`
	Beta      float32   `json:"beta"`
	K         float32   `json:"k"`
	Region    LRNRegion `json:"norm_region"`
}

func (*LRN) params()              {}
func (*LRN) Type() layertype.Type { return layertype.LRN }

func (l *LRN) Validate() error {
	if l.LocalSize <= 0 || l.LocalSize%2 == 0 {
		return errors.Newf("local_size must be a positive odd number, got %d", l.LocalSize)
	}
	if l.Region != AcrossChannels && l.Region != WithinChannel {
		return errors.Newf("invalid norm region %q", l.Region)
	}
	return nil
}

// Concat joins inputs along Axis (1 is the channel axis of NCHW blobs).
type Concat struct {
	Axis int `json:"axis"`
}

// NewConcat returns a channel-wise concatenation.
func NewConcat() *Concat {
	return &Concat{Axis: 1}
}

func (*Concat) params()              {}
func (*Concat) Type() layertype.Type { return layertype.Concat }
func (*Concat) Validate() error      { return nil }

// Crop crops the first input to the dimensions of the second, starting
// from Axis. Offset holds either one offset for every cropped axis or one
// per cropped axis.
type Crop struct {
	Axis   int   `json:"axis"`
	Offset []int `json:"offset,omitempty"`
}

func (*Crop) params()              {}
func (*Crop) Type() layertype.Type { return layertype.Crop }

func (c *Crop) Validate() error {
	return nonNegative("crop offset", c.Offset...)
}

// Flatten collapses axes Axis through EndAxis (inclusive) into one.
type Flatten struct {
	Axis    int `json:"axis"`
	EndAxis int `json:"end_axis"`
}

func (*Flatten) params()              {}
func (*Flatten) Type() layertype.Type { return layertype.Flatten }
func (*Flatten) Validate() error      { return nil }

// Permute reorders axes: output axis i is input axis Order[i].
type Permute struct {
	Order []int `json:"order"`
}

func (*Permute) params()              {}
func (*Permute) Type() layertype.Type { return layertype.Permute }

func (p *Permute) Validate() error {
	if len(p.Order) == 0 {
		return errors.New("permute order is required")
	}
	seen := make([]bool, len(p.Order))
	for _, a := range p.Order {
		if a < 0 || a >= len(p.Order) {
			return errors.Newf("permute axis %d out of range", a)
		}
		if seen[a] {
			return errors.Newf("permute axis %d repeated", a)
		}
		seen[a] = true
	}
	return nil
}

// L2Normalize configures an SSD-style normalization.
type L2Normalize struct {
	AcrossSpatial bool    `json:"across_spatial"`
	ChannelShared bool    `json:"channel_shared"`
	Eps           float32 `json:"eps"`
}

func (*L2Normalize) params()              {}
func (*L2Normalize) Type() layertype.Type { return layertype.L2Normalize }

func (l *L2Normalize) Validate() error {
	if l.Eps < 0 {
		return errors.Newf("eps must not be negative, got %g", l.Eps)
	}
	return nil
}

// Reshape gives a new shape to a blob. A 0 copies the corresponding input
// dimension, a single -1 is inferred from the element count.
type Reshape struct {
	Shape []int `json:"shape"`
}

func (*Reshape) params()              {}
func (*Reshape) Type() layertype.Type { return layertype.Reshape }

func (r *Reshape) Validate() error {
	if len(r.Shape) == 0 {
		return errors.New("reshape target is required")
	}
	wildcards := 0
	for _, v := range r.Shape {
		switch {
		case v == -1:
			wildcards++
		case v < -1:
			return errors.Newf("invalid reshape dimension %d", v)
		}
	}
	if wildcards > 1 {
		return errors.New("at most one reshape dimension can be -1")
	}
	return nil
}

// EltwiseOp selects the element-wise reduction.
type EltwiseOp string

const (
	EltwiseProd EltwiseOp = "PROD"
	EltwiseSum  EltwiseOp = "SUM"
	EltwiseMax  EltwiseOp = "MAX"
)

// Eltwise combines two or more same-shaped inputs.
type Eltwise struct {
	Operation EltwiseOp `json:"operation"`
	Coeff     []float32 `json:"coeff,omitempty"`
}

func (*Eltwise) params()              {}
func (*Eltwise) Type() layertype.Type { return layertype.Eltwise }

func (e *Eltwise) Validate() error {
	switch e.Operation {
	case EltwiseProd, EltwiseMax:
		if len(e.Coeff) > 0 {
			return errors.Newf("coefficients are only allowed for %s", EltwiseSum)
		}
	case EltwiseSum:
	default:
		return errors.Newf("invalid eltwise operation %q", e.Operation)
	}
	return nil
}

// BatchNorm holds the running statistics of a batch normalization.
// Mean and Variance are either both empty or one value per channel.
type BatchNorm struct {
	Eps            float32   `json:"eps"`
	UseGlobalStats bool      `json:"use_global_stats"`
	Mean           []float32 `json:"mean,omitempty"`
	Variance       []float32 `json:"variance,omitempty"`
}

func (*BatchNorm) params()              {}
func (*BatchNorm) Type() layertype.Type { return layertype.BatchNorm }

func (b *BatchNorm) Validate() error {
	if b.Eps < 0 {
		return errors.Newf("eps must not be negative, got %g", b.Eps)
	}
	if len(b.Mean) != len(b.Variance) {
		return errors.Newf("%d means but %d variances", len(b.Mean), len(b.Variance))
	}
	for _, v := range b.Variance {
		if v < 0 {
			return errors.Newf("negative variance %g", v)
		}
	}
	return nil
}

// Channels is the number of per-channel statistics, 0 if none are held.
func (b *BatchNorm) Channels() int { return len(b.Mean) }

// Scale multiplies by Gamma and, with BiasTerm, adds Beta per channel.
type Scale struct {
	BiasTerm bool      `json:"bias_term"`
	Gamma    []float32 `json:"gamma,omitempty"`
	Beta     []float32 `json:"beta,omitempty"`
}

func (*Scale) params()              {}
func (*Scale) Type() layertype.Type { return layertype.Scale }

func (s *Scale) Validate() error {
	if !s.BiasTerm && len(s.Beta) > 0 {
		return errors.New("beta given without bias term")
	}
	if len(s.Beta) > 0 && len(s.Beta) != len(s.Gamma) {
		return errors.Newf("%d gammas but %d betas", len(s.Gamma), len(s.Beta))
	}
	return nil
}

// Channels is the number of per-channel factors, 0 if none are held.
func (s *Scale) Channels() int { return len(s.Gamma) }

// Power computes (Shift + Scale * x) ^ Power.
type Power struct {
	Power float32 `json:"power"`
	Scale float32 `json:"scale"`
	Shift float32 `json:"shift"`
}

func (*Power) params()              {}
func (*Power) Type() layertype.Type { return layertype.Power }
func (*Power) Validate() error      { return nil }

// Custom describes a layer the compiler does not know. Its output shapes
// cannot be inferred, so they are either declared in OutputShapes or
// taken to be the shape of the first input.
type Custom struct {
	Kind         string            `json:"kind"`
	Attrs        map[string]string `json:"attrs,omitempty"`
	OutputShapes []shape.Shape     `json:"output_shapes,omitempty"`
}

func (*Custom) params()              {}
func (*Custom) Type() layertype.Type { return layertype.Custom }

func (c *Custom) Validate() error {
	if c.Kind == "" {
		return errors.New("custom layer kind is required")
	}
	for i, s := range c.OutputShapes {
		if !s.Known() {
			return errors.Newf("output shape %d is empty", i)
		}
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "output shape %d", i)
		}
	}
	return nil
}

// Pack rearranges data into the layout expected by the accelerator. It
// does not change the logical shape.
type Pack struct {
	Kind string `json:"kind,omitempty"`
}

func (*Pack) params()              {}
func (*Pack) Type() layertype.Type { return layertype.Pack }
func (*Pack) Validate() error      { return nil }
