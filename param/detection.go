// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
)

// PriorBox generates SSD default boxes for every location of a feature map.
type PriorBox struct {
	MinSizes     []float32 `json:"min_sizes"`
	MaxSizes     []float32 `json:"max_sizes,omitempty"`
	AspectRatios []float32 `json:"aspect_ratios,omitempty"`
	Flip         bool      `json:"flip"`
	Clip         bool      `json:"clip"`
	Variance     []float32 `json:"variance,omitempty"`
	StepH        float32   `json:"step_h,omitempty"`
	StepW        float32   `json:"step_w,omitempty"`
	Offset       float32   `json:"offset"`
}

func (*PriorBox) params()              {}
func (*PriorBox) Type() layertype.Type { return layertype.PriorBox }

func (p *PriorBox) Validate() error {
	if len(p.MinSizes) == 0 {
		return errors.New("at least one min size is required")
	}
	if len(p.MaxSizes) > 0 && len(p.MaxSizes) != len(p.MinSizes) {
		return errors.Newf("%d min sizes but %d max sizes", len(p.MinSizes), len(p.MaxSizes))
	}
	for i, m := range p.MinSizes {
		if m <= 0 {
			return errors.Newf("min size must be positive, got %g", m)
		}
		if len(p.MaxSizes) > 0 && p.MaxSizes[i] <= m {
			return errors.Newf("max size %g must be greater than min size %g", p.MaxSizes[i], m)
		}
	}
	for _, ar := range p.AspectRatios {
		if ar <= 0 {
			return errors.Newf("aspect ratio must be positive, got %g", ar)
		}
	}
	if n := len(p.Variance); n != 0 && n != 1 && n != 4 {
		return errors.Newf("variance must hold 1 or 4 values, got %d", n)
	}
	return nil
}

// ExpandedAspectRatios returns 1 followed by every distinct aspect ratio,
// and its reciprocal when Flip is set.
func (p *PriorBox) ExpandedAspectRatios() []float32 {
	out := []float32{1}
	seen := func(v float32) bool {
		for _, o := range out {
			if math.Abs(float64(o-v)) < 1e-6 {
				return true
			}
		}
		return false
	}
	for _, ar := range p.AspectRatios {
		if seen(ar) {
			continue
		}
		out = append(out, ar)
		if p.Flip {
			out = append(out, 1/ar)
		}
	}
	return out
}

// NumPriors is the number of boxes generated at each location.
func (p *PriorBox) NumPriors() int {
	return len(p.ExpandedAspectRatios())*len(p.MinSizes) + len(p.MaxSizes)
}

// NMS configures a detection output stage: box decoding followed by
// per-class non-maximum suppression. A negative TopK means no limit
// before suppression; KeepTopK bounds the number of detections kept.
type NMS struct {
	NumClasses          int     `json:"num_classes"`
	ShareLocation       bool    `json:"share_location"`
	BackgroundLabelID   int     `json:"background_label_id"`
	NMSThreshold        float32 `json:"nms_threshold"`
	ConfidenceThreshold float32 `json:"confidence_threshold"`
	TopK                int     `json:"top_k"`
	KeepTopK            int     `json:"keep_top_k"`
}

func (*NMS) params()              {}
func (*NMS) Type() layertype.Type { return layertype.NMS }

func (n *NMS) Validate() error {
	if err := positive("num_classes", n.NumClasses); err != nil {
		return err
	}
	if n.NMSThreshold < 0 || n.NMSThreshold > 1 {
		return errors.Newf("nms threshold must be in [0, 1], got %g", n.NMSThreshold)
	}
	if n.TopK == 0 {
		return errors.New("top_k must not be zero")
	}
	if err := positive("keep_top_k", n.KeepTopK); err != nil {
		return err
	}
	return nil
}
