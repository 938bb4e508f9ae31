// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

// Precision is a fixed-point format: total bit-width and number of
// fractional bits. The zero value means "not set".
type Precision struct {
	BW int `json:"bw"`
	FL int `json:"fl"`
}

// IsSet reports whether a bit-width has been assigned.
func (p Precision) IsSet() bool { return p.BW > 0 }

// Quantization holds the fixed-point metadata of a layer. The values are
// produced by an external calibration step; the graph only stores and
// carries them.
type Quantization struct {
	Scheme string `json:"scheme,omitempty"`

	Input  Precision `json:"input"`
	Weight Precision `json:"weight"`
	Output Precision `json:"output"`

	BNMean         Precision `json:"bn_mean"`
	BNVariance     Precision `json:"bn_variance"`
	ScaleGamma     Precision `json:"scale_gamma"`
	ScaleBeta      Precision `json:"scale_beta"`
	ScaleGammaBySD Precision `json:"scale_gamma_by_std"`

	ThLayerIn    float32   `json:"th_layer_in"`
	ThLayerOut   float32   `json:"th_layer_out"`
	ThParams     []float32 `json:"th_params,omitempty"`
	ThBNMean     []float32 `json:"th_bn_mean,omitempty"`
	ThBNVariance []float32 `json:"th_bn_variance,omitempty"`
	ThScaleGamma []float32 `json:"th_scale_gamma,omitempty"`
	ThScaleBeta  []float32 `json:"th_scale_beta,omitempty"`
	ThL2NGamma   []float32 `json:"th_l2n_gamma,omitempty"`
}

// hasThresholds reports whether the thresholds a layer of the given kind
// needs are all present.
func (q *Quantization) hasThresholds(weighted bool) bool {
	if q.ThLayerIn == 0 || q.ThLayerOut == 0 {
		return false
	}
	return !weighted || len(q.ThParams) > 0
}
