// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package param defines the configuration payloads attached to layers.
//
// There is exactly one payload record per layer type. All records implement
// the sealed Params interface, so a layer holding a Params value always
// knows its own type and can never carry a payload of another kind.
package param

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
)

// Params is the closed set of layer payloads.
type Params interface {
	// Type is the layer type this payload configures.
	Type() layertype.Type
	// Validate reports structurally impossible values.
	Validate() error

	params()
}

// New returns the payload for t, filled with default values.
func New(t layertype.Type) (Params, error) {
	switch t {
	case layertype.Convolution:
		return &Convolution{StrideH: 1, StrideW: 1, DilationH: 1, DilationW: 1, Group: 1, BiasTerm: true}, nil
	case layertype.Deconvolution:
		return &Deconvolution{Convolution{StrideH: 1, StrideW: 1, DilationH: 1, DilationW: 1, Group: 1, BiasTerm: true}}, nil
	case layertype.Pooling:
		return &Pooling{Mode: PoolMax, StrideH: 1, StrideW: 1}, nil
	case layertype.ReLU:
		return &ReLU{}, nil
	case layertype.Softmax:
		return &Softmax{Axis: 1}, nil
	case layertype.InnerProduct:
		return &InnerProduct{BiasTerm: true}, nil
	case layertype.ArgMax:
		return &ArgMax{TopK: 1}, nil
	case layertype.Dropout:
		return &Dropout{Ratio: 0.5}, nil
	case layertype.Input:
		return &Input{}, nil
	case layertype.LRN:
		return &LRN{LocalSize: 5, Alpha: 1, Beta: 0.75, K: 1, Region: AcrossChannels}, nil
	case layertype.Concat:
		return &Concat{Axis: 1}, nil
	case layertype.Crop:
		return &Crop{Axis: 2}, nil
	case layertype.Flatten:
		return &Flatten{Axis: 1, EndAxis: -1}, nil
	case layertype.Permute:
		return &Permute{}, nil
	case layertype.L2Normalize:
		return &L2Normalize{AcrossSpatial: true, ChannelShared: true, Eps: 1e-10}, nil
	case layertype.PriorBox:
		return &PriorBox{Flip: true, Offset: 0.5}, nil
	case layertype.Reshape:
		return &Reshape{}, nil
	case layertype.NMS:
		return &NMS{ShareLocation: true, NMSThreshold: 0.45, TopK: 400, KeepTopK: 200}, nil
	case layertype.Eltwise:
		return &Eltwise{Operation: EltwiseSum}, nil
	case layertype.BatchNorm:
		return &BatchNorm{Eps: 1e-5, UseGlobalStats: true}, nil
	case layertype.Scale:
		return &Scale{}, nil
	case layertype.Power:
		return &Power{Power: 1, Scale: 1}, nil
	case layertype.Custom:
		return &Custom{}, nil
	case layertype.Pack:
		return &Pack{}, nil
	}
	return nil, errors.Newf("no parameters for layer type %s", t)
}

// Unmarshal decodes the JSON payload of a layer of type t.
// Fields absent from data keep the defaults of New; unknown fields are
// rejected. The decoded payload is validated.
func Unmarshal(t layertype.Type, data []byte) (Params, error) {
	p, err := New(t)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, errors.Wrapf(err, "failed to JSON-decode %s parameters", t)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s parameters", t)
	}
	return p, nil
}

func positive(name string, vs ...int) error {
	for _, v := range vs {
		if v <= 0 {
			return errors.Newf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func nonNegative(name string, vs ...int) error {
	for _, v := range vs {
		if v < 0 {
			return errors.Newf("%s must not be negative, got %d", name, v)
		}
	}
	return nil
}
