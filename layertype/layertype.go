// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layertype

import (
	"github.com/cockroachdb/errors"
)

// Type is the tag identifying the kind of a layer.
type Type uint8

const (
	// Convolution is a 2D convolution.
	Convolution Type = iota + 1
	// Pooling is a max or average spatial pooling.
	Pooling
	// ReLU is a (leaky) rectified linear activation.
	ReLU
	// Softmax normalizes values into a probability distribution.
	Softmax
	// InnerProduct is a fully-connected layer.
	InnerProduct
	// ArgMax selects the top-k indices (and optionally values).
	ArgMax
	// Dropout is an inference-time no-op kept for fidelity.
	Dropout
	// Input declares a network input of fixed shape.
	Input
	// LRN is a local response normalization.
	LRN
	// Concat joins its inputs along one axis.
	Concat
	// Crop crops the first input to the size of the second.
	Crop
	// Deconvolution is a transposed 2D convolution.
	Deconvolution
	// Flatten collapses a range of axes into one.
	Flatten
	// Permute reorders axes.
	Permute
	// L2Normalize normalizes across channels (and optionally space).
	L2Normalize
	// PriorBox generates SSD prior boxes.
	PriorBox
	// Reshape changes the shape keeping the element count.
	Reshape
	// NMS is a detection output stage with non-maximum suppression.
	NMS
	// Eltwise combines same-shaped inputs element-wise.
	Eltwise
	// BatchNorm is a batch normalization with running statistics.
	BatchNorm
	// Scale multiplies by gamma and adds beta, per channel.
	Scale
	// Power computes (shift + scale * x) ^ power.
	Power
	// Custom is a user defined layer.
	Custom
	// Pack is a hardware packing layer.
	Pack
)

var typeToString = [...]string{
	Convolution:   "Convolution",
	Pooling:       "Pooling",
	ReLU:          "ReLU",
	Softmax:       "Softmax",
	InnerProduct:  "InnerProduct",
	ArgMax:        "ArgMax",
	Dropout:       "Dropout",
	Input:         "Input",
	LRN:           "LRN",
	Concat:        "Concat",
	Crop:          "Crop",
	Deconvolution: "Deconvolution",
	Flatten:       "Flatten",
	Permute:       "Permute",
	L2Normalize:   "Normalize",
	PriorBox:      "PriorBox",
	Reshape:       "Reshape",
	NMS:           "NMS",
	Eltwise:       "Eltwise",
	BatchNorm:     "BatchNorm",
	Scale:         "Scale",
	Power:         "Power",
	Custom:        "XCustom",
	Pack:          "XPack",
}

var stringToType = func() map[string]Type {
	m := make(map[string]Type, len(typeToString))
	for t, s := range typeToString {
		if s != "" {
			m[s] = Type(t)
		}
	}
	return m
}()

// All returns every valid Type, in declaration order.
func All() []Type {
	out := make([]Type, 0, len(typeToString)-1)
	for t := Convolution; t <= Pack; t++ {
		out = append(out, t)
	}
	return out
}

// Parse returns the Type whose string representation is s.
func Parse(s string) (Type, error) {
	t, ok := stringToType[s]
	if !ok {
		return 0, errors.Newf("unknown layer type %q", s)
	}
	return t, nil
}

// Validate returns an error if the Type is not valid, otherwise nil.
func (t Type) Validate() error {
	if t == 0 || t > Pack {
		return errors.Newf("invalid Type(%d)", t)
	}
	return nil
}

// String returns a string representation of a Type.
func (t Type) String() string {
	if err := t.Validate(); err != nil {
		return err.Error()
	}
	return typeToString[t]
}

// Weighted reports whether layers of this type carry trained weights,
// and therefore weight quantization parameters.
func (t Type) Weighted() bool {
	switch t {
	case Convolution, Deconvolution, InnerProduct:
		return true
	}
	return false
}

// Quantized reports whether layers of this type need calibrated
// input/output thresholds before they can run in fixed point.
func (t Type) Quantized() bool {
	switch t {
	case Convolution, Deconvolution, InnerProduct, Pooling, Eltwise,
		BatchNorm, Scale, L2Normalize, Power, Concat:
		return true
	}
	return false
}

// MarshalJSON satisfies json.Marshaler interface.
func (t Type) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return []byte(`"` + typeToString[t] + `"`), nil
}

// UnmarshalJSON satisfies json.Unmarshaler interface.
func (t *Type) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.Newf("failed to JSON-unmarshal Type from value %q", s)
	}
	v, ok := stringToType[s[1:len(s)-1]]
	if !ok {
		return errors.Newf("failed to JSON-unmarshal Type from value %q", s)
	}
	*t = v
	return nil
}

// MarshalText satisfies encoding.TextMarshaler interface.
func (t Type) MarshalText() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return []byte(typeToString[t]), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler interface.
func (t *Type) UnmarshalText(text []byte) error {
	v, ok := stringToType[string(text)]
	if !ok {
		return errors.Newf("failed to text-unmarshal Type from value %q", string(text))
	}
	*t = v
	return nil
}
