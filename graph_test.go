// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr/testr"
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
	"github.com/nlpodyssey/xgraph/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	logger := testr.NewWithOptions(t, testr.Options{Verbosity: 2})
	return New(append([]Option{WithLogger(logger), WithAllocator(uid.New())}, opts...)...)
}

func mustAddLayer(t *testing.T, g *Graph, name string, p param.Params, bottom, top []string) *Layer {
	t.Helper()
	l, err := g.AddLayer(name, p, bottom, top)
	require.NoError(t, err)
	return l
}

// buildNet adds a small classifier:
//
//	data -> conv1 -> relu1 (in place) -> pool1 -> fc -> prob
//
// With a fresh allocator the unique names are conv1_1, relu1_2, pool1_3,
// fc_4 and prob_5.
func buildNet(t *testing.T, g *Graph) {
	t.Helper()
	_, err := g.AddBlob("data", shape.Make(1, 3, 8, 8))
	require.NoError(t, err)
	mustAddLayer(t, g, "conv1", param.NewConvolution(4, 3, 1, 1), []string{"data"}, nil)
	mustAddLayer(t, g, "relu1", &param.ReLU{}, []string{"conv1"}, []string{"conv1"})
	mustAddLayer(t, g, "pool1", param.NewPooling(param.PoolMax, 2, 2, 0), []string{"conv1"}, nil)
	mustAddLayer(t, g, "fc", &param.InnerProduct{NumOutput: 10, BiasTerm: true}, []string{"pool1"}, nil)
	mustAddLayer(t, g, "prob", &param.Softmax{Axis: 1}, []string{"fc"}, nil)
}

func layerUNames(g *Graph) []string {
	var out []string
	for _, l := range g.Layers() {
		out = append(out, l.UName())
	}
	return out
}

func blobNames(g *Graph) []string {
	var out []string
	for _, b := range g.Blobs() {
		out = append(out, b.Name)
	}
	return out
}

func TestNew(t *testing.T) {
	g := New(WithName("net"))
	assert.Equal(t, "net", g.Name)
	assert.Equal(t, DefaultConfig(), g.Config())
	assert.Same(t, uid.Process(), g.alloc)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Layers())
	assert.Empty(t, g.Blobs())
}

func TestGraph_AddBlob(t *testing.T) {
	g := newTestGraph(t)

	b, err := g.AddBlob("data", shape.Make(1, 3, 224, 224))
	require.NoError(t, err)
	assert.Equal(t, "data", b.Name)
	assert.Equal(t, shape.Make(1, 3, 224, 224), b.Shape)
	assert.Equal(t, "data", g.InputBlob)

	_, err = g.AddBlob("im_info", nil)
	require.NoError(t, err)
	assert.Equal(t, "data", g.InputBlob)
	assert.Equal(t, []string{"data", "im_info"}, blobNames(g))

	t.Run("duplicate", func(t *testing.T) {
		_, err := g.AddBlob("data", nil)
		assert.True(t, errors.Is(err, ErrDuplicateName))
		assert.EqualError(t, err, `blob "data" already exists`)
	})
	t.Run("empty name", func(t *testing.T) {
		_, err := g.AddBlob("", nil)
		assert.Error(t, err)
	})
	t.Run("negative dimension", func(t *testing.T) {
		_, err := g.AddBlob("bad", shape.Shape{1, -3})
		assert.True(t, errors.Is(err, ErrShape))
		_, ok := g.Blob("bad")
		assert.False(t, ok)
	})
}

func TestGraph_AddLayer(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	assert.Equal(t, []string{"conv1_1", "relu1_2", "pool1_3", "fc_4", "prob_5"}, layerUNames(g))
	assert.Equal(t, []string{"data", "conv1", "pool1", "fc", "prob"}, blobNames(g))
	assert.Equal(t, "data", g.InputBlob)
	assert.Equal(t, "prob", g.OutputBlob)

	conv, ok := g.Layer("conv1")
	require.True(t, ok)
	assert.Equal(t, layertype.Convolution, conv.Type())
	assert.Equal(t, []string{"data"}, conv.Bottom())
	assert.Equal(t, []string{"conv1"}, conv.Top())
	assert.False(t, conv.InPlace())
	assert.Equal(t, DeviceSoftware, conv.Device)
	assert.Equal(t, "DynamicFixed", conv.Quant.Scheme)
	assert.Empty(t, conv.OutputFile)

	relu, ok := g.Layer("relu1")
	require.True(t, ok)
	assert.True(t, relu.InPlace())
	assert.Equal(t, relu.Bottom(), relu.Top())

	conv.Bottom()[0] = "changed"
	assert.Equal(t, []string{"data"}, conv.Bottom())
}

func TestGraph_AddLayer_Unnamed(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddBlob("x", shape.Make(1, 2))
	require.NoError(t, err)

	l := mustAddLayer(t, g, "", &param.ReLU{}, []string{"x"}, []string{"y"})
	assert.Equal(t, "ReLU_1", l.UName())
	assert.Empty(t, l.Name)

	_, err = g.AddLayer("", &param.ReLU{}, []string{"y"}, nil)
	assert.True(t, errors.Is(err, ErrInvalidLayer))
}

func TestGraph_AddLayer_InPlaceOnInput(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddBlob("data", shape.Make(1, 3, 4, 4))
	require.NoError(t, err)

	l := mustAddLayer(t, g, "scale", &param.Power{Power: 1, Scale: 0.5}, []string{"data"}, []string{"data"})
	assert.True(t, l.InPlace())
	assert.Equal(t, []string{"data"}, blobNames(g))
	assert.Equal(t, "data", g.OutputBlob)
}

func TestGraph_AddLayer_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		layer    string
		p        param.Params
		bottom   []string
		top      []string
		kind     error
		expected string
	}{
		{"missing bottom", "x", &param.ReLU{}, []string{"nope"}, nil, ErrNotFound, `bottom of layer "x": blob "nope" not found`},
		{"existing top", "x", &param.ReLU{}, []string{"data"}, []string{"conv1"}, ErrDuplicateName, `top of layer "x": blob "conv1" already exists`},
		{"default top exists", "fc", &param.ReLU{}, []string{"data"}, nil, ErrDuplicateName, `top of layer "fc": blob "fc" already exists`},
		{"repeated top", "x", &param.ReLU{}, []string{"data"}, []string{"a", "a"}, ErrDuplicateName, `layer "x" lists top blob "a" twice`},
		{"empty top name", "x", &param.ReLU{}, []string{"data"}, []string{""}, ErrInvalidLayer, `layer "x" has an empty top blob name`},
		{"partial in place", "x", &param.Eltwise{Operation: param.EltwiseSum}, []string{"conv1", "fc"}, []string{"conv1"}, ErrDuplicateName, `top of layer "x": blob "conv1" already exists`},
		{"nil params", "x", nil, []string{"data"}, nil, ErrInvalidLayer, `layer "x" has no parameters`},
		{"invalid params", "x", &param.InnerProduct{}, []string{"data"}, nil, ErrInvalidLayer, `layer "x": invalid InnerProduct parameters: num_output must be positive, got 0`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGraph(t)
			buildNet(t, g)
			layers, blobs := layerUNames(g), blobNames(g)

			_, err := g.AddLayer(tc.layer, tc.p, tc.bottom, tc.top)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind))
			assert.EqualError(t, err, tc.expected)

			assert.Equal(t, layers, layerUNames(g))
			assert.Equal(t, blobs, blobNames(g))
			assert.Equal(t, "prob", g.OutputBlob)
		})
	}
}

func TestGraph_AddLayer_Config(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = DeviceHardware
	cfg.QuantizationScheme = "Int8"
	cfg.DebugDir = "dump"
	g := newTestGraph(t, WithConfig(cfg))
	_, err := g.AddBlob("data", shape.Make(1, 3, 8, 8))
	require.NoError(t, err)

	l := mustAddLayer(t, g, "conv1", param.NewConvolution(4, 3, 1, 1), []string{"data"}, nil)
	assert.Equal(t, DeviceHardware, l.Device)
	assert.Equal(t, "Int8", l.Quant.Scheme)
	assert.Equal(t, "dump/conv1_1_conv1", l.OutputFile)
}

func TestGraph_UNamesAcrossGraphs(t *testing.T) {
	g1, g2 := New(), New()
	for _, g := range []*Graph{g1, g2} {
		_, err := g.AddBlob("in", shape.Make(1))
		require.NoError(t, err)
		mustAddLayer(t, g, "relu", &param.ReLU{}, []string{"in"}, nil)
	}
	l1, ok := g1.Layer("relu")
	require.True(t, ok)
	l2, ok := g2.Layer("relu")
	require.True(t, ok)
	assert.NotEqual(t, l1.UName(), l2.UName())
}

func TestGraph_SetLogger(t *testing.T) {
	g := New()
	g.SetLogger(testr.New(t))
	_, err := g.AddBlob("x", nil)
	assert.NoError(t, err)
}
