// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBranches adds two branches joined by a concat:
//
//	data -> a ---\
//	data -> b ----> cat -> out
func buildBranches(t *testing.T, g *Graph) {
	t.Helper()
	_, err := g.AddBlob("data", shape.Make(1, 3, 8, 8))
	require.NoError(t, err)
	mustAddLayer(t, g, "a", param.NewConvolution(4, 1, 1, 0), []string{"data"}, nil)
	mustAddLayer(t, g, "b", param.NewConvolution(6, 1, 1, 0), []string{"data"}, nil)
	mustAddLayer(t, g, "cat", param.NewConcat(), []string{"a", "b"}, nil)
	mustAddLayer(t, g, "out", &param.ReLU{}, []string{"cat"}, nil)
}

func TestGraph_ParentLayers(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	testCases := []struct {
		layer    string
		expected []string
	}{
		{"conv1", nil},
		{"relu1", []string{"conv1_1"}},
		{"pool1", []string{"relu1_2"}},
		{"fc_4", []string{"pool1_3"}},
		{"prob", []string{"fc_4"}},
	}
	for _, tc := range testCases {
		t.Run(tc.layer, func(t *testing.T) {
			parents, err := g.ParentLayers(tc.layer)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, parents)
		})
	}

	_, err := g.ParentLayers("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGraph_ChildLayers(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	testCases := []struct {
		layer    string
		expected []string
	}{
		{"conv1", []string{"relu1_2"}},
		{"relu1", []string{"pool1_3"}},
		{"pool1", []string{"fc_4"}},
		{"fc", []string{"prob_5"}},
		{"prob", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.layer, func(t *testing.T) {
			children, err := g.ChildLayers(tc.layer)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, children)
		})
	}

	_, err := g.ChildLayers("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGraph_Branches(t *testing.T) {
	g := newTestGraph(t)
	buildBranches(t, g)

	parents, err := g.ParentLayers("cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_1", "b_2"}, parents)

	children, err := g.ChildLayers("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat_3"}, children)

	assert.Equal(t, []string{"data"}, g.InputBlobs())
	assert.Equal(t, []string{"out"}, g.OutputBlobs())
}

func TestGraph_SharedBottom(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddBlob("x", shape.Make(1, 4))
	require.NoError(t, err)
	mustAddLayer(t, g, "sq", &param.Eltwise{Operation: param.EltwiseProd}, []string{"x", "x"}, nil)
	mustAddLayer(t, g, "both", &param.Eltwise{Operation: param.EltwiseSum}, []string{"sq", "sq"}, nil)

	parents, err := g.ParentLayers("both")
	require.NoError(t, err)
	assert.Equal(t, []string{"sq_1"}, parents)

	children, err := g.ChildLayers("sq")
	require.NoError(t, err)
	assert.Equal(t, []string{"both_2"}, children)

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"sq_1", "both_2"}, order)
}

func TestGraph_InputOutputBlobs(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)
	_, err := g.AddBlob("unused", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"data", "unused"}, g.InputBlobs())
	assert.Equal(t, []string{"prob", "unused"}, g.OutputBlobs())
}

func TestGraph_ProducerConsumers(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	p, ok := g.Producer("conv1")
	require.True(t, ok)
	assert.Equal(t, "relu1_2", p.UName())

	p, ok = g.Producer("fc")
	require.True(t, ok)
	assert.Equal(t, "fc_4", p.UName())

	_, ok = g.Producer("data")
	assert.False(t, ok)

	var consumers []string
	for _, l := range g.Consumers("conv1") {
		consumers = append(consumers, l.UName())
	}
	assert.Equal(t, []string{"relu1_2", "pool1_3"}, consumers)
	assert.Empty(t, g.Consumers("prob"))
}

func TestGraph_TopologicalOrder(t *testing.T) {
	g := newTestGraph(t)
	buildBranches(t, g)

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_1", "b_2", "cat_3", "out_4"}, order)

	empty := newTestGraph(t)
	order, err = empty.TopologicalOrder()
	require.NoError(t, err)
	assert.Empty(t, order)
}
