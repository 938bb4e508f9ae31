// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"testing"

	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_MissingThresholds(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	assert.Equal(t, []string{"conv1_1", "pool1_3", "fc_4"}, g.MissingThresholds())

	conv, ok := g.Layer("conv1")
	require.True(t, ok)
	conv.Quant.ThLayerIn, conv.Quant.ThLayerOut = 1.5, 2
	assert.Equal(t, []string{"conv1_1", "pool1_3", "fc_4"}, g.MissingThresholds(), "weighted layers need parameter thresholds")

	conv.Quant.ThParams = []float32{0.5, 0.25, 0.5, 0.75}
	pool, ok := g.Layer("pool1")
	require.True(t, ok)
	pool.Quant.ThLayerIn, pool.Quant.ThLayerOut = 2, 2

	missing := g.MissingThresholds()
	assert.Equal(t, []string{"fc_4"}, missing)
	assert.Equal(t, []string{"fc_4"}, g.PrecisionMissing)

	missing[0] = "changed"
	assert.Equal(t, []string{"fc_4"}, g.PrecisionMissing)
}

func TestGraph_AssignOutputFiles(t *testing.T) {
	g := newTestGraph(t)
	buildNet(t, g)

	g.AssignOutputFiles("dump")
	for _, l := range g.Layers() {
		assert.Equal(t, "dump/"+l.UName()+"_"+l.Top()[0], l.OutputFile)
	}

	g.AssignOutputFiles("")
	l, ok := g.Layer("fc")
	require.True(t, ok)
	assert.Equal(t, "fc_4_fc", l.OutputFile)
}

func TestGraph_Describe(t *testing.T) {
	g := newTestGraph(t, WithName("tiny"))
	buildNet(t, g)

	expected := "graph tiny: data -> prob\n" +
		"[data] --> {conv1 : Convolution} --> [conv1]\n" +
		"[conv1] --> {relu1 : ReLU} --> [conv1]\n" +
		"[conv1] --> {pool1 : Pooling} --> [pool1]\n" +
		"[pool1] --> {fc : InnerProduct} --> [fc]\n" +
		"[fc] --> {prob : Softmax} --> [prob]\n"
	assert.Equal(t, expected, g.Describe(true))

	assert.Contains(t, g.String(), "[data] --> {conv1_1 : Convolution} --> [conv1]\n")
	assert.Equal(t, "graph <unnamed>:  -> \n", newTestGraph(t).String())
}

func TestGraph_TypeCounts(t *testing.T) {
	g := newTestGraph(t)
	buildBranches(t, g)

	assert.Equal(t, map[layertype.Type]int{
		layertype.Convolution: 2,
		layertype.Concat:      1,
		layertype.ReLU:        1,
	}, g.TypeCounts())
}
