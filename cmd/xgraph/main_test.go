// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlpodyssey/xgraph"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGraph saves data -> relu -> prob to a temporary file.
func writeGraph(t *testing.T) string {
	t.Helper()
	g := xgraph.New(xgraph.WithName("tiny"))
	_, err := g.AddBlob("data", shape.Make(1, 4))
	require.NoError(t, err)
	_, err = g.AddLayer("relu", &param.ReLU{}, []string{"data"}, nil)
	require.NoError(t, err)
	_, err = g.AddLayer("prob", &param.Softmax{Axis: 1}, []string{"relu"}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tiny.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, xgraph.Serialize(f, g))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", "--layers", writeGraph(t))
	require.NoError(t, err)
	assert.Contains(t, out, "name:    tiny\n")
	assert.Contains(t, out, "layers:  2\n")
	assert.Contains(t, out, "blobs:   3\n")
	assert.Contains(t, out, "inputs:  [data]\n")
	assert.Contains(t, out, "outputs: [prob]\n")
	assert.Contains(t, out, "  ReLU           1\n")
	assert.Contains(t, out, "  Softmax        1\n")
	assert.Contains(t, out, "--> {relu : ReLU} -->")
}

func TestInfer(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.json")
	_, err := run(t, "infer", writeGraph(t), "-o", output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	g, err := xgraph.Deserialize(f)
	require.NoError(t, err)
	b, ok := g.Blob("prob")
	require.True(t, ok)
	assert.Equal(t, shape.Make(1, 4), b.Shape)
}

func TestPrune(t *testing.T) {
	out, err := run(t, "prune", writeGraph(t), "--start", "prob", "--clear")
	require.NoError(t, err)

	g, err := xgraph.Deserialize(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Len(t, g.Blobs(), 2)
	assert.Equal(t, "relu", g.InputBlob)
}

func TestDot(t *testing.T) {
	out, err := run(t, "dot", "--rankdir", "LR", "--infer", writeGraph(t))
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "tiny" {`)
	assert.Contains(t, out, "rankdir=LR;")
	assert.NotContains(t, out, "unknown")
}

func TestErrors(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to open graph")

	_, err = run(t, "prune", writeGraph(t), "--start", "nope")
	assert.ErrorContains(t, err, `start layer: layer "nope" not found`)

	out, err := run(t, "dot", "--rankdir", `LR; "evil" [label=x]`, writeGraph(t))
	assert.ErrorContains(t, err, "invalid rankdir")
	assert.Empty(t, out)

	_, err = run(t, "info")
	assert.Error(t, err)
}
