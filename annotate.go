// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"strings"

	"github.com/nlpodyssey/xgraph/layertype"
)

// AssignOutputFiles sets the OutputFile of every layer to the debug dump
// path of its first top blob inside dirname.
func (g *Graph) AssignOutputFiles(dirname string) {
	for _, u := range g.layerOrder {
		l := g.layers[u]
		l.OutputFile = l.OutputFilename(l.top[0], dirname)
	}
}

// MissingThresholds recomputes PrecisionMissing: the layers of a quantized
// type whose input or output threshold is unset, plus the weighted layers
// without parameter thresholds. The new list is also returned.
func (g *Graph) MissingThresholds() []string {
	var missing []string
	for _, u := range g.layerOrder {
		l := g.layers[u]
		t := l.Type()
		if !t.Quantized() {
			continue
		}
		if !l.Quant.hasThresholds(t.Weighted()) {
			missing = append(missing, u)
		}
	}
	g.PrecisionMissing = missing
	if len(missing) > 0 {
		g.logger.V(1).Info("layers without quantization thresholds", "layers", missing)
	}
	return append([]string(nil), missing...)
}

// Describe renders the graph one layer per line, in insertion order,
// preceded by a header line with the graph name and its entry and exit
// blobs.
func (g *Graph) Describe(useUserNames bool) string {
	var sb strings.Builder
	sb.WriteString("graph ")
	if g.Name != "" {
		sb.WriteString(g.Name)
	} else {
		sb.WriteString("<unnamed>")
	}
	sb.WriteString(": ")
	sb.WriteString(g.InputBlob)
	sb.WriteString(" -> ")
	sb.WriteString(g.OutputBlob)
	sb.WriteByte('\n')
	for _, u := range g.layerOrder {
		sb.WriteString(g.layers[u].Describe(useUserNames))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the graph with unique layer names.
func (g *Graph) String() string { return g.Describe(false) }

// TypeCounts returns the number of layers of each type present.
func (g *Graph) TypeCounts() map[layertype.Type]int {
	counts := make(map[layertype.Type]int)
	for _, u := range g.layerOrder {
		counts[g.layers[u].Type()]++
	}
	return counts
}
