// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// DotOptions controls the Graphviz rendering of a graph.
type DotOptions struct {
	// RankDir is the layout direction. Empty means "TB".
	RankDir string
	// UseUserNames labels layers with their user names when they have one.
	UseUserNames bool
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func blobNodeID(name string) string {
	return dotQuote("blob:" + name)
}

// dotRankDir returns the layout direction to emit, "TB" when s is empty.
func dotRankDir(s string) (string, error) {
	if s == "" {
		return "TB", nil
	}
	if !validRankDir(s) {
		return "", errors.Newf("invalid rankdir %q: must be one of TB, BT, LR, RL", s)
	}
	return s, nil
}

// WriteDot writes the graph in Graphviz DOT format. Each layer is a box
// labeled with its name, type and top shapes ("unknown" until inferred);
// each graph input blob is an ellipse; each producer to consumer link is an
// edge labeled with the blob name. The graph is not modified.
func (g *Graph) WriteDot(w io.Writer, opts DotOptions) error {
	rankdir, err := dotRankDir(opts.RankDir)
	if err != nil {
		return err
	}
	wr := g.wire()

	var sb strings.Builder
	sb.WriteString("digraph ")
	sb.WriteString(dotQuote(g.Name))
	sb.WriteString(" {\n")
	fmt.Fprintf(&sb, "  rankdir=%s;\n", rankdir)
	sb.WriteString("  node [shape=box, style=rounded, fontname=\"Arial\"];\n")
	sb.WriteString("  edge [fontname=\"Arial\", fontsize=10];\n\n")

	// Blobs feeding a layer without a producer get their own node.
	var inputs []string
	for _, name := range g.InputBlobs() {
		inputs = appendUnique(inputs, name)
	}
	for _, u := range g.layerOrder {
		for _, b := range g.layers[u].bottom {
			if !hasInEdge(wr.in[u], b) {
				inputs = appendUnique(inputs, b)
			}
		}
	}
	for _, name := range inputs {
		label := name + "\n" + g.blobShapeString(name)
		fmt.Fprintf(&sb, "  %s [label=%s, shape=ellipse, style=filled, fillcolor=lightgreen];\n",
			blobNodeID(name), dotQuote(label))
	}
	sb.WriteString("\n")

	for _, u := range g.layerOrder {
		l := g.layers[u]
		shapes := make([]string, len(l.top))
		for i, t := range l.top {
			shapes[i] = g.blobShapeString(t)
		}
		label := l.displayName(opts.UseUserNames) + "\n" + l.Type().String() + "\n" + strings.Join(shapes, ", ")
		fmt.Fprintf(&sb, "  %s [label=%s];\n", dotQuote(u), dotQuote(label))
	}
	sb.WriteString("\n")

	for _, u := range g.layerOrder {
		for _, b := range g.layers[u].bottom {
			if !hasInEdge(wr.in[u], b) {
				fmt.Fprintf(&sb, "  %s -> %s;\n", blobNodeID(b), dotQuote(u))
			}
		}
		for _, e := range wr.in[u] {
			fmt.Fprintf(&sb, "  %s -> %s [label=%s];\n", dotQuote(e.from), dotQuote(e.to), dotQuote(e.blob))
		}
	}
	sb.WriteString("}\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.Wrap(err, "failed to write dot graph")
	}
	return nil
}

func hasInEdge(in []edge, blob string) bool {
	for _, e := range in {
		if e.blob == blob {
			return true
		}
	}
	return false
}

func (g *Graph) blobShapeString(name string) string {
	if b, ok := g.blobs[name]; ok {
		return b.Shape.String()
	}
	return "unknown"
}

// DrawGraph writes the DOT rendering of the graph to filename, labeling
// layers as configured by Config.UseUserNames.
func (g *Graph) DrawGraph(filename, rankdir string) (err error) {
	if _, err := dotRankDir(rankdir); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create dot file %q", filename)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = errors.Wrapf(e, "failed to close dot file %q", filename)
		}
	}()
	return g.WriteDot(f, DotOptions{RankDir: rankdir, UseUserNames: g.config.UseUserNames})
}
