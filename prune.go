// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import "github.com/cockroachdb/errors"

// Prune keeps only the layers lying on a path from start to end, both
// included, and drops the blobs no kept layer refers to any more.
//
// An empty start stands for every source layer (no parents); an empty end
// stands for every sink layer (no children). Boundary names are resolved
// like Layer does.
//
// Prune fails with ErrPrune, leaving the graph untouched, when a boundary
// cannot be resolved or when no layer lies between the boundaries.
func (g *Graph) Prune(start, end string) error {
	w := g.wire()

	starts, err := g.pruneBoundary(start, "start", func(u string) bool { return len(w.in[u]) == 0 })
	if err != nil {
		return err
	}
	ends, err := g.pruneBoundary(end, "end", func(u string) bool { return len(w.out[u]) == 0 })
	if err != nil {
		return err
	}

	forward := g.closure(starts, func(u string) []string { return w.children(g.layers[u]) })
	backward := g.closure(ends, w.parents)

	var keep []string
	for _, u := range g.layerOrder {
		if forward[u] && backward[u] {
			keep = append(keep, u)
		}
	}
	if len(keep) == 0 {
		return prunef("no layer lies between %q and %q", start, end)
	}

	keptSet := make(map[string]bool, len(keep))
	referenced := make(map[string]bool)
	for _, u := range keep {
		keptSet[u] = true
		l := g.layers[u]
		for _, b := range l.bottom {
			referenced[b] = true
		}
		for _, t := range l.top {
			referenced[t] = true
		}
	}
	dropBlob := make(map[string]bool)
	for _, u := range g.layerOrder {
		if keptSet[u] {
			continue
		}
		l := g.layers[u]
		for _, b := range append(l.Bottom(), l.top...) {
			if !referenced[b] {
				dropBlob[b] = true
			}
		}
	}

	// Nothing below can fail.
	removedLayers := len(g.layerOrder) - len(keep)
	for _, u := range g.layerOrder {
		if !keptSet[u] {
			delete(g.layers, u)
		}
	}
	g.layerOrder = keep
	g.blobOrder = filter(g.blobOrder, func(name string) bool {
		if dropBlob[name] {
			delete(g.blobs, name)
			return false
		}
		return true
	})
	g.PrecisionMissing = filter(g.PrecisionMissing, func(u string) bool { return keptSet[u] })

	g.StartLayer, g.EndLayer = keep[0], keep[len(keep)-1]
	if start != "" {
		g.StartLayer = starts[0]
	}
	if end != "" {
		g.EndLayer = ends[0]
	}
	g.InputBlob, g.OutputBlob = "", ""
	if in := g.InputBlobs(); len(in) > 0 {
		g.InputBlob = in[0]
	}
	if out := g.OutputBlobs(); len(out) > 0 {
		g.OutputBlob = out[0]
	}

	g.logger.V(1).Info("pruned graph",
		"start", g.StartLayer, "end", g.EndLayer,
		"removedLayers", removedLayers, "removedBlobs", len(dropBlob))
	return nil
}

// pruneBoundary resolves a boundary name, or collects the layers matching
// dflt when name is empty.
func (g *Graph) pruneBoundary(name, which string, dflt func(string) bool) ([]string, error) {
	if name != "" {
		l, err := g.RequireLayerPresent(name)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s layer", which), ErrPrune)
		}
		return []string{l.uname}, nil
	}
	var out []string
	for _, u := range g.layerOrder {
		if dflt(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

// closure returns the layers reachable from roots through next, roots
// included.
func (g *Graph) closure(roots []string, next func(string) []string) map[string]bool {
	seen := make(map[string]bool, len(g.layerOrder))
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[u] {
			continue
		}
		seen[u] = true
		stack = append(stack, next(u)...)
	}
	return seen
}

// filter keeps, in place, the elements of s satisfying keep.
func filter(s []string, keep func(string) bool) []string {
	out := s[:0]
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
