// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import "sort"

// edge connects the producer of a blob to one of its consumers.
type edge struct {
	from, blob, to string
}

// wiring is the adjacency of a graph, derived from the blob lists.
type wiring struct {
	index   map[string]int
	in, out map[string][]edge
}

// wire resolves every bottom reference to the latest writer of the blob
// inserted before the consumer. References without such a writer are
// graph inputs and produce no edge.
func (g *Graph) wire() *wiring {
	w := &wiring{
		index: make(map[string]int, len(g.layerOrder)),
		in:    make(map[string][]edge),
		out:   make(map[string][]edge),
	}
	lastWriter := make(map[string]string)
	for i, u := range g.layerOrder {
		w.index[u] = i
		l := g.layers[u]
		for _, b := range l.bottom {
			p, ok := lastWriter[b]
			if !ok {
				continue
			}
			e := edge{from: p, blob: b, to: u}
			w.in[u] = append(w.in[u], e)
			w.out[p] = append(w.out[p], e)
		}
		for _, t := range l.top {
			lastWriter[t] = u
		}
	}
	return w
}

func (w *wiring) parents(u string) []string {
	var out []string
	for _, e := range w.in[u] {
		out = appendUnique(out, e.from)
	}
	return out
}

// children lists consumers in the order of the producer's top list, then in
// insertion order.
func (w *wiring) children(l *Layer) []string {
	var out []string
	for _, t := range l.top {
		for _, e := range w.out[l.uname] {
			if e.blob == t {
				out = appendUnique(out, e.to)
			}
		}
	}
	return out
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// ParentLayers returns the unique names of the layers producing the blobs
// read by the named layer, in bottom-list order.
func (g *Graph) ParentLayers(name string) ([]string, error) {
	l, err := g.RequireLayerPresent(name)
	if err != nil {
		return nil, err
	}
	return g.wire().parents(l.uname), nil
}

// ChildLayers returns the unique names of the layers reading the blobs
// written by the named layer, in top-list order then insertion order.
func (g *Graph) ChildLayers(name string) ([]string, error) {
	l, err := g.RequireLayerPresent(name)
	if err != nil {
		return nil, err
	}
	return g.wire().children(l), nil
}

// degrees counts, for every blob, the references from non-in-place layers
// as top (in) and as bottom (out).
func (g *Graph) degrees() (in, out map[string]int) {
	in = make(map[string]int, len(g.blobs))
	out = make(map[string]int, len(g.blobs))
	for _, u := range g.layerOrder {
		l := g.layers[u]
		if l.InPlace() {
			continue
		}
		for _, t := range l.top {
			in[t]++
		}
		for _, b := range l.bottom {
			out[b]++
		}
	}
	return in, out
}

// InputBlobs returns, in insertion order, the blobs that no layer produces.
// In-place layers neither produce nor consume.
func (g *Graph) InputBlobs() []string {
	in, _ := g.degrees()
	var names []string
	for _, name := range g.blobOrder {
		if in[name] == 0 {
			names = append(names, name)
		}
	}
	return names
}

// OutputBlobs returns, in insertion order, the blobs that no layer consumes.
// In-place layers neither produce nor consume.
func (g *Graph) OutputBlobs() []string {
	_, out := g.degrees()
	var names []string
	for _, name := range g.blobOrder {
		if out[name] == 0 {
			names = append(names, name)
		}
	}
	return names
}

// Producer returns the last layer writing the blob, or false for a blob
// no layer writes.
func (g *Graph) Producer(blob string) (*Layer, bool) {
	for i := len(g.layerOrder) - 1; i >= 0; i-- {
		l := g.layers[g.layerOrder[i]]
		for _, t := range l.top {
			if t == blob {
				return l, true
			}
		}
	}
	return nil, false
}

// Consumers returns, in insertion order, the layers reading the blob.
func (g *Graph) Consumers(blob string) []*Layer {
	var out []*Layer
	for _, u := range g.layerOrder {
		l := g.layers[u]
		for _, b := range l.bottom {
			if b == blob {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// TopologicalOrder returns every layer unique name so that each layer comes
// after its parents. Ties are broken by insertion order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	w := g.wire()
	pending := make(map[string]int, len(g.layerOrder))
	var ready []string
	for _, u := range g.layerOrder {
		pending[u] = len(w.parents(u))
		if pending[u] == 0 {
			ready = append(ready, u)
		}
	}

	order := make([]string, 0, len(g.layerOrder))
	for len(ready) > 0 {
		u := ready[0]
		ready = ready[1:]
		order = append(order, u)

		added := false
		for _, c := range w.children(g.layers[u]) {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
				added = true
			}
		}
		if added {
			sort.Slice(ready, func(i, j int) bool { return w.index[ready[i]] < w.index[ready[j]] })
		}
	}
	if len(order) != len(g.layerOrder) {
		return nil, markf(ErrCycle, "%d of %d layers are on a cycle", len(g.layerOrder)-len(order), len(g.layerOrder))
	}
	return order, nil
}
