// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

// DeleteBlob removes a blob and returns the unique names of the layers whose
// only input it was. Those layers are left untouched: their bottom lists
// still mention the blob, and it is up to the caller to rewire or delete
// them.
func (g *Graph) DeleteBlob(name string) ([]string, error) {
	if _, err := g.RequireBlobPresent(name); err != nil {
		return nil, err
	}

	var orphaned []string
	for _, u := range g.layerOrder {
		if soleInput(g.layers[u].bottom, name) {
			orphaned = append(orphaned, u)
		}
	}

	g.removeBlob(name)
	g.logger.V(1).Info("deleted blob", "blob", name, "orphanedLayers", orphaned)
	return orphaned, nil
}

func soleInput(bottom []string, name string) bool {
	if len(bottom) == 0 {
		return false
	}
	for _, b := range bottom {
		if b != name {
			return false
		}
	}
	return true
}

func (g *Graph) removeBlob(name string) {
	delete(g.blobs, name)
	g.blobOrder = filter(g.blobOrder, func(b string) bool { return b != name })
	if g.InputBlob == name {
		g.InputBlob = ""
	}
	if g.OutputBlob == name {
		g.OutputBlob = ""
	}
}

// DeleteLayer removes a layer and returns the names of its top blobs that
// no remaining layer refers to. Blobs still read by other layers are kept
// and become inputs of the graph.
func (g *Graph) DeleteLayer(name string) ([]string, error) {
	l, err := g.RequireLayerPresent(name)
	if err != nil {
		return nil, err
	}

	delete(g.layers, l.uname)
	g.layerOrder = filter(g.layerOrder, func(u string) bool { return u != l.uname })
	g.PrecisionMissing = filter(g.PrecisionMissing, func(u string) bool { return u != l.uname })
	if g.StartLayer == l.uname {
		g.StartLayer = ""
	}
	if g.EndLayer == l.uname {
		g.EndLayer = ""
	}

	referenced := g.referencedBlobs()
	var orphaned []string
	for _, t := range l.top {
		if !referenced[t] {
			orphaned = appendUnique(orphaned, t)
		}
	}

	g.logger.V(1).Info("deleted layer", "layer", l.uname, "orphanedBlobs", orphaned)
	return orphaned, nil
}

// ClearNodes deletes the blobs no layer refers to and returns their names.
func (g *Graph) ClearNodes() []string {
	referenced := g.referencedBlobs()
	var cleared []string
	for _, name := range g.blobOrder {
		if !referenced[name] {
			cleared = append(cleared, name)
		}
	}
	for _, name := range cleared {
		g.removeBlob(name)
	}
	if len(cleared) > 0 {
		g.logger.V(1).Info("cleared unreferenced blobs", "blobs", cleared)
	}
	return cleared
}

func (g *Graph) referencedBlobs() map[string]bool {
	referenced := make(map[string]bool, len(g.blobs))
	for _, u := range g.layerOrder {
		l := g.layers[u]
		for _, b := range l.bottom {
			referenced[b] = true
		}
		for _, t := range l.top {
			referenced[t] = true
		}
	}
	return referenced
}
