// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

// Expect is the presence a lookup requires.
type Expect uint8

const (
	// ExpectAbsent makes a lookup fail with ErrDuplicateName on a match.
	ExpectAbsent Expect = iota
	// ExpectPresent makes a lookup fail with ErrNotFound on a miss.
	ExpectPresent
)

// Blob returns the named blob.
func (g *Graph) Blob(name string) (*Blob, bool) {
	b, ok := g.blobs[name]
	return b, ok
}

// FindBlob looks up a blob and checks the outcome against expect.
// With ExpectAbsent a successful call returns a nil Blob.
func (g *Graph) FindBlob(name string, expect Expect) (*Blob, error) {
	b, ok := g.blobs[name]
	switch {
	case expect == ExpectPresent && !ok:
		return nil, notFoundf("blob %q not found", name)
	case expect == ExpectAbsent && ok:
		return nil, duplicatef("blob %q already exists", name)
	}
	return b, nil
}

// RequireBlobAbsent fails with ErrDuplicateName if the blob exists.
func (g *Graph) RequireBlobAbsent(name string) error {
	_, err := g.FindBlob(name, ExpectAbsent)
	return err
}

// RequireBlobPresent returns the blob or fails with ErrNotFound.
func (g *Graph) RequireBlobPresent(name string) (*Blob, error) {
	return g.FindBlob(name, ExpectPresent)
}

// Layer returns the layer identified by name, which is either a unique name
// or a user name carried by exactly one layer.
func (g *Graph) Layer(name string) (*Layer, bool) {
	l, n := g.matchLayer(name)
	return l, n == 1
}

// FindLayer resolves a layer name like Layer and checks the outcome against
// expect. With ExpectPresent, a user name shared by several layers fails
// with ErrNotFound as well. With ExpectAbsent, any match fails.
func (g *Graph) FindLayer(name string, expect Expect) (*Layer, error) {
	l, n := g.matchLayer(name)
	switch {
	case expect == ExpectAbsent && n > 0:
		return nil, duplicatef("layer %q already exists", name)
	case expect == ExpectPresent && n == 0:
		return nil, notFoundf("layer %q not found", name)
	case expect == ExpectPresent && n > 1:
		return nil, notFoundf("layer name %q is ambiguous: %d layers carry it", name, n)
	}
	return l, nil
}

// RequireLayerAbsent fails with ErrDuplicateName if name resolves to a layer.
func (g *Graph) RequireLayerAbsent(name string) error {
	_, err := g.FindLayer(name, ExpectAbsent)
	return err
}

// RequireLayerPresent returns the layer or fails with ErrNotFound.
func (g *Graph) RequireLayerPresent(name string) (*Layer, error) {
	return g.FindLayer(name, ExpectPresent)
}

// matchLayer returns the layer matching name and the number of matches.
// A unique name always wins over user names.
func (g *Graph) matchLayer(name string) (*Layer, int) {
	if l, ok := g.layers[name]; ok {
		return l, 1
	}
	var (
		found *Layer
		n     int
	)
	for _, u := range g.layerOrder {
		if l := g.layers[u]; l.Name == name {
			found = l
			n++
		}
	}
	if n != 1 {
		return nil, n
	}
	return found, 1
}
