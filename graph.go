// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xgraph is the intermediate representation of a neural network
// compiler: a directed acyclic graph of typed layers connected through
// named blobs.
//
// Edges are never stored. A layer reads the blobs listed in its bottom and
// writes the blobs listed in its top; the producer of a blob, as seen by a
// consumer, is the most recent layer inserted before the consumer that
// writes it. In-place layers (one bottom, one top, same blob) therefore form
// chains over a single blob, and every consumer is wired to the latest
// writer that precedes it.
//
// A Graph has a single owner and is not safe for concurrent use. The only
// state shared across graphs is the unique-name allocator (see package uid).
package xgraph

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/nlpodyssey/xgraph/param"
	"github.com/nlpodyssey/xgraph/shape"
	"github.com/nlpodyssey/xgraph/uid"
)

// Preprocess describes the input normalization attached to a network.
type Preprocess struct {
	MeanShape    shape.Shape `json:"mean_shape"`
	MeanData     []float32   `json:"mean_data,omitempty"`
	MeanFile     string      `json:"mean_file,omitempty"`
	ResizeHeight int         `json:"resize_height,omitempty"`
	ResizeWidth  int         `json:"resize_width,omitempty"`
}

// Graph owns a set of blobs and layers.
type Graph struct {
	Name string
	// InputBlob and OutputBlob are the conventional entry and exit blobs.
	InputBlob  string
	OutputBlob string
	// StartLayer and EndLayer record the boundaries of the last Prune.
	StartLayer string
	EndLayer   string
	Preprocess Preprocess
	// PrecisionMissing lists the unique names of the layers lacking
	// quantization thresholds. See MissingThresholds.
	PrecisionMissing []string

	blobs      map[string]*Blob
	blobOrder  []string
	layers     map[string]*Layer
	layerOrder []string

	alloc  *uid.Allocator
	logger logr.Logger
	config Config
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. Mutations are logged at verbosity 1.
func WithLogger(logger logr.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithAllocator sets the allocator used to mint unique layer names.
func WithAllocator(a *uid.Allocator) Option {
	return func(g *Graph) {
		g.alloc = a
	}
}

// WithName sets the graph name.
func WithName(name string) Option {
	return func(g *Graph) {
		g.Name = name
	}
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(g *Graph) {
		g.config = cfg
	}
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		blobs:  make(map[string]*Blob),
		layers: make(map[string]*Layer),
		alloc:  uid.Process(),
		logger: logr.Discard(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetLogger replaces the logger.
func (g *Graph) SetLogger(logger logr.Logger) {
	g.logger = logger
}

// Config returns the configuration the graph was created with.
func (g *Graph) Config() Config { return g.config }

// Len returns the number of layers.
func (g *Graph) Len() int { return len(g.layerOrder) }

// Layers returns all layers in insertion order.
func (g *Graph) Layers() []*Layer {
	out := make([]*Layer, len(g.layerOrder))
	for i, u := range g.layerOrder {
		out[i] = g.layers[u]
	}
	return out
}

// Blobs returns all blobs in insertion order.
func (g *Graph) Blobs() []*Blob {
	out := make([]*Blob, len(g.blobOrder))
	for i, name := range g.blobOrder {
		out[i] = g.blobs[name]
	}
	return out
}

// AddBlob adds a blob that no layer produces, typically a network input
// whose shape is known up front. The shape may be nil.
func (g *Graph) AddBlob(name string, s shape.Shape) (*Blob, error) {
	if name == "" {
		return nil, errors.New("blob name must not be empty")
	}
	if err := g.RequireBlobAbsent(name); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "blob %q", name), ErrShape)
	}
	b := g.insertBlob(name, s.Clone())
	g.logger.V(1).Info("added blob", "blob", name, "shape", b.Shape.String())
	return b, nil
}

func (g *Graph) insertBlob(name string, s shape.Shape) *Blob {
	b := &Blob{Name: name, Shape: s}
	g.blobs[name] = b
	g.blobOrder = append(g.blobOrder, name)
	if g.InputBlob == "" {
		g.InputBlob = name
	}
	return b
}

// AddLayer adds a layer reading the bottom blobs and writing the top blobs.
// An empty top defaults to a single blob named after the layer.
//
// Every bottom blob must already exist. Every top blob must be new, unless
// the layer is in place (one bottom and one top naming the same blob).
// The insertion is atomic: on error the graph is left untouched.
func (g *Graph) AddLayer(name string, p param.Params, bottom, top []string) (*Layer, error) {
	if p == nil {
		return nil, invalidLayerf("layer %q has no parameters", name)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "layer %q: invalid %s parameters", name, p.Type()), ErrInvalidLayer)
	}
	if len(top) == 0 {
		if name == "" {
			return nil, invalidLayerf("%s layer has neither a name nor top blobs", p.Type())
		}
		top = []string{name}
	}
	if err := g.checkLayerBlobs(name, bottom, top); err != nil {
		return nil, err
	}

	l := &Layer{
		Name:   name,
		Device: g.config.Device,
		Quant:  Quantization{Scheme: g.config.QuantizationScheme},
		uname:  g.mintUName(name, p),
		params: p,
		bottom: append([]string(nil), bottom...),
		top:    append([]string(nil), top...),
	}
	if g.config.DebugDir != "" {
		l.OutputFile = l.OutputFilename(l.top[0], g.config.DebugDir)
	}
	if !l.InPlace() {
		for _, t := range l.top {
			g.insertBlob(t, nil)
		}
	}
	g.layers[l.uname] = l
	g.layerOrder = append(g.layerOrder, l.uname)
	g.OutputBlob = l.top[len(l.top)-1]

	g.logger.V(1).Info("added layer", "layer", l.uname, "type", l.Type().String(), "bottom", l.bottom, "top", l.top)
	return l, nil
}

func (g *Graph) checkLayerBlobs(name string, bottom, top []string) error {
	for _, b := range bottom {
		if _, err := g.RequireBlobPresent(b); err != nil {
			return errors.Wrapf(err, "bottom of layer %q", name)
		}
	}
	seen := make(map[string]struct{}, len(top))
	for _, t := range top {
		if t == "" {
			return invalidLayerf("layer %q has an empty top blob name", name)
		}
		if _, dup := seen[t]; dup {
			return duplicatef("layer %q lists top blob %q twice", name, t)
		}
		seen[t] = struct{}{}
	}
	if isInPlace(bottom, top) {
		return nil
	}
	for _, t := range top {
		if err := g.RequireBlobAbsent(t); err != nil {
			return errors.Wrapf(err, "top of layer %q", name)
		}
	}
	return nil
}

// mintUName returns "<name>_<id>", using the type name when name is empty.
func (g *Graph) mintUName(name string, p param.Params) string {
	base := name
	if base == "" {
		base = p.Type().String()
	}
	for {
		u := base + "_" + strconv.FormatUint(g.alloc.Next(), 10)
		if _, taken := g.layers[u]; !taken {
			return u
		}
	}
}
