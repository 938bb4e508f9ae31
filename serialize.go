// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
)

type graphDoc struct {
	Name             string     `json:"name,omitempty"`
	InputBlob        string     `json:"input_blob,omitempty"`
	OutputBlob       string     `json:"output_blob,omitempty"`
	StartLayer       string     `json:"start_layer,omitempty"`
	EndLayer         string     `json:"end_layer,omitempty"`
	Preprocess       Preprocess `json:"preprocess"`
	PrecisionMissing []string   `json:"precision_missing,omitempty"`
	Blobs            []Blob     `json:"blobs"`
	Layers           []layerDoc `json:"layers"`
}

type layerDoc struct {
	UName      string          `json:"uname"`
	Name       string          `json:"name"`
	Type       layertype.Type  `json:"type"`
	Params     json.RawMessage `json:"params,omitempty"`
	Bottom     []string        `json:"bottom"`
	Top        []string        `json:"top"`
	Device     Device          `json:"device"`
	Opcode     int             `json:"opcode,omitempty"`
	OutputFile string          `json:"output_file,omitempty"`
	Quant      Quantization    `json:"quant"`
}

// Serialize writes the graph to w as an indented JSON document. Blobs and
// layers appear in insertion order; each layer payload is stored under
// "params" and selected by "type".
func Serialize(w io.Writer, g *Graph) error {
	doc, err := makeGraphDoc(g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to write graph")
	}
	return nil
}

func makeGraphDoc(g *Graph) (*graphDoc, error) {
	doc := &graphDoc{
		Name:             g.Name,
		InputBlob:        g.InputBlob,
		OutputBlob:       g.OutputBlob,
		StartLayer:       g.StartLayer,
		EndLayer:         g.EndLayer,
		Preprocess:       g.Preprocess,
		PrecisionMissing: g.PrecisionMissing,
		Blobs:            make([]Blob, len(g.blobOrder)),
		Layers:           make([]layerDoc, len(g.layerOrder)),
	}
	for i, name := range g.blobOrder {
		doc.Blobs[i] = *g.blobs[name]
	}
	for i, u := range g.layerOrder {
		l := g.layers[u]
		params, err := json.Marshal(l.params)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to JSON-encode parameters of layer %q", u)
		}
		doc.Layers[i] = layerDoc{
			UName:      u,
			Name:       l.Name,
			Type:       l.Type(),
			Params:     params,
			Bottom:     l.bottom,
			Top:        l.top,
			Device:     l.Device,
			Opcode:     l.Opcode,
			OutputFile: l.OutputFile,
			Quant:      l.Quant,
		}
	}
	return doc, nil
}

// Deserialize reads a graph written by Serialize. The options configure the
// new graph as in New; Config.MaxDocumentSize bounds the bytes read.
//
// Every invariant AddBlob and AddLayer enforce is checked again, and every
// unique name seen is reported to the graph allocator, so that layers added
// afterwards never reuse one of them.
func Deserialize(r io.Reader, opts ...Option) (*Graph, error) {
	g := New(opts...)
	doc, err := readGraphDoc(r, g.config.MaxDocumentSize)
	if err != nil {
		return nil, err
	}
	if err := g.load(doc); err != nil {
		return nil, err
	}
	g.logger.V(1).Info("deserialized graph", "name", g.Name, "layers", len(g.layerOrder), "blobs", len(g.blobOrder))
	return g, nil
}

func readGraphDoc(r io.Reader, limit int64) (*graphDoc, error) {
	lr := &io.LimitedReader{R: r, N: limit + 1}
	tooLarge := func() error {
		return errors.Newf("graph document exceeds %d bytes", limit)
	}

	dec := json.NewDecoder(lr)
	dec.DisallowUnknownFields()
	var doc graphDoc
	if err := dec.Decode(&doc); err != nil {
		if lr.N <= 0 {
			return nil, tooLarge()
		}
		return nil, errors.Wrap(err, "failed to JSON-decode graph")
	}
	// only white space may follow the document
	off := dec.InputOffset()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if lr.N <= 0 {
			return nil, tooLarge()
		}
		return nil, errors.Newf("unexpected data after graph document at byte offset %d", off)
	}
	if lr.N <= 0 {
		return nil, tooLarge()
	}
	return &doc, nil
}

// load fills an empty graph from a decoded document.
func (g *Graph) load(doc *graphDoc) error {
	if doc.Name != "" {
		g.Name = doc.Name
	}
	for _, b := range doc.Blobs {
		if b.Name == "" {
			return errors.New("blob name must not be empty")
		}
		if err := g.RequireBlobAbsent(b.Name); err != nil {
			return err
		}
		if err := b.Shape.Validate(); err != nil {
			return errors.Mark(errors.Wrapf(err, "blob %q", b.Name), ErrShape)
		}
		g.insertBlob(b.Name, b.Shape)
	}

	firstWriter, err := firstWriters(doc.Layers)
	if err != nil {
		return err
	}
	for i := range doc.Layers {
		l, err := g.loadLayer(&doc.Layers[i], i, firstWriter)
		if err != nil {
			return err
		}
		g.layers[l.uname] = l
		g.layerOrder = append(g.layerOrder, l.uname)
	}

	for _, name := range []string{doc.InputBlob, doc.OutputBlob} {
		if name == "" {
			continue
		}
		if _, err := g.RequireBlobPresent(name); err != nil {
			return err
		}
	}
	for _, name := range append([]string{doc.StartLayer, doc.EndLayer}, doc.PrecisionMissing...) {
		if name == "" {
			continue
		}
		if _, ok := g.layers[name]; !ok {
			return notFoundf("layer %q not found", name)
		}
	}
	g.InputBlob, g.OutputBlob = doc.InputBlob, doc.OutputBlob
	g.StartLayer, g.EndLayer = doc.StartLayer, doc.EndLayer
	g.Preprocess = doc.Preprocess
	g.PrecisionMissing = doc.PrecisionMissing
	return nil
}

// firstWriters maps every blob written by a non-in-place layer to the index
// of that layer. A blob written by two such layers is an error.
func firstWriters(layers []layerDoc) (map[string]int, error) {
	writers := make(map[string]int)
	for i, ld := range layers {
		if isInPlace(ld.Bottom, ld.Top) {
			continue
		}
		for _, t := range ld.Top {
			if j, dup := writers[t]; dup {
				return nil, duplicatef("blob %q is produced by both %q and %q", t, layers[j].UName, ld.UName)
			}
			writers[t] = i
		}
	}
	return writers, nil
}

func (g *Graph) loadLayer(ld *layerDoc, index int, firstWriter map[string]int) (*Layer, error) {
	if _, taken := g.layers[ld.UName]; taken {
		return nil, duplicatef("layer %q already exists", ld.UName)
	}
	id, err := parseUNameID(ld.UName)
	if err != nil {
		return nil, err
	}
	p, err := param.Unmarshal(ld.Type, ld.Params)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "layer %q", ld.UName), ErrInvalidLayer)
	}
	if len(ld.Top) == 0 {
		return nil, invalidLayerf("layer %q has no top blobs", ld.UName)
	}
	seen := make(map[string]struct{}, len(ld.Top))
	for _, t := range ld.Top {
		if _, dup := seen[t]; dup {
			return nil, duplicatef("layer %q lists top blob %q twice", ld.UName, t)
		}
		seen[t] = struct{}{}
		if _, err := g.RequireBlobPresent(t); err != nil {
			return nil, errors.Wrapf(err, "top of layer %q", ld.UName)
		}
	}
	for _, b := range ld.Bottom {
		if _, err := g.RequireBlobPresent(b); err != nil {
			return nil, errors.Wrapf(err, "bottom of layer %q", ld.UName)
		}
		if w, ok := firstWriter[b]; ok && w >= index {
			return nil, notFoundf("layer %q reads blob %q before it is produced", ld.UName, b)
		}
	}

	g.alloc.Observe(id)
	return &Layer{
		Name:       ld.Name,
		Device:     ld.Device,
		Opcode:     ld.Opcode,
		OutputFile: ld.OutputFile,
		Quant:      ld.Quant,
		uname:      ld.UName,
		params:     p,
		bottom:     ld.Bottom,
		top:        ld.Top,
	}, nil
}

// parseUNameID extracts the numeric suffix of "<name>_<id>".
func parseUNameID(u string) (uint64, error) {
	i := strings.LastIndexByte(u, '_')
	if i < 1 {
		return 0, invalidLayerf("malformed unique name %q", u)
	}
	id, err := strconv.ParseUint(u[i+1:], 10, 64)
	if err != nil {
		return 0, invalidLayerf("malformed unique name %q", u)
	}
	// No identifier can be minted after the last one.
	if id == math.MaxUint64 {
		return 0, invalidLayerf("unique name %q exhausts the identifier space", u)
	}
	return id, nil
}
