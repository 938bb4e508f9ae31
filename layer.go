// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph/layertype"
	"github.com/nlpodyssey/xgraph/param"
)

// Device tells which execution target a layer is mapped to.
type Device uint8

const (
	// DeviceSoftware runs the layer on the host.
	DeviceSoftware Device = iota
	// DeviceHardware offloads the layer to the accelerator.
	DeviceHardware
)

var deviceNames = [...]string{
	DeviceSoftware: "software",
	DeviceHardware: "hardware",
}

// String returns the lowercase name of the device.
func (d Device) String() string {
	if int(d) < len(deviceNames) {
		return deviceNames[d]
	}
	return "Device(" + strconv.Itoa(int(d)) + ")"
}

// MarshalText satisfies encoding.TextMarshaler.
func (d Device) MarshalText() ([]byte, error) {
	if int(d) >= len(deviceNames) {
		return nil, errors.Newf("invalid device %d", int(d))
	}
	return []byte(deviceNames[d]), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler.
func (d *Device) UnmarshalText(text []byte) error {
	for i, name := range deviceNames {
		if name == string(text) {
			*d = Device(i)
			return nil
		}
	}
	return errors.Newf("invalid device %q", text)
}

// Layer is a node of the graph: one operation, configured by a parameter
// payload, reading its bottom blobs and writing its top blobs.
//
// The unique name, the payload and the blob lists are fixed when the layer
// is added to a Graph. The remaining exported fields are annotations the
// caller may edit freely.
type Layer struct {
	// Name is the user-supplied name. It does not need to be unique.
	Name string

	Device     Device
	Opcode     int
	OutputFile string
	Quant      Quantization

	uname  string
	params param.Params
	bottom []string
	top    []string
}

// UName returns the unique name minted for the layer by its graph.
func (l *Layer) UName() string { return l.uname }

// Type returns the layer type, as carried by the parameter payload.
func (l *Layer) Type() layertype.Type { return l.params.Type() }

// Params returns the parameter payload. The returned value is shared with
// the layer: changing it affects later shape inference.
func (l *Layer) Params() param.Params { return l.params }

// Bottom returns a copy of the names of the blobs read by the layer.
func (l *Layer) Bottom() []string { return append([]string(nil), l.bottom...) }

// Top returns a copy of the names of the blobs written by the layer.
func (l *Layer) Top() []string { return append([]string(nil), l.top...) }

// InPlace reports whether the layer overwrites its own single input.
func (l *Layer) InPlace() bool {
	return isInPlace(l.bottom, l.top)
}

func isInPlace(bottom, top []string) bool {
	return len(bottom) == 1 && len(top) == 1 && bottom[0] == top[0]
}

// displayName is the user name or the unique name.
func (l *Layer) displayName(useUserNames bool) string {
	if useUserNames && l.Name != "" {
		return l.Name
	}
	return l.uname
}

// Describe renders the layer as "[bottoms] --> {name : type} --> [tops]".
func (l *Layer) Describe(useUserNames bool) string {
	var sb strings.Builder
	writeNameList(&sb, l.bottom)
	sb.WriteString(" --> {")
	sb.WriteString(l.displayName(useUserNames))
	sb.WriteString(" : ")
	sb.WriteString(l.Type().String())
	sb.WriteString("} --> ")
	writeNameList(&sb, l.top)
	return sb.String()
}

// String renders the layer with its unique name.
func (l *Layer) String() string { return l.Describe(false) }

func writeNameList(sb *strings.Builder, names []string) {
	sb.WriteByte('[')
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteByte(']')
}

var blobFilenameReplacer = strings.NewReplacer("/", "_", `\`, "_")

// OutputFilename returns the debug dump path of the given top blob:
// "<dirname>/<uname>_<top>". Path separators inside the blob name are
// replaced so the result never points into a subdirectory of dirname.
func (l *Layer) OutputFilename(top, dirname string) string {
	name := l.uname + "_" + blobFilenameReplacer.Replace(top)
	switch {
	case dirname == "":
		return name
	case strings.HasSuffix(dirname, "/"):
		return dirname + name
	default:
		return dirname + "/" + name
	}
}
