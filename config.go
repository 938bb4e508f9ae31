// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"os"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"
)

// Config groups the settings shared by graph construction, decoding and
// rendering. The field tags are used for both JSON and YAML documents.
type Config struct {
	// RankDir is the Graphviz layout direction: TB, BT, LR or RL.
	RankDir string `json:"rankdir"`
	// UseUserNames selects user names over unique names in renderings.
	UseUserNames bool `json:"useUserNames"`
	// QuantizationScheme is stamped on every new layer.
	QuantizationScheme string `json:"quantizationScheme"`
	// Device is assigned to every new layer.
	Device Device `json:"device"`
	// MaxDocumentSize bounds the number of bytes read by Deserialize.
	MaxDocumentSize int64 `json:"maxDocumentSize"`
	// DebugDir, when set, makes new layers point their OutputFile inside it.
	DebugDir string `json:"debugDir"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		RankDir:            "TB",
		UseUserNames:       true,
		QuantizationScheme: "DynamicFixed",
		Device:             DeviceSoftware,
		MaxDocumentSize:    64 << 20,
	}
}

// LoadConfig reads a YAML (or JSON) configuration file. Keys missing from
// the file keep their default value.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config file %q", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config file %q", path)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML (or JSON) configuration document on top of
// DefaultConfig. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if !validRankDir(c.RankDir) {
		return errors.Newf("invalid rankdir %q: must be one of TB, BT, LR, RL", c.RankDir)
	}
	if int(c.Device) >= len(deviceNames) {
		return errors.Newf("invalid device %d", int(c.Device))
	}
	if c.MaxDocumentSize <= 0 {
		return errors.Newf("maxDocumentSize must be positive, got %d", c.MaxDocumentSize)
	}
	return nil
}

func validRankDir(s string) bool {
	switch s {
	case "TB", "BT", "LR", "RL":
		return true
	}
	return false
}
