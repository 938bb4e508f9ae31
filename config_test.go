// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "TB", cfg.RankDir)
	assert.True(t, cfg.UseUserNames)
	assert.Equal(t, "DynamicFixed", cfg.QuantizationScheme)
	assert.Equal(t, DeviceSoftware, cfg.Device)
	assert.Equal(t, int64(64<<20), cfg.MaxDocumentSize)
	assert.Empty(t, cfg.DebugDir)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
rankdir: LR
useUserNames: false
device: hardware
debugDir: /tmp/dump
`))
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.RankDir = "LR"
	expected.UseUserNames = false
	expected.Device = DeviceHardware
	expected.DebugDir = "/tmp/dump"
	assert.Equal(t, expected, cfg)
}

func TestParseConfig_JSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"quantizationScheme": "Int8", "maxDocumentSize": 1024}`))
	require.NoError(t, err)
	assert.Equal(t, "Int8", cfg.QuantizationScheme)
	assert.Equal(t, int64(1024), cfg.MaxDocumentSize)
	assert.Equal(t, "TB", cfg.RankDir)
}

func TestParseConfig_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		data     string
		expected string
	}{
		{"unknown key", "colour: red\n", "failed to decode config"},
		{"bad device", "device: gpu\n", "failed to decode config"},
		{"bad rankdir", "rankdir: XY\n", `invalid rankdir "XY": must be one of TB, BT, LR, RL`},
		{"bad size", "maxDocumentSize: 0\n", "maxDocumentSize must be positive, got 0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rankdir: BT\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "BT", cfg.RankDir)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rankdir: [\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "bad.yaml")
}
