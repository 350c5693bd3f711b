// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
)

func TestPresetName(t *testing.T) {
	assert.Equal(t, "clouds", presetName("/tmp/presets/clouds.toml"))
	assert.Equal(t, "storm.v2", presetName("storm.v2.yaml"))
	assert.Equal(t, "plain", presetName("plain"))
}

func TestLogReload(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	p := param.NewCloudDefaults()

	p.Apply(&param.Values{Strings: map[string]string{param.PresetName: "cirrus"}})
	logReload(p, log)()
	out := buf.String()
	assert.Contains(t, out, "parameters reloaded")
	assert.Contains(t, out, "preset=cirrus")
	assert.Contains(t, out, "floats=4")
	assert.Contains(t, out, "vectors=8")
}
