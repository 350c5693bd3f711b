// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
)

func writeFile(t *testing.T, name, s string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(s), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "vulkan", c.Driver)
	assert.Equal(t, engine.DefaultConfig(), c.Engine)
	assert.Equal(t, "Shaders", c.Assets.Shaders)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "sky.toml", `
log_level = "debug"

[window]
width = 800
height = 600

[assets]
shaders = "spv"
textures = "/data/textures"

[preset]
path = "clouds.yaml"
watch = true

[engine]
cloud_scale = 2
camera_position = [0, 5, 10]
`)
	c, err := loadConfig(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)
	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, 600, c.Window.Height)
	assert.Equal(t, "Sky Engine", c.Window.Title)
	assert.Equal(t, filepath.Join(dir, "spv"), c.Assets.Shaders)
	assert.Equal(t, "/data/textures", c.Assets.Textures)
	assert.Equal(t, filepath.Join(dir, "clouds.yaml"), c.Preset.Path)
	assert.True(t, c.Preset.Watch)
	assert.Equal(t, 2, c.Engine.CloudScale)
	assert.Equal(t, [3]float32{0, 5, 10}, c.Engine.CameraPos)
	assert.Equal(t, engine.DefaultConfig().WorkgroupSize, c.Engine.WorkgroupSize)
}

func TestLoadConfigErrors(t *testing.T) {
	for _, s := range [...]string{
		"driver = 1",
		"unknown = true",
		"[window]\nwidth = 0",
		"log_level = \"loud\"",
		"[assets]\nvolume_size = 1",
		"[engine]\nimage_count = 1",
	} {
		_, err := loadConfig(writeFile(t, "bad.toml", s))
		assert.Error(t, err, s)
	}
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadConfig(writeFile(t, "bad.toml", "[window]\nheight = -1"))
	assert.ErrorIs(t, err, errConfig)
	_, err = loadConfig(writeFile(t, "bad.toml", "[engine]\nfov = 180"))
	assert.ErrorIs(t, err, engine.ErrConfig)
}

func TestConfigEncode(t *testing.T) {
	c := defaultConfig()
	c.Window.Title = "encoded"
	b, err := c.encode()
	require.NoError(t, err)
	c2, err := loadConfig(writeFile(t, "enc.toml", string(b)))
	require.NoError(t, err)
	assert.Equal(t, c.Window, c2.Window)
	assert.Equal(t, c.Engine, c2.Engine)
}

func TestConfigCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--width", "320", "--log-level", "warn"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "width = 320")
	assert.Contains(t, out.String(), "warn")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"config", "--height", "0"})
	assert.ErrorIs(t, cmd.Execute(), errConfig)
}

func TestPresetCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clouds.toml")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"preset", path})
	require.NoError(t, cmd.Execute())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "coverage_rate")

	p := param.New()
	require.NoError(t, p.Load(path))
	assert.Equal(t, "clouds", p.String(param.PresetName))
	assert.Equal(t, float32(0.85), p.Float(param.Coverage))
}
