// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine"
)

// config is the contents of the TOML configuration file.
// Relative paths are resolved against the directory of
// the file.
type config struct {
	Driver   string `toml:"driver"`
	LogLevel string `toml:"log_level"`

	Window struct {
		Width  int    `toml:"width"`
		Height int    `toml:"height"`
		Title  string `toml:"title"`
	} `toml:"window"`

	Assets struct {
		Shaders  string `toml:"shaders"`
		Textures string `toml:"textures"`
		// Edge length of procedural volumes, used for
		// each volume directory that does not exist.
		VolumeSize int `toml:"volume_size"`
		// Seed of the procedural volumes.
		Seed uint64 `toml:"seed"`
	} `toml:"assets"`

	Preset struct {
		Path  string `toml:"path"`
		Watch bool   `toml:"watch"`
	} `toml:"preset"`

	Engine engine.Config `toml:"engine"`
}

func defaultConfig() config {
	var c config
	c.Driver = "vulkan"
	c.LogLevel = "info"
	c.Window.Width = 1280
	c.Window.Height = 720
	c.Window.Title = "Sky Engine"
	c.Assets.Shaders = "Shaders"
	c.Assets.Textures = "Textures"
	c.Assets.VolumeSize = 64
	c.Assets.Seed = 1
	c.Engine = engine.DefaultConfig()
	return c
}

var errConfig = errors.New("skyengine: invalid configuration")

// loadConfig decodes the file at path over the default
// configuration.
// Unknown keys are rejected.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, c.validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err = dec.Decode(&c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return c, fmt.Errorf("%w: %s", errConfig, sme.String())
		}
		return c, fmt.Errorf("%w: %s: %w", errConfig, path, err)
	}
	c.resolve(filepath.Dir(path))
	return c, c.validate()
}

// resolve makes relative paths relative to dir.
func (c *config) resolve(dir string) {
	for _, p := range [...]*string{&c.Assets.Shaders, &c.Assets.Textures, &c.Preset.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func (c *config) validate() error {
	var reason string
	switch {
	case c.Window.Width < 1 || c.Window.Height < 1:
		reason = "window size must be positive"
	case c.Assets.VolumeSize < 2:
		reason = "volume size must be at least 2"
	default:
		if _, err := c.level(); err != nil {
			return err
		}
		if err := c.Engine.Validate(); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %s", errConfig, reason)
}

func (c *config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", errConfig, c.LogLevel)
	}
	return lvl, nil
}

// encode writes c as TOML.
func (c *config) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
