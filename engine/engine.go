// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements real-time rendering of a
// volumetric sky.
//
// Each frame runs a reprojection and a cloud simulation
// pass on the compute queue, followed by three offscreen
// passes (background, god rays, radial blur and terrain)
// and an on-screen tone mapping pass on the graphics
// queue. The simulation writes one of two history images
// while reading the other; the roles swap every frame.
package engine

import (
	"errors"
	"fmt"
)

const (
	// The number of history images.
	MaxHistory = 2

	// The number of offscreen framebuffers.
	MaxOffscreen = 3

	dflWorkgroupSize = 16
	dflCloudScale    = 4
	dflImageCount    = 3
	dflGridSize      = 64
)

// ErrStageInit means that a Stage could not be created.
// The error that caused the failure is also wrapped.
var ErrStageInit = errors.New("engine: stage initialization failed")

// ErrOutOfDate means that the swapchain must be
// recreated before the frame can be drawn.
var ErrOutOfDate = errors.New("engine: swapchain out of date")

// ErrNonFinite means that a uniform value is NaN or
// infinite.
var ErrNonFinite = errors.New("engine: non-finite uniform value")

// ErrConfig means that a Config is invalid.
var ErrConfig = errors.New("engine: invalid configuration")

func newRendErr(s string) error { return errors.New("renderer: " + s) }

func wrapRendErr(s string, err error) error { return fmt.Errorf("renderer: %s: %w", s, err) }

// Config is used to configure a Renderer.
type Config struct {
	// The compute workgroup size in each dimension.
	//
	// Default is 16.
	WorkgroupSize int `toml:"workgroup_size"`

	// The cloud simulation runs at the swapchain
	// extent divided by CloudScale.
	//
	// Default is 4.
	CloudScale int `toml:"cloud_scale"`

	// The number of swapchain images.
	//
	// Default is 3.
	ImageCount int `toml:"image_count"`

	// The number of terrain grid cells per side.
	//
	// Default is 64.
	GridSize int `toml:"grid_size"`

	// Terrain scale.
	//
	// Default is {100, 1, 100}.
	ModelScale [3]float32 `toml:"model_scale"`

	// Camera placement and frustum.
	//
	// Default is a camera at {0, 1, 1} looking at
	// {-1, 1, 0}, with a vertical FOV of 45 degrees
	// and planes at 0.1 and 1000.
	CameraPos    [3]float32 `toml:"camera_position"`
	CameraTarget [3]float32 `toml:"camera_target"`
	FOV          float32    `toml:"fov"`
	Near         float32    `toml:"near"`
	Far          float32    `toml:"far"`

	// Camera speed in units per second and mouse
	// sensitivity in degrees per pixel.
	//
	// Default is 10 and 0.1.
	MoveSpeed float32 `toml:"move_speed"`
	LookSpeed float32 `toml:"look_speed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WorkgroupSize: dflWorkgroupSize,
		CloudScale:    dflCloudScale,
		ImageCount:    dflImageCount,
		GridSize:      dflGridSize,
		ModelScale:    [3]float32{100, 1, 100},
		CameraPos:     [3]float32{0, 1, 1},
		CameraTarget:  [3]float32{-1, 1, 0},
		FOV:           45,
		Near:          0.1,
		Far:           1000,
		MoveSpeed:     10,
		LookSpeed:     0.1,
	}
}

// Validate checks that c is usable.
func (c *Config) Validate() error {
	var reason string
	switch {
	case c.WorkgroupSize < 1:
		reason = "workgroup size must be positive"
	case c.CloudScale < 1:
		reason = "cloud scale must be positive"
	case c.ImageCount < 2:
		reason = "image count must be at least 2"
	case c.GridSize < 1:
		reason = "grid size must be positive"
	case c.FOV <= 0 || c.FOV >= 180:
		reason = "fov must be in (0, 180)"
	case c.Near <= 0 || c.Far <= c.Near:
		reason = "invalid near/far planes"
	case c.CameraPos == c.CameraTarget:
		reason = "camera position and target coincide"
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrConfig, reason)
}
