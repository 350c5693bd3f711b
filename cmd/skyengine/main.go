// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Skyengine renders a volumetric sky over a terrain.
//
// Usage:
//
//	skyengine [flags]
//	skyengine config [flags]
//	skyengine preset <file>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	_ "github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/vk"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// The window system must be driven from the main thread.
func init() { runtime.LockOSThread() }

// flags overrides the configuration file.
type flags struct {
	config   string
	driver   string
	logLevel string
	preset   string
	watch    bool
	width    int
	height   int
}

func (f *flags) register(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVarP(&f.config, "config", "c", "", "TOML configuration file")
	fs.StringVar(&f.driver, "driver", "", "name of the GPU driver")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVarP(&f.preset, "preset", "p", "", "cloud parameter preset (.toml or .yaml)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload the preset when it changes")
	fs.IntVar(&f.width, "width", 0, "window width")
	fs.IntVar(&f.height, "height", 0, "window height")
}

// load loads the configuration file and applies the
// flags that cmd received.
func (f *flags) load(cmd *cobra.Command) (config, error) {
	c, err := loadConfig(f.config)
	if err != nil {
		return c, err
	}
	fs := cmd.Flags()
	if fs.Changed("driver") {
		c.Driver = f.driver
	}
	if fs.Changed("log-level") {
		c.LogLevel = f.logLevel
	}
	if fs.Changed("preset") {
		c.Preset.Path = f.preset
	}
	if fs.Changed("watch") {
		c.Preset.Watch = f.watch
	}
	if fs.Changed("width") {
		c.Window.Width = f.width
	}
	if fs.Changed("height") {
		c.Window.Height = f.height
	}
	return c, c.validate()
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "skyengine",
		Short:         "Render a volumetric sky",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.load(cmd)
			if err != nil {
				return err
			}
			log := newLogger(&c)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &c, log)
		},
	}
	f.register(root)

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.load(cmd)
			if err != nil {
				return err
			}
			b, err := c.encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "preset <file>",
		Short: "Write the default cloud parameters to a preset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p := param.NewCloudDefaults()
			p.SetString(param.PresetName, presetName(args[0]))
			return p.Save(args[0])
		},
	})
	return root
}

// presetName names a preset after its file.
func presetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// logReload returns the function that params calls after
// each reload of its preset.
func logReload(params *param.Store, log *slog.Logger) func() {
	return func() {
		floats, vectors := params.Names()
		log.Info("parameters reloaded",
			"preset", params.String(param.PresetName),
			"floats", len(floats),
			"vectors", len(vectors))
	}
}

func newLogger(c *config) *slog.Logger {
	lvl, _ := c.level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// run opens the window and the GPU and renders until the
// window is closed or ctx is done.
func run(ctx context.Context, c *config, log *slog.Logger) (err error) {
	params := param.NewCloudDefaults()
	if c.Preset.Path != "" {
		if err := params.Load(c.Preset.Path); err != nil {
			return err
		}
		log.Info("preset loaded", "path", c.Preset.Path, "name", params.String(param.PresetName))
	}
	assets, err := loadAssets(ctx, c, log)
	if err != nil {
		return err
	}

	// The driver queries the window system for its
	// instance extensions when it is opened.
	if err := wsi.Init(); err != nil {
		return err
	}
	defer wsi.Terminate()
	win, err := wsi.NewWindow(c.Window.Width, c.Window.Height, c.Window.Title)
	if err != nil {
		return err
	}
	drv, gpu, err := engine.OpenGPU(c.Driver)
	if err != nil {
		return err
	}
	defer engine.CloseGPU()
	log.Info("driver loaded", "driver", drv.Name())

	pres, ok := gpu.(driver.Presenter)
	if !ok {
		return driver.ErrCannotPresent
	}
	sc, err := pres.NewSwapchain(win, c.Engine.ImageCount)
	if err != nil {
		return err
	}
	defer sc.Destroy()

	rend, err := engine.NewRenderer(gpu, sc, assets, c.Engine, params, log)
	if err != nil {
		return err
	}
	defer rend.Destroy()
	if err := win.Map(); err != nil {
		return err
	}

	if c.Preset.Watch && c.Preset.Path != "" {
		params.OnReload(logReload(params, log))
		wctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- params.Watch(wctx, c.Preset.Path, log) }()
		defer func() {
			cancel()
			if e := <-done; e != nil {
				err = errors.Join(err, e)
			}
		}()
	}

	ctl := engine.NewController(c.Engine.MoveSpeed)
	if err = rend.Run(ctx, win, ctl); errors.Is(err, context.Canceled) {
		log.Info("interrupted")
		err = nil
	}
	log.Info("exiting", "frames", rend.Frames())
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "skyengine:", err)
		os.Exit(1)
	}
}
