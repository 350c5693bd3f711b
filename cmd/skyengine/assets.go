// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine"
)

// shaderFiles names the SPIR-V files of each role,
// relative to the shader directory.
var shaderFiles = map[engine.Role][3]string{
	engine.RoleMesh:       {"model.vert.spv", "model.frag.spv", ""},
	engine.RoleBackground: {"background.vert.spv", "background.frag.spv", ""},
	engine.RoleGodRay:     {"post-pass.vert.spv", "god-ray.frag.spv", ""},
	engine.RoleRadialBlur: {"post-pass.vert.spv", "radialBlur.frag.spv", ""},
	engine.RoleTonemap:    {"post-pass.vert.spv", "tonemap.frag.spv", ""},
	engine.RoleReproject:  {"", "", "reproject.comp.spv"},
	engine.RoleClouds:     {"", "", "compute-clouds.comp.spv"},
}

// Texture files, relative to the texture directory.
var (
	meshFiles = [4]string{
		"grassGround.png",
		"rockPBRinfo.png",
		"grassGround_Normal.png",
		"CloudPlacement.png",
	}
	cloudFiles = [4]string{
		"CloudPlacement.png",
		"NightSky/nightSky_noOrange.png",
		"CurlNoiseFBM.png",
		"CirroNoise.png",
	}
	// Each volume is a directory of 2D slices
	// ordered by file name.
	volumeDirs = [4]string{
		"3DTextures/lowResCloudShape",
		"3DTextures/hiResCloudShape",
		"3DTextures/SDFCloudShape_01",
		"3DTextures/SDFCloudShape_02",
	}
)

// Sizes of the procedural volumes relative to
// config.Assets.VolumeSize.
var volumeScale = [4]int{1, 2, 1, 1}

// loadShaders reads the SPIR-V code of every role.
// Files shared by several roles are read once.
func loadShaders(dir string) (map[engine.Role]engine.ShaderSource, error) {
	cache := make(map[string][]byte)
	read := func(name string) ([]byte, error) {
		if name == "" {
			return nil, nil
		}
		if b, ok := cache[name]; ok {
			return b, nil
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cache[name] = b
		return b, nil
	}
	srcs := make(map[engine.Role]engine.ShaderSource, len(shaderFiles))
	for r, files := range shaderFiles {
		var src engine.ShaderSource
		var err error
		for i, p := range [...]*[]byte{&src.Vert, &src.Frag, &src.Comp} {
			if *p, err = read(files[i]); err != nil {
				return nil, fmt.Errorf("%s shader: %w", r, err)
			}
		}
		srcs[r] = src
	}
	return srcs, nil
}

// loadAssets loads shaders and textures.
// Files are decoded concurrently. Volume directories
// that do not exist are replaced with procedural noise.
func loadAssets(ctx context.Context, c *config, log *slog.Logger) (*engine.Assets, error) {
	shaders, err := loadShaders(c.Assets.Shaders)
	if err != nil {
		return nil, err
	}
	a := &engine.Assets{Shaders: shaders}
	dir := c.Assets.Textures

	g, ctx := errgroup.WithContext(ctx)
	for i := range meshFiles {
		g.Go(func() (err error) {
			a.MeshTextures[i], err = loadImage(ctx, filepath.Join(dir, meshFiles[i]))
			return
		})
	}
	for i := range cloudFiles {
		g.Go(func() (err error) {
			a.CloudTextures[i], err = loadImage(ctx, filepath.Join(dir, cloudFiles[i]))
			return
		})
	}
	for i := range volumeDirs {
		g.Go(func() error {
			path := filepath.Join(dir, volumeDirs[i])
			v, err := loadVolume(ctx, path)
			if errors.Is(err, fs.ErrNotExist) {
				n := c.Assets.VolumeSize * volumeScale[i]
				log.Info("generating volume", "path", path, "size", n)
				v = noiseVolume(n, c.Assets.Seed+uint64(i), i >= 2)
				err = nil
			}
			a.Volumes[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a, nil
}

// loadImage decodes the image file at path into
// RGBA8 texture data.
func loadImage(ctx context.Context, path string) (engine.TexData, error) {
	if err := ctx.Err(); err != nil {
		return engine.TexData{}, err
	}
	img, err := decodeFile(path)
	if err != nil {
		return engine.TexData{}, err
	}
	b := img.Bounds()
	return texData(toRGBA(img, b.Dx(), b.Dy()), 0), nil
}

// loadVolume decodes every image in dir as a slice of
// a 3D texture.
// Slices are sorted by file name and scaled to the
// size of the first one.
func loadVolume(ctx context.Context, dir string) (engine.TexData, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return engine.TexData{}, err
	}
	var names []string
	for _, e := range ents {
		if e.Type().IsRegular() && isImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) < 2 {
		return engine.TexData{}, fmt.Errorf("%s: volume needs at least 2 slices, have %d", dir, len(names))
	}
	slices.SortFunc(names, compareSlices)

	var w, h int
	var data []byte
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return engine.TexData{}, err
		}
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return engine.TexData{}, err
		}
		if i == 0 {
			w, h = img.Bounds().Dx(), img.Bounds().Dy()
			data = make([]byte, 0, w*h*4*len(names))
		}
		data = append(data, toRGBA(img, w, h).Pix...)
	}
	return engine.TexData{
		TexParam: engine.TexParam{
			PixelFmt: driver.RGBA8un,
			Dim3D:    driver.Dim3D{Width: w, Height: h, Depth: len(names)},
		},
		Data: data,
	}, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// toRGBA converts img to a tightly packed *image.RGBA of
// the given size.
func toRGBA(img image.Image, width, height int) *image.RGBA {
	b := img.Bounds()
	if m, ok := img.(*image.RGBA); ok && b.Dx() == width && b.Dy() == height && m.Stride == width*4 && b.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst
}

func texData(img *image.RGBA, depth int) engine.TexData {
	return engine.TexData{
		TexParam: engine.TexParam{
			PixelFmt: driver.RGBA8un,
			Dim3D:    driver.Dim3D{Width: img.Rect.Dx(), Height: img.Rect.Dy(), Depth: depth},
		},
		Data: img.Pix,
	}
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// compareSlices orders file names by length first, so
// that "slice (10)" follows "slice (9)".
func compareSlices(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
