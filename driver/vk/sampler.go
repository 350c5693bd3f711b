// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	d    *Driver
	splr vk.Sampler
}

// NewSampler creates a new sampler.
func (d *Driver) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    convFilter(spln.Mag),
		MinFilter:    convFilter(spln.Min),
		MipmapMode:   convMipmap(spln.Mipmap),
		AddressModeU: convAddrMode(spln.AddrU),
		AddressModeV: convAddrMode(spln.AddrV),
		AddressModeW: convAddrMode(spln.AddrW),
		MinLod:       spln.MinLOD,
		MaxLod:       spln.MaxLOD,
		BorderColor:  vk.BorderColorFloatOpaqueBlack,
	}
	// Clamping to 0.25 samples level 0 only.
	if spln.Mipmap == driver.FNoMipmap {
		info.MinLod = 0
		info.MaxLod = 0.25
	}
	if spln.MaxAniso > 1 && d.aniso {
		info.AnisotropyEnable = vk.True
		info.MaxAnisotropy = min(float32(spln.MaxAniso), d.maxAniso)
	}
	var splr vk.Sampler
	if err := checkResult(vk.CreateSampler(d.dev, &info, nil, &splr)); err != nil {
		return nil, err
	}
	return &sampler{
		d:    d,
		splr: splr,
	}, nil
}

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySampler(s.d.dev, s.splr, nil)
	}
	*s = sampler{}
}
