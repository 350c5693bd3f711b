// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// descHeap implements driver.DescHeap.
type descHeap struct {
	d      *Driver
	layout vk.DescriptorSetLayout
	pool   vk.DescriptorPool
	sets   []vk.DescriptorSet
	ds     []driver.Descriptor

	// Descriptor count of each type, per heap copy.
	count map[vk.DescriptorType]uint32
}

// NewDescHeap creates a new descriptor heap.
func (d *Driver) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	count := make(map[vk.DescriptorType]uint32)
	binds := make([]vk.DescriptorSetLayoutBinding, len(ds))
	for i := range ds {
		for j := i + 1; j < len(ds); j++ {
			if ds[i].Nr == ds[j].Nr {
				return nil, errors.New("vk: descriptor number is not unique")
			}
		}
		typ := convDescType(ds[i].Type)
		n := uint32(max(ds[i].Len, 1))
		count[typ] += n
		binds[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(ds[i].Nr),
			DescriptorType:  typ,
			DescriptorCount: n,
			StageFlags:      convStage(ds[i].Stages),
		}
	}
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(binds)),
		PBindings:    binds,
	}
	var layout vk.DescriptorSetLayout
	if err := checkResult(vk.CreateDescriptorSetLayout(d.dev, &info, nil, &layout)); err != nil {
		return nil, err
	}
	return &descHeap{
		d:      d,
		layout: layout,
		ds:     append([]driver.Descriptor(nil), ds...),
		count:  count,
	}, nil
}

// New creates enough storage for n copies of each
// descriptor.
func (h *descHeap) New(n int) error {
	switch {
	case n == len(h.sets):
		return nil
	case len(h.sets) != 0:
		vk.DestroyDescriptorPool(h.d.dev, h.pool, nil)
		h.sets = nil
		if n == 0 {
			return nil
		}
	}

	sizes := make([]vk.DescriptorPoolSize, 0, len(h.count))
	for typ, cnt := range h.count {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            typ,
			DescriptorCount: cnt * uint32(n),
		})
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(n),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := checkResult(vk.CreateDescriptorPool(h.d.dev, &info, nil, &pool)); err != nil {
		return err
	}

	layouts := make([]vk.DescriptorSetLayout, n)
	for i := range layouts {
		layouts[i] = h.layout
	}
	sinfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: uint32(n),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, n)
	if err := checkResult(vk.AllocateDescriptorSets(h.d.dev, &sinfo, &sets[0])); err != nil {
		vk.DestroyDescriptorPool(h.d.dev, pool, nil)
		return err
	}
	h.pool = pool
	h.sets = sets
	return nil
}

// SetBuffer updates buffer ranges referred by the given
// descriptor of the given heap copy.
func (h *descHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	infos := make([]vk.DescriptorBufferInfo, len(buf))
	for i := range infos {
		infos[i] = vk.DescriptorBufferInfo{
			Buffer: buf[i].(*buffer).buf,
			Offset: vk.DeviceSize(off[i]),
			Range:  vk.DeviceSize(size[i]),
		}
	}
	h.write(cpy, nr, start, uint32(len(infos)), nil, infos)
}

// SetImage updates the image views referred by the given
// descriptor of the given heap copy.
func (h *descHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	lay := descLayout(h.descOf(nr))
	infos := make([]vk.DescriptorImageInfo, len(iv))
	for i := range infos {
		infos[i] = vk.DescriptorImageInfo{
			ImageView:   iv[i].(*imageView).view,
			ImageLayout: lay,
		}
	}
	h.write(cpy, nr, start, uint32(len(infos)), infos, nil)
}

// SetSampler updates the samplers referred by the given
// descriptor of the given heap copy.
func (h *descHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	infos := make([]vk.DescriptorImageInfo, len(splr))
	for i := range infos {
		infos[i] = vk.DescriptorImageInfo{Sampler: splr[i].(*sampler).splr}
	}
	h.write(cpy, nr, start, uint32(len(infos)), infos, nil)
}

// SetCombined updates the image views and samplers
// referred by the given descriptor of the given heap copy.
func (h *descHeap) SetCombined(cpy, nr, start int, iv []driver.ImageView, splr []driver.Sampler) {
	if len(iv) != len(splr) {
		panic("image view and sampler counts differ")
	}
	lay := descLayout(h.descOf(nr))
	infos := make([]vk.DescriptorImageInfo, len(iv))
	for i := range infos {
		infos[i] = vk.DescriptorImageInfo{
			Sampler:     splr[i].(*sampler).splr,
			ImageView:   iv[i].(*imageView).view,
			ImageLayout: lay,
		}
	}
	h.write(cpy, nr, start, uint32(len(infos)), infos, nil)
}

// write updates a single descriptor binding.
func (h *descHeap) write(cpy, nr, start int, n uint32, img []vk.DescriptorImageInfo, buf []vk.DescriptorBufferInfo) {
	if n == 0 {
		return
	}
	w := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          h.sets[cpy],
		DstBinding:      uint32(nr),
		DstArrayElement: uint32(start),
		DescriptorCount: n,
		DescriptorType:  convDescType(h.descOf(nr).Type),
		PImageInfo:      img,
		PBufferInfo:     buf,
	}
	vk.UpdateDescriptorSets(h.d.dev, 1, []vk.WriteDescriptorSet{w}, 0, nil)
}

// Count returns the number of heap copies.
func (h *descHeap) Count() int { return len(h.sets) }

// Destroy destroys the descriptor heap.
func (h *descHeap) Destroy() {
	if h == nil {
		return
	}
	if h.d != nil {
		vk.DestroyDescriptorSetLayout(h.d.dev, h.layout, nil)
		if len(h.sets) != 0 {
			vk.DestroyDescriptorPool(h.d.dev, h.pool, nil)
		}
	}
	*h = descHeap{}
}

// descOf returns the descriptor whose number is nr.
func (h *descHeap) descOf(nr int) *driver.Descriptor {
	for i := range h.ds {
		if h.ds[i].Nr == nr {
			return &h.ds[i]
		}
	}
	panic("no descriptor with the given number")
}

// descTable implements driver.DescTable.
type descTable struct {
	d      *Driver
	h      []*descHeap
	layout vk.PipelineLayout
}

// NewDescTable creates a new descriptor table.
func (d *Driver) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	h := make([]*descHeap, len(dh))
	layouts := make([]vk.DescriptorSetLayout, len(dh))
	for i := range h {
		h[i] = dh[i].(*descHeap)
		layouts[i] = h[i].layout
	}
	info := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}
	var layout vk.PipelineLayout
	if err := checkResult(vk.CreatePipelineLayout(d.dev, &info, nil, &layout)); err != nil {
		return nil, err
	}
	return &descTable{
		d:      d,
		h:      h,
		layout: layout,
	}, nil
}

// Destroy destroys the descriptor table.
func (t *descTable) Destroy() {
	if t == nil {
		return
	}
	if t.d != nil {
		vk.DestroyPipelineLayout(t.d.dev, t.layout, nil)
	}
	*t = descTable{}
}
