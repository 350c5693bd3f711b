// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Descriptor management.
//
// Every stage that reads uniform data has one uniform
// heap, described by a HeapDesc, whose descriptors are
// numbered as follows:
//
//	[0, consts)               | DConstant, one per Const
//	[consts, +textures)       | DCombined, 2D textures
//	[+textures, +volumes)     | DCombined, 3D textures
//
// Stages that use the history images add a storage heap
// (DImage) or a history heap (DCombined). These heaps
// have two copies, one per history image, and may appear
// more than once in a descriptor table.
//
// Constant data is stored in a single host-visible buffer
// per stage, each block aligned to 256 bytes.

package shader

import (
	"unsafe"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// Const identifies a block of constant data.
type Const int

// Constant blocks.
const (
	CameraConst Const = iota
	PrevCameraConst
	ModelConst
	SunConst
	SkyConst
	CloudConst
)

func (c Const) String() string {
	switch c {
	case CameraConst:
		return "camera"
	case PrevCameraConst:
		return "previous camera"
	case ModelConst:
		return "model"
	case SunConst:
		return "sun"
	case SkyConst:
		return "sky"
	case CloudConst:
		return "cloud"
	}
	return "invalid"
}

// Size returns the size in bytes of the layout of c.
func (c Const) Size() int64 {
	switch c {
	case CameraConst, PrevCameraConst:
		return int64(unsafe.Sizeof(CameraLayout{}))
	case ModelConst:
		return int64(unsafe.Sizeof(ModelLayout{}))
	case SunConst:
		return int64(unsafe.Sizeof(SunLayout{}))
	case SkyConst:
		return int64(unsafe.Sizeof(SkyLayout{}))
	case CloudConst:
		return int64(unsafe.Sizeof(CloudLayout{}))
	}
	panic("invalid constant block")
}

const blockSize = 256

// span returns the size of c rounded up to blockSize.
func (c Const) span() int64 { return (c.Size() + blockSize - 1) &^ (blockSize - 1) }

// HeapDesc describes the uniform heap of a stage.
type HeapDesc struct {
	Stages   driver.Stage
	Consts   []Const
	Textures int
	Volumes  int
}

// Uniform heaps of the stages.
var (
	// Terrain mesh: albedo, PBR info, normal and
	// coverage textures plus the low-resolution
	// cloud shape.
	MeshHeap = HeapDesc{
		Stages:   driver.SVertex | driver.SFragment,
		Consts:   []Const{CameraConst, ModelConst, SunConst, SkyConst},
		Textures: 4,
		Volumes:  1,
	}
	ReprojectHeap = HeapDesc{
		Stages: driver.SCompute,
		Consts: []Const{CameraConst, PrevCameraConst, SkyConst, SunConst},
	}
	// Cloud simulation: placement, night sky, curl
	// noise and cirrus textures plus the low and
	// high-resolution shapes and two SDF shapes.
	CloudsHeap = HeapDesc{
		Stages:   driver.SCompute,
		Consts:   []Const{CameraConst, PrevCameraConst, SkyConst, SunConst, CloudConst},
		Textures: 4,
		Volumes:  4,
	}
	// Post-processing: the sampled offscreen image.
	PostHeap = HeapDesc{
		Stages:   driver.SVertex | driver.SFragment,
		Consts:   []Const{CameraConst, SunConst},
		Textures: 1,
	}
)

// ConstNr returns the descriptor number of the i-th
// constant block.
func (d *HeapDesc) ConstNr(i int) int {
	if uint(i) >= uint(len(d.Consts)) {
		panic("constant index out of bounds")
	}
	return i
}

// TexNr returns the descriptor number of the i-th 2D
// texture.
func (d *HeapDesc) TexNr(i int) int {
	if uint(i) >= uint(d.Textures) {
		panic("texture index out of bounds")
	}
	return len(d.Consts) + i
}

// VolNr returns the descriptor number of the i-th 3D
// texture.
func (d *HeapDesc) VolNr(i int) int {
	if uint(i) >= uint(d.Volumes) {
		panic("volume index out of bounds")
	}
	return len(d.Consts) + d.Textures + i
}

// Descriptors returns the descriptors of d.
func (d *HeapDesc) Descriptors() []driver.Descriptor {
	ds := make([]driver.Descriptor, 0, len(d.Consts)+d.Textures+d.Volumes)
	for i := range d.Consts {
		ds = append(ds, driver.Descriptor{
			Type:   driver.DConstant,
			Stages: d.Stages,
			Nr:     d.ConstNr(i),
			Len:    1,
		})
	}
	for i := range d.Textures {
		ds = append(ds, combinedDesc(d.TexNr(i), d.Stages, driver.LUndefined))
	}
	for i := range d.Volumes {
		ds = append(ds, combinedDesc(d.VolNr(i), d.Stages, driver.LUndefined))
	}
	return ds
}

// ConstSize returns the number of bytes consumed by the
// constant blocks of d.
func (d *HeapDesc) ConstSize() int64 {
	var n int64
	for _, c := range d.Consts {
		n += c.span()
	}
	return n
}

// ConstOff returns the offset of the i-th constant
// block within the stage's constant buffer.
func (d *HeapDesc) ConstOff(i int) int64 {
	var off int64
	for _, c := range d.Consts[:d.ConstNr(i)] {
		off += c.span()
	}
	return off
}

// ConstIndex returns the index of c in d.Consts, or -1
// if d does not use c.
func (d *HeapDesc) ConstIndex(c Const) int {
	for i, x := range d.Consts {
		if x == c {
			return i
		}
	}
	return -1
}

func combinedDesc(nr int, stages driver.Stage, layout driver.Layout) driver.Descriptor {
	return driver.Descriptor{
		Type:   driver.DCombined,
		Stages: stages,
		Nr:     nr,
		Len:    1,
		Layout: layout,
	}
}

// NewHeap creates a new driver.DescHeap as described
// by d.
func NewHeap(gpu driver.GPU, d *HeapDesc) (driver.DescHeap, error) {
	return gpu.NewDescHeap(d.Descriptors())
}

// StorageNr is the descriptor number of the history
// image in storage and history heaps.
const StorageNr = 0

// NewStorageHeap creates a new driver.DescHeap holding
// one storage image for compute shaders.
func NewStorageHeap(gpu driver.GPU) (driver.DescHeap, error) {
	return gpu.NewDescHeap([]driver.Descriptor{{
		Type:   driver.DImage,
		Stages: driver.SCompute,
		Nr:     StorageNr,
		Len:    1,
	}})
}

// NewHistoryHeap creates a new driver.DescHeap holding
// one sampled history image for fragment shaders.
// The image is sampled in the layout that compute
// shaders write it in.
func NewHistoryHeap(gpu driver.GPU) (driver.DescHeap, error) {
	return gpu.NewDescHeap([]driver.Descriptor{
		combinedDesc(StorageNr, driver.SFragment, driver.LCommon),
	})
}

// WriteConsts sets the constant descriptors of the given
// heap copy to consecutive ranges of buf.
// buf must hold at least d.ConstSize() bytes.
func (d *HeapDesc) WriteConsts(dh driver.DescHeap, cpy int, buf driver.Buffer) {
	if buf.Cap() < d.ConstSize() {
		panic("constant buffer range out of bounds")
	}
	b := []driver.Buffer{buf}
	for i, c := range d.Consts {
		dh.SetBuffer(cpy, d.ConstNr(i), 0, b, []int64{d.ConstOff(i)}, []int64{c.span()})
	}
}
