// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"unsafe"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

const geomPrefix = "geometry: "

// Semantic specifies the intended use of a vertex
// attribute.
type Semantic int

// Semantics.
const (
	Position Semantic = iota
	Normal
	TexCoord0

	MaxSemantic int = iota
)

// format returns the driver.VertexFmt of s.
func (s Semantic) format() driver.VertexFmt {
	switch s {
	case Position, Normal:
		return driver.Float32x3
	case TexCoord0:
		return driver.Float32x2
	}
	panic("undefined Semantic constant")
}

func (s Semantic) String() string {
	switch s {
	case Position:
		return "Position"
	case Normal:
		return "Normal"
	case TexCoord0:
		return "TexCoord0"
	}
	return "!engine.Semantic"
}

// Geometry is indexed triangle data stored in a single
// host-visible buffer.
// Vertex attributes are not interleaved: each semantic
// is a separate range of the buffer, followed by the
// 32-bit indices.
type Geometry struct {
	buf       driver.Buffer
	off       [MaxSemantic]int64
	idxOff    int64
	vertCount int
	idxCount  int
}

// geometryData is the CPU copy of a Geometry.
type geometryData struct {
	pos  [][3]float32
	norm [][3]float32
	uv   [][2]float32
	idx  []uint32
}

func (d *geometryData) size() int64 {
	n := len(d.pos)
	return int64(n*(12+12+8) + len(d.idx)*4)
}

// newGeometry creates a Geometry holding d.
func newGeometry(gpu driver.GPU, d *geometryData) (*Geometry, error) {
	if len(d.pos) == 0 || len(d.norm) != len(d.pos) || len(d.uv) != len(d.pos) {
		panic("invalid geometry data")
	}
	buf, err := gpu.NewBuffer(d.size(), true, driver.UVertexData|driver.UIndexData)
	if err != nil {
		return nil, err
	}
	g := &Geometry{
		buf:       buf,
		vertCount: len(d.pos),
		idxCount:  len(d.idx),
	}
	b := buf.Bytes()
	var off int64
	put := func(p unsafe.Pointer, n int) {
		copy(b[off:], unsafe.Slice((*byte)(p), n))
		off += int64(n)
	}
	g.off[Position] = off
	put(unsafe.Pointer(unsafe.SliceData(d.pos)), len(d.pos)*12)
	g.off[Normal] = off
	put(unsafe.Pointer(unsafe.SliceData(d.norm)), len(d.norm)*12)
	g.off[TexCoord0] = off
	put(unsafe.Pointer(unsafe.SliceData(d.uv)), len(d.uv)*8)
	g.idxOff = off
	put(unsafe.Pointer(unsafe.SliceData(d.idx)), len(d.idx)*4)
	return g, nil
}

// NewQuad creates a quad covering the whole viewport.
// Positions are given in clip space.
func NewQuad(gpu driver.GPU) (*Geometry, error) {
	return newGeometry(gpu, &geometryData{
		pos:  [][3]float32{{-1, -1, 0}, {1, -1, 0}, {-1, 1, 0}, {1, 1, 0}},
		norm: [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		uv:   [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		idx:  []uint32{0, 1, 2, 2, 1, 3},
	})
}

// NewGrid creates a flat grid of n by n cells on the XZ
// plane, spanning [-1, 1] in both directions and facing
// up.
func NewGrid(gpu driver.GPU, n int) (*Geometry, error) {
	if n < 1 {
		return nil, errors.New(geomPrefix + "invalid grid size")
	}
	nv := (n + 1) * (n + 1)
	d := geometryData{
		pos:  make([][3]float32, 0, nv),
		norm: make([][3]float32, 0, nv),
		uv:   make([][2]float32, 0, nv),
		idx:  make([]uint32, 0, n*n*6),
	}
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			u := float32(x) / float32(n)
			v := float32(z) / float32(n)
			d.pos = append(d.pos, [3]float32{u*2 - 1, 0, v*2 - 1})
			d.norm = append(d.norm, [3]float32{0, 1, 0})
			d.uv = append(d.uv, [2]float32{u, v})
		}
	}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			i0 := uint32(z*(n+1) + x)
			i1 := i0 + 1
			i2 := i0 + uint32(n+1)
			i3 := i2 + 1
			d.idx = append(d.idx, i0, i2, i1, i1, i2, i3)
		}
	}
	return newGeometry(gpu, &d)
}

// Inputs returns the vertex inputs of g.
// driver.VertexIn.Nr is set to the Semantic value.
func (g *Geometry) Inputs() []driver.VertexIn {
	vin := make([]driver.VertexIn, MaxSemantic)
	for i := range vin {
		f := Semantic(i).format()
		vin[i] = driver.VertexIn{Format: f, Stride: f.Size(), Nr: i}
	}
	return vin
}

// Draw sets the vertex/index buffers and draws g.
// cb must have an active render pass and a graphics
// pipeline whose inputs match g.Inputs().
func (g *Geometry) Draw(cb driver.CmdBuffer) {
	var buf [MaxSemantic]driver.Buffer
	for i := range buf {
		buf[i] = g.buf
	}
	cb.SetVertexBuf(0, buf[:], g.off[:])
	cb.SetIndexBuf(driver.Index32, g.buf, g.idxOff)
	cb.DrawIndexed(g.idxCount, 1, 0, 0, 0)
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return g.vertCount }

// IndexCount returns the number of indices.
func (g *Geometry) IndexCount() int { return g.idxCount }

// Destroy destroys the buffer.
func (g *Geometry) Destroy() {
	if g.buf != nil {
		g.buf.Destroy()
	}
	*g = Geometry{}
}
