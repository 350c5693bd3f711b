// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"fmt"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/internal/shader"
)

// StageKind is the kind of a Stage.
type StageKind int

// Stage kinds.
const (
	Raster StageKind = iota
	Compute
)

func (k StageKind) String() string {
	switch k {
	case Raster:
		return "raster"
	case Compute:
		return "compute"
	}
	return "!engine.StageKind"
}

// Role identifies what a Stage renders.
type Role int

// Roles.
const (
	// Terrain mesh.
	RoleMesh Role = iota
	// Sky and clouds, sampled from the history
	// image that the simulation wrote.
	RoleBackground
	RoleGodRay
	RoleRadialBlur
	// Tone mapping into the swapchain image.
	RoleTonemap
	// Reprojection of the previous history image.
	RoleReproject
	// Cloud simulation.
	RoleClouds
)

func (r Role) String() string {
	switch r {
	case RoleMesh:
		return "mesh"
	case RoleBackground:
		return "background"
	case RoleGodRay:
		return "god ray"
	case RoleRadialBlur:
		return "radial blur"
	case RoleTonemap:
		return "tonemap"
	case RoleReproject:
		return "reproject"
	case RoleClouds:
		return "clouds"
	}
	return "!engine.Role"
}

// Kind returns the StageKind of r.
func (r Role) Kind() StageKind {
	if r == RoleReproject || r == RoleClouds {
		return Compute
	}
	return Raster
}

// heap returns the uniform heap description of r, or
// nil if r has no uniform data.
func (r Role) heap() *shader.HeapDesc {
	switch r {
	case RoleMesh:
		return &shader.MeshHeap
	case RoleReproject:
		return &shader.ReprojectHeap
	case RoleClouds:
		return &shader.CloudsHeap
	case RoleGodRay, RoleRadialBlur, RoleTonemap:
		return &shader.PostHeap
	}
	return nil
}

// usesHistory reports whether r binds the history
// images.
func (r Role) usesHistory() bool {
	return r == RoleBackground || r == RoleReproject || r == RoleClouds
}

// isPost reports whether r samples a single source
// image.
func (r Role) isPost() bool {
	return r == RoleGodRay || r == RoleRadialBlur || r == RoleTonemap
}

// StageDesc describes a Stage.
type StageDesc struct {
	Role Role

	// SPIR-V code of raster stages (Vert and Frag)
	// or compute stages (Comp).
	Vert, Frag []byte
	Comp       []byte

	// Sampled textures of the uniform heap, in
	// descriptor order.
	// Stages only refer to these views; they must
	// outlive the Stage.
	Textures []driver.ImageView
	Volumes  []driver.ImageView
	Sampler  driver.Sampler

	// History images, for roles that use them.
	History *Pair[driver.ImageView]

	// Sampled source image of post-processing roles.
	Source driver.ImageView

	// Render pass state of raster roles.
	Pass      driver.RenderPass
	Subpass   int
	Vertex    []driver.VertexIn
	DepthTest bool
}

// validate checks whether d is valid.
func (d *StageDesc) validate() error {
	h := d.Role.heap()
	var reason string
	switch {
	case d.Role < RoleMesh || d.Role > RoleClouds:
		reason = "invalid role"
	case d.Role.Kind() == Raster && (len(d.Vert) == 0 || len(d.Frag) == 0):
		reason = "missing vertex or fragment code"
	case d.Role.Kind() == Compute && len(d.Comp) == 0:
		reason = "missing compute code"
	case d.Role.Kind() == Raster && d.Pass == nil:
		reason = "missing render pass"
	case d.Role.usesHistory() && (d.History == nil || d.History.A == nil || d.History.B == nil):
		reason = "missing history images"
	case d.Role.isPost() && d.Source == nil:
		reason = "missing source image"
	case h != nil && !d.Role.isPost() && (len(d.Textures) != h.Textures || len(d.Volumes) != h.Volumes):
		reason = "texture count mismatch"
	case (h != nil && h.Textures+h.Volumes > 0 || d.Role == RoleBackground) && d.Sampler == nil:
		reason = "missing sampler"
	default:
		return nil
	}
	return errors.New(reason)
}

// Stage is a GPU program with the resources it binds.
// A Stage owns its heaps, descriptor table, shader
// codes, pipeline and constant buffer. It refers to,
// but does not own, the images it samples or writes.
type Stage struct {
	role    Role
	desc    *shader.HeapDesc
	heap    driver.DescHeap
	hist    driver.DescHeap
	table   driver.DescTable
	codes   []driver.ShaderCode
	pipeln  driver.Pipeline
	cbuf    driver.Buffer
	sampler driver.Sampler
}

// NewStage creates a new Stage.
// Resources are created in dependency order: heaps,
// descriptor table, shader codes, pipeline, constant
// buffer, heap copies and then descriptor writes.
// On failure, everything created so far is destroyed
// and the error wraps ErrStageInit.
func NewStage(gpu driver.GPU, d *StageDesc) (*Stage, error) {
	fail := func(err error) error {
		return fmt.Errorf("%w: %s: %w", ErrStageInit, d.Role, err)
	}
	if err := d.validate(); err != nil {
		return nil, fail(err)
	}
	s := &Stage{
		role:    d.Role,
		desc:    d.Role.heap(),
		sampler: d.Sampler,
	}
	if err := s.init(gpu, d); err != nil {
		s.Destroy()
		return nil, fail(err)
	}
	return s, nil
}

func (s *Stage) init(gpu driver.GPU, d *StageDesc) (err error) {
	// Heaps.
	if s.desc != nil {
		if s.heap, err = shader.NewHeap(gpu, s.desc); err != nil {
			return
		}
	}
	switch s.role.Kind() {
	case Compute:
		s.hist, err = shader.NewStorageHeap(gpu)
	default:
		if s.role.usesHistory() {
			s.hist, err = shader.NewHistoryHeap(gpu)
		}
	}
	if err != nil {
		return
	}

	// Descriptor table.
	var heaps []driver.DescHeap
	switch {
	case s.role.Kind() == Compute:
		heaps = []driver.DescHeap{s.hist, s.hist, s.heap}
	case s.role == RoleBackground:
		heaps = []driver.DescHeap{s.hist}
	default:
		heaps = []driver.DescHeap{s.heap}
	}
	if s.table, err = gpu.NewDescTable(heaps); err != nil {
		return
	}

	// Shader codes and pipeline.
	var state any
	if s.role.Kind() == Compute {
		var comp driver.ShaderCode
		if comp, err = s.newCode(gpu, d.Comp); err != nil {
			return
		}
		state = &driver.CompState{
			Func: driver.ShaderFunc{Code: comp, Name: "main"},
			Desc: s.table,
		}
	} else {
		var vert, frag driver.ShaderCode
		if vert, err = s.newCode(gpu, d.Vert); err != nil {
			return
		}
		if frag, err = s.newCode(gpu, d.Frag); err != nil {
			return
		}
		state = &driver.GraphState{
			VertFunc:   driver.ShaderFunc{Code: vert, Name: "main"},
			FragFunc:   driver.ShaderFunc{Code: frag, Name: "main"},
			Desc:       s.table,
			Input:      d.Vertex,
			Topology:   driver.TTriangle,
			Cull:       driver.CNone,
			DepthTest:  d.DepthTest,
			DepthWrite: d.DepthTest,
			DepthCmp:   driver.CLessEqual,
			Pass:       d.Pass,
			Subpass:    d.Subpass,
		}
	}
	if s.pipeln, err = gpu.NewPipeline(state); err != nil {
		return
	}

	// Constant buffer.
	if s.desc != nil {
		if s.cbuf, err = gpu.NewBuffer(s.desc.ConstSize(), true, driver.UShaderConst); err != nil {
			return
		}
	}

	// Heap copies.
	if s.heap != nil {
		if err = s.heap.New(1); err != nil {
			return
		}
	}
	if s.hist != nil {
		if err = s.hist.New(MaxHistory); err != nil {
			return
		}
	}

	// Descriptor writes.
	if s.heap != nil {
		s.desc.WriteConsts(s.heap, 0, s.cbuf)
		if s.role.isPost() {
			s.SetSource(d.Source)
		} else {
			for i, v := range d.Textures {
				s.heap.SetCombined(0, s.desc.TexNr(i), 0, []driver.ImageView{v}, []driver.Sampler{s.sampler})
			}
			for i, v := range d.Volumes {
				s.heap.SetCombined(0, s.desc.VolNr(i), 0, []driver.ImageView{v}, []driver.Sampler{s.sampler})
			}
		}
	}
	if s.hist != nil {
		s.SetHistory(d.History)
	}
	return nil
}

func (s *Stage) newCode(gpu driver.GPU, data []byte) (driver.ShaderCode, error) {
	code, err := gpu.NewShaderCode(data)
	if err != nil {
		return nil, err
	}
	s.codes = append(s.codes, code)
	return code, nil
}

// Role returns the role of s.
func (s *Stage) Role() Role { return s.role }

// Kind returns the kind of s.
func (s *Stage) Kind() StageKind { return s.role.Kind() }

// SetHistory updates the history descriptors.
// Heap copy 0 refers to p.A and heap copy 1 to p.B.
// It must not be called while the GPU may be using s.
func (s *Stage) SetHistory(p *Pair[driver.ImageView]) {
	if s.hist == nil {
		panic("stage has no history images")
	}
	for i, v := range [MaxHistory]driver.ImageView{p.A, p.B} {
		if s.role.Kind() == Compute {
			s.hist.SetImage(i, shader.StorageNr, 0, []driver.ImageView{v})
		} else {
			s.hist.SetCombined(i, shader.StorageNr, 0, []driver.ImageView{v}, []driver.Sampler{s.sampler})
		}
	}
}

// SetSource updates the source image of a
// post-processing stage.
// It must not be called while the GPU may be using s.
func (s *Stage) SetSource(v driver.ImageView) {
	if !s.role.isPost() {
		panic("stage has no source image")
	}
	s.heap.SetCombined(0, s.desc.TexNr(0), 0, []driver.ImageView{v}, []driver.Sampler{s.sampler})
}

// heapCopies returns which heap copy each heap of the
// descriptor table uses when the ping-pong value is h.
func (s *Stage) heapCopies(h bool) []int {
	switch {
	case s.role.Kind() == Compute:
		// Write(h), Read(h) and the uniform heap.
		return []int{b2i(h), 1 - b2i(h), 0}
	case s.role == RoleBackground:
		return []int{1 - b2i(h)}
	}
	return []int{0}
}

// Bind records the commands that set s's pipeline and
// descriptor table into cb.
// The history images are selected by f.History.
func (s *Stage) Bind(cb driver.CmdBuffer, f *Frame) {
	cb.SetPipeline(s.pipeln)
	if s.role.Kind() == Compute {
		cb.SetDescTableComp(s.table, 0, s.heapCopies(f.History))
	} else {
		cb.SetDescTableGraph(s.table, 0, s.heapCopies(f.History))
	}
}

// UpdateUniforms copies the constant blocks that s uses
// from snap into s's constant buffer.
// The buffer is host-visible and coherent, so no GPU
// synchronization is involved; the caller must ensure
// that no submitted work is reading it.
func (s *Stage) UpdateUniforms(snap *Snapshot) {
	if s.desc == nil {
		return
	}
	b := s.cbuf.Bytes()
	for i, c := range s.desc.Consts {
		copy(b[s.desc.ConstOff(i):], snap.layout(c))
	}
}

// DispatchSize returns the number of workgroups needed
// to cover a width by height image with square tiles.
func DispatchSize(width, height, tile int) (x, y, z int) {
	if tile < 1 {
		panic("invalid tile size")
	}
	return (width + tile - 1) / tile, (height + tile - 1) / tile, 1
}

// Destroy destroys s's resources in reverse creation
// order.
func (s *Stage) Destroy() {
	if s.cbuf != nil {
		s.cbuf.Destroy()
	}
	if s.pipeln != nil {
		s.pipeln.Destroy()
	}
	for i := len(s.codes) - 1; i >= 0; i-- {
		s.codes[i].Destroy()
	}
	if s.table != nil {
		s.table.Destroy()
	}
	if s.hist != nil {
		s.hist.Destroy()
	}
	if s.heap != nil {
		s.heap.Destroy()
	}
	*s = Stage{}
}
