// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// ShaderSource is the SPIR-V code of a Stage.
// Raster roles use Vert and Frag, compute roles use
// Comp.
type ShaderSource struct {
	Vert, Frag, Comp []byte
}

// Assets is the static data that a Renderer uploads
// when it is created.
type Assets struct {
	Shaders map[Role]ShaderSource

	// Terrain albedo, PBR info, normal and coverage.
	MeshTextures [4]TexData

	// Cloud placement, night sky, curl noise and
	// cirrus.
	CloudTextures [4]TexData

	// Low and high-resolution cloud shapes followed by
	// two SDF shapes. The terrain samples the first
	// one.
	Volumes [4]TexData
}

func (a *Assets) validate() error {
	if a == nil {
		return errors.New("nil assets")
	}
	for r := RoleMesh; r <= RoleClouds; r++ {
		if _, ok := a.Shaders[r]; !ok {
			return fmt.Errorf("missing %s shaders", r)
		}
	}
	return nil
}

// Renderer draws the volumetric sky into a swapchain.
// It owns every GPU resource it creates, which are
// destroyed by Destroy in reverse creation order.
type Renderer struct {
	gpu    driver.GPU
	sc     driver.Swapchain
	cfg    Config
	params *param.Store
	log    *slog.Logger

	arena   Arena
	staging *stagingBuffer
	sampler driver.Sampler

	meshTex  [4]*Texture
	cloudTex [4]*Texture
	volumes  [4]*Texture

	history Pair[*Texture]
	histH   [MaxHistory]Handle
	hasHist bool

	quad      *Geometry
	terrain   *Geometry
	offscreen *OffscreenChain
	composite *compositeTarget
	stages    [RoleClouds + 1]*Stage
	timeline  *Timeline
	life      *Lifecycle

	pp      PingPong
	camera  *Camera
	sky     *Sky
	builder *Builder

	checked bool
	frames  uint64
	winW    int
	winH    int
}

// NewRenderer creates a new Renderer that presents to
// sc.
// Static data is uploaded and every command buffer is
// recorded before it returns; the GPU is idle at that
// point.
// If log is nil, slog.Default is used.
func NewRenderer(gpu driver.GPU, sc driver.Swapchain, assets *Assets, cfg Config, params *param.Store, log *slog.Logger) (*Renderer, error) {
	switch {
	case gpu == nil:
		return nil, newRendErr("nil driver.GPU in call to NewRenderer")
	case sc == nil:
		return nil, newRendErr("nil driver.Swapchain in call to NewRenderer")
	case params == nil:
		return nil, newRendErr("nil param.Store in call to NewRenderer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := assets.validate(); err != nil {
		return nil, wrapRendErr("invalid assets", err)
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Renderer{
		gpu:    gpu,
		sc:     sc,
		cfg:    cfg,
		params: params,
		log:    log,
	}
	if err := r.init(assets); err != nil {
		r.gpu.WaitIdle()
		r.arena.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(a *Assets) (err error) {
	width, height := r.sc.Extent()
	if width < 1 || height < 1 {
		return newRendErr("invalid swapchain extent")
	}

	if r.staging, err = newStaging(r.gpu); err != nil {
		return wrapRendErr("staging buffer creation failed", err)
	}
	r.arena.Add(r.staging)
	if r.sampler, err = newSampler(r.gpu, driver.AWrap); err != nil {
		return wrapRendErr("sampler creation failed", err)
	}
	r.arena.Add(r.sampler)
	if err = r.initTextures(a); err != nil {
		return
	}

	if r.quad, err = NewQuad(r.gpu); err != nil {
		return wrapRendErr("quad creation failed", err)
	}
	r.arena.Add(r.quad)
	if r.terrain, err = NewGrid(r.gpu, r.cfg.GridSize); err != nil {
		return wrapRendErr("terrain creation failed", err)
	}
	r.arena.Add(r.terrain)

	if r.offscreen, err = NewOffscreenChain(r.gpu, width, height); err != nil {
		return wrapRendErr("offscreen chain creation failed", err)
	}
	r.arena.Add(r.offscreen)
	if r.composite, err = newCompositeTarget(r.gpu, r.sc.Format(), r.offscreen.DepthFormat()); err != nil {
		return wrapRendErr("composite pass creation failed", err)
	}
	r.arena.Add(r.composite)
	if err = r.composite.build(r.sc.Views(), width, height); err != nil {
		return wrapRendErr("composite framebuffer creation failed", err)
	}
	if err = r.newHistory(width, height); err != nil {
		return
	}
	if err = r.initStages(a); err != nil {
		return
	}

	if r.timeline, err = NewTimeline(r.gpu, r.sc, &r.pp); err != nil {
		return wrapRendErr("timeline creation failed", err)
	}
	r.arena.Add(r.timeline)
	if err = r.timeline.NewComposite(len(r.sc.Views())); err != nil {
		return wrapRendErr("composite command buffer creation failed", err)
	}

	c := &r.cfg
	r.camera = NewCamera(linear.V3(c.CameraPos), linear.V3(c.CameraTarget), c.Near, c.Far, c.FOV)
	r.camera.LookSpeed = c.LookSpeed
	r.camera.SetAspect(width, height)
	r.sky = NewSky()
	r.builder = NewBuilder(r.params, r.camera, r.sky, c.ModelScale)
	r.life = newLifecycle(r.gpu, r.sc, r)
	r.winW, r.winH = width, height

	if err = r.record(width, height); err != nil {
		return
	}
	if err = r.gpu.WaitIdle(); err != nil {
		return wrapRendErr("wait idle failed", err)
	}
	r.log.Info("renderer initialized",
		"width", width,
		"height", height,
		"images", len(r.sc.Views()),
		"resources", r.arena.Len())
	return nil
}

// initTextures creates the sampled textures and commits
// their data.
func (r *Renderer) initTextures(a *Assets) error {
	load := func(dst []*Texture, src []TexData, what string, fn func(driver.GPU, *TexParam) (*Texture, error)) error {
		for i := range src {
			t, err := fn(r.gpu, &src[i].TexParam)
			if err != nil {
				return wrapRendErr(fmt.Sprintf("%s %d creation failed", what, i), err)
			}
			r.arena.Add(t)
			dst[i] = t
			if err = t.upload(r.staging, src[i].Data); err != nil {
				return wrapRendErr(fmt.Sprintf("%s %d upload failed", what, i), err)
			}
		}
		return nil
	}
	if err := load(r.meshTex[:], a.MeshTextures[:], "mesh texture", New2D); err != nil {
		return err
	}
	if err := load(r.cloudTex[:], a.CloudTextures[:], "cloud texture", New2D); err != nil {
		return err
	}
	if err := load(r.volumes[:], a.Volumes[:], "volume", New3D); err != nil {
		return err
	}
	if err := r.staging.commit(); err != nil {
		return wrapRendErr("texture upload failed", err)
	}
	return nil
}

// newHistory creates the history images and transitions
// them to driver.LCommon.
func (r *Renderer) newHistory(width, height int) error {
	r.freeHistory()
	tp := TexParam{driver.RGBA32f, driver.Dim3D{Width: width, Height: height}}
	for i, p := range [MaxHistory]**Texture{&r.history.A, &r.history.B} {
		t, err := NewStorage(r.gpu, &tp)
		if err != nil {
			r.freeHistory()
			return wrapRendErr("history image creation failed", err)
		}
		*p = t
		r.histH[i] = r.arena.Add(t)
		r.hasHist = true
		err = r.staging.transition(t, driver.LCommon, driver.Barrier{
			SyncBefore:   driver.SNone,
			SyncAfter:    driver.SComputeShading | driver.SFragmentShading,
			AccessBefore: driver.ANone,
			AccessAfter:  driver.AShaderRead | driver.AShaderWrite,
		})
		if err != nil {
			r.freeHistory()
			return wrapRendErr("history image transition failed", err)
		}
	}
	if err := r.staging.commit(); err != nil {
		r.freeHistory()
		return wrapRendErr("history image transition failed", err)
	}
	return nil
}

func (r *Renderer) freeHistory() {
	if !r.hasHist {
		return
	}
	for i, p := range [MaxHistory]**Texture{&r.history.A, &r.history.B} {
		if *p != nil {
			r.arena.Free(r.histH[i])
			*p = nil
		}
	}
	r.hasHist = false
}

func (r *Renderer) historyViews() *Pair[driver.ImageView] {
	return &Pair[driver.ImageView]{A: r.history.A.View(), B: r.history.B.View()}
}

func views(ts []*Texture) []driver.ImageView {
	v := make([]driver.ImageView, len(ts))
	for i, t := range ts {
		v[i] = t.View()
	}
	return v
}

// initStages creates a Stage for every Role.
func (r *Renderer) initStages(a *Assets) error {
	hist := r.historyViews()
	clamp := r.offscreen.Sampler()
	post := func(role Role, src driver.ImageView, pass driver.RenderPass) *StageDesc {
		return &StageDesc{
			Role:    role,
			Sampler: clamp,
			Source:  src,
			Pass:    pass,
			Vertex:  r.quad.Inputs(),
		}
	}
	descs := [...]*StageDesc{
		RoleMesh: {
			Role:      RoleMesh,
			Textures:  views(r.meshTex[:]),
			Volumes:   views(r.volumes[:1]),
			Sampler:   r.sampler,
			Pass:      r.offscreen.Pass(),
			Vertex:    r.terrain.Inputs(),
			DepthTest: true,
		},
		RoleBackground: {
			Role:    RoleBackground,
			Sampler: clamp,
			History: hist,
			Pass:    r.offscreen.Pass(),
			Vertex:  r.quad.Inputs(),
		},
		RoleGodRay:     post(RoleGodRay, r.offscreen.Color(0), r.offscreen.Pass()),
		RoleRadialBlur: post(RoleRadialBlur, r.offscreen.Color(1), r.offscreen.Pass()),
		RoleTonemap:    post(RoleTonemap, r.offscreen.Color(2), r.composite.pass),
		RoleReproject: {
			Role:    RoleReproject,
			Sampler: r.sampler,
			History: hist,
		},
		RoleClouds: {
			Role:     RoleClouds,
			Textures: views(r.cloudTex[:]),
			Volumes:  views(r.volumes[:]),
			Sampler:  r.sampler,
			History:  hist,
		},
	}
	for role, d := range descs {
		src := a.Shaders[Role(role)]
		d.Vert, d.Frag, d.Comp = src.Vert, src.Frag, src.Comp
		s, err := NewStage(r.gpu, d)
		if err != nil {
			return err
		}
		r.arena.Add(s)
		r.stages[role] = s
	}
	return nil
}

// bindImages points the stages at the current history
// and offscreen images.
func (r *Renderer) bindImages() {
	hist := r.historyViews()
	for _, role := range [...]Role{RoleBackground, RoleReproject, RoleClouds} {
		r.stages[role].SetHistory(hist)
	}
	r.stages[RoleGodRay].SetSource(r.offscreen.Color(0))
	r.stages[RoleRadialBlur].SetSource(r.offscreen.Color(1))
	r.stages[RoleTonemap].SetSource(r.offscreen.Color(2))
}

// cloudExtent returns the extent of the cloud
// simulation.
func (r *Renderer) cloudExtent(width, height int) (int, int) {
	s := r.cfg.CloudScale
	return (width + s - 1) / s, (height + s - 1) / s
}

// record records every command buffer for the given
// extent.
func (r *Renderer) record(width, height int) error {
	for _, h := range [...]bool{false, true} {
		if err := r.recordCompute(h, width, height); err != nil {
			return wrapRendErr("compute recording failed", err)
		}
		if err := r.recordOffscreen(h); err != nil {
			return wrapRendErr("offscreen recording failed", err)
		}
	}
	for i := range r.timeline.CompositeLen() {
		if err := r.recordComposite(i); err != nil {
			return wrapRendErr("composite recording failed", err)
		}
	}
	return nil
}

// computeBarrier makes the reprojection writes visible
// to the cloud simulation.
var computeBarrier = []driver.Barrier{{
	SyncBefore:   driver.SComputeShading,
	SyncAfter:    driver.SComputeShading,
	AccessBefore: driver.AShaderWrite,
	AccessAfter:  driver.AShaderRead | driver.AShaderWrite,
}}

func (r *Renderer) recordCompute(h bool, width, height int) error {
	cb := r.timeline.Compute(h)
	if err := cb.Begin(); err != nil {
		return err
	}
	f := &Frame{History: h, Image: -1, Width: width, Height: height}
	wg := r.cfg.WorkgroupSize
	r.stages[RoleReproject].Bind(cb, f)
	cb.Dispatch(DispatchSize(width, height, wg))
	cb.Barrier(computeBarrier)
	cw, ch := r.cloudExtent(width, height)
	r.stages[RoleClouds].Bind(cb, f)
	cb.Dispatch(DispatchSize(cw, ch, wg))
	return cb.End()
}

// recordOffscreen records the offscreen command buffer
// submitted when the frame's history value is h.
// The ping-pong value is toggled before that submission,
// so the background reads what this frame's compute
// work wrote.
func (r *Renderer) recordOffscreen(h bool) error {
	cb := r.timeline.Offscreen(h)
	if err := cb.Begin(); err != nil {
		return err
	}
	w, ht := r.offscreen.Extent()
	f := &Frame{History: !h, Image: -1, Width: w, Height: ht}
	r.offscreen.Record(cb, f, &OffscreenDraws{
		Background: r.stages[RoleBackground],
		GodRay:     r.stages[RoleGodRay],
		RadialBlur: r.stages[RoleRadialBlur],
		Mesh:       r.stages[RoleMesh],
		Quad:       r.quad,
		Terrain:    r.terrain,
	})
	return cb.End()
}

func (r *Renderer) recordComposite(image int) error {
	cb := r.timeline.Composite(image)
	if err := cb.Begin(); err != nil {
		return err
	}
	f := &Frame{Image: image, Width: r.composite.width, Height: r.composite.height}
	r.composite.record(cb, image, f, r.stages[RoleTonemap], r.quad)
	return cb.End()
}

// release destroys everything that depends on the
// swapchain extent. The GPU must be idle.
func (r *Renderer) release() {
	r.timeline.FreeComposite()
	for _, h := range [...]bool{false, true} {
		for _, cb := range [...]driver.CmdBuffer{r.timeline.Compute(h), r.timeline.Offscreen(h)} {
			if err := cb.Reset(); err != nil {
				r.log.Warn("command buffer reset failed", "err", err)
			}
		}
	}
	r.composite.release()
	r.freeHistory()
}

// rebuild recreates what release destroyed at the given
// extent and records the command buffers again.
func (r *Renderer) rebuild(width, height int) error {
	if err := r.offscreen.Rebuild(width, height); err != nil {
		return wrapRendErr("offscreen rebuild failed", err)
	}
	if err := r.composite.build(r.sc.Views(), width, height); err != nil {
		return wrapRendErr("composite rebuild failed", err)
	}
	if err := r.newHistory(width, height); err != nil {
		return err
	}
	r.bindImages()
	if err := r.timeline.NewComposite(len(r.sc.Views())); err != nil {
		return wrapRendErr("composite command buffer creation failed", err)
	}
	r.camera.SetAspect(width, height)
	if err := r.record(width, height); err != nil {
		return err
	}
	r.log.Info("swapchain recreated", "width", width, "height", height, "frame", r.frames)
	return nil
}

// Frame draws and presents a single frame.
// elapsed is the time in seconds since rendering
// started.
// Swapchain recreation happens here, before anything
// is submitted. A minimized window skips the frame.
func (r *Renderer) Frame(elapsed float32) error {
	if !r.checked {
		if err := r.params.Require(param.CloudFloats, param.CloudVectors); err != nil {
			return err
		}
		r.checked = true
	}
	if _, err := r.life.Recreate(r.winW, r.winH); err != nil {
		return err
	}
	if r.life.Dirty() {
		return nil
	}

	snap, err := r.builder.Build(elapsed)
	if err != nil {
		return err
	}
	for _, s := range r.stages {
		s.UpdateUniforms(snap)
	}
	w, h := r.life.Extent()
	f := r.pp.Begin(w, h)
	f.Snapshot = snap

	_, err = r.timeline.Draw(f)
	switch {
	case errors.Is(err, ErrOutOfDate):
		r.log.Debug("swapchain out of date", "frame", r.frames)
		r.timeline.ClearRecreate()
		r.life.MarkDirty()
		return nil
	case err != nil:
		return err
	}
	if r.timeline.NeedsRecreate() {
		r.timeline.ClearRecreate()
		r.life.MarkDirty()
	}
	r.frames++
	return nil
}

// Resize informs r that the window extent changed.
// Recreation is deferred to the next Frame call.
func (r *Renderer) Resize(width, height int) {
	r.winW, r.winH = width, height
	r.life.MarkDirty()
}

// Run renders frames until win is closed or ctx is
// done. Both are only checked between frames.
// ctl receives the window events and moves the camera;
// if nil, a Controller is created from r's Config.
// It returns nil when the window is closed and ctx.Err()
// when ctx is done.
// While the window is minimized, Run blocks on window
// events instead of polling.
func (r *Renderer) Run(ctx context.Context, win wsi.Window, ctl *Controller) error {
	if ctl == nil {
		ctl = NewController(r.cfg.MoveSpeed)
	}
	wsi.SetWindowHandler(ctl)
	wsi.SetKeyboardHandler(ctl)
	wsi.SetPointerHandler(ctl)
	defer func() {
		wsi.SetWindowHandler(nil)
		wsi.SetKeyboardHandler(nil)
		wsi.SetPointerHandler(nil)
	}()

	start := time.Now()
	prev := start
	for {
		if err := ctx.Err(); err != nil {
			return r.idle(err)
		}
		if r.minimized() {
			waitEvents(minimizedWait)
		} else {
			wsi.Dispatch()
		}
		if ctl.Closed() || win.ShouldClose() {
			return r.idle(nil)
		}
		if w, h, ok := ctl.TakeResize(); ok {
			r.Resize(w, h)
		}
		now := time.Now()
		ctl.Update(r.camera, float32(now.Sub(prev).Seconds()))
		prev = now
		if err := r.Frame(float32(now.Sub(start).Seconds())); err != nil {
			return r.idle(err)
		}
	}
}

// minimizedWait is how long Run blocks waiting for
// window events while the window has no area.
const minimizedWait = 100 * time.Millisecond

// waitEvents is replaced in tests.
var waitEvents = wsi.Wait

// minimized reports whether the window has no area, in
// which case Frame draws nothing.
func (r *Renderer) minimized() bool { return r.winW <= 0 || r.winH <= 0 }

// idle waits for the GPU to be idle and returns err,
// or the wait error if err is nil.
func (r *Renderer) idle(err error) error {
	if e := r.gpu.WaitIdle(); e != nil && err == nil {
		err = wrapRendErr("wait idle failed", e)
	}
	return err
}

// Camera returns the camera.
func (r *Renderer) Camera() *Camera { return r.camera }

// Sky returns the sky.
func (r *Renderer) Sky() *Sky { return r.sky }

// Params returns the parameter store.
func (r *Renderer) Params() *param.Store { return r.params }

// Timeline returns the frame timeline.
// It can be used to set an Overlay or an Observer.
func (r *Renderer) Timeline() *Timeline { return r.timeline }

// Frames returns the number of frames presented.
func (r *Renderer) Frames() uint64 { return r.frames }

// Extent returns the current swapchain extent.
func (r *Renderer) Extent() (width, height int) { return r.life.Extent() }

// Destroy waits for the GPU to be idle and destroys
// every resource that r owns.
// The swapchain is not destroyed.
func (r *Renderer) Destroy() {
	if r.gpu == nil {
		return
	}
	if err := r.gpu.WaitIdle(); err != nil {
		r.log.Warn("wait idle failed", "err", err)
	}
	r.arena.Destroy()
	*r = Renderer{}
}
