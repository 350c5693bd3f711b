// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create other types and to execute commands.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Queue returns the queue of the given kind.
	// Different kinds may refer to the same underlying
	// queue when the device has no dedicated one.
	Queue(kind QueueKind) Queue

	// NewSemaphore creates a new binary semaphore.
	NewSemaphore() (Semaphore, error)

	// NewCmdBuffer creates a new command buffer whose
	// commands are meant to be submitted to q.
	NewCmdBuffer(q Queue) (CmdBuffer, error)

	// NewRenderPass creates a new render pass.
	// Dependencies in dep are applied in addition to the
	// implicit ordering between subpasses.
	NewRenderPass(att []Attachment, sub []Subpass, dep []Dependency) (RenderPass, error)

	// NewShaderCode creates a new shader code.
	NewShaderCode(data []byte) (ShaderCode, error)

	// NewDescHeap creates a new descriptor heap.
	NewDescHeap(ds []Descriptor) (DescHeap, error)

	// NewDescTable creates a new descriptor table.
	NewDescTable(dh []DescHeap) (DescTable, error)

	// NewPipeline creates a new pipeline.
	// The state parameter must be a pointer to a GraphState or
	// a pointer to a CompState.
	NewPipeline(state any) (Pipeline, error)

	// NewBuffer creates a new buffer.
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewImage creates a new image.
	NewImage(pf PixelFmt, size Dim3D, layers, levels, samples int, usg Usage) (Image, error)

	// NewSampler creates a new Sampler.
	NewSampler(spln *Sampling) (Sampler, error)

	// FormatSupported reports whether images of the given
	// format can be created with the given usage.
	FormatSupported(pf PixelFmt, usg Usage) bool

	// WaitIdle blocks until every queue is idle.
	WaitIdle() error

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// QueueKind identifies the role of a queue.
type QueueKind int

// Queue kinds.
const (
	QGraphics QueueKind = iota
	QCompute
	QPresent
)

func (k QueueKind) String() string {
	switch k {
	case QGraphics:
		return "graphics"
	case QCompute:
		return "compute"
	case QPresent:
		return "present"
	}
	return "invalid"
}

// Queue is the interface that defines a device queue.
// Submission is asynchronous: ordering between batches
// is only guaranteed through semaphores.
type Queue interface {
	// Kind returns the kind that was requested when
	// the queue was obtained.
	Kind() QueueKind

	// Family returns the queue family index.
	// Queues of the same family share command buffer
	// compatibility.
	Family() int

	// Submit submits a number of batches for execution.
	// The batches are submitted in a single call, so
	// either all of them are queued or none is.
	Submit(b []Batch) error

	// WaitIdle blocks until the queue is idle.
	WaitIdle() error
}

// Semaphore is the interface that defines a binary semaphore
// used to order work across queues and presentation.
type Semaphore interface {
	Destroyer
}

// Wait describes a semaphore wait operation.
// Execution of the batch is blocked at the Sync scope
// until Sem is signaled.
type Wait struct {
	Sem  Semaphore
	Sync Sync
}

// Batch is a unit of queue submission.
type Batch struct {
	Wait   []Wait
	Cmd    []CmdBuffer
	Signal []Semaphore
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later
// submitted to a Queue for execution. The usage is as
// follows: call Begin to prepare the command buffer for
// recording and, if it succeeds, record commands.
//
// To record commands for a render pass:
//  1. call BeginPass
//  2. call Set* methods to configure rendering state
//  3. call Draw* commands
//  4. call EndPass
//
// Compute commands (SetPipeline, SetDescTableComp and
// Dispatch) are recorded outside of render passes.
//
// Finally, call End and, if it succeeds, Queue.Submit.
// A command buffer that was ended can be submitted any
// number of times, provided that the previous submission
// completed execution.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// Any previously recorded commands are discarded.
	Begin() error

	// BeginPass begins the render pass.
	BeginPass(pass RenderPass, fb Framebuf, clear []ClearValue)

	// EndPass ends the current render pass.
	EndPass()

	// SetPipeline sets the pipeline.
	// There is a separate binding point for each
	// type of pipeline.
	SetPipeline(pl Pipeline)

	// SetViewport sets the bounds of one or more
	// viewports.
	SetViewport(vp []Viewport)

	// SetScissor sets the rectangles of one or more
	// viewport scissors.
	SetScissor(sciss []Scissor)

	// SetVertexBuf sets one or more vertex buffers.
	SetVertexBuf(start int, buf []Buffer, off []int64)

	// SetIndexBuf sets the index buffer.
	SetIndexBuf(format IndexFmt, buf Buffer, off int64)

	// SetDescTableGraph sets a descriptor table
	// range for graphics pipelines.
	// heapCopy selects, for each heap starting at
	// start, which of its copies is bound.
	SetDescTableGraph(table DescTable, start int, heapCopy []int)

	// SetDescTableComp sets a descriptor table
	// range for compute pipelines.
	SetDescTableComp(table DescTable, start int, heapCopy []int)

	// Draw draws primitives.
	// It must only be called during a render pass.
	Draw(vertCount, instCount, baseVert, baseInst int)

	// DrawIndexed draws indexed primitives.
	// It must only be called during a render pass.
	DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)

	// Dispatch dispatches compute thread groups.
	// It must not be called during a render pass.
	Dispatch(grpCountX, grpCountY, grpCountZ int)

	// CopyBufToImg copies data from a buffer to
	// an image.
	// It must not be called during a render pass.
	CopyBufToImg(param *BufImgCopy)

	// Barrier inserts a number of global barriers
	// in the command buffer.
	Barrier(b []Barrier)

	// Transition inserts a number of image layout
	// transitions in the command buffer.
	Transition(t []Transition)

	// End ends command recording and prepares the
	// command buffer for execution.
	End() error

	// Reset discards all recorded commands from the
	// command buffer.
	Reset() error
}

// BufImgCopy describes the parameters of a copy command
// that copies data between a buffer and an image.
type BufImgCopy struct {
	Buf    Buffer
	BufOff int64
	// Stride specifies the addressing of image data
	// in the buffer. It is given in pixels.
	// Stride[0] refers to the row length and Stride[1]
	// refers to the image height.
	Stride [2]int64
	Img    Image
	ImgOff Off3D
	Layer  int
	Level  int
	Size   Dim3D
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	SVertexInput Sync = 1 << iota
	SVertexShading
	SFragmentShading
	SComputeShading
	SColorOutput
	SDSOutput
	SDraw
	SCopy
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AVertexBufRead Access = 1 << iota
	AIndexBufRead
	AColorRead
	AColorWrite
	ADSRead
	ADSWrite
	ACopyRead
	ACopyWrite
	AShaderRead
	AShaderWrite
	AAnyRead
	AAnyWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LCommon
	LColorTarget
	LDSTarget
	LDSRead
	LCopySrc
	LCopyDst
	LShaderRead
	LPresent
)

// Barrier represents a synchronization barrier.
type Barrier struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// Transition represents a layout transition on a
// specific image subresource.
type Transition struct {
	Barrier

	LayoutBefore Layout
	LayoutAfter  Layout
	IView        ImageView
}

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LDontCare LoadOp = iota
	LClear
	LLoad
)

// StoreOp is the type of an attachment's store operation.
type StoreOp int

// Store operations.
const (
	SDontCare StoreOp = iota
	SStore
)

// Attachment describes the configuration of a single
// render target for use in a render pass.
// Initial and Final are the layouts that the target is
// expected to be in at the start of the render pass and
// that it will be transitioned to at the end.
type Attachment struct {
	Format  PixelFmt
	Samples int
	Load    LoadOp
	Store   StoreOp
	Initial Layout
	Final   Layout
}

// Subpass defines a subpass of a render pass.
// Color contains indices in the render pass' attachment list.
// DS is the index of the depth/stencil attachment, or -1 if
// the subpass has none.
type Subpass struct {
	Color []int
	DS    int
}

// External identifies work outside of a render pass in a
// Dependency.
const External = -1

// Dependency defines an execution and memory dependency
// between two subpasses, or between a subpass and
// External work.
type Dependency struct {
	Src, Dst int
	Barrier
}

// RenderPass is the interface that defines a render pass
// into which draw commands operate.
type RenderPass interface {
	Destroyer

	// NewFB creates a new framebuffer.
	// Each image view in iv correspond to the render pass'
	// attachment of same index.
	// All framebuffers created from a given render pass
	// must be destroyed before the render pass itself
	// is destroyed.
	NewFB(iv []ImageView, width, height, layers int) (Framebuf, error)
}

// Framebuf is the interface that defines the render targets
// of a render pass.
type Framebuf interface {
	Destroyer
}

// ClearValue defines clear values for color or depth/stencil
// aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// ShaderCode is the interface that defines a shader binary
// for execution in a programmable pipeline stage.
type ShaderCode interface {
	Destroyer
}

// ShaderFunc specifies a function within a shader binary.
type ShaderFunc struct {
	Code ShaderCode
	Name string
}

// Stage is a mask of programmable stages.
type Stage int

// Stages.
const (
	SVertex Stage = 1 << iota
	SFragment
	SCompute
)

// DescType is the type of a descriptor.
type DescType int

// Descriptor types.
const (
	// Read/write buffer.
	DBuffer DescType = iota
	// Read/write image.
	DImage
	// Constant buffer.
	DConstant
	// Sampled texture.
	DTexture
	// Texture sampler.
	DSampler
	// Sampled texture combined with its sampler.
	DCombined
)

// Descriptor describes data for use in shaders.
// Layout is the layout in which referred images are
// accessed. LUndefined selects the natural layout of
// the descriptor type (LCommon for DImage, LShaderRead
// for DTexture and DCombined).
type Descriptor struct {
	Type   DescType
	Stages Stage
	Nr     int
	Len    int
	Layout Layout
}

// DescHeap is the interface that defines a set of descriptors
// for use in programmable pipeline stages.
type DescHeap interface {
	Destroyer

	// New creates enough storage for n copies of each
	// descriptor.
	// All copies from a previous call to New are invalidated,
	// unless n is the same as the current Count value, in
	// which case it is a no-op.
	// Calling New(0) frees all storage.
	New(n int) error

	// SetBuffer updates the buffer ranges referred by the
	// given descriptor of the given heap copy.
	// The descriptor must be of type DBuffer or DConstant.
	SetBuffer(cpy, nr, start int, buf []Buffer, off, size []int64)

	// SetImage updates the image views referred by the
	// given descriptor of the given heap copy.
	// The descriptor must be of type DImage or DTexture.
	SetImage(cpy, nr, start int, iv []ImageView)

	// SetSampler updates the samplers referred by the
	// given descriptor of the given heap copy.
	// The descriptor must be of type DSampler.
	SetSampler(cpy, nr, start int, splr []Sampler)

	// SetCombined updates the image views and samplers
	// referred by the given descriptor of the given
	// heap copy.
	// The descriptor must be of type DCombined.
	SetCombined(cpy, nr, start int, iv []ImageView, splr []Sampler)

	// Count returns the number of heap copies created
	// by New.
	Count() int
}

// DescTable is the interface that defines the bindings
// between a number of descriptor heaps and the shaders
// in a pipeline.
type DescTable interface {
	Destroyer
}

// VertexFmt describes the format of a vertex input.
type VertexFmt int

// Vertex formats.
const (
	Float32 VertexFmt = iota
	Float32x2
	Float32x3
	Float32x4
)

// Size returns the size in bytes of one element of f.
func (f VertexFmt) Size() int { return 4 * (int(f) + 1) }

// VertexIn describes a vertex input.
// Consecutive vertices are fetched Stride bytes apart.
// Each vertex input represents a separate buffer binding.
type VertexIn struct {
	Format VertexFmt
	Stride int
	Nr     int
}

// Topology is the type of primitive topologies,
// which determines how vertex data is assembled.
type Topology int

// Primitive topologies.
const (
	TTriangle Topology = iota
	TTriStrip
)

// IndexFmt describes the format of index buffer data.
type IndexFmt int

// Index formats.
const (
	Index16 IndexFmt = 2
	Index32 IndexFmt = 4
)

// Viewport defines the bounds of a viewport.
type Viewport struct {
	X, Y, Width, Height, Znear, Zfar float32
}

// Scissor defines a scissor rectangle.
type Scissor struct {
	X, Y, Width, Height int
}

// CullMode is the type of cull modes, which
// determines primitive culling based on triangle
// facing direction.
type CullMode int

// Cull modes.
const (
	CNone CullMode = iota
	CFront
	CBack
)

// CmpFunc is the type of comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// GraphState defines the combination of programmable and
// fixed stages of a graphics pipeline.
// Graphics pipelines are created from graphics states.
// The pipeline must not be used outside of Pass.
// When Blend is set, color output is blended using
// source alpha.
type GraphState struct {
	VertFunc   ShaderFunc
	FragFunc   ShaderFunc
	Desc       DescTable
	Input      []VertexIn
	Topology   Topology
	Clockwise  bool
	Cull       CullMode
	DepthTest  bool
	DepthWrite bool
	DepthCmp   CmpFunc
	Blend      bool
	Pass       RenderPass
	Subpass    int
}

// CompState defines the state of a compute pipeline.
// Compute pipelines are created from compute states.
// The state is comprised of a single compute shader and a
// descriptor table describing the resources accessible to
// this shader.
type CompState struct {
	Func ShaderFunc
	Desc DescTable
}

// Pipeline is the interface that defines a GPU pipeline.
type Pipeline interface {
	Destroyer
}

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Image.
const (
	// The resource can be read in shaders.
	UShaderRead Usage = 1 << iota
	// The resource can be written in shaders.
	UShaderWrite
	// The resource can provide constant data for shaders.
	// Valid only for Buffer.
	UShaderConst
	// The resource can be sampled in shaders.
	// Valid only for Image.
	UShaderSample
	// The resource can provide vertex data for draw calls.
	// Valid only for Buffer.
	UVertexData
	// The resource can provide index data for draw calls.
	// Valid only for Buffer.
	UIndexData
	// The resource can be used as render target.
	// Valid only for Image.
	URenderTarget
	// The resource can be the source of a copy.
	UCopySrc
	// The resource can be the destination of a copy.
	UCopyDst
	// The resource can be used for any purpose.
	UGeneric Usage = 1<<iota - 1
)

// Buffer is the interface that defines a GPU buffer.
// The size of the buffer is fixed.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible.
	// Non-visible memory cannot be accessed by the CPU.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the
	// underlying data. If the buffer is not host visible,
	// it returns nil instead.
	// Host-visible memory is coherent, so writes through
	// this slice need no explicit flush.
	// The slice is valid for the lifetime of the buffer.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes,
	// which may be greater than the size requested during
	// buffer creation.
	// This value is immutable.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// Color, 8-bit channels.
	RGBA8un PixelFmt = iota
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	R8un
	// Color, 16-bit channels.
	RGBA16f
	// Color, 32-bit channels.
	RGBA32f
	R32f
	// Depth/Stencil.
	D16un
	D32f
	D24unS8ui
	D32fS8ui
)

// IsDepth reports whether f is a depth or depth/stencil
// format.
func (f PixelFmt) IsDepth() bool { return f >= D16un }

// HasStencil reports whether f has a stencil aspect.
func (f PixelFmt) HasStencil() bool { return f == D24unS8ui || f == D32fS8ui }

// Size returns the size in bytes of one pixel.
func (f PixelFmt) Size() int {
	switch f {
	case R8un:
		return 1
	case D16un:
		return 2
	case RGBA16f, D32fS8ui:
		return 8
	case RGBA32f:
		return 16
	}
	return 4
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// Image is the interface that defines a GPU image.
// Direct access to image memory is not provided, so copying
// data from the CPU to an image resource requires the use
// of a staging buffer.
type Image interface {
	Destroyer

	// NewView creates a new image view.
	// All views created from a given image must be
	// destroyed before the image itself is destroyed.
	NewView(typ ViewType, layer, layers, level, levels int) (ImageView, error)
}

// ViewType is the type of a resource view.
type ViewType int

// View types.
const (
	IView2D ViewType = iota
	IView3D
	IView2DArray
)

// ImageView is the interface that defines a typed view of
// an Image resource.
type ImageView interface {
	Destroyer
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
	// FNoMipmap forces mip level 0 to be used.
	// It is only valid as the mip filter of a sampler.
	FNoMipmap
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// Sampler is the interface that defines an image sampler.
type Sampler interface {
	Destroyer
}

// Sampling describes image sampler state.
type Sampling struct {
	Min      Filter
	Mag      Filter
	Mipmap   Filter
	AddrU    AddrMode
	AddrV    AddrMode
	AddrW    AddrMode
	MaxAniso int
	MinLOD   float32
	MaxLOD   float32
}

// Limits describes implementation limits.
// These may vary across drivers and devices.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum width, height and depth of 3D images.
	MaxImage3D int
	// Maximum number of descriptor heaps in a
	// descriptor table.
	MaxDescHeaps int
	// Maximum number of color render targets in a
	// subpass of a render pass.
	MaxColorTargets int
	// Maximum width/height for a framebuffer.
	MaxFBSize [2]int
	// Maximum dipatch count.
	MaxDispatch [3]int
}
