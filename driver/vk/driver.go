// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements driver interfaces using the Vulkan API.
package vk

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

const driverName = "vulkan"

var preferredAPIVersion = vk.MakeVersion(1, 1, 0)

// Driver implements driver.Driver and driver.GPU.
type Driver struct {
	inst  vk.Instance
	pdev  vk.PhysicalDevice
	dname string
	dvers uint32
	dev   vk.Device

	// Queue families used for graphics and compute
	// commands. They are equal when the device exposes
	// no dedicated compute family.
	gfam uint32
	cfam uint32
	ques [3]*queue

	// Enabled extensions, indexed by ext* constants.
	exts [extN]bool

	// Whether anisotropic filtering was enabled.
	aniso    bool
	maxAniso float32

	mprop vk.PhysicalDeviceMemoryProperties
	lim   driver.Limits
}

func init() {
	driver.Register(&Driver{})
}

// load sets up the Vulkan loader.
// The window system's loader is preferred, since
// surfaces must be created from the same library.
func load() error {
	if p := wsi.ProcAddr(); p != nil {
		vk.SetGetInstanceProcAddr(p)
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return fmt.Errorf("%w: %v", driver.ErrNotInstalled, err)
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("%w: %v", driver.ErrNotInstalled, err)
	}
	return nil
}

// initInstance initializes the Vulkan instance.
// Surface extensions are enabled when the window
// system requires them and the implementation
// supports them.
func (d *Driver) initInstance() error {
	var names []string
	if req := wsi.InstanceExtensions(); len(req) > 0 {
		from, err := instanceExts()
		if err != nil {
			return err
		}
		if names, err = selectExts(req, from); err == nil {
			d.exts[extSurface] = true
		} else {
			names = nil
		}
	}
	info := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:       vk.StructureTypeApplicationInfo,
			PEngineName: cstr("skyengine"),
			ApiVersion:  preferredAPIVersion,
		},
		EnabledExtensionCount:   uint32(len(names)),
		PpEnabledExtensionNames: names,
	}
	var inst vk.Instance
	if err := checkResult(vk.CreateInstance(&info, nil, &inst)); err != nil {
		return err
	}
	d.inst = inst
	return vk.InitInstance(inst)
}

// initDevice selects a physical device and creates the
// logical device with its queues.
func (d *Driver) initDevice() error {
	var n uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, nil)); err != nil {
		return err
	}
	if n == 0 {
		return driver.ErrNoDevice
	}
	devs := make([]vk.PhysicalDevice, n)
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, devs)); err != nil {
		return err
	}

	// The bare minimum is a device with a queue supporting
	// graphics and compute operations. Hardware devices
	// that can create swapchains are preferred.
	weight := 0
	var qprops []vk.QueueFamilyProperties
	for _, pdev := range devs[:n] {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pdev, &props)
		props.Deref()
		if isVariant(props.ApiVersion) {
			continue
		}
		qp := queueFamilies(pdev)
		gfam, ok := findFamily(qp, vk.QueueGraphicsBit|vk.QueueComputeBit, 0)
		if !ok {
			continue
		}
		wgt := 1
		switch props.DeviceType {
		case vk.PhysicalDeviceTypeDiscreteGpu:
			wgt += 2
		case vk.PhysicalDeviceTypeIntegratedGpu:
			wgt++
		}
		if exts, err := deviceExts(pdev); err == nil {
			for _, e := range exts {
				if e == extName(extSwapchain) {
					wgt += 2
					break
				}
			}
		}
		if wgt <= weight {
			continue
		}
		weight = wgt
		d.pdev = pdev
		d.dname = vk.ToString(props.DeviceName[:])
		d.dvers = props.ApiVersion
		d.gfam = gfam
		d.cfam = gfam
		if cfam, ok := findFamily(qp, vk.QueueComputeBit, vk.QueueGraphicsBit); ok {
			d.cfam = cfam
		}
		props.Limits.Deref()
		d.setLimits(&props.Limits)
		qprops = qp
	}
	if weight == 0 {
		return driver.ErrNoDevice
	}
	vk.GetPhysicalDeviceMemoryProperties(d.pdev, &d.mprop)
	d.mprop.Deref()

	// One queue is created for every family, so that a
	// family supporting presentation can be found later.
	prio := []float32{1}
	qinfos := make([]vk.DeviceQueueCreateInfo, len(qprops))
	for i := range qinfos {
		qinfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(i),
			QueueCount:       1,
			PQueuePriorities: prio,
		}
	}
	var names []string
	if d.exts[extSurface] {
		if from, err := deviceExts(d.pdev); err == nil {
			if names, err = selectExts([]string{extName(extSwapchain)}, from); err == nil {
				d.exts[extSwapchain] = true
			}
		}
	}
	var feat vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(d.pdev, &feat)
	feat.Deref()
	d.aniso = feat.SamplerAnisotropy == vk.True
	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(qinfos)),
		PQueueCreateInfos:       qinfos,
		EnabledExtensionCount:   uint32(len(names)),
		PpEnabledExtensionNames: names,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: feat.SamplerAnisotropy,
		}},
	}
	var dev vk.Device
	if err := checkResult(vk.CreateDevice(d.pdev, &info, nil, &dev)); err != nil {
		return err
	}
	d.dev = dev

	qg := d.newQueue(driver.QGraphics, d.gfam, nil)
	d.ques[driver.QGraphics] = qg
	if d.cfam != d.gfam {
		d.ques[driver.QCompute] = d.newQueue(driver.QCompute, d.cfam, nil)
	} else {
		d.ques[driver.QCompute] = d.newQueue(driver.QCompute, d.gfam, qg.mu)
	}
	// The present queue is replaced by NewSwapchain when
	// the graphics family cannot present.
	d.ques[driver.QPresent] = d.newQueue(driver.QPresent, d.gfam, qg.mu)
	return nil
}

// queueFamilies returns the queue family properties
// of pdev.
func queueFamilies(pdev vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var n uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &n, nil)
	qp := make([]vk.QueueFamilyProperties, n)
	vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &n, qp)
	for i := range qp {
		qp[i].Deref()
	}
	return qp[:n]
}

// findFamily returns the first queue family that
// supports every flag in want and none in avoid.
func findFamily(qp []vk.QueueFamilyProperties, want, avoid vk.QueueFlagBits) (uint32, bool) {
	w := vk.QueueFlags(want)
	a := vk.QueueFlags(avoid)
	for i := range qp {
		if qp[i].QueueCount > 0 && qp[i].QueueFlags&w == w && qp[i].QueueFlags&a == 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

// sharing returns the sharing mode and the queue family
// indices of a resource accessed from the given families.
// Resources are concurrent when more than one distinct
// family accesses them, since queue submissions never
// transfer ownership.
func sharing(fams ...uint32) (vk.SharingMode, []uint32) {
	var uniq []uint32
	for _, f := range fams {
		if !slices.Contains(uniq, f) {
			uniq = append(uniq, f)
		}
	}
	if len(uniq) < 2 {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, uniq
}

// resourceSharing returns the sharing mode and queue
// family indices of buffers and images.
func (d *Driver) resourceSharing() (vk.SharingMode, []uint32) {
	return sharing(d.gfam, d.cfam)
}

// swapchainSharing returns the sharing mode and queue
// family indices of swapchain images.
// It must be called after the presentation queue is
// selected.
func (d *Driver) swapchainSharing() (vk.SharingMode, []uint32) {
	return sharing(d.gfam, d.cfam, d.ques[driver.QPresent].fam)
}

// setLimits sets d.lim.
func (d *Driver) setLimits(lim *vk.PhysicalDeviceLimits) {
	d.maxAniso = lim.MaxSamplerAnisotropy
	d.lim = driver.Limits{
		MaxImage2D:      int(lim.MaxImageDimension2D),
		MaxImage3D:      int(lim.MaxImageDimension3D),
		MaxDescHeaps:    int(lim.MaxBoundDescriptorSets),
		MaxColorTargets: int(lim.MaxColorAttachments),
		MaxFBSize:       [2]int{int(lim.MaxFramebufferWidth), int(lim.MaxFramebufferHeight)},
		MaxDispatch: [3]int{
			int(lim.MaxComputeWorkGroupCount[0]),
			int(lim.MaxComputeWorkGroupCount[1]),
			int(lim.MaxComputeWorkGroupCount[2]),
		},
	}
}

// Open initializes the driver.
func (d *Driver) Open() (gpu driver.GPU, err error) {
	if d.dev != nil {
		return d, nil
	}
	if err = load(); err != nil {
		goto fail
	}
	if err = d.initInstance(); err != nil {
		goto fail
	}
	if err = d.initDevice(); err != nil {
		goto fail
	}
	return d, nil
fail:
	d.Close()
	return nil, err
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver.
func (d *Driver) Close() {
	if d == nil {
		return
	}
	if d.inst != nil {
		if d.dev != nil {
			vk.DeviceWaitIdle(d.dev)
			vk.DestroyDevice(d.dev, nil)
		}
		vk.DestroyInstance(d.inst, nil)
	}
	*d = Driver{}
}

// Driver returns the receiver (for driver.GPU conformance).
func (d *Driver) Driver() driver.Driver { return d }

// Queue returns the queue of the given kind.
func (d *Driver) Queue(kind driver.QueueKind) driver.Queue { return d.ques[kind] }

// WaitIdle blocks until the device is idle.
func (d *Driver) WaitIdle() error {
	var mus []*sync.Mutex
	for _, q := range d.ques {
		if !slices.Contains(mus, q.mu) {
			mus = append(mus, q.mu)
			q.mu.Lock()
		}
	}
	defer func() {
		for _, mu := range mus {
			mu.Unlock()
		}
	}()
	return checkResult(vk.DeviceWaitIdle(d.dev))
}

// Limits returns the implementation limits.
func (d *Driver) Limits() driver.Limits { return d.lim }

// FormatSupported reports whether images of the given
// format can be created with the given usage.
func (d *Driver) FormatSupported(pf driver.PixelFmt, usg driver.Usage) bool {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.pdev, convPixelFmt(pf), &props)
	props.Deref()
	want := convFormatFeature(pf, usg)
	return props.OptimalTilingFeatures&want == want
}

// memory represents a device memory allocation.
type memory struct {
	d    *Driver
	size int64
	vis  bool
	p    []byte
	mem  vk.DeviceMemory
}

// selectMemory selects a suitable memory type.
// It returns -1 if none suffices.
func (d *Driver) selectMemory(typeBits uint32, prop vk.MemoryPropertyFlags) int {
	for i := range int(d.mprop.MemoryTypeCount) {
		if 1<<i&typeBits == 0 {
			continue
		}
		mt := d.mprop.MemoryTypes[i]
		mt.Deref()
		if mt.PropertyFlags&prop == prop {
			return i
		}
	}
	return -1
}

// newMemory allocates memory that satisfies req.
// Host-visible memory is also coherent and stays
// mapped until freed.
func (d *Driver) newMemory(req vk.MemoryRequirements, visible bool) (*memory, error) {
	req.Deref()
	prop := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if visible {
		prop |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}
	typ := d.selectMemory(req.MemoryTypeBits, prop)
	if typ == -1 {
		// Device-local memory is desired but not required.
		prop &^= vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
		typ = d.selectMemory(req.MemoryTypeBits, prop)
	}
	if typ == -1 {
		return nil, errors.New("vk: no suitable memory type found")
	}
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: uint32(typ),
	}
	var mem vk.DeviceMemory
	if err := checkResult(vk.AllocateMemory(d.dev, &info, nil, &mem)); err != nil {
		return nil, err
	}
	return &memory{d: d, size: int64(req.Size), vis: visible, mem: mem}, nil
}

// mmap maps the memory for host access.
// The memory must be host visible and bound.
func (m *memory) mmap() error {
	if !m.vis {
		panic("cannot map memory that is not host visible")
	}
	if len(m.p) == 0 {
		var p unsafe.Pointer
		if err := checkResult(vk.MapMemory(m.d.dev, m.mem, 0, vk.DeviceSize(vk.WholeSize), 0, &p)); err != nil {
			return err
		}
		m.p = unsafe.Slice((*byte)(p), m.size)
	}
	return nil
}

// free unmaps and deallocates the memory.
func (m *memory) free() {
	if m == nil {
		return
	}
	if m.d != nil {
		if len(m.p) != 0 {
			vk.UnmapMemory(m.d.dev, m.mem)
		}
		vk.FreeMemory(m.d.dev, m.mem, nil)
	}
	*m = memory{}
}

// checkResult returns an error derived from a vk.Result.
// If res does not indicate an error, it returns nil.
func checkResult(res vk.Result) error {
	if res >= 0 {
		return nil
	}
	switch res {
	case vk.ErrorOutOfHostMemory:
		return errNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return errNoDeviceMemory
	case vk.ErrorInitializationFailed:
		return errInitFailed
	case vk.ErrorDeviceLost:
		return errDeviceLost
	case vk.ErrorMemoryMapFailed:
		return errMMapFailed
	case vk.ErrorExtensionNotPresent:
		return errNoExtension
	case vk.ErrorFeatureNotPresent:
		return errNoFeature
	case vk.ErrorIncompatibleDriver:
		return errDriverCompat
	case vk.ErrorFormatNotSupported:
		return errUnsupportedFormat
	case vk.ErrorSurfaceLost:
		return errSurfaceLost
	case vk.ErrorOutOfDate:
		return errOutOfDate
	}
	return fmt.Errorf("%w: result %d", errUnknown, res)
}

// Common Vulkan errors.
var (
	errNoHostMemory      = driver.ErrNoHostMemory
	errNoDeviceMemory    = driver.ErrNoDeviceMemory
	errInitFailed        = errors.New("vk: initialization failed")
	errDeviceLost        = driver.ErrFatal
	errMMapFailed        = errors.New("vk: memory map failed")
	errNoExtension       = errors.New("vk: extension not present")
	errNoFeature         = errors.New("vk: feature not present")
	errDriverCompat      = errors.New("vk: incompatible driver")
	errUnsupportedFormat = errors.New("vk: format not supported")
	errSurfaceLost       = errors.New("vk: surface lost")
	errOutOfDate         = driver.ErrSwapchain
	errUnknown           = errors.New("vk: unknown error")
)

// DeviceName returns the name of the physical device
// that the driver is using.
func (d *Driver) DeviceName() string { return d.dname }

// DeviceVersion returns the API version of the device.
func (d *Driver) DeviceVersion() (major, minor, patch int) {
	return versionMajor(d.dvers), versionMinor(d.dvers), versionPatch(d.dvers)
}

func versionMajor(v uint32) int { return int(v >> 22 & 0x7f) }

func versionMinor(v uint32) int { return int(v >> 12 & 0x3ff) }

func versionPatch(v uint32) int { return int(v & 0xfff) }

// isVariant returns whether version v identifies a
// variant implementation of the API.
func isVariant(v uint32) bool { return v>>29 != 0 }
