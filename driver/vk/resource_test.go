// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

func TestBuffer(t *testing.T) {
	d := gpu(t)
	for _, x := range [...]struct {
		size    int64
		visible bool
		usg     driver.Usage
	}{
		{256, true, driver.UShaderConst},
		{4096, true, driver.UVertexData | driver.UIndexData},
		{1 << 20, false, driver.UShaderRead | driver.UShaderWrite},
		{64, true, driver.UCopySrc},
	} {
		b, err := d.NewBuffer(x.size, x.visible, x.usg)
		require.NoError(t, err)
		assert.Equal(t, x.visible, b.Visible())
		assert.GreaterOrEqual(t, b.Cap(), x.size)
		if x.visible {
			p := b.Bytes()
			require.Len(t, p, int(b.Cap()))
			p[0] = 0xab
			assert.Equal(t, byte(0xab), b.Bytes()[0])
		} else {
			assert.Nil(t, b.Bytes())
		}
		b.Destroy()
	}
}

func TestImage(t *testing.T) {
	d := gpu(t)
	img, err := d.NewImage(driver.RGBA16f, driver.Dim3D{Width: 128, Height: 64}, 1, 1, 1, driver.URenderTarget|driver.UShaderSample)
	require.NoError(t, err)
	iv, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv.Destroy()
	img.Destroy()

	vol, err := d.NewImage(driver.RGBA8un, driver.Dim3D{Width: 32, Height: 32, Depth: 32}, 1, 1, 1, driver.UShaderSample|driver.UCopyDst)
	require.NoError(t, err)
	assert.NotZero(t, vol.(*image).subres.LayerCount)
	iv, err = vol.NewView(driver.IView3D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv.Destroy()
	vol.Destroy()

	ds, err := d.NewImage(driver.D32f, driver.Dim3D{Width: 64, Height: 64}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)
	ds.Destroy()
}

func TestSampler(t *testing.T) {
	d := gpu(t)
	for _, spln := range [...]driver.Sampling{
		{Min: driver.FLinear, Mag: driver.FLinear, Mipmap: driver.FNoMipmap, AddrU: driver.AClamp, AddrV: driver.AClamp, AddrW: driver.AClamp},
		{Min: driver.FNearest, Mag: driver.FLinear, Mipmap: driver.FLinear, MaxAniso: 16, MaxLOD: 8},
		{AddrU: driver.AMirror, AddrV: driver.AWrap, AddrW: driver.AMirror},
	} {
		s, err := d.NewSampler(&spln)
		require.NoError(t, err)
		s.Destroy()
	}
}

func TestDescHeap(t *testing.T) {
	d := gpu(t)
	_, err := d.NewDescHeap([]driver.Descriptor{
		{Type: driver.DConstant, Stages: driver.SVertex, Nr: 0, Len: 1},
		{Type: driver.DTexture, Stages: driver.SFragment, Nr: 0, Len: 1},
	})
	assert.Error(t, err)

	h, err := d.NewDescHeap([]driver.Descriptor{
		{Type: driver.DConstant, Stages: driver.SVertex | driver.SFragment, Nr: 0, Len: 1},
		{Type: driver.DCombined, Stages: driver.SFragment, Nr: 1, Len: 2},
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 2, Len: 1},
	})
	require.NoError(t, err)
	defer h.Destroy()
	require.NoError(t, h.New(3))
	assert.Equal(t, 3, h.Count())
	require.NoError(t, h.New(3))
	require.NoError(t, h.New(2))
	assert.Equal(t, 2, h.Count())

	b, err := d.NewBuffer(256, true, driver.UShaderConst)
	require.NoError(t, err)
	defer b.Destroy()
	h.SetBuffer(1, 0, 0, []driver.Buffer{b}, []int64{0}, []int64{256})

	tab, err := d.NewDescTable([]driver.DescHeap{h})
	require.NoError(t, err)
	tab.Destroy()

	require.NoError(t, h.New(0))
	assert.Zero(t, h.Count())
}

func TestRenderPass(t *testing.T) {
	d := gpu(t)
	pass, err := d.NewRenderPass([]driver.Attachment{
		{
			Format:  driver.RGBA16f,
			Samples: 1,
			Load:    driver.LClear,
			Store:   driver.SStore,
			Initial: driver.LUndefined,
			Final:   driver.LShaderRead,
		},
		{
			Format:  driver.D32f,
			Samples: 1,
			Load:    driver.LClear,
			Store:   driver.SDontCare,
			Initial: driver.LUndefined,
			Final:   driver.LDSTarget,
		},
	}, []driver.Subpass{{Color: []int{0}, DS: 1}}, []driver.Dependency{{
		Src: driver.External,
		Dst: 0,
		Barrier: driver.Barrier{
			SyncBefore:   driver.SFragmentShading,
			SyncAfter:    driver.SColorOutput,
			AccessBefore: driver.AShaderRead,
			AccessAfter:  driver.AColorWrite,
		},
	}})
	require.NoError(t, err)
	defer pass.Destroy()
	assert.Equal(t, []int{1}, pass.(*renderPass).ncolor)

	const w, h = 64, 32
	color, err := d.NewImage(driver.RGBA16f, driver.Dim3D{Width: w, Height: h}, 1, 1, 1, driver.URenderTarget|driver.UShaderSample)
	require.NoError(t, err)
	defer color.Destroy()
	depth, err := d.NewImage(driver.D32f, driver.Dim3D{Width: w, Height: h}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)
	defer depth.Destroy()
	cv, err := color.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	defer cv.Destroy()
	dv, err := depth.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	defer dv.Destroy()

	fb, err := pass.NewFB([]driver.ImageView{cv, dv}, w, h, 1)
	require.NoError(t, err)
	defer fb.Destroy()

	cb, err := d.NewCmdBuffer(d.Queue(driver.QGraphics))
	require.NoError(t, err)
	defer cb.Destroy()
	require.NoError(t, cb.Begin())
	cb.BeginPass(pass, fb, []driver.ClearValue{{Color: [4]float32{0, 0, 0, 1}}, {Depth: 1}})
	cb.EndPass()
	require.NoError(t, cb.End())
	require.NoError(t, d.Queue(driver.QGraphics).Submit([]driver.Batch{{Cmd: []driver.CmdBuffer{cb}}}))
	require.NoError(t, d.Queue(driver.QGraphics).WaitIdle())
}

func TestCopyAndBarrier(t *testing.T) {
	d := gpu(t)
	const n = 16
	stg, err := d.NewBuffer(n*n*n*4, true, driver.UCopySrc)
	require.NoError(t, err)
	defer stg.Destroy()
	for i := range stg.Bytes() {
		stg.Bytes()[i] = byte(i)
	}
	img, err := d.NewImage(driver.RGBA8un, driver.Dim3D{Width: n, Height: n, Depth: n}, 1, 1, 1, driver.UShaderSample|driver.UCopyDst)
	require.NoError(t, err)
	defer img.Destroy()
	iv, err := img.NewView(driver.IView3D, 0, 1, 0, 1)
	require.NoError(t, err)
	defer iv.Destroy()

	sem, err := d.NewSemaphore()
	require.NoError(t, err)
	defer sem.Destroy()

	q := d.Queue(driver.QGraphics)
	cb, err := d.NewCmdBuffer(q)
	require.NoError(t, err)
	defer cb.Destroy()
	require.NoError(t, cb.Begin())
	cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:  driver.SNone,
			SyncAfter:   driver.SCopy,
			AccessAfter: driver.ACopyWrite,
		},
		LayoutBefore: driver.LUndefined,
		LayoutAfter:  driver.LCopyDst,
		IView:        iv,
	}})
	cb.CopyBufToImg(&driver.BufImgCopy{
		Buf:    stg,
		Stride: [2]int64{n, n},
		Img:    img,
		Size:   driver.Dim3D{Width: n, Height: n, Depth: n},
	})
	cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SCopy,
			SyncAfter:    driver.SFragmentShading | driver.SComputeShading,
			AccessBefore: driver.ACopyWrite,
			AccessAfter:  driver.AShaderRead,
		},
		LayoutBefore: driver.LCopyDst,
		LayoutAfter:  driver.LShaderRead,
		IView:        iv,
	}})
	cb.Barrier([]driver.Barrier{{
		SyncBefore:   driver.SAll,
		SyncAfter:    driver.SAll,
		AccessBefore: driver.AAnyWrite,
		AccessAfter:  driver.AAnyRead,
	}})
	require.NoError(t, cb.End())

	// The second batch waits on the first one.
	cb2, err := d.NewCmdBuffer(q)
	require.NoError(t, err)
	defer cb2.Destroy()
	require.NoError(t, cb2.Begin())
	require.NoError(t, cb2.End())
	require.NoError(t, q.Submit([]driver.Batch{
		{Cmd: []driver.CmdBuffer{cb}, Signal: []driver.Semaphore{sem}},
		{Wait: []driver.Wait{{Sem: sem, Sync: driver.SAll}}, Cmd: []driver.CmdBuffer{cb2}},
	}))
	require.NoError(t, d.WaitIdle())

	// Recording again discards the previous commands.
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.Reset())
}

func TestShaderCode(t *testing.T) {
	d := gpu(t)
	_, err := d.NewShaderCode(nil)
	assert.Error(t, err)
	_, err = d.NewShaderCode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestPipelineState(t *testing.T) {
	d := gpu(t)
	_, err := d.NewPipeline(struct{}{})
	assert.Error(t, err)
	_, err = d.NewPipeline(&driver.CompState{})
	assert.Error(t, err)
	_, err = d.NewPipeline(&driver.GraphState{})
	assert.Error(t, err)
}
