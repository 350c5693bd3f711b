// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/drivertest"
)

func TestDepthFormat(t *testing.T) {
	pf, err := depthFormat(drivertest.New())
	require.NoError(t, err)
	assert.Equal(t, driver.D32f, pf)

	pf, err = depthFormat(drivertest.New(drivertest.WithUnsupported(driver.D32f)))
	require.NoError(t, err)
	assert.Equal(t, driver.D32fS8ui, pf)

	pf, err = depthFormat(drivertest.New(drivertest.WithUnsupported(driver.D32f, driver.D32fS8ui)))
	require.NoError(t, err)
	assert.Equal(t, driver.D24unS8ui, pf)

	_, err = depthFormat(drivertest.New(drivertest.WithUnsupported(depthFormats[:]...)))
	assert.Error(t, err)
}

func TestOffscreenChain(t *testing.T) {
	gpu := drivertest.New()
	c, err := NewOffscreenChain(gpu, 800, 600)
	require.NoError(t, err)

	pass := c.Pass().(*drivertest.RenderPass)
	require.Len(t, pass.Att, 2)
	assert.Equal(t, driver.RGBA32f, pass.Att[0].Format)
	assert.Equal(t, driver.LShaderRead, pass.Att[0].Final)
	assert.Equal(t, driver.LClear, pass.Att[0].Load)
	assert.Equal(t, driver.D32f, pass.Att[1].Format)
	require.Len(t, pass.Dep, 2)
	assert.Equal(t, driver.External, pass.Dep[0].Src)
	assert.Equal(t, driver.External, pass.Dep[1].Dst)

	w, h := c.Extent()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	for i := range MaxOffscreen {
		fb := c.Framebuffer(i).FB.(*drivertest.Framebuf)
		assert.Equal(t, 800, fb.Width)
		assert.Equal(t, 600, fb.Height)
		assert.Same(t, c.Color(i), fb.Views[0])
		assert.Equal(t, driver.URenderTarget|driver.UShaderSample, c.Framebuffer(i).Color.Usage())
		assert.Equal(t, driver.URenderTarget, c.Framebuffer(i).Depth.Usage())
	}
	assert.Equal(t, MaxOffscreen, gpu.Live(drivertest.KFramebuf))
	assert.Equal(t, 2*MaxOffscreen, gpu.Live(drivertest.KImage))
	assert.Equal(t, driver.AClamp, c.Sampler().(*drivertest.Sampler).Sampling.AddrU)

	old := c.Framebuffer(0).FB.(*drivertest.Framebuf)
	require.NoError(t, c.Rebuild(1024, 768))
	assert.True(t, old.Destroyed())
	assert.Equal(t, MaxOffscreen, gpu.Destroyed(drivertest.KFramebuf))
	assert.Equal(t, MaxOffscreen, gpu.Live(drivertest.KFramebuf))
	assert.Equal(t, 1024, c.Framebuffer(2).FB.(*drivertest.Framebuf).Width)

	assert.Error(t, c.Rebuild(0, 768))
	c.Destroy()
	c.Destroy()
	assert.Empty(t, gpu.Leaks())
	assert.Zero(t, gpu.DoubleDestroys())
}

func TestOffscreenChainFailure(t *testing.T) {
	for _, k := range []string{
		drivertest.KRenderPass,
		drivertest.KSampler,
		drivertest.KImage,
		drivertest.KImageView,
		drivertest.KFramebuf,
	} {
		gpu := drivertest.New()
		gpu.FailNext(k)
		c, err := NewOffscreenChain(gpu, 64, 64)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, drivertest.ErrInjected, k)
		assert.Empty(t, gpu.Leaks(), k)
		assert.Zero(t, gpu.DoubleDestroys(), k)
	}
}

func TestOffscreenRecord(t *testing.T) {
	f := newStageFixture(t)
	c, err := NewOffscreenChain(f.gpu, 320, 240)
	require.NoError(t, err)
	f.pass = c.Pass()
	d := &OffscreenDraws{}
	for _, x := range []struct {
		s **Stage
		r Role
	}{
		{&d.Background, RoleBackground},
		{&d.GodRay, RoleGodRay},
		{&d.RadialBlur, RoleRadialBlur},
		{&d.Mesh, RoleMesh},
	} {
		*x.s, err = NewStage(f.gpu, f.desc(x.r))
		require.NoError(t, err)
	}
	d.Quad, err = NewQuad(f.gpu)
	require.NoError(t, err)
	d.Terrain, err = NewGrid(f.gpu, 4)
	require.NoError(t, err)

	cb, err := f.gpu.NewCmdBuffer(f.gpu.Queue(driver.QGraphics))
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	c.Record(cb, &Frame{History: true}, d)
	require.NoError(t, cb.End())
	rec := cb.(*drivertest.CmdBuffer)

	pass := []string{"BeginPass", "SetViewport", "SetScissor", "SetPipeline", "SetDescTableGraph", "SetVertexBuf", "SetIndexBuf", "DrawIndexed"}
	var want []string
	for i := range MaxOffscreen {
		want = append(want, pass...)
		if i == MaxOffscreen-1 {
			want = append(want, pass[3:]...)
		}
		want = append(want, "EndPass")
	}
	assert.Equal(t, want, rec.Names())

	begins := rec.Find("BeginPass")
	require.Len(t, begins, MaxOffscreen)
	for i, b := range begins {
		assert.Same(t, c.Pass(), b.Args[0])
		assert.Same(t, c.Framebuffer(i).FB, b.Args[1])
	}
	pls := rec.Find("SetPipeline")
	require.Len(t, pls, 4)
	assert.Same(t, d.Background.pipeln, pls[0].Args[0])
	assert.Same(t, d.GodRay.pipeln, pls[1].Args[0])
	assert.Same(t, d.RadialBlur.pipeln, pls[2].Args[0])
	assert.Same(t, d.Mesh.pipeln, pls[3].Args[0])
	vp := rec.Find("SetViewport")[0].Args[0].([]driver.Viewport)
	assert.Equal(t, float32(320), vp[0].Width)
	assert.Equal(t, float32(1), vp[0].Zfar)
	draws := rec.Find("DrawIndexed")
	assert.Equal(t, 6, draws[0].Args[0])
	assert.Equal(t, 4*4*6, draws[3].Args[0])
}

func TestCompositeTarget(t *testing.T) {
	gpu := drivertest.New()
	sc, err := gpu.NewTestSwapchain(640, 480, 3)
	require.NoError(t, err)
	c, err := newCompositeTarget(gpu, sc.Format(), driver.D32f)
	require.NoError(t, err)
	pass := c.pass.(*drivertest.RenderPass)
	assert.Equal(t, driver.BGRA8un, pass.Att[0].Format)
	assert.Equal(t, driver.LPresent, pass.Att[0].Final)

	require.NoError(t, c.build(sc.Views(), 640, 480))
	require.Len(t, c.fbs, 3)
	for i, fb := range c.fbs {
		v := fb.(*drivertest.Framebuf).Views
		assert.Same(t, sc.Views()[i], v[0])
		assert.Same(t, c.depth.View(), v[1])
	}

	sc.Resize(800, 600)
	c.release()
	require.NoError(t, sc.Recreate())
	require.NoError(t, c.build(sc.Views(), 800, 600))
	assert.Equal(t, 3, gpu.Live(drivertest.KFramebuf))
	assert.Equal(t, 800, c.fbs[0].(*drivertest.Framebuf).Width)

	gpu.FailNext(drivertest.KFramebuf)
	assert.Error(t, c.build(sc.Views(), 800, 600))
	assert.Zero(t, gpu.Live(drivertest.KFramebuf))
	assert.Nil(t, c.depth)

	c.Destroy()
	sc.Destroy()
	assert.Empty(t, gpu.Leaks())
	assert.Zero(t, gpu.DoubleDestroys())
}
