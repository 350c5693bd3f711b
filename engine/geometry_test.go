// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/drivertest"
)

func TestNewGrid(t *testing.T) {
	gpu := drivertest.New()
	g, err := NewGrid(gpu, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, g.VertexCount())
	assert.Equal(t, 24, g.IndexCount())
	buf := g.buf.(*drivertest.Buffer)
	assert.Equal(t, driver.UVertexData|driver.UIndexData, buf.Usage)
	assert.Equal(t, int64(9*32+24*4), buf.Cap())
	assert.Equal(t, [MaxSemantic]int64{0, 9 * 12, 9 * 24}, g.off)
	assert.Equal(t, int64(9*32), g.idxOff)

	// Corners.
	b := buf.Bytes()
	assert.Equal(t, float32(-1), f32(b, 0))
	assert.Equal(t, float32(-1), f32(b, 2))
	assert.Equal(t, float32(1), f32(b, 8*3))
	assert.Equal(t, float32(1), f32(b, 8*3+2))
	// Normals face up.
	assert.Equal(t, float32(1), f32(b, 9*3+1))
	// Last UV.
	assert.Equal(t, float32(1), f32(b, 9*6+8*2+1))

	cb, err := gpu.NewCmdBuffer(gpu.Queue(driver.QGraphics))
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	pass, err := gpu.NewRenderPass([]driver.Attachment{{Format: driver.RGBA8un}}, []driver.Subpass{{Color: []int{0}, DS: -1}}, nil)
	require.NoError(t, err)
	cb.BeginPass(pass, nil, nil)
	g.Draw(cb)
	cb.EndPass()
	require.NoError(t, cb.End())
	rec := cb.(*drivertest.CmdBuffer)
	assert.Equal(t, []string{"BeginPass", "SetVertexBuf", "SetIndexBuf", "DrawIndexed", "EndPass"}, rec.Names())
	assert.Equal(t, []any{24, 1, 0, 0, 0}, rec.Find("DrawIndexed")[0].Args)
	assert.Equal(t, driver.Index32, rec.Find("SetIndexBuf")[0].Args[0])

	vin := g.Inputs()
	require.Len(t, vin, MaxSemantic)
	assert.Equal(t, driver.VertexIn{Format: driver.Float32x3, Stride: 12, Nr: 0}, vin[Position])
	assert.Equal(t, driver.VertexIn{Format: driver.Float32x2, Stride: 8, Nr: 2}, vin[TexCoord0])

	g.Destroy()
	g.Destroy()
	pass.Destroy()
	cb.Destroy()
	assert.Empty(t, gpu.Leaks())
	assert.Zero(t, gpu.DoubleDestroys())
}

func TestNewQuad(t *testing.T) {
	gpu := drivertest.New()
	q, err := NewQuad(gpu)
	require.NoError(t, err)
	assert.Equal(t, 4, q.VertexCount())
	assert.Equal(t, 6, q.IndexCount())
	q.Destroy()

	_, err = NewGrid(gpu, 0)
	assert.Error(t, err)
	gpu.FailNext(drivertest.KBuffer)
	_, err = NewQuad(gpu)
	assert.ErrorIs(t, err, drivertest.ErrInjected)
	assert.Empty(t, gpu.Leaks())
}
