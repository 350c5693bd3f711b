// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"log"
	"math/rand/v2"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	_ "github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/vk"
)

// openGPU selects the vulkan driver and opens it.
func openGPU() (driver.Driver, driver.GPU) {
	for _, drv := range driver.Drivers() {
		if drv.Name() != "vulkan" {
			continue
		}
		gpu, err := drv.Open()
		if err != nil {
			log.Fatal(err)
		}
		return drv, gpu
	}
	log.Fatal("driver.Drivers(): driver not found")
	return nil, nil
}

// Example_volume uploads a 3D noise volume through a staging
// buffer and makes it visible to fragment and compute shaders.
func Example_volume() {
	drv, gpu := openGPU()
	defer drv.Close()

	const size = 32
	const pf = driver.RGBA8un
	stg, err := gpu.NewBuffer(size*size*size*int64(pf.Size()), true, driver.UCopySrc)
	if err != nil {
		log.Fatal(err)
	}
	defer stg.Destroy()
	for i, p := 0, stg.Bytes(); i < size*size*size*pf.Size(); i++ {
		p[i] = byte(rand.IntN(256))
	}

	img, err := gpu.NewImage(pf, driver.Dim3D{Width: size, Height: size, Depth: size}, 1, 1, 1, driver.UShaderSample|driver.UCopyDst)
	if err != nil {
		log.Fatal(err)
	}
	defer img.Destroy()
	iv, err := img.NewView(driver.IView3D, 0, 1, 0, 1)
	if err != nil {
		log.Fatal(err)
	}
	defer iv.Destroy()

	q := gpu.Queue(driver.QGraphics)
	cb, err := gpu.NewCmdBuffer(q)
	if err != nil {
		log.Fatal(err)
	}
	defer cb.Destroy()
	if err := cb.Begin(); err != nil {
		log.Fatal(err)
	}
	cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncAfter:   driver.SCopy,
			AccessAfter: driver.ACopyWrite,
		},
		LayoutBefore: driver.LUndefined,
		LayoutAfter:  driver.LCopyDst,
		IView:        iv,
	}})
	cb.CopyBufToImg(&driver.BufImgCopy{
		Buf:    stg,
		Stride: [2]int64{size, size},
		Img:    img,
		Size:   driver.Dim3D{Width: size, Height: size, Depth: size},
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
	if err := cb.End(); err != nil {
		log.Fatal(err)
	}
	if err := q.Submit([]driver.Batch{{Cmd: []driver.CmdBuffer{cb}}}); err != nil {
		log.Fatal(err)
	}
	if err := q.WaitIdle(); err != nil {
		log.Fatal(err)
	}
}
