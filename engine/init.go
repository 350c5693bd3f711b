// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/internal/ctxt"
)

// OpenGPU opens any registered driver whose name contains
// name, ignoring case.
// If name is the empty string, all drivers are considered.
// A driver opened by a previous call is closed first.
func OpenGPU(name string) (driver.Driver, driver.GPU, error) {
	gpu, err := ctxt.Load(name)
	if err != nil {
		return nil, nil, err
	}
	return ctxt.Driver(), gpu, nil
}

// CloseGPU closes the driver opened by OpenGPU.
func CloseGPU() { ctxt.Close() }
