// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt selects and holds the GPU driver used in
// the engine.
package ctxt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

var (
	mu     sync.Mutex
	drv    driver.Driver
	gpu    driver.GPU
	limits driver.Limits
)

// ErrNoDriver means that no registered driver matched
// the requested name or could be opened.
var ErrNoDriver = errors.New("ctxt: driver not found")

// Load opens any registered driver whose name contains
// name, ignoring case. A driver named exactly name is
// tried first.
// If name is the empty string, then all registered
// drivers are considered.
// A driver that is already loaded is closed first.
func Load(name string) (driver.GPU, error) {
	mu.Lock()
	defer mu.Unlock()
	unload()
	drivers := driver.Drivers()
	if d, ok := driver.Lookup(name); ok {
		drivers = slices.DeleteFunc(drivers, func(x driver.Driver) bool { return x.Name() == name })
		drivers = slices.Insert(drivers, 0, d)
	}
	var errs []error
	name = strings.ToLower(name)
	for i := range drivers {
		if !strings.Contains(strings.ToLower(drivers[i].Name()), name) {
			continue
		}
		u, err := drivers[i].Open()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", drivers[i].Name(), err))
			continue
		}
		drv = drivers[i]
		gpu = u
		limits = gpu.Limits()
		return gpu, nil
	}
	return nil, errors.Join(append([]error{ErrNoDriver}, errs...)...)
}

func unload() {
	if drv != nil {
		drv.Close()
	}
	drv, gpu, limits = nil, nil, driver.Limits{}
}

// Close closes the loaded driver, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	unload()
}

// Driver returns the loaded driver.Driver.
func Driver() driver.Driver {
	mu.Lock()
	defer mu.Unlock()
	return drv
}

// GPU returns the loaded driver.GPU.
func GPU() driver.GPU {
	mu.Lock()
	defer mu.Unlock()
	return gpu
}

// Limits returns GPU().Limits().
// This value is retrieved only once per Load. It must
// not be changed by the caller.
func Limits() *driver.Limits {
	mu.Lock()
	defer mu.Unlock()
	return &limits
}
