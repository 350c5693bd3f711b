// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines a set of interfaces encompassing
// common GPU functionality.
// It is designed around explicit queues and semaphores, so
// that work spread across compute and graphics queues can
// be ordered by the caller.
package driver

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Driver is the interface that provides methods for
// loading and unloading an underlying implementation.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	// Callers should assume that Close is not safe for
	// parallel execution.
	Close()
}

// ErrNotInstalled means that a platform-specific library
// required for the driver to work is not present in the
// system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable
// state. Upon encountering such an error, the application
// must destroy everything that it created using the
// driver's GPU and then call the Close method. It may call
// Open again to reinitialize the driver for further use.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered Drivers in the order
// that they were registered.
// Client code imports specific driver packages, whose
// init functions call Register. Drivers that do not
// register themselves on init are not considered for
// selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	return slices.Clone(drivers)
}

// Lookup returns the registered Driver whose name is
// exactly name.
func Lookup(name string) (Driver, bool) {
	mu.Lock()
	defer mu.Unlock()
	if i := slices.IndexFunc(drivers, func(d Driver) bool { return d.Name() == name }); i >= 0 {
		return drivers[i], true
	}
	return nil, false
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// A driver with the same name is replaced by drv and
// keeps its position.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	name := drv.Name()
	if i := slices.IndexFunc(drivers, func(d Driver) bool { return d.Name() == name }); i >= 0 {
		drivers[i] = drv
		slog.Warn("driver replaced", "driver", name)
		return
	}
	drivers = append(drivers, drv)
	slog.Debug("driver registered", "driver", name)
}

var (
	mu      sync.Mutex
	drivers []Driver
)
