// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build nowsi

package wsi

import (
	"errors"
	"time"
	"unsafe"
)

var errMissing = errors.New("wsi: no window system")

func initWSI() error { return errMissing }

func terminateWSI() {}

func pollEvents() {}

func waitEvents(timeout time.Duration) { time.Sleep(timeout) }

func procAddr() unsafe.Pointer { return nil }

var newWindow = newWindowDummy

func newWindowDummy(int, int, string) (Window, error) {
	return nil, errNotInit
}
