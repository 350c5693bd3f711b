// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"testing"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

type namedDriver string

func (d namedDriver) Open() (driver.GPU, error) { return nil, driver.ErrNoDevice }
func (d namedDriver) Name() string              { return string(d) }
func (d namedDriver) Close()                    {}

func TestRegister(t *testing.T) {
	n := len(driver.Drivers())
	driver.Register(namedDriver("test-a"))
	driver.Register(namedDriver("test-b"))
	driver.Register(namedDriver("test-a"))
	drivers := driver.Drivers()
	if len(drivers) != n+2 {
		t.Fatalf("driver.Drivers: length\nhave %d\nwant %d", len(drivers), n+2)
	}
	for i := range drivers {
		name := drivers[i].Name()
		for j := range i {
			if name == drivers[j].Name() {
				t.Error("driver.Drivers: Driver.Name is not unique")
			}
		}
	}
	drivers[0] = nil
	if driver.Drivers()[0] == nil {
		t.Error("driver.Drivers: returned slice aliases the registry")
	}
}

func TestLookup(t *testing.T) {
	driver.Register(namedDriver("test-lookup"))
	d, ok := driver.Lookup("test-lookup")
	if !ok || d.Name() != "test-lookup" {
		t.Fatalf("driver.Lookup: have %v, %t", d, ok)
	}
	if _, ok := driver.Lookup("test-look"); ok {
		t.Error("driver.Lookup: matched a prefix")
	}
}

func TestPixelFmt(t *testing.T) {
	for _, x := range [...]struct {
		pf      driver.PixelFmt
		depth   bool
		stencil bool
		size    int
	}{
		{driver.RGBA8un, false, false, 4},
		{driver.BGRA8sRGB, false, false, 4},
		{driver.RGBA32f, false, false, 16},
		{driver.D32f, true, false, 4},
		{driver.D32fS8ui, true, true, 8},
		{driver.D24unS8ui, true, true, 4},
	} {
		if d := x.pf.IsDepth(); d != x.depth {
			t.Errorf("PixelFmt(%d).IsDepth\nhave %t\nwant %t", x.pf, d, x.depth)
		}
		if s := x.pf.HasStencil(); s != x.stencil {
			t.Errorf("PixelFmt(%d).HasStencil\nhave %t\nwant %t", x.pf, s, x.stencil)
		}
		if n := x.pf.Size(); n != x.size {
			t.Errorf("PixelFmt(%d).Size\nhave %d\nwant %d", x.pf, n, x.size)
		}
	}
}

func TestVertexFmt(t *testing.T) {
	for i, n := range [...]int{4, 8, 12, 16} {
		if s := driver.VertexFmt(i).Size(); s != n {
			t.Errorf("VertexFmt(%d).Size\nhave %d\nwant %d", i, s, n)
		}
	}
}
