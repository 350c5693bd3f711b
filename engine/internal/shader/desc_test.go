// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"testing"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/drivertest"
)

func TestHeapDesc(t *testing.T) {
	for _, x := range [...]struct {
		name  string
		d     *HeapDesc
		n     int
		csize int64
	}{
		{"MeshHeap", &MeshHeap, 9, 256 * 4},
		{"ReprojectHeap", &ReprojectHeap, 4, 256 * 4},
		{"CloudsHeap", &CloudsHeap, 13, 256 * 5},
		{"PostHeap", &PostHeap, 3, 256 * 2},
	} {
		ds := x.d.Descriptors()
		if len(ds) != x.n {
			t.Fatalf("%s.Descriptors: length\nhave %d\nwant %d", x.name, len(ds), x.n)
		}
		for i := range ds {
			if ds[i].Nr != i {
				t.Fatalf("%s.Descriptors: [%d].Nr\nhave %d\nwant %d", x.name, i, ds[i].Nr, i)
			}
			want := driver.DCombined
			if i < len(x.d.Consts) {
				want = driver.DConstant
			}
			if ds[i].Type != want {
				t.Fatalf("%s.Descriptors: [%d].Type\nhave %d\nwant %d", x.name, i, ds[i].Type, want)
			}
		}
		if n := x.d.ConstSize(); n != x.csize {
			t.Fatalf("%s.ConstSize:\nhave %d\nwant %d", x.name, n, x.csize)
		}
		for i := range x.d.Consts {
			if off := x.d.ConstOff(i); off != int64(i)*blockSize {
				t.Fatalf("%s.ConstOff(%d):\nhave %d\nwant %d", x.name, i, off, i*blockSize)
			}
		}
	}
	if i := CloudsHeap.ConstIndex(CloudConst); i != 4 {
		t.Fatalf("CloudsHeap.ConstIndex(CloudConst):\nhave %d\nwant 4", i)
	}
	if i := PostHeap.ConstIndex(ModelConst); i != -1 {
		t.Fatalf("PostHeap.ConstIndex(ModelConst):\nhave %d\nwant -1", i)
	}
	if nr := CloudsHeap.VolNr(3); nr != 12 {
		t.Fatalf("CloudsHeap.VolNr(3):\nhave %d\nwant 12", nr)
	}
}

func TestWriteConsts(t *testing.T) {
	gpu := drivertest.New()
	dh, err := NewHeap(gpu, &CloudsHeap)
	if err != nil {
		t.Fatal(err)
	}
	defer dh.Destroy()
	if err := dh.New(1); err != nil {
		t.Fatal(err)
	}
	buf, err := gpu.NewBuffer(CloudsHeap.ConstSize(), true, driver.UShaderConst)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	CloudsHeap.WriteConsts(dh, 0, buf)
	h := dh.(*drivertest.DescHeap)
	for i := range CloudsHeap.Consts {
		if res := h.Bound(0, i); len(res) != 1 || res[0] != buf {
			t.Fatalf("WriteConsts: descriptor %d not bound to the buffer", i)
		}
	}
}

func TestStorageHeaps(t *testing.T) {
	gpu := drivertest.New()
	sh, err := NewStorageHeap(gpu)
	if err != nil {
		t.Fatal(err)
	}
	defer sh.Destroy()
	hh, err := NewHistoryHeap(gpu)
	if err != nil {
		t.Fatal(err)
	}
	defer hh.Destroy()

	if d := sh.(*drivertest.DescHeap).Desc[0]; d.Type != driver.DImage || d.Stages != driver.SCompute {
		t.Fatalf("NewStorageHeap: unexpected descriptor %+v", d)
	}
	if d := hh.(*drivertest.DescHeap).Desc[0]; d.Type != driver.DCombined || d.Layout != driver.LCommon {
		t.Fatalf("NewHistoryHeap: unexpected descriptor %+v", d)
	}
}
