// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"testing"
	"unsafe"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

func checkSlicesT(x, y []float32, t *testing.T, prefix string) {
	if len(x) != len(y) {
		t.Fatalf("%s: length mismatch\n%d != %d", prefix, len(x), len(y))
	}
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("%s: slices differ at index %d\n%v != %v", prefix, i, x[i], y[i])
		}
	}
}

func m4Slice(m *linear.M4) []float32 { return unsafe.Slice((*float32)(unsafe.Pointer(m)), 16) }

func TestCameraLayout(t *testing.T) {
	col := linear.V4{12, 34, 56, 78}
	v := linear.M4{col, col, col, col}
	col = linear.V4{21, -43, 41, -87}
	p := linear.M4{col, col, col, col}
	pos := linear.V3{-1, 2, -3}

	var l CameraLayout
	l.SetView(&v)
	l.SetProj(&p)
	l.SetPosition(&pos)
	l.SetParams(16.0/9, 0.4142)

	s := "CameraLayout."
	checkSlicesT(l[0:16], m4Slice(&v), t, s+"SetView")
	checkSlicesT(l[16:32], m4Slice(&p), t, s+"SetProj")
	checkSlicesT(l[32:36], []float32{-1, 2, -3, 1}, t, s+"SetPosition")
	checkSlicesT(l[36:40], []float32{16.0 / 9, 0.4142, 0, 0}, t, s+"SetParams")
	if n := unsafe.Sizeof(l); n != 160 {
		t.Fatalf("%sSizeof:\nhave %d\nwant 160", s, n)
	}
}

func TestModelLayout(t *testing.T) {
	var m, it linear.M4
	m.Scale(100, 1, 100)
	it.Invert(&m)
	it.Transpose(&it)

	var l ModelLayout
	l.SetModel(&m)
	l.SetInvTranspose(&it)

	checkSlicesT(l[0:16], m4Slice(&m), t, "ModelLayout.SetModel")
	checkSlicesT(l[16:32], m4Slice(&it), t, "ModelLayout.SetInvTranspose")
}

func TestSunLayout(t *testing.T) {
	var l SunLayout
	l.SetDirection(&linear.V4{0, 1, 0, 0})
	l.SetColor(&linear.V3{1, 0.5, 0.25})
	l.SetCounter(15)
	l.SetIntensity(20)
	l.SetPosition(&linear.V4{0, 500, 0, 1})

	checkSlicesT(l[:], []float32{
		0, 1, 0, 0,
		1, 0.5, 0.25, 15,
		20, 0, 0, 0,
		0, 500, 0, 1,
	}, t, "SunLayout")
}

func TestSkyLayout(t *testing.T) {
	var l SkyLayout
	l.SetBetaR(&linear.V4{1, 2, 3, 0})
	l.SetBetaV(&linear.V4{4, 5, 6, 0})
	l.SetWind(&linear.V4{1, 0.05, 1, 7})
	l.SetMieG(0.8)
	l.SetSunFade(0.5)
	l.SetTime(42)

	checkSlicesT(l[:], []float32{
		1, 2, 3, 0,
		4, 5, 6, 0,
		1, 0.05, 1, 7,
		0.8, 0.5, 42, 0,
	}, t, "SkyLayout")
}

func TestCloudLayout(t *testing.T) {
	var l CloudLayout
	l.SetScalars(0.85, 1, 1.2, 0.5)
	l.SetWind(&linear.V4{1, 0, 0.5, 0})
	for i := range 5 {
		f := float32(i + 1)
		l.SetInfo(i, &linear.V4{f, f, f, f})
	}
	l.SetTempVector(&linear.V4{0, 1500, 1500, 0})

	checkSlicesT(l[:], []float32{
		0.85, 1, 1.2, 0.5,
		1, 0, 0.5, 0,
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, 3,
		4, 4, 4, 4,
		5, 5, 5, 5,
		0, 1500, 1500, 0,
	}, t, "CloudLayout")

	defer func() {
		if x := recover(); x != "cloud info index out of bounds" {
			t.Fatalf("CloudLayout.SetInfo(5, _): unexpected panic value %v", x)
		}
	}()
	l.SetInfo(5, &linear.V4{})
}

func TestBytes(t *testing.T) {
	var l SunLayout
	l.SetIntensity(1)
	b := Bytes(&l)
	if len(b) != 64 {
		t.Fatalf("Bytes: length\nhave %d\nwant 64", len(b))
	}
	b[8*4], b[8*4+1], b[8*4+2], b[8*4+3] = 0, 0, 0, 0
	if l[8] != 0 {
		t.Fatal("Bytes: slice does not alias the layout")
	}
}
