// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"testing"
	"time"
)

// fakeWindow is a Window that does not require a window
// system.
type fakeWindow struct {
	w, h  int
	title string
	ext   []string
}

func (w *fakeWindow) Map() error                     { return nil }
func (w *fakeWindow) Unmap() error                   { return nil }
func (w *fakeWindow) Resize(width, height int) error { w.w, w.h = width, height; return nil }
func (w *fakeWindow) SetTitle(title string) error    { w.title = title; return nil }
func (w *fakeWindow) Close()                         { closeWindow(w) }
func (w *fakeWindow) Width() int                     { return w.w }
func (w *fakeWindow) Height() int                    { return w.h }
func (w *fakeWindow) Title() string                  { return w.title }
func (w *fakeWindow) ShouldClose() bool              { return false }
func (w *fakeWindow) Surface(any) (uintptr, error)   { return 0, errNotInit }
func (w *fakeWindow) Extensions() []string           { return w.ext }

func TestWindows(t *testing.T) {
	if n := len(Windows()); n != 0 {
		t.Fatalf("len(Windows())\nhave %v\nwant 0", n)
	}
	a := &fakeWindow{ext: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}}
	b := &fakeWindow{ext: []string{"VK_KHR_surface", "VK_KHR_wayland_surface"}}
	addWindow(a)
	addWindow(b)
	if n := len(Windows()); n != 2 {
		t.Fatalf("len(Windows())\nhave %v\nwant 2", n)
	}
	ext := InstanceExtensions()
	if len(ext) != 3 {
		t.Fatalf("InstanceExtensions\nhave %v\nwant 3 unique names", ext)
	}
	a.Close()
	if wins := Windows(); len(wins) != 1 || wins[0] != b {
		t.Fatalf("Windows\nhave %v\nwant [%v]", wins, b)
	}
	b.Close()
	if wins := Windows(); wins != nil {
		t.Fatalf("Windows\nhave %v\nwant nil", wins)
	}
}

func TestNotInit(t *testing.T) {
	if initialized {
		t.Skip("wsi already initialized")
	}
	if _, err := NewWindow(480, 360, "Will fail"); err != errNotInit {
		t.Fatalf("NewWindow\nhave %v\nwant %v", err, errNotInit)
	}
	if p := ProcAddr(); p != nil {
		t.Fatalf("ProcAddr\nhave %v\nwant nil", p)
	}
	// Does nothing.
	Dispatch()

	start := time.Now()
	Wait(10 * time.Millisecond)
	if d := time.Since(start); d < 10*time.Millisecond {
		t.Fatalf("Wait returned after %v", d)
	}
}
