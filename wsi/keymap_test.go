// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !nowsi

package wsi

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestKeyFrom(t *testing.T) {
	for _, x := range [...]struct {
		code glfw.Key
		key  Key
	}{
		{glfw.KeyW, KeyW},
		{glfw.KeyA, KeyA},
		{glfw.KeyS, KeyS},
		{glfw.KeyD, KeyD},
		{glfw.KeyQ, KeyQ},
		{glfw.KeyE, KeyE},
		{glfw.KeySpace, KeySpace},
		{glfw.KeyEscape, KeyEsc},
		{glfw.KeyUnknown, KeyUnknown},
		{glfw.KeyLast + 1, KeyUnknown},
		{glfw.KeyMenu, KeyUnknown},
	} {
		if k := keyFrom(x.code); k != x.key {
			t.Errorf("keyFrom(%v)\nhave %v\nwant %v", x.code, k, x.key)
		}
	}
	if m := modFrom(glfw.ModShift | glfw.ModControl); m != ModShift|ModCtrl {
		t.Errorf("modFrom\nhave %v\nwant %v", m, ModShift|ModCtrl)
	}
	if b := btnFrom(glfw.MouseButtonRight); b != BtnRight {
		t.Errorf("btnFrom\nhave %v\nwant %v", b, BtnRight)
	}
}
