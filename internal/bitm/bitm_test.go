// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bitm

import (
	"testing"
	"unsafe"
)

func TestNbit(t *testing.T) {
	for _, x := range [...][2]int{
		{int(unsafe.Sizeof(uint(0))) * 8, (&Bitm[uint]{}).nbit()},
		{int(unsafe.Sizeof(uint8(0))) * 8, (&Bitm[uint8]{}).nbit()},
		{int(unsafe.Sizeof(uint16(0))) * 8, (&Bitm[uint16]{}).nbit()},
		{int(unsafe.Sizeof(uint32(0))) * 8, (&Bitm[uint32]{}).nbit()},
		{int(unsafe.Sizeof(uint64(0))) * 8, (&Bitm[uint64]{}).nbit()},
		{int(unsafe.Sizeof(uintptr(0))) * 8, (&Bitm[uintptr]{}).nbit()},
	} {
		if x[0] != x[1] {
			t.Fatalf("Bitm[T].nbit:\nhave %v\nwant %v", x[0], x[1])
		}
	}
}

func TestZero(t *testing.T) {
	var bitm16 Bitm[uint16]
	if bitm16.m != nil {
		t.Fatalf("bitm16.m:\nhave %v\nwant nil", bitm16.m)
	}
	if n := bitm16.Rem(); n != 0 {
		t.Fatalf("bitm16.Rem:\nhave %v\nwant 0", n)
	}
	if n := bitm16.Len(); n != 0 {
		t.Fatalf("bitm16.Len:\nhave %v\nwant 0", n)
	}
	if _, ok := bitm16.Search(); ok {
		t.Fatal("bitm16.Search:\nhave true\nwant false")
	}
}

func TestSetUnset(t *testing.T) {
	var m Bitm[uint8]
	if idx := m.Grow(2); idx != 0 {
		t.Fatalf("m.Grow:\nhave %v\nwant 0", idx)
	}
	if n := m.Rem(); n != 16 {
		t.Fatalf("m.Rem:\nhave %v\nwant 16", n)
	}
	for i := 0; i < 9; i++ {
		idx, ok := m.Search()
		if !ok || idx != i {
			t.Fatalf("m.Search:\nhave %v, %t\nwant %v, true", idx, ok, i)
		}
		m.Set(idx)
	}
	m.Unset(3)
	if m.IsSet(3) {
		t.Fatal("m.IsSet(3):\nhave true\nwant false")
	}
	if idx, _ := m.Search(); idx != 3 {
		t.Fatalf("m.Search:\nhave %v\nwant 3", idx)
	}
	if n := m.Rem(); n != 8 {
		t.Fatalf("m.Rem:\nhave %v\nwant 8", n)
	}
	// Setting twice must not change the count.
	m.Set(0)
	if n := m.Rem(); n != 8 {
		t.Fatalf("m.Rem:\nhave %v\nwant 8", n)
	}
	if idx := m.Grow(1); idx != 16 {
		t.Fatalf("m.Grow:\nhave %v\nwant 16", idx)
	}
	m.Clear()
	if n := m.Rem(); n != m.Len() {
		t.Fatalf("m.Rem:\nhave %v\nwant %v", n, m.Len())
	}
}

func TestSearchRange(t *testing.T) {
	var m Bitm[uint8]
	if _, ok := m.SearchRange(1); ok {
		t.Fatal("m.SearchRange(1) on empty map:\nhave true\nwant false")
	}
	m.Grow(3)
	for _, i := range []int{0, 1, 5, 9} {
		m.Set(i)
	}
	for _, x := range [...]struct {
		n, idx int
		ok     bool
	}{
		{1, 2, true},
		{3, 2, true},
		{4, 10, true},
		{14, 10, true},
		{15, 0, false},
	} {
		idx, ok := m.SearchRange(x.n)
		if ok != x.ok || (ok && idx != x.idx) {
			t.Fatalf("m.SearchRange(%d):\nhave %v, %t\nwant %v, %t", x.n, idx, ok, x.idx, x.ok)
		}
	}
}
