// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package bitm defines a bitmap type useful for resource management
// (e.g., handle allocation and free list implementations).
package bitm

import (
	"math/bits"
	"unsafe"
)

// Uint represents the granularity of a bitmap.
type Uint interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Bitm is a growable bitmap with custom granularity.
// The zero value is an empty map ready for use.
type Bitm[T Uint] struct {
	m   []T
	rem int
}

// nbit returns the number of bits in T.
func (m *Bitm[T]) nbit() int { return int(unsafe.Sizeof(T(0))) * 8 }

// Len returns the number of bits in the map.
func (m *Bitm[_]) Len() int { return len(m.m) * m.nbit() }

// Rem returns the number of unset bits in the map.
func (m *Bitm[_]) Rem() int { return m.rem }

// Grow grows the map by n words of T.
// It returns the index of the first new bit.
func (m *Bitm[T]) Grow(n int) int {
	idx := m.Len()
	if n > 0 {
		m.m = append(m.m, make([]T, n)...)
		m.rem += n * m.nbit()
	}
	return idx
}

// IsSet reports whether the bit at index is set.
func (m *Bitm[T]) IsSet(index int) bool {
	n := m.nbit()
	return m.m[index/n]&(T(1)<<(index%n)) != 0
}

// Set sets the bit at index.
func (m *Bitm[T]) Set(index int) {
	n := m.nbit()
	w := &m.m[index/n]
	b := T(1) << (index % n)
	if *w&b == 0 {
		*w |= b
		m.rem--
	}
}

// Unset unsets the bit at index.
func (m *Bitm[T]) Unset(index int) {
	n := m.nbit()
	w := &m.m[index/n]
	b := T(1) << (index % n)
	if *w&b != 0 {
		*w &^= b
		m.rem++
	}
}

// Search locates the first unset bit in the map.
// It does not set the bit.
func (m *Bitm[T]) Search() (index int, ok bool) {
	if m.rem == 0 {
		return
	}
	n := m.nbit()
	for i, w := range m.m {
		if ^w == 0 {
			continue
		}
		return i*n + bits.TrailingZeros64(uint64(^w)), true
	}
	return
}

// SearchRange locates the first range of n contiguous
// unset bits in the map.
// It does not set the bits.
func (m *Bitm[T]) SearchRange(n int) (index int, ok bool) {
	if n <= 0 {
		panic("bitm: SearchRange with n <= 0")
	}
	if m.rem < n {
		return
	}
	run := 0
	for i := range m.Len() {
		if m.IsSet(i) {
			run = 0
			continue
		}
		if run++; run == n {
			return i - n + 1, true
		}
	}
	return
}

// Clear unsets every bit in the map.
func (m *Bitm[T]) Clear() {
	clear(m.m)
	m.rem = m.Len()
}
