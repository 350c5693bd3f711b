// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPingPong(t *testing.T) {
	var p PingPong
	assert.False(t, p.Value())
	pair := Pair[string]{"a", "b"}
	var prevWrite string
	for n := 0; n < 8; n++ {
		v := p.Value()
		w, r := pair.Write(v), pair.Read(v)
		assert.NotEqual(t, w, r, "frame %d", n)
		if n > 0 {
			// What was written last frame is read now.
			assert.Equal(t, prevWrite, r, "frame %d", n)
		}
		assert.Equal(t, w, pair.Read(!v))
		prevWrite = w
		p.Toggle()
		assert.Equal(t, n%2 == 0, p.Value())
	}
}

func TestFrameBegin(t *testing.T) {
	var p PingPong
	f := p.Begin(800, 600)
	assert.False(t, f.History)
	assert.Equal(t, -1, f.Image)
	assert.Equal(t, 800, f.Width)
	p.Toggle()
	// The frame keeps the captured value.
	assert.False(t, f.History)
	assert.True(t, p.Begin(1, 1).History)
	assert.Equal(t, 0, b2i(false))
	assert.Equal(t, 1, b2i(true))
}
