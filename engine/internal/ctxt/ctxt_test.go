// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package ctxt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/drivertest"
)

type testDriver struct {
	name   string
	gpu    *drivertest.GPU
	err    error
	closed int
}

func (d *testDriver) Open() (driver.GPU, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.gpu, nil
}

func (d *testDriver) Name() string { return d.name }
func (d *testDriver) Close()       { d.closed++ }

func TestLoad(t *testing.T) {
	broken := &testDriver{name: "ctxt-Broken", err: driver.ErrNotInstalled}
	good := &testDriver{name: "ctxt-Working", gpu: drivertest.New()}
	driver.Register(broken)
	driver.Register(good)
	defer Close()

	gpu, err := Load("ctxt-working")
	require.NoError(t, err)
	assert.Same(t, good.gpu, gpu)
	assert.Same(t, good, Driver())
	assert.Equal(t, good.gpu.Limits(), *Limits())

	_, err = Load("ctxt-broken")
	assert.True(t, errors.Is(err, ErrNoDriver))
	assert.True(t, errors.Is(err, driver.ErrNotInstalled))
	assert.Equal(t, 1, good.closed)
	assert.Nil(t, GPU())

	_, err = Load("no such driver")
	assert.True(t, errors.Is(err, ErrNoDriver))
}

func TestLoadExact(t *testing.T) {
	wide := &testDriver{name: "ctxt-exact-wide", gpu: drivertest.New()}
	exact := &testDriver{name: "ctxt-exact", gpu: drivertest.New()}
	driver.Register(wide)
	driver.Register(exact)
	defer Close()

	gpu, err := Load("ctxt-exact")
	require.NoError(t, err)
	assert.Same(t, exact.gpu, gpu)

	gpu, err = Load("CTXT-EXACT-")
	require.NoError(t, err)
	assert.Same(t, wide.gpu, gpu)
	assert.Equal(t, 1, exact.closed)
}
