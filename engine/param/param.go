// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package param implements the store of named tunables
// that drive cloud rendering.
//
// A Store holds float, 4-component vector and string
// entries. Entries are registered with Create* and then
// read and written by name. Reading or writing a name that
// was never registered is a programming error and panics.
package param

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

// ErrMissing means that a required parameter was not
// registered.
var ErrMissing = errors.New("param: missing parameter")

// Names of the cloud rendering parameters.
const (
	Coverage     = "coverage_rate"
	Erosion      = "erosion_rate"
	Extinction   = "extinction"
	TempFloat    = "tempfloat"
	Wind         = "wind_direction"
	CirrusWind   = "cirrus_wind_direction"
	CloudInfo1   = "cloudinfo1"
	CloudInfo2   = "cloudinfo2"
	CloudInfo3   = "cloudinfo3"
	CloudInfo4   = "cloudinfo4"
	CloudInfo5   = "cloudinfo5"
	TempVector   = "tempVector"
	SunIntensity = "sun_intensity"

	// Name of the preset that last set the store.
	PresetName = "preset_name"
)

// CloudFloats lists the float parameters that the
// renderer reads every frame.
var CloudFloats = []string{Coverage, Erosion, Extinction, TempFloat}

// CloudVectors lists the vector parameters that the
// renderer reads every frame.
var CloudVectors = []string{
	Wind, CirrusWind,
	CloudInfo1, CloudInfo2, CloudInfo3, CloudInfo4, CloudInfo5,
	TempVector,
}

// Store is a set of named parameters.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	floats  map[string]float32
	vectors map[string]linear.V4
	strs    map[string]string
	reload  func()
}

// New creates an empty store.
func New() *Store {
	return &Store{
		floats:  make(map[string]float32),
		vectors: make(map[string]linear.V4),
		strs:    make(map[string]string),
	}
}

// NewCloudDefaults creates a store with every cloud
// rendering parameter registered with its default value.
func NewCloudDefaults() *Store {
	s := New()
	s.CreateFloat(Coverage, 0.85)
	s.CreateFloat(Erosion, 1)
	s.CreateFloat(Extinction, 1.2)
	s.CreateFloat(TempFloat, 0.5)
	s.CreateVector(Wind, linear.V4{1, 0.05, 1, 0})
	s.CreateVector(CirrusWind, linear.V4{1, 0, 0.5, 0})
	s.CreateVector(CloudInfo1, linear.V4{1, 1, 1, 0})
	s.CreateVector(CloudInfo2, linear.V4{0, 0, 0.7, 0.35})
	s.CreateVector(CloudInfo3, linear.V4{20, 0, 1, 1})
	s.CreateVector(CloudInfo4, linear.V4{0, 1, 180, 100})
	s.CreateVector(CloudInfo5, linear.V4{0, 0, 4, 0.32})
	s.CreateVector(TempVector, linear.V4{0, 1500, 1500, 0})
	s.CreateString(PresetName, "default")
	return s
}

func missing(kind, name string) string {
	return "param: " + kind + " parameter \"" + name + "\" not registered"
}

// CreateFloat registers a float parameter.
// If name is already registered, its value is replaced.
func (s *Store) CreateFloat(name string, v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats[name] = v
}

// CreateVector registers a vector parameter.
// If name is already registered, its value is replaced.
func (s *Store) CreateVector(name string, v linear.V4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[name] = v
}

// CreateString registers a string parameter.
// If name is already registered, its value is replaced.
func (s *Store) CreateString(name, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strs[name] = v
}

// SetFloat sets the value of a registered float parameter.
// It panics if name is not registered.
func (s *Store) SetFloat(name string, v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.floats[name]; !ok {
		panic(missing("float", name))
	}
	s.floats[name] = v
}

// SetVector sets the value of a registered vector parameter.
// It panics if name is not registered.
func (s *Store) SetVector(name string, v linear.V4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectors[name]; !ok {
		panic(missing("vector", name))
	}
	s.vectors[name] = v
}

// SetString sets the value of a registered string parameter.
// It panics if name is not registered.
func (s *Store) SetString(name, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strs[name]; !ok {
		panic(missing("string", name))
	}
	s.strs[name] = v
}

// Float returns the value of a float parameter.
// It panics if name is not registered.
func (s *Store) Float(name string) float32 {
	v, ok := s.LookupFloat(name)
	if !ok {
		panic(missing("float", name))
	}
	return v
}

// Vector returns the value of a vector parameter.
// It panics if name is not registered.
func (s *Store) Vector(name string) linear.V4 {
	v, ok := s.LookupVector(name)
	if !ok {
		panic(missing("vector", name))
	}
	return v
}

// String returns the value of a string parameter.
// It panics if name is not registered.
func (s *Store) String(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.strs[name]
	if !ok {
		panic(missing("string", name))
	}
	return v
}

// LookupFloat returns the value of a float parameter and
// whether it is registered.
func (s *Store) LookupFloat(name string) (float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.floats[name]
	return v, ok
}

// LookupVector returns the value of a vector parameter and
// whether it is registered.
func (s *Store) LookupVector(name string) (linear.V4, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[name]
	return v, ok
}

// Require checks that every given name is registered.
// The error wraps ErrMissing and lists every name that
// is not.
func (s *Store) Require(floats, vectors []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var miss []string
	for _, n := range floats {
		if _, ok := s.floats[n]; !ok {
			miss = append(miss, "float "+n)
		}
	}
	for _, n := range vectors {
		if _, ok := s.vectors[n]; !ok {
			miss = append(miss, "vector "+n)
		}
	}
	if len(miss) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(miss, ", "))
}

// Values is a copy of the contents of a Store.
// It is also the schema of preset files.
type Values struct {
	Floats  map[string]float32   `toml:"floats,omitempty" yaml:"floats,omitempty"`
	Vectors map[string]linear.V4 `toml:"vectors,omitempty" yaml:"vectors,omitempty"`
	Strings map[string]string    `toml:"strings,omitempty" yaml:"strings,omitempty"`
}

// Float returns the value of a float parameter.
// It panics if name is not present in v.
func (v *Values) Float(name string) float32 {
	x, ok := v.Floats[name]
	if !ok {
		panic(missing("float", name))
	}
	return x
}

// Vector returns the value of a vector parameter.
// It panics if name is not present in v.
func (v *Values) Vector(name string) linear.V4 {
	x, ok := v.Vectors[name]
	if !ok {
		panic(missing("vector", name))
	}
	return x
}

// Snapshot returns a copy of every parameter.
// The copy is taken under a single lock, so it never
// mixes values from before and after an Apply.
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := Values{
		Floats:  make(map[string]float32, len(s.floats)),
		Vectors: make(map[string]linear.V4, len(s.vectors)),
		Strings: make(map[string]string, len(s.strs)),
	}
	for k, x := range s.floats {
		v.Floats[k] = x
	}
	for k, x := range s.vectors {
		v.Vectors[k] = x
	}
	for k, x := range s.strs {
		v.Strings[k] = x
	}
	return v
}

// Apply registers every value in v, replacing existing
// values.
func (s *Store) Apply(v *Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, x := range v.Floats {
		s.floats[k] = x
	}
	for k, x := range v.Vectors {
		s.vectors[k] = x
	}
	for k, x := range v.Strings {
		s.strs[k] = x
	}
}

// Names returns the sorted names of the float and vector
// parameters.
func (s *Store) Names() (floats, vectors []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k := range s.floats {
		floats = append(floats, k)
	}
	for k := range s.vectors {
		vectors = append(vectors, k)
	}
	sort.Strings(floats)
	sort.Strings(vectors)
	return
}
