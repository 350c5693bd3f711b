// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package param

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a preset file.
type Format int

// Preset formats.
const (
	TOML Format = iota
	YAML
)

// ErrFormat means that a preset file has an unknown
// extension.
var ErrFormat = errors.New("param: unknown preset format")

// FormatOf returns the preset format that matches the
// extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrFormat, path)
}

// Decode reads preset values from r.
func Decode(r io.Reader, f Format) (*Values, error) {
	var v Values
	var err error
	switch f {
	case TOML:
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&v)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err = dec.Decode(&v); err == io.EOF {
			err = nil
		}
	default:
		return nil, ErrFormat
	}
	if err != nil {
		return nil, fmt.Errorf("param: decoding preset: %w", err)
	}
	return &v, nil
}

// Encode writes preset values to w.
func Encode(w io.Writer, v *Values, f Format) error {
	switch f {
	case TOML:
		return toml.NewEncoder(w).Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return ErrFormat
}

// Load reads the preset file at path and applies it to s.
// Values in the file are registered with Create semantics.
func (s *Store) Load(path string) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, err := Decode(bytes.NewReader(b), f)
	if err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	s.Apply(v)
	return nil
}

// Save writes every parameter of s to the preset file at
// path.
func (s *Store) Save(path string) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	v := s.Snapshot()
	var buf bytes.Buffer
	if err := Encode(&buf, &v, f); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
