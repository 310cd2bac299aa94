// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SchemaFile is the YAML description of a sheet:
//
//	sheet: Orders
//	columns:
//	  - name: amount
//	    header: Amount
//	    kind: currency
type SchemaFile struct {
	Sheet   string         `yaml:"sheet"`
	Columns []SchemaColumn `yaml:"columns"`
}

// SchemaColumn is one column of a SchemaFile.
type SchemaColumn struct {
	Name   string `yaml:"name"`
	Header string `yaml:"header"`
	Kind   Kind   `yaml:"kind"`
}

// LoadSchema reads a SchemaFile from r.
//
// Header defaults to Name. The fields are read with ByName.
func LoadSchema(r io.Reader) (Schema, string, error) {
	var sf SchemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return Schema{}, "", fmt.Errorf("%w: empty schema file", ErrConfiguration)
		}
		return Schema{}, "", fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	fields := make([]FieldSpec, len(sf.Columns))
	for i, c := range sf.Columns {
		if c.Header == "" {
			c.Header = c.Name
		}
		fields[i] = FieldSpec{Name: c.Name, Header: c.Header, Kind: c.Kind}
	}
	s, err := NewSchema(fields...)
	return s, sf.Sheet, err
}
