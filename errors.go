// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by an export matches exactly one of
// these with errors.Is.
var (
	// ErrConfiguration is a schema problem: missing or invalid metadata,
	// or a field that does not exist on the record.
	ErrConfiguration = errors.New("configuration error")
	// ErrAccess is returned when a field's value cannot be read.
	ErrAccess = errors.New("access error")
	// ErrFormat is returned when a value cannot be converted to the
	// representation its Kind demands.
	ErrFormat = errors.New("format error")
	// ErrIO is returned when the underlying Writer fails.
	ErrIO = errors.New("i/o error")
)

// FieldError is the error of rendering one cell.
type FieldError struct {
	// Class is one of ErrConfiguration, ErrAccess or ErrFormat.
	Class error
	Err   error
	Field string
	// Row is the spreadsheet row number (the header is row 1).
	Row int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d, field %q: %v", e.Row, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{e.Class, e.Err} }

func newFieldError(row int, field string, def, err error) *FieldError {
	class := def
	for _, c := range []error{ErrConfiguration, ErrAccess, ErrFormat} {
		if errors.Is(err, c) {
			class = c
			break
		}
	}
	return &FieldError{Row: row, Field: field, Class: class, Err: err}
}
