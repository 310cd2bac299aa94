// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package tabexport writes homogeneous record collections into spreadsheets,
// one row per record, using a Schema to select the columns, their headers
// and how each value is rendered into a cell.
package tabexport

import (
	"errors"
	"io"
)

// Writer writes the spreadsheet consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// After Close the Writer must not be used again; implementations
// return ErrClosed.
type Writer interface {
	io.Closer
	NewSheet(name string, cols []Column) (Sheet, error)
}

// Sheet should be Closed when finished.
type Sheet interface {
	io.Closer
	AppendRow(values ...any) error
}

// Align is the horizontal alignment of a cell.
type Align uint8

const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return ""
	}
}

// Style is a style for a column/row/cell.
//
// Style is a comparable value: writers create one backend style
// for each distinct Style and never modify it afterwards.
type Style struct {
	// Format is the number format
	Format string
	// FontBold is true if the font is bold
	FontBold bool
	// Align is the horizontal alignment
	Align Align
}

// IsZero reports whether the style is the default one.
func (s Style) IsZero() bool { return s == Style{} }

// Column contains the Name of the column and header's style and column's style.
type Column struct {
	Name           string
	Header, Column Style
}

var (
	ErrTooManyRows = errors.New("too many rows")
	ErrClosed      = errors.New("writer is closed")
)

// Number is a string that contains a number.
type Number string
