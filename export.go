// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSheetName is used when no sheet name is given.
const DefaultSheetName = "Sheet1"

// MaxSheetNameLength is the maximum number of characters of a sheet name.
const MaxSheetNameLength = 31

const invalidSheetNameChars = `:\/?*[]`

// checkSheetName reports the sheet names spreadsheet applications reject.
func checkSheetName(name string) error {
	if utf8.RuneCountInString(name) > MaxSheetNameLength {
		return fmt.Errorf("%w: sheet name %q is longer than %d characters", ErrConfiguration, name, MaxSheetNameLength)
	}
	if strings.ContainsAny(name, invalidSheetNameChars) {
		return fmt.Errorf("%w: sheet name %q contains any of %s", ErrConfiguration, name, invalidSheetNameChars)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return fmt.Errorf("%w: sheet name %q starts or ends with an apostrophe", ErrConfiguration, name)
	}
	return nil
}

// SheetName makes a valid sheet name of s: the forbidden characters
// are replaced with '_', and it is cut to MaxSheetNameLength characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetNameChars, r) {
			return '_'
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > MaxSheetNameLength {
		s = string([]rune(s)[:MaxSheetNameLength])
	}
	return strings.Trim(s, "'")
}

// Options of an export. The zero value is usable.
type Options struct {
	// Currency renders KindCurrency fields, defaults to GroupedCurrency.
	Currency CurrencyFormat
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// HeaderStyle overrides the default bold, centered HeaderStyle.
	HeaderStyle *Style
	// PlainHeader writes the header without any style.
	PlainHeader bool
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) renderer() Renderer {
	if o == nil {
		return Renderer{}
	}
	return Renderer{Currency: o.Currency}
}

func (o *Options) headerStyle() Style {
	if o == nil {
		return HeaderStyle
	}
	if o.PlainHeader {
		return Style{}
	}
	if o.HeaderStyle != nil {
		return *o.HeaderStyle
	}
	return HeaderStyle
}

// Columns returns the columns of the sheet written for the schema.
func (s Schema) Columns(opts *Options) []Column {
	r, hs := opts.renderer(), opts.headerStyle()
	cols := make([]Column, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = Column{Name: f.Header, Header: hs, Column: r.Style(f.Kind)}
	}
	return cols
}

// Export writes records into a new sheet of w, using the Schema of T.
func Export[T any](w Writer, sheetName string, records []T, opts *Options) error {
	schema, err := SchemaOf[T]()
	if err != nil {
		return err
	}
	return WriteSheet(w, sheetName, schema, slices.Values(records), opts)
}

// WriteSheet writes a header row and then one row per record into a new sheet of w.
//
// Any error aborts the export: the caller must not Close w on error
// if it does not want a partial workbook.
func WriteSheet[T any](w Writer, sheetName string, schema Schema, records iter.Seq[T], opts *Options) error {
	if len(schema.Fields) == 0 {
		return fmt.Errorf("%w: empty schema", ErrConfiguration)
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	} else if err := checkSheetName(sheetName); err != nil {
		return err
	}
	logger := opts.logger().With("sheet", sheetName)
	start := time.Now()
	r := opts.renderer()

	sheet, err := w.NewSheet(sheetName, schema.Columns(opts))
	if err != nil {
		return fmt.Errorf("%w: new sheet %q: %w", ErrIO, sheetName, err)
	}
	values := make([]any, len(schema.Fields))
	row := 1
	for rec := range records {
		row++
		for i, f := range schema.Fields {
			v, err := f.Get(rec)
			if err != nil {
				sheet.Close()
				return newFieldError(row, f.Name, ErrAccess, err)
			}
			if values[i], err = r.Cell(f.Kind, v); err != nil {
				sheet.Close()
				return newFieldError(row, f.Name, ErrFormat, err)
			}
		}
		if err := sheet.AppendRow(values...); err != nil {
			sheet.Close()
			return fmt.Errorf("%w: %s row %d: %w", ErrIO, sheetName, row, err)
		}
	}
	if err := sheet.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, sheetName, err)
	}
	logger.Debug("exported", "rows", row-1, "columns", len(values), "dur", time.Since(start).String())
	return nil
}
