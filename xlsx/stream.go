// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/UNO-SOFT/tabexport"
	"github.com/xuri/excelize/v2"
)

var _ = (tabexport.Writer)((*StreamWriter)(nil))

// StreamWriter writes the rows through excelize's stream writer,
// which keeps big sheets in temporary files instead of memory.
//
// Rows of one sheet must be appended sequentially, but separate
// sheets may be written concurrently.
type StreamWriter struct {
	w      io.Writer
	xl     *excelize.File
	styles styleCache
	sheets []string
	open   []*StreamSheet
	mu     sync.Mutex
}

type StreamSheet struct {
	sw     *excelize.StreamWriter
	Name   string
	styles []int
	cells  []any
	row    int
	closed bool
	mu     sync.Mutex
}

// NewStreamWriter returns a new, temporary file backed tabexport.Writer.
// The temporary files are removed by Close and Abort.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w, xl: excelize.NewFile()}
}

func (xlw *StreamWriter) NewSheet(name string, columns []tabexport.Column) (tabexport.Sheet, error) {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if xlw.xl == nil {
		return nil, tabexport.ErrClosed
	}
	if err := addSheet(xlw.xl, &xlw.sheets, name); err != nil {
		return nil, err
	}
	sw, err := xlw.xl.NewStreamWriter(name)
	if err != nil {
		return nil, err
	}
	sh := &StreamSheet{sw: sw, Name: name,
		styles: make([]int, len(columns)), cells: make([]any, len(columns)),
	}
	header := make([]any, len(columns))
	var hasHeader bool
	for i, c := range columns {
		if sh.styles[i], err = xlw.styles.get(xlw.xl, c.Column); err != nil {
			return nil, err
		}
		hs, err := xlw.styles.get(xlw.xl, c.Header)
		if err != nil {
			return nil, err
		}
		if c.Name != "" {
			hasHeader = true
		}
		header[i] = excelize.Cell{StyleID: hs, Value: c.Name}
	}
	if hasHeader {
		sh.row++
		if err := sw.SetRow("A1", header); err != nil {
			return nil, err
		}
	}
	xlw.open = append(xlw.open, sh)
	return sh, nil
}

func (sh *StreamSheet) AppendRow(values ...any) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.closed {
		return tabexport.ErrClosed
	}
	if sh.row >= MaxRowCount {
		return tabexport.ErrTooManyRows
	}
	sh.row++
	cells := sh.cells[:0]
	for i, v := range values {
		v = cellValue(v)
		if v == nil {
			cells = append(cells, nil)
			continue
		}
		var style int
		if i < len(sh.styles) {
			style = sh.styles[i]
		}
		cells = append(cells, excelize.Cell{StyleID: style, Value: v})
	}
	sh.cells = cells
	axis, err := excelize.CoordinatesToCellName(1, sh.row)
	if err != nil {
		return err
	}
	if err := sh.sw.SetRow(axis, cells); err != nil {
		return fmt.Errorf("%s[%s]: %w", sh.Name, axis, err)
	}
	return nil
}

// Close flushes the sheet. No rows can be appended after it.
func (sh *StreamSheet) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.closed {
		return nil
	}
	sh.closed = true
	return sh.sw.Flush()
}

// Close flushes the unclosed sheets, writes the workbook and removes the temporary files.
func (xlw *StreamWriter) Close() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl, w := xlw.xl, xlw.w
	xlw.xl, xlw.w = nil, nil
	if xl == nil {
		return nil
	}
	var errs []error
	for _, sh := range xlw.open {
		errs = append(errs, sh.Close())
	}
	xlw.open = nil
	if err := errors.Join(errs...); err == nil {
		_, err = xl.WriteTo(w)
		errs = append(errs, err)
	}
	errs = append(errs, xl.Close())
	return errors.Join(errs...)
}

// Abort removes the temporary files without writing anything.
func (xlw *StreamWriter) Abort() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl := xlw.xl
	xlw.xl, xlw.w, xlw.open = nil, nil, nil
	if xl == nil {
		return nil
	}
	return xl.Close()
}
