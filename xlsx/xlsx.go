// Copyright 2020, 2023, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx implements tabexport.Writer producing Office Open XML (.xlsx) workbooks.
package xlsx

import (
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/UNO-SOFT/tabexport"
	"github.com/xuri/excelize/v2"
)

var _ = (tabexport.Writer)((*XLSXWriter)(nil))

// ContentType is the MIME type of .xlsx files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

type XLSXWriter struct {
	w      io.Writer
	xl     *excelize.File
	styles styleCache
	sheets []string
	mu     sync.Mutex
}

type XLSXSheet struct {
	xl   *excelize.File
	Name string
	row  int64
	mu   sync.Mutex
}

// NewWriter returns a new tabexport.Writer.
//
// This writer allows concurrent writes to separate sheets.
//
// This writer collects everything in memory, so big sheets may impose problems:
// use NewStreamWriter for those.
func NewWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w, xl: excelize.NewFile()}
}

// Close writes the workbook to the underlying io.Writer and releases it.
func (xlw *XLSXWriter) Close() error {
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
	_, err := xl.WriteTo(w)
	if closeErr := xl.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Abort releases the workbook without writing anything.
func (xlw *XLSXWriter) Abort() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl := xlw.xl
	xlw.xl, xlw.w = nil, nil
	if xl == nil {
		return nil
	}
	return xl.Close()
}

func (xlw *XLSXWriter) NewSheet(name string, columns []tabexport.Column) (tabexport.Sheet, error) {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if xlw.xl == nil {
		return nil, tabexport.ErrClosed
	}
	if err := addSheet(xlw.xl, &xlw.sheets, name); err != nil {
		return nil, err
	}
	var hasHeader bool
	for i, c := range columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		s, err := xlw.styles.get(xlw.xl, c.Column)
		if err != nil {
			return nil, err
		}
		if s != 0 {
			if err = xlw.xl.SetColStyle(name, col, s); err != nil {
				return nil, err
			}
		}
		if s, err = xlw.styles.get(xlw.xl, c.Header); err != nil {
			return nil, err
		} else if s != 0 {
			if err = xlw.xl.SetCellStyle(name, col+"1", col+"1", s); err != nil {
				return nil, err
			}
		}
		if c.Name != "" {
			hasHeader = true
			if err = xlw.xl.SetCellStr(name, col+"1", c.Name); err != nil {
				return nil, err
			}
		}
	}
	xls := &XLSXSheet{xl: xlw.xl, Name: name}
	if hasHeader {
		xls.row++
	}
	return xls, nil
}

func addSheet(xl *excelize.File, sheets *[]string, name string) error {
	*sheets = append(*sheets, name)
	if len(*sheets) == 1 { // first
		return xl.SetSheetName("Sheet1", name)
	}
	_, err := xl.NewSheet(name)
	return err
}

// styleCache holds one excelize style per distinct tabexport.Style.
type styleCache map[tabexport.Style]int

func (sc *styleCache) get(xl *excelize.File, style tabexport.Style) (int, error) {
	if style.IsZero() {
		return 0, nil
	}
	if s, ok := (*sc)[style]; ok {
		return s, nil
	}
	var st excelize.Style
	if style.FontBold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.Format != "" {
		format := style.Format
		st.CustomNumFmt = &format
	}
	if h := style.Align.String(); h != "" {
		st.Alignment = &excelize.Alignment{Horizontal: h}
	}
	s, err := xl.NewStyle(&st)
	if err != nil {
		return 0, fmt.Errorf("new style %+v: %w", style, err)
	}
	if *sc == nil {
		*sc = make(styleCache)
	}
	(*sc)[style] = s
	return s, nil
}

func (xls *XLSXSheet) Close() error { return nil }
func (xls *XLSXSheet) AppendRow(values ...any) error {
	xls.mu.Lock()
	defer xls.mu.Unlock()
	if xls.row >= MaxRowCount {
		return tabexport.ErrTooManyRows
	}
	xls.row++
	for i, v := range values {
		axis, err := excelize.CoordinatesToCellName(i+1, int(xls.row))
		if err != nil {
			return fmt.Errorf("%d/%d: %w", i, int(xls.row), err)
		}
		switch x := cellValue(v).(type) {
		case nil:
			continue
		case string:
			err = xls.xl.SetCellStr(xls.Name, axis, x)
		case float64:
			err = xls.xl.SetCellFloat(xls.Name, axis, x, -1, 64)
		default:
			err = xls.xl.SetCellValue(xls.Name, axis, x)
		}
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", xls.Name, axis, err)
		}
	}
	return nil
}

// cellValue converts v to nil (empty cell), string, float64 or
// a value excelize knows.
func cellValue(v any) any {
	if vr, ok := v.(driver.Valuer); ok {
		if vv, err := vr.Value(); err == nil {
			v = vv
		}
	}
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.Format(tabexport.DateFormat)
	case tabexport.Number:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return f
		}
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	return v
}
