// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package pdf implements tabexport.Writer producing a printable PDF table.
//
// Only one sheet is supported.
package pdf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/UNO-SOFT/tabexport"
)

var _ = (tabexport.Writer)((*PDFWriter)(nil))

// ContentType is the MIME type of PDF files.
const ContentType = "application/pdf"

// ErrOneSheet is returned when a second sheet is requested.
var ErrOneSheet = errors.New("pdf supports only one sheet")

var errNoSheet = errors.New("no sheet to render")

// Options of the PDF rendering.
type Options struct {
	// AlternateColor is the background of every second row, nil for none.
	AlternateColor *props.Color
	// FontSize of the content; the header is 1.375 times bigger.
	FontSize  float64
	Landscape bool
}

// DefaultAlternateColor is a light grey.
var DefaultAlternateColor = props.Color{Red: 230, Green: 230, Blue: 230}

type PDFWriter struct {
	w     io.Writer
	m     core.Maroto
	opts  Options
	sheet *PDFSheet
	mu    sync.Mutex
}

type PDFSheet struct {
	m     core.Maroto
	opts  Options
	props []props.Text
	row   int
	mu    sync.Mutex
}

// NewWriter returns a new tabexport.Writer rendering into w on Close.
func NewWriter(w io.Writer, opts Options) *PDFWriter {
	if opts.FontSize <= 0 {
		opts.FontSize = 8
	}
	return &PDFWriter{w: w, opts: opts}
}

func (pw *PDFWriter) NewSheet(name string, columns []tabexport.Column) (tabexport.Sheet, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.w == nil {
		return nil, tabexport.ErrClosed
	}
	if pw.sheet != nil {
		return nil, fmt.Errorf("%q: %w", name, ErrOneSheet)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%q: no columns", name)
	}
	o := orientation.Vertical
	if pw.opts.Landscape {
		o = orientation.Horizontal
	}
	cfg := config.NewBuilder().
		WithOrientation(o).
		WithMaxGridSize(len(columns)).
		WithDefaultFont(&props.Font{Size: pw.opts.FontSize}).
		Build()
	pw.m = maroto.New(cfg)

	sh := &PDFSheet{m: pw.m, opts: pw.opts, props: make([]props.Text, len(columns))}
	header := make([]core.Col, len(columns))
	var hasHeader bool
	for i, c := range columns {
		sh.props[i] = textProps(c.Column, pw.opts.FontSize)
		header[i] = text.NewCol(1, c.Name, textProps(c.Header, pw.opts.FontSize*1.375))
		hasHeader = hasHeader || c.Name != ""
	}
	if hasHeader {
		if err := pw.m.RegisterHeader(row.New(pw.opts.FontSize * 1.2).Add(header...)); err != nil {
			return nil, err
		}
	}
	pw.sheet = sh
	return sh, nil
}

func textProps(style tabexport.Style, size float64) props.Text {
	p := props.Text{Size: size, Style: fontstyle.Normal, Align: align.Left}
	if style.FontBold {
		p.Style = fontstyle.Bold
	}
	switch style.Align {
	case tabexport.AlignCenter:
		p.Align = align.Center
	case tabexport.AlignRight:
		p.Align = align.Right
	}
	return p
}

func (sh *PDFSheet) AppendRow(values ...any) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.m == nil {
		return tabexport.ErrClosed
	}
	sh.row++
	cells := make([]core.Col, 0, len(values))
	for i, v := range values {
		p := props.Text{Size: sh.opts.FontSize}
		if i < len(sh.props) {
			p = sh.props[i]
		}
		cells = append(cells, text.NewCol(1, cellText(v), p))
	}
	r := row.New(sh.opts.FontSize * 0.6).Add(cells...)
	if sh.opts.AlternateColor != nil && sh.row%2 == 0 {
		r = r.WithStyle(&props.Cell{BackgroundColor: sh.opts.AlternateColor})
	}
	sh.m.AddRows(r)
	return nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case tabexport.Number:
		return string(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(tabexport.DateFormat)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func (sh *PDFSheet) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m = nil
	return nil
}

// Close renders the document into the underlying io.Writer.
func (pw *PDFWriter) Close() error {
	if pw == nil {
		return nil
	}
	pw.mu.Lock()
	defer pw.mu.Unlock()
	m, w := pw.m, pw.w
	pw.m, pw.w = nil, nil
	if w == nil {
		return nil
	}
	if m == nil {
		return errNoSheet
	}
	doc, err := m.Generate()
	if err != nil {
		return err
	}
	_, err = w.Write(doc.GetBytes())
	return err
}
