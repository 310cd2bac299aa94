// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package ods implements tabexport.Writer producing OpenDocument spreadsheets (.ods).
//
// Each sheet is written into its own temporary file, and these are assembled
// into the document on Close.
package ods

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/valyala/quicktemplate"

	"github.com/UNO-SOFT/tabexport"
)

var _ = (tabexport.Writer)((*ODSWriter)(nil))

// ContentType is the MIME type of .ods files.
const ContentType = "application/vnd.oasis.opendocument.spreadsheet"

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

type ODSWriter struct {
	w         io.Writer
	styles    map[tabexport.Style]string
	numFmts   map[string]string
	styleList []tabexport.Style // in order of registration
	fmtList   []string          // in order of registration
	sheets    []*ODSSheet
	mu        sync.Mutex
	closed    bool
}

type ODSSheet struct {
	f      *os.File
	bw     *bufio.Writer
	qw     *quicktemplate.Writer
	Name   string
	row    int
	closed bool
	mu     sync.Mutex
}

// NewWriter returns a new tabexport.Writer.
//
// This writer allows concurrent writes to separate sheets.
func NewWriter(w io.Writer) *ODSWriter {
	return &ODSWriter{w: w}
}

func (ow *ODSWriter) NewSheet(name string, columns []tabexport.Column) (tabexport.Sheet, error) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.closed {
		return nil, tabexport.ErrClosed
	}
	f, err := os.CreateTemp("", "tabexport-*.ods.xml")
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	sh := &ODSSheet{f: f, bw: bw, qw: quicktemplate.AcquireWriter(bw), Name: name}
	ow.sheets = append(ow.sheets, sh)

	qw := sh.qw
	qw.N().S(`<table:table table:name="`)
	qw.E().S(name)
	qw.N().S(`">`)
	headers := make([]string, len(columns))
	var hasHeader bool
	for i, c := range columns {
		qw.N().S(`<table:table-column`)
		if st := ow.styleName(c.Column); st != "" {
			qw.N().S(` table:default-cell-style-name="`)
			qw.N().S(st)
			qw.N().S(`"`)
		}
		qw.N().S(`/>`)
		headers[i] = ow.styleName(c.Header)
		hasHeader = hasHeader || c.Name != ""
	}
	if hasHeader {
		sh.row++
		qw.N().S(`<table:table-row>`)
		for i, c := range columns {
			qw.N().S(`<table:table-cell`)
			if headers[i] != "" {
				qw.N().S(` table:style-name="`)
				qw.N().S(headers[i])
				qw.N().S(`"`)
			}
			writeString(qw, c.Name)
		}
		qw.N().S(`</table:table-row>`)
	}
	return sh, nil
}

// styleName returns the name of the automatic style, registering it if new.
// Must be called with mu held.
func (ow *ODSWriter) styleName(style tabexport.Style) string {
	if style.IsZero() {
		return ""
	}
	if nm, ok := ow.styles[style]; ok {
		return nm
	}
	if ow.styles == nil {
		ow.styles = make(map[tabexport.Style]string)
	}
	nm := "ce" + strconv.Itoa(len(ow.styles)+1)
	ow.styles[style] = nm
	ow.styleList = append(ow.styleList, style)
	if style.Format != "" && ow.numFmts[style.Format] == "" {
		if ow.numFmts == nil {
			ow.numFmts = make(map[string]string)
		}
		ow.numFmts[style.Format] = "N" + strconv.Itoa(len(ow.numFmts)+1)
		ow.fmtList = append(ow.fmtList, style.Format)
	}
	return nm
}

func (sh *ODSSheet) AppendRow(values ...any) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.closed {
		return tabexport.ErrClosed
	}
	if sh.row >= MaxRowCount {
		return tabexport.ErrTooManyRows
	}
	sh.row++
	qw := sh.qw
	qw.N().S(`<table:table-row>`)
	for _, v := range values {
		qw.N().S(`<table:table-cell`)
		switch x := v.(type) {
		case nil:
			qw.N().S(`/>`)
		case string:
			writeString(qw, x)
		case tabexport.Number:
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				writeFloat(qw, f)
			} else {
				writeString(qw, string(x))
			}
		case float64:
			writeFloat(qw, x)
		case float32:
			writeFloat(qw, float64(x))
		case int:
			writeFloat(qw, float64(x))
		case int64:
			writeFloat(qw, float64(x))
		case bool:
			qw.N().S(` office:value-type="boolean" office:boolean-value="`)
			qw.N().S(strconv.FormatBool(x))
			qw.N().S(`"><text:p>`)
			qw.N().S(strconv.FormatBool(x))
			qw.N().S(`</text:p></table:table-cell>`)
		case time.Time:
			if x.IsZero() {
				qw.N().S(`/>`)
			} else {
				writeString(qw, x.Format(tabexport.DateFormat))
			}
		case fmt.Stringer:
			writeString(qw, x.String())
		default:
			writeString(qw, fmt.Sprint(v))
		}
	}
	qw.N().S(`</table:table-row>`)
	return nil
}

func writeString(qw *quicktemplate.Writer, s string) {
	qw.N().S(` office:value-type="string"><text:p>`)
	qw.E().S(s)
	qw.N().S(`</text:p></table:table-cell>`)
}

func writeFloat(qw *quicktemplate.Writer, f float64) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	qw.N().S(` office:value-type="float" office:value="`)
	qw.N().S(s)
	qw.N().S(`"><text:p>`)
	qw.N().S(s)
	qw.N().S(`</text:p></table:table-cell>`)
}

// Close finishes the sheet.
func (sh *ODSSheet) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.closed {
		return nil
	}
	sh.closed = true
	sh.qw.N().S(`</table:table>`)
	quicktemplate.ReleaseWriter(sh.qw)
	sh.qw = nil
	return sh.bw.Flush()
}

func (sh *ODSSheet) remove() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.f == nil {
		return nil
	}
	f := sh.f
	sh.f = nil
	f.Close()
	return os.Remove(f.Name())
}

// Close assembles the document and writes it into the underlying io.Writer.
// The temporary files are removed even on error.
func (ow *ODSWriter) Close() error {
	if ow == nil {
		return nil
	}
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.closed {
		return nil
	}
	ow.closed = true
	defer func() {
		for _, sh := range ow.sheets {
			_ = sh.remove()
		}
	}()
	var errs []error
	for _, sh := range ow.sheets {
		errs = append(errs, sh.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	zw := zip.NewWriter(ow.w)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err = io.WriteString(w, ContentType); err != nil {
		return err
	}
	if w, err = zw.Create("META-INF/manifest.xml"); err != nil {
		return err
	}
	if _, err = io.WriteString(w, manifest); err != nil {
		return err
	}
	if w, err = zw.Create("content.xml"); err != nil {
		return err
	}
	if err = ow.writeContent(w); err != nil {
		return fmt.Errorf("content.xml: %w", err)
	}
	return zw.Close()
}

// Abort removes the temporary files without writing anything.
func (ow *ODSWriter) Abort() error {
	if ow == nil {
		return nil
	}
	ow.mu.Lock()
	defer ow.mu.Unlock()
	ow.closed = true
	var errs []error
	for _, sh := range ow.sheets {
		sh.Close()
		errs = append(errs, sh.remove())
	}
	return errors.Join(errs...)
}

func (ow *ODSWriter) writeContent(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	qw := quicktemplate.AcquireWriter(bw)
	defer quicktemplate.ReleaseWriter(qw)
	qw.N().S(contentHead)
	qw.N().S(`<office:automatic-styles>`)
	for _, format := range ow.fmtList {
		nm := ow.numFmts[format]
		decimals, grouping := parseNumFmt(format)
		qw.N().S(`<number:number-style style:name="`)
		qw.N().S(nm)
		qw.N().S(`"><number:number number:min-integer-digits="1" number:decimal-places="`)
		qw.N().D(decimals)
		qw.N().S(`" number:grouping="`)
		qw.N().S(strconv.FormatBool(grouping))
		qw.N().S(`"/></number:number-style>`)
	}
	for _, style := range ow.styleList {
		nm := ow.styles[style]
		qw.N().S(`<style:style style:name="`)
		qw.N().S(nm)
		qw.N().S(`" style:family="table-cell"`)
		if style.Format != "" {
			qw.N().S(` style:data-style-name="`)
			qw.N().S(ow.numFmts[style.Format])
			qw.N().S(`"`)
		}
		qw.N().S(`>`)
		if a := style.Align.String(); a != "" {
			qw.N().S(`<style:table-cell-properties style:text-align-source="fix"/><style:paragraph-properties fo:text-align="`)
			qw.N().S(a)
			qw.N().S(`"/>`)
		}
		if style.FontBold {
			qw.N().S(`<style:text-properties fo:font-weight="bold"/>`)
		}
		qw.N().S(`</style:style>`)
	}
	qw.N().S(`</office:automatic-styles><office:body><office:spreadsheet>`)
	if len(ow.sheets) == 0 {
		qw.N().S(`<table:table table:name="Sheet1"/>`)
	}
	for _, sh := range ow.sheets {
		if _, err := sh.f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.Copy(bw, sh.f); err != nil {
			return fmt.Errorf("%s: %w", sh.Name, err)
		}
	}
	qw.N().S(`</office:spreadsheet></office:body></office:document-content>`)
	return bw.Flush()
}

// parseNumFmt returns the number of decimals and whether thousands are grouped
// of a number format such as "#,##0.00".
func parseNumFmt(format string) (decimals int, grouping bool) {
	intPart, frac, _ := strings.Cut(format, ".")
	return strings.Count(frac, "0"), strings.Contains(intPart, ",")
}

const manifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="` + ContentType + `"/>
 <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`

const contentHead = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content` +
	` xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"` +
	` xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"` +
	` xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"` +
	` xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"` +
	` xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"` +
	` xmlns:number="urn:oasis:names:tc:opendocument:xmlns:datastyle:1.0"` +
	` office:version="1.2">`
