// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the charset of the environment (from LANG), utf-8 by default.
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	} else {
		EncName = ""
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the named encoding, nil for utf-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type csvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens the named file ("" or "-" is stdin) for csv reading,
// decoding it from encName and guessing the field separator from the first line.
func OpenCsv(fn, encName string) (csvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return csvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return csvReadCloser{}, err
		}
	}
	return NewCsvReader(fh, enc)
}

// NewCsvReader returns a csv reader of r, decoded with enc (nil is utf-8),
// guessing the separator.
func NewCsvReader(r io.ReadCloser, enc encoding.Encoding) (csvReadCloser, error) {
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		r.Close()
		return csvReadCloser{}, err
	}
	sep := rune(',')
	for _, r := range string(b) {
		if r == '"' || r == '_' || r == ' ' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		sep = r
		break
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.Comma = sep
	return csvReadCloser{cr, r}, nil
}

// CSVRecords reads the header row, and returns the header and the rest of the
// rows as records keyed by the header.
//
// Missing trailing fields are empty strings in the record, extra fields are dropped.
// The error of the iteration is returned by the returned function.
func CSVRecords(cr *csv.Reader) ([]string, iter.Seq[map[string]string], func() error, error) {
	row, err := cr.Read()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read header: %w", err)
	}
	header := append([]string(nil), row...)
	var iterErr error
	seq := func(yield func(map[string]string) bool) {
		for {
			row, err := cr.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					iterErr = err
				}
				return
			}
			rec := make(map[string]string, len(header))
			for i, h := range header {
				if i < len(row) {
					rec[h] = row[i]
				} else {
					rec[h] = ""
				}
			}
			if !yield(rec) {
				return
			}
		}
	}
	return header, seq, func() error { return iterErr }, nil
}
