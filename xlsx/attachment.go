// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/UNO-SOFT/tabexport"
)

// WriteAttachment fills a new workbook with fill, and sends it as an
// attachment named fileName+".xlsx".
//
// The workbook is rendered into memory first: if fill or the rendering fails,
// nothing is written to w and the error is returned.
func WriteAttachment(w http.ResponseWriter, fileName string, fill func(tabexport.Writer) error) error {
	var buf bytes.Buffer
	xlw := NewWriter(&buf)
	if err := fill(xlw); err != nil {
		xlw.Abort()
		return err
	}
	if err := xlw.Close(); err != nil {
		return err
	}
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+url.QueryEscape(fileName+".xlsx")+`"`)
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	_, err := buf.WriteTo(w)
	return err
}
