// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/tabexport"
)

type item struct {
	Name  string  `xlsx:"Name"`
	Price float64 `xlsx:"Price,currency"`
	Share float64 `xlsx:"Share,percentage"`
}

func readZip(t *testing.T, b []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, "mimetype", zr.File[0].Name)
	assert.Equal(t, zip.Store, zr.File[0].Method)
	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(b)
	}
	return files
}

func TestWriter(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, tabexport.Export(w, "Items & Co", []item{
		{Name: "<b>bolt</b>", Price: 1234.5, Share: 0.5},
		{Name: "nut"},
	}, nil))
	require.NoError(t, w.Close())

	files := readZip(t, buf.Bytes())
	assert.Equal(t, ContentType, files["mimetype"])
	assert.Contains(t, files, "META-INF/manifest.xml")
	content := files["content.xml"]
	require.NoError(t, xml.Unmarshal([]byte(content), new(struct{})), "well-formed content.xml")

	assert.Contains(t, content, `table:name="Items &amp; Co"`)
	assert.Contains(t, content, `<text:p>Price</text:p>`)
	assert.Contains(t, content, `&lt;b&gt;bolt&lt;/b&gt;`)
	assert.Contains(t, content, `office:value-type="float" office:value="1234.5"`)
	assert.Contains(t, content, `<text:p>50%</text:p>`)
	assert.Contains(t, content, `number:grouping="true"`)
	assert.Contains(t, content, `fo:font-weight="bold"`)
	assert.Contains(t, content, `fo:text-align="right"`)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files are removed")

	_, err = w.NewSheet("again", nil)
	assert.ErrorIs(t, err, tabexport.ErrClosed)
}

func TestAbort(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	sh, err := w.NewSheet("s", []tabexport.Column{{Name: "a"}})
	require.NoError(t, err)
	require.NoError(t, sh.AppendRow("x"))
	matches, err := filepath.Glob(filepath.Join(tmp, "tabexport-*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, w.Abort())
	assert.Zero(t, buf.Len())
	matches, err = filepath.Glob(filepath.Join(tmp, "tabexport-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.ErrorIs(t, sh.AppendRow("y"), tabexport.ErrClosed)
}

func TestNoSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Close())
	files := readZip(t, buf.Bytes())
	assert.Contains(t, files["content.xml"], `<table:table table:name="Sheet1"/>`)
}

func TestParseNumFmt(t *testing.T) {
	for format, want := range map[string]struct {
		decimals int
		grouping bool
	}{
		"#,##0":    {0, true},
		"#,##0.00": {2, true},
		"0.000":    {3, false},
		"0":        {0, false},
	} {
		d, g := parseNumFmt(format)
		assert.Equal(t, want.decimals, d, format)
		assert.Equal(t, want.grouping, g, format)
	}
}
