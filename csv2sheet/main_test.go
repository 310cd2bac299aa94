// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/UNO-SOFT/tabexport"
	"github.com/UNO-SOFT/tabexport/xlsx"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "out.xlsx")
	newWriter := func(w io.Writer) (tabexport.Writer, error) { return xlsx.NewWriter(w), nil }

	err := writeFile(fn, newWriter, func(w tabexport.Writer) error {
		sh, err := w.NewSheet("s", []tabexport.Column{{Name: "a"}})
		if err != nil {
			return err
		}
		if err := sh.AppendRow("x"); err != nil {
			return err
		}
		return errors.New("broken input")
	})
	assert.ErrorContains(t, err, "broken input")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial output")

	require.NoError(t, writeFile(fn, newWriter, func(w tabexport.Writer) error {
		sh, err := w.NewSheet("s", []tabexport.Column{{Name: "a"}})
		if err != nil {
			return err
		}
		return sh.AppendRow("x")
	}))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.xlsx", entries[0].Name())
}

func TestColor(t *testing.T) {
	var c Color
	require.NoError(t, c.Parse("e6e6f0"))
	assert.Equal(t, Color{Red: 230, Green: 230, Blue: 240}, c)
	assert.Equal(t, "e6e6f0", c.String())
	assert.Error(t, c.Parse("e6e6"))
	assert.Error(t, c.Parse("zz"))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	inp := filepath.Join(dir, "quarterly_sales_report_2024 [final].csv")
	require.NoError(t, os.WriteFile(inp,
		[]byte("id,amount,day\nA-1,1234.5,2024-03-05\nA-2,7\n"), 0o644))
	schemaFn := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaFn, []byte(`columns:
  - name: id
    header: Order
  - name: amount
    header: Amount
    kind: currency
  - name: day
    header: Day
    kind: date
`), 0o644))
	const derivedSheet = "quarterly_sales_report_2024 _fi"
	ctx := context.Background()

	t.Run("xlsx", func(t *testing.T) {
		require.NoError(t, run(ctx, []string{"-schema", schemaFn, inp}))
		f, err := excelize.OpenFile(inp + ".xlsx")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{derivedSheet}, f.GetSheetList())
		rows, err := f.GetRows(derivedSheet, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Order", "Amount", "Day"},
			{"A-1", "1234.5", "2024-03-05"},
			{"A-2", "7"},
		}, rows)
	})

	t.Run("no schema", func(t *testing.T) {
		out := filepath.Join(dir, "plain.xlsx")
		require.NoError(t, run(ctx, []string{"-sheet", "Sales", "-stream", "-o", out, inp}))
		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Sales")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"id", "amount", "day"}, rows[0])
	})

	t.Run("ods locale", func(t *testing.T) {
		out := filepath.Join(dir, "out.ods")
		require.NoError(t, run(ctx, []string{"-schema", schemaFn,
			"-currency", "locale", "-lang", "en", "-unit", "EUR", "-o", out, inp}))
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
		require.NoError(t, err)
		var content string
		for _, zf := range zr.File {
			if zf.Name != "content.xml" {
				continue
			}
			rc, err := zf.Open()
			require.NoError(t, err)
			cb, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			content = string(cb)
		}
		assert.Contains(t, content, `table:name="`+derivedSheet+`"`)
		assert.Contains(t, content, "1,234.50")
		assert.Contains(t, content, "€")
	})

	t.Run("pdf", func(t *testing.T) {
		out := filepath.Join(dir, "out.pdf")
		require.NoError(t, run(ctx, []string{"-schema", schemaFn, "-L", "-o", out, inp}))
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
	})

	t.Run("errors", func(t *testing.T) {
		out := filepath.Join(dir, "bad.xlsx")
		err := run(ctx, []string{"-currency", "bogus", "-o", out, inp})
		assert.ErrorContains(t, err, "bogus")

		err = run(ctx, []string{"-currency", "locale", "-unit", "XX", "-o", out, inp})
		assert.Error(t, err)

		err = run(ctx, []string{"-sheet", "a/b", "-o", out, inp})
		assert.ErrorIs(t, err, tabexport.ErrConfiguration)

		_, err = os.Stat(out)
		assert.True(t, errors.Is(err, os.ErrNotExist), "no partial output")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".bad.xlsx"), e.Name())
		}
	})
}
