// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command csv2sheet converts a csv file into an .xlsx, .ods or .pdf
// table, formatting the columns as a YAML schema describes them.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/UNO-SOFT/tabexport"
	"github.com/UNO-SOFT/tabexport/ods"
	"github.com/UNO-SOFT/tabexport/pdf"
	"github.com/UNO-SOFT/tabexport/xlsx"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return run(ctx, os.Args[1:])
}

func run(ctx context.Context, args []string) error {
	alternateColor := Color{Red: 230, Green: 230, Blue: 230}

	fs := flag.NewFlagSet("csv2sheet", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", tabexport.EncName, "csv charset name")
	flagSchema := fs.String("schema", "", "YAML schema file (default: every column as text)")
	flagSheet := fs.String("sheet", "", "sheet name (default: from schema, or the input file name)")
	flagOut := fs.String("o", "", "output file name, .xlsx, .ods or .pdf (default input file + .xlsx)")
	flagStream := fs.Bool("stream", false, "stream the .xlsx rows through temporary files")
	flagCurrency := fs.String("currency", "grouped", "currency rendering: grouped or locale")
	flagLang := fs.String("lang", "en", "language of the locale currency")
	flagUnit := fs.String("unit", "USD", "ISO code of the locale currency")
	flagPlainHeader := fs.Bool("plain-header", false, "do not make the header bold and centered")
	flagColor := fs.String("alternate-color", alternateColor.String(), "alternate row color of the pdf")
	flagLandscape := fs.Bool("L", false, "landscape pdf (default: portrait)")
	flagFontSize := fs.Float64("f", 8, "pdf font size")
	_ = fs.String("config", "", "config file (flag value pairs)")

	app := ffcli.Command{Name: "csv2sheet", FlagSet: fs,
		ShortUsage: "csv2sheet [flags] <input.csv>",
		Options: []ff.Option{
			ff.WithEnvVarPrefix("CSV2SHEET"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
		},
		Exec: func(ctx context.Context, args []string) error {
			inp := "-"
			if len(args) != 0 {
				inp = args[0]
			}
			opts := tabexport.Options{Logger: logger, PlainHeader: *flagPlainHeader}
			switch strings.ToLower(*flagCurrency) {
			case "", "grouped":
			case "locale":
				tag, err := language.Parse(*flagLang)
				if err != nil {
					return fmt.Errorf("lang %q: %w", *flagLang, err)
				}
				unit, err := currency.ParseISO(*flagUnit)
				if err != nil {
					return fmt.Errorf("unit %q: %w", *flagUnit, err)
				}
				opts.Currency = tabexport.LocaleCurrency{Lang: tag, Unit: unit}
			default:
				return fmt.Errorf("unknown currency rendering %q", *flagCurrency)
			}

			cr, err := tabexport.OpenCsv(inp, *flagEnc)
			if err != nil {
				return err
			}
			defer cr.Close()
			header, records, iterErr, err := tabexport.CSVRecords(cr.Reader)
			if err != nil {
				return err
			}

			sheetName := *flagSheet
			var schema tabexport.Schema
			if *flagSchema == "" {
				fields := make([]tabexport.FieldSpec, len(header))
				for i, h := range header {
					fields[i] = tabexport.FieldSpec{Name: h, Header: h}
				}
				schema, err = tabexport.NewSchema(fields...)
			} else {
				var nm string
				schema, nm, err = loadSchema(*flagSchema)
				if sheetName == "" {
					sheetName = nm
				}
			}
			if err != nil {
				return err
			}
			if sheetName == "" && inp != "-" {
				sheetName = tabexport.SheetName(strings.TrimSuffix(filepath.Base(inp), filepath.Ext(inp)))
			}

			out := *flagOut
			if out == "" && inp != "-" {
				out = inp + ".xlsx"
			}
			newWriter := func(w io.Writer) (tabexport.Writer, error) {
				switch strings.ToLower(filepath.Ext(out)) {
				case ".ods":
					return ods.NewWriter(w), nil
				case ".pdf":
					po := pdf.Options{FontSize: *flagFontSize, Landscape: *flagLandscape}
					if *flagColor != "" {
						if err := alternateColor.Parse(*flagColor); err != nil {
							return nil, fmt.Errorf("alternate-color %q: %w", *flagColor, err)
						}
						ac := pdf.DefaultAlternateColor
						ac.Red, ac.Green, ac.Blue = alternateColor.Red, alternateColor.Green, alternateColor.Blue
						po.AlternateColor = &ac
					}
					return pdf.NewWriter(w, po), nil
				}
				if *flagStream {
					return xlsx.NewStreamWriter(w), nil
				}
				return xlsx.NewWriter(w), nil
			}
			logger.Debug("convert", "input", inp, "output", out, "sheet", sheetName, "columns", schema.Headers())

			return writeFile(out, newWriter, func(w tabexport.Writer) error {
				if err := tabexport.WriteSheet(w, sheetName, schema, records, &opts); err != nil {
					return err
				}
				return iterErr()
			})
		},
	}

	return app.ParseAndRun(ctx, args)
}

func loadSchema(fn string) (tabexport.Schema, string, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return tabexport.Schema{}, "", err
	}
	defer fh.Close()
	schema, sheetName, err := tabexport.LoadSchema(fh)
	if err != nil {
		err = fmt.Errorf("%s: %w", fn, err)
	}
	return schema, sheetName, err
}

type aborter interface {
	Abort() error
}

// writeFile writes the spreadsheet into a temporary file beside fn,
// and renames it to fn only when everything succeeded.
// Empty fn or "-" means stdout.
func writeFile(fn string, newWriter func(io.Writer) (tabexport.Writer, error), fill func(tabexport.Writer) error) error {
	if fn == "" || fn == "-" {
		w, err := newWriter(os.Stdout)
		if err != nil {
			return err
		}
		if err := fill(w); err != nil {
			if a, ok := w.(aborter); ok {
				a.Abort()
			}
			return err
		}
		return w.Close()
	}
	fh, err := os.CreateTemp(filepath.Dir(fn), "."+filepath.Base(fn)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(fh.Name())
	defer fh.Close()
	w, err := newWriter(fh)
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		if a, ok := w.(aborter); ok {
			a.Abort()
		}
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %w", tabexport.ErrIO, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("%w: %w", tabexport.ErrIO, err)
	}
	if err := os.Rename(fh.Name(), fn); err != nil {
		return fmt.Errorf("%w: %w", tabexport.ErrIO, err)
	}
	logger.Info("written", "file", fn)
	return nil
}

type Color struct {
	Red, Green, Blue int
}

func (c *Color) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Red, c.Green, c.Blue)
}
func (c *Color) Parse(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 3 {
		return errors.New("color must be 3 bytes (rrggbb)")
	}
	c.Red, c.Green, c.Blue = int(b[0]), int(b[1]), int(b[2])
	return nil
}
