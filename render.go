// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"

	// GroupedFormat is the number format of GroupedCurrency cells.
	GroupedFormat = "#,##0"
)

var (
	HeaderStyle = Style{FontBold: true, Align: AlignCenter}

	rightStyle  = Style{Align: AlignRight}
	centerStyle = Style{Align: AlignCenter}
)

// CurrencyFormat renders KindCurrency values.
type CurrencyFormat interface {
	// Style is the style of the currency columns.
	Style() Style
	// Cell returns the cell value of the amount.
	Cell(amount float64) (any, error)
}

// GroupedCurrency stores the amount as a number, displayed with
// thousands separators and no decimals.
type GroupedCurrency struct{}

func (GroupedCurrency) Style() Style { return Style{Format: GroupedFormat, Align: AlignRight} }

func (GroupedCurrency) Cell(amount float64) (any, error) { return amount, nil }

// LocaleCurrency renders the amount as text: the symbol of Unit followed by
// the amount grouped and rounded the way Lang writes Unit.
type LocaleCurrency struct {
	Lang language.Tag
	Unit currency.Unit
}

func (LocaleCurrency) Style() Style { return rightStyle }

func (lc LocaleCurrency) Cell(amount float64) (any, error) {
	p := message.NewPrinter(lc.Lang)
	scale, _ := currency.Standard.Rounding(lc.Unit)
	pow := math.Pow10(scale)
	amount = math.Round(amount*pow) / pow
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + p.Sprint(currency.Symbol(lc.Unit)) +
		p.Sprint(number.Decimal(math.Abs(amount), number.Scale(scale))), nil
}

// Renderer maps values to cells according to their Kind.
type Renderer struct {
	// Currency defaults to GroupedCurrency.
	Currency CurrencyFormat
}

func (r Renderer) currency() CurrencyFormat {
	if r.Currency == nil {
		return GroupedCurrency{}
	}
	return r.Currency
}

// Style returns the column style of the kind.
func (r Renderer) Style(kind Kind) Style {
	switch kind {
	case KindCurrency:
		return r.currency().Style()
	case KindNumber:
		return rightStyle
	case KindDate, KindDateTime, KindPercentage:
		return Style{}
	default:
		return centerStyle
	}
}

// Cell returns the cell value for v: a string, a float64, or nil for an empty cell.
//
// The representation depends only on kind, not on the type of v.
func (r Renderer) Cell(kind Kind, v any) (any, error) {
	v, err := normalize(v)
	if err != nil || v == nil {
		return nil, err
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" && kind != KindNone && kind != KindBoolean {
		return nil, nil
	}
	switch kind {
	case KindCurrency:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return r.currency().Cell(f)

	case KindNumber:
		return toFloat(v)

	case KindPercentage:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(math.Floor(f*100*100)/100, 'f', -1, 64) + "%", nil

	case KindDate, KindDateTime:
		t, err := toTime(v)
		if err != nil || t.IsZero() {
			return nil, err
		}
		if kind == KindDate {
			return t.Format(DateFormat), nil
		}
		return t.Format(DateTimeFormat), nil
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return fmt.Sprint(v), nil
}

// normalize resolves nil pointers to nil, driver.Valuers to their values
// and dereferences pointers.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		vv, err := vr.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %T: %w", ErrAccess, v, err)
		}
		return vv, nil
	}
	if rv.Kind() == reflect.Pointer {
		return normalize(rv.Elem().Interface())
	}
	return v, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	case Number:
		return parseFloat(string(x))
	case json.Number:
		return parseFloat(string(x))
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.String:
			return parseFloat(rv.String())
		default:
			return 0, fmt.Errorf("%w: %T is not a number", ErrFormat, v)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrFormat, f)
	}
	return f, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrFormat, s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrFormat, s)
	}
	return f, nil
}

var timeLayouts = []string{DateFormat, DateTimeFormat, time.RFC3339Nano, "2006-01-02T15:04:05"}

func toTime(v any) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return time.Time{}, fmt.Errorf("%w: %T is not a time", ErrFormat, v)
	}
	if s = strings.TrimSpace(s); s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrFormat, s)
}
