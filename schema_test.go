// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	CreatedAt time.Time `xlsx:"Created,datetime"`
}

type order struct {
	ID       string    `xlsx:"Order"`
	Placed   time.Time `xlsx:"Placed,date"`
	Amount   float64   `xlsx:"Amount,currency"`
	Discount float64   `xlsx:"Discount,percentage"`
	Qty      int       `xlsx:"Quantity,number"`
	Paid     bool      `xlsx:"Paid,bool"`
	Internal string    `xlsx:"-"`
	audit
	note string
}

func TestStructSchema(t *testing.T) {
	s, err := SchemaOf[order]()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"Order", "Placed", "Amount", "Discount", "Quantity", "Paid", "Created"},
		s.Headers())
	kinds := make([]Kind, len(s.Fields))
	for i, f := range s.Fields {
		kinds[i] = f.Kind
		assert.NotNil(t, f.Get, f.Name)
	}
	assert.Equal(t,
		[]Kind{KindNone, KindDate, KindCurrency, KindPercentage, KindNumber, KindBoolean, KindDateTime},
		kinds)

	ps, err := SchemaOf[*order]()
	require.NoError(t, err)
	assert.Equal(t, s.Headers(), ps.Headers())

	o := order{ID: "A-1", audit: audit{CreatedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}}
	v, err := s.Fields[6].Get(&o)
	require.NoError(t, err)
	assert.Equal(t, o.CreatedAt, v)
}

func TestStructSchemaErrors(t *testing.T) {
	type untagged struct {
		A string `xlsx:"A"`
		B string
	}
	type unexported struct {
		a string `xlsx:"A"`
	}
	type emptyHeader struct {
		A string `xlsx:",number"`
	}
	type badKind struct {
		A string `xlsx:"A,money"`
	}
	type dup struct {
		A string `xlsx:"A"`
		audit
		Other audit `xlsx:"Other"`
	}
	for _, tc := range []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[untagged](), `"B" has no xlsx tag`},
		{reflect.TypeFor[unexported](), `"a" is unexported`},
		{reflect.TypeFor[emptyHeader](), `"A" has no header`},
		{reflect.TypeFor[badKind](), `unknown kind "money"`},
		{reflect.TypeFor[int](), "is not a struct"},
		{nil, "nil type"},
	} {
		_, err := StructSchema(tc.typ)
		require.Error(t, err, "%v", tc.typ)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), tc.want)
	}
	_, err := SchemaOf[dup]()
	require.NoError(t, err, "embedded struct and named struct field")
}

func TestNewSchema(t *testing.T) {
	s, err := NewSchema(
		FieldSpec{Name: "a", Header: "A"},
		FieldSpec{Name: "b", Header: "B", Kind: KindNumber,
			Get: func(any) (any, error) { return 42, nil }},
	)
	require.NoError(t, err)
	v, err := s.Fields[0].Get(map[string]string{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	v, err = s.Fields[1].Get(nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	for _, fs := range [][]FieldSpec{
		{{Header: "A"}},
		{{Name: "a"}},
		{{Name: "a", Header: "A", Kind: Kind(42)}},
		{{Name: "a", Header: "A"}, {Name: "a", Header: "B"}},
	} {
		_, err := NewSchema(fs...)
		assert.ErrorIs(t, err, ErrConfiguration, "%+v", fs)
	}
}

func TestByName(t *testing.T) {
	type other struct{ Name string }
	get := ByName("ID")

	v, err := get(order{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = get(&order{ID: "y"})
	require.NoError(t, err)
	assert.Equal(t, "y", v)

	v, err = get(map[string]any{"ID": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = get(other{})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.True(t, strings.Contains(err.Error(), `no field "ID"`), err.Error())

	_, err = get(map[string]string{})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = get((*order)(nil))
	assert.ErrorIs(t, err, ErrAccess)

	_, err = get(nil)
	assert.ErrorIs(t, err, ErrAccess)

	_, err = ByName("note")(order{})
	assert.ErrorIs(t, err, ErrAccess)

	_, err = get(42)
	assert.ErrorIs(t, err, ErrConfiguration)
}
