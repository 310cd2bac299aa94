// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema(t *testing.T) {
	s, sheet, err := LoadSchema(strings.NewReader(`
sheet: Orders
columns:
  - name: id
    header: Order
  - name: amount
    header: Amount
    kind: currency
  - name: placed
    kind: date
`))
	require.NoError(t, err)
	assert.Equal(t, "Orders", sheet)
	assert.Equal(t, []string{"Order", "Amount", "placed"}, s.Headers())
	assert.Equal(t, KindCurrency, s.Fields[1].Kind)
	assert.Equal(t, KindDate, s.Fields[2].Kind)

	v, err := s.Fields[1].Get(map[string]string{"amount": "12"})
	require.NoError(t, err)
	assert.Equal(t, "12", v)
}

func TestLoadSchemaErrors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":         ``,
		"unknown kind":  "columns:\n  - name: a\n    kind: money\n",
		"unknown field": "columns:\n  - name: a\n    width: 3\n",
		"no name":       "columns:\n  - header: A\n",
		"duplicate":     "columns:\n  - name: a\n  - name: a\n",
	} {
		_, _, err := LoadSchema(strings.NewReader(src))
		assert.ErrorIs(t, err, ErrConfiguration, name)
	}
}
