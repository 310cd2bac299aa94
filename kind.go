// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"fmt"
	"strings"
)

// Kind selects how a field's value is rendered into a cell,
// independently of the value's Go type.
type Kind uint8

const (
	KindNone Kind = iota
	KindDate
	KindDateTime
	KindPercentage
	KindBoolean
	KindCurrency
	KindNumber
)

var kindNames = [...]string{
	KindNone:       "none",
	KindDate:       "date",
	KindDateTime:   "datetime",
	KindPercentage: "percentage",
	KindBoolean:    "bool",
	KindCurrency:   "currency",
	KindNumber:     "number",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known Kind.
func (k Kind) Valid() bool { return int(k) < len(kindNames) }

// ParseKind parses the name of a Kind. The empty string is KindNone.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return KindNone, nil
	case "boolean":
		return KindBoolean, nil
	}
	for i, nm := range kindNames {
		if nm == s {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("%w: unknown kind %q", ErrConfiguration, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrConfiguration, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	var err error
	*k, err = ParseKind(string(b))
	return err
}
