// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package tabexport

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag read by StructSchema.
//
// The tag value is the header, optionally followed by a comma and the
// name of the Kind: `xlsx:"Amount,currency"`. "-" excludes the field.
const TagName = "xlsx"

// FieldSpec describes one exported column.
type FieldSpec struct {
	// Get returns the value of the field from the record.
	// NewSchema sets it to ByName(Name) if nil.
	Get func(record any) (any, error)
	// Name identifies the field in the record.
	Name string
	// Header is the text of the header cell.
	Header string
	Kind   Kind
}

// Schema is the ordered list of the exported fields.
// The order of Fields is the order of the columns.
type Schema struct {
	Fields []FieldSpec
}

// NewSchema returns a Schema of the given fields, after checking them.
func NewSchema(fields ...FieldSpec) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	fs := make([]FieldSpec, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return Schema{}, fmt.Errorf("%w: field #%d has no name", ErrConfiguration, i)
		}
		if f.Header == "" {
			return Schema{}, fmt.Errorf("%w: field %q has no header", ErrConfiguration, f.Name)
		}
		if !f.Kind.Valid() {
			return Schema{}, fmt.Errorf("%w: field %q has unknown kind %s", ErrConfiguration, f.Name, f.Kind)
		}
		if _, ok := seen[f.Name]; ok {
			return Schema{}, fmt.Errorf("%w: duplicate field %q", ErrConfiguration, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Get == nil {
			f.Get = ByName(f.Name)
		}
		fs[i] = f
	}
	return Schema{Fields: fs}, nil
}

// Headers returns the header names in column order.
func (s Schema) Headers() []string {
	hdr := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		hdr[i] = f.Header
	}
	return hdr
}

var structSchemas sync.Map // reflect.Type -> Schema

// SchemaOf returns the Schema of T, which must be a struct or a pointer to a struct.
func SchemaOf[T any]() (Schema, error) {
	return StructSchema(reflect.TypeFor[T]())
}

// StructSchema returns the Schema described by the TagName tags of the struct type.
//
// Every exported field must carry the tag; embedded structs without a tag are
// flattened. The result is computed once per type.
func StructSchema(t reflect.Type) (Schema, error) {
	if t == nil {
		return Schema{}, fmt.Errorf("%w: nil type", ErrConfiguration)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := structSchemas.Load(t); ok {
		return s.(Schema), nil
	}
	if t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("%w: %s is not a struct", ErrConfiguration, t)
	}
	var fields []FieldSpec
	if err := appendStructFields(&fields, t); err != nil {
		return Schema{}, fmt.Errorf("%s: %w", t, err)
	}
	s, err := NewSchema(fields...)
	if err != nil {
		return s, fmt.Errorf("%s: %w", t, err)
	}
	act, _ := structSchemas.LoadOrStore(t, s)
	return act.(Schema), nil
}

func appendStructFields(fields *[]FieldSpec, t reflect.Type) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}
		if !tagged {
			if sf.Anonymous {
				et := sf.Type
				if et.Kind() == reflect.Pointer {
					et = et.Elem()
				}
				if et.Kind() == reflect.Struct {
					if err := appendStructFields(fields, et); err != nil {
						return err
					}
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			return fmt.Errorf("%w: field %q has no %s tag", ErrConfiguration, sf.Name, TagName)
		}
		if !sf.IsExported() {
			return fmt.Errorf("%w: tagged field %q is unexported, use NewSchema with an accessor", ErrConfiguration, sf.Name)
		}
		header, kindName, _ := strings.Cut(tag, ",")
		kind, err := ParseKind(kindName)
		if err != nil {
			return fmt.Errorf("field %q: %w", sf.Name, err)
		}
		*fields = append(*fields, FieldSpec{Name: sf.Name, Header: header, Kind: kind})
	}
	return nil
}

// ByName returns an accessor which reads the named field of a struct
// (through pointers), or the value stored under name in a map with string keys.
//
// The field is looked up on the record's own type, so records of different
// types can share a Schema as long as they all have the field.
func ByName(name string) func(any) (any, error) {
	return func(record any) (any, error) {
		rv := reflect.ValueOf(record)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, fmt.Errorf("%w: nil record", ErrAccess)
			}
			rv = rv.Elem()
		}
		switch rv.Kind() {
		case reflect.Invalid:
			return nil, fmt.Errorf("%w: nil record", ErrAccess)
		case reflect.Struct:
			sf, ok := rv.Type().FieldByName(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s has no field %q", ErrConfiguration, rv.Type(), name)
			}
			if !sf.IsExported() {
				return nil, fmt.Errorf("%w: field %q of %s is unexported", ErrAccess, name, rv.Type())
			}
			fv, err := rv.FieldByIndexErr(sf.Index)
			if err != nil {
				// nil embedded pointer
				return nil, fmt.Errorf("%w: %s.%s: %w", ErrAccess, rv.Type(), name, err)
			}
			return fv.Interface(), nil
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				break
			}
			v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !v.IsValid() {
				return nil, fmt.Errorf("%w: record has no %q key", ErrConfiguration, name)
			}
			return v.Interface(), nil
		}
		return nil, fmt.Errorf("%w: cannot read field %q of %s", ErrConfiguration, name, rv.Type())
	}
}
