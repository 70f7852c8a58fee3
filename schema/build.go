// Package schema builds goskema validation schemas from record metadata.
// The record's undefined-key policy selects the schema's unknown-field mode:
// raise maps to strict, include to passthrough into the catch-all key, and
// exclude (or an unset policy) to strip.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"

	"github.com/tabbycat-co/molt/internal/meta"
)

// For builds a validation schema for the record type T using its registered
// configuration.
func For[T any]() (goskema.Schema[map[string]any], error) {
	return Build(reflect.TypeOf((*T)(nil)).Elem())
}

// Build builds a validation schema for the record type t.
func Build(t reflect.Type) (goskema.Schema[map[string]any], error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	rm, err := meta.AnalyzeType(t)
	if err != nil {
		return nil, err
	}

	b := g.Object()
	var required []string
	for i := range rm.Fields {
		f := &rm.Fields[i]

		var ad g.AnyAdapter
		if f.SchemaField != nil {
			hint, ok := f.SchemaField.(g.AnyAdapter)
			if !ok {
				return nil, fmt.Errorf("molt: schema: %s.%s: field hint must be a dsl.AnyAdapter, got %T", t, f.Name, f.SchemaField)
			}
			ad = hint
		} else {
			ad, err = adapterFor(f.Index, t)
			if err != nil {
				return nil, fmt.Errorf("molt: schema: %s.%s: %w", t, f.Name, err)
			}
		}

		b.Field(f.Key, ad)
		if !f.Optional && !f.OmitEmpty {
			required = append(required, f.Key)
		}
	}
	if len(required) > 0 {
		b = b.Require(required...)
	}

	switch rm.Undefined {
	case meta.UndefinedRaise:
		b = b.UnknownStrict()
	case meta.UndefinedInclude:
		b = b.Field(rm.CatchAllKey, g.SchemaOf[map[string]any](g.MapAny())).
			UnknownPassthrough(rm.CatchAllKey)
	default:
		b = b.UnknownStrip()
	}

	return b.Build()
}

var timeType = reflect.TypeOf(time.Time{})

func adapterFor(index int, owner reflect.Type) (g.AnyAdapter, error) {
	return typeAdapter(owner.Field(index).Type)
}

func typeAdapter(t reflect.Type) (g.AnyAdapter, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return g.StringOf[string](), nil

	case reflect.Bool:
		return g.BoolOf[bool](), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return g.SchemaOf[json.Number](g.NumberJSON()), nil

	case reflect.Struct:
		if t == timeType {
			return g.StringOf[string](), nil
		}
		nested, err := Build(t)
		if err != nil {
			return g.AnyAdapter{}, err
		}
		return g.SchemaOf[map[string]any](nested), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return g.AnyAdapter{}, fmt.Errorf("unsupported map key type %s", t.Key())
		}
		return g.SchemaOf[map[string]any](g.MapAny()), nil

	case reflect.Slice, reflect.Array:
		return sliceAdapter(t.Elem())

	default:
		return g.AnyAdapter{}, fmt.Errorf("unsupported field type %s", t)
	}
}

func sliceAdapter(elem reflect.Type) (g.AnyAdapter, error) {
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	switch elem.Kind() {
	case reflect.String:
		return g.SchemaOf[[]string](g.Array(g.String())), nil

	case reflect.Bool:
		return g.SchemaOf[[]bool](g.Array(g.Bool())), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return g.SchemaOf[[]json.Number](g.Array(g.NumberJSON())), nil

	case reflect.Struct:
		if elem == timeType {
			return g.SchemaOf[[]string](g.Array(g.String())), nil
		}
		nested, err := Build(elem)
		if err != nil {
			return g.AnyAdapter{}, err
		}
		return g.SchemaOf[[]map[string]any](g.Array(nested)), nil

	default:
		return g.AnyAdapter{}, fmt.Errorf("unsupported element type %s", elem)
	}
}
