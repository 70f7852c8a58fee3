package codecs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tabbycat-co/molt/internal/meta"
)

// UnknownKeysError is returned by decoding under the raise policy when the
// input contains keys matching no declared field.
type UnknownKeysError struct {
	Type string
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	return fmt.Sprintf("molt: %s: unknown keys: %s", e.Type, strings.Join(e.Keys, ", "))
}

// RecordCodec converts records to and from JSON text through the generic
// mapping representation, consulting per-field configuration from meta.
type RecordCodec struct {
	inner Codec
}

func NewRecord(inner Codec) *RecordCodec {
	return &RecordCodec{inner: inner}
}

func (c *RecordCodec) Marshal(v any) ([]byte, error) {
	m, err := c.AsMap(v)
	if err != nil {
		return nil, err
	}
	return c.inner.Marshal(m)
}

func (c *RecordCodec) Unmarshal(data []byte, v any) error {
	var raw map[string]any
	if err := c.inner.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.FromMap(raw, v)
}

// AsMap converts a record to its generic mapping representation: nested
// maps, slices, and primitive scalars.
func (c *RecordCodec) AsMap(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("molt: cannot convert nil record")
		}
		val = val.Elem()
	}
	return encodeStruct(val)
}

// FromMap populates the record pointed to by v from its generic mapping
// representation, applying the type's undefined-key policy.
func (c *RecordCodec) FromMap(m map[string]any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("molt: decode target must be a non-nil pointer, got %T", v)
	}
	return decodeStruct(m, val.Elem())
}

var timeType = reflect.TypeOf(time.Time{})

func encodeStruct(val reflect.Value) (map[string]any, error) {
	rm, err := meta.AnalyzeType(val.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(rm.Fields))
	for i := range rm.Fields {
		f := &rm.Fields[i]
		fv := val.Field(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}

		var enc any
		if f.Encoder != nil {
			enc, err = f.Encoder(fv.Interface())
		} else {
			enc, err = encodeValue(fv)
		}
		if err != nil {
			return nil, fmt.Errorf("molt: encode %s.%s: %w", rm.Type, f.Name, err)
		}
		out[f.Key] = enc
	}

	// extras captured by a previous include-policy decode flow back out
	if rm.HasCatchAll() {
		ca := val.Field(rm.CatchAllIndex)
		for _, k := range ca.MapKeys() {
			key := k.String()
			if _, shadowed := out[key]; shadowed {
				continue
			}
			out[key] = ca.MapIndex(k).Interface()
		}
	}

	return out, nil
}

func encodeValue(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return encodeValue(v.Elem())

	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface(), nil
		}
		return encodeStruct(v)

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		if v.IsNil() {
			return nil, nil
		}
		return encodeSeq(v)

	case reflect.Array:
		return encodeSeq(v)

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		out := make(map[string]any, v.Len())
		for _, k := range v.MapKeys() {
			ev, err := encodeValue(v.MapIndex(k))
			if err != nil {
				return nil, err
			}
			out[k.String()] = ev
		}
		return out, nil

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, fmt.Errorf("unsupported field kind %s", v.Kind())

	default:
		return v.Interface(), nil
	}
}

func encodeSeq(v reflect.Value) (any, error) {
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		ev, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func decodeStruct(in map[string]any, val reflect.Value) error {
	rm, err := meta.AnalyzeType(val.Type())
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(in))
	for i := range rm.Fields {
		f := &rm.Fields[i]
		raw, ok := in[f.Key]
		if !ok {
			continue
		}
		seen[f.Key] = true
		target := val.Field(f.Index)

		if f.Decoder != nil {
			if err := applyDecoder(f, raw, target); err != nil {
				return fmt.Errorf("molt: decode %s.%s: %w", rm.Type, f.Name, err)
			}
			continue
		}
		if err := decodeValue(raw, target); err != nil {
			return fmt.Errorf("molt: decode %s.%s: %w", rm.Type, f.Name, err)
		}
	}

	var unknown []string
	for k := range in {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	switch rm.Undefined {
	case meta.UndefinedRaise:
		return &UnknownKeysError{Type: rm.Type.String(), Keys: unknown}
	case meta.UndefinedInclude:
		ca := val.Field(rm.CatchAllIndex)
		if ca.IsNil() {
			ca.Set(reflect.MakeMapWithSize(ca.Type(), len(unknown)))
		}
		for _, k := range unknown {
			ca.SetMapIndex(reflect.ValueOf(k), anyValue(in[k]))
		}
	}
	return nil
}

func anyValue(v any) reflect.Value {
	if v == nil {
		return reflect.Zero(reflect.TypeOf((*any)(nil)).Elem())
	}
	return reflect.ValueOf(v)
}

func applyDecoder(f *meta.FieldMeta, raw any, target reflect.Value) error {
	out, err := f.Decoder(raw)
	if err != nil {
		return err
	}
	if out == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	ov := reflect.ValueOf(out)
	if !ov.Type().AssignableTo(target.Type()) {
		if !ov.Type().ConvertibleTo(target.Type()) {
			return fmt.Errorf("decoder returned %T, field is %s", out, target.Type())
		}
		ov = ov.Convert(target.Type())
	}
	target.Set(ov)
	return nil
}

func decodeValue(raw any, target reflect.Value) error {
	if raw == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	switch target.Kind() {
	case reflect.Ptr:
		p := reflect.New(target.Type().Elem())
		if err := decodeValue(raw, p.Elem()); err != nil {
			return err
		}
		target.Set(p)
		return nil

	case reflect.Interface:
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("cannot assign %T to %s", raw, target.Type())
		}
		target.Set(rv)
		return nil

	case reflect.Struct:
		if target.Type() == timeType {
			return decodeTime(raw, target)
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object for %s, got %T", target.Type(), raw)
		}
		return decodeStruct(m, target)

	case reflect.Slice:
		if target.Type().Elem().Kind() == reflect.Uint8 {
			return decodeBytes(raw, target)
		}
		seq, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", raw)
		}
		out := reflect.MakeSlice(target.Type(), len(seq), len(seq))
		for i, item := range seq {
			if err := decodeValue(item, out.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		target.Set(out)
		return nil

	case reflect.Array:
		seq, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", raw)
		}
		if len(seq) != target.Len() {
			return fmt.Errorf("array length %d, got %d elements", target.Len(), len(seq))
		}
		for i, item := range seq {
			if err := decodeValue(item, target.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", raw)
		}
		kt := target.Type().Key()
		if kt.Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", kt)
		}
		out := reflect.MakeMapWithSize(target.Type(), len(m))
		for k, v := range m {
			ev := reflect.New(target.Type().Elem()).Elem()
			if err := decodeValue(v, ev); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(kt), ev)
		}
		target.Set(out)
		return nil

	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", raw)
		}
		target.SetString(s)
		return nil

	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		target.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt64(raw)
		if err != nil {
			return err
		}
		if target.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := asUint64(raw)
		if err != nil {
			return err
		}
		if target.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := asFloat64(raw)
		if err != nil {
			return err
		}
		target.SetFloat(f)
		return nil

	default:
		return fmt.Errorf("unsupported field kind %s", target.Kind())
	}
}

func decodeTime(raw any, target reflect.Value) error {
	switch t := raw.(type) {
	case time.Time:
		target.Set(reflect.ValueOf(t))
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(parsed))
		return nil
	default:
		return fmt.Errorf("expected timestamp string, got %T", raw)
	}
}

func decodeBytes(raw any, target reflect.Value) error {
	switch b := raw.(type) {
	case []byte:
		target.SetBytes(b)
		return nil
	case string:
		decoded, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return err
		}
		target.SetBytes(decoded)
		return nil
	default:
		return fmt.Errorf("expected base64 string, got %T", raw)
	}
}

func asInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

func asUint64(raw any) (uint64, error) {
	switch n := raw.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected unsigned integer, got %s", n)
		}
		return u, nil
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, fmt.Errorf("expected unsigned integer, got %v", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("value %d is negative", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("value %d is negative", n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

func asFloat64(raw any) (float64, error) {
	switch n := raw.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
