// Package molt augments structured Go records with automatic conversion to
// and from JSON text and a generic map representation, driven by per-field
// configuration: custom encoders and decoders, key renames, letter-case
// transforms, undefined-key policies, and validation-schema hints.
package molt

import (
	"reflect"

	goskema "github.com/reoring/goskema"

	"github.com/tabbycat-co/molt/internal/codecs"
	"github.com/tabbycat-co/molt/internal/meta"
	"github.com/tabbycat-co/molt/schema"
)

// Record is a typed handle for the four conversion operations on T. Obtain
// one from Define, which may carry record-level marshal defaults; otherwise
// it behaves like the package-level functions.
type Record[T any] struct {
	codec *codecs.RecordCodec
	text  codecs.TextOptions
}

var defaultCodec = codecs.NewRecord(codecs.NewJSONIter())

// Define installs type-level configuration for T and returns a handle.
// Re-defining a type replaces its previous configuration (last writer wins).
// Configuration errors, including an unrecognized undefined-key policy name
// and an include policy without a catch-all field, are surfaced here.
func Define[T any](opts ...Option) (*Record[T], error) {
	cfg := newRecordConfig()
	for _, o := range opts {
		o(cfg)
	}

	mc, err := cfg.build()
	if err != nil {
		return nil, err
	}
	if err := meta.Register(reflect.TypeOf((*T)(nil)).Elem(), mc); err != nil {
		return nil, err
	}
	return &Record[T]{
		codec: codecs.NewRecord(codecs.NewJSONIterWith(cfg.text)),
		text:  cfg.text,
	}, nil
}

// MustDefine is like Define but panics on configuration errors.
func MustDefine[T any](opts ...Option) *Record[T] {
	r, err := Define[T](opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Record[T]) Marshal(v *T, opts ...MarshalOption) ([]byte, error) {
	if len(opts) == 0 {
		return r.codec.Marshal(v)
	}
	tc := r.text
	for _, o := range opts {
		o(&tc)
	}
	return codecs.NewRecord(codecs.NewJSONIterWith(tc)).Marshal(v)
}

func (r *Record[T]) Unmarshal(data []byte) (*T, error) {
	out := new(T)
	if err := r.codec.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Record[T]) AsMap(v *T) (map[string]any, error) {
	return r.codec.AsMap(v)
}

func (r *Record[T]) FromMap(m map[string]any) (*T, error) {
	out := new(T)
	if err := r.codec.FromMap(m, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Record[T]) Schema() (goskema.Schema[map[string]any], error) {
	return SchemaFor[T]()
}

// Marshal serializes a record to JSON text. Formatting options pass through
// to the serializer config.
func Marshal[T any](v *T, opts ...MarshalOption) ([]byte, error) {
	tc := codecs.DefaultTextOptions()
	for _, o := range opts {
		o(&tc)
	}
	return codecs.NewRecord(codecs.NewJSONIterWith(tc)).Marshal(v)
}

// Unmarshal deserializes JSON text into a new record. Malformed text errors
// surface from the serializer unchanged.
func Unmarshal[T any](data []byte) (*T, error) {
	out := new(T)
	if err := defaultCodec.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AsMap converts a record to its generic mapping representation.
func AsMap[T any](v *T) (map[string]any, error) {
	return defaultCodec.AsMap(v)
}

// FromMap builds a record from its generic mapping representation, applying
// the type's undefined-key policy.
func FromMap[T any](m map[string]any) (*T, error) {
	out := new(T)
	if err := defaultCodec.FromMap(m, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SchemaFor builds a goskema validation schema for the record type T,
// inferring the unknown-field mode from the configured undefined-key policy.
func SchemaFor[T any]() (goskema.Schema[map[string]any], error) {
	return schema.For[T]()
}
