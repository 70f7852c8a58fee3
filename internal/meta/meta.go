package meta

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/tabbycat-co/molt/internal/casing"
	"github.com/tabbycat-co/molt/internal/tags"
)

// ErrNotStruct is returned when a record operation is attempted on a
// non-struct type.
var ErrNotStruct = errors.New("molt: record type must be a struct")

// FieldRule is the programmatic per-field configuration attached via Define.
// All members are optional; a zero FieldRule changes nothing.
type FieldRule struct {
	// Key overrides the output key outright. It takes precedence over both
	// struct tags and the letter-case transform.
	Key string

	// Encoder replaces the recursive encoding of the field value.
	Encoder func(any) (any, error)

	// Decoder replaces the recursive decoding of the field value.
	Decoder func(any) (any, error)

	// SchemaField overrides the validation-schema field descriptor. Stored
	// opaquely here; the schema package asserts its concrete type.
	SchemaField any
}

// Config is the type-level configuration installed by Define.
type Config struct {
	LetterCase func(string) string
	Undefined  Undefined
	Fields     map[string]FieldRule
}

// FieldMeta describes one declared data field of a record.
type FieldMeta struct {
	Index       int
	Name        string
	Key         string
	OmitEmpty   bool
	Optional    bool
	Encoder     func(any) (any, error)
	Decoder     func(any) (any, error)
	SchemaField any
}

// RecordMeta is the analyzed shape of a record type. It is immutable once
// built and cached per type.
type RecordMeta struct {
	Type          reflect.Type
	Undefined     Undefined
	Fields        []FieldMeta
	CatchAllIndex int
	CatchAllKey   string

	byKey map[string]int
}

// FieldByKey returns the field whose effective key is key.
func (m *RecordMeta) FieldByKey(key string) (*FieldMeta, bool) {
	i, ok := m.byKey[key]
	if !ok {
		return nil, false
	}
	return &m.Fields[i], true
}

// FieldByName returns the field with the given Go name.
func (m *RecordMeta) FieldByName(name string) (*FieldMeta, bool) {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// HasCatchAll reports whether the record declares a catch-all field.
func (m *RecordMeta) HasCatchAll() bool { return m.CatchAllIndex >= 0 }

var (
	registry sync.Map // reflect.Type -> *Config
	cache    sync.Map // reflect.Type -> *RecordMeta
)

// Register installs cfg as the configuration for t, replacing any previous
// registration (last writer wins) and invalidating the cached analysis.
// Configuration errors are surfaced here, not at conversion time.
func Register(t reflect.Type, cfg *Config) error {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	if _, err := analyze(t, cfg); err != nil {
		return err
	}
	registry.Store(t, cfg)
	cache.Delete(t)
	return nil
}

// Analyze returns the cached metadata for T.
func Analyze[T any]() (*RecordMeta, error) {
	return AnalyzeType(reflect.TypeOf((*T)(nil)).Elem())
}

// AnalyzeType returns the cached metadata for t, building it on first use
// from the registered configuration (or defaults).
func AnalyzeType(t reflect.Type) (*RecordMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	if cached, ok := cache.Load(t); ok {
		return cached.(*RecordMeta), nil
	}
	var cfg *Config
	if stored, ok := registry.Load(t); ok {
		cfg = stored.(*Config)
	}
	m, err := analyze(t, cfg)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(t, m)
	return actual.(*RecordMeta), nil
}

var mapStringAny = reflect.TypeOf(map[string]any(nil))

func analyze(t reflect.Type, cfg *Config) (*RecordMeta, error) {
	m := &RecordMeta{
		Type:          t,
		CatchAllIndex: -1,
		byKey:         make(map[string]int),
	}
	if cfg != nil {
		m.Undefined = cfg.Undefined
	}

	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tg := tags.Parse(f)
		if tg.Skip {
			continue
		}
		seen[f.Name] = true

		var rule FieldRule
		if cfg != nil {
			rule = cfg.Fields[f.Name]
		}

		key := effectiveKey(f.Name, rule, tg, cfg)

		if tg.CatchAll {
			if f.Type != mapStringAny {
				return nil, fmt.Errorf("molt: %s.%s: catch-all field must be map[string]any", t, f.Name)
			}
			if m.CatchAllIndex >= 0 {
				return nil, fmt.Errorf("molt: %s: multiple catch-all fields", t)
			}
			m.CatchAllIndex = i
			m.CatchAllKey = key
			continue
		}

		if _, dup := m.byKey[key]; dup {
			return nil, fmt.Errorf("molt: %s: duplicate output key %q", t, key)
		}
		m.byKey[key] = len(m.Fields)
		m.Fields = append(m.Fields, FieldMeta{
			Index:       i,
			Name:        f.Name,
			Key:         key,
			OmitEmpty:   tg.OmitEmpty,
			Optional:    f.Type.Kind() == reflect.Ptr,
			Encoder:     rule.Encoder,
			Decoder:     rule.Decoder,
			SchemaField: rule.SchemaField,
		})
	}

	if cfg != nil {
		for name := range cfg.Fields {
			if !seen[name] {
				return nil, fmt.Errorf("molt: %s has no exported field %q", t, name)
			}
		}
	}
	if m.Undefined == UndefinedInclude && m.CatchAllIndex < 0 {
		return nil, fmt.Errorf("molt: %s: include policy requires a molt:\",catchall\" field", t)
	}

	return m, nil
}

// effectiveKey resolves a field's output key. An explicit override (rule or
// tag) is used verbatim; otherwise the letter-case transform, defaulting to
// camelCase, is applied to the Go field name.
func effectiveKey(name string, rule FieldRule, tg tags.Tag, cfg *Config) string {
	if rule.Key != "" {
		return rule.Key
	}
	if tg.Name != "" {
		return tg.Name
	}
	if cfg != nil && cfg.LetterCase != nil {
		return cfg.LetterCase(name)
	}
	return casing.Camel(name)
}
