package molt

import (
	g "github.com/reoring/goskema/dsl"

	"github.com/tabbycat-co/molt/internal/casing"
	"github.com/tabbycat-co/molt/internal/codecs"
	"github.com/tabbycat-co/molt/internal/meta"
)

// Undefined is the undefined-key policy applied to input keys matching no
// declared field during decoding.
type Undefined = meta.Undefined

const (
	UndefinedInclude = meta.UndefinedInclude
	UndefinedRaise   = meta.UndefinedRaise
	UndefinedExclude = meta.UndefinedExclude
)

// ParseUndefined resolves a policy name ("include", "raise", "exclude") to
// its option, case-insensitively. Non-matching names fail with
// ErrUndefinedPolicy.
func ParseUndefined(name string) (Undefined, error) {
	return meta.ParseUndefined(name)
}

// LetterCase transforms a Go field name into its output key.
type LetterCase func(string) string

var (
	CamelCase  LetterCase = casing.Camel
	PascalCase LetterCase = casing.Pascal
	SnakeCase  LetterCase = casing.Snake
	KebabCase  LetterCase = casing.Kebab
)

// Option configures a record type at Define time.
type Option func(*recordConfig)

type recordConfig struct {
	letterCase    LetterCase
	undefined     Undefined
	undefinedName string
	named         bool
	fields        map[string]meta.FieldRule
	text          codecs.TextOptions
}

func newRecordConfig() *recordConfig {
	return &recordConfig{
		fields: make(map[string]meta.FieldRule),
		text:   codecs.DefaultTextOptions(),
	}
}

func (c *recordConfig) build() (*meta.Config, error) {
	undefined := c.undefined
	if c.named {
		parsed, err := meta.ParseUndefined(c.undefinedName)
		if err != nil {
			return nil, err
		}
		undefined = parsed
	}
	return &meta.Config{
		LetterCase: c.letterCase,
		Undefined:  undefined,
		Fields:     c.fields,
	}, nil
}

// WithLetterCase sets the key-name transform applied to field names that
// have no explicit override.
func WithLetterCase(lc LetterCase) Option {
	return func(c *recordConfig) {
		c.letterCase = lc
	}
}

// WithUndefined sets the undefined-key policy.
func WithUndefined(u Undefined) Option {
	return func(c *recordConfig) {
		c.undefined = u
		c.named = false
	}
}

// WithUndefinedName sets the undefined-key policy by name. An unrecognized
// name fails Define with ErrUndefinedPolicy.
func WithUndefinedName(name string) Option {
	return func(c *recordConfig) {
		c.undefinedName = name
		c.named = true
	}
}

// WithMarshalDefaults sets the record's default JSON text formatting.
// Options passed to an individual Marshal call layer on top of these.
func WithMarshalDefaults(opts ...MarshalOption) Option {
	return func(c *recordConfig) {
		for _, o := range opts {
			o(&c.text)
		}
	}
}

// WithField attaches per-field configuration to the named Go field.
// Define fails if the record has no such exported field. Later options for
// the same member win.
func WithField(name string, opts ...FieldOption) Option {
	return func(c *recordConfig) {
		rule := c.fields[name]
		for _, o := range opts {
			o(&rule)
		}
		c.fields[name] = rule
	}
}

// FieldOption configures a single field rule.
type FieldOption func(*meta.FieldRule)

// WithKey overrides the field's output key outright. It takes precedence
// over the letter-case transform and struct tags.
func WithKey(key string) FieldOption {
	return func(r *meta.FieldRule) {
		r.Key = key
	}
}

// WithEncoder replaces the recursive encoding of the field value.
func WithEncoder(fn func(any) (any, error)) FieldOption {
	return func(r *meta.FieldRule) {
		r.Encoder = fn
	}
}

// WithDecoder replaces the recursive decoding of the field value.
func WithDecoder(fn func(any) (any, error)) FieldOption {
	return func(r *meta.FieldRule) {
		r.Decoder = fn
	}
}

// WithSchemaField overrides the goskema field descriptor used when building
// the record's validation schema.
func WithSchemaField(ad g.AnyAdapter) FieldOption {
	return func(r *meta.FieldRule) {
		r.SchemaField = ad
	}
}

// MarshalOption adjusts JSON text formatting for a single Marshal call.
type MarshalOption func(*codecs.TextOptions)

// WithIndent pretty-prints output with the given indentation step.
func WithIndent(step int) MarshalOption {
	return func(o *codecs.TextOptions) {
		o.Indent = step
	}
}

// WithSortedKeys emits object keys in sorted order.
func WithSortedKeys() MarshalOption {
	return func(o *codecs.TextOptions) {
		o.SortKeys = true
	}
}

// WithRawHTML disables HTML escaping of <, >, and & in strings.
func WithRawHTML() MarshalOption {
	return func(o *codecs.TextOptions) {
		o.EscapeHTML = false
	}
}
