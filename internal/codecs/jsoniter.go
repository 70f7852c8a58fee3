package codecs

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// TextOptions are pass-through formatting options for the JSON text layer.
type TextOptions struct {
	Indent     int
	SortKeys   bool
	EscapeHTML bool
}

// DefaultTextOptions matches encoding/json defaults: compact output with
// HTML escaping.
func DefaultTextOptions() TextOptions {
	return TextOptions{EscapeHTML: true}
}

// frozen jsoniter APIs are expensive to build, so cache them per option set
var apis sync.Map // TextOptions -> jsoniter.API

func apiFor(opts TextOptions) jsoniter.API {
	if cached, ok := apis.Load(opts); ok {
		return cached.(jsoniter.API)
	}
	api := jsoniter.Config{
		IndentionStep: opts.Indent,
		SortMapKeys:   opts.SortKeys,
		EscapeHTML:    opts.EscapeHTML,
		UseNumber:     true,
	}.Froze()
	actual, _ := apis.LoadOrStore(opts, api)
	return actual.(jsoniter.API)
}

type JSONIterCodec struct {
	api jsoniter.API
}

func NewJSONIter() *JSONIterCodec {
	return NewJSONIterWith(DefaultTextOptions())
}

func NewJSONIterWith(opts TextOptions) *JSONIterCodec {
	return &JSONIterCodec{api: apiFor(opts)}
}

func (c *JSONIterCodec) Marshal(v any) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c *JSONIterCodec) Unmarshal(data []byte, v any) error {
	return c.api.Unmarshal(data, v)
}
