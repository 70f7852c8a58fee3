package tags

import (
	"reflect"
	"strings"
)

// Tag is the parsed form of a field's `molt` struct tag, falling back to the
// `json` tag when no molt tag is present.
//
// Recognized forms:
//
//	molt:"-"               skip the field entirely
//	molt:"display_name"    explicit output key
//	molt:",omitempty"      drop zero values on encode
//	molt:",catchall"       receives undefined keys under the include policy
type Tag struct {
	Name      string
	OmitEmpty bool
	CatchAll  bool
	Skip      bool
}

func Parse(f reflect.StructField) Tag {
	raw, ok := f.Tag.Lookup("molt")
	if !ok {
		return parse(f.Tag.Get("json"), false)
	}
	return parse(raw, true)
}

func parse(raw string, molt bool) Tag {
	if raw == "" {
		return Tag{}
	}
	if raw == "-" {
		return Tag{Skip: true}
	}
	name, rest, _ := strings.Cut(raw, ",")
	t := Tag{Name: name}
	for _, opt := range strings.Split(rest, ",") {
		switch opt {
		case "omitempty":
			t.OmitEmpty = true
		case "catchall":
			if molt {
				t.CatchAll = true
			}
		}
	}
	return t
}
