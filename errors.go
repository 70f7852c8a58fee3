package molt

import (
	"github.com/tabbycat-co/molt/internal/codecs"
	"github.com/tabbycat-co/molt/internal/meta"
)

var (
	// ErrUndefinedPolicy is returned when an undefined-key policy name does
	// not match a recognized option. It is surfaced at configuration time.
	ErrUndefinedPolicy = meta.ErrUndefinedPolicy

	// ErrNotStruct is returned when a record operation is attempted on a
	// non-struct type.
	ErrNotStruct = meta.ErrNotStruct
)

// UnknownKeysError is returned by decoding under the raise policy when the
// input contains keys matching no declared field.
type UnknownKeysError = codecs.UnknownKeysError
