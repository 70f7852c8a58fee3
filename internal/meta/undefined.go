package meta

import (
	"errors"
	"fmt"
	"strings"
)

// Undefined selects what happens to input keys that match no declared field
// during decoding.
type Undefined int

const (
	// UndefinedUnset is the zero value: unknown keys are silently dropped on
	// decode and stripped by validation schemas, but neither behavior was
	// explicitly requested.
	UndefinedUnset Undefined = iota

	// UndefinedInclude collects unknown keys into the record's catch-all field.
	UndefinedInclude

	// UndefinedRaise fails decoding when unknown keys are present.
	UndefinedRaise

	// UndefinedExclude silently drops unknown keys.
	UndefinedExclude
)

// ErrUndefinedPolicy is returned when an undefined-key policy name does not
// match a recognized option.
var ErrUndefinedPolicy = errors.New("molt: unrecognized undefined-key policy")

func (u Undefined) String() string {
	switch u {
	case UndefinedInclude:
		return "include"
	case UndefinedRaise:
		return "raise"
	case UndefinedExclude:
		return "exclude"
	default:
		return "unset"
	}
}

// ParseUndefined resolves a policy name to its option, case-insensitively.
func ParseUndefined(name string) (Undefined, error) {
	switch strings.ToLower(name) {
	case "include":
		return UndefinedInclude, nil
	case "raise":
		return UndefinedRaise, nil
	case "exclude":
		return UndefinedExclude, nil
	}
	return UndefinedUnset, fmt.Errorf("%w: %q (must be one of include, raise, exclude)", ErrUndefinedPolicy, name)
}
