// Package sqljson stores molt-encoded records in SQL JSON/JSONB columns and
// integrates the record codec with database/sql, gorm, and bun.
package sqljson

import (
	"database/sql/driver"
	"fmt"

	"github.com/tabbycat-co/molt"
)

// JSON wraps a record so it can be written to and scanned from a JSON or
// JSONB column. Encoding and decoding go through the record codec, so field
// configuration (key renames, policies, custom encoders) applies to the
// stored form.
type JSON[T any] struct {
	Rec T
}

// Wrap is a convenience constructor.
func Wrap[T any](rec T) JSON[T] {
	return JSON[T]{Rec: rec}
}

func (j JSON[T]) Value() (driver.Value, error) {
	return molt.Marshal(&j.Rec)
}

func (j *JSON[T]) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		var zero T
		j.Rec = zero
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("sqljson: cannot scan %T into JSON column", src)
	}

	rec, err := molt.Unmarshal[T](data)
	if err != nil {
		return err
	}
	j.Rec = *rec
	return nil
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	return molt.Marshal(&j.Rec)
}

func (j *JSON[T]) UnmarshalJSON(data []byte) error {
	rec, err := molt.Unmarshal[T](data)
	if err != nil {
		return err
	}
	j.Rec = *rec
	return nil
}
