package sqljson

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tabbycat-co/molt/internal/meta"
)

// FieldExpr returns the SQL expression extracting a record field from a
// JSONB column, resolving the Go field name to its effective key
// ("data->>'firstName'" for FieldExpr[User]("data", "FirstName")).
func FieldExpr[T any](column, field string) (string, error) {
	rm, err := meta.Analyze[T]()
	if err != nil {
		return "", err
	}
	f, ok := rm.FieldByName(field)
	if !ok {
		return "", fmt.Errorf("sqljson: %s has no field %q", rm.Type, field)
	}
	return fmt.Sprintf("%s->>'%s'", column, f.Key), nil
}

// FieldEq returns a squirrel predicate matching a record field stored in a
// JSONB column against a value.
func FieldEq[T any](column, field string, value any) (sq.Sqlizer, error) {
	expr, err := FieldExpr[T](column, field)
	if err != nil {
		return nil, err
	}
	return sq.Expr(expr+" = ?", value), nil
}
