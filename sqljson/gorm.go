package sqljson

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"

	"github.com/tabbycat-co/molt/internal/codecs"
)

var recordCodec = codecs.NewRecord(codecs.NewJSONIter())

// Serializer encodes struct fields through the molt record codec. Register
// it once and tag model fields with `gorm:"serializer:molt;type:jsonb"`.
type Serializer struct{}

func (Serializer) Scan(ctx context.Context, field *gormschema.Field, dst reflect.Value, dbValue any) error {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.Zero(field.FieldType))
		return nil
	}

	var data []byte
	switch v := dbValue.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("sqljson: cannot scan %T into %s", dbValue, field.Name)
	}

	target := reflect.New(derefType(field.FieldType))
	if err := recordCodec.Unmarshal(data, target.Interface()); err != nil {
		return err
	}

	if field.FieldType.Kind() == reflect.Ptr {
		field.ReflectValueOf(ctx, dst).Set(target)
	} else {
		field.ReflectValueOf(ctx, dst).Set(target.Elem())
	}
	return nil
}

func (Serializer) Value(ctx context.Context, field *gormschema.Field, dst reflect.Value, fieldValue any) (any, error) {
	if fieldValue == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(fieldValue)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	return recordCodec.Marshal(fieldValue)
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

// RegisterGORM installs the molt serializer under the name "molt".
func RegisterGORM() {
	gormschema.RegisterSerializer("molt", Serializer{})
}

// OpenGORM opens a gorm handle on the Postgres driver with the molt
// serializer registered.
func OpenGORM(dsn string) (*gorm.DB, error) {
	RegisterGORM()
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
