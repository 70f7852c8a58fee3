package molt_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"

	"github.com/tabbycat-co/molt"
)

type user struct {
	FirstName string
	LastName  string
	Age       int
	JoinedAt  time.Time
	Note      string `molt:",omitempty"`
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	original := user{
		FirstName: "Alice",
		LastName:  "Ng",
		Age:       30,
		JoinedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := molt.Marshal(&original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"firstName"`) {
		t.Errorf("expected camelCase keys, got %s", data)
	}

	got, err := molt.Unmarshal[user](data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*got, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, original)
	}
}

func TestAsMapFromMap_RoundTrip(t *testing.T) {
	original := user{FirstName: "Bob", Age: 7, JoinedAt: time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)}

	m, err := molt.AsMap(&original)
	if err != nil {
		t.Fatalf("as map: %v", err)
	}
	got, err := molt.FromMap[user](m)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if !reflect.DeepEqual(*got, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, original)
	}
}

type renamed struct {
	FirstName string
	LastName  string
}

func TestDefine_KeyOverrideBeatsLetterCase(t *testing.T) {
	rec, err := molt.Define[renamed](
		molt.WithLetterCase(molt.SnakeCase),
		molt.WithField("FirstName", molt.WithKey("given_name")),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	m, err := rec.AsMap(&renamed{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("as map: %v", err)
	}
	if m["given_name"] != "Ada" {
		t.Errorf("explicit key not honored: %v", m)
	}
	if m["last_name"] != "Lovelace" {
		t.Errorf("letter-case transform not applied: %v", m)
	}
	if _, ok := m["first_name"]; ok {
		t.Error("transform must not apply to an overridden field")
	}
}

type priced struct {
	Cents int
}

func TestDefine_EncoderDecoder(t *testing.T) {
	rec, err := molt.Define[priced](
		molt.WithField("Cents",
			molt.WithKey("dollars"),
			molt.WithEncoder(func(v any) (any, error) { return float64(v.(int)) / 100, nil }),
			molt.WithDecoder(func(v any) (any, error) {
				f, err := asFloat(v)
				if err != nil {
					return nil, err
				}
				return int(f * 100), nil
			}),
		),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	m, err := rec.AsMap(&priced{Cents: 250})
	if err != nil {
		t.Fatalf("as map: %v", err)
	}
	if m["dollars"] != 2.5 {
		t.Errorf("dollars = %v, want 2.5", m["dollars"])
	}

	got, err := rec.FromMap(map[string]any{"dollars": 2.5})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if got.Cents != 250 {
		t.Errorf("Cents = %d, want 250", got.Cents)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	}
	return 0, errors.New("not a number")
}

type openUser struct {
	Name   string
	Extras map[string]any `molt:",catchall"`
}

func TestDefine_IncludePolicyEndToEnd(t *testing.T) {
	rec, err := molt.Define[openUser](molt.WithUndefined(molt.UndefinedInclude))
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	got, err := rec.Unmarshal([]byte(`{"name":"a","color":"red","n":2}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "a" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Extras["color"] != "red" {
		t.Errorf("Extras = %v", got.Extras)
	}

	data, err := rec.Marshal(got, molt.WithSortedKeys())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"color":"red"`) {
		t.Errorf("extras not re-emitted: %s", data)
	}
	if strings.Contains(string(data), `"extras"`) {
		t.Errorf("catch-all field leaked as a key: %s", data)
	}
}

type strictUser struct {
	Name string
}

func TestDefine_RaisePolicyEndToEnd(t *testing.T) {
	rec, err := molt.Define[strictUser](molt.WithUndefinedName("RAISE"))
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	_, err = rec.Unmarshal([]byte(`{"name":"a","extra":1}`))
	var unknown *molt.UnknownKeysError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownKeysError", err)
	}
	if len(unknown.Keys) != 1 || unknown.Keys[0] != "extra" {
		t.Errorf("Keys = %v", unknown.Keys)
	}
}

func TestDefine_BadPolicyName(t *testing.T) {
	_, err := molt.Define[strictUser](molt.WithUndefinedName("bogus"))
	if !errors.Is(err, molt.ErrUndefinedPolicy) {
		t.Fatalf("got %v, want ErrUndefinedPolicy", err)
	}
}

func TestDefine_NotStruct(t *testing.T) {
	_, err := molt.Define[int]()
	if !errors.Is(err, molt.ErrNotStruct) {
		t.Fatalf("got %v, want ErrNotStruct", err)
	}
}

func TestMustDefine_PanicsOnBadConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	molt.MustDefine[strictUser](molt.WithUndefinedName("bogus"))
}

func TestParseUndefined(t *testing.T) {
	u, err := molt.ParseUndefined("Exclude")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u != molt.UndefinedExclude {
		t.Errorf("got %v, want exclude", u)
	}
	if _, err := molt.ParseUndefined("whatever"); !errors.Is(err, molt.ErrUndefinedPolicy) {
		t.Errorf("got %v, want ErrUndefinedPolicy", err)
	}
}

func TestMarshal_FormattingOptions(t *testing.T) {
	type pair struct {
		B string
		A string
	}
	data, err := molt.Marshal(&pair{B: "2", A: "1"}, molt.WithSortedKeys())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"1","b":"2"}` {
		t.Errorf("got %s", data)
	}

	data, err = molt.Marshal(&pair{B: "2", A: "1"}, molt.WithIndent(2), molt.WithSortedKeys())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"a\"") {
		t.Errorf("expected indented output, got %s", data)
	}
}

type ordered struct {
	B string
	A string
}

func TestDefine_MarshalDefaults(t *testing.T) {
	rec, err := molt.Define[ordered](
		molt.WithMarshalDefaults(molt.WithSortedKeys()),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	data, err := rec.Marshal(&ordered{B: "2", A: "1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"1","b":"2"}` {
		t.Errorf("record defaults not applied: %s", data)
	}

	// per-call options layer on top of the record defaults
	data, err = rec.Marshal(&ordered{B: "2", A: "1"}, molt.WithIndent(2))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"a\"") {
		t.Errorf("expected indented output, got %s", data)
	}
	if strings.Index(string(data), `"a"`) > strings.Index(string(data), `"b"`) {
		t.Errorf("record defaults lost under per-call options: %s", data)
	}
}

type hinted struct {
	Name string
	Code int
}

func TestSchemaFor_WithFieldHint(t *testing.T) {
	rec, err := molt.Define[hinted](
		molt.WithField("Code", molt.WithSchemaField(g.StringOf[string]())),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	s, err := rec.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	ctx := context.Background()
	if _, err := goskema.ParseFrom(ctx, s, goskema.JSONBytes([]byte(`{"name":"x","code":"A-1"}`))); err != nil {
		t.Errorf("hinted schema rejected valid payload: %v", err)
	}
	if _, err := goskema.ParseFrom(ctx, s, goskema.JSONBytes([]byte(`{"name":"x"}`))); err == nil {
		t.Error("schema accepted payload missing a required field")
	}
}
