package codecs

import "testing"

type benchDoc struct {
	Name    string
	Age     int
	Email   string
	Tags    []string
	Address benchAddr
}

type benchAddr struct {
	Street string
	City   string
}

var benchValue = benchDoc{
	Name:  "Alice",
	Age:   30,
	Email: "alice@test.com",
	Tags:  []string{"a", "b", "c"},
	Address: benchAddr{
		Street: "Main St",
		City:   "Berlin",
	},
}

func BenchmarkRecordMarshal(b *testing.B) {
	c := NewRecord(NewJSONIter())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Marshal(&benchValue); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecordUnmarshal(b *testing.B) {
	c := NewRecord(NewJSONIter())
	data, err := c.Marshal(&benchValue)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var doc benchDoc
		if err := c.Unmarshal(data, &doc); err != nil {
			b.Fatal(err)
		}
	}
}
