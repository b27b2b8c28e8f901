package canopy

import "testing"

type flatCarrier struct {
	Length uint8
	Name   string
}

func flatCarrierSchema() *SchemaDef[flatCarrier] {
	s := NewSchema[flatCarrier](Header{})
	s.Field("length").Int(8, BigEndian, false,
		func(c *flatCarrier) int64 { return int64(c.Length) },
		func(c *flatCarrier, v int64) { c.Length = uint8(v) })
	s.Field("name").StringFixedExpr("fields[\"length\"]", "ASCII",
		func(c *flatCarrier) string { return c.Name },
		func(c *flatCarrier, v string) { c.Name = v })
	return s
}

func TestRegisterCarrierIsIdempotent(t *testing.T) {
	t1, err := RegisterCarrierWithRegistry(flatCarrierSchema, DefaultRegistry)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := RegisterCarrierWithRegistry(flatCarrierSchema, DefaultRegistry)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Error("expected a second RegisterCarrier call for the same type to return the cached template")
	}
}

type emptyCarrier struct{}

func TestCompileTemplateRejectsEmptyFieldSchedule(t *testing.T) {
	s := NewSchema[emptyCarrier](Header{})
	_, err := RegisterCarrierWithRegistry(func() *SchemaDef[emptyCarrier] { return s }, DefaultRegistry)
	se, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("got %T, want *SchemaError", err)
	}
	if se.Class != ErrEmptyFieldSchedule {
		t.Errorf("got class %v, want ErrEmptyFieldSchedule", se.Class)
	}
}

type skipAfterPrimaryCarrier struct {
	A int64
}

func TestCompileTemplateRejectsSkipAfterPrimary(t *testing.T) {
	schema := func() *SchemaDef[skipAfterPrimaryCarrier] {
		s := NewSchema[skipAfterPrimaryCarrier](Header{})
		s.Field("a").
			Int(8, BigEndian, false,
				func(c *skipAfterPrimaryCarrier) int64 { return c.A },
				func(c *skipAfterPrimaryCarrier, v int64) { c.A = v }).
			SkipBits(8)
		return s
	}

	_, err := RegisterCarrierWithRegistry(schema, DefaultRegistry)
	se, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("got %T, want *SchemaError", err)
	}
	if se.Class != ErrBadAnnotationOrder {
		t.Errorf("got class %v, want ErrBadAnnotationOrder", se.Class)
	}
}

type doubleChecksumCarrier struct {
	A uint64
	B uint64
}

func TestCompileTemplateRejectsDuplicateChecksum(t *testing.T) {
	schema := func() *SchemaDef[doubleChecksumCarrier] {
		s := NewSchema[doubleChecksumCarrier](Header{})
		s.Field("a").Checksum(ChecksumBinding{Algorithm: CRC32IEEE, Order: BigEndian},
			func(c *doubleChecksumCarrier) uint64 { return c.A },
			func(c *doubleChecksumCarrier, v uint64) { c.A = v })
		s.Field("b").Checksum(ChecksumBinding{Algorithm: CRC32IEEE, Order: BigEndian},
			func(c *doubleChecksumCarrier) uint64 { return c.B },
			func(c *doubleChecksumCarrier, v uint64) { c.B = v })
		return s
	}

	_, err := RegisterCarrierWithRegistry(schema, DefaultRegistry)
	se, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("got %T, want *SchemaError", err)
	}
	if se.Class != ErrDuplicateChecksum {
		t.Errorf("got class %v, want ErrDuplicateChecksum", se.Class)
	}
}

type badCharsetCarrier struct {
	Name string
}

func TestCompileTemplateRejectsInvalidCharset(t *testing.T) {
	schema := func() *SchemaDef[badCharsetCarrier] {
		s := NewSchema[badCharsetCarrier](Header{})
		s.Field("name").StringFixed(4, "NOT-A-REAL-CHARSET",
			func(c *badCharsetCarrier) string { return c.Name },
			func(c *badCharsetCarrier, v string) { c.Name = v })
		return s
	}

	_, err := RegisterCarrierWithRegistry(schema, DefaultRegistry)
	se, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("got %T, want *SchemaError", err)
	}
	if se.Class != ErrInvalidCharset {
		t.Errorf("got class %v, want ErrInvalidCharset", se.Class)
	}
}
