package canopy

import (
	"bytes"
	"reflect"
	"testing"
)

// --- scenario: prefix-based object choice (spec §8 scenarios 1-2) --------

type frameBody1 struct {
	X uint8
}

type frameBody2 struct {
	Y uint16
}

func frameBody1Schema() *SchemaDef[frameBody1] {
	s := NewSchema[frameBody1](Header{})
	s.Field("x").Int(8, BigEndian, false,
		func(c *frameBody1) int64 { return int64(c.X) },
		func(c *frameBody1, v int64) { c.X = uint8(v) })
	return s
}

func frameBody2Schema() *SchemaDef[frameBody2] {
	s := NewSchema[frameBody2](Header{})
	s.Field("y").Int(16, BigEndian, false,
		func(c *frameBody2) int64 { return int64(c.Y) },
		func(c *frameBody2, v int64) { c.Y = uint16(v) })
	return s
}

type frame struct {
	Kind uint8
	Body any
}

func frameSchema() *SchemaDef[frame] {
	if _, err := RegisterCarrier(frameBody1Schema); err != nil {
		panic(err)
	}
	if _, err := RegisterCarrier(frameBody2Schema); err != nil {
		panic(err)
	}

	s := NewSchema[frame](Header{})
	s.Field("body").Object(ObjectBinding{
		PrefixBits: 8,
		Alternatives: []ObjectAlternative{
			{PrefixLiteral: uint64(1), Condition: "#prefix == 1", Type: typeOf[frameBody1]()},
			{PrefixLiteral: uint64(2), Condition: "#prefix == 2", Type: typeOf[frameBody2]()},
		},
	},
		func(c *frame) any { return c.Body },
		func(c *frame, v any) { c.Body = v })
	return s
}

func TestParserPrefixChoiceRoundTrip(t *testing.T) {
	p, err := NewParser(frameSchema)
	if err != nil {
		t.Fatal(err)
	}

	original := &frame{Body: &frameBody2{Y: 4660}}
	data, err := p.Encode(original)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := p.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	body, ok := decoded.Body.(*frameBody2)
	if !ok {
		t.Fatalf("got %T, want *frameBody2", decoded.Body)
	}
	if body.Y != 4660 {
		t.Errorf("got Y=%d, want 4660", body.Y)
	}
}

// --- scenario: CRC-16/IBM checksum round trip and mismatch detection -----

type checksummedFrame struct {
	Payload  uint32
	Checksum uint64
}

func checksummedFrameSchema() *SchemaDef[checksummedFrame] {
	s := NewSchema[checksummedFrame](Header{})
	s.Field("payload").Int(32, BigEndian, false,
		func(c *checksummedFrame) int64 { return int64(c.Payload) },
		func(c *checksummedFrame, v int64) { c.Payload = uint32(v) })
	s.Field("checksum").Checksum(ChecksumBinding{Algorithm: CRC16IBM, Order: BigEndian},
		func(c *checksummedFrame) uint64 { return c.Checksum },
		func(c *checksummedFrame, v uint64) { c.Checksum = v })
	return s
}

func TestParserChecksumRoundTrip(t *testing.T) {
	p, err := NewParser(checksummedFrameSchema)
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Encode(&checksummedFrame{Payload: 0xDEADBEEF})
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := p.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Payload != 0xDEADBEEF {
		t.Errorf("got payload %#x, want 0xDEADBEEF", decoded.Payload)
	}
}

func TestParserChecksumMismatchOnByteFlip(t *testing.T) {
	p, err := NewParser(checksummedFrameSchema)
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Encode(&checksummedFrame{Payload: 0xDEADBEEF})
	if err != nil {
		t.Fatal(err)
	}

	flipped := bytes.Clone(data)
	flipped[0] ^= 0xFF

	_, err = p.Decode(flipped)
	if _, ok := err.(*ChecksumError); !ok {
		t.Fatalf("got %T (%v), want *ChecksumError", err, err)
	}
}

// --- scenario: terminator-driven list of heterogeneous alternatives -------

type listElemT5 struct{ B uint8 }

const listElemTerminator = byte(';')

func listElemT5Schema() *SchemaDef[listElemT5] {
	s := NewSchema[listElemT5](Header{})
	// each element's own tag ("B") plus the terminator the list's choice
	// resolver peeked at is consumed here, before the element's own data.
	s.Field("b").
		SkipUntil(listElemTerminator, true).
		Int(8, BigEndian, false,
			func(c *listElemT5) int64 { return int64(c.B) },
			func(c *listElemT5, v int64) { c.B = uint8(v) })
	return s
}

type listCarrier struct {
	Items []any
}

func listCarrierSchema() *SchemaDef[listCarrier] {
	if _, err := RegisterCarrier(listElemT5Schema); err != nil {
		panic(err)
	}

	term := listElemTerminator
	s := NewSchema[listCarrier](Header{})
	s.Field("items").List(ObjectBinding{
		Terminator: &term,
		Alternatives: []ObjectAlternative{
			{Condition: "#prefix == \"B\"", Type: typeOf[listElemT5]()},
		},
	},
		func(c *listCarrier) []any { return c.Items },
		func(c *listCarrier, v []any) { c.Items = v })
	return s
}

func TestParserListDecodesUntilEmptyPeek(t *testing.T) {
	// Two "B;"-tagged elements followed by a bare terminator signaling the
	// end of the list (an empty peeked prefix, spec §4.5 / §9 decision (c)).
	w := NewBitWriter()
	_ = w.WriteBytes([]byte("B"))
	_ = w.WriteByte(int8(listElemTerminator))
	_ = w.WriteBits(11, 8)
	_ = w.WriteBytes([]byte("B"))
	_ = w.WriteByte(int8(listElemTerminator))
	_ = w.WriteBits(22, 8)
	_ = w.WriteByte(int8(listElemTerminator))

	p, err := NewParser(listCarrierSchema)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := p.Decode(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(decoded.Items))
	}
	if decoded.Items[0].(*listElemT5).B != 11 || decoded.Items[1].(*listElemT5).B != 22 {
		t.Errorf("unexpected item values: %+v", decoded.Items)
	}
}

// --- scenario: conditional post-process substitution (spec §3 "Post-process",
// §4.6 decode step 5 / encode step 4) -------------------------------------

type sentinelCarrier struct {
	Mode  int8
	Value uint8
}

func sentinelCarrierSchema() *SchemaDef[sentinelCarrier] {
	s := NewSchema[sentinelCarrier](Header{})
	s.Field("mode").Int(8, BigEndian, true,
		func(c *sentinelCarrier) int64 { return int64(c.Mode) },
		func(c *sentinelCarrier, v int64) { c.Mode = int8(v) })
	s.Field("value").Int(8, BigEndian, false,
		func(c *sentinelCarrier) int64 { return int64(c.Value) },
		func(c *sentinelCarrier, v int64) { c.Value = uint8(v) }).
		PostProcessIf("fields[\"mode\"] == 1", "0", "255")
	return s
}

func TestParserPostProcessDecodeSubstitutesSentinel(t *testing.T) {
	p, err := NewParser(sentinelCarrierSchema)
	if err != nil {
		t.Fatal(err)
	}

	w := NewBitWriter()
	_ = w.WriteBits(1, 8)   // mode == 1: the PostProcessIf condition matches
	_ = w.WriteBits(255, 8) // raw wire value, the sentinel the condition replaces

	decoded, err := p.Decode(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Value != 0 {
		t.Errorf("got Value=%d, want 0 (post-process should replace the sentinel)", decoded.Value)
	}
}

func TestParserPostProcessDecodeLeavesNonMatchAlone(t *testing.T) {
	p, err := NewParser(sentinelCarrierSchema)
	if err != nil {
		t.Fatal(err)
	}

	w := NewBitWriter()
	_ = w.WriteBits(0, 8) // mode != 1: the condition does not match
	_ = w.WriteBits(42, 8)

	decoded, err := p.Decode(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Value != 42 {
		t.Errorf("got Value=%d, want 42 (post-process condition should leave it untouched)", decoded.Value)
	}
}

func TestParserPostProcessEncodeSubstitutesSentinel(t *testing.T) {
	p, err := NewParser(sentinelCarrierSchema)
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Encode(&sentinelCarrier{Mode: 1, Value: 7})
	if err != nil {
		t.Fatal(err)
	}

	r := NewBitReader(data)
	mode, _ := r.ReadBits(8)
	value, _ := r.ReadBits(8)
	if mode != 1 {
		t.Fatalf("got mode=%d, want 1", mode)
	}
	if value != 255 {
		t.Errorf("got wire value=%d, want 255 (post-process should write the sentinel in place of the field's own value)", value)
	}
}

func TestParserPostProcessEncodeLeavesNonMatchAlone(t *testing.T) {
	p, err := NewParser(sentinelCarrierSchema)
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Encode(&sentinelCarrier{Mode: 0, Value: 42})
	if err != nil {
		t.Fatal(err)
	}

	r := NewBitReader(data)
	_, _ = r.ReadBits(8)
	value, _ := r.ReadBits(8)
	if value != 42 {
		t.Errorf("got wire value=%d, want 42 (post-process condition should not match)", value)
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
