package canopy

import "reflect"

// BindingKind discriminates the physical binding sum type (spec §3). It
// plays the same dispatch role as glint.WireType (glint.go), but the
// payload each case carries differs enough in shape (bit width, charset,
// prefix table, checksum span) that canopy represents a binding as a Go
// interface with one concrete struct per kind rather than a single
// bit-flag enum plus side tables.
type BindingKind int

const (
	KindInteger BindingKind = iota
	KindBitSet
	KindStringFixed
	KindStringTerminated
	KindObject
	KindSkip
	KindChecksum
	KindEvaluated
	KindArray
	KindList
)

func (k BindingKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBitSet:
		return "bitset"
	case KindStringFixed:
		return "string_fixed"
	case KindStringTerminated:
		return "string_terminated"
	case KindObject:
		return "object"
	case KindSkip:
		return "skip"
	case KindChecksum:
		return "checksum"
	case KindEvaluated:
		return "evaluated"
	case KindArray:
		return "array"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Binding is the sum type over physical wire bindings a field plan may
// carry. Every concrete type below implements it.
type Binding interface {
	Kind() BindingKind
}

// IntegerBinding reads/writes a fixed-width signed or unsigned integer
// (spec §4.1/§4.2 read_int/write_int). Bits gives the literal width; when
// SizeExpr is non-empty it is evaluated per field instead (spec §3's
// size_expr yields "1..=N bits"), letting one field's width depend on
// another already-decoded field.
type IntegerBinding struct {
	Bits     int
	SizeExpr string
	Signed   bool
	Order    ByteOrder
	// Big marks a binding whose width may exceed 64 bits, routing through
	// ReadBigInt/WriteBigInt instead of the uint64 path.
	Big bool
}

func (IntegerBinding) Kind() BindingKind { return KindInteger }

// BitSetBinding reads/writes a raw, order-preserving bit vector (spec §4.1
// read_bitset / §4.2 write_bitset).
type BitSetBinding struct {
	Bits     int
	SizeExpr string
}

func (BitSetBinding) Kind() BindingKind { return KindBitSet }

// StringFixedBinding reads/writes exactly ByteLength bytes of text under
// Charset. SizeExpr, when non-empty, is evaluated per field in place of the
// literal ByteLength (spec §3's size_expr).
type StringFixedBinding struct {
	ByteLength int
	SizeExpr   string
	Charset    string
}

func (StringFixedBinding) Kind() BindingKind { return KindStringFixed }

// StringTerminatedBinding reads text up to (and optionally consuming) a
// terminator byte (spec §4.1 read_text_until).
type StringTerminatedBinding struct {
	Terminator byte
	Consume    bool
	Charset    string
}

func (StringTerminatedBinding) Kind() BindingKind { return KindStringTerminated }

// ObjectAlternative is one candidate of a polymorphic Object binding: a
// condition expression that selects it on decode, a literal written as the
// prefix when a value of Type is encoded (prefix-based bindings only), and
// the concrete Go type to instantiate when it wins.
type ObjectAlternative struct {
	PrefixLiteral any
	Condition     string
	Type          reflect.Type
}

// ObjectBinding resolves a polymorphic sub-object by reading a prefix (a
// fixed-width unsigned integer placed into #prefix) or by peeking up
// to a terminator and placing the peeked string into #prefix, then
// choosing the first alternative whose condition evaluates true, or Default
// when none does (spec §4.5). Decode never compares PrefixLiteral, and an
// alternative with an empty Condition always matches.
type ObjectBinding struct {
	PrefixBits      int    // > 0 for prefix-based resolution
	PrefixSigned    bool
	PrefixOrder     ByteOrder
	Terminator      *byte  // non-nil for terminator-based resolution
	TerminatorCharset string
	Alternatives    []ObjectAlternative
	Default         reflect.Type
}

func (ObjectBinding) Kind() BindingKind { return KindObject }

// SkipBinding advances the cursor by a fixed or expression-computed number
// of bits, or up to (and optionally consuming) a terminator byte, without
// producing a value (spec §3 "Skip": Bits(size_expr) | UntilTerminator(byte,
// consume)). A trailing Skip following the primary binding in the same
// field is a SchemaError (spec §9 open question (b), SPEC_FULL.md OPEN
// QUESTION DECISIONS #2). Terminator is nil for the Bits(size_expr) case.
type SkipBinding struct {
	Bits       int
	SizeExpr   string
	Terminator *byte
	Consume    bool
}

func (SkipBinding) Kind() BindingKind { return KindSkip }

// ChecksumBinding reserves space for, and later verifies/patches, a
// checksum computed over [start_offset+SkipStart, end_offset-SkipEnd]
// (spec §3 "Checksum", §4.6).
type ChecksumBinding struct {
	Algorithm ChecksumAlgorithm
	Bits      int
	Order     ByteOrder
	SkipStart int
	SkipEnd   int
}

func (ChecksumBinding) Kind() BindingKind { return KindChecksum }

// EvaluatedBinding computes a synthetic field's value from an expression
// rather than reading it off the wire (spec §3 "Evaluated").
type EvaluatedBinding struct {
	Expr string
}

func (EvaluatedBinding) Kind() BindingKind { return KindEvaluated }

// Collection wraps an element Binding to repeat it either a declared
// number of times (Array, SizeExpr gives the count) or until decoding an
// element yields the end-of-list sentinel, which a terminator-based Object
// element produces when it peeks an empty prefix (List; spec §9 open
// question (c), SPEC_FULL.md decision #3).
type Collection struct {
	Element      Binding
	CollectionOf BindingKind // KindArray or KindList
	SizeExpr     string      // Array only
	Terminator   *byte       // not read by decodeCollection/encodeCollection
}

func (c Collection) Kind() BindingKind { return c.CollectionOf }
