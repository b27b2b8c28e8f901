package canopy

import (
	"fmt"
	"math/big"
)

// PostProcess is a conditional substitution applied after decode (or
// before encode) to a field's logical value: after the converter on
// decode, before it on encode (spec §3 "Post-process", §4.6 steps 5). ValueDecode and ValueEncode are
// expressions evaluated against the carrier; when Condition holds, the
// target field is set to the corresponding expression's result instead of
// what the wire/logical value otherwise produced.
type PostProcess struct {
	Condition   string
	ValueDecode string
	ValueEncode string
}

// FieldPlan is one compiled field of a Template: its skip prefix, primary
// binding, optional collection wrapper, converter choices, validator, and
// post-process directive, plus the accessor closures a Parser uses to read
// from and write into the carrier without reflection (spec §3 "Field
// plan"). Get/Set are built by FieldBuilder[T] from the caller's
// strongly-typed get/set functions; canopy never inspects a carrier's
// fields by reflection (spec §1, §9).
type FieldPlan struct {
	Name        string
	Skips       []SkipBinding
	Primary     Binding
	Collection  *Collection
	Converters  ConverterChoices
	Validator   Validator
	PostProcess *PostProcess
	Get         func(self any) any
	Set         func(self any, value any) error

	skipAfterPrimary bool
}

// SchemaDef is the hand-written, pre-compile description of one carrier
// type's wire layout (spec §4.4 "a generated or hand-written schema()
// function", §9 "metadata as data, not reflection"): a Header plus an
// ordered list of field plans built via Field(name). Declaration order is
// preserved exactly as called, matching spec §4.4 step 2's "declaration
// order... part of the contract".
type SchemaDef[T any] struct {
	Header Header
	Fields []*FieldPlan
}

// NewSchema starts a SchemaDef for carrier type T with the given header.
func NewSchema[T any](header Header) *SchemaDef[T] {
	return &SchemaDef[T]{Header: header}
}

// Field appends a new field plan named name and returns a builder to
// configure it. Fields must be added in the order they appear on the wire.
func (s *SchemaDef[T]) Field(name string) *FieldBuilder[T] {
	fp := &FieldPlan{Name: name}
	s.Fields = append(s.Fields, fp)
	return &FieldBuilder[T]{plan: fp}
}

// FieldBuilder configures one FieldPlan of a SchemaDef[T] through chained
// calls, the Go-idiomatic stand-in for the source language's per-field
// annotations (spec §9).
type FieldBuilder[T any] struct {
	plan *FieldPlan
}

// --- skip prefix -----------------------------------------------------

// SkipBits declares a fixed-width skip preceding this field's primary
// binding (spec §3 "Skip", Bits(size_expr) case with a literal size).
func (b *FieldBuilder[T]) SkipBits(n int) *FieldBuilder[T] {
	b.markSkip()
	b.plan.Skips = append(b.plan.Skips, SkipBinding{Bits: n})
	return b
}

// SkipExpr declares a skip whose width is computed from expr at
// decode/encode time.
func (b *FieldBuilder[T]) SkipExpr(expr string) *FieldBuilder[T] {
	b.markSkip()
	b.plan.Skips = append(b.plan.Skips, SkipBinding{SizeExpr: expr})
	return b
}

// SkipUntil declares a skip that reads and discards bytes up to (and, if
// consume is true, past) term (spec §3 "Skip", UntilTerminator case).
func (b *FieldBuilder[T]) SkipUntil(term byte, consume bool) *FieldBuilder[T] {
	b.markSkip()
	t := term
	b.plan.Skips = append(b.plan.Skips, SkipBinding{Terminator: &t, Consume: consume})
	return b
}

// markSkip records a schema-compile-time violation when a skip is declared
// after the field's primary binding is already set (spec §9 open question
// (b): illegal per SPEC_FULL.md OPEN QUESTION DECISIONS #2).
func (b *FieldBuilder[T]) markSkip() {
	if b.plan.Primary != nil || b.plan.Collection != nil {
		b.plan.skipAfterPrimary = true
	}
}

// --- primary bindings -------------------------------------------------

// Int declares a fixed-width integer binding of bits <= 64 (spec §3
// "Integer").
func (b *FieldBuilder[T]) Int(bits int, order ByteOrder, signed bool, get func(*T) int64, set func(*T, int64)) *FieldBuilder[T] {
	return b.intBinding(IntegerBinding{Bits: bits, Signed: signed, Order: order}, get, set)
}

// IntExpr is Int with a size_expr in place of a literal width.
func (b *FieldBuilder[T]) IntExpr(sizeExpr string, order ByteOrder, signed bool, get func(*T) int64, set func(*T, int64)) *FieldBuilder[T] {
	return b.intBinding(IntegerBinding{SizeExpr: sizeExpr, Signed: signed, Order: order}, get, set)
}

func (b *FieldBuilder[T]) intBinding(ib IntegerBinding, get func(*T) int64, set func(*T, int64)) *FieldBuilder[T] {
	b.plan.Primary = ib
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		n, ok := toInt64(v)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected signed integer, got %T", b.plan.Name, v)
		}
		set(self.(*T), n)
		return nil
	}
	return b
}

// BigInt declares an integer binding wider than 64 bits, backed by
// math/big (spec §4.1 read_big_int, N ∈ {65, 128} per §8's round-trip set).
func (b *FieldBuilder[T]) BigInt(bits int, order ByteOrder, signed bool, get func(*T) *big.Int, set func(*T, *big.Int)) *FieldBuilder[T] {
	b.plan.Primary = IntegerBinding{Bits: bits, Signed: signed, Order: order, Big: true}
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		n, ok := v.(*big.Int)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected *big.Int, got %T", b.plan.Name, v)
		}
		set(self.(*T), n)
		return nil
	}
	return b
}

// BitSet declares a raw bit-vector binding (spec §3 "BitSet").
func (b *FieldBuilder[T]) BitSet(bits int, get func(*T) BitSet, set func(*T, BitSet)) *FieldBuilder[T] {
	b.plan.Primary = BitSetBinding{Bits: bits}
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		n, ok := v.(BitSet)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected BitSet, got %T", b.plan.Name, v)
		}
		set(self.(*T), n)
		return nil
	}
	return b
}

// StringFixed declares a fixed-byte-length text binding (spec §3
// "StringFixed").
func (b *FieldBuilder[T]) StringFixed(byteLen int, charset string, get func(*T) string, set func(*T, string)) *FieldBuilder[T] {
	return b.stringFixedBinding(StringFixedBinding{ByteLength: byteLen, Charset: charset}, get, set)
}

// StringFixedExpr is StringFixed with a size_expr in place of a literal
// byte length.
func (b *FieldBuilder[T]) StringFixedExpr(sizeExpr, charset string, get func(*T) string, set func(*T, string)) *FieldBuilder[T] {
	return b.stringFixedBinding(StringFixedBinding{SizeExpr: sizeExpr, Charset: charset}, get, set)
}

func (b *FieldBuilder[T]) stringFixedBinding(sb StringFixedBinding, get func(*T) string, set func(*T, string)) *FieldBuilder[T] {
	b.plan.Primary = sb
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected string, got %T", b.plan.Name, v)
		}
		set(self.(*T), s)
		return nil
	}
	return b
}

// StringTerminated declares a terminator-delimited text binding (spec §3
// "StringTerminated").
func (b *FieldBuilder[T]) StringTerminated(term byte, consume bool, charset string, get func(*T) string, set func(*T, string)) *FieldBuilder[T] {
	b.plan.Primary = StringTerminatedBinding{Terminator: term, Consume: consume, Charset: charset}
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected string, got %T", b.plan.Name, v)
		}
		set(self.(*T), s)
		return nil
	}
	return b
}

// Object declares a (possibly polymorphic) nested-carrier binding (spec §3
// "Object"). The concrete value passed to set/returned by get must be the
// nested carrier's own pointer type (e.g. *TestType1); its own template
// must be registered via RegisterCarrier before this field is
// decoded/encoded.
func (b *FieldBuilder[T]) Object(ob ObjectBinding, get func(*T) any, set func(*T, any)) *FieldBuilder[T] {
	b.plan.Primary = ob
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		set(self.(*T), v)
		return nil
	}
	return b
}

// Checksum declares this field as the template's checksum (spec §3
// "Checksum"). At most one per template; SchemaError otherwise.
func (b *FieldBuilder[T]) Checksum(cb ChecksumBinding, get func(*T) uint64, set func(*T, uint64)) *FieldBuilder[T] {
	cb.Bits = cb.Algorithm.BitWidth()
	b.plan.Primary = cb
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		n, ok := toUint64(v)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected checksum value, got %T", b.plan.Name, v)
		}
		set(self.(*T), n)
		return nil
	}
	return b
}

// Evaluated declares a synthetic field computed from expr after all
// wire-bearing fields have been decoded (spec §3 "Evaluated"); it produces
// no bytes on encode.
func (b *FieldBuilder[T]) Evaluated(expr string, get func(*T) any, set func(*T, any)) *FieldBuilder[T] {
	b.plan.Primary = EvaluatedBinding{Expr: expr}
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		set(self.(*T), v)
		return nil
	}
	return b
}

// --- collection wrappers ----------------------------------------------

// Array declares a fixed-count repetition of element, the count given by
// sizeExpr (spec §3 "Collection wrapper", Array case).
func (b *FieldBuilder[T]) Array(sizeExpr string, element Binding, get func(*T) []any, set func(*T, []any)) *FieldBuilder[T] {
	b.plan.Collection = &Collection{Element: element, CollectionOf: KindArray, SizeExpr: sizeExpr}
	return b.collectionAccessors(get, set)
}

// List declares a terminator-driven repetition of element (spec §3
// "Collection wrapper", List case). element is normally an ObjectBinding
// whose Terminator drives the end-of-list decision (spec §4.5, §9).
func (b *FieldBuilder[T]) List(element Binding, get func(*T) []any, set func(*T, []any)) *FieldBuilder[T] {
	b.plan.Collection = &Collection{Element: element, CollectionOf: KindList}
	return b.collectionAccessors(get, set)
}

func (b *FieldBuilder[T]) collectionAccessors(get func(*T) []any, set func(*T, []any)) *FieldBuilder[T] {
	b.plan.Get = func(self any) any { return get(self.(*T)) }
	b.plan.Set = func(self any, v any) error {
		vs, ok := v.([]any)
		if !ok {
			return fmt.Errorf("canopy: field %q: expected []any, got %T", b.plan.Name, v)
		}
		set(self.(*T), vs)
		return nil
	}
	return b
}

// --- converters, validators, post-process -----------------------------

// ConvertIf appends a condition-gated converter alternative. Alternatives
// are tried in the order they were added; the first whose condition
// evaluates true wins (spec §3 "Converter choice set").
func (b *FieldBuilder[T]) ConvertIf(condition string, c Converter) *FieldBuilder[T] {
	b.plan.Converters = append(b.plan.Converters, ConverterChoice{Condition: condition, Converter: c})
	return b
}

// Convert appends the unconditional default converter. Add it last: an
// earlier unconditional Convert would shadow every ConvertIf that follows
// it, since ConverterChoices.Resolve matches first-true-wins in call
// order.
func (b *FieldBuilder[T]) Convert(c Converter) *FieldBuilder[T] {
	b.plan.Converters = append(b.plan.Converters, ConverterChoice{Converter: c})
	return b
}

// Validate attaches a validator run after conversion: against the logical
// value on decode, and against the converted value about to be written on
// encode (spec §4.8).
func (b *FieldBuilder[T]) Validate(v Validator) *FieldBuilder[T] {
	b.plan.Validator = v
	return b
}

// PostProcessIf attaches a conditional post-process substitution (spec §3
// "Post-process"): when condition evaluates true against the carrier,
// valueDecode replaces the field's value after decode, and valueEncode
// replaces it before encode.
func (b *FieldBuilder[T]) PostProcessIf(condition, valueDecode, valueEncode string) *FieldBuilder[T] {
	b.plan.PostProcess = &PostProcess{Condition: condition, ValueDecode: valueDecode, ValueEncode: valueEncode}
	return b
}
