package canopy

import (
	"fmt"
	"reflect"
)

// objectCodec implements KindObject: decode/encode of a nested carrier,
// optionally polymorphic via a prefix- or terminator-based choice set
// (spec §3 "Object", §4.5).
type objectCodec struct{}

func (objectCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	ob := b.(ObjectBinding)

	concrete, err := resolveChoiceDecode(ob, dc)
	if err != nil {
		return nil, err
	}

	tmpl, ok := lookupTemplate(concrete)
	if !ok {
		return nil, &SchemaError{Class: ErrUnresolvedCodec, Reason: fmt.Sprintf("no template registered for %s; call RegisterCarrier for it before decoding", concrete)}
	}
	return tmpl.decodeNested(dc.Reader, dc.Eval)
}

func (objectCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	ob := b.(ObjectBinding)

	rv := reflect.ValueOf(value)
	concrete := rv.Type()
	if concrete.Kind() == reflect.Pointer {
		concrete = concrete.Elem()
	}

	alt, err := resolveChoiceEncode(ob, concrete)
	if err != nil {
		return err
	}
	if alt != nil && ob.PrefixBits > 0 {
		lit, ok := toUint64(alt.PrefixLiteral)
		if !ok {
			return fmt.Errorf("canopy: object choice prefix literal %v (%T) is not an integer", alt.PrefixLiteral, alt.PrefixLiteral)
		}
		if err := ec.Writer.WriteBits(EncodeUnsignedInt(lit, uint8(ob.PrefixBits), ob.PrefixOrder), uint8(ob.PrefixBits)); err != nil {
			return err
		}
	}

	tmpl, ok := lookupTemplate(concrete)
	if !ok {
		return &SchemaError{Class: ErrUnresolvedCodec, Reason: fmt.Sprintf("no template registered for %s; call RegisterCarrier for it before encoding", concrete)}
	}
	return tmpl.encodeNested(ec.Writer, value, ec.Eval)
}

func init() {
	DefaultRegistry.Register(KindObject, objectCodec{})
}
