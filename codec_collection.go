package canopy

import (
	"errors"
	"fmt"
)

// decodeCollection and encodeCollection implement the Array/List wrapper
// (spec §3 "Collection wrapper", §4.6 "resolve the primary binding's
// collection wrapper") around whatever element Binding they wrap. Array
// and List are not dispatched through the CodecRegistry themselves — they
// are a modifier on a field plan, not a binding kind with its own wire
// shape — so the parser calls these directly and only consults the
// registry for the element binding, sharing the same per-element path for
// both wrapper kinds per spec §9's design note.
func decodeCollection(coll *Collection, dc *DecodeContext, registry *CodecRegistry) ([]any, error) {
	codec, ok := registry.Lookup(coll.Element.Kind())
	if !ok {
		return nil, &SchemaError{Class: ErrUnresolvedCodec, Reason: fmt.Sprintf("no codec registered for element kind %s", coll.Element.Kind())}
	}

	switch coll.CollectionOf {
	case KindArray:
		n, err := dc.Eval.EvaluateSize(coll.SizeExpr, dc.evalContext())
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := codec.Decode(coll.Element, dc)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case KindList:
		var out []any
		for {
			v, err := codec.Decode(coll.Element, dc)
			if err != nil {
				if errors.Is(err, errEndOfList) {
					break
				}
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("canopy: unknown collection kind %s", coll.CollectionOf)
	}
}

func encodeCollection(coll *Collection, values []any, ec *EncodeContext, registry *CodecRegistry) error {
	codec, ok := registry.Lookup(coll.Element.Kind())
	if !ok {
		return &SchemaError{Class: ErrUnresolvedCodec, Reason: fmt.Sprintf("no codec registered for element kind %s", coll.Element.Kind())}
	}

	if coll.CollectionOf == KindArray {
		n, err := ec.Eval.EvaluateSize(coll.SizeExpr, ec.evalContext())
		if err != nil {
			return err
		}
		if len(values) != n {
			return &EncodeError{Reason: fmt.Sprintf("array length %d does not match declared size %d", len(values), n)}
		}
	}

	for _, v := range values {
		if err := codec.Encode(coll.Element, v, ec); err != nil {
			return err
		}
	}
	return nil
}
