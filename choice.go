package canopy

import (
	"errors"
	"fmt"
	"reflect"
)

// errEndOfList is the end-of-list sentinel a terminator-based choice
// resolution yields when the peeked prefix is empty (spec §4.5
// "Terminator-based decode... If the peeked string is empty, yield the
// end-of-list sentinel"; SPEC_FULL.md OPEN QUESTION DECISIONS #3). The List
// collection codec (codec_collection.go) is the only caller that treats
// this as a normal loop-termination signal rather than an error.
var errEndOfList = errors.New("canopy: end of list")

// peekUntilTerminator reads the bytes up to (not including) term and then
// fully restores the reader, implementing spec §4.1's
// read_text_until_no_consume: the cursor is left exactly where it was
// found, unlike StringTerminatedBinding's Consume-gated read (codec_string.go)
// which always advances through the text itself.
func peekUntilTerminator(r *BitReader, term byte) ([]byte, error) {
	snap := r.Snapshot()
	raw, err := readUntilTerminator(r, term, true)
	r.Restore(snap)
	return raw, err
}

// resolveChoiceDecode selects the concrete alternative type for a
// polymorphic Object binding during decode (spec §4.5).
func resolveChoiceDecode(ob ObjectBinding, dc *DecodeContext) (reflect.Type, error) {
	if ob.PrefixBits > 0 {
		return resolvePrefixChoiceDecode(ob, dc)
	}
	if ob.Terminator != nil {
		return resolveTerminatedChoiceDecode(ob, dc)
	}
	// Neither a prefix nor a terminator was declared: there is exactly one
	// possible shape, the default.
	if ob.Default != nil {
		return ob.Default, nil
	}
	return nil, &ChoiceError{Reason: "object binding has no prefix, terminator, or default type"}
}

func resolvePrefixChoiceDecode(ob ObjectBinding, dc *DecodeContext) (reflect.Type, error) {
	raw, err := dc.Reader.ReadBits(uint8(ob.PrefixBits))
	if err != nil {
		return nil, err
	}
	// spec §4.5: the leading prefix_length bits are read "as an unsigned
	// integer" into #prefix regardless of how an individual alternative's
	// prefix_literal happens to be typed.
	prefixVal := int64(DecodeUnsignedInt(raw, uint8(ob.PrefixBits), ob.PrefixOrder))
	dc.Prefix = prefixVal

	ctx := dc.evalContext()
	for _, alt := range ob.Alternatives {
		ok, err := dc.Eval.EvaluateBool(alt.Condition, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return alt.Type, nil
		}
	}
	if ob.Default != nil {
		return ob.Default, nil
	}
	return nil, &ChoiceError{Reason: fmt.Sprintf("no alternative matched prefix %#x and no default type", prefixVal)}
}

func resolveTerminatedChoiceDecode(ob ObjectBinding, dc *DecodeContext) (reflect.Type, error) {
	raw, err := peekUntilTerminator(dc.Reader, *ob.Terminator)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw, ob.TerminatorCharset)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errEndOfList
	}
	dc.Prefix = text

	ctx := dc.evalContext()
	for _, alt := range ob.Alternatives {
		ok, err := dc.Eval.EvaluateBool(alt.Condition, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return alt.Type, nil
		}
	}
	if ob.Default != nil {
		return ob.Default, nil
	}
	return nil, &ChoiceError{Reason: fmt.Sprintf("no alternative matched terminator prefix %q and no default type", text)}
}

// resolveChoiceEncode picks the alternative whose declared Type matches the
// runtime value's concrete type, first match wins (spec §4.5 "Encode", and
// SPEC_FULL.md OPEN QUESTION DECISIONS #1 for the case where more than one
// alternative's prefix_literal could apply to the same type). For a
// prefix-based object binding it also returns the bits to write ahead of
// the nested value; for a terminator-based one there is nothing to write
// here; the tag is part of the nested template's own fields.
func resolveChoiceEncode(ob ObjectBinding, concrete reflect.Type) (*ObjectAlternative, error) {
	for i := range ob.Alternatives {
		if ob.Alternatives[i].Type == concrete {
			return &ob.Alternatives[i], nil
		}
	}
	if ob.Default == concrete {
		return nil, nil
	}
	return nil, &ChoiceError{Reason: fmt.Sprintf("no alternative maps encode type %s to a prefix", concrete)}
}
