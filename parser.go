package canopy

import (
	"fmt"
)

// Parser is the generic, type-safe façade over a compiled Template[T]
// (spec §4.6 "Template parser/composer"), mirroring glint.Decoder[T]/
// glint.Encoder[T]'s pairing of a typed wrapper with an untyped impl
// (decoder.go, encoder.go) — here a single type plays both roles, since
// canopy's Decode/Encode share one Template rather than needing separate
// schema derivations.
type Parser[T any] struct {
	tmpl *Template[T]
	eval *Evaluator
}

// NewParser registers (or reuses the cached registration of) schema()'s
// template and wraps it with a fresh Evaluator (spec §5: the evaluator's
// context is scoped per invocation, not process-wide).
func NewParser[T any](schema func() *SchemaDef[T]) (*Parser[T], error) {
	tmpl, err := RegisterCarrier(schema)
	if err != nil {
		return nil, err
	}
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	return &Parser[T]{tmpl: tmpl, eval: eval}, nil
}

// Decode parses data into a new *T (spec §4.6 "Decode", state machine
// Start -> ReadFields -> PatchCheckpoints -> EvaluateSynthetic -> Verify ->
// Done). Any internal invariant-violation panic (never a user error; those
// are always returned as values) is recovered at this single boundary and
// converted to a SchemaError, mirroring the teacher's single recover point
// (printer.go line 586) per spec §7's "errors are values" rule.
func (p *Parser[T]) Decode(data []byte) (result *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &SchemaError{Carrier: p.tmpl.carrierType.String(), Class: ErrBadSizeExpression,
				Reason: fmt.Sprintf("internal invariant violated: %v", r)}
		}
	}()

	r := NewBitReader(data)

	if len(p.tmpl.header.StartMarkers) > 0 {
		if _, err := p.tmpl.header.matchStart(r); err != nil {
			return nil, err
		}
	}

	self, err := p.tmpl.decodeBody(r, p.eval)
	if err != nil {
		return nil, err
	}

	if err := p.tmpl.header.matchEnd(r); err != nil {
		return nil, err
	}

	return self, nil
}

// Encode composes v back into a byte slice (spec §4.6 "Encode").
func (p *Parser[T]) Encode(v *T) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &SchemaError{Carrier: p.tmpl.carrierType.String(), Class: ErrBadSizeExpression,
				Reason: fmt.Sprintf("internal invariant violated: %v", r)}
		}
	}()

	w := NewBitWriter()

	if err := p.tmpl.header.writeStart(w); err != nil {
		return nil, err
	}
	if err := p.tmpl.encodeBody(w, p.eval, v); err != nil {
		return nil, err
	}
	if err := p.tmpl.header.writeEnd(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// decodeNested implements compiledTemplate for the ObjectBinding codec
// (codec_object.go): it decodes a nested carrier's body directly. A nested
// template's header, if it declares one, is neither matched here nor
// written by encodeNested; only the top-level Parser handles a header
// (spec §4.4 step 1).
func (t *Template[T]) decodeNested(r *BitReader, eval *Evaluator) (any, error) {
	return t.decodeBody(r, eval)
}

func (t *Template[T]) encodeNested(w *BitWriter, value any, eval *Evaluator) error {
	self, ok := value.(*T)
	if !ok {
		return fmt.Errorf("canopy: template for %s received value of type %T", t.carrierType, value)
	}
	return t.encodeBody(w, eval, self)
}

// decodeBody is the field-by-field decode engine (spec §4.6 "Decode"
// steps 1-7, minus header matching which only the top-level Parser does).
func (t *Template[T]) decodeBody(r *BitReader, eval *Evaluator) (*T, error) {
	carrier := t.carrierType.String()
	var self T
	fields := map[string]any{}
	dc := &DecodeContext{Eval: eval, Reader: r, Self: &self, Fields: fields}

	bodyStart := int(r.Position())

	var checksumPlan *FieldPlan
	var checksumStored uint64
	var checksumBodyEnd int

	for _, fp := range t.fields {
		dc.Prefix = nil

		for _, sk := range fp.Skips {
			if err := runSkipDecode(r, sk, eval, dc.evalContext()); err != nil {
				return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
			}
		}

		kind := fieldKind(fp)

		if kind == KindEvaluated {
			continue // computed in the phase-4 pass below
		}

		if kind == KindChecksum {
			cb := fp.Primary.(ChecksumBinding)
			checksumBodyEnd = int(r.Position())
			raw, err := r.ReadBits(uint8(cb.Bits))
			if err != nil {
				return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
			}
			checksumStored = DecodeUnsignedInt(raw, uint8(cb.Bits), cb.Order)
			checksumPlan = fp
			continue
		}

		var value any
		var err error
		if fp.Collection != nil {
			value, err = decodeCollection(fp.Collection, dc, t.registry)
		} else {
			codec, ok := t.registry.Lookup(fp.Primary.Kind())
			if !ok {
				return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrUnresolvedCodec, Reason: "no codec registered"}
			}
			value, err = codec.Decode(fp.Primary, dc)
		}
		if err != nil {
			return nil, err
		}

		conv, err := fp.Converters.Resolve(eval, dc.evalContext())
		if err != nil {
			return nil, err
		}
		if conv != nil {
			value, err = conv.Decode(value)
			if err != nil {
				return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
			}
		}

		if fp.Validator != nil && !fp.Validator.IsValid(value) {
			return nil, &DataError{Carrier: carrier, Field: fp.Name, Value: value}
		}

		if err := fp.Set(&self, value); err != nil {
			return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
		}
		fields[fp.Name] = value
	}

	for _, idx := range t.evaluated {
		fp := t.fields[idx]
		eb := fp.Primary.(EvaluatedBinding)
		value, err := eval.Evaluate(eb.Expr, dc.evalContext())
		if err != nil {
			return nil, err
		}
		if err := fp.Set(&self, value); err != nil {
			return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
		}
		fields[fp.Name] = value
	}

	for _, idx := range t.postProcess {
		fp := t.fields[idx]
		ok, err := eval.EvaluateBool(fp.PostProcess.Condition, dc.evalContext())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		value, err := eval.Evaluate(fp.PostProcess.ValueDecode, dc.evalContext())
		if err != nil {
			return nil, err
		}
		if err := fp.Set(&self, value); err != nil {
			return nil, &DecodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
		}
		fields[fp.Name] = value
	}

	if checksumPlan != nil {
		cb := checksumPlan.Primary.(ChecksumBinding)
		start := bodyStart + cb.SkipStart
		end := checksumBodyEnd - cb.SkipEnd
		if start < 0 || end < start {
			return nil, &SchemaError{Carrier: carrier, Field: checksumPlan.Name, Class: ErrBadSizeExpression,
				Reason: "checksum span bounds are invalid"}
		}
		computed := cb.Algorithm.Compute(r.Slice(start, end))
		if computed != checksumStored {
			return nil, &ChecksumError{Carrier: carrier, Field: checksumPlan.Name, Expected: checksumStored, Actual: computed}
		}
		if err := checksumPlan.Set(&self, checksumStored); err != nil {
			return nil, &DecodeError{Carrier: carrier, Field: checksumPlan.Name, Reason: err.Error()}
		}
	}

	return &self, nil
}

// encodeBody is the field-by-field encode engine (spec §4.6 "Encode"
// steps 1-6, minus header writing which only the top-level Parser does).
func (t *Template[T]) encodeBody(w *BitWriter, eval *Evaluator, self *T) error {
	carrier := t.carrierType.String()
	fields := map[string]any{}
	ec := &EncodeContext{Eval: eval, Writer: w, Self: self, Fields: fields}

	bodyStart := w.Len()

	var checksumPlan *FieldPlan
	var checksumOffset int

	for _, fp := range t.fields {
		ec.Prefix = nil

		for _, sk := range fp.Skips {
			if err := runSkipEncode(w, sk, eval, ec.evalContext()); err != nil {
				return err
			}
		}

		kind := fieldKind(fp)

		if kind == KindEvaluated {
			fields[fp.Name] = fp.Get(self)
			continue
		}

		if kind == KindChecksum {
			cb := fp.Primary.(ChecksumBinding)
			checksumPlan = fp
			checksumOffset = w.Len()
			if err := w.WriteBits(0, uint8(cb.Bits)); err != nil {
				return err
			}
			continue
		}

		value := fp.Get(self)

		if fp.PostProcess != nil {
			ok, err := eval.EvaluateBool(fp.PostProcess.Condition, ec.evalContext())
			if err != nil {
				return err
			}
			if ok {
				value, err = eval.Evaluate(fp.PostProcess.ValueEncode, ec.evalContext())
				if err != nil {
					return err
				}
			}
		}

		conv, err := fp.Converters.Resolve(eval, ec.evalContext())
		if err != nil {
			return err
		}
		if conv != nil {
			value, err = conv.Encode(value)
			if err != nil {
				return &EncodeError{Carrier: carrier, Field: fp.Name, Reason: err.Error()}
			}
		}

		if fp.Validator != nil && !fp.Validator.IsValid(value) {
			return &DataError{Carrier: carrier, Field: fp.Name, Value: value}
		}

		if fp.Collection != nil {
			vs, ok := value.([]any)
			if !ok {
				return &EncodeError{Carrier: carrier, Field: fp.Name, Reason: fmt.Sprintf("expected []any, got %T", value)}
			}
			if err := encodeCollection(fp.Collection, vs, ec, t.registry); err != nil {
				return err
			}
		} else {
			codec, ok := t.registry.Lookup(fp.Primary.Kind())
			if !ok {
				return &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrUnresolvedCodec, Reason: "no codec registered"}
			}
			if err := codec.Encode(fp.Primary, value, ec); err != nil {
				return err
			}
		}

		fields[fp.Name] = value
	}

	if checksumPlan != nil {
		cb := checksumPlan.Primary.(ChecksumBinding)
		start := bodyStart + cb.SkipStart
		end := checksumOffset - cb.SkipEnd
		if start < 0 || end < start {
			return &SchemaError{Carrier: carrier, Field: checksumPlan.Name, Class: ErrBadSizeExpression,
				Reason: "checksum span bounds are invalid"}
		}
		computed := cb.Algorithm.Compute(w.Slice(start, end))

		patch := NewBitWriter()
		if err := patch.WriteBits(EncodeUnsignedInt(computed, uint8(cb.Bits), cb.Order), uint8(cb.Bits)); err != nil {
			return err
		}
		w.Patch(checksumOffset, patch.Bytes())
	}

	return nil
}
