package canopy

// runSkipDecode and runSkipEncode execute one SkipBinding directly against a reader (decode) or
// writer (encode); it is invoked by the parser for each field's skip
// prefix rather than through the CodecRegistry, since a skip produces no
// value for a converter/validator to see (spec §3 "Skip", §4.6 "Execute
// skip prefix").
func runSkipDecode(r *BitReader, s SkipBinding, eval *Evaluator, ctx EvalContext) error {
	if s.Terminator != nil {
		_, err := readUntilTerminator(r, *s.Terminator, s.Consume)
		return err
	}
	n, err := eval.sizeOrLiteral(s.SizeExpr, s.Bits, ctx)
	if err != nil {
		return err
	}
	return r.SkipBits(n)
}

// runSkipEncode writes the skip's placeholder bits: zero-valued bits for a
// bit-count skip, or the literal terminator byte for a consuming terminator
// skip; a non-consuming terminator skip writes nothing (spec §4.6 encode
// step 2).
func runSkipEncode(w *BitWriter, s SkipBinding, eval *Evaluator, ctx EvalContext) error {
	if s.Terminator != nil {
		if s.Consume {
			return w.WriteByte(int8(*s.Terminator))
		}
		return nil
	}
	n, err := eval.sizeOrLiteral(s.SizeExpr, s.Bits, ctx)
	if err != nil {
		return err
	}
	for n > 0 {
		chunk := n
		if chunk > 64 {
			chunk = 64
		}
		if err := w.WriteBits(0, uint8(chunk)); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
