package canopy

// evaluatedCodec is registered under KindEvaluated for the same
// completeness reason as checksumCodec: an Evaluated field has no wire
// presence (spec §3 "Evaluated"), so the parser computes it directly in
// its dedicated phase-4 pass over Template.evaluated (spec §4.6 step 4)
// rather than dispatching through the CodecRegistry.
type evaluatedCodec struct{}

func (evaluatedCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	eb := b.(EvaluatedBinding)
	return dc.Eval.Evaluate(eb.Expr, dc.evalContext())
}

func (evaluatedCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	// Evaluated fields produce no bytes on encode (spec §4.6 step 3).
	return nil
}

func init() {
	DefaultRegistry.Register(KindEvaluated, evaluatedCodec{})
}
