package canopy

import "fmt"

// bitSetCodec implements KindBitSet: a raw, order-preserving bit vector
// (spec §4.1 read_bitset / §4.2 write_bitset).
type bitSetCodec struct{}

func (bitSetCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	bb := b.(BitSetBinding)

	n, err := dc.Eval.sizeOrLiteral(bb.SizeExpr, bb.Bits, dc.evalContext())
	if err != nil {
		return nil, err
	}
	return dc.Reader.ReadBitSet(n)
}

func (bitSetCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	bb := b.(BitSetBinding)

	n, err := ec.Eval.sizeOrLiteral(bb.SizeExpr, bb.Bits, ec.evalContext())
	if err != nil {
		return err
	}

	v, ok := value.(BitSet)
	if !ok {
		return fmt.Errorf("canopy: bitset codec expected BitSet, got %T", value)
	}
	if len(v) != n {
		return &EncodeError{Reason: fmt.Sprintf("bitset length %d does not match declared size %d", len(v), n)}
	}
	return ec.Writer.WriteBitSet(v)
}

func init() {
	DefaultRegistry.Register(KindBitSet, bitSetCodec{})
}
