package canopy

import (
	"fmt"
	"math/big"
)

// integerCodec implements KindInteger: fixed-width signed/unsigned
// integers, including arbitrary-precision windows beyond 64 bits
// (spec §4.1/§4.2 read_int/write_int, read_big_int/write_big_int).
type integerCodec struct{}

func (integerCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	ib := b.(IntegerBinding)

	bits, err := dc.Eval.sizeOrLiteral(ib.SizeExpr, ib.Bits, dc.evalContext())
	if err != nil {
		return nil, err
	}

	if ib.Big || bits > 64 {
		v, err := ReadBigInt(dc.Reader, bits, ib.Signed, ib.Order)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	raw, err := dc.Reader.ReadBits(uint8(bits))
	if err != nil {
		return nil, err
	}
	if ib.Signed {
		return DecodeSignedInt(raw, uint8(bits), ib.Order), nil
	}
	return DecodeUnsignedInt(raw, uint8(bits), ib.Order), nil
}

func (integerCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	ib := b.(IntegerBinding)

	bits, err := ec.Eval.sizeOrLiteral(ib.SizeExpr, ib.Bits, ec.evalContext())
	if err != nil {
		return err
	}

	if ib.Big || bits > 64 {
		v, ok := value.(*big.Int)
		if !ok {
			return fmt.Errorf("canopy: integer codec expected *big.Int, got %T", value)
		}
		return WriteBigInt(ec.Writer, v, bits, ib.Order)
	}

	if ib.Signed {
		v, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("canopy: integer codec expected a signed integer, got %T", value)
		}
		if v < -(int64(1)<<(bits-1)) || v > (int64(1)<<(bits-1))-1 {
			return &EncodeError{Reason: fmt.Sprintf("value %d does not fit in %d signed bits", v, bits)}
		}
		return ec.Writer.WriteBits(EncodeSignedInt(v, uint8(bits), ib.Order), uint8(bits))
	}

	v, ok := toUint64(value)
	if !ok {
		return fmt.Errorf("canopy: integer codec expected an unsigned integer, got %T", value)
	}
	if bits < 64 && v > (uint64(1)<<bits)-1 {
		return &EncodeError{Reason: fmt.Sprintf("value %d does not fit in %d unsigned bits", v, bits)}
	}
	return ec.Writer.WriteBits(EncodeUnsignedInt(v, uint8(bits), ib.Order), uint8(bits))
}

func init() {
	DefaultRegistry.Register(KindInteger, integerCodec{})
}
