package canopy

import "fmt"

// stringFixedCodec implements KindStringFixed: exactly N bytes of charset
// text (spec §4.1 read_text, N possibly zero per §8 boundary behavior
// "Zero-length string-fixed field -> empty string, cursor unchanged in
// byte count").
type stringFixedCodec struct{}

func (stringFixedCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	sb := b.(StringFixedBinding)

	n, err := dc.Eval.sizeOrLiteral(sb.SizeExpr, sb.ByteLength, dc.evalContext())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return "", nil
	}

	raw, err := dc.Reader.ReadBytes(uint(n))
	if err != nil {
		return nil, err
	}
	return decodeText(raw, sb.Charset)
}

func (stringFixedCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	sb := b.(StringFixedBinding)

	n, err := ec.Eval.sizeOrLiteral(sb.SizeExpr, sb.ByteLength, ec.evalContext())
	if err != nil {
		return err
	}

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("canopy: string_fixed codec expected string, got %T", value)
	}
	raw, err := encodeText(s, sb.Charset)
	if err != nil {
		return err
	}
	if len(raw) != n {
		return &EncodeError{Reason: fmt.Sprintf("string %q encodes to %d bytes, declared size is %d", s, len(raw), n)}
	}
	return ec.Writer.WriteBytes(raw)
}

// stringTerminatedCodec implements KindStringTerminated: text read up to
// (and optionally consuming) a terminator byte (spec §4.1
// read_text_until/read_text_until_no_consume).
type stringTerminatedCodec struct{}

func (stringTerminatedCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	sb := b.(StringTerminatedBinding)

	raw, err := readUntilTerminator(dc.Reader, sb.Terminator, sb.Consume)
	if err != nil {
		return nil, err
	}
	return decodeText(raw, sb.Charset)
}

func (stringTerminatedCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	sb := b.(StringTerminatedBinding)

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("canopy: string_terminated codec expected string, got %T", value)
	}
	raw, err := encodeText(s, sb.Charset)
	if err != nil {
		return err
	}
	if err := ec.Writer.WriteBytes(raw); err != nil {
		return err
	}
	if sb.Consume {
		return ec.Writer.WriteByte(int8(sb.Terminator))
	}
	return nil
}

// readUntilTerminator reads bytes up to (and, if consume is true, past) the
// terminator byte. It operates byte-at-a-time since the terminator's
// position isn't known in advance (spec §4.1).
func readUntilTerminator(r *BitReader, term byte, consume bool) ([]byte, error) {
	var out []byte
	for {
		snap := r.Snapshot()
		b, err := r.ReadByte()
		if err != nil {
			return nil, ErrTerminatorNotFound
		}
		if byte(b) == term {
			if !consume {
				r.Restore(snap)
			}
			return out, nil
		}
		out = append(out, byte(b))
	}
}

func init() {
	DefaultRegistry.Register(KindStringFixed, stringFixedCodec{})
	DefaultRegistry.Register(KindStringTerminated, stringTerminatedCodec{})
}
