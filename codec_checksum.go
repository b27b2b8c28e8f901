package canopy

// checksumCodec is registered under KindChecksum for completeness with the
// CodecRegistry contract (spec §4.3 lists Checksum among the built-in
// kinds), but the parser never dispatches a checksum field through it: the
// checksum's span isn't known until every other field has been read or
// written, so Parser.Decode/Parser.Encode compute and verify/patch it
// directly (checksum.go, parser.go) once the full body is available.
// Decode/Encode here exist only so a caller who looks the kind up directly
// gets a defined (if unused) behavior rather than a registry miss.
type checksumCodec struct{}

func (checksumCodec) Decode(b Binding, dc *DecodeContext) (any, error) {
	cb := b.(ChecksumBinding)
	raw, err := dc.Reader.ReadBits(uint8(cb.Bits))
	if err != nil {
		return nil, err
	}
	return DecodeUnsignedInt(raw, uint8(cb.Bits), cb.Order), nil
}

func (checksumCodec) Encode(b Binding, value any, ec *EncodeContext) error {
	cb := b.(ChecksumBinding)
	v, _ := toUint64(value)
	return ec.Writer.WriteBits(EncodeUnsignedInt(v, uint8(cb.Bits), cb.Order), uint8(cb.Bits))
}

func init() {
	DefaultRegistry.Register(KindChecksum, checksumCodec{})
}
