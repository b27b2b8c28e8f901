package canopy

// Header is a carrier's declared wire preamble (spec §3 "Message carrier",
// §6 "Header format"): one or more candidate start markers, checked in
// declared order under Charset, and an optional end marker verified once a
// template's fields have all been decoded. SPEC_FULL.md's SUPPLEMENTED
// FEATURES section records the matching algorithm spec.md names but never
// pins: first matching start marker wins, and a mismatched header is a
// DecodeError (the schema itself is fine; the data didn't match it), not a
// SchemaError.
type Header struct {
	StartMarkers []string
	EndMarker    string
	Charset      string
}

// matchStart tries each declared start marker in order against r, restoring
// the reader between failed attempts so the next candidate is tried from
// the same position. It returns the matched marker, or a DecodeError if
// none of them did.
func (h Header) matchStart(r *BitReader) (string, error) {
	for _, marker := range h.StartMarkers {
		snap := r.Snapshot()

		raw, err := r.ReadBytes(uint(len(marker)))
		if err != nil {
			r.Restore(snap)
			continue
		}
		text, err := decodeText(raw, h.Charset)
		if err != nil {
			r.Restore(snap)
			continue
		}
		if text == marker {
			return marker, nil
		}
		r.Restore(snap)
	}
	return "", &DecodeError{Reason: "no declared start marker matched the header"}
}

// matchEnd verifies the declared end marker, if any, at the current reader
// position (spec §6 "optional end marker checked at decode completion").
func (h Header) matchEnd(r *BitReader) error {
	if h.EndMarker == "" {
		return nil
	}
	raw, err := r.ReadBytes(uint(len(h.EndMarker)))
	if err != nil {
		return &DecodeError{Reason: "end marker not found before end of data"}
	}
	text, err := decodeText(raw, h.Charset)
	if err != nil {
		return err
	}
	if text != h.EndMarker {
		return &DecodeError{Reason: "end marker did not match"}
	}
	return nil
}

// writeStart writes the header's canonical start marker — the first
// declared candidate — since encode always produces one concrete wire
// layout even when decode is willing to accept several.
func (h Header) writeStart(w *BitWriter) error {
	if len(h.StartMarkers) == 0 {
		return nil
	}
	raw, err := encodeText(h.StartMarkers[0], h.Charset)
	if err != nil {
		return err
	}
	return w.WriteBytes(raw)
}

func (h Header) writeEnd(w *BitWriter) error {
	if h.EndMarker == "" {
		return nil
	}
	raw, err := encodeText(h.EndMarker, h.Charset)
	if err != nil {
		return err
	}
	return w.WriteBytes(raw)
}
