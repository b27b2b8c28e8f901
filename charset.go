package canopy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// charsetEncoding resolves the charset names a Header or a string binding
// may declare (spec §3, §4.1 read_text) to a golang.org/x/text Encoding.
// ASCII and UTF-8 bypass the encoding machinery entirely: they are already
// the wire format a Go string uses internally, so decoding them is a plain
// byte copy (mirroring glint.Reader.ReadString's fast path for the common
// case, reader.go).
func charsetEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "US-ASCII", "ASCII", "UTF-8", "UTF8":
		return nil, nil
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15", "LATIN9":
		return charmap.ISO8859_15, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "UTF-16BE":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "UTF-16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	default:
		return nil, fmt.Errorf("unknown charset %q", name)
	}
}

// decodeText converts raw bytes read off the wire into a string under the
// named charset.
func decodeText(raw []byte, charsetName string) (string, error) {
	enc, err := charsetEncoding(charsetName)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		// Declared ASCII/UTF-8 but the bytes aren't valid UTF-8: still
		// return the bytes verbatim rather than replacing them, since a
		// carrier may legitimately round-trip opaque byte payloads tagged
		// as text.
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeText converts a string into raw wire bytes under the named
// charset.
func encodeText(s string, charsetName string) ([]byte, error) {
	enc, err := charsetEncoding(charsetName)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(s), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}
