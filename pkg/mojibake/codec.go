package mojibake

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrUnencodable is returned by Encode when text holds a rune the
	// encoding cannot represent.
	ErrUnencodable = errors.New("rune not representable in encoding")

	// ErrLossyDecode is returned by Decode when the decoder substituted
	// U+FFFD for bytes it could not map.
	ErrLossyDecode = errors.New("decoder replaced bytes with U+FFFD")
)

var replacement = []byte(string(utf8.RuneError))

// Decode decodes b from enc to UTF-8.
//
// Single-byte charmaps are decoded byte by byte and never lose data: a byte
// the charmap leaves undefined (0x81, 0x8D, 0x8F, 0x90 and 0x9D in
// Windows-1252) becomes the rune with the same value, a C1 control, so
// Encode gives b back. Other encodings go through the x/text decoder and
// fail with ErrLossyDecode instead of substituting U+FFFD.
func Decode(enc encoding.Encoding, b []byte) (string, error) {
	if cm, ok := enc.(*charmap.Charmap); ok {
		var sb strings.Builder
		sb.Grow(len(b) + len(b)/2)
		for _, c := range b {
			r := cm.DecodeByte(c)
			if r == utf8.RuneError {
				r = rune(c)
			}
			sb.WriteRune(r)
		}
		return sb.String(), nil
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	if bytes.Contains(out, replacement) && !bytes.Contains(b, replacement) {
		return "", ErrLossyDecode
	}
	return string(out), nil
}

// Encode is the inverse of Decode. For single-byte charmaps a rune in
// U+0080..U+00FF whose byte the charmap leaves undefined encodes to that
// byte.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	cm, ok := enc.(*charmap.Charmap)
	if !ok {
		out, err := enc.NewEncoder().String(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
		}
		return []byte(out), nil
	}

	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := cm.EncodeRune(r)
		if !ok && r >= 0x80 && r <= 0xFF && cm.DecodeByte(byte(r)) == utf8.RuneError {
			b, ok = byte(r), true
		}
		if !ok || r == utf8.RuneError {
			return nil, fmt.Errorf("%w: %U", ErrUnencodable, r)
		}
		out = append(out, b)
	}
	return out, nil
}
