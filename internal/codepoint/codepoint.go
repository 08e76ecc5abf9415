// Package codepoint decodes the two name encodings a hive can use for key
// and value names: legacy Windows-1252 ("compressed") bytes, and
// UTF-16LE. It exists so that every caller — name comparison and the
// public API's string accessors — agrees on exactly one decoding, rather
// than reimplementing the ASCII fast path repeatedly. Name hashing does
// not go through this package: namehash.Hash takes an already decoded
// string.
package codepoint

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// asciiThreshold is the boundary below which Windows-1252 and UTF-8 bytes
// coincide, letting most real-world names skip the charmap decoder.
const asciiThreshold = 0x80

// ErrOddLength indicates a UTF-16LE byte slice had an odd number of bytes.
var ErrOddLength = errors.New("codepoint: odd-length UTF-16LE data")

// Decode converts raw name bytes into a Go string. compressed selects
// Windows-1252 decoding (the "compressed name" flag on NK/VK records);
// otherwise the bytes are treated as UTF-16LE.
func Decode(raw []byte, compressed bool) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if compressed {
		if isASCII(raw) {
			return string(raw), nil
		}
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	if len(raw)%2 != 0 {
		return "", ErrOddLength
	}
	return decodeUTF16LE(raw), nil
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= asciiThreshold {
			return false
		}
	}
	return true
}

// decodeUTF16LE decodes UTF-16LE bytes to UTF-8, handling surrogate pairs.
// The common all-ASCII case (every high byte zero) takes a byte-copy fast
// path rather than building runes one code unit at a time.
func decodeUTF16LE(data []byte) string {
	allASCII := true
	for i := 0; i+1 < len(data); i += 2 {
		if data[i+1] != 0 || data[i] >= asciiThreshold {
			allASCII = false
			break
		}
	}
	if allASCII {
		var b strings.Builder
		b.Grow(len(data) / 2)
		for i := 0; i < len(data); i += 2 {
			b.WriteByte(data[i])
		}
		return b.String()
	}

	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i+1 < len(data); i += 2 {
		r := rune(data[i]) | rune(data[i+1])<<8
		if r >= 0xD800 && r <= 0xDBFF && i+3 < len(data) {
			r2 := rune(data[i+2]) | rune(data[i+3])<<8
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				r = 0x10000 + ((r-0xD800)<<10 | (r2 - 0xDC00))
				i += 2
			}
		}
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		b.WriteRune(r)
	}
	return b.String()
}
