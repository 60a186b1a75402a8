package replay

import (
	"bytes"
	"unicode/utf8"
)

// turkishOverrides is the curated Windows-1254 subset used by the
// fallback decoder. Bytes outside this table and above 0x7F decode as
// Latin-1; the table is deliberately not a full code-page mapping.
var turkishOverrides = map[byte]rune{
	0x80: '€', // euro sign
	0x8A: 'Ş', // S with cedilla
	0x8C: 'Œ', // OE
	0x9A: 'ş', // s with cedilla
	0x9C: 'œ', // oe
	0x9F: 'Ÿ', // Y with diaeresis
	0xC7: 'Ç', // C with cedilla
	0xD0: 'Ğ', // G with breve
	0xDD: 'İ', // I with dot above
	0xDE: 'Ş', // S with cedilla
	0xE7: 'ç', // c with cedilla
	0xF0: 'ğ', // g with breve
	0xFD: 'ı', // dotless i
	0xFE: 'ş', // s with cedilla
}

// decodeText decodes header bytes as UTF-8, falling back to a per-byte
// Turkish/Latin interpretation when the span is not valid UTF-8. ASCII
// bytes always pass through unchanged, never as replacement characters.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb bytes.Buffer
	sb.Grow(len(b))
	for _, c := range b {
		switch {
		case c < 0x80:
			sb.WriteByte(c)
		default:
			if r, ok := turkishOverrides[c]; ok {
				sb.WriteRune(r)
			} else {
				// Latin-1: byte value is the code point.
				sb.WriteRune(rune(c))
			}
		}
	}
	return sb.String()
}

// nextMarker returns the index of marker in data at or after from, or -1.
func nextMarker(data, marker []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	i := bytes.Index(data[from:], marker)
	if i < 0 {
		return -1
	}
	return from + i
}
