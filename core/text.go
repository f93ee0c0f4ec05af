package core

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Text decodes a PDF text string for display.
//
// Strings starting with a UTF-16 (either byte order) or UTF-8 byte order mark
// are decoded accordingly. Anything else is treated as PDFDocEncoding, which
// agrees with Latin-1 for every printable code outside 0x80-0x9F. Byte strings
// that cannot be decoded are returned unchanged.
func (s String) Text() string {
	if isASCII(s) {
		return string(s)
	}
	decoder := unicode.BOMOverride(charmap.ISO8859_1.NewDecoder())
	out, _, err := transform.String(decoder, string(s))
	if err != nil {
		return string(s)
	}
	return out
}

// IsUnicode reports whether the string carries a UTF-16 byte order mark.
func (s String) IsUnicode() bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == 0xFE && s[1] == 0xFF) || (s[0] == 0xFF && s[1] == 0xFE)
}

func isASCII(s String) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
