package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Encoding names reported in Result.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
	EncodingGB18030 = "gb18030"
	EncodingLatin1  = "latin1"
)

// maxReplacementRatio is the share of U+FFFD above which a decoding is
// considered wrong.
const maxReplacementRatio = 0.1

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

type candidate struct {
	name string
	enc  encoding.Encoding // nil means UTF-8
}

// fallbacks are tried in order when the input is not valid UTF-8.
var fallbacks = []candidate{
	{EncodingGB18030, simplifiedchinese.GB18030},
	{EncodingUTF8, nil},
	{EncodingLatin1, charmap.ISO8859_1},
}

// Decode converts raw file bytes to normalized text and reports the
// encoding that was used.
func Decode(raw []byte) (string, string) {
	text, name := decode(raw)
	return Normalize(text), name
}

func decode(raw []byte) (string, string) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return strings.ToValidUTF8(string(raw[len(bomUTF8):]), "\uFFFD"), EncodingUTF8
	case bytes.HasPrefix(raw, bomUTF16LE):
		if s, ok := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), raw); ok {
			return s, EncodingUTF16LE
		}
	case bytes.HasPrefix(raw, bomUTF16BE):
		if s, ok := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), raw); ok {
			return s, EncodingUTF16BE
		}
	}
	if utf8.Valid(raw) {
		return string(raw), EncodingUTF8
	}

	for _, c := range fallbacks {
		var s string
		if c.enc == nil {
			s = strings.ToValidUTF8(string(raw), "\uFFFD")
		} else {
			var ok bool
			if s, ok = decodeWith(c.enc, raw); !ok {
				continue
			}
		}
		if replacementRatio(s) < maxReplacementRatio {
			return s, c.name
		}
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), EncodingUTF8
}

func decodeWith(enc encoding.Encoding, raw []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func replacementRatio(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return float64(strings.Count(s, "\uFFFD")) / float64(n)
}

// Normalize converts line endings to LF, drops a leading BOM and applies
// Unicode NFC.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
