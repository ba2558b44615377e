package boundary

import "strings"

// Line is one physical line of a text with its byte offset.
type Line struct {
	Text   string // without the trailing line break
	Start  int    // byte offset of the first byte of the line
	Number int    // 1-based
}

// End returns the byte offset just past the line's text.
func (l Line) End() int {
	return l.Start + len(l.Text)
}

// SplitLines splits text on '\n', keeping byte offsets. A trailing '\r'
// stays part of the line text. A text ending in '\n' yields a final empty line.
func SplitLines(text string) []Line {
	lines := make([]Line, 0, strings.Count(text, "\n")+1)
	start, n := 0, 1
	for {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			lines = append(lines, Line{Text: text[start:], Start: start, Number: n})
			return lines
		}
		lines = append(lines, Line{Text: text[start : start+i], Start: start, Number: n})
		start += i + 1
		n++
	}
}

// LineNumber returns the 1-based line number of a byte offset.
func LineNumber(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

// lastRunes returns at most n runes from the end of s.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		i--
		for i > 0 && !runeStart(s[i]) {
			i--
		}
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}

// firstRunes returns at most n runes from the start of s.
func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
