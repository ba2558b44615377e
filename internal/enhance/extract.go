package enhance

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/types"
)

var (
	zhOpening   = regexp.MustCompile(`^(?:话说|且说|却说|正是|正所谓|古人云|俗语说)[\s　]*`)
	zhSentences = regexp.MustCompile(`[。！？；!?;\n]`)
	zhClauses   = regexp.MustCompile(`[，,、：:]`)
	enSentences = regexp.MustCompile(`[.!?;\n]`)
)

const (
	zhMinRunes = 2
	zhMaxRunes = 15
	enMaxWords = 8
)

// Extract picks a short title from the first meaningful sentence of a
// chapter body. Dialogue is skipped. It returns "" when nothing fits.
func Extract(body string, lang types.Language) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if lang == types.Chinese {
		return extractChinese(zhOpening.ReplaceAllString(body, ""))
	}
	return extractEnglish(body)
}

func extractChinese(body string) string {
	for _, s := range zhSentences.Split(body, -1) {
		s = strings.TrimSpace(s)
		if s == "" || isDialogue(s) {
			continue
		}
		if n := utf8.RuneCountInString(s); n >= zhMinRunes && n <= zhMaxRunes {
			return s
		}
		clause := strings.TrimSpace(zhClauses.Split(s, 2)[0])
		if n := utf8.RuneCountInString(clause); n >= zhMinRunes && n <= zhMaxRunes {
			return clause
		}
	}
	return ""
}

func extractEnglish(body string) string {
	for _, s := range enSentences.Split(body, -1) {
		s = strings.TrimSpace(s)
		if s == "" || isDialogue(s) {
			continue
		}
		words := strings.Fields(s)
		if len(words) >= 2 && len(words) <= enMaxWords {
			return strings.Join(words, " ")
		}
		if i := strings.IndexAny(s, ",:"); i > 0 {
			words = strings.Fields(s[:i])
			if len(words) >= 2 && len(words) <= enMaxWords {
				return strings.Join(words, " ")
			}
		}
	}
	return ""
}

// isDialogue reports whether a fragment opens or closes a quotation.
func isDialogue(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	switch r {
	case '"', '\'', '“', '‘', '「', '『', '”', '’', '」', '』', '—':
		return true
	}
	return false
}
