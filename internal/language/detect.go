// Package language classifies a document as Chinese or English from
// script and structural keyword statistics.
package language

import (
	"strings"

	"github.com/jackzampolin/txtshelf/internal/types"
)

var (
	chineseKeywords = []string{"第", "章", "节", "卷", "部", "篇", "序言", "前言", "目录"}
	englishKeywords = []string{"chapter", "section", "part", "book", "volume", "contents", "preface", "introduction"}
)

// Stats are the counts the decision is based on.
type Stats struct {
	CJK             int `json:"cjk"`
	Latin           int `json:"latin"`
	ChineseKeywords int `json:"chinese_keywords"`
	EnglishKeywords int `json:"english_keywords"`
}

// Count gathers detection statistics for text.
func Count(text string) Stats {
	var s Stats
	for _, r := range text {
		switch {
		case r >= 0x4e00 && r <= 0x9fff:
			s.CJK++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			s.Latin++
		}
	}
	for _, kw := range chineseKeywords {
		s.ChineseKeywords += strings.Count(text, kw)
	}
	lower := strings.ToLower(text)
	for _, kw := range englishKeywords {
		s.EnglishKeywords += strings.Count(lower, kw)
	}
	return s
}

// Language applies the decision rule to the statistics.
func (s Stats) Language() types.Language {
	if float64(s.CJK) > float64(s.Latin)*0.5 || s.ChineseKeywords > s.EnglishKeywords {
		return types.Chinese
	}
	return types.English
}

// Detect returns the language of text. Empty or whitespace-only input is
// treated as Chinese.
func Detect(text string) types.Language {
	if strings.TrimSpace(text) == "" {
		return types.Chinese
	}
	return Count(text).Language()
}
