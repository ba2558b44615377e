package patterns

import (
	"regexp"
	"strings"

	"github.com/jackzampolin/txtshelf/internal/types"
)

var enNumberWords = []string{
	"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
	"eighteen", "nineteen", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety", "hundred",
}

var enSpecialChapters = []string{"prologue", "epilogue", "interlude", "afterword"}

const (
	enTens = `(?:twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety)-(?:one|two|three|four|five|six|seven|eight|nine)`

	// A title follows punctuation, or plain whitespace as long as the line
	// does not read like a sentence.
	enTitle = `[ \t]*[:.\-–—][ \t]*[^\r\n]{0,80}|[ \t]+[^\r\n,;!?]{0,79}[^\r\n,;!?.\s]`
)

func enNumber() string {
	return `(?:[IVXLCDM]+|[0-9]{1,4}|(?i:` + enTens + `|` + strings.Join(enNumberWords, "|") + `))`
}

// English returns the pattern set for English documents.
func English() *Set {
	num := enNumber()
	return &Set{
		Language: types.English,
		volume: []Rule{
			{Name: "en.volume", Kind: types.KindVolume, re: heading(`(?i:part|book|volume|vol\.)[ \t]+`+num, enTitle)},
		},
		chapter: []Rule{
			{Name: "en.chapter", Kind: types.KindChapter, re: heading(`(?:(?i:chapter)[ \t]+|(?i:chap|ch)\.[ \t]*)`+num, enTitle)},
			{Name: "en.special", Kind: types.KindChapter, re: heading(`(?i:`+strings.Join(enSpecialChapters, "|")+`)`, enTitle)},
		},
		section: []Rule{
			{Name: "en.section", Kind: types.KindSection, re: heading(`(?i:section|sect\.)[ \t]*(?:[0-9]{1,2}(?:\.[0-9]+)?|(?i:`+strings.Join(enNumberWords[:20], "|")+`))`, enTitle)},
			{Name: "en.numbered", Kind: types.KindSection, Fallback: true, re: heading(`[0-9]{1,2}\.[0-9]{1,2}`, `[ \t]+[^\r\n]{0,59}[^\r\n.\s]`)},
		},
		TOCKeywords:     []string{"Contents", "Table of Contents", "TOC"},
		PrefaceKeywords: []string{"Preface", "Foreword", "Introduction", "Prologue"},
		Labels: Labels{
			DocumentPreface: "Preface",
			VolumePreface:   "Preface",
			ChapterPreface:  "Chapter Preface",
			FallbackChapter: "Content",
			EmptyDocument:   "Empty Document",
		},
		Reference:       regexp.MustCompile(`(?i)\b(?:in|see|from|at|to|of|for|as)[ \t]+(?:chapter|part|book|volume|section)[ \t]+\w+`),
		ReferenceBefore: 30,
		ReferenceWithin: 20,
		ListSeparator:   regexp.MustCompile(`[,;][ \t]*(?i:chapter|part|book|volume|section)[ \t]+\w+`),
		ListBefore:      20,
		ListWithin:      20,
		Continuation:    regexp.MustCompile(`^[ \t]*(?:ends?|ended|of|in|at|where|which|that|was|is|begins?|began|and|to)\b`),
		Canonical:       regexp.MustCompile(`(?i)^chapter\s+[0-9ivxlc]+`),
		WeakReference:   regexp.MustCompile(`(?i)\b(?:in|see|as)\s+chapter\b`),
		simpleTitles: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:chapter|chap\.?|ch\.?)\s*(?:[0-9]+|[ivxlcdm]+|` + enTens + `|` + strings.Join(enNumberWords, "|") + `)\s*[.:]?$`),
			regexp.MustCompile(`^[0-9]+\.?$`),
		},
	}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return `(?:` + strings.Join(quoted, "|") + `)`
}
