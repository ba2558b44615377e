package patterns

import (
	"regexp"

	"github.com/jackzampolin/txtshelf/internal/types"
)

const zhNumerals = `一二三四五六七八九十百千万零〇两壹贰叁肆伍陆柒捌玖拾佰仟萬`

// zhSpecialChapters are headings that stand in for a numbered chapter.
var zhSpecialChapters = []string{"番外篇", "番外", "外传", "特别篇", "插话", "后记", "尾声", "终章", "楔子", "序章"}

const (
	zhSeparator = `(?:[ \t\x{3000}]+|：|:)`
	zhTitle     = zhSeparator + `[^\r\n，。！？；:;,.!?]{0,50}`
)

func zhNumber(digits string) string {
	return `(?:[` + zhNumerals + `]+|[0-9０-９]{1,` + digits + `})`
}

// Chinese returns the pattern set for Chinese documents.
func Chinese() *Set {
	return &Set{
		Language: types.Chinese,
		volume: []Rule{
			{Name: "zh.volume", Kind: types.KindVolume, re: heading(`第`+zhNumber("3")+`[卷部篇]`, zhTitle)},
		},
		chapter: []Rule{
			{Name: "zh.chapter", Kind: types.KindChapter, re: heading(`第`+zhNumber("4")+`章`, zhTitle)},
			{Name: "zh.special", Kind: types.KindChapter, re: heading(alternation(zhSpecialChapters), zhTitle)},
		},
		section: []Rule{
			{Name: "zh.section", Kind: types.KindSection, re: heading(`第`+zhNumber("3")+`节`, zhTitle)},
		},
		TOCKeywords:     []string{"目录", "目 录", "目　录"},
		PrefaceKeywords: []string{"前言", "序", "序言"},
		Labels: Labels{
			DocumentPreface: "前言",
			VolumePreface:   "序言",
			ChapterPreface:  "章节序言",
			FallbackChapter: "正文",
			EmptyDocument:   "空白文档",
		},
		Reference:       regexp.MustCompile(`[在如见到自从正前后于至]第.{0,5}[章节卷部篇]`),
		ReferenceBefore: 20,
		ReferenceWithin: 10,
		ListSeparator:   regexp.MustCompile(`[，,、；;]第.{0,5}[章节卷部篇]`),
		ListBefore:      10,
		ListWithin:      10,
		Continuation:    regexp.MustCompile(`^[ \t\x{3000}]*(?:[结束时中里内]|[，,])`),
		Canonical:       regexp.MustCompile(`^第[` + zhNumerals + `0-9０-９]+章`),
		WeakReference:   regexp.MustCompile(`[在如见]第`),
		simpleTitles: []*regexp.Regexp{
			regexp.MustCompile(`^第[` + zhNumerals + `0-9０-９]+章\s*$`),
		},
	}
}
