package patterns

import (
	"testing"

	"github.com/jackzampolin/txtshelf/internal/types"
)

func TestChineseMatchLine(t *testing.T) {
	set := Chinese()

	tests := []struct {
		name   string
		kind   types.BoundaryKind
		line   string
		want   bool
		head   string
		marker string
	}{
		{"chapter with title", types.KindChapter, "第三章 夜行", true, "第三章 夜行", "第三章"},
		{"chapter digits", types.KindChapter, "第12章：风起", true, "第12章：风起", "第12章"},
		{"chapter indented", types.KindChapter, "　　第一章 晨  ", true, "第一章 晨", "第一章"},
		{"chapter bare", types.KindChapter, "第一百零一章", true, "第一百零一章", "第一百零一章"},
		{"special chapter", types.KindChapter, "楔子", true, "楔子", "楔子"},
		{"special with title", types.KindChapter, "番外篇 旧事", true, "番外篇 旧事", "番外篇"},
		{"chapter in prose", types.KindChapter, "他想起第三章里的事情。", false, "", ""},
		{"chapter followed by sentence", types.KindChapter, "第三章 他走了，再也没有回来。", false, "", ""},
		{"reference mid line", types.KindChapter, "正如见第三章", false, "", ""},
		{"special prefix of word", types.KindChapter, "后记得他说过", false, "", ""},
		{"volume", types.KindVolume, "第一卷 风起云涌", true, "第一卷 风起云涌", "第一卷"},
		{"volume part", types.KindVolume, "第二部", true, "第二部", "第二部"},
		{"not a volume", types.KindVolume, "第一部分内容", false, "", ""},
		{"section", types.KindSection, "第二节 相遇", true, "第二节 相遇", "第二节"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, ok := set.MatchLine(tt.kind, tt.line, true)
			if ok != tt.want {
				t.Fatalf("MatchLine(%q) ok = %v, want %v", tt.line, ok, tt.want)
			}
			if !ok {
				return
			}
			if m.Heading != tt.head {
				t.Errorf("Heading = %q, want %q", m.Heading, tt.head)
			}
			if m.Marker != tt.marker {
				t.Errorf("Marker = %q, want %q", m.Marker, tt.marker)
			}
			if tt.line[m.Start:m.End] != m.Heading {
				t.Errorf("offsets [%d:%d] = %q, want %q", m.Start, m.End, tt.line[m.Start:m.End], m.Heading)
			}
		})
	}
}

func TestEnglishMatchLine(t *testing.T) {
	set := English()

	tests := []struct {
		name string
		kind types.BoundaryKind
		line string
		want bool
	}{
		{"chapter number", types.KindChapter, "Chapter 1", true},
		{"chapter roman with title", types.KindChapter, "CHAPTER IV: The Storm", true},
		{"chapter word", types.KindChapter, "Chapter Twenty-One", true},
		{"chapter spaced title", types.KindChapter, "Chapter 3 The Long Road", true},
		{"abbreviated", types.KindChapter, "Ch. 7", true},
		{"prologue", types.KindChapter, "Prologue", true},
		{"sentence", types.KindChapter, "Chapter 3 ends with a twist.", false},
		{"prose", types.KindChapter, "As we saw in Chapter 3, the plan failed.", false},
		{"volume", types.KindVolume, "Part II", true},
		{"volume word", types.KindVolume, "Book One: Arrival", true},
		{"not volume", types.KindVolume, "Part of the problem", false},
		{"section", types.KindSection, "Section 2.1 Methods", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := set.MatchLine(tt.kind, tt.line, false)
			if ok != tt.want {
				t.Errorf("MatchLine(%q) = %v, want %v", tt.line, ok, tt.want)
			}
		})
	}
}

func TestEnglishNumberedSectionIsFallback(t *testing.T) {
	set := English()
	if _, _, ok := set.MatchLine(types.KindSection, "1.2 Background", false); ok {
		t.Error("numbered section matched without fallback")
	}
	if _, _, ok := set.MatchLine(types.KindSection, "1.2 Background", true); !ok {
		t.Error("numbered section did not match with fallback")
	}
	if _, _, ok := set.MatchLine(types.KindSection, "3.5 million people lived there.", true); ok {
		t.Error("sentence matched as numbered section")
	}
	if !set.HasFallback(types.KindSection) || set.HasFallback(types.KindChapter) {
		t.Error("unexpected HasFallback result")
	}
}

func TestKeywords(t *testing.T) {
	zh, en := Chinese(), English()

	if !zh.IsTOCKeyword("  目录 ") || zh.IsTOCKeyword("目录页") {
		t.Error("Chinese TOC keyword detection wrong")
	}
	if !en.IsTOCKeyword("table of contents") || !en.IsTOCKeyword("CONTENTS") {
		t.Error("English TOC keyword detection should ignore case")
	}
	if !zh.IsPrefaceKeyword("序言") || !en.IsPrefaceKeyword("Foreword") {
		t.Error("preface keyword detection wrong")
	}
}

func TestIsSimpleTitle(t *testing.T) {
	zh, en := Chinese(), English()

	for _, title := range []string{"第一章", "第12章", "第七章 "} {
		if !zh.IsSimpleTitle(title) {
			t.Errorf("zh IsSimpleTitle(%q) = false", title)
		}
	}
	for _, title := range []string{"第一章 晨光初现", "楔子", ""} {
		if zh.IsSimpleTitle(title) {
			t.Errorf("zh IsSimpleTitle(%q) = true", title)
		}
	}
	for _, title := range []string{"Chapter 7", "chapter iv", "Ch. 3", "12"} {
		if !en.IsSimpleTitle(title) {
			t.Errorf("en IsSimpleTitle(%q) = false", title)
		}
	}
	if en.IsSimpleTitle("Chapter 7: The Storm") {
		t.Error("titled chapter reported as simple")
	}
}

func TestSplitHeading(t *testing.T) {
	marker, rest, ok := Chinese().SplitHeading(types.KindChapter, "第三章：夜行")
	if !ok || marker != "第三章" || rest != "夜行" {
		t.Errorf("SplitHeading = %q, %q, %v", marker, rest, ok)
	}
	marker, rest, ok = English().SplitHeading(types.KindChapter, "Chapter 3 - The Road")
	if !ok || marker != "Chapter 3" || rest != "The Road" {
		t.Errorf("SplitHeading = %q, %q, %v", marker, rest, ok)
	}
}

func TestWithCustom(t *testing.T) {
	set := Chinese().WithCustom(Custom{
		Chapter:         []string{`卷[0-9]+之[0-9]+`, `([unclosed`},
		SpecialChapters: []string{"引子"},
		Ignore:          []string{`广告`, `(bad`},
	}, nil)

	if _, r, ok := set.MatchLine(types.KindChapter, "卷1之2", false); !ok || r.Name != "custom.chapter" {
		t.Errorf("custom chapter rule not applied: ok=%v rule=%q", ok, r.Name)
	}
	if _, _, ok := set.MatchLine(types.KindChapter, "引子 开端", false); !ok {
		t.Error("custom special chapter keyword not applied")
	}
	if _, _, ok := set.MatchLine(types.KindChapter, "第一章 晨", false); !ok {
		t.Error("built-in rule lost after adding custom patterns")
	}
	if !set.Ignored("第九章 广告时间") {
		t.Error("ignore pattern not applied")
	}

	base := Chinese()
	if len(base.Rules(types.KindChapter)) != 2 || base.Ignored("广告") {
		t.Error("WithCustom modified a fresh set")
	}
}

func TestForLanguage(t *testing.T) {
	if ForLanguage(types.English).Language != types.English {
		t.Error("ForLanguage(english) returned wrong set")
	}
	if ForLanguage(types.Chinese).Language != types.Chinese {
		t.Error("ForLanguage(chinese) returned wrong set")
	}
}

func TestWeaklyReferenced(t *testing.T) {
	tests := []struct {
		set    *Set
		before string
		title  string
		want   bool
	}{
		{Chinese(), "正如前文所说，在", "第三章", true},
		{Chinese(), "他说在第", "第三章", false},
		{Chinese(), "", "第三章", false},
		{Chinese(), "内容。\n", "第三章", false},
		{English(), "as described in ", "Chapter 3", true},
		{English(), "The end.\n", "Chapter 3", false},
	}
	for _, tt := range tests {
		if got := tt.set.WeaklyReferenced(tt.before, tt.title); got != tt.want {
			t.Errorf("WeaklyReferenced(%q, %q) = %v, want %v", tt.before, tt.title, got, tt.want)
		}
	}
}
