package confidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/segment"
	"github.com/jackzampolin/txtshelf/internal/types"
)

func TestScore(t *testing.T) {
	e := New(patterns.Chinese(), 0)
	long := 600
	tests := []struct {
		name   string
		title  string
		length int
		before string
		want   float64
	}{
		{"canonical full chapter", "第一章 风起云涌", long, "", 1.0},
		{"short title short body", "第一章", 10, "", 0.4},
		{"medium body no bonus", "第一章 风起云涌", 200, "", 0.85},
		{"reference before", "第一章 风起云涌", long, "他说在", 0.7},
		{"non canonical", "楔子 风起云涌时", long, "", 0.9},
		{"clamped low", "第x", 0, "见", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.Score(tt.title, tt.length, tt.before), 1e-9)
		})
	}
}

func TestEstimate(t *testing.T) {
	body := strings.Repeat("字", 600)
	text := "第一章 风起云涌\n" + body + "\n第二章 短\n短。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "第一章 风起云涌", Content: body},
		{Title: "第二章 短", Content: "短。"},
	}}}

	r := New(patterns.Chinese(), 0).Estimate(text, volumes)
	require.Len(t, r.Chapters, 2)
	assert.InDelta(t, 1.0, r.Chapters[0].Score, 1e-9)
	assert.Equal(t, 0, r.Chapters[0].Position)
	assert.Equal(t, 1, r.Chapters[0].Line)

	// 0.6 + 0.15 (5 runes) - 0.2 + 0.1
	assert.InDelta(t, 0.65, r.Chapters[1].Score, 1e-9)
	assert.Equal(t, 3, r.Chapters[1].Line)
	assert.True(t, r.Chapters[1].Uncertain)

	assert.Equal(t, []int{1}, r.Uncertain)
	assert.InDelta(t, 0.825, r.Overall, 1e-9)
	assert.Equal(t, "第二章 短", r.UncertainChapters()[0].Title)
}

func TestEstimateCursorAdvances(t *testing.T) {
	// the title appears in the preface as prose; the cursor must resolve
	// the second chapter after the first one
	text := "第一章 甲\n内容\n第二章 乙\n内容\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "前言", Synthetic: true, Content: "x"},
		{Title: "第一章 甲", Content: "内容"},
		{Title: "第二章 乙", Content: "内容"},
	}}}
	r := New(patterns.Chinese(), 0).Estimate(text, volumes)
	assert.Equal(t, -1, r.Chapters[0].Position)
	assert.Equal(t, 0, r.Chapters[1].Position)
	assert.Equal(t, strings.Index(text, "第二章"), r.Chapters[2].Position)
}

// referencedEarly is a document whose second chapter title first appears
// inside the prose of chapter one.
func referencedEarly() string {
	body := strings.Repeat("字", 600)
	return "第一章 晨\n" + body + "详见第二章。\n" + body + "\n第二章\n" + body
}

func TestEstimateUsesMatchedHeading(t *testing.T) {
	text := referencedEarly()
	set := patterns.Chinese()
	volumes := segment.New(boundary.NewScanner(set, boundary.Options{Validate: true}), segment.Options{}).Segment(text)
	require.Len(t, volumes[0].Chapters, 2)

	r := New(set, 0).Estimate(text, volumes)
	ch := r.Chapters[1]
	assert.Equal(t, "第二章", ch.Title)
	assert.Equal(t, strings.LastIndex(text, "第二章"), ch.Position)
	assert.Equal(t, 4, ch.Line)
	// 0.6 - 0.1 (3 runes) + 0.15 + 0.1, no reference penalty
	assert.InDelta(t, 0.75, ch.Score, 1e-9)
	assert.False(t, ch.Uncertain)
	assert.Empty(t, r.Uncertain)
}

func TestEstimateSearchSkipsInlineTitle(t *testing.T) {
	text := referencedEarly()
	body := strings.Repeat("字", 600)
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "第一章 晨", Content: body + "详见第二章。\n" + body},
		{Title: "第二章", Content: body},
	}}}

	r := New(patterns.Chinese(), 0).Estimate(text, volumes)
	assert.Equal(t, strings.LastIndex(text, "第二章"), r.Chapters[1].Position)
	assert.Equal(t, 4, r.Chapters[1].Line)
	assert.False(t, r.Chapters[1].Uncertain)
}

func TestEstimateEmpty(t *testing.T) {
	r := New(patterns.English(), 0).Estimate("", nil)
	assert.Empty(t, r.Chapters)
	assert.Zero(t, r.Overall)
}
