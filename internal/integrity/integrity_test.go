package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/txtshelf/internal/types"
)

func TestCount(t *testing.T) {
	c := Count("第一章 晨\n内容A1。 Hello, world!\n")
	assert.Equal(t, Counts{CJK: 6, Latin: 12, Punctuation: 3, Total: 21}, c)
}

func TestComparePasses(t *testing.T) {
	text := "第一章 晨\n内容A。\n第二章 昏\n内容B。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "第一章 晨", Content: "内容A。"},
		{Title: "第二章 昏", Content: "内容B。"},
	}}}

	r := Compare(text, volumes)
	assert.True(t, r.Passed)
	assert.Equal(t, r.Original, r.Converted)
	assert.Zero(t, r.TotalLoss)
}

func TestCompareIgnoresSyntheticTitles(t *testing.T) {
	text := "只是一段文字。"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "正文", Content: text, Synthetic: true},
	}}}

	r := Compare(text, volumes)
	assert.True(t, r.Passed)
	assert.Equal(t, r.Original.Total, r.Converted.Total)
}

func TestCompareDetectsLoss(t *testing.T) {
	text := "第一章 晨\n内容A。\n第二章 昏\n内容B。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "第一章 晨", Content: "内容A。"},
	}}}

	r := Compare(text, volumes)
	require.False(t, r.Passed)
	assert.Greater(t, r.CJKLoss, MaxCJKLoss)
	assert.Greater(t, r.TotalLoss, MaxTotalLoss)
}

func TestFlattenSections(t *testing.T) {
	volumes := []types.Volume{{Title: "第一卷", Chapters: []types.Chapter{{
		Title: "第一章",
		Sections: []types.Section{
			{Title: "章节前言", Content: "引子", Synthetic: true},
			{Title: "第一节", Content: "正文"},
		},
	}}}}
	assert.Equal(t, "第一卷\n第一章\n引子\n第一节\n正文", Flatten(volumes))
}

func TestCompareEmpty(t *testing.T) {
	r := Compare("", nil)
	assert.True(t, r.Passed)
}
