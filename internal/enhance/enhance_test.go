package enhance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/txtshelf/internal/checkpoint"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

type stubGenerator struct {
	titles  map[int]GeneratedTitle
	err     error
	batches [][]TitleRequest
	singles []TitleRequest
}

func (s *stubGenerator) GenerateTitles(_ context.Context, _ types.Language, reqs []TitleRequest) ([]GeneratedTitle, error) {
	s.batches = append(s.batches, reqs)
	if s.err != nil {
		return nil, s.err
	}
	var out []GeneratedTitle
	for _, r := range reqs {
		if t, ok := s.titles[r.Index]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubGenerator) GenerateTitle(_ context.Context, _ types.Language, req TitleRequest) (GeneratedTitle, error) {
	s.singles = append(s.singles, req)
	if s.err != nil {
		return GeneratedTitle{}, s.err
	}
	return s.titles[req.Index], nil
}

type recorder struct{ percents []int }

func (r *recorder) ReportProgress(p int) { r.percents = append(r.percents, p) }

func zhVolumes() []types.Volume {
	return []types.Volume{{Chapters: []types.Chapter{
		{Title: "前言", Content: "序。", Synthetic: true},
		{Title: "第一章", Content: "清晨的集市。人声鼎沸，热闹非凡。"},
		{Title: "第二章 夜行", Content: "夜里。"},
		{Title: "第三章", Content: "“你好。”他说。\n山路崎岖难行"},
	}}}
}

func TestEnhanceWithGenerator(t *testing.T) {
	gen := &stubGenerator{titles: map[int]GeneratedTitle{
		1: {Index: 1, Title: "集市", Confidence: 0.9},
		3: {Index: 3, Title: "山路", Confidence: 0.4},
	}}
	progress := &recorder{}

	e := New(patterns.Chinese(), gen, Options{BatchSize: 50})
	out, stats := e.Enhance(context.Background(), zhVolumes(), nil, progress)

	require.Len(t, gen.batches, 1)
	assert.Len(t, gen.batches[0], 2)
	assert.Equal(t, "第一章", gen.batches[0][0].Number)

	chapters := out[0].Chapters
	assert.Equal(t, "前言", chapters[0].Title)
	assert.Equal(t, "第一章 集市", chapters[1].Title)
	assert.Equal(t, "第二章 夜行", chapters[2].Title)
	assert.Equal(t, "第三章", chapters[3].Title, "low confidence keeps the marker")

	assert.Equal(t, Stats{Simple: 2, Generated: 1, Failed: 1}, stats)
	assert.Equal(t, []int{27, 50, 72, 95}, progress.percents)
}

type fixedGenerator struct{ results []GeneratedTitle }

func (f fixedGenerator) GenerateTitles(context.Context, types.Language, []TitleRequest) ([]GeneratedTitle, error) {
	return f.results, nil
}

func (f fixedGenerator) GenerateTitle(context.Context, types.Language, TitleRequest) (GeneratedTitle, error) {
	return f.results[0], nil
}

func TestEnhanceDuplicateResultsCountOnce(t *testing.T) {
	gen := fixedGenerator{results: []GeneratedTitle{
		{Index: 1, Title: "集市", Confidence: 0.9},
		{Index: 1, Title: "又是集市", Confidence: 0.9},
		{Index: 1, Title: "还是集市", Confidence: 0.9},
		{Index: 7, Title: "不存在", Confidence: 0.9},
	}}

	out, stats := New(patterns.Chinese(), gen, Options{BatchSize: 50}).Enhance(context.Background(), zhVolumes(), nil, nil)

	assert.Equal(t, "第一章 集市", out[0].Chapters[1].Title)
	assert.Equal(t, "第三章", out[0].Chapters[3].Title)
	assert.Equal(t, Stats{Simple: 2, Generated: 1, Failed: 1}, stats)
}

func TestEnhanceBatching(t *testing.T) {
	var chapters []types.Chapter
	for range 5 {
		chapters = append(chapters, types.Chapter{Title: "第一章", Content: "正文。"})
	}
	gen := &stubGenerator{}
	e := New(patterns.Chinese(), gen, Options{BatchSize: 2})
	e.Enhance(context.Background(), []types.Volume{{Chapters: chapters}}, nil, nil)

	require.Len(t, gen.batches, 2)
	assert.Len(t, gen.batches[0], 2)
	assert.Len(t, gen.batches[1], 2)
	require.Len(t, gen.singles, 1)
	assert.Equal(t, 4, gen.singles[0].Index)
}

func TestEnhanceGeneratorFailureKeepsMarkers(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	e := New(patterns.Chinese(), gen, Options{})
	in := zhVolumes()
	out, stats := e.Enhance(context.Background(), in, nil, nil)

	assert.Equal(t, in, out)
	assert.Equal(t, 2, stats.Failed)
}

func TestEnhanceRuleExtraction(t *testing.T) {
	e := New(patterns.Chinese(), nil, Options{})
	out, stats := e.Enhance(context.Background(), zhVolumes(), nil, nil)

	assert.Equal(t, "第一章 清晨的集市", out[0].Chapters[1].Title)
	assert.Equal(t, "第三章 山路崎岖难行", out[0].Chapters[3].Title)
	assert.Equal(t, 2, stats.Extracted)
}

func TestEnhanceEnglishCombine(t *testing.T) {
	gen := &stubGenerator{titles: map[int]GeneratedTitle{0: {Index: 0, Title: "The Storm", Confidence: 0.8}}}
	e := New(patterns.English(), gen, Options{})
	out, _ := e.Enhance(context.Background(), []types.Volume{{Chapters: []types.Chapter{
		{Title: "Chapter 1", Content: "Rain fell."},
	}}}, nil, nil)
	assert.Equal(t, "Chapter 1: The Storm", out[0].Chapters[0].Title)
}

func TestEnhanceResumesFromCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".book_resume.json")
	cp := checkpoint.Open(path, "fp", checkpoint.Options{BatchSize: 1})
	require.NoError(t, cp.Mark(1, "第一章 旧标题"))

	gen := &stubGenerator{titles: map[int]GeneratedTitle{3: {Index: 3, Title: "山路", Confidence: 0.9}}}
	e := New(patterns.Chinese(), gen, Options{})
	out, stats := e.Enhance(context.Background(), zhVolumes(), cp, nil)

	require.Len(t, gen.singles, 1, "only the unprocessed simple chapter is requested")
	assert.Equal(t, 3, gen.singles[0].Index)
	assert.Equal(t, "第一章 旧标题", out[0].Chapters[1].Title)
	assert.Equal(t, "第三章 山路", out[0].Chapters[3].Title)
	assert.Equal(t, 1, stats.Restored)

	for i := range 4 {
		assert.True(t, cp.IsProcessed(i))
	}
	title, _ := cp.Title(3)
	assert.Equal(t, "第三章 山路", title)
	assert.Equal(t, 4, cp.State().TotalChapters)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		body string
		lang types.Language
		want string
	}{
		{"话说天下大势。分久必合。", types.Chinese, "天下大势"},
		{"“快走！”\n风雪夜归人", types.Chinese, "风雪夜归人"},
		{"这是一个非常非常非常非常长的句子没有任何标点符号可以切分它", types.Chinese, ""},
		{"", types.Chinese, ""},
		{"\"Run!\" she said. The storm came early.", types.English, "The storm came early"},
		{"It was a dark and stormy night, and the rain fell in torrents across the city.", types.English, "It was a dark and stormy night"},
		{"Yes.", types.English, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Extract(tt.body, tt.lang), tt.body)
	}
}
