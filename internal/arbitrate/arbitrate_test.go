package arbitrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/txtshelf/internal/confidence"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

type stubArbiter struct {
	decisions []Decision
	err       error
	got       *Request
}

func (s *stubArbiter) AnalyzeCandidates(_ context.Context, req Request) ([]Decision, error) {
	s.got = &req
	return s.decisions, s.err
}

// fixture returns a document where the first chapter is confident and the
// other two are short and uncertain.
func fixture() (string, []types.Volume) {
	body := strings.Repeat("字", 600)
	text := "第一章 风起云涌\n" + body + "\n第二章 短\n短。\n第三章 又短\n也短。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "第一章 风起云涌", Content: body},
		{Title: "第二章 短", Content: "短。"},
		{Title: "第三章 又短", Content: "也短。"},
	}}}
	return text, volumes
}

func estimate(text string, volumes []types.Volume) confidence.Report {
	return confidence.New(patterns.Chinese(), 0).Estimate(text, volumes)
}

func TestArbitrateSkippedWhenConfident(t *testing.T) {
	text, volumes := fixture()
	report := estimate(text, volumes)
	arb := &stubArbiter{}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.5})
	out := o.Arbitrate(context.Background(), text, volumes, report)

	assert.False(t, out.Attempted)
	assert.Nil(t, arb.got)
	assert.Equal(t, volumes, out.Volumes)
}

func TestArbitrateNoArbiter(t *testing.T) {
	text, volumes := fixture()
	o := New(nil, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, estimate(text, volumes))
	assert.False(t, out.Attempted)
	assert.Equal(t, volumes, out.Volumes)
}

func TestArbitrateFailOpen(t *testing.T) {
	text, volumes := fixture()
	report := estimate(text, volumes)
	arb := &stubArbiter{err: errors.New("timeout")}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, report)

	assert.True(t, out.Attempted)
	assert.Equal(t, "timeout", out.Error)
	assert.Equal(t, volumes, out.Volumes)
}

func TestArbitrateMergesDecisions(t *testing.T) {
	text, volumes := fixture()
	report := estimate(text, volumes)
	arb := &stubArbiter{decisions: []Decision{
		{IsChapter: false, Confidence: 0.9, Reason: "reference"},
		{IsChapter: true, Confidence: 0.9, SuggestedTitle: "第三章 归来"},
	}}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99, Stats: llmcall.NewStats()})
	out := o.Arbitrate(context.Background(), text, volumes, report)

	require.NotNil(t, arb.got)
	require.Len(t, arb.got.Candidates, 2)
	assert.Equal(t, types.Chinese, arb.got.Language)
	assert.Equal(t, DefaultDocType, arb.got.DocType)
	assert.Equal(t, []ConfirmedChapter{{Title: "第一章 风起云涌", Length: 600}}, arb.got.Confirmed)

	require.Len(t, out.Volumes, 1)
	chapters := out.Volumes[0].Chapters
	require.Len(t, chapters, 2)
	assert.Equal(t, "第一章 风起云涌", chapters[0].Title)
	assert.Equal(t, "第三章 归来", chapters[1].Title)
	assert.Equal(t, "也短。", chapters[1].Content)
	assert.Equal(t, 1, out.Rejected)
	assert.Equal(t, 1, out.Renamed)

	// the input tree is untouched
	assert.Equal(t, "第三章 又短", volumes[0].Chapters[2].Title)
}

func TestArbitrateMissingDecisionsKeep(t *testing.T) {
	text, volumes := fixture()
	arb := &stubArbiter{decisions: []Decision{{IsChapter: true}}}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, estimate(text, volumes))

	assert.Equal(t, volumes, out.Volumes)
	assert.Zero(t, out.Rejected)
	assert.Equal(t, 1, out.Decisions)
}

func TestArbitrateRejectAllKeepsRuleTree(t *testing.T) {
	text := "第一章 短\n短。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{{Title: "第一章 短", Content: "短。"}}}}
	arb := &stubArbiter{decisions: []Decision{{IsChapter: false}}}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, estimate(text, volumes))

	assert.True(t, out.Attempted)
	assert.Equal(t, volumes, out.Volumes)
}

func TestArbitrateKeepsEmptiedVolumeTitle(t *testing.T) {
	body := strings.Repeat("字", 600)
	text := "第一卷\n第一章 短\n短。\n第二卷\n第二章 风起云涌\n" + body + "\n"
	volumes := []types.Volume{
		{Title: "第一卷", Chapters: []types.Chapter{{Title: "第一章 短", Content: "短。"}}},
		{Title: "第二卷", Chapters: []types.Chapter{{Title: "第二章 风起云涌", Content: body}}},
	}
	arb := &stubArbiter{decisions: []Decision{{IsChapter: false}}}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, estimate(text, volumes))

	assert.Equal(t, 1, out.Rejected)
	require.Len(t, out.Volumes, 2)
	assert.Equal(t, "第一卷", out.Volumes[0].Title)
	assert.Equal(t, []types.Chapter{{Title: "序言", Synthetic: true}}, out.Volumes[0].Chapters)
	assert.Equal(t, "第二卷", out.Volumes[1].Title)
	assert.Contains(t, types.Text(out.Volumes), "第一卷")

	// the input tree is untouched
	assert.Equal(t, "第一章 短", volumes[0].Chapters[0].Title)
}

func TestArbitrateDropsEmptiedImplicitVolume(t *testing.T) {
	body := strings.Repeat("字", 600)
	text := "第一章 短\n短。\n第二卷\n第二章 风起云涌\n" + body + "\n"
	volumes := []types.Volume{
		{Chapters: []types.Chapter{{Title: "第一章 短", Content: "短。"}}},
		{Title: "第二卷", Chapters: []types.Chapter{{Title: "第二章 风起云涌", Content: body}}},
	}
	arb := &stubArbiter{decisions: []Decision{{IsChapter: false}}}

	o := New(arb, patterns.Chinese(), Options{Threshold: 0.99})
	out := o.Arbitrate(context.Background(), text, volumes, estimate(text, volumes))

	require.Len(t, out.Volumes, 1)
	assert.Equal(t, "第二卷", out.Volumes[0].Title)
}

func TestCandidates(t *testing.T) {
	text := strings.Repeat("甲", 300) + "正如在\n第二章 短\n短。\n"
	volumes := []types.Volume{{Chapters: []types.Chapter{
		{Title: "前言", Content: "x", Synthetic: true},
		{Title: "第二章 短", Content: "短。"},
	}}}
	report := estimate(text, volumes)

	o := New(&stubArbiter{}, patterns.Chinese(), Options{})
	cands := o.Candidates(text, report)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "第二章 短", c.Text)
	assert.Equal(t, 2, c.Line)
	assert.Equal(t, PatternStandard, c.PatternKind)
	assert.Equal(t, DefaultContextRunes, len([]rune(c.ContextBefore)))
	assert.Equal(t, "\n短。\n", c.ContextAfter)
	assert.Equal(t, []string{IssueLow}, c.Issues)
}

func TestCandidatesSuspectedReference(t *testing.T) {
	text := "他说在第二章 短\n"
	report := confidence.Report{
		Chapters:  []confidence.ChapterScore{{Title: "第二章 短", Score: 0.6, Position: len("他说在"), Line: 1, Uncertain: true}},
		Uncertain: []int{0},
	}
	cands := New(&stubArbiter{}, patterns.Chinese(), Options{}).Candidates(text, report)
	require.Len(t, cands, 1)
	assert.Equal(t, []string{IssueLow, IssueReference}, cands[0].Issues)
}
