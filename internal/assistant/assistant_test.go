package assistant

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/txtshelf/internal/arbitrate"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/prompts"
	"github.com/jackzampolin/txtshelf/internal/prompts/identify_toc"
	"github.com/jackzampolin/txtshelf/internal/providers"
	"github.com/jackzampolin/txtshelf/internal/types"
)

func newAssistant(t *testing.T, responses ...string) (*Assistant, *providers.MockClient, *llmcall.Stats) {
	t.Helper()
	mock := providers.NewMockClient()
	mock.Responses = responses
	stats := llmcall.NewStats()
	a := New(mock, nil, llmcall.NewRecorder(nil, stats, nil), Options{Source: "book.txt"})
	return a, mock, stats
}

func TestIdentifyTOC(t *testing.T) {
	a, mock, stats := newAssistant(t, `{"has_toc": true, "confidence": 0.92, "reason": "dense chapter lines"}`)

	v, err := a.IdentifyTOC(context.Background(), "目录\n第一章\n第二章", types.Chinese)
	require.NoError(t, err)
	assert.True(t, v.HasTOC)
	assert.InDelta(t, 0.92, v.Confidence, 1e-9)
	assert.Equal(t, "dense chapter lines", v.Reason)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Messages, 2)
	assert.Contains(t, reqs[0].Messages[1].Content, "目录\n第一章\n第二章")
	assert.Contains(t, reqs[0].Messages[1].Content, "chinese")
	require.NotNil(t, reqs[0].ResponseFormat)

	assert.Equal(t, 1, stats.Snapshot().Calls)
}

func TestIdentifyTOCInvalidOutput(t *testing.T) {
	a, _, stats := newAssistant(t, `{"confidence": "high"}`)
	_, err := a.IdentifyTOC(context.Background(), "x", types.English)
	require.Error(t, err)
	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Calls)
	assert.Equal(t, 1, snap.Failures)
}

func TestIdentifyTOCClientFailure(t *testing.T) {
	a, mock, _ := newAssistant(t)
	mock.ShouldFail = true
	_, err := a.IdentifyTOC(context.Background(), "x", types.English)
	require.Error(t, err)
}

func TestAnalyzeCandidates(t *testing.T) {
	a, mock, _ := newAssistant(t, `{"decisions": [
		{"index": 2, "is_chapter": true, "confidence": 0.8, "reason": "heading", "suggested_title": "第三章 归来"},
		{"index": 1, "is_chapter": false, "confidence": 0.9, "reason": "reference"}
	]}`)

	req := arbitrate.Request{
		Candidates: []arbitrate.Candidate{
			{Text: "第二章", Line: 4, Confidence: 0.4, PatternKind: "standard", Issues: []string{"extremely low confidence"}},
			{Text: "第三章", Line: 9, Confidence: 0.6, PatternKind: "standard"},
		},
		Confirmed: []arbitrate.ConfirmedChapter{{Title: "第一章 晨", Length: 1000}, {Title: "第四章 昏", Length: 3000}},
		Language:  types.Chinese,
		DocType:   "Novel",
	}
	decisions, err := a.AnalyzeCandidates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.False(t, decisions[0].IsChapter)
	assert.Equal(t, "reference", decisions[0].Reason)
	assert.True(t, decisions[1].IsChapter)
	assert.Equal(t, "第三章 归来", decisions[1].SuggestedTitle)

	prompt := mock.Requests()[0].Messages[1].Content
	assert.Contains(t, prompt, "Average chapter length: 2000 characters")
	assert.Contains(t, prompt, "- 第一章 晨")
	assert.Contains(t, prompt, "[issues: extremely low confidence]")
}

func TestAnalyzeCandidatesEmpty(t *testing.T) {
	a, mock, _ := newAssistant(t)
	decisions, err := a.AnalyzeCandidates(context.Background(), arbitrate.Request{})
	require.NoError(t, err)
	assert.Nil(t, decisions)
	assert.Zero(t, mock.RequestCount())
}

func TestOrderDecisionsPositional(t *testing.T) {
	a, _, _ := newAssistant(t, `{"decisions": [
		{"is_chapter": false},
		{"is_chapter": true},
		{"is_chapter": false}
	]}`)
	decisions, err := a.AnalyzeCandidates(context.Background(), arbitrate.Request{
		Candidates: []arbitrate.Candidate{{Text: "a"}, {Text: "b"}},
	})
	require.NoError(t, err)
	require.Len(t, decisions, 2, "extra decisions are dropped")
	assert.False(t, decisions[0].IsChapter)
	assert.True(t, decisions[1].IsChapter)
}

func TestGenerateTitles(t *testing.T) {
	a, mock, _ := newAssistant(t, `{"titles": [
		{"index": 2, "title": "山路", "confidence": 0.9},
		{"index": 1, "title": "集市"},
		{"index": 7, "title": "bogus", "confidence": 1}
	]}`)

	out, err := a.GenerateTitles(context.Background(), types.Chinese, []enhance.TitleRequest{
		{Index: 10, Number: "第一章", Content: strings.Repeat("市", 500)},
		{Index: 12, Number: "第三章", Content: "山路崎岖。"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, enhance.GeneratedTitle{Index: 12, Title: "山路", Confidence: 0.9}, out[0])
	assert.Equal(t, enhance.GeneratedTitle{Index: 10, Title: "集市", Confidence: 0.5}, out[1])

	prompt := mock.Requests()[0].Messages[1].Content
	assert.Contains(t, prompt, "1. 第一章\nContent: "+strings.Repeat("市", 200)+"...")
	assert.NotContains(t, prompt, strings.Repeat("市", 201))
}

func TestGenerateTitle(t *testing.T) {
	a, _, _ := newAssistant(t, `{"title": "The Storm", "confidence": 0.7}`)
	got, err := a.GenerateTitle(context.Background(), types.English, enhance.TitleRequest{Index: 3, Number: "Chapter 4", Content: "Rain."})
	require.NoError(t, err)
	assert.Equal(t, enhance.GeneratedTitle{Index: 3, Title: "The Storm", Confidence: 0.7}, got)
}

func TestPromptOverrideAndCallLog(t *testing.T) {
	dir := t.TempDir()
	store := prompts.NewStore(filepath.Join(dir, "prompts"))
	require.NoError(t, store.Put(identify_toc.UserPromptKey, "CUSTOM {{.Sample}}"))

	calls, err := llmcall.OpenStore(filepath.Join(dir, "calls.db"))
	require.NoError(t, err)
	defer calls.Close()

	mock := providers.NewMockClient()
	mock.Responses = []string{`{"has_toc": false, "confidence": 0.95}`}
	a := New(mock, prompts.NewResolver(store, nil), llmcall.NewRecorder(calls, nil, nil), Options{Source: "book.txt"})

	_, err = a.IdentifyTOC(context.Background(), "sample", types.English)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM sample", mock.Requests()[0].Messages[1].Content)

	logged, err := calls.List(context.Background(), llmcall.QueryFilter{Source: "book.txt"})
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, StageTOC, logged[0].Stage)
	assert.Equal(t, identify_toc.UserPromptKey, logged[0].PromptKey)
	assert.Equal(t, prompts.HashText("CUSTOM {{.Sample}}"), logged[0].PromptCID)
	require.NotNil(t, logged[0].Temperature)
	assert.InDelta(t, defaultTemperature, *logged[0].Temperature, 1e-9)
}
