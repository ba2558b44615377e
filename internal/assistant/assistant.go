// Package assistant implements the language-model capabilities the
// inference stages consult: TOC identification, chapter arbitration and
// title generation.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/arbitrate"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/prompts"
	"github.com/jackzampolin/txtshelf/internal/prompts/analyze_candidates"
	"github.com/jackzampolin/txtshelf/internal/prompts/chapter_title"
	"github.com/jackzampolin/txtshelf/internal/prompts/identify_toc"
	"github.com/jackzampolin/txtshelf/internal/providers"
	"github.com/jackzampolin/txtshelf/internal/toc"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Stage names recorded with each call.
const (
	StageTOC       = "toc"
	StageArbitrate = "arbitrate"
	StageTitles    = "titles"
)

const (
	defaultTemperature = 0.1
	titleTemperature   = 0.3

	tocMaxTokens        = 1000
	analyzeMaxTokens    = 4000
	titleMaxTokens      = 100
	batchTitleMaxTokens = 2000

	// missingConfidence is assumed when a title comes back without one.
	missingConfidence = 0.5
)

// Options configures an Assistant.
type Options struct {
	// Model overrides the client's default model.
	Model string

	// Timeout bounds each call. Zero leaves it to the client.
	Timeout time.Duration

	// Source labels recorded calls, usually the input file name.
	Source string

	Logger *slog.Logger
}

// Assistant answers the three structured questions over an LLMClient.
type Assistant struct {
	client   providers.LLMClient
	resolver *prompts.Resolver
	recorder *llmcall.Recorder
	opts     Options
	logger   *slog.Logger
}

var (
	_ toc.Identifier         = (*Assistant)(nil)
	_ arbitrate.Arbiter      = (*Assistant)(nil)
	_ enhance.TitleGenerator = (*Assistant)(nil)
)

// New creates an assistant. resolver nil uses the embedded prompts only;
// recorder may be nil.
func New(client providers.LLMClient, resolver *prompts.Resolver, recorder *llmcall.Recorder, opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = prompts.NewResolver(nil, logger)
	}
	RegisterPrompts(resolver)
	return &Assistant{client: client, resolver: resolver, recorder: recorder, opts: opts, logger: logger}
}

// RegisterPrompts registers every prompt the assistant uses.
func RegisterPrompts(r *prompts.Resolver) {
	identify_toc.RegisterPrompts(r)
	analyze_candidates.RegisterPrompts(r)
	chapter_title.RegisterPrompts(r)
}

type call struct {
	stage       string
	systemKey   string
	userKey     string
	data        any
	schema      map[string]any
	temperature float64
	maxTokens   int
}

// do runs one structured call and decodes the validated JSON into out.
func (a *Assistant) do(ctx context.Context, c call, out any) error {
	system, err := a.resolver.Resolve(c.systemKey)
	if err != nil {
		return err
	}
	user, err := a.resolver.Resolve(c.userKey)
	if err != nil {
		return err
	}
	userText, err := prompts.Render(c.userKey, user.Text, c.data)
	if err != nil {
		return err
	}
	schema, err := json.Marshal(c.schema)
	if err != nil {
		return fmt.Errorf("encoding %s schema: %w", c.stage, err)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system.Text},
			{Role: "user", Content: userText},
		},
		Model:          a.opts.Model,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		Timeout:        a.opts.Timeout,
		ResponseFormat: &providers.ResponseFormat{Type: providers.FormatJSONSchema, JSONSchema: schema},
	}

	result, err := a.client.Chat(ctx, req)
	temp := c.temperature
	a.recorder.Record(ctx, result, llmcall.RecordOptions{
		Source:      a.opts.Source,
		Stage:       c.stage,
		PromptKey:   c.userKey,
		PromptCID:   user.CID,
		Temperature: &temp,
	})
	if err != nil {
		return fmt.Errorf("%s call: %w", c.stage, err)
	}
	if len(result.ParsedJSON) == 0 {
		return fmt.Errorf("%s call: %w", c.stage, providers.ErrEmptyResponse)
	}
	if err := json.Unmarshal(result.ParsedJSON, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", c.stage, err)
	}
	return nil
}

// IdentifyTOC asks whether a sample opens with a table of contents.
func (a *Assistant) IdentifyTOC(ctx context.Context, sample string, lang types.Language) (toc.Verdict, error) {
	var res identify_toc.Result
	err := a.do(ctx, call{
		stage:       StageTOC,
		systemKey:   identify_toc.SystemPromptKey,
		userKey:     identify_toc.UserPromptKey,
		data:        identify_toc.Data{Language: string(lang), Sample: sample},
		schema:      identify_toc.Schema,
		temperature: defaultTemperature,
		maxTokens:   tocMaxTokens,
	}, &res)
	if err != nil {
		return toc.Verdict{}, err
	}
	a.logger.Info("TOC identification", "has_toc", res.HasTOC, "confidence", res.Confidence)
	return toc.Verdict{HasTOC: res.HasTOC, Confidence: res.Confidence, Reason: res.Reason}, nil
}

// AnalyzeCandidates judges a batch of uncertain chapters.
func (a *Assistant) AnalyzeCandidates(ctx context.Context, req arbitrate.Request) ([]arbitrate.Decision, error) {
	if len(req.Candidates) == 0 {
		return nil, nil
	}

	data := analyze_candidates.Data{
		DocType:        req.DocType,
		Language:       string(req.Language),
		ConfirmedCount: len(req.Confirmed),
	}
	total := 0
	for i, c := range req.Confirmed {
		total += c.Length
		if i < analyze_candidates.MaxExamples {
			data.Examples = append(data.Examples, c.Title)
		}
	}
	if len(req.Confirmed) > 0 {
		data.AverageLength = total / len(req.Confirmed)
	}
	for i, c := range req.Candidates {
		data.Candidates = append(data.Candidates, analyze_candidates.Candidate{
			Number:        i + 1,
			Text:          c.Text,
			Line:          c.Line,
			Confidence:    c.Confidence,
			PatternKind:   c.PatternKind,
			Issues:        strings.Join(c.Issues, ", "),
			ContextBefore: c.ContextBefore,
			ContextAfter:  c.ContextAfter,
		})
	}

	var res analyze_candidates.Result
	err := a.do(ctx, call{
		stage:       StageArbitrate,
		systemKey:   analyze_candidates.SystemPromptKey,
		userKey:     analyze_candidates.UserPromptKey,
		data:        data,
		schema:      analyze_candidates.Schema,
		temperature: defaultTemperature,
		maxTokens:   analyzeMaxTokens,
	}, &res)
	if err != nil {
		return nil, err
	}

	decisions := orderDecisions(res.Decisions, len(req.Candidates))
	accepted := 0
	for _, d := range decisions {
		if d.IsChapter {
			accepted++
		}
	}
	a.logger.Info("candidate analysis", "confirmed", accepted, "candidates", len(req.Candidates))
	return decisions, nil
}

// orderDecisions places decisions by their 1-based index when every index
// is usable, and positionally otherwise. Candidates left without a
// decision are kept.
func orderDecisions(in []analyze_candidates.Decision, n int) []arbitrate.Decision {
	convert := func(d analyze_candidates.Decision) arbitrate.Decision {
		out := arbitrate.Decision{IsChapter: d.IsChapter, Confidence: d.Confidence, Reason: d.Reason}
		if d.SuggestedTitle != nil {
			out.SuggestedTitle = *d.SuggestedTitle
		}
		return out
	}

	indexed := len(in) > 0
	seen := make(map[int]bool, len(in))
	for _, d := range in {
		if d.Index < 1 || d.Index > n || seen[d.Index] {
			indexed = false
			break
		}
		seen[d.Index] = true
	}

	if !indexed {
		out := make([]arbitrate.Decision, 0, min(len(in), n))
		for _, d := range in[:min(len(in), n)] {
			out = append(out, convert(d))
		}
		return out
	}

	out := make([]arbitrate.Decision, n)
	for i := range out {
		out[i] = arbitrate.Decision{IsChapter: true, Reason: "no decision returned"}
	}
	for _, d := range in {
		out[d.Index-1] = convert(d)
	}
	return out
}

// GenerateTitles writes titles for a batch of chapters. Results carry the
// request's Index; chapters the model skipped are omitted.
func (a *Assistant) GenerateTitles(ctx context.Context, lang types.Language, reqs []enhance.TitleRequest) ([]enhance.GeneratedTitle, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	data := chapter_title.BatchData{Language: string(lang)}
	for i, r := range reqs {
		data.Chapters = append(data.Chapters, chapter_title.BatchChapter{
			Number:  i + 1,
			Marker:  r.Number,
			Content: firstRunes(r.Content, chapter_title.BatchSampleRunes),
		})
	}

	var res chapter_title.BatchResult
	err := a.do(ctx, call{
		stage:       StageTitles,
		systemKey:   chapter_title.SystemPromptKey,
		userKey:     chapter_title.BatchPromptKey,
		data:        data,
		schema:      chapter_title.BatchSchema,
		temperature: titleTemperature,
		maxTokens:   batchTitleMaxTokens,
	}, &res)
	if err != nil {
		return nil, err
	}

	out := make([]enhance.GeneratedTitle, 0, len(res.Titles))
	for _, t := range res.Titles {
		if t.Index < 1 || t.Index > len(reqs) {
			continue
		}
		out = append(out, enhance.GeneratedTitle{
			Index:      reqs[t.Index-1].Index,
			Title:      t.Title,
			Confidence: confidenceOrDefault(t.Confidence),
		})
	}
	a.logger.Info("batch title generation", "titles", len(out), "requested", len(reqs))
	return out, nil
}

// GenerateTitle writes a title for one chapter.
func (a *Assistant) GenerateTitle(ctx context.Context, lang types.Language, req enhance.TitleRequest) (enhance.GeneratedTitle, error) {
	var res chapter_title.Title
	err := a.do(ctx, call{
		stage:     StageTitles,
		systemKey: chapter_title.SystemPromptKey,
		userKey:   chapter_title.UserPromptKey,
		data: chapter_title.Data{
			Language: string(lang),
			Number:   req.Number,
			Content:  firstRunes(req.Content, chapter_title.SingleSampleRunes),
		},
		schema:      chapter_title.Schema,
		temperature: titleTemperature,
		maxTokens:   titleMaxTokens,
	}, &res)
	if err != nil {
		return enhance.GeneratedTitle{Index: req.Index}, err
	}
	return enhance.GeneratedTitle{
		Index:      req.Index,
		Title:      res.Title,
		Confidence: confidenceOrDefault(res.Confidence),
	}, nil
}

func confidenceOrDefault(c *float64) float64 {
	if c == nil {
		return missingConfidence
	}
	return *c
}

func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
