// Package pipeline runs the structure inference stages over one document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/txtshelf/internal/arbitrate"
	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/confidence"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/language"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/segment"
	"github.com/jackzampolin/txtshelf/internal/toc"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Stage names.
const (
	StageDetect    = "detect"
	StageTOC       = "toc"
	StageSegment   = "segment"
	StageEstimate  = "estimate"
	StageArbitrate = "arbitrate"
	StageEnhance   = "enhance"
)

// Progress milestones.
const (
	ProgressStarted   = 1
	ProgressTOC       = 5
	ProgressSegmented = 50
	ProgressDone      = 95
)

// ProgressReporter receives progress percentages. A nil reporter is valid.
type ProgressReporter interface {
	ReportProgress(percent int)
}

// Deps are the optional collaborators of an Engine. Every field may be nil.
type Deps struct {
	Identifier toc.Identifier
	Arbiter    arbitrate.Arbiter
	Titles     enhance.TitleGenerator

	// Stats is the LLM usage collaborator shared with the assistant.
	Stats  *llmcall.Stats
	Logger *slog.Logger
}

// RunOptions are per-run inputs.
type RunOptions struct {
	Checkpoint enhance.Checkpoint
	Progress   ProgressReporter

	// Until stops the run after the named stage. Empty runs every stage.
	Until string
}

// Result is the outcome of a run.
type Result struct {
	Document    types.Document    `json:"document"`
	Volumes     []types.Volume    `json:"volumes"`
	TOC         toc.Result        `json:"toc"`
	Confidence  confidence.Report `json:"confidence"`
	Arbitration arbitrate.Outcome `json:"arbitration"`
	Enhancement *enhance.Stats    `json:"enhancement,omitempty"`
	LLM         llmcall.Snapshot  `json:"llm"`
	Duration    time.Duration     `json:"duration"`
}

// Engine wires the stages together.
type Engine struct {
	cfg      Config
	deps     Deps
	registry *Registry
	logger   *slog.Logger
}

// New creates an engine for cfg.
func New(cfg Config, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{cfg: cfg, deps: deps, registry: NewRegistry(), logger: logger}
	for _, s := range e.stages() {
		// names are fixed above, registration cannot collide
		_ = e.registry.Register(s)
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Stages returns the stage names in execution order.
func (e *Engine) Stages() []string {
	ordered, err := e.registry.Ordered()
	if err != nil {
		return nil
	}
	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name()
	}
	return names
}

// Run infers the structure of text. The only error is context cancellation.
func (e *Engine) Run(ctx context.Context, text string, opts RunOptions) (*Result, error) {
	start := time.Now()
	ordered, err := e.registry.Ordered()
	if err != nil {
		return nil, err
	}
	if opts.Until != "" {
		if _, ok := e.registry.Get(opts.Until); !ok {
			return nil, fmt.Errorf("%w: %s", ErrStageNotFound, opts.Until)
		}
	}

	st := &State{Raw: text, Checkpoint: opts.Checkpoint, Progress: opts.Progress}
	st.report(ProgressStarted)
	for _, s := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Debug("running stage", "stage", s.Name())
		if err := s.Run(ctx, st); err != nil {
			return nil, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if s.Name() == opts.Until {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.report(ProgressDone)

	res := &Result{
		Document:    st.Document,
		Volumes:     st.Volumes,
		TOC:         st.TOC,
		Confidence:  st.Confidence,
		Arbitration: st.Arbitration,
		Enhancement: st.Enhancement,
		LLM:         e.deps.Stats.Snapshot(),
		Duration:    time.Since(start),
	}
	e.logger.Info("structure inferred",
		"language", st.Language,
		"volumes", len(res.Volumes),
		"chapters", types.CountChapters(res.Volumes),
		"confidence", res.Confidence.Overall,
		"duration", res.Duration)
	return res, nil
}

func (e *Engine) stages() []Stage {
	return []Stage{
		stageFunc{name: StageDetect, description: "detect language and build patterns", run: e.detect},
		stageFunc{name: StageTOC, deps: []string{StageDetect}, description: "remove table of contents", run: e.removeTOC},
		stageFunc{name: StageSegment, deps: []string{StageTOC}, description: "split volumes, chapters and sections", run: e.segment},
		stageFunc{name: StageEstimate, deps: []string{StageSegment}, description: "score chapter confidence", run: e.estimate},
		stageFunc{name: StageArbitrate, deps: []string{StageEstimate}, description: "arbitrate uncertain chapters", run: e.arbitrate},
		stageFunc{name: StageEnhance, deps: []string{StageArbitrate}, description: "enhance simple titles", run: e.enhance},
	}
}

func (e *Engine) detect(_ context.Context, st *State) error {
	st.Language = language.Detect(st.Raw)
	st.Set = patterns.ForLanguage(st.Language).WithCustom(e.cfg.Custom, e.logger)
	st.Scanner = boundary.NewScanner(st.Set, boundary.Options{
		Validate:       e.cfg.EnableChapterValidation,
		MaxTitleLength: e.cfg.MaxTitleLength,
		Logger:         e.logger,
	})
	e.logger.Info("detected language", "language", st.Language)
	return nil
}

func (e *Engine) removeTOC(ctx context.Context, st *State) error {
	if e.cfg.SkipTOCRemoval {
		st.TOC = toc.Result{Text: st.Raw}
	} else {
		st.TOC = toc.NewRemover(st.Scanner, toc.Options{
			ScoreThreshold:        e.cfg.TOCDetectionScoreThreshold,
			MaxScanLines:          e.cfg.TOCMaxScanLines,
			LLMDetectionThreshold: e.cfg.LLMTOCDetectionThreshold,
			LLMNoTOCThreshold:     e.cfg.LLMNoTOCThreshold,
			Identifier:            e.deps.Identifier,
			Logger:                e.logger,
		}).Remove(ctx, st.Raw)
	}
	st.Document = types.Document{Text: st.TOC.Text, Language: st.Language}
	st.report(ProgressTOC)
	return nil
}

func (e *Engine) segment(_ context.Context, st *State) error {
	st.Volumes = segment.New(st.Scanner, segment.Options{
		EnableLengthValidation: e.cfg.EnableLengthValidation,
		MinChapterLength:       e.cfg.MinChapterLength,
		MinSectionLength:       e.cfg.MinSectionLength,
		Logger:                 e.logger,
	}).Segment(st.Document.Text)
	st.report(ProgressSegmented)
	return nil
}

func (e *Engine) estimator(st *State) *confidence.Estimator {
	return confidence.New(st.Set, e.cfg.ChapterConfidenceThreshold)
}

func (e *Engine) estimate(_ context.Context, st *State) error {
	st.Confidence = e.estimator(st).Estimate(st.Document.Text, st.Volumes)
	e.logger.Info("estimated confidence",
		"overall", st.Confidence.Overall, "uncertain", len(st.Confidence.Uncertain))
	return nil
}

func (e *Engine) arbitrate(ctx context.Context, st *State) error {
	o := arbitrate.New(e.deps.Arbiter, st.Set, arbitrate.Options{
		Threshold: e.cfg.LLMConfidenceThreshold,
		DocType:   e.cfg.DocType,
		Stats:     e.deps.Stats,
		Logger:    e.logger,
	})
	st.Arbitration = o.Arbitrate(ctx, st.Document.Text, st.Volumes, st.Confidence)
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.Arbitration.Rejected+st.Arbitration.Renamed > 0 {
		st.Volumes = st.Arbitration.Volumes
		st.Confidence = e.estimator(st).Estimate(st.Document.Text, st.Volumes)
	}
	return nil
}

func (e *Engine) enhance(ctx context.Context, st *State) error {
	if !e.cfg.EnableTitleEnhancement {
		return nil
	}
	enhancer := enhance.New(st.Set, e.deps.Titles, enhance.Options{
		BatchSize: e.cfg.TitleBatchSize,
		Logger:    e.logger,
	})
	volumes, stats := enhancer.Enhance(ctx, st.Volumes, st.Checkpoint, st.Progress)
	if err := ctx.Err(); err != nil {
		return err
	}
	st.Volumes = volumes
	st.Enhancement = &stats
	return nil
}
