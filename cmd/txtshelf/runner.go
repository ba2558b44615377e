package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/assistant"
	"github.com/jackzampolin/txtshelf/internal/config"
	"github.com/jackzampolin/txtshelf/internal/home"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
	"github.com/jackzampolin/txtshelf/internal/progress"
	"github.com/jackzampolin/txtshelf/internal/prompts"
	"github.com/jackzampolin/txtshelf/internal/providers"
)

// pipelineFlags are the per-run overrides shared by the commands that run
// the pipeline. Only flags set on the command line override the config.
type pipelineFlags struct {
	llm            bool
	provider       string
	enhanceTitles  bool
	skipTOC        bool
	lengthCheck    bool
	noValidation   bool
	confidenceGate float64
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.llm, "llm", false, "consult the configured language model (overrides llm.enabled)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "provider entry to use (overrides llm.provider)")
	cmd.Flags().BoolVar(&f.enhanceTitles, "enhance-titles", false, "give number-only chapter headings a title")
	cmd.Flags().BoolVar(&f.skipTOC, "skip-toc", false, "keep a table of contents in the text")
	cmd.Flags().BoolVar(&f.lengthCheck, "length-check", false, "merge too-short chapters and sections")
	cmd.Flags().BoolVar(&f.noValidation, "no-validation", false, "accept every heading candidate")
	cmd.Flags().Float64Var(&f.confidenceGate, "confidence-threshold", 0, "arbitrate when overall confidence is below this")
}

func (f *pipelineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("llm") {
		cfg.LLM.Enabled = f.llm
	}
	if changed("provider") {
		cfg.LLM.Provider = f.provider
	}
	if changed("enhance-titles") {
		cfg.Parser.EnableTitleEnhancement = f.enhanceTitles
	}
	if changed("skip-toc") {
		cfg.Parser.SkipTOCRemoval = f.skipTOC
	}
	if changed("length-check") {
		cfg.Parser.EnableLengthValidation = f.lengthCheck
	}
	if changed("no-validation") {
		cfg.Parser.EnableChapterValidation = !f.noValidation
	}
	if changed("confidence-threshold") {
		cfg.LLM.ConfidenceThreshold = f.confidenceGate
	}
}

// runner holds everything one pipeline run needs.
type runner struct {
	cfg    config.Config
	home   *home.Dir
	engine *pipeline.Engine
	stats  *llmcall.Stats
	calls  *llmcall.Store
}

// newRunner loads configuration, applies flag overrides and wires the
// engine. source labels recorded model calls.
func newRunner(cmd *cobra.Command, flags *pipelineFlags, source string) (*runner, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return nil, err
	}

	r := &runner{cfg: *mgr.Get(), home: h, stats: llmcall.NewStats()}
	flags.apply(cmd, &r.cfg)

	deps := pipeline.Deps{Stats: r.stats, Logger: logger}
	if r.cfg.LLM.Enabled {
		a, err := r.assistant(source)
		if err != nil {
			r.Close()
			return nil, err
		}
		deps.Identifier = a
		deps.Arbiter = a
		deps.Titles = a
	}
	r.engine = pipeline.New(r.cfg.ToPipelineConfig(), deps)
	return r, nil
}

func (r *runner) assistant(source string) (*assistant.Assistant, error) {
	registry := providers.NewRegistryFromConfig(r.cfg.ToProviderRegistryConfig(), logger)
	client, err := registry.GetLLM(r.cfg.LLM.Provider)
	if err != nil {
		return nil, fmt.Errorf("llm provider %q: %w (check llm.providers.%s.api_key)", r.cfg.LLM.Provider, err, r.cfg.LLM.Provider)
	}

	resolver := prompts.NewResolver(prompts.NewStore(r.home.PromptsPath()), logger)

	if r.cfg.LLM.RecordCalls {
		store, err := llmcall.OpenStore(r.home.CallsDBPath())
		if err != nil {
			logger.Warn("call log unavailable, calls will not be recorded", "error", err)
		} else {
			r.calls = store
		}
	}
	recorder := llmcall.NewRecorder(r.calls, r.stats, logger)

	return assistant.New(client, resolver, recorder, assistant.Options{
		Timeout: r.cfg.Timeout(),
		Source:  source,
		Logger:  logger,
	}), nil
}

// Close releases the call log.
func (r *runner) Close() {
	if r.calls != nil {
		if err := r.calls.Close(); err != nil {
			logger.Warn("failed to close call log", "error", err)
		}
	}
}

// reporter is a progress bar or a no-op.
type reporter interface {
	ReportProgress(percent int)
	SetLabel(label string)
	Finish(message string)
}

func newReporter(enabled bool, label string) reporter {
	if !enabled {
		return progress.Nop{}
	}
	return progress.New(os.Stderr, label)
}
