package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackzampolin/txtshelf/internal/pipeline"
	"github.com/jackzampolin/txtshelf/internal/providers"
)

// DefaultProvider is the name of the provider entry created by default.
const DefaultProvider = "openai"

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	p := pipeline.DefaultConfig()
	return &Config{
		Parser: ParserCfg{
			MinChapterLength:           p.MinChapterLength,
			MinSectionLength:           p.MinSectionLength,
			MaxTitleLength:             p.MaxTitleLength,
			EnableChapterValidation:    p.EnableChapterValidation,
			EnableLengthValidation:     p.EnableLengthValidation,
			SkipTOCRemoval:             p.SkipTOCRemoval,
			TOCDetectionScoreThreshold: p.TOCDetectionScoreThreshold,
			TOCMaxScanLines:            p.TOCMaxScanLines,
			ChapterConfidenceThreshold: p.ChapterConfidenceThreshold,
			EnableTitleEnhancement:     p.EnableTitleEnhancement,
		},
		LLM: LLMCfg{
			Enabled:  false,
			Provider: DefaultProvider,
			Providers: map[string]LLMProviderCfg{
				DefaultProvider: {
					Type:       providers.OpenAIName,
					Model:      "gpt-4o-mini",
					APIKey:     "${OPENAI_API_KEY}",
					RateLimit:  2.0,
					MaxRetries: 3,
					RetryDelay: 2 * time.Second,
					Timeout:    2 * time.Minute,
				},
			},
			ConfidenceThreshold:   p.LLMConfidenceThreshold,
			TOCDetectionThreshold: p.LLMTOCDetectionThreshold,
			NoTOCThreshold:        p.LLMNoTOCThreshold,
			TitleBatchSize:        p.TitleBatchSize,
			DocType:               "Novel",
			RecordCalls:           true,
		},
		Checkpoint: CheckpointCfg{
			Enabled:   true,
			BatchSize: 10,
		},
	}
}

// DefaultEntries returns the default configuration entries in file order.
// Custom patterns have no defaults and are not listed.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	p := d.LLM.Providers[DefaultProvider]
	prov := "llm.providers." + DefaultProvider + "."
	return []Entry{
		// ===================
		// Parser
		// ===================
		{Key: "parser.min_chapter_length", Value: d.Parser.MinChapterLength, Description: "Chapters shorter than this (characters) are merged when length validation is on"},
		{Key: "parser.min_section_length", Value: d.Parser.MinSectionLength, Description: "Sections shorter than this (characters) are merged when length validation is on"},
		{Key: "parser.max_title_length", Value: d.Parser.MaxTitleLength, Description: "Longest plausible heading in characters"},
		{Key: "parser.enable_chapter_validation", Value: d.Parser.EnableChapterValidation, Description: "Reject headings that read like references or running prose"},
		{Key: "parser.enable_length_validation", Value: d.Parser.EnableLengthValidation, Description: "Merge too-short chapters and sections into a neighbour"},
		{Key: "parser.skip_toc_removal", Value: d.Parser.SkipTOCRemoval, Description: "Keep a table of contents in the text"},
		{Key: "parser.toc_detection_score_threshold", Value: d.Parser.TOCDetectionScoreThreshold, Description: "Minimum density score for a TOC window"},
		{Key: "parser.toc_max_scan_lines", Value: d.Parser.TOCMaxScanLines, Description: "Lines scanned past a TOC start to find its end"},
		{Key: "parser.chapter_confidence_threshold", Value: d.Parser.ChapterConfidenceThreshold, Description: "Chapters scoring below this are uncertain"},
		{Key: "parser.enable_title_enhancement", Value: d.Parser.EnableTitleEnhancement, Description: "Give number-only chapter headings a descriptive title"},

		// ===================
		// LLM
		// ===================
		{Key: "llm.enabled", Value: d.LLM.Enabled, Description: "Use a language model to confirm TOCs, arbitrate chapters and write titles"},
		{Key: "llm.provider", Value: d.LLM.Provider, Description: "Provider entry used for all calls"},
		{Key: prov + "type", Value: p.Type, Description: "Provider type (openai, mock)"},
		{Key: prov + "base_url", Value: p.BaseURL, Description: "OpenAI-compatible endpoint, empty for api.openai.com"},
		{Key: prov + "model", Value: p.Model, Description: "Model name"},
		{Key: prov + "api_key", Value: p.APIKey, Description: "API key (uses environment variable)"},
		{Key: prov + "rate_limit", Value: p.RateLimit, Description: "Rate limit in requests per second"},
		{Key: prov + "max_retries", Value: p.MaxRetries, Description: "Maximum attempts for failed requests"},
		{Key: prov + "retry_delay", Value: p.RetryDelay, Description: "Base delay between attempts"},
		{Key: prov + "timeout", Value: p.Timeout, Description: "Timeout per request"},
		{Key: prov + "input_cost_per_1m", Value: p.InputCostPer1M, Description: "USD per million input tokens, for cost tracking"},
		{Key: prov + "output_cost_per_1m", Value: p.OutputCostPer1M, Description: "USD per million output tokens, for cost tracking"},
		{Key: "llm.confidence_threshold", Value: d.LLM.ConfidenceThreshold, Description: "Overall confidence below which chapters are arbitrated"},
		{Key: "llm.toc_detection_threshold", Value: d.LLM.TOCDetectionThreshold, Description: "Model confidence needed to accept a TOC"},
		{Key: "llm.no_toc_threshold", Value: d.LLM.NoTOCThreshold, Description: "Model confidence needed to skip TOC removal"},
		{Key: "llm.title_batch_size", Value: d.LLM.TitleBatchSize, Description: "Chapters per title generation request"},
		{Key: "llm.doc_type", Value: d.LLM.DocType, Description: "Document type named in arbitration prompts"},
		{Key: "llm.record_calls", Value: d.LLM.RecordCalls, Description: "Record every model call in the home directory call log"},

		// ===================
		// Checkpoint
		// ===================
		{Key: "checkpoint.enabled", Value: d.Checkpoint.Enabled, Description: "Resume title enhancement after an interruption"},
		{Key: "checkpoint.batch_size", Value: d.Checkpoint.BatchSize, Description: "Chapters processed between checkpoint writes"},

		// ===================
		// Output
		// ===================
		{Key: "output.markdown", Value: d.Output.Markdown, Description: "Render chapter bodies as markdown"},
		{Key: "output.watermark", Value: d.Output.Watermark, Description: "Text appended to every chapter page, empty to disable"},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ParseValue converts a command line string to the type of key's default.
func ParseValue(key, raw string) (any, error) {
	def := GetDefault(key)
	if def == nil {
		return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	var (
		v   any
		err error
	)
	switch def.Value.(type) {
	case bool:
		v, err = strconv.ParseBool(raw)
	case int:
		v, err = strconv.Atoi(raw)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case time.Duration:
		v, err = time.ParseDuration(raw)
	default:
		v = strings.TrimSpace(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return v, nil
}
