package config

import "time"

// Config holds txtshelf configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Parser     ParserCfg     `mapstructure:"parser" yaml:"parser" json:"parser"`
	LLM        LLMCfg        `mapstructure:"llm" yaml:"llm" json:"llm"`
	Checkpoint CheckpointCfg `mapstructure:"checkpoint" yaml:"checkpoint" json:"checkpoint"`
	Output     OutputCfg     `mapstructure:"output" yaml:"output" json:"output"`
}

// ParserCfg configures structure inference.
type ParserCfg struct {
	MinChapterLength        int  `mapstructure:"min_chapter_length" yaml:"min_chapter_length" json:"min_chapter_length"`
	MinSectionLength        int  `mapstructure:"min_section_length" yaml:"min_section_length" json:"min_section_length"`
	MaxTitleLength          int  `mapstructure:"max_title_length" yaml:"max_title_length" json:"max_title_length"`
	EnableChapterValidation bool `mapstructure:"enable_chapter_validation" yaml:"enable_chapter_validation" json:"enable_chapter_validation"`
	EnableLengthValidation  bool `mapstructure:"enable_length_validation" yaml:"enable_length_validation" json:"enable_length_validation"`
	SkipTOCRemoval          bool `mapstructure:"skip_toc_removal" yaml:"skip_toc_removal" json:"skip_toc_removal"`

	TOCDetectionScoreThreshold float64 `mapstructure:"toc_detection_score_threshold" yaml:"toc_detection_score_threshold" json:"toc_detection_score_threshold"`
	TOCMaxScanLines            int     `mapstructure:"toc_max_scan_lines" yaml:"toc_max_scan_lines" json:"toc_max_scan_lines"`
	ChapterConfidenceThreshold float64 `mapstructure:"chapter_confidence_threshold" yaml:"chapter_confidence_threshold" json:"chapter_confidence_threshold"`

	EnableTitleEnhancement bool `mapstructure:"enable_title_enhancement" yaml:"enable_title_enhancement" json:"enable_title_enhancement"`

	Patterns PatternsCfg `mapstructure:"patterns" yaml:"patterns" json:"patterns"`
}

// PatternsCfg holds custom boundary patterns (regular expressions).
type PatternsCfg struct {
	Volume          []string `mapstructure:"volume" yaml:"volume" json:"volume"`
	Chapter         []string `mapstructure:"chapter" yaml:"chapter" json:"chapter"`
	Section         []string `mapstructure:"section" yaml:"section" json:"section"`
	SpecialChapters []string `mapstructure:"special_chapters" yaml:"special_chapters" json:"special_chapters"`
	Ignore          []string `mapstructure:"ignore" yaml:"ignore" json:"ignore"`
}

// LLMCfg configures the optional language model advisor.
type LLMCfg struct {
	Enabled   bool                      `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Provider  string                    `mapstructure:"provider" yaml:"provider" json:"provider"` // key into Providers
	Providers map[string]LLMProviderCfg `mapstructure:"providers" yaml:"providers" json:"providers"`

	ConfidenceThreshold   float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	TOCDetectionThreshold float64 `mapstructure:"toc_detection_threshold" yaml:"toc_detection_threshold" json:"toc_detection_threshold"`
	NoTOCThreshold        float64 `mapstructure:"no_toc_threshold" yaml:"no_toc_threshold" json:"no_toc_threshold"`
	TitleBatchSize        int     `mapstructure:"title_batch_size" yaml:"title_batch_size" json:"title_batch_size"`
	DocType               string  `mapstructure:"doc_type" yaml:"doc_type" json:"doc_type"`

	RecordCalls bool `mapstructure:"record_calls" yaml:"record_calls" json:"record_calls"` // keep a sqlite call log in the home directory
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type            string        `mapstructure:"type" yaml:"type" json:"type"`             // "openai" or "mock"
	BaseURL         string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"` // any OpenAI-compatible endpoint
	Model           string        `mapstructure:"model" yaml:"model" json:"model"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key" json:"api_key"`          // API key (supports ${ENV_VAR} syntax)
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // Requests per second
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay" json:"retry_delay"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	InputCostPer1M  float64       `mapstructure:"input_cost_per_1m" yaml:"input_cost_per_1m" json:"input_cost_per_1m"`
	OutputCostPer1M float64       `mapstructure:"output_cost_per_1m" yaml:"output_cost_per_1m" json:"output_cost_per_1m"`
}

// CheckpointCfg configures resumable title enhancement.
type CheckpointCfg struct {
	Enabled   bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	BatchSize int  `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
}

// OutputCfg configures the EPUB writer.
type OutputCfg struct {
	Markdown  bool   `mapstructure:"markdown" yaml:"markdown" json:"markdown"`
	Watermark string `mapstructure:"watermark" yaml:"watermark" json:"watermark"` // empty disables the watermark
}
