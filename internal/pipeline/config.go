package pipeline

import (
	"github.com/jackzampolin/txtshelf/internal/arbitrate"
	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/confidence"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/segment"
	"github.com/jackzampolin/txtshelf/internal/toc"
)

// Config is the parser configuration for one run. It is passed by value
// and never modified once a run starts.
type Config struct {
	MinChapterLength        int  `json:"min_chapter_length"`
	MinSectionLength        int  `json:"min_section_length"`
	MaxTitleLength          int  `json:"max_title_length"`
	EnableChapterValidation bool `json:"enable_chapter_validation"`
	EnableLengthValidation  bool `json:"enable_length_validation"`
	SkipTOCRemoval          bool `json:"skip_toc_removal"`

	TOCDetectionScoreThreshold float64 `json:"toc_detection_score_threshold"`
	TOCMaxScanLines            int     `json:"toc_max_scan_lines"`

	ChapterConfidenceThreshold float64 `json:"chapter_confidence_threshold"`
	LLMConfidenceThreshold     float64 `json:"llm_confidence_threshold"`
	LLMTOCDetectionThreshold   float64 `json:"llm_toc_detection_threshold"`
	LLMNoTOCThreshold          float64 `json:"llm_no_toc_threshold"`

	EnableTitleEnhancement bool `json:"enable_title_enhancement"`
	TitleBatchSize         int  `json:"title_batch_size"`

	// DocType names the kind of document in arbitration requests.
	DocType string `json:"doc_type"`

	Custom patterns.Custom `json:"custom"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinChapterLength:           segment.DefaultMinChapterLength,
		MinSectionLength:           segment.DefaultMinSectionLength,
		MaxTitleLength:             boundary.DefaultMaxTitleLength,
		EnableChapterValidation:    true,
		EnableLengthValidation:     false,
		TOCDetectionScoreThreshold: toc.DefaultScoreThreshold,
		TOCMaxScanLines:            toc.DefaultMaxScanLines,
		ChapterConfidenceThreshold: confidence.DefaultThreshold,
		LLMConfidenceThreshold:     arbitrate.DefaultThreshold,
		LLMTOCDetectionThreshold:   toc.DefaultLLMDetectionThreshold,
		LLMNoTOCThreshold:          toc.DefaultLLMNoTOCThreshold,
		TitleBatchSize:             enhance.DefaultBatchSize,
		DocType:                    arbitrate.DefaultDocType,
	}
}
