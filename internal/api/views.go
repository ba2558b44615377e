package api

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/checkpoint"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/integrity"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Structure is the printed form of a pipeline result.
type Structure struct {
	Language    string          `json:"language" yaml:"language"`
	Volumes     []Volume        `json:"volumes" yaml:"volumes"`
	Chapters    int             `json:"chapters" yaml:"chapters"`
	TOC         TOC             `json:"toc" yaml:"toc"`
	Confidence  float64         `json:"confidence" yaml:"confidence"`
	Uncertain   []string        `json:"uncertain,omitempty" yaml:"uncertain,omitempty"`
	Arbitration *Arbitration    `json:"arbitration,omitempty" yaml:"arbitration,omitempty"`
	Enhancement *enhance.Stats  `json:"enhancement,omitempty" yaml:"enhancement,omitempty"`
	LLM         *LLMUsage       `json:"llm,omitempty" yaml:"llm,omitempty"`
	DurationMs  int64           `json:"duration_ms" yaml:"duration_ms"`
	Integrity   *IntegrityCheck `json:"integrity,omitempty" yaml:"integrity,omitempty"`
}

// Volume is one printed volume.
type Volume struct {
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

// Chapter is one printed chapter. Content is omitted; Length counts runes.
type Chapter struct {
	Title     string    `json:"title" yaml:"title"`
	Length    int       `json:"length" yaml:"length"`
	Score     *float64  `json:"score,omitempty" yaml:"score,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Sections  []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Section is one printed section.
type Section struct {
	Title     string `json:"title" yaml:"title"`
	Length    int    `json:"length" yaml:"length"`
	Synthetic bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

// TOC describes table of contents removal.
type TOC struct {
	Removed      bool    `json:"removed" yaml:"removed"`
	Method       string  `json:"method,omitempty" yaml:"method,omitempty"`
	Score        float64 `json:"score,omitempty" yaml:"score,omitempty"`
	StartLine    int     `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine      int     `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	RemovedLines int     `json:"removed_lines,omitempty" yaml:"removed_lines,omitempty"`
	Skipped      bool    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Arbitration summarizes the model review of uncertain chapters.
type Arbitration struct {
	Candidates int    `json:"candidates" yaml:"candidates"`
	Decisions  int    `json:"decisions" yaml:"decisions"`
	Rejected   int    `json:"rejected" yaml:"rejected"`
	Renamed    int    `json:"renamed" yaml:"renamed"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// LLMUsage is the token and cost tally of a run.
type LLMUsage struct {
	Calls        int     `json:"calls" yaml:"calls"`
	Failures     int     `json:"failures" yaml:"failures"`
	InputTokens  int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int     `json:"output_tokens" yaml:"output_tokens"`
	CostUSD      float64 `json:"cost_usd" yaml:"cost_usd"`
}

// IntegrityCheck is the printed integrity report.
type IntegrityCheck struct {
	Passed    bool    `json:"passed" yaml:"passed"`
	CJKLoss   float64 `json:"cjk_loss" yaml:"cjk_loss"`
	LatinLoss float64 `json:"latin_loss" yaml:"latin_loss"`
	TotalLoss float64 `json:"total_loss" yaml:"total_loss"`
	Original  int     `json:"original_chars" yaml:"original_chars"`
	Converted int     `json:"converted_chars" yaml:"converted_chars"`
}

// NewStructure builds the printed form of res. Chapter scores are attached
// when the confidence report still lines up with the final tree.
func NewStructure(res *pipeline.Result) Structure {
	s := Structure{
		Language:   string(res.Document.Language),
		Chapters:   types.CountChapters(res.Volumes),
		Confidence: res.Confidence.Overall,
		DurationMs: res.Duration.Milliseconds(),
		TOC: TOC{
			Removed:      res.TOC.Removed,
			Method:       string(res.TOC.Method),
			Score:        res.TOC.Score,
			StartLine:    res.TOC.StartLine,
			EndLine:      res.TOC.EndLine,
			RemovedLines: res.TOC.RemovedLines,
			Skipped:      res.TOC.Skipped,
		},
		Enhancement: res.Enhancement,
	}

	var scores []float64
	if len(res.Confidence.Chapters) == s.Chapters {
		scores = make([]float64, len(res.Confidence.Chapters))
		for i, c := range res.Confidence.Chapters {
			scores[i] = c.Score
		}
	}
	for _, u := range res.Confidence.UncertainChapters() {
		s.Uncertain = append(s.Uncertain, u.Title)
	}

	idx := 0
	for _, v := range res.Volumes {
		pv := Volume{Title: v.Title, Chapters: make([]Chapter, 0, len(v.Chapters))}
		for _, ch := range v.Chapters {
			pc := Chapter{Title: ch.Title, Length: ch.Length(), Synthetic: ch.Synthetic}
			if scores != nil {
				score := scores[idx]
				pc.Score = &score
			}
			for _, sec := range ch.Sections {
				pc.Sections = append(pc.Sections, Section{
					Title:     sec.Title,
					Length:    utf8.RuneCountInString(sec.Content),
					Synthetic: sec.Synthetic,
				})
			}
			pv.Chapters = append(pv.Chapters, pc)
			idx++
		}
		s.Volumes = append(s.Volumes, pv)
	}

	if res.Arbitration.Attempted {
		s.Arbitration = &Arbitration{
			Candidates: res.Arbitration.Candidates,
			Decisions:  res.Arbitration.Decisions,
			Rejected:   res.Arbitration.Rejected,
			Renamed:    res.Arbitration.Renamed,
			Error:      res.Arbitration.Error,
		}
	}
	if res.LLM.Calls > 0 {
		s.LLM = &LLMUsage{
			Calls:        res.LLM.Calls,
			Failures:     res.LLM.Failures,
			InputTokens:  res.LLM.InputTokens,
			OutputTokens: res.LLM.OutputTokens,
			CostUSD:      res.LLM.CostUSD,
		}
	}
	return s
}

// NewIntegrityCheck builds the printed form of an integrity report.
func NewIntegrityCheck(r integrity.Report) *IntegrityCheck {
	return &IntegrityCheck{
		Passed:    r.Passed,
		CJKLoss:   r.CJKLoss,
		LatinLoss: r.LatinLoss,
		TotalLoss: r.TotalLoss,
		Original:  r.Original.Total,
		Converted: r.Converted.Total,
	}
}

// Conversion is printed by the convert command.
type Conversion struct {
	Source    string    `json:"source" yaml:"source"`
	Output    string    `json:"output" yaml:"output"`
	Encoding  string    `json:"encoding" yaml:"encoding"`
	Parts     int       `json:"parts" yaml:"parts"`
	Resumed   bool      `json:"resumed,omitempty" yaml:"resumed,omitempty"`
	Structure Structure `json:"structure" yaml:"structure"`
}

// Checkpoint is the printed form of a resume state file.
type Checkpoint struct {
	Path          string    `json:"path" yaml:"path"`
	Version       string    `json:"version" yaml:"version"`
	Fingerprint   string    `json:"source_fingerprint" yaml:"source_fingerprint"`
	Processed     int       `json:"processed" yaml:"processed"`
	TotalChapters int       `json:"total_chapters" yaml:"total_chapters"`
	Titles        []string  `json:"enhanced_titles,omitempty" yaml:"enhanced_titles,omitempty"`
	Completed     bool      `json:"completed" yaml:"completed"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewCheckpoint builds the printed form of st. Titles are listed in chapter
// order.
func NewCheckpoint(path string, st *checkpoint.State) Checkpoint {
	c := Checkpoint{
		Path:          path,
		Version:       st.Version,
		Fingerprint:   st.SourceFingerprint,
		Processed:     len(st.ProcessedChapterIndices),
		TotalChapters: st.TotalChapters,
		Completed:     st.Completed,
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
	keys := make([]int, 0, len(st.EnhancedTitles))
	for k := range st.EnhancedTitles {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		c.Titles = append(c.Titles, st.EnhancedTitles[k])
	}
	return c
}

// Call is one row of the call log listing. The response body is left out.
type Call struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Stage     string    `json:"stage,omitempty" yaml:"stage,omitempty"`
	PromptKey string    `json:"prompt_key" yaml:"prompt_key"`
	Model     string    `json:"model" yaml:"model"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`
	Tokens    int       `json:"tokens" yaml:"tokens"`
	CostUSD   float64   `json:"cost_usd" yaml:"cost_usd"`
	Success   bool      `json:"success" yaml:"success"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewCalls builds the call log listing.
func NewCalls(calls []llmcall.Call) []Call {
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		out = append(out, Call{
			ID:        c.ID,
			Timestamp: c.Timestamp,
			Stage:     c.Stage,
			PromptKey: c.PromptKey,
			Model:     c.Model,
			LatencyMs: c.LatencyMs,
			Tokens:    c.InputTokens + c.OutputTokens,
			CostUSD:   c.CostUSD,
			Success:   c.Success,
			Error:     c.Error,
		})
	}
	return out
}

// CallDetail is one call with its prompt reference and response.
type CallDetail struct {
	Call `yaml:",inline"`

	Source       string `json:"source,omitempty" yaml:"source,omitempty"`
	PromptCID    string `json:"prompt_cid,omitempty" yaml:"prompt_cid,omitempty"`
	Provider     string `json:"provider" yaml:"provider"`
	InputTokens  int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int    `json:"output_tokens" yaml:"output_tokens"`
	Attempts     int    `json:"attempts" yaml:"attempts"`
	Response     string `json:"response" yaml:"response"`
}

// NewCallDetail builds the printed form of one call.
func NewCallDetail(c *llmcall.Call) CallDetail {
	return CallDetail{
		Call:         NewCalls([]llmcall.Call{*c})[0],
		Source:       c.Source,
		PromptCID:    c.PromptCID,
		Provider:     c.Provider,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
		Attempts:     c.Attempts,
		Response:     c.Response,
	}
}
