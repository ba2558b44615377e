// Package arbitrate asks an external decision maker about chapters the
// rule-based pass was unsure of and merges its verdicts into the tree.
package arbitrate

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/confidence"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Defaults.
const (
	DefaultThreshold    = 0.7
	DefaultContextRunes = 200
	DefaultDocType      = "Novel"
)

// Issue tags attached to candidates.
const (
	IssueExtremelyLow = "extremely low confidence"
	IssueLow          = "low confidence"
	IssueReference    = "suspected reference"
)

// PatternStandard is the pattern kind reported for rule-matched headings.
const PatternStandard = "standard"

// Candidate is an uncertain chapter packaged for arbitration.
type Candidate struct {
	Text          string   `json:"text"`
	Position      int      `json:"position"`
	Line          int      `json:"line_number"`
	Confidence    float64  `json:"confidence"`
	ContextBefore string   `json:"context_before"`
	ContextAfter  string   `json:"context_after"`
	PatternKind   string   `json:"pattern_type"`
	Issues        []string `json:"issues,omitempty"`

	ref types.ChapterRef
}

// ConfirmedChapter is a chapter the rules were confident about, sent along
// as a reference for typical titles and lengths.
type ConfirmedChapter struct {
	Title  string `json:"title"`
	Length int    `json:"length"`
}

// Request is one batch sent to an Arbiter.
type Request struct {
	Candidates []Candidate        `json:"candidates"`
	Confirmed  []ConfirmedChapter `json:"confirmed"`
	Language   types.Language     `json:"language"`
	DocType    string             `json:"doc_type"`
}

// Decision is the verdict for one candidate.
type Decision struct {
	IsChapter      bool    `json:"is_chapter"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	SuggestedTitle string  `json:"suggested_title,omitempty"`
}

// Arbiter decides whether candidates are real chapters. Decisions are
// matched to candidates by position; missing decisions keep the chapter.
type Arbiter interface {
	AnalyzeCandidates(ctx context.Context, req Request) ([]Decision, error)
}

// Options configures an Orchestrator.
type Options struct {
	// Threshold is the overall confidence at or above which arbitration is
	// skipped.
	Threshold    float64
	ContextRunes int
	DocType      string

	// Stats, when set, is logged after each arbitration.
	Stats  *llmcall.Stats
	Logger *slog.Logger
}

// Outcome reports what arbitration did.
type Outcome struct {
	Volumes    []types.Volume `json:"-"`
	Attempted  bool           `json:"attempted"`
	Candidates int            `json:"candidates"`
	Decisions  int            `json:"decisions"`
	Rejected   int            `json:"rejected"`
	Renamed    int            `json:"renamed"`
	Error      string         `json:"error,omitempty"`
}

// Orchestrator runs the arbitration protocol.
type Orchestrator struct {
	arbiter Arbiter
	set     *patterns.Set
	opts    Options
	logger  *slog.Logger
}

// New creates an orchestrator. arbiter may be nil, in which case Arbitrate
// always returns the rule-based tree.
func New(arbiter Arbiter, set *patterns.Set, opts Options) *Orchestrator {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.ContextRunes <= 0 {
		opts.ContextRunes = DefaultContextRunes
	}
	if opts.DocType == "" {
		opts.DocType = DefaultDocType
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{arbiter: arbiter, set: set, opts: opts, logger: logger}
}

// Needed reports whether a report warrants arbitration.
func (o *Orchestrator) Needed(report confidence.Report) bool {
	return o.arbiter != nil && len(report.Chapters) > 0 && report.Overall < o.opts.Threshold
}

// Arbitrate returns the tree after applying the arbiter's decisions. Any
// arbiter failure returns the rule-based tree unchanged.
func (o *Orchestrator) Arbitrate(ctx context.Context, text string, volumes []types.Volume, report confidence.Report) Outcome {
	out := Outcome{Volumes: volumes}
	if !o.Needed(report) {
		return out
	}

	req := Request{
		Candidates: o.Candidates(text, report),
		Confirmed:  confirmed(report),
		Language:   o.set.Language,
		DocType:    o.opts.DocType,
	}
	out.Candidates = len(req.Candidates)
	if len(req.Candidates) == 0 {
		return out
	}

	o.logger.Info("arbitrating uncertain chapters",
		"overall", report.Overall, "threshold", o.opts.Threshold, "candidates", len(req.Candidates))
	out.Attempted = true

	decisions, err := o.arbiter.AnalyzeCandidates(ctx, req)
	if err != nil {
		o.logger.Warn("arbitration failed, keeping rule-based structure", "error", err)
		out.Error = err.Error()
		return out
	}
	out.Decisions = len(decisions)

	merged, rejected, renamed := o.merge(volumes, req.Candidates, decisions)
	if rejected >= types.CountChapters(volumes) {
		o.logger.Warn("arbitration rejected every chapter, keeping rule-based structure")
		return out
	}
	out.Volumes, out.Rejected, out.Renamed = merged, rejected, renamed

	o.logger.Info("arbitration complete",
		"rejected", rejected, "renamed", renamed, "llm", o.opts.Stats.Snapshot())
	return out
}

// Candidates converts the uncertain chapters of a report. Synthetic chapters
// and chapters whose title was not located in text are skipped.
func (o *Orchestrator) Candidates(text string, report confidence.Report) []Candidate {
	var out []Candidate
	for _, cs := range report.UncertainChapters() {
		if cs.Synthetic || cs.Position < 0 {
			continue
		}
		end := min(len(text), cs.Position+len(cs.Title))
		c := Candidate{
			Text:          cs.Title,
			Position:      cs.Position,
			Line:          cs.Line,
			Confidence:    cs.Score,
			ContextBefore: lastRunes(text[:cs.Position], o.opts.ContextRunes),
			ContextAfter:  firstRunes(text[end:], o.opts.ContextRunes),
			PatternKind:   PatternStandard,
			ref:           cs.Ref,
		}
		switch {
		case cs.Score < 0.5:
			c.Issues = append(c.Issues, IssueExtremelyLow)
		case cs.Score < 0.7:
			c.Issues = append(c.Issues, IssueLow)
		}
		if o.set.WeaklyReferenced(lastRunes(c.ContextBefore, 10), cs.Title) {
			c.Issues = append(c.Issues, IssueReference)
		}
		out = append(out, c)
	}
	return out
}

func (o *Orchestrator) merge(volumes []types.Volume, candidates []Candidate, decisions []Decision) ([]types.Volume, int, int) {
	type verdict struct {
		drop  bool
		title string
	}
	verdicts := make(map[int]verdict)
	for i, c := range candidates {
		if i >= len(decisions) {
			break
		}
		d := decisions[i]
		switch {
		case !d.IsChapter:
			verdicts[c.ref.Index] = verdict{drop: true}
			o.logger.Info("arbiter rejected chapter", "title", c.Text, "reason", d.Reason)
		case strings.TrimSpace(d.SuggestedTitle) != "" && strings.TrimSpace(d.SuggestedTitle) != c.Text:
			verdicts[c.ref.Index] = verdict{title: strings.TrimSpace(d.SuggestedTitle)}
		}
	}

	var (
		out               []types.Volume
		rejected, renamed int
		idx               int
	)
	for _, v := range types.Clone(volumes) {
		kept := v.Chapters[:0]
		for _, ch := range v.Chapters {
			vd, ok := verdicts[idx]
			idx++
			switch {
			case !ok:
			case vd.drop:
				rejected++
				continue
			default:
				ch.Title = vd.title
				renamed++
			}
			kept = append(kept, ch)
		}
		if len(kept) == 0 {
			if v.Implicit() {
				continue
			}
			// the volume heading is text of the source, keep it
			o.logger.Info("every chapter of volume rejected, keeping its title", "volume", v.Title)
			kept = append(kept, types.Chapter{Title: o.set.Labels.VolumePreface, Synthetic: true})
		}
		v.Chapters = kept
		out = append(out, v)
	}
	return out, rejected, renamed
}

func confirmed(report confidence.Report) []ConfirmedChapter {
	var out []ConfirmedChapter
	for _, cs := range report.Chapters {
		if cs.Uncertain || cs.Synthetic {
			continue
		}
		out = append(out, ConfirmedChapter{Title: cs.Title, Length: cs.Length})
	}
	return out
}

func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
