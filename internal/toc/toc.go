// Package toc finds and removes a front-matter table of contents so its
// entries are not mistaken for the real chapter sequence.
package toc

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/types"
)

const (
	windowSize     = 20
	windowStride   = 3
	scanLimit      = 500
	shortLineMin   = 5
	shortLineMax   = 80
	longLine       = 100
	blankLookahead = 4
	minEntries     = 3

	// SampleRunes is how much of the document an Identifier sees.
	SampleRunes = 5000
)

// Defaults for Options.
const (
	DefaultScoreThreshold        = 30.0
	DefaultMaxScanLines          = 300
	DefaultLLMDetectionThreshold = 0.7
	DefaultLLMNoTOCThreshold     = 0.8
)

var (
	pageNumber = regexp.MustCompile(`\d{1,4}\s*$`)
	// leaders such as "……12", ".... 12" or "··· 12" after a TOC entry
	pageLeader = regexp.MustCompile(`(?:[ \t\x{3000}]*[.·…．。\-_]{2,}[ \t\x{3000}]*|[ \t\x{3000}]+)\d{1,4}$`)
)

// Verdict is an external opinion on whether a sample contains a TOC.
type Verdict struct {
	HasTOC     bool    `json:"has_toc"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Identifier is the optional external TOC-identification capability.
type Identifier interface {
	IdentifyTOC(ctx context.Context, sample string, lang types.Language) (Verdict, error)
}

// Method is how the TOC start was found.
type Method string

const (
	MethodNone    Method = ""
	MethodKeyword Method = "keyword"
	MethodDensity Method = "density"
)

// Options configures a Remover.
type Options struct {
	ScoreThreshold        float64
	MaxScanLines          int
	LLMDetectionThreshold float64
	LLMNoTOCThreshold     float64

	// Identifier gates the rule-based scan when set.
	Identifier Identifier
	Logger     *slog.Logger
}

// Result describes what Remove did.
type Result struct {
	Text         string   `json:"-"`
	Removed      bool     `json:"removed"`
	Method       Method   `json:"method,omitempty"`
	Score        float64  `json:"score,omitempty"`
	StartLine    int      `json:"start_line,omitempty"` // 1-based, inclusive
	EndLine      int      `json:"end_line,omitempty"`   // 1-based, inclusive
	RemovedLines int      `json:"removed_lines,omitempty"`
	Verdict      *Verdict `json:"verdict,omitempty"`
	Skipped      bool     `json:"skipped,omitempty"` // identifier ruled out a TOC
}

// Remover locates and deletes a TOC.
type Remover struct {
	scanner *boundary.Scanner
	opts    Options
	logger  *slog.Logger
}

// NewRemover creates a remover that classifies lines with scanner.
func NewRemover(scanner *boundary.Scanner, opts Options) *Remover {
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = DefaultScoreThreshold
	}
	if opts.MaxScanLines <= 0 {
		opts.MaxScanLines = DefaultMaxScanLines
	}
	if opts.LLMDetectionThreshold <= 0 {
		opts.LLMDetectionThreshold = DefaultLLMDetectionThreshold
	}
	if opts.LLMNoTOCThreshold <= 0 {
		opts.LLMNoTOCThreshold = DefaultLLMNoTOCThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Remover{scanner: scanner, opts: opts, logger: logger}
}

// Remove deletes the TOC from text if one is found. Running it on its own
// output is a no-op.
func (r *Remover) Remove(ctx context.Context, text string) Result {
	res := Result{Text: text}

	if r.opts.Identifier != nil {
		lang := r.scanner.Set().Language
		v, err := r.opts.Identifier.IdentifyTOC(ctx, firstRunes(text, SampleRunes), lang)
		switch {
		case err != nil:
			r.logger.Warn("TOC identification failed, using rules", "error", err)
		default:
			res.Verdict = &v
			if !v.HasTOC && v.Confidence > r.opts.LLMNoTOCThreshold {
				r.logger.Info("no TOC per identifier", "confidence", v.Confidence, "reason", v.Reason)
				res.Skipped = true
				return res
			}
			if v.HasTOC && v.Confidence > r.opts.LLMDetectionThreshold {
				r.logger.Info("TOC confirmed by identifier", "confidence", v.Confidence)
			}
		}
	}

	lines := strings.Split(text, "\n")
	start, method, score := r.Locate(lines)
	if start < 0 {
		return res
	}
	end := r.FindEnd(lines, start)
	if end <= start {
		r.logger.Debug("TOC start found but no end", "start_line", start+1, "method", method)
		return res
	}

	kept := make([]string, 0, len(lines)-(end-start+1))
	kept = append(kept, lines[:start]...)
	kept = append(kept, lines[end+1:]...)

	res.Text = strings.Join(kept, "\n")
	res.Removed = true
	res.Method = method
	res.Score = score
	res.StartLine = start + 1
	res.EndLine = end + 1
	res.RemovedLines = end - start + 1
	r.logger.Info("removed table of contents",
		"method", method, "start_line", res.StartLine, "end_line", res.EndLine, "score", score)
	return res
}

// Locate returns the 0-based line where a TOC starts, or -1.
func (r *Remover) Locate(lines []string) (int, Method, float64) {
	for i, line := range lines {
		if r.scanner.Set().IsTOCKeyword(line) {
			return i, MethodKeyword, 0
		}
	}

	limit := min(len(lines), scanLimit)
	best, bestScore := -1, 0.0
	for i := 0; i < limit; i += windowStride {
		score, first := r.scoreWindow(lines, i)
		if first >= 0 && score > bestScore {
			best, bestScore = first, score
		}
	}
	if best < 0 || bestScore <= r.opts.ScoreThreshold {
		return -1, MethodNone, bestScore
	}
	return best, MethodDensity, bestScore
}

// scoreWindow scores the window starting at line i and returns the index of
// its first TOC-like entry, or -1 when the window has too few entries.
func (r *Remover) scoreWindow(lines []string, i int) (float64, int) {
	end := min(i+windowSize, len(lines))
	var totalChars, entries, short, run, maxRun int
	first := -1
	hasPages := false

	for j := i; j < end; j++ {
		line := strings.TrimSpace(lines[j])
		n := utf8.RuneCountInString(line)
		totalChars += n
		if n > shortLineMin && n < shortLineMax {
			short++
		}
		switch {
		case n == 0:
		case n < shortLineMax && r.isEntry(line):
			entries++
			run++
			maxRun = max(maxRun, run)
			if first < 0 {
				first = j
			}
		default:
			run = 0
		}
		if pageNumber.MatchString(line) {
			hasPages = true
		}
	}
	if entries < minEntries {
		return 0, -1
	}

	score := 0.0
	if totalChars > 100 {
		if density := float64(entries) * 1000 / float64(totalChars); density > 100 {
			score += density * 0.5
		}
	}
	if entries >= 5 {
		score += float64(entries) * 2
	}
	if maxRun >= 3 {
		score += float64(maxRun) * 10
	}
	if ratio := float64(short) / float64(end-i); ratio > 0.6 {
		score += ratio * 20
	}
	if hasPages {
		score += 15
	}
	score += float64(max(0, 50-i)) * 0.2
	return score, first
}

// FindEnd returns the 0-based last line of the TOC starting at start, or
// -1 when no end is found.
func (r *Remover) FindEnd(lines []string, start int) int {
	seen := make(map[string]bool)
	if t, ok := r.entryTitle(strings.TrimSpace(lines[start])); ok {
		seen[t] = true
	}

	for i := start + 1; i < len(lines); i++ {
		if i-start > r.opts.MaxScanLines {
			r.logger.Warn("TOC end not found within scan limit, truncating",
				"start_line", start+1, "max_scan_lines", r.opts.MaxScanLines)
			return i
		}

		line := strings.TrimSpace(lines[i])
		if line == "" {
			if r.endsAtBlank(lines, i) {
				return i
			}
			continue
		}

		title, isEntry := r.entryTitle(line)
		if !isEntry && utf8.RuneCountInString(line) > longLine {
			return i - 1
		}
		if isEntry {
			if seen[title] {
				// the listing is over and the real first chapter begins
				return i - 1
			}
			seen[title] = true
		}
	}
	return -1
}

// endsAtBlank looks past a blank line for the next content line.
func (r *Remover) endsAtBlank(lines []string, i int) bool {
	set := r.scanner.Set()
	for j := i + 1; j <= i+blankLookahead && j < len(lines); j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		return !r.isEntry(next) || set.IsPrefaceKeyword(next)
	}
	return false
}

func (r *Remover) isEntry(line string) bool {
	_, ok := r.entryTitle(line)
	return ok
}

// entryTitle classifies a trimmed line as a heading, preferring the form
// with any trailing page number removed. The returned title is normalized for
// duplicate detection.
func (r *Remover) entryTitle(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	var candidates []string
	if stripped := strings.TrimSpace(pageLeader.ReplaceAllString(line, "")); stripped != "" && stripped != line {
		candidates = append(candidates, stripped)
	}
	candidates = append(candidates, line)
	for _, c := range candidates {
		if !r.scanner.IsHeadingLine(c) {
			continue
		}
		title, _ := r.scanner.HeadingTitle(c)
		return strings.Join(strings.Fields(title), ""), true
	}
	return "", false
}

func firstRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
