package boundary

import (
	"log/slog"

	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Options configures a Scanner.
type Options struct {
	// Validate enables the validator. When false every matcher candidate
	// is accepted.
	Validate       bool
	MaxTitleLength int
	Logger         *slog.Logger
}

// Scanner matches and validates boundaries in one step.
type Scanner struct {
	set       *patterns.Set
	matcher   *Matcher
	validator *Validator
	validate  bool
	logger    *slog.Logger
}

// NewScanner creates a scanner over a pattern set.
func NewScanner(set *patterns.Set, opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		set:       set,
		matcher:   NewMatcher(set),
		validator: NewValidator(set, opts.MaxTitleLength),
		validate:  opts.Validate,
		logger:    logger,
	}
}

// Set returns the scanner's pattern set.
func (s *Scanner) Set() *patterns.Set {
	return s.set
}

// Find returns the accepted boundaries of one level in document order.
func (s *Scanner) Find(text string, kind types.BoundaryKind) []types.BoundaryMatch {
	candidates := s.matcher.FindAll(text, kind)
	if !s.validate {
		return candidates
	}
	accepted := candidates[:0:0]
	for _, m := range candidates {
		ok, reason := s.validator.Validate(text, m)
		if !ok {
			s.logger.Debug("rejected boundary candidate",
				"kind", kind, "title", m.Title, "line", m.Line, "reason", reason)
			continue
		}
		accepted = append(accepted, m)
	}
	return accepted
}

// IsHeadingLine reports whether a single line is an accepted chapter or
// volume heading.
func (s *Scanner) IsHeadingLine(line string) bool {
	m, ok := s.matcher.IsHeadingLine(line)
	if !ok {
		return false
	}
	if !s.validate {
		return true
	}
	ok, _ = s.validator.ValidateLine(m.Title)
	return ok
}

// HeadingTitle returns the heading text of a chapter or volume line.
func (s *Scanner) HeadingTitle(line string) (string, bool) {
	m, ok := s.matcher.IsHeadingLine(line)
	if !ok {
		return "", false
	}
	return m.Title, true
}
