package patterns

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackzampolin/txtshelf/internal/types"
)

// Custom holds user supplied patterns. Level patterns must match a whole
// trimmed line and are case-insensitive; ignore patterns may match anywhere
// in a heading.
type Custom struct {
	Volume          []string
	Chapter         []string
	Section         []string
	SpecialChapters []string
	Ignore          []string
}

// WithCustom returns a copy of the set extended with user patterns.
// Custom rules take priority over the built-in rules of their level.
// Invalid expressions are skipped with a warning.
func (s *Set) WithCustom(c Custom, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	out := s.clone()

	out.volume = append(compileCustom(types.KindVolume, c.Volume, logger), out.volume...)
	out.chapter = append(compileCustom(types.KindChapter, c.Chapter, logger), out.chapter...)
	out.section = append(compileCustom(types.KindSection, c.Section, logger), out.section...)

	if kws := nonEmpty(c.SpecialChapters); len(kws) > 0 {
		title := zhTitle
		if s.Language == types.English {
			title = enTitle
		}
		out.chapter = append(out.chapter, Rule{
			Name: "custom.special",
			Kind: types.KindChapter,
			re:   heading(`(?i:`+strings.TrimPrefix(alternation(kws), "(?:"), title),
		})
	}

	for _, p := range nonEmpty(c.Ignore) {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			logger.Warn("skipping invalid ignore pattern", "pattern", p, "error", err)
			continue
		}
		out.ignore = append(out.ignore, re)
	}
	return out
}

func compileCustom(kind types.BoundaryKind, exprs []string, logger *slog.Logger) []Rule {
	var rules []Rule
	for _, p := range nonEmpty(exprs) {
		body := strings.TrimSuffix(strings.TrimPrefix(p, "^"), "$")
		if _, err := regexp.Compile(body); err != nil {
			logger.Warn("skipping invalid custom pattern", "kind", kind, "pattern", p, "error", err)
			continue
		}
		rules = append(rules, Rule{
			Name: "custom." + string(kind),
			Kind: kind,
			re:   heading(`(?i:`+body+`)`, ""),
		})
	}
	return rules
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
