// Package integrity checks that a volume tree still holds the text it was
// built from.
package integrity

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/jackzampolin/txtshelf/internal/types"
)

// Loss limits, in percent.
const (
	MaxCJKLoss   = 1.0
	MaxLatinLoss = 2.0
	MaxTotalLoss = 1.0
)

// Counts are character statistics of one text. Whitespace is never counted.
type Counts struct {
	CJK         int `json:"cjk" yaml:"cjk"`
	Latin       int `json:"latin" yaml:"latin"` // ASCII letters and digits
	Punctuation int `json:"punctuation" yaml:"punctuation"`
	Total       int `json:"total" yaml:"total"`
}

// Report compares a source with its tree.
type Report struct {
	Original  Counts `json:"original" yaml:"original"`
	Converted Counts `json:"converted" yaml:"converted"`

	CJKLoss   float64 `json:"cjk_loss" yaml:"cjk_loss"`
	LatinLoss float64 `json:"latin_loss" yaml:"latin_loss"`
	TotalLoss float64 `json:"total_loss" yaml:"total_loss"`

	Passed bool `json:"passed" yaml:"passed"`
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("passed", r.Passed),
		slog.Float64("cjk_loss", r.CJKLoss),
		slog.Float64("latin_loss", r.LatinLoss),
		slog.Float64("total_loss", r.TotalLoss),
	)
}

// Count gathers the statistics of text.
func Count(text string) Counts {
	var c Counts
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		c.Total++
		switch {
		case isCJK(r):
			c.CJK++
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			c.Latin++
		case isPunct(r):
			c.Punctuation++
		}
	}
	return c
}

// Compare counts original and the flattened tree. Synthetic titles are not
// part of the source and are left out.
func Compare(original string, volumes []types.Volume) Report {
	r := Report{Original: Count(original), Converted: Count(Flatten(volumes))}
	r.CJKLoss = loss(r.Original.CJK, r.Converted.CJK)
	r.LatinLoss = loss(r.Original.Latin, r.Converted.Latin)
	r.TotalLoss = loss(r.Original.Total, r.Converted.Total)
	r.Passed = r.CJKLoss <= MaxCJKLoss && r.LatinLoss <= MaxLatinLoss && r.TotalLoss <= MaxTotalLoss
	return r
}

// Flatten joins the titles and bodies of a tree in document order.
func Flatten(volumes []types.Volume) string {
	var parts []string
	for _, v := range volumes {
		if v.Title != "" {
			parts = append(parts, v.Title)
		}
		for _, ch := range v.Chapters {
			if !ch.Synthetic && ch.Title != "" {
				parts = append(parts, ch.Title)
			}
			if ch.Content != "" {
				parts = append(parts, ch.Content)
			}
			for _, s := range ch.Sections {
				if !s.Synthetic && s.Title != "" {
					parts = append(parts, s.Title)
				}
				if s.Content != "" {
					parts = append(parts, s.Content)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

func loss(original, converted int) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-converted) / float64(original) * 100
}

func isCJK(r rune) bool {
	return (r >= 0x4e00 && r <= 0x9fff) || (r >= 0x3400 && r <= 0x4dbf)
}

func isPunct(r rune) bool {
	switch {
	case r >= 0x3000 && r <= 0x303f, r >= 0xff00 && r <= 0xffef:
		return true
	}
	return strings.ContainsRune(`.,!?;:()[]<>"'\-`, r)
}
