// Package types provides shared types used across multiple packages.
// This package has no dependencies on other txtshelf packages to avoid import cycles.
package types

// Language is the detected language of a document.
type Language string

const (
	// Chinese documents use 第N章 style markers.
	Chinese Language = "chinese"
	// English documents use Chapter N style markers.
	English Language = "english"
)

// ParseLanguage converts a string to a Language.
// Returns Chinese if the string is not recognized.
func ParseLanguage(s string) Language {
	switch s {
	case "english", "en":
		return English
	default:
		return Chinese
	}
}

// Code returns the ISO 639-1 code for the language.
func (l Language) Code() string {
	if l == English {
		return "en"
	}
	return "zh"
}

// Document is the normalized text the segmenter works on.
// Text is the post-TOC-removal content and is never mutated afterwards.
type Document struct {
	Text     string   `json:"-"`
	Language Language `json:"language"`
}
