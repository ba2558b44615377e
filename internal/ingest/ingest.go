// Package ingest reads plain-text book sources into a single document.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/txtshelf/internal/checkpoint"
)

// Request contains the parameters for reading a book.
type Request struct {
	Paths  []string     // source files (sorted by numeric suffix)
	Title  string       // Book title (optional, derived from filename if empty)
	Author string       // Book author (optional)
	Logger *slog.Logger // Optional logger
}

// Result is a decoded book source.
type Result struct {
	Title  string
	Author string
	Text   string

	// Encoding of the first part.
	Encoding    string
	Parts       int
	Bytes       int
	Fingerprint string // SHA-256 of the raw bytes of all parts
}

// Read decodes a single source file.
func Read(path string) (*Result, error) {
	return Ingest(Request{Paths: []string{path}})
}

// Ingest reads and decodes all parts of a book. Multi-part sources
// (book-1.txt, book-2.txt) are joined in numeric order with a blank line
// between parts.
func Ingest(req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("no source paths provided")
	}

	sorted := sortByNumber(req.Paths)
	title := req.Title
	if title == "" {
		title = deriveTitle(sorted[0])
	}

	res := &Result{Title: title, Author: req.Author, Parts: len(sorted)}
	var (
		raw   []byte
		parts []string
	)
	for i, p := range sorted {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		text, enc := Decode(data)
		if i == 0 {
			res.Encoding = enc
		}
		log.Debug("decoded source", "file", filepath.Base(p), "encoding", enc, "bytes", len(data))

		raw = append(raw, data...)
		parts = append(parts, strings.TrimRight(text, "\n"))
	}

	res.Text = strings.Join(parts, "\n\n")
	if res.Text != "" {
		res.Text += "\n"
	}
	res.Bytes = len(raw)
	res.Fingerprint = checkpoint.Fingerprint(raw)

	log.Info("read source", "title", title, "parts", res.Parts, "encoding", res.Encoding, "bytes", res.Bytes)
	return res, nil
}

var numberSuffix = regexp.MustCompile(`-(\d+)\.[^./\\]+$`)

// sortByNumber sorts paths by their numeric suffix.
// e.g., ["book-2.txt", "book-1.txt", "book-10.txt"] -> ["book-1.txt", "book-2.txt", "book-10.txt"]
func sortByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := numberSuffix.FindStringSubmatch(sorted[i])
		mj := numberSuffix.FindStringSubmatch(sorted[j])

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}

var trailingNumber = regexp.MustCompile(`-\d+$`)

// deriveTitle extracts a title from a filename.
// e.g., "my-book-1.txt" -> "my-book"
func deriveTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return trailingNumber.ReplaceAllString(name, "")
}
