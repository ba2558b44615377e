// Package epub writes a volume tree as an EPUB 3 file.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/txtshelf/internal/types"
)

// Book contains the metadata needed for epub generation.
type Book struct {
	ID        string // used as dc:identifier, a urn:uuid is generated when empty
	Title     string
	Author    string
	Language  string // ISO 639-1 code (e.g., "zh")
	Publisher string
	CreatedAt time.Time
}

// ProgressReporter receives progress while chapters are written.
type ProgressReporter interface {
	ReportProgress(percent int)
}

// Options configures a Builder.
type Options struct {
	// Markdown renders bodies as markdown instead of plain paragraphs.
	Markdown bool

	// Watermark, when set, is appended to every volume and chapter page.
	Watermark string

	// CoverPath is an optional png, jpeg or gif cover image.
	CoverPath string

	Progress ProgressReporter
	Logger   *slog.Logger
}

// Builder creates ePub 3.0 files.
type Builder struct {
	book    Book
	entries []*entry
	opts    Options
	logger  *slog.Logger

	uid   string
	cover *cover
}

type cover struct {
	href      string
	mediaType string
	data      []byte
}

// NewBuilder creates a new epub builder for volumes.
func NewBuilder(book Book, volumes []types.Volume, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if book.Language == "" {
		book.Language = "zh"
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	uid := "urn:uuid:" + uuid.New().String()
	if book.ID != "" {
		uid = book.ID
	}
	return &Builder{
		book:    book,
		entries: outline(volumes),
		opts:    opts,
		logger:  logger,
		uid:     uid,
	}
}

// Build generates the epub and writes it to the specified path.
func (b *Builder) Build(outputPath string) error {
	// Create output directory if needed
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write to a temp file so a failed build never leaves a truncated epub.
	tmp := outputPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := b.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output file: %w", err)
	}
	b.logger.Info("wrote epub", "path", outputPath, "pages", countEntries(b.entries))
	return nil
}

// WriteTo writes the epub to a writer.
func (b *Builder) WriteTo(w io.Writer) error {
	if err := b.loadCover(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	// 1. Write mimetype (must be first, uncompressed)
	if err := b.writeMimetype(zw); err != nil {
		return err
	}

	// 2. Write META-INF/container.xml, package document and navigation
	files := []struct {
		name    string
		content func() string
	}{
		{"META-INF/container.xml", func() string { return containerXML }},
		{"OEBPS/content.opf", b.generatePackage},
		{"OEBPS/nav.xhtml", b.generateNavigation},
		{"OEBPS/toc.ncx", b.generateNCX},
		{"OEBPS/styles/style.css", func() string { return defaultStylesheet }},
	}
	for _, f := range files {
		if err := writeFile(zw, f.name, []byte(f.content())); err != nil {
			return err
		}
	}

	// 3. Cover
	if b.cover != nil {
		if err := writeFile(zw, "OEBPS/"+b.cover.href, b.cover.data); err != nil {
			return err
		}
		if err := writeFile(zw, "OEBPS/text/cover.xhtml", []byte(b.generateCoverXHTML())); err != nil {
			return err
		}
	}

	// 4. Content pages
	total := countChapters(b.entries)
	done := 0
	for _, e := range b.pages() {
		body, err := b.generatePageXHTML(e)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", e.id, err)
		}
		if err := writeFile(zw, "OEBPS/"+e.href(), []byte(body)); err != nil {
			return err
		}
		if e.level == levelChapter {
			done++
			if b.opts.Progress != nil {
				b.opts.Progress.ReportProgress(5 + done*90/total)
			}
		}
	}

	return zw.Close()
}

// BuildToBuffer generates the epub and returns it as a byte buffer.
func (b *Builder) BuildToBuffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := b.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *Builder) loadCover() error {
	if b.opts.CoverPath == "" || b.cover != nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(b.opts.CoverPath))
	var mediaType string
	switch ext {
	case ".png":
		mediaType = "image/png"
	case ".jpg", ".jpeg":
		mediaType = "image/jpeg"
	case ".gif":
		mediaType = "image/gif"
	default:
		return fmt.Errorf("unsupported cover image type %q", ext)
	}
	data, err := os.ReadFile(b.opts.CoverPath)
	if err != nil {
		return fmt.Errorf("failed to read cover image: %w", err)
	}
	b.cover = &cover{href: "images/cover" + ext, mediaType: mediaType, data: data}
	return nil
}

// writeMimetype writes the mimetype file (must be first and uncompressed).
func (b *Builder) writeMimetype(zw *zip.Writer) error {
	header := &zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create mimetype: %w", err)
	}
	_, err = w.Write([]byte("application/epub+zip"))
	return err
}

func writeFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const defaultStylesheet = `/* txtshelf ePub Stylesheet */

body {
  font-family: "Songti SC", "Noto Serif CJK SC", Georgia, serif;
  font-size: 1em;
  line-height: 1.8;
  margin: 1em;
  text-align: justify;
}

h1, h2, h3 {
  font-weight: bold;
  text-align: center;
  margin-top: 2em;
  margin-bottom: 1em;
}

h1 {
  font-size: 1.8em;
}

h2 {
  font-size: 1.4em;
}

h3 {
  font-size: 1.2em;
}

p {
  margin: 0.5em 0;
  text-indent: 2em;
}

.volume {
  margin-top: 30%;
}

.volume-info {
  text-align: center;
  text-indent: 0;
  color: #666;
}

.watermark {
  font-size: 0.75em;
  color: #999;
  text-align: center;
  text-indent: 0;
  margin-top: 2em;
}

.cover {
  text-align: center;
  margin: 0;
  padding: 0;
}

.cover img {
  max-width: 100%;
  max-height: 100%;
}
`
