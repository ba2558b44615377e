package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithXHTML()))

// generatePageXHTML renders one entry as an XHTML document.
func (b *Builder) generatePageXHTML(e *entry) (string, error) {
	var sb strings.Builder
	b.writeHeader(&sb, e.title)

	switch e.level {
	case levelVolume:
		sb.WriteString("<div class=\"volume\">\n")
		fmt.Fprintf(&sb, "<h1>%s</h1>\n", escapeXML(e.title))
		fmt.Fprintf(&sb, "<p class=\"volume-info\">%s</p>\n", escapeXML(b.chapterCount(len(e.children))))
		sb.WriteString("</div>\n")
	case levelChapter:
		fmt.Fprintf(&sb, "<h2>%s</h2>\n", escapeXML(e.title))
	default:
		fmt.Fprintf(&sb, "<h3>%s</h3>\n", escapeXML(e.title))
	}

	body, err := b.renderBody(e.body)
	if err != nil {
		return "", err
	}
	sb.WriteString(body)

	if b.opts.Watermark != "" && e.level != levelSection {
		fmt.Fprintf(&sb, "<p class=\"watermark\">%s</p>\n", escapeXML(b.opts.Watermark))
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

func (b *Builder) generateCoverXHTML() string {
	var sb strings.Builder
	b.writeHeader(&sb, b.book.Title)
	fmt.Fprintf(&sb, "<div class=\"cover\"><img src=\"../%s\" alt=\"%s\"/></div>\n",
		b.cover.href, escapeXML(b.book.Title))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func (b *Builder) writeHeader(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="%s" lang="%s">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="../styles/style.css"/>
</head>
<body>
`, b.book.Language, b.book.Language, escapeXML(title))
}

func (b *Builder) chapterCount(n int) string {
	if b.book.Language == "zh" {
		return fmt.Sprintf("共 %d 章", n)
	}
	if n == 1 {
		return "1 chapter"
	}
	return fmt.Sprintf("%d chapters", n)
}

// renderBody converts body text to XHTML. Plain text becomes one paragraph
// per non-empty line.
func (b *Builder) renderBody(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if b.opts.Markdown {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return "", fmt.Errorf("markdown: %w", err)
		}
		return buf.String(), nil
	}
	return paragraphs(text), nil
}

func paragraphs(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&sb, "<p>%s</p>\n", escapeXML(line))
	}
	return sb.String()
}
