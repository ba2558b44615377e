package epub

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/txtshelf/internal/types"
)

const (
	levelVolume = iota + 1
	levelChapter
	levelSection
)

// entry is one page of the book. Children are nested in the navigation.
type entry struct {
	id       string
	title    string
	level    int
	body     string
	children []*entry
}

func (e *entry) href() string {
	return "text/" + e.id + ".xhtml"
}

// outline turns volumes into pages. Chapters of an implicit volume are
// placed at the top level.
func outline(volumes []types.Volume) []*entry {
	var out []*entry
	chapterN, volumeN := 0, 0
	for _, v := range volumes {
		var chapters []*entry
		for _, ch := range v.Chapters {
			chapterN++
			ce := &entry{
				id:    fmt.Sprintf("chap_%d", chapterN),
				title: ch.Title,
				level: levelChapter,
				body:  ch.Content,
			}
			for j, s := range ch.Sections {
				ce.children = append(ce.children, &entry{
					id:    fmt.Sprintf("chap_%d_sec_%d", chapterN, j+1),
					title: s.Title,
					level: levelSection,
					body:  s.Content,
				})
			}
			chapters = append(chapters, ce)
		}
		if v.Implicit() {
			out = append(out, chapters...)
			continue
		}
		volumeN++
		out = append(out, &entry{
			id:       fmt.Sprintf("volume_%d", volumeN),
			title:    v.Title,
			level:    levelVolume,
			children: chapters,
		})
	}
	return out
}

func countEntries(entries []*entry) int {
	n := 0
	for _, e := range entries {
		n += 1 + countEntries(e.children)
	}
	return n
}

func countChapters(entries []*entry) int {
	n := 0
	for _, e := range entries {
		if e.level == levelChapter {
			n++
		}
		n += countChapters(e.children)
	}
	return n
}

func depth(entries []*entry) int {
	d := 0
	for _, e := range entries {
		d = max(d, 1+depth(e.children))
	}
	return d
}

// generateNavigation creates the nav.xhtml navigation document.
func (b *Builder) generateNavigation() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="%s" lang="%s">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>%s</h1>
`, b.book.Language, b.book.Language, escapeXML(b.book.Title), escapeXML(b.book.Title))

	writeNavList(&sb, b.entries, 2)

	sb.WriteString(`  </nav>
</body>
</html>
`)
	return sb.String()
}

func writeNavList(sb *strings.Builder, entries []*entry, indent int) {
	pad := strings.Repeat("  ", indent)
	sb.WriteString(pad + "<ol>\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "%s  <li><a href=\"%s\">%s</a>", pad, e.href(), escapeXML(e.title))
		if len(e.children) > 0 {
			sb.WriteString("\n")
			writeNavList(sb, e.children, indent+2)
			sb.WriteString(pad + "  ")
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString(pad + "</ol>\n")
}

// generateNCX creates the toc.ncx for ePub 2 compatibility.
func (b *Builder) generateNCX() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="%s"/>
    <meta name="dtb:depth" content="%d"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle>
    <text>%s</text>
  </docTitle>
  <navMap>
`, escapeXML(b.uid), max(1, depth(b.entries)), escapeXML(b.book.Title))

	order := 0
	var write func(entries []*entry, indent int)
	write = func(entries []*entry, indent int) {
		pad := strings.Repeat("  ", indent)
		for _, e := range entries {
			order++
			fmt.Fprintf(&sb, "%s<navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", pad, order, order)
			fmt.Fprintf(&sb, "%s  <navLabel><text>%s</text></navLabel>\n", pad, escapeXML(e.title))
			fmt.Fprintf(&sb, "%s  <content src=\"%s\"/>\n", pad, e.href())
			write(e.children, indent+1)
			sb.WriteString(pad + "</navPoint>\n")
		}
	}
	write(b.entries, 2)

	sb.WriteString(`  </navMap>
</ncx>
`)
	return sb.String()
}
