// Package progress renders conversion progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// DefaultWidth is the bar width in cells.
const DefaultWidth = 40

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

// Bar redraws a single progress line on w. It is safe for concurrent use.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	model progress.Model
	label string
	last  int
	drawn bool
}

// New creates a bar with a label shown before it.
func New(w io.Writer, label string) *Bar {
	return &Bar{
		w:     w,
		model: progress.New(progress.WithDefaultGradient(), progress.WithWidth(DefaultWidth)),
		label: label,
		last:  -1,
	}
}

// SetLabel changes the label and redraws the current value.
func (b *Bar) SetLabel(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = label
	if b.drawn {
		b.draw(b.last)
	}
}

// ReportProgress draws percent, clamped to 0..100. Repeated values are
// not redrawn.
func (b *Bar) ReportProgress(percent int) {
	percent = max(0, min(100, percent))
	b.mu.Lock()
	defer b.mu.Unlock()
	if percent == b.last {
		return
	}
	b.draw(percent)
}

// Finish draws a full bar with a closing message and ends the line.
func (b *Bar) Finish(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draw(100)
	if message != "" {
		fmt.Fprint(b.w, " "+doneStyle.Render(message))
	}
	fmt.Fprintln(b.w)
	b.drawn = false
}

func (b *Bar) draw(percent int) {
	b.last = percent
	b.drawn = true
	fmt.Fprintf(b.w, "\r%s %s", labelStyle.Render(b.label), b.model.ViewAs(float64(percent)/100))
}

// Nop discards progress.
type Nop struct{}

// ReportProgress does nothing.
func (Nop) ReportProgress(int) {}

// SetLabel does nothing.
func (Nop) SetLabel(string) {}

// Finish does nothing.
func (Nop) Finish(string) {}
