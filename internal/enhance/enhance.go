// Package enhance gives chapters whose heading is only a number a
// descriptive title, from a title generator or from the chapter text.
package enhance

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Defaults.
const (
	DefaultBatchSize     = 50
	DefaultMinConfidence = 0.5
	DefaultSampleRunes   = 400
)

// Progress bounds for the enhancement stage.
const (
	progressStart = 5
	progressSpan  = 90
)

// TitleRequest asks for a title for one chapter. Index is the chapter's
// global position in document order.
type TitleRequest struct {
	Index   int    `json:"index"`
	Number  string `json:"number"`
	Content string `json:"content"`
}

// GeneratedTitle is the answer for one request.
type GeneratedTitle struct {
	Index      int     `json:"index"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}

// TitleGenerator produces titles from chapter content.
type TitleGenerator interface {
	GenerateTitles(ctx context.Context, lang types.Language, reqs []TitleRequest) ([]GeneratedTitle, error)
	GenerateTitle(ctx context.Context, lang types.Language, req TitleRequest) (GeneratedTitle, error)
}

// Checkpoint records per-chapter progress. *checkpoint.Manager satisfies it.
type Checkpoint interface {
	IsProcessed(i int) bool
	Title(i int) (string, bool)
	Mark(i int, title string) error
}

// Reporter receives progress percentages.
type Reporter interface {
	ReportProgress(percent int)
}

// Options configures an Enhancer.
type Options struct {
	BatchSize     int
	MinConfidence float64
	SampleRunes   int
	Logger        *slog.Logger
}

// Stats summarizes one Enhance call.
type Stats struct {
	Simple    int `json:"simple"`
	Generated int `json:"generated"`
	Extracted int `json:"extracted"`
	Restored  int `json:"restored"`
	Failed    int `json:"failed"`
}

// Enhancer rewrites simple chapter titles.
type Enhancer struct {
	set    *patterns.Set
	gen    TitleGenerator
	opts   Options
	logger *slog.Logger
}

// New creates an enhancer. Without a generator titles are extracted from
// the chapter text.
func New(set *patterns.Set, gen TitleGenerator, opts Options) *Enhancer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.SampleRunes <= 0 {
		opts.SampleRunes = DefaultSampleRunes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{set: set, gen: gen, opts: opts, logger: logger}
}

// Enhance returns a copy of volumes with simple titles replaced. cp and
// progress may be nil. Chapters already processed in cp get their stored
// title back without another request.
func (e *Enhancer) Enhance(ctx context.Context, volumes []types.Volume, cp Checkpoint, progress Reporter) ([]types.Volume, Stats) {
	out := types.Clone(volumes)
	refs := types.ChapterRefs(out)
	var stats Stats

	if t, ok := cp.(interface{ SetTotal(n int) }); ok {
		t.SetTotal(len(refs))
	}

	titles := make(map[int]string)
	var pending []TitleRequest
	for _, ref := range refs {
		ch := &out[ref.Volume].Chapters[ref.Chapter]
		if cp != nil && cp.IsProcessed(ref.Index) {
			if t, ok := cp.Title(ref.Index); ok && t != "" {
				titles[ref.Index] = t
			}
			stats.Restored++
			continue
		}
		if ch.Synthetic || !e.set.IsSimpleTitle(ch.Title) {
			continue
		}
		stats.Simple++
		pending = append(pending, TitleRequest{
			Index:   ref.Index,
			Number:  e.marker(ch.Title),
			Content: firstRunes(strings.TrimSpace(ch.Body()), e.opts.SampleRunes),
		})
	}

	if len(pending) > 0 {
		e.logger.Info("enhancing simple chapter titles", "chapters", len(pending), "generator", e.gen != nil)
	}
	if e.gen != nil {
		e.generate(ctx, pending, titles, &stats)
	} else {
		for _, req := range pending {
			if t := Extract(req.Content, e.set.Language); t != "" {
				titles[req.Index] = e.combine(req.Number, t)
				stats.Extracted++
			}
		}
	}

	total := len(refs)
	for i, ref := range refs {
		ch := &out[ref.Volume].Chapters[ref.Chapter]
		if t, ok := titles[ref.Index]; ok && t != ch.Title {
			e.logger.Debug("enhanced chapter title", "chapter", ref.Index, "from", ch.Title, "to", t)
			ch.Title = t
		}
		if cp != nil && !cp.IsProcessed(ref.Index) {
			if err := cp.Mark(ref.Index, ch.Title); err != nil {
				e.logger.Warn("failed to save checkpoint", "chapter", ref.Index, "error", err)
			}
		}
		if progress != nil {
			progress.ReportProgress(progressStart + (i+1)*progressSpan/total)
		}
	}
	return out, stats
}

func (e *Enhancer) generate(ctx context.Context, pending []TitleRequest, titles map[int]string, stats *Stats) {
	for start := 0; start < len(pending); start += e.opts.BatchSize {
		if ctx.Err() != nil {
			stats.Failed += len(pending) - start
			return
		}
		batch := pending[start:min(start+e.opts.BatchSize, len(pending))]

		results, err := e.request(ctx, batch)
		if err != nil {
			e.logger.Warn("title generation failed, keeping chapter numbers", "batch_start", start, "error", err)
			stats.Failed += len(batch)
			continue
		}

		// each requested index counts once; the first usable result wins
		open := make(map[int]TitleRequest, len(batch))
		for _, req := range batch {
			open[req.Index] = req
		}
		got := 0
		for _, r := range results {
			req, ok := open[r.Index]
			title := strings.TrimSpace(r.Title)
			if !ok || title == "" || r.Confidence <= e.opts.MinConfidence {
				continue
			}
			titles[r.Index] = e.combine(req.Number, title)
			delete(open, r.Index)
			got++
		}
		stats.Generated += got
		stats.Failed += len(batch) - got
		e.logger.Info("generated chapter titles", "batch_start", start, "generated", got, "requested", len(batch))
	}
}

func (e *Enhancer) request(ctx context.Context, batch []TitleRequest) ([]GeneratedTitle, error) {
	if len(batch) == 1 {
		r, err := e.gen.GenerateTitle(ctx, e.set.Language, batch[0])
		if err != nil {
			return nil, err
		}
		r.Index = batch[0].Index
		return []GeneratedTitle{r}, nil
	}
	return e.gen.GenerateTitles(ctx, e.set.Language, batch)
}

// marker returns the numbering part of a heading, or the whole heading.
func (e *Enhancer) marker(title string) string {
	if m, _, ok := e.set.SplitHeading(types.KindChapter, title); ok && m != "" {
		return m
	}
	return strings.TrimSpace(title)
}

func (e *Enhancer) combine(marker, title string) string {
	if e.set.Language == types.Chinese {
		return marker + " " + title
	}
	return marker + ": " + title
}

func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
