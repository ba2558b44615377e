package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/checkpoint"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/epub"
	"github.com/jackzampolin/txtshelf/internal/ingest"
	"github.com/jackzampolin/txtshelf/internal/integrity"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
)

// ErrIntegrity is returned by convert --strict when characters were lost.
var ErrIntegrity = errors.New("integrity check failed")

var convertOpts struct {
	pipeline   pipelineFlags
	epubPath   string
	title      string
	author     string
	cover      string
	markdown   bool
	watermark  string
	noProgress bool
	strict     bool
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.txt> [part2.txt ...]",
	Short: "Convert a plain-text book to ePub",
	Long: `Convert a plain-text book to an ePub 3 file.

Several files are treated as parts of one book and joined in the order of
their numeric suffix (book-1.txt, book-2.txt, ...). The encoding of each
file is detected (UTF-8, UTF-16 with BOM, GB18030, Latin-1).

When title enhancement is on, progress is saved next to the output so an
interrupted run resumes without repeating model calls.

Examples:
  txtshelf convert novel.txt
  txtshelf convert novel.txt --llm --enhance-titles
  txtshelf convert part-1.txt part-2.txt --epub book.epub --author "Lu Xun"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	convertOpts.pipeline.register(convertCmd)
	f.StringVar(&convertOpts.epubPath, "epub", "", "output file (default: <title>.epub next to the input)")
	f.StringVar(&convertOpts.title, "title", "", "book title (default: derived from the file name)")
	f.StringVar(&convertOpts.author, "author", "", "book author")
	f.StringVar(&convertOpts.cover, "cover", "", "cover image (png, jpeg or gif)")
	f.BoolVar(&convertOpts.markdown, "markdown", false, "render chapter bodies as markdown (overrides output.markdown)")
	f.StringVar(&convertOpts.watermark, "watermark", "", "text appended to each chapter page (overrides output.watermark)")
	f.BoolVar(&convertOpts.noProgress, "no-progress", false, "do not draw a progress bar")
	f.BoolVar(&convertOpts.strict, "strict", false, "fail when the integrity check finds lost characters")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := ingest.Ingest(ingest.Request{
		Paths:  args,
		Title:  convertOpts.title,
		Author: convertOpts.author,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	r, err := newRunner(cmd, &convertOpts.pipeline, src.Fingerprint)
	if err != nil {
		return err
	}
	defer r.Close()

	out := convertOpts.epubPath
	if out == "" {
		out = filepath.Join(filepath.Dir(args[0]), src.Title+".epub")
	}

	var (
		cp   *checkpoint.Manager
		ckpt enhance.Checkpoint
	)
	if r.cfg.Checkpoint.Enabled && r.cfg.Parser.EnableTitleEnhancement {
		cp = checkpoint.Open(checkpoint.Path(args[0], filepath.Dir(out)), src.Fingerprint, checkpoint.Options{
			BatchSize: r.cfg.Checkpoint.BatchSize,
			Logger:    logger,
		})
		ckpt = cp
	}

	bar := newReporter(!convertOpts.noProgress, "structure")
	res, err := r.engine.Run(ctx, src.Text, pipeline.RunOptions{Checkpoint: ckpt, Progress: bar})
	if err != nil {
		if cp != nil {
			if ferr := cp.Flush(); ferr != nil {
				logger.Warn("failed to save checkpoint", "error", ferr)
			} else {
				fmt.Fprintf(os.Stderr, "\nProgress saved to %s, run again to resume\n", cp.Path())
			}
		}
		return err
	}

	report := integrity.Compare(res.Document.Text, res.Volumes)
	if !report.Passed {
		logger.Warn("characters lost during conversion", "report", report)
		if convertOpts.strict {
			return fmt.Errorf("%w: cjk loss %.2f%%, latin loss %.2f%%", ErrIntegrity, report.CJKLoss, report.LatinLoss)
		}
	}

	output := r.cfg.Output
	if cmd.Flags().Changed("markdown") {
		output.Markdown = convertOpts.markdown
	}
	if cmd.Flags().Changed("watermark") {
		output.Watermark = convertOpts.watermark
	}

	bar.SetLabel("epub")
	builder := epub.NewBuilder(epub.Book{
		Title:    src.Title,
		Author:   src.Author,
		Language: res.Document.Language.Code(),
	}, res.Volumes, epub.Options{
		Markdown:  output.Markdown,
		Watermark: output.Watermark,
		CoverPath: convertOpts.cover,
		Progress:  bar,
		Logger:    logger,
	})
	if err := builder.Build(out); err != nil {
		return fmt.Errorf("failed to write epub: %w", err)
	}
	bar.Finish(out)

	if cp != nil {
		if err := cp.Complete(); err != nil {
			logger.Warn("failed to remove checkpoint", "path", cp.Path(), "error", err)
		}
	}

	structure := api.NewStructure(res)
	structure.Integrity = api.NewIntegrityCheck(report)
	return printer.Print(api.Conversion{
		Source:    args[0],
		Output:    out,
		Encoding:  src.Encoding,
		Parts:     src.Parts,
		Resumed:   cp != nil && cp.Resumed(),
		Structure: structure,
	})
}
