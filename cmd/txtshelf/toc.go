package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/ingest"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
)

var tocOpts struct {
	pipeline pipelineFlags
	write    string
}

// tocReport is printed by the toc command.
type tocReport struct {
	Language string   `json:"language" yaml:"language"`
	TOC      api.TOC  `json:"toc" yaml:"toc"`
	Lines    []string `json:"lines,omitempty" yaml:"lines,omitempty"`
	Written  string   `json:"written,omitempty" yaml:"written,omitempty"`
}

var tocCmd = &cobra.Command{
	Use:   "toc <file.txt>",
	Short: "Locate the table of contents",
	Long: `Locate the front-matter table of contents and print the lines that would
be removed. With --write the text without the TOC is saved to a file.

Examples:
  txtshelf toc novel.txt
  txtshelf toc novel.txt --write novel.notoc.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := ingest.Read(args[0])
		if err != nil {
			return err
		}

		r, err := newRunner(cmd, &tocOpts.pipeline, src.Fingerprint)
		if err != nil {
			return err
		}
		defer r.Close()

		res, err := r.engine.Run(cmd.Context(), src.Text, pipeline.RunOptions{Until: pipeline.StageTOC})
		if err != nil {
			return err
		}

		report := tocReport{
			Language: string(res.Document.Language),
			TOC:      api.NewStructure(res).TOC,
		}
		if res.TOC.Removed {
			lines := strings.Split(src.Text, "\n")
			if res.TOC.StartLine > 0 && res.TOC.EndLine <= len(lines) {
				report.Lines = lines[res.TOC.StartLine-1 : res.TOC.EndLine]
			}
		}
		if tocOpts.write != "" {
			if err := os.WriteFile(tocOpts.write, []byte(res.Document.Text), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", tocOpts.write, err)
			}
			report.Written = tocOpts.write
		}
		return printer.Print(report)
	},
}

func init() {
	tocOpts.pipeline.register(tocCmd)
	tocCmd.Flags().StringVar(&tocOpts.write, "write", "", "save the text without its table of contents")
	rootCmd.AddCommand(tocCmd)
}
