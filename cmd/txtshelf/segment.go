package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/ingest"
	"github.com/jackzampolin/txtshelf/internal/integrity"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
)

var segmentOpts struct {
	pipeline pipelineFlags
}

var segmentCmd = &cobra.Command{
	Use:   "segment <file.txt> [part2.txt ...]",
	Short: "Print the inferred structure without writing an ePub",
	Long: `Run structure inference and print the volume, chapter and section tree
with per-chapter confidence scores and an integrity report.

Examples:
  txtshelf segment novel.txt
  txtshelf segment novel.txt -o json --length-check`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := ingest.Ingest(ingest.Request{Paths: args, Logger: logger})
		if err != nil {
			return err
		}

		r, err := newRunner(cmd, &segmentOpts.pipeline, src.Fingerprint)
		if err != nil {
			return err
		}
		defer r.Close()

		res, err := r.engine.Run(cmd.Context(), src.Text, pipeline.RunOptions{})
		if err != nil {
			return err
		}

		structure := api.NewStructure(res)
		structure.Integrity = api.NewIntegrityCheck(integrity.Compare(res.Document.Text, res.Volumes))
		return printer.Print(structure)
	},
}

func init() {
	segmentOpts.pipeline.register(segmentCmd)
	rootCmd.AddCommand(segmentCmd)
}
