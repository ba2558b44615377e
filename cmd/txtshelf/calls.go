package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/llmcall"
)

var callsOpts struct {
	source    string
	stage     string
	promptKey string
	failed    bool
	limit     int
	offset    int
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the language model call log",
	Long: `Every model call is recorded in ~/.txtshelf/calls.db when llm.record_calls
is on. Calls are labelled with the fingerprint of the converted source.

Examples:
  txtshelf calls list --stage arbitrate
  txtshelf calls list --failed -o json
  txtshelf calls counts`,
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calls, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		filter := llmcall.QueryFilter{
			Source:    callsOpts.source,
			Stage:     callsOpts.stage,
			PromptKey: callsOpts.promptKey,
			Limit:     callsOpts.limit,
			Offset:    callsOpts.offset,
		}
		if callsOpts.failed {
			success := false
			filter.Success = &success
		}
		calls, err := store.List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return printer.Print(api.NewCalls(calls))
	},
}

var callsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one call including the model response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		call, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printer.Print(api.NewCallDetail(call))
	},
}

var callsCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count recorded calls per prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		counts, err := store.CountByPromptKey(cmd.Context(), callsOpts.source)
		if err != nil {
			return err
		}
		return printer.Print(counts)
	},
}

// openCalls opens an existing call log. A missing log is reported rather
// than created.
func openCalls() (*llmcall.Store, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	path := h.CallsDBPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no call log at %s (enable llm.record_calls and run convert)", path)
	}
	return llmcall.OpenStore(path)
}

func init() {
	callsCmd.PersistentFlags().StringVar(&callsOpts.source, "source", "", "only calls for this source fingerprint")
	callsListCmd.Flags().StringVar(&callsOpts.stage, "stage", "", "only calls of this stage (toc, arbitrate, titles)")
	callsListCmd.Flags().StringVar(&callsOpts.promptKey, "prompt", "", "only calls using this prompt key")
	callsListCmd.Flags().BoolVar(&callsOpts.failed, "failed", false, "only failed calls")
	callsListCmd.Flags().IntVar(&callsOpts.limit, "limit", 50, "maximum number of calls")
	callsListCmd.Flags().IntVar(&callsOpts.offset, "offset", 0, "skip this many calls")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsGetCmd)
	callsCmd.AddCommand(callsCountsCmd)
	rootCmd.AddCommand(callsCmd)
}
