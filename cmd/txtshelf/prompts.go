package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/assistant"
	"github.com/jackzampolin/txtshelf/internal/prompts"
)

// promptInfo is one row of the prompts listing.
type promptInfo struct {
	Key         string   `json:"key" yaml:"key"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Override    bool     `json:"override" yaml:"override"`
	CID         string   `json:"cid" yaml:"cid"`
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and override model prompts",
	Long: `Prompts are Go templates embedded in the binary. A file named <key>.tmpl
in ~/.txtshelf/prompts replaces the embedded text.

Examples:
  txtshelf prompts list
  txtshelf prompts show assistant.identify_toc.system
  txtshelf prompts edit assistant.identify_toc.system
  txtshelf prompts reset assistant.identify_toc.system`,
}

func promptResolver() (*prompts.Resolver, *prompts.Store, error) {
	h, err := getHome()
	if err != nil {
		return nil, nil, err
	}
	store := prompts.NewStore(h.PromptsPath())
	r := prompts.NewResolver(store, logger)
	assistant.RegisterPrompts(r)
	return r, store, nil
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt keys and whether they are overridden",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := promptResolver()
		if err != nil {
			return err
		}
		var out []promptInfo
		for _, p := range r.AllEmbedded() {
			resolved, err := r.Resolve(p.Key)
			if err != nil {
				return err
			}
			out = append(out, promptInfo{
				Key:         p.Key,
				Description: p.Description,
				Variables:   resolved.Variables,
				Override:    resolved.IsOverride,
				CID:         resolved.CID,
			})
		}
		return printer.Print(out)
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the prompt text in effect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := promptResolver()
		if err != nil {
			return err
		}
		resolved, err := r.Resolve(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, resolved.Text)
		return err
	},
}

var promptsEditCmd = &cobra.Command{
	Use:   "edit <key>",
	Short: "Copy the embedded prompt into the override directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := promptResolver()
		if err != nil {
			return err
		}
		p, ok := r.GetEmbedded(args[0])
		if !ok {
			return fmt.Errorf("prompt not found: %s", args[0])
		}
		if _, exists, err := store.Get(p.Key); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("override for %s already exists in %s", p.Key, store.Dir())
		}
		if err := store.Put(p.Key, p.Text); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s.tmpl to %s\n", p.Key, store.Dir())
		return nil
	},
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Remove a prompt override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := promptResolver()
		if err != nil {
			return err
		}
		return store.Delete(args[0])
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsEditCmd)
	promptsCmd.AddCommand(promptsResetCmd)
	rootCmd.AddCommand(promptsCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
