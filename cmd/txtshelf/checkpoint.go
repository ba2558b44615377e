package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/checkpoint"
)

var checkpointDir string

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or discard saved title enhancement progress",
	Long: `Convert saves title enhancement progress to .<name>_resume.json in the
output directory. The file is removed when a conversion completes.

Examples:
  txtshelf checkpoint show novel.txt
  txtshelf checkpoint clear novel.txt --dir out/`,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show <file.txt>",
	Short: "Print the saved progress for a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := checkpointPath(args[0])
		st, err := checkpoint.Read(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no checkpoint at %s", path)
		}
		if err != nil {
			return err
		}
		return printer.Print(api.NewCheckpoint(path, st))
	},
}

var checkpointClearCmd = &cobra.Command{
	Use:   "clear <file.txt>",
	Short: "Discard the saved progress for a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := checkpointPath(args[0])
		st, err := checkpoint.Read(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintf(os.Stderr, "No checkpoint at %s\n", path)
			return nil
		case errors.Is(err, checkpoint.ErrCorrupt):
			// unreadable state is still ours to delete
			return os.Remove(path)
		case err != nil:
			return err
		}
		if err := checkpoint.Open(path, st.SourceFingerprint, checkpoint.Options{Logger: logger}).Clear(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Removed %s\n", path)
		return nil
	},
}

func checkpointPath(source string) string {
	dir := checkpointDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return checkpoint.Path(source, dir)
}

func init() {
	checkpointCmd.PersistentFlags().StringVar(&checkpointDir, "dir", "", "output directory of the conversion (default: next to the source)")
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)
	rootCmd.AddCommand(checkpointCmd)
}
