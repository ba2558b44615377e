package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage txtshelf configuration",
	Long: `Configuration is read from --config, ./config.yaml or ~/.txtshelf/config.yaml.
Any key can be overridden with an environment variable, e.g.
TXTSHELF_LLM_ENABLED=true or TXTSHELF_PARSER_MIN_CHAPTER_LENGTH=200.

Examples:
  txtshelf config init
  txtshelf config show
  txtshelf config set llm.enabled true`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with every default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if !configForce && fileExists(path) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		return printer.Print(mgr.Get())
	},
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "List every key with its default and description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		type entry struct {
			Key         string `json:"key" yaml:"key"`
			Value       any    `json:"value" yaml:"value"`
			Description string `json:"description" yaml:"description"`
		}
		entries := config.DefaultEntries()
		out := make([]entry, len(entries))
		for i, e := range entries {
			out[i] = entry{Key: e.Key, Value: fmt.Sprint(e.Value), Description: e.Description}
		}
		return printer.Print(out)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one key in the config file",
	Long: `Change one key and write the config file. Values are converted to the
type of the key's default; keys without a default are stored as strings.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		if err := config.ValidateKey(key); err != nil {
			return err
		}
		value, err := config.ParseValue(key, raw)
		if errors.Is(err, config.ErrNoDefault) {
			value, err = raw, nil
		}
		if err != nil {
			return err
		}

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		path := mgr.ConfigFile()
		if path == "" {
			path = h.ConfigPath()
		}
		if err := mgr.Set(key, value, path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Set %s = %v in %s\n", key, value, path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDefaultsCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
