// Package cli defines the signalconfig command tree.
package cli

import (
	"signalconfig/internal/config"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X signalconfig/internal/cli.Version=...".
var Version = "dev"

// Execute runs the root command against process arguments.
func Execute() error {
	return NewRoot().Execute()
}

// configFlags holds the shared config source flags.
type configFlags struct {
	file string
	dir  string
}

// load resolves the config snapshot; without flags the defaults are used.
// Params: none.
// Returns: validated config.
func (f *configFlags) load() (config.Config, error) {
	if f.file == "" && f.dir == "" {
		return config.Default(), nil
	}
	source, err := config.FromCLI(f.file, f.dir)
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadSnapshot(source)
}

// NewRoot builds the root command with every subcommand attached.
func NewRoot() *cobra.Command {
	flags := &configFlags{}
	root := &cobra.Command{
		Use:          "signalconfig",
		Short:        "Signal configuration drafts, validation, and launch service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.file, "config-file", "", "path to one TOML config file")
	root.PersistentFlags().StringVar(&flags.dir, "config-dir", "", "path to directory with TOML config fragments")

	root.AddCommand(
		ServeCmd(flags),
		ValidateCmd(),
		DraftsCmd(flags),
		VersionCmd(),
	)
	return root
}
