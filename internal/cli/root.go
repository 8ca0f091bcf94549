// Package cli implements the keytap command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "auto"
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "auto"}

// NewRootCommand creates the root command for the keytap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keytap",
		Short: "keytap - keyboard shortcut remapper",
		Long: `keytap intercepts keyboard events and replaces configured shortcuts
with other shortcuts, optionally only while a given application is in front.

Rules are read from a directory of JSON, YAML or TOML files and reloaded when
the directory changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|auto)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "settings file (default "+defaultConfigHint+")")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

const defaultConfigHint = "$XDG_CONFIG_HOME/keytap/config.toml"

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
