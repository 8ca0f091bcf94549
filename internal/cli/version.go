package cli

import (
	"github.com/spf13/cobra"
)

// VersionInfo is the build information printed by the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			info := VersionInfo{Version: Version, Commit: Commit, Date: Date}
			if formatter.IsJSON() {
				return formatter.Success(info)
			}
			formatter.Printf("keytap %s\n", info.Version)
			formatter.Printf("Commit: %s\n", info.Commit)
			formatter.Printf("Built: %s\n", info.Date)
			return nil
		},
	}
}
