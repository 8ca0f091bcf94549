package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/keytap/internal/input/key"
)

// KeyEntry is one row of the key table.
type KeyEntry struct {
	Name     string `json:"name"`
	Code     int64  `json:"code"`
	Modifier bool   `json:"modifier,omitempty"`
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [query]",
		Short: "List key names and their raw codes",
		Long: `List the key names rule files may use, with their raw key codes.

With a query, only names that fuzzily match it are listed, best match first.

Example:
  keytap keys
  keytap keys ctrl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			var keys []key.Key
			if len(args) == 1 {
				for _, name := range key.Suggest(args[0], 0) {
					keys = append(keys, key.FromName(name))
				}
				if len(keys) == 0 {
					return NewExitError(ExitFailure, "no key matches "+args[0])
				}
			} else {
				keys = key.All()
			}

			entries := make([]KeyEntry, len(keys))
			for i, k := range keys {
				entries[i] = KeyEntry{Name: k.String(), Code: k.Code(), Modifier: k.IsModifier()}
			}

			if formatter.IsJSON() {
				return formatter.Success(entries)
			}
			for _, e := range entries {
				mark := ""
				if e.Modifier {
					mark = "  (modifier)"
				}
				formatter.Printf("%-12s %3d%s\n", e.Name, e.Code, mark)
			}
			return nil
		},
	}
}
