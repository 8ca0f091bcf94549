package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/keytap/internal/input/keymap"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Write bool
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <rules.json>",
		Short: "Rewrite compact rules in explicit form",
		Long: `Rewrite every compact "Control+LetterX -> Control+LetterC" record of a JSON
rule file as an explicit fromKey/toKey record. Everything else in the file is
left as it is.

The result is printed to stdout unless --write is given.

Example:
  keytap expand rules/10-terminal.json
  keytap expand -w rules/10-terminal.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "write the result back to the file")

	return cmd
}

// ExpandResult reports what expand did.
type ExpandResult struct {
	File     string `json:"file"`
	Records  int    `json:"records"`
	Written  bool   `json:"written"`
	Document string `json:"document,omitempty"`
}

func runExpand(opts *ExpandOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if format, ok := keymap.FormatOf(path); !ok || format != keymap.FormatJSON {
		return WrapExitError(ExitFailure, "expand", keymap.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitFailure, "reading rule file", err)
	}
	out, n, err := keymap.Expand(data)
	if err != nil {
		return WrapExitError(ExitInvalidConfig, "expanding "+path, err)
	}
	formatter.VerboseLog("expanded %d record(s) in %s", n, path)

	result := ExpandResult{File: path, Records: n}
	if opts.Write {
		if n > 0 {
			info, err := os.Stat(path)
			if err != nil {
				return WrapExitError(ExitFailure, "writing rule file", err)
			}
			if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
				return WrapExitError(ExitFailure, "writing rule file", err)
			}
			result.Written = true
		}
	} else {
		result.Document = string(out)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	if opts.Write {
		formatter.Printf("%s: %d record(s) expanded\n", path, n)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
