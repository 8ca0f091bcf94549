package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/keytap/internal/input/keymap"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool
}

// CheckReport is the result of checking a rules directory.
type CheckReport struct {
	Dir      string      `json:"dir"`
	Files    []string    `json:"files"`
	Rules    []RuleEntry `json:"rules"`
	Warnings []string    `json:"warnings,omitempty"`
}

// RuleEntry describes one loaded rule.
type RuleEntry struct {
	Index  int    `json:"index"`
	Group  string `json:"group"`
	Name   string `json:"name,omitempty"`
	Rule   string `json:"rule"`
	Source string `json:"source"`
	Inert  bool   `json:"inert,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [rules-dir]",
		Short: "Load and validate a rules directory",
		Long: `Load every rule file in a directory the way serve does and report the
rules in match order, any warnings, and any errors.

Without an argument the configured rules directory is checked.

Example:
  keytap check ./rules
  keytap check --strict --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(opts, dir, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runCheck(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := loadSettings(opts.RootOptions, dir)
	if err != nil {
		return err
	}
	dir = settings.Rules.Dir
	formatter.VerboseLog("checking %s", dir)

	result, err := keymap.NewLoader().LoadDir(dir)
	if err == nil {
		err = result.Snapshot().Validate()
	}
	if err != nil {
		_ = formatter.Error(ExitInvalidConfig, "rules rejected: "+dir, splitErrors(err))
		return WrapExitError(ExitInvalidConfig, "rules rejected", err)
	}

	report := CheckReport{Dir: dir, Files: result.Sources}
	for i, r := range result.Rules {
		report.Rules = append(report.Rules, RuleEntry{
			Index:  i,
			Group:  r.Group,
			Name:   r.Name,
			Rule:   r.String(),
			Source: r.Source,
			Inert:  r.IsInert(),
		})
	}
	for _, w := range result.Warnings {
		report.Warnings = append(report.Warnings, w.String())
	}

	if opts.Strict && len(report.Warnings) > 0 {
		_ = formatter.Error(ExitInvalidConfig, fmt.Sprintf("%d warning(s) in %s", len(report.Warnings), dir), report.Warnings)
		return NewExitError(ExitInvalidConfig, "warnings in strict mode")
	}

	if formatter.IsJSON() {
		return formatter.Success(report)
	}

	formatter.Printf("%s: %d file(s), %d rule(s)\n", dir, len(report.Files), len(report.Rules))
	if opts.Verbose {
		for _, r := range report.Rules {
			formatter.Printf("  %3d  %-16s %s\n", r.Index, r.Group, r.Rule)
		}
	}
	for _, w := range report.Warnings {
		formatter.Printf("warning: %s\n", w)
	}
	formatter.Printf("✓ rules valid\n")
	return nil
}

// splitErrors flattens joined errors into one message per problem.
func splitErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return strings.Split(err.Error(), "\n")
}
