package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/keytap/internal/app"
	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
	"github.com/dshills/keytap/internal/tap"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	RulesDir string
	App      string
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <events-file>",
		Short: "Replay an event script against the rules",
		Long: `Replay a file of JSON-line events, in the format serve reads, against a
rules directory and print what would happen to each event.

Use "-" to read the script from stdin. With --format json the output is the
exact decision stream serve would write.

Example:
  keytap simulate --rules ./rules --app Terminal events.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "rules directory (overrides settings)")
	cmd.Flags().StringVar(&opts.App, "app", "", "initial foreground application")

	return cmd
}

func runSimulate(opts *SimulateOptions, script string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := loadSettings(opts.RootOptions, opts.RulesDir)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if script != "-" {
		f, err := os.Open(script)
		if err != nil {
			return WrapExitError(ExitFailure, "opening event script", err)
		}
		defer f.Close()
		in = f
	}

	fg := &tap.Foreground{}
	if opts.App != "" {
		fg.Set(opts.App)
	}
	application, err := app.New(app.Options{
		Settings: settings,
		Resolver: fg,
		Logger:   newLogger(opts.RootOptions, settings, cmd.ErrOrStderr()),
	})
	if err != nil {
		return WrapExitError(app.ExitCode(err), "loading rules", err)
	}
	defer application.Shutdown()

	pipeline := application.Pipeline()
	formatter.VerboseLog("replaying %s against %d rule(s)", script, application.Store().Current().Len())

	out := formatter.Writer
	if !formatter.IsJSON() {
		pipeline.Observers().RegisterWithOptions(
			input.ObserverFunc(func(ev key.RawEvent, d input.Decision) {
				fmt.Fprintln(formatter.Writer, describe(ev, d))
			}),
			"simulate-trace",
			input.ObserverPriorityNormal,
		)
		out = io.Discard
	}

	session := tap.NewSession(pipeline,
		tap.WithForeground(fg),
		tap.WithLogger(application.Logger().With("component", "tap")),
	)
	if err := session.Serve(cmd.Context(), in, out); err != nil {
		return WrapExitError(ExitFailure, "replaying events", err)
	}

	m := pipeline.Metrics().Snapshot()
	formatter.Printf("%d event(s): %d suppressed, %d passed, %d echo(es)\n",
		m.EventsTotal, m.Suppressions, m.Passes, m.Echoes+m.EchoRepeats)
	return nil
}

// describe renders one decision as a line of text, e.g.
//
//	keyDown LetterX [Control] @Terminal: suppress => LetterC pressed [Control] (Control+LetterX -> Control+LetterC [Terminal])
func describe(ev key.RawEvent, d input.Decision) string {
	var b strings.Builder
	b.WriteString(ev.Type.String())
	b.WriteString(" ")
	b.WriteString(keyLabel(ev.KeyCode))
	if mods := ev.Flags.String(); mods != "" {
		fmt.Fprintf(&b, " [%s]", mods)
	}
	if d.App != "" {
		b.WriteString(" @" + d.App)
	}
	b.WriteString(": ")
	b.WriteString(d.Action.String())
	if d.Verdict.Bypasses() {
		fmt.Fprintf(&b, " (%s)", d.Verdict)
	}
	if s := d.Synthetic; s != nil {
		fmt.Fprintf(&b, " => %s %s", keyLabel(s.KeyCode), s.Direction)
		if mods := s.Flags.String(); mods != "" {
			fmt.Fprintf(&b, " [%s]", mods)
		}
	}
	if d.Rule != nil {
		fmt.Fprintf(&b, " (%s)", d.Rule)
	}
	return b.String()
}

func keyLabel(code int64) string {
	if k := key.FromCode(code); k.IsKnown() {
		return k.String()
	}
	return fmt.Sprintf("code %d", code)
}
