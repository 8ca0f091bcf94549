package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keytap/internal/app"
	"github.com/dshills/keytap/internal/tap"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	RulesDir string
	NoWatch  bool
	Inject   string
	App      string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Decide keyboard events read from stdin",
		Long: `Run the remapping pipeline against an event tap.

Events are read from stdin as JSON lines and one decision line is written to
stdout per event. The rules directory is watched and reloaded on change; a
rules change that fails to load keeps the previous rules active.

Example:
  keytap-tap | keytap serve --rules ~/.config/keytap/rules
  keytap serve --inject /tmp/keytap.inject`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "rules directory (overrides settings)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "do not reload rules on change")
	cmd.Flags().StringVar(&opts.Inject, "inject", "", "also write synthetic events to this file or pipe")
	cmd.Flags().StringVar(&opts.App, "app", "", "initial foreground application")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	settings, err := loadSettings(opts.RootOptions, opts.RulesDir)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, settings, cmd.ErrOrStderr())

	fg := &tap.Foreground{}
	if opts.App != "" {
		fg.Set(opts.App)
	}

	application, err := app.New(app.Options{
		Settings: settings,
		Resolver: fg,
		Logger:   logger,
		Watch:    !opts.NoWatch,
	})
	if err != nil {
		return WrapExitError(app.ExitCode(err), "loading rules", err)
	}
	defer application.Shutdown()

	if err := application.Start(); err != nil {
		return WrapExitError(ExitFailure, "starting", err)
	}

	sessOpts := []tap.Option{
		tap.WithForeground(fg),
		tap.WithLogger(logger.With("component", "tap")),
	}
	if opts.Inject != "" {
		f, err := os.OpenFile(opts.Inject, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
		if err != nil {
			return WrapExitError(ExitTapFailure, "opening injection target",
				fmt.Errorf("%w: %w", app.ErrTapFailure, err))
		}
		defer f.Close()
		sessOpts = append(sessOpts, tap.WithInjector(tap.NewLineInjector(f)))
	}
	session := tap.NewSession(application.Pipeline(), sessOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving", "rules", settings.Rules.Dir, "watch", !opts.NoWatch)
	err = session.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitTapFailure, "event tap", fmt.Errorf("%w: %w", app.ErrTapFailure, err))
	}

	logger.Info("stopped", "events", session.Seq(), "injectErrors", session.InjectErrors())
	return nil
}
