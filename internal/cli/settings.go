package cli

import (
	"io"
	"log/slog"

	"github.com/dshills/keytap/internal/app"
	"github.com/dshills/keytap/internal/config"
)

// loadSettings reads the settings file and environment. A non-empty
// rulesDir overrides the configured rules directory.
func loadSettings(opts *RootOptions, rulesDir string) (config.Settings, error) {
	var cfgOpts []config.Option
	if opts.ConfigPath != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(config.ExpandPath(opts.ConfigPath)))
	}
	settings, err := config.Load(cfgOpts...)
	if err != nil {
		return config.Settings{}, WrapExitError(ExitInvalidConfig, "loading settings", err)
	}
	if rulesDir != "" {
		settings.Rules.Dir = config.ExpandPath(rulesDir)
	}
	return settings, nil
}

// newLogger builds the command logger. --verbose forces debug level.
func newLogger(opts *RootOptions, settings config.Settings, w io.Writer) *slog.Logger {
	cfg := app.LoggerConfigFrom(settings.Log, w)
	if opts.Verbose {
		cfg.Level = slog.LevelDebug
	}
	return app.NewLogger(cfg)
}
