package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dshills/keytap/internal/input/feedback"
)

// Section accessors return value structs. Mutating a returned struct does
// not modify the configuration; use Config.Set.

// LogSettings controls daemon logging.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is text or json.
	Format string
}

// RulesSettings controls where rules come from.
type RulesSettings struct {
	// Dir is the rules directory. A leading ~ and $VARS are expanded.
	Dir string

	// Debounce is the quiet period before a changed directory is reloaded.
	Debounce time.Duration
}

// TapSettings controls the event tap.
type TapSettings struct {
	// SyntheticTag is stamped on every synthetic event.
	SyntheticTag int64
}

// Settings is the complete decoded daemon configuration.
type Settings struct {
	Log   LogSettings
	Rules RulesSettings
	Tap   TapSettings
}

// Accepted values for enumerated settings.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Log:   LogSettings{Level: "info", Format: "text"},
		Rules: RulesSettings{Dir: DefaultRulesDir(), Debounce: 100 * time.Millisecond},
		Tap:   TapSettings{SyntheticTag: feedback.DefaultTag},
	}
}

// Log returns the logging section.
func (c *Config) Log() (LogSettings, error) {
	level, err1 := c.GetString("log.level")
	format, err2 := c.GetString("log.format")
	return LogSettings{
		Level:  strings.ToLower(strings.TrimSpace(level)),
		Format: strings.ToLower(strings.TrimSpace(format)),
	}, errors.Join(err1, err2)
}

// Rules returns the rules section.
func (c *Config) Rules() (RulesSettings, error) {
	dir, err1 := c.GetString("rules.dir")
	debounce, err2 := c.GetDuration("rules.debounce")
	return RulesSettings{
		Dir:      ExpandPath(dir),
		Debounce: debounce,
	}, errors.Join(err1, err2)
}

// Tap returns the tap section.
func (c *Config) Tap() (TapSettings, error) {
	tag, err := c.GetInt64("tap.syntheticTag")
	return TapSettings{SyntheticTag: tag}, err
}

// Settings decodes and validates every section.
func (c *Config) Settings() (Settings, error) {
	log, err1 := c.Log()
	rules, err2 := c.Rules()
	tap, err3 := c.Tap()
	if err := errors.Join(err1, err2, err3); err != nil {
		return Settings{}, err
	}

	s := Settings{Log: log, Rules: rules, Tap: tap}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every setting and returns all problems joined.
func (s Settings) Validate() error {
	var errs []error

	if !slices.Contains(LogLevels, s.Log.Level) {
		errs = append(errs, &ValidationError{
			Path:    "log.level",
			Message: "must be one of " + strings.Join(LogLevels, ", "),
			Value:   s.Log.Level,
			Code:    ErrCodeInvalidEnum,
		})
	}
	if !slices.Contains(LogFormats, s.Log.Format) {
		errs = append(errs, &ValidationError{
			Path:    "log.format",
			Message: "must be one of " + strings.Join(LogFormats, ", "),
			Value:   s.Log.Format,
			Code:    ErrCodeInvalidEnum,
		})
	}
	if s.Rules.Dir == "" {
		errs = append(errs, &ValidationError{
			Path:    "rules.dir",
			Message: "is required",
			Value:   s.Rules.Dir,
			Code:    ErrCodeRequiredMissing,
		})
	}
	if s.Rules.Debounce <= 0 {
		errs = append(errs, &ValidationError{
			Path:    "rules.debounce",
			Message: "must be positive",
			Value:   s.Rules.Debounce,
			Code:    ErrCodeOutOfRange,
		})
	}
	if s.Tap.SyntheticTag == 0 {
		errs = append(errs, &ValidationError{
			Path:    "tap.syntheticTag",
			Message: "must be non-zero",
			Value:   s.Tap.SyntheticTag,
			Code:    ErrCodeOutOfRange,
		})
	}

	return errors.Join(errs...)
}

// Load reads settings with the given options and returns them decoded and
// validated.
func Load(opts ...Option) (Settings, error) {
	c := New(opts...)
	if err := c.Load(); err != nil {
		return Settings{}, err
	}
	return c.Settings()
}

// ExpandPath expands environment variables and a leading ~ in path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}
