package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dshills/keytap/internal/config/loader"
	"github.com/dshills/keytap/internal/input/feedback"
)

// Config provides access to the merged keytap settings.
type Config struct {
	mu sync.RWMutex

	merged    map[string]any
	overrides map[string]any
	loaded    bool

	fs         loader.FileSystem
	configFile string
	envPrefix  string
	useEnv     bool
}

// Option configures a Config instance.
type Option func(*Config)

// WithConfigFile sets the settings file. An empty path disables the file
// layer.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.configFile = path
	}
}

// WithFS sets the file system the settings file is read from.
func WithFS(fs loader.FileSystem) Option {
	return func(c *Config) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithoutEnv disables the environment layer.
func WithoutEnv() Option {
	return func(c *Config) {
		c.useEnv = false
	}
}

// New creates a new Config instance with the given options.
func New(opts ...Option) *Config {
	c := &Config{
		overrides:  make(map[string]any),
		fs:         loader.DefaultFS(),
		configFile: DefaultConfigFile(),
		envPrefix:  loader.DefaultEnvPrefix,
		useEnv:     true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type namedLoader struct {
	name string
	l    loader.Loader
}

// Load reads all layers and replaces the merged settings. A missing
// settings file is not an error.
func (c *Config) Load() error {
	layers := []namedLoader{{"defaults", loader.Static(defaultConfig())}}
	if c.configFile != "" {
		layers = append(layers, namedLoader{c.configFile, loader.NewSettingsFile(c.fs, c.configFile)})
	}
	if c.useEnv {
		layers = append(layers, namedLoader{"environment", loader.NewEnvLoader(c.envPrefix)})
	}

	merged := make(map[string]any)
	for _, layer := range layers {
		m, err := layer.l.Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", layer.name, err)
		}
		merged = loader.DeepMerge(merged, m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.merged = loader.DeepMerge(merged, loader.Clone(c.overrides))
	c.loaded = true
	return nil
}

// ConfigFile returns the settings file path, or "" if disabled.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// Set overrides a setting above every other layer. The override survives
// later calls to Load.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.merged != nil {
		if err := setPath(c.merged, path, value); err != nil {
			return err
		}
	}
	return setPath(c.overrides, path, value)
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

func (c *Config) lookup(path string) (any, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		return nil, ErrNotLoaded
	}

	v, ok := c.Get(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrSettingNotFound)
	}
	return v, nil
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, err := c.lookup(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt64 returns an integer value at the given path. Strings are parsed
// with base prefixes, so "0x6B747031" is accepted.
func (c *Config) GetInt64(path string) (int64, error) {
	v, err := c.lookup(path)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val == math.Trunc(val) {
			return int64(val), nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64); err == nil {
			return i, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetDuration returns a duration at the given path. Strings use
// time.ParseDuration syntax; bare integers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, err := c.lookup(path)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
}

// DefaultConfigDir returns the keytap configuration directory.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "keytap")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "keytap")
}

// DefaultConfigFile returns the default settings file path.
func DefaultConfigFile() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// DefaultRulesDir returns the default rules directory.
func DefaultRulesDir() string {
	return filepath.Join(DefaultConfigDir(), "rules")
}

func defaultConfig() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"rules": map[string]any{
			"dir":      DefaultRulesDir(),
			"debounce": "100ms",
		},
		"tap": map[string]any{
			"syntheticTag": feedback.DefaultTag,
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %w", path, ErrInvalidPath)
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts, ignoring empty
// segments.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '.' })
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
