// Package config loads the keytap daemon settings.
//
// Settings come from three layers, each overriding the one before:
//
//	┌─────────────────────────────┐
//	│  4. Overrides (CLI flags)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← KEYTAP_LOG_LEVEL, KEYTAP_RULES_DIR, ...
//	├─────────────────────────────┤
//	│  2. Settings File           │  ← <UserConfigDir>/keytap/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Rule files are not settings; they live in the rules directory named by
// rules.dir and are loaded by the keymap package.
//
// # Sub-packages
//
//   - loader: TOML and environment variable loading, map merging
//   - watcher: fsnotify-based directory watching for rule reloads
//   - notify: reload notifications
//
// # Usage
//
//	cfg := config.New(config.WithConfigFile(path))
//	if err := cfg.Load(); err != nil {
//	    return err
//	}
//	settings, err := cfg.Settings()
//
// Settings are decoded with typed getters; a value of the wrong type
// yields a *TypeError and an unacceptable value a *ValidationError.
package config
