package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/keytap/internal/input/feedback"
)

func TestDefault(t *testing.T) {
	s := Default()
	if s.Log.Level != "info" || s.Log.Format != "text" {
		t.Errorf("Log = %+v", s.Log)
	}
	if s.Rules.Debounce != 100*time.Millisecond {
		t.Errorf("Rules.Debounce = %v, want 100ms", s.Rules.Debounce)
	}
	if s.Tap.SyntheticTag != feedback.DefaultTag {
		t.Errorf("Tap.SyntheticTag = %#x, want %#x", s.Tap.SyntheticTag, feedback.DefaultTag)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		path   string
		code   ValidationErrorCode
	}{
		{"bad level", func(s *Settings) { s.Log.Level = "trace" }, "log.level", ErrCodeInvalidEnum},
		{"bad format", func(s *Settings) { s.Log.Format = "xml" }, "log.format", ErrCodeInvalidEnum},
		{"empty dir", func(s *Settings) { s.Rules.Dir = "" }, "rules.dir", ErrCodeRequiredMissing},
		{"zero debounce", func(s *Settings) { s.Rules.Debounce = 0 }, "rules.debounce", ErrCodeOutOfRange},
		{"negative debounce", func(s *Settings) { s.Rules.Debounce = -time.Second }, "rules.debounce", ErrCodeOutOfRange},
		{"zero tag", func(s *Settings) { s.Tap.SyntheticTag = 0 }, "tap.syntheticTag", ErrCodeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)

			err := s.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Path != tt.path || ve.Code != tt.code {
				t.Errorf("ValidationError = %s/%s, want %s/%s", ve.Path, ve.Code, tt.path, tt.code)
			}
		})
	}
}

func TestSettings_ValidateReportsAll(t *testing.T) {
	s := Default()
	s.Log.Level = "loud"
	s.Log.Format = "yaml"
	s.Tap.SyntheticTag = 0

	err := s.Validate()
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("Validate() = %T, want joined errors", err)
	}
	if n := len(joined.Unwrap()); n != 3 {
		t.Errorf("Validate() reported %d problems, want 3", n)
	}
}

func TestConfig_SettingsValidates(t *testing.T) {
	c := loadConfig(t, `
[log]
format = "xml"
`, WithoutEnv())

	if _, err := c.Settings(); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Settings() error = %v, want ErrValidationFailed", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[rules]\ndir = \"$KEYTAP_TEST_HOME/rules\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEYTAP_TEST_HOME", dir)

	s, err := Load(WithConfigFile(path), WithoutEnv())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(dir, "rules"); s.Rules.Dir != want {
		t.Errorf("Rules.Dir = %q, want %q", s.Rules.Dir, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("KEYTAP_X", "/opt/x")

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/rules", filepath.Join(home, "rules")},
		{"$KEYTAP_X/rules", "/opt/x/rules"},
		{"/abs/path", "/abs/path"},
		{"~other/rules", "~other/rules"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidationErrorCode_String(t *testing.T) {
	tests := []struct {
		code ValidationErrorCode
		want string
	}{
		{ErrCodeOutOfRange, "out_of_range"},
		{ErrCodeInvalidEnum, "invalid_enum"},
		{ErrCodeRequiredMissing, "required_missing"},
		{ValidationErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}
