package loader

import (
	"strings"
	"testing"
	"time"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("KEYTAP_LOG_LEVEL", "debug")
	t.Setenv("KEYTAP_RULES_DIR", "/tmp/rules")
	t.Setenv("KEYTAP_RULES_DEBOUNCE", "250ms")
	t.Setenv("KEYTAP_TAP_SYNTHETIC_TAG", "0x6B747031")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"log.level", "debug"},
		{"rules.dir", "/tmp/rules"},
		{"rules.debounce", 250 * time.Millisecond},
		{"tap.syntheticTag", "0x6B747031"},
	}
	for _, tt := range tests {
		if val, ok := getByPath(config, tt.path); !ok || val != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, val, val, tt.want)
		}
	}
}

func TestEnvLoader_LoadUnmapped(t *testing.T) {
	t.Setenv("KEYTAP_CUSTOM_SETTING", "value")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "custom.setting"); !ok || val != "value" {
		t.Errorf("custom.setting = %v, want 'value'", val)
	}
}

func TestEnvLoader_LoadEmptyValue(t *testing.T) {
	t.Setenv("KEYTAP_LOG_FORMAT", "")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, ok := getByPath(config, "log.format"); !ok || val != "" {
		t.Errorf("log.format = %v, %v; want empty string set", val, ok)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		env  string
		want string
	}{
		{"KEYTAP_LOG_LEVEL", "log.level"},
		{"KEYTAP_TAP_SYNTHETIC_TAG", "tap.syntheticTag"},
		{"KEYTAP_RULES_DEBOUNCE_MAX_WAIT", "rules.debounceMaxWait"},
		{"KEYTAP_VERBOSE", "verbose"},
	}

	for _, tt := range tests {
		if got := loader.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"", ""},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"false", false},
		{"off", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1.5", 1.5},
		{"100ms", 100 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"0x6B747031", "0x6B747031"},
		{"debug", "debug"},
	}

	for _, tt := range tests {
		if got := parseValue(tt.input); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}

func TestEnvLoader_AddRemoveMapping(t *testing.T) {
	t.Setenv("KT_LEVEL", "warn")

	loader := NewEnvLoaderWithMapping("KEYTAP_", nil)
	loader.AddMapping("KT_LEVEL", "log.level")

	config, _ := loader.Load()
	if val, _ := getByPath(config, "log.level"); val != "warn" {
		t.Errorf("log.level = %v, want warn", val)
	}

	loader.RemoveMapping("KT_LEVEL")
	config, _ = loader.Load()
	if _, ok := getByPath(config, "log.level"); ok {
		t.Error("log.level should not be set after RemoveMapping")
	}
}

func TestSetByPath(t *testing.T) {
	data := map[string]any{"log": "not a map"}
	setByPath(data, "log.level", "info")
	setByPath(data, "rules.dir", "/r")
	setByPath(data, "top", 1)

	if val, _ := getByPath(data, "log.level"); val != "info" {
		t.Errorf("log.level = %v", val)
	}
	if val, _ := getByPath(data, "rules.dir"); val != "/r" {
		t.Errorf("rules.dir = %v", val)
	}
	if data["top"] != 1 {
		t.Errorf("top = %v", data["top"])
	}
}

// getByPath is a test helper to get values from nested maps.
func getByPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		val, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		current, ok = val.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}
