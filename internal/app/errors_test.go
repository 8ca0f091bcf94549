package app

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/keytap/internal/config"
	"github.com/dshills/keytap/internal/config/loader"
	"github.com/dshills/keytap/internal/input/keymap"
)

func TestOperationError(t *testing.T) {
	cause := errors.New("boom")
	err := NewOperationError("reload", "/rules", cause)

	assert.Equal(t, "reload /rules: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	err.WithContext("startup")
	assert.Equal(t, "reload /rules (startup): boom", err.Error())

	assert.Equal(t, "watch", NewOperationError("watch", "", nil).Error())

	var nilErr *OperationError
	assert.Nil(t, nilErr.WithContext("x"))
	assert.Equal(t, "", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("x"), ExitFailure},
		{"tap", fmt.Errorf("serve: %w", ErrTapFailure), ExitTapFailure},
		{"malformed rules", NewOperationError("reload", "/r", &keymap.ParseError{Source: "a.json", Err: errors.New("bad")}), ExitInvalidConfig},
		{"rule error", errors.Join(&keymap.RuleError{Source: "a.json", Group: "g", Err: keymap.ErrInvalidShortcut}), ExitInvalidConfig},
		{"unsupported", fmt.Errorf("x: %w", keymap.ErrUnsupportedFormat), ExitInvalidConfig},
		{"settings parse", &loader.ParseError{Path: "c.toml", Message: "bad"}, ExitInvalidConfig},
		{"settings invalid", &config.ValidationError{Path: "log.level"}, ExitInvalidConfig},
		{"settings type", &config.TypeError{Path: "tap.syntheticTag"}, ExitInvalidConfig},
		{"missing dir", fmt.Errorf("reading rules directory: %w", os.ErrNotExist), ExitInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
