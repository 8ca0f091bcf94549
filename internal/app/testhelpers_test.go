package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/keytap/internal/config"
	"github.com/dshills/keytap/internal/input/key"
)

const terminalRules = `{
  "terminal": {
    "applications": ["Terminal"],
    "rules": ["Control+LetterX -> Control+LetterC"]
  }
}`

const arrowRules = `arrows:
  - Control+Shift+UpArrow -> Alt+Shift+UpArrow
`

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func rulesDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeRule(t, dir, name, content)
	}
	return dir
}

func testSettings(dir string) config.Settings {
	s := config.Default()
	s.Rules.Dir = dir
	s.Rules.Debounce = 20 * time.Millisecond
	return s
}

func down(k key.Key, flags key.Modifier) key.RawEvent {
	return key.RawEvent{KeyCode: k.Code(), Type: key.KeyDown, Flags: flags}
}

func flagsChanged(k key.Key, flags key.Modifier) key.RawEvent {
	return key.RawEvent{KeyCode: k.Code(), Type: key.FlagsChanged, Flags: flags}
}
