package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
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

const terminalScript = `{"keyCode":59,"type":"flagsChanged","flags":262144,"app":"Terminal"}
{"keyCode":7,"type":"keyDown","flags":262144}
{"keyCode":8,"type":"keyDown","flags":262144,"sourceTag":1802793009}
{"keyCode":7,"type":"keyUp","flags":262144}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func rulesDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir
}

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with an isolated settings directory.
func execute(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "KEYTAP_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
