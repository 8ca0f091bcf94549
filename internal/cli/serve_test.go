package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})

	r := execute(t, strings.NewReader(terminalScript), "serve", "--no-watch", "--rules", dir)
	require.NoError(t, r.err)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], `"action":"suppress"`)
	assert.Contains(t, lines[1], `"rule":"Control+LetterX -> Control+LetterC [Terminal]"`)
	assert.Contains(t, r.stderr, "rules published")
}

func TestServeWatching(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})

	r := execute(t, strings.NewReader(terminalScript), "serve", "--rules", dir)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "watching rules")
	assert.Equal(t, 4, strings.Count(r.stdout, "\n"))
}

func TestServeInject(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	inject := filepath.Join(t.TempDir(), "inject.jsonl")

	r := execute(t, strings.NewReader(terminalScript), "serve", "--no-watch", "--rules", dir, "--inject", inject)
	require.NoError(t, r.err)

	data, err := os.ReadFile(inject)
	require.NoError(t, err)
	assert.Equal(t, `{"keyCode":8,"keyDown":true,"flags":262144,"sourceTag":1802793009}`+"\n", string(data))
}

func TestServeInvalidRules(t *testing.T) {
	dir := rulesDir(t, map[string]string{"a.json": `{"g": [`})

	r := execute(t, strings.NewReader(""), "serve", "--no-watch", "--rules", dir)
	require.Error(t, r.err)
	assert.Equal(t, ExitInvalidConfig, GetExitCode(r.err))
}

func TestServeTapFailure(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})

	r := execute(t, iotest.ErrReader(errors.New("tap disabled by OS")), "serve", "--no-watch", "--rules", dir)
	require.Error(t, r.err)
	assert.Equal(t, ExitTapFailure, GetExitCode(r.err))
	assert.Contains(t, r.err.Error(), "tap disabled by OS")
}
