package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/keytap/internal/input/keymap"
)

func TestExpandPrints(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.json", terminalRules)

	r := execute(t, nil, "expand", path)
	require.NoError(t, r.err)
	assert.Equal(t, "LetterX", gjson.Get(r.stdout, "terminal.rules.0.fromKey.keyCode").String())
	assert.Equal(t, "Control", gjson.Get(r.stdout, "terminal.rules.0.toKey.pressedKeys.0").String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, terminalRules, string(data), "file must not change without --write")
}

func TestExpandWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.json", terminalRules)

	r := execute(t, nil, "expand", "-w", path)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "1 record(s) expanded")

	result, err := keymap.NewLoader().LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, result.Rules, 1)
	assert.Equal(t, "Control+LetterX -> Control+LetterC [Terminal]", result.Rules[0].String())

	r = execute(t, nil, "--format", "json", "expand", "-w", path)
	require.NoError(t, r.err)
	var resp struct {
		Status string       `json:"status"`
		Data   ExpandResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, 0, resp.Data.Records)
	assert.False(t, resp.Data.Written)
}

func TestExpandErrors(t *testing.T) {
	dir := t.TempDir()

	r := execute(t, nil, "expand", writeFile(t, dir, "rules.yaml", arrowRules))
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, keymap.ErrUnsupportedFormat)

	r = execute(t, nil, "expand", writeFile(t, dir, "bad.json", `{"g": ["LetterA LetterB"]}`))
	require.Error(t, r.err)
	assert.Equal(t, ExitInvalidConfig, GetExitCode(r.err))

	r = execute(t, nil, "expand", dir+"/missing.json")
	require.Error(t, r.err)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))
}
