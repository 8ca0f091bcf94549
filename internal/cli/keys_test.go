package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	r := execute(t, nil, "keys")
	require.NoError(t, r.err)
	assert.Regexp(t, `(?m)^LetterX\s+7$`, r.stdout)
	assert.Regexp(t, `(?m)^Windows\s+61  \(modifier\)$`, r.stdout)
	assert.Regexp(t, `(?m)^Alt\s+54  \(modifier\)$`, r.stdout)
}

func TestKeysJSON(t *testing.T) {
	r := execute(t, nil, "--format", "json", "keys")
	require.NoError(t, r.err)

	var resp struct {
		Status string     `json:"status"`
		Data   []KeyEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	codes := make(map[string]int64, len(resp.Data))
	for _, e := range resp.Data {
		codes[e.Name] = e.Code
	}
	assert.Equal(t, int64(59), codes["Control"])
	assert.Equal(t, int64(126), codes["UpArrow"])
	assert.Equal(t, int64(8), codes["LetterC"])
}

func TestVersion(t *testing.T) {
	r := execute(t, nil, "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "keytap "+Version)

	r = execute(t, nil, "--format", "json", "version")
	require.NoError(t, r.err)
	assert.JSONEq(t,
		`{"status":"ok","data":{"version":"`+Version+`","commit":"`+Commit+`","date":"`+Date+`"}}`,
		r.stdout)
}

func TestKeysQuery(t *testing.T) {
	r := execute(t, nil, "keys", "ctrl")
	require.NoError(t, r.err)
	assert.Regexp(t, `^Control\s+59  \(modifier\)\n$`, r.stdout)

	r = execute(t, nil, "keys", "zzz")
	require.Error(t, r.err)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))
}
