package tap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
	"github.com/dshills/keytap/internal/input/keymap"
)

func rule(from, to string, apps ...string) keymap.Rule {
	r := keymap.NewRule(keymap.Press(key.MustParseCombo(from)), keymap.Press(key.MustParseCombo(to)))
	return r.WithScope(apps...)
}

func newTestSession(rules []keymap.Rule, opts ...Option) (*Session, *input.Pipeline) {
	store := keymap.NewStore()
	store.Publish(keymap.NewSnapshot(rules))
	fg := &Foreground{}
	p := input.NewPipeline(store, input.WithResolver(fg))
	return NewSession(p, append([]Option{WithForeground(fg)}, opts...)...), p
}

func TestSession_Golden(t *testing.T) {
	tests := []struct {
		name  string
		rules []keymap.Rule
	}{
		{"terminal", []keymap.Rule{rule("Control+LetterX", "Control+LetterC", "Terminal")}},
		{"arrows", []keymap.Rule{rule("Control+Shift+UpArrow", "Alt+Shift+UpArrow")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := os.ReadFile(filepath.Join("testdata", tt.name+".jsonl"))
			require.NoError(t, err)

			s, _ := newTestSession(tt.rules)
			var out bytes.Buffer
			require.NoError(t, s.Serve(t.Context(), bytes.NewReader(in), &out))

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, tt.name, out.Bytes())
		})
	}
}

func TestSession_InjectsAfterDecision(t *testing.T) {
	var out bytes.Buffer
	var posted []key.SyntheticEvent
	inj := InjectorFunc(func(ev key.SyntheticEvent) error {
		assert.Contains(t, out.String(), `"action":"suppress"`, "decision must be written before injection")
		posted = append(posted, ev)
		return nil
	})
	s, _ := newTestSession([]keymap.Rule{rule("Control+LetterX", "Control+LetterC")}, WithInjector(inj))

	in := `{"keyCode":59,"type":"flagsChanged","flags":262144}
{"keyCode":7,"type":"keyDown","flags":262144}
{"keyCode":7,"type":"keyUp","flags":262144}
`
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(in), &out))

	require.Len(t, posted, 1)
	assert.Equal(t, key.LetterC.Code(), posted[0].KeyCode)
	assert.True(t, posted[0].IsKeyDown())
	assert.Equal(t, key.ModCtrl, posted[0].Flags)
	assert.EqualValues(t, 3, s.Seq())
	assert.Zero(t, s.InjectErrors())
}

func TestSession_InjectErrorsDoNotStop(t *testing.T) {
	inj := InjectorFunc(func(key.SyntheticEvent) error { return errors.New("post failed") })
	s, _ := newTestSession([]keymap.Rule{rule("LetterA", "LetterB")}, WithInjector(inj))

	in := `{"keyCode":0,"type":"keyDown"}
{"keyCode":0,"type":"keyUp"}
{"keyCode":0,"type":"keyDown"}
`
	var out bytes.Buffer
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(in), &out))
	assert.EqualValues(t, 2, s.InjectErrors())
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestSession_ForegroundIsSticky(t *testing.T) {
	s, _ := newTestSession([]keymap.Rule{rule("LetterA", "LetterB", "Terminal")})

	in := `{"keyCode":0,"type":"keyDown","app":"Terminal"}
{"keyCode":0,"type":"keyUp"}
{"keyCode":0,"type":"keyDown"}
{"keyCode":0,"type":"keyUp","app":"Finder"}
{"keyCode":0,"type":"keyDown"}
`
	var out bytes.Buffer
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], `"action":"suppress"`)
	assert.Contains(t, lines[2], `"action":"suppress"`)
	assert.Contains(t, lines[4], `"action":"pass"`)
}

func TestSession_NoTrailingNewline(t *testing.T) {
	s, _ := newTestSession(nil)
	var out bytes.Buffer
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(`{"keyCode":0,"type":"keyDown"}`), &out))
	assert.Equal(t, "{\"seq\":1,\"action\":\"pass\"}\n", out.String())
}

func TestSession_OversizedLineAnswersPass(t *testing.T) {
	s, _ := newTestSession(nil)
	in := strings.Repeat("9", maxLineSize*2) + "\n" + `{"keyCode":0,"type":"keyDown"}` + "\n"
	var out bytes.Buffer
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"seq":1,"action":"pass"`)
	assert.Contains(t, lines[0], "line 1: line too long")
	assert.Equal(t, `{"seq":2,"action":"pass"}`, lines[1])
}

func TestSession_Cancel(t *testing.T) {
	s, _ := newTestSession(nil)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, pr, io.Discard) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestSession_ReadError(t *testing.T) {
	s, _ := newTestSession(nil)
	boom := errors.New("boom")

	err := s.Serve(t.Context(), iotest.ErrReader(boom), io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "reading events")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestSession_WriteError(t *testing.T) {
	s, _ := newTestSession(nil)

	err := s.Serve(t.Context(), strings.NewReader(`{"keyCode":0,"type":"keyDown"}`+"\n"), failWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing decision")
}

func TestSession_TapDisabledResets(t *testing.T) {
	s, p := newTestSession(nil)

	in := `{"keyCode":59,"type":"flagsChanged","flags":262144}
{"keyCode":0,"type":"keyDown","flags":262144}
`
	require.NoError(t, s.Serve(t.Context(), strings.NewReader(in), io.Discard))
	assert.Equal(t, key.NewSet(key.Control, key.LetterA), p.Held())

	require.NoError(t, s.Serve(t.Context(), strings.NewReader(`{"type":"tapDisabled"}`), io.Discard))
	assert.True(t, p.Held().IsEmpty())
}
