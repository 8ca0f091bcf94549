package app

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keytap/internal/config/notify"
	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
	"github.com/dshills/keytap/internal/input/keymap"
)

func newTestApp(t *testing.T, dir string, resolver input.AppResolver, watch bool) *Application {
	t.Helper()
	app, err := New(Options{
		Settings: testSettings(dir),
		Resolver: resolver,
		Watch:    watch,
	})
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app
}

func TestNew_LoadsRules(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, input.StaticApp("Terminal"), false)

	assert.Equal(t, 1, app.Store().Current().Len())
	assert.Equal(t, dir, app.Reloader().Dir())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Notifier())
	assert.False(t, app.IsRunning())

	p := app.Pipeline()
	p.Process(flagsChanged(key.Control, key.ModCtrl))
	d := p.Process(down(key.LetterX, key.ModCtrl))
	require.Equal(t, input.Suppress, d.Action)
	require.NotNil(t, d.Synthetic)
	assert.Equal(t, key.LetterC.Code(), d.Synthetic.KeyCode)
	assert.Equal(t, key.ModCtrl, d.Synthetic.Flags)
	assert.Equal(t, app.Pipeline().Guard().Tag(), d.Synthetic.SourceTag)
}

func TestNew_OtherApplicationPasses(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, input.StaticApp("Finder"), false)

	p := app.Pipeline()
	p.Process(flagsChanged(key.Control, key.ModCtrl))
	d := p.Process(down(key.LetterX, key.ModCtrl))
	assert.Equal(t, input.Pass, d.Action)
	assert.Nil(t, d.Synthetic)
}

func TestNew_CustomTag(t *testing.T) {
	dir := rulesDir(t, map[string]string{"20-arrows.yaml": arrowRules})
	settings := testSettings(dir)
	settings.Tap.SyntheticTag = 0x1234

	app, err := New(Options{Settings: settings})
	require.NoError(t, err)
	defer app.Shutdown()

	p := app.Pipeline()
	p.Process(flagsChanged(key.Control, key.ModCtrl))
	p.Process(flagsChanged(key.Shift, key.ModCtrl|key.ModShift))
	d := p.Process(down(key.UpArrow, key.ModCtrl|key.ModShift))
	require.NotNil(t, d.Synthetic)
	assert.EqualValues(t, 0x1234, d.Synthetic.SourceTag)
}

func TestNew_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"missing directory", func(t *testing.T) string { return t.TempDir() + "/missing" }},
		{"malformed file", func(t *testing.T) string {
			return rulesDir(t, map[string]string{"a.json": `[`})
		}},
		{"bad target key", func(t *testing.T) string {
			return rulesDir(t, map[string]string{"a.json": `{"g": ["LetterA -> Bogus"]}`})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{Settings: testSettings(tt.dir(t))})
			require.Error(t, err)
			assert.Equal(t, ExitInvalidConfig, ExitCode(err))
		})
	}
}

func TestApplication_DecisionLogging(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	var logs bytes.Buffer
	app, err := New(Options{
		Settings: testSettings(dir),
		Resolver: input.StaticApp("Terminal"),
		Logger:   NewLogger(LoggerConfig{Level: slog.LevelDebug, Format: "json", Output: &logs}),
	})
	require.NoError(t, err)
	defer app.Shutdown()

	app.Pipeline().Process(flagsChanged(key.Control, key.ModCtrl))
	app.Pipeline().Process(down(key.LetterX, key.ModCtrl))

	out := logs.String()
	assert.Contains(t, out, `"msg":"rules published"`)
	assert.Contains(t, out, `"msg":"decision"`)
	assert.Contains(t, out, `"action":"suppress"`)
}

func TestApplication_StartShutdown(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, nil, false)

	require.NoError(t, app.Start())
	assert.True(t, app.IsRunning())
	assert.ErrorIs(t, app.Start(), ErrAlreadyRunning)

	select {
	case <-app.Done():
		t.Fatal("Done closed before Shutdown")
	default:
	}

	app.Shutdown()
	assert.False(t, app.IsRunning())
	select {
	case <-app.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Shutdown")
	}

	assert.NotPanics(t, app.Shutdown)
}

func TestApplication_WatchReloads(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, input.StaticApp("Finder"), true)

	reloaded := make(chan notify.Change, 8)
	app.Notifier().Subscribe(func(c notify.Change) { reloaded <- c })

	require.NoError(t, app.Start())
	first := app.Store().Current()

	writeRule(t, dir, "20-arrows.yaml", arrowRules)

	require.Eventually(t, func() bool {
		return app.Store().Current().Len() == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, first.ID(), app.Store().Current().ID())

	select {
	case c := <-reloaded:
		assert.Equal(t, notify.ChangeReload, c.Type)
	case <-time.After(time.Second):
		t.Fatal("no reload notification")
	}

	p := app.Pipeline()
	p.Process(flagsChanged(key.Control, key.ModCtrl))
	p.Process(flagsChanged(key.Shift, key.ModCtrl|key.ModShift))
	d := p.Process(down(key.UpArrow, key.ModCtrl|key.ModShift))
	assert.Equal(t, input.Suppress, d.Action)
}

func TestApplication_WatchKeepsLastKnownGood(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, nil, true)

	failed := make(chan notify.Change, 8)
	app.Notifier().SubscribeTypes(func(c notify.Change) { failed <- c }, notify.ChangeReloadFailed)

	require.NoError(t, app.Start())
	good := app.Store().Current()

	writeRule(t, dir, "20-broken.json", `{"g": [`)

	select {
	case c := <-failed:
		assert.Equal(t, good.ID(), c.SnapshotID)
		assert.True(t, errors.Is(c.Err, keymap.ErrMalformed))
	case <-time.After(5 * time.Second):
		t.Fatal("no reloadFailed notification")
	}
	assert.Same(t, good, app.Store().Current())
}

func TestApplication_WatchMissingDirAfterLoad(t *testing.T) {
	dir := rulesDir(t, map[string]string{"10-terminal.json": terminalRules})
	app := newTestApp(t, dir, nil, true)

	app.reloader.dir = dir + "/gone"

	err := app.Start()
	require.Error(t, err)
	assert.False(t, app.IsRunning())
}
