package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownSetting indicates a key in config.toml that keytap does not
// read. Misspelled keys would otherwise be ignored silently.
var ErrUnknownSetting = errors.New("unknown setting")

// File is the layout of config.toml. Keys that are absent stay nil so the
// layers below show through.
type File struct {
	Log   *LogTable   `toml:"log"`
	Rules *RulesTable `toml:"rules"`
	Tap   *TapTable   `toml:"tap"`
}

// LogTable is the [log] table.
type LogTable struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// RulesTable is the [rules] table. Debounce is a duration string such as
// "250ms" or an integer number of milliseconds.
type RulesTable struct {
	Dir      *string `toml:"dir"`
	Debounce any     `toml:"debounce"`
}

// TapTable is the [tap] table. SyntheticTag is an integer (0x6B747031 is
// valid TOML) or a string with a base prefix.
type TapTable struct {
	SyntheticTag any `toml:"syntheticTag"`
}

// Map returns the keys the file sets, in layer form.
func (f *File) Map() map[string]any {
	m := make(map[string]any)
	if t := f.Log; t != nil {
		section(m, "log", map[string]any{
			"level":  deref(t.Level),
			"format": deref(t.Format),
		})
	}
	if t := f.Rules; t != nil {
		section(m, "rules", map[string]any{
			"dir":      deref(t.Dir),
			"debounce": t.Debounce,
		})
	}
	if t := f.Tap; t != nil {
		section(m, "tap", map[string]any{
			"syntheticTag": t.SyntheticTag,
		})
	}
	return m
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// section stores the non-nil values of kv under name.
func section(m map[string]any, name string, kv map[string]any) {
	for k, v := range kv {
		if v == nil {
			delete(kv, k)
		}
	}
	if len(kv) > 0 {
		m[name] = kv
	}
}

// SettingsFile loads the config.toml layer.
type SettingsFile struct {
	fs   FileSystem
	path string
}

// NewSettingsFile creates a loader for the settings file at path.
func NewSettingsFile(fsys FileSystem, path string) *SettingsFile {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &SettingsFile{fs: fsys, path: path}
}

// Path returns the settings file path.
func (l *SettingsFile) Path() string {
	return l.path
}

// Load implements Loader. A missing file is an empty layer.
func (l *SettingsFile) Load() (map[string]any, error) {
	f, err := l.Decode()
	if err != nil || f == nil {
		return nil, err
	}
	return f.Map(), nil
}

// Decode reads and decodes the file. It returns nil, nil when the file
// does not exist.
func (l *SettingsFile) Decode() (*File, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", l.path, err)
	}
	return DecodeFile(l.path, data)
}

// DecodeFile decodes config.toml content. Unknown keys and values of the
// wrong TOML type are rejected with a *ParseError.
func DecodeFile(source string, data []byte) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, newParseError(source, err)
	}
	return &f, nil
}

func newParseError(source string, err error) *ParseError {
	perr := &ParseError{Path: source, Message: err.Error(), Err: err}

	var (
		missing *toml.StrictMissingError
		derr    *toml.DecodeError
	)
	switch {
	case errors.As(err, &missing) && len(missing.Errors) > 0:
		first := missing.Errors[0]
		perr.Line, perr.Column = first.Position()
		perr.Key = strings.Join(first.Key(), ".")
		perr.Message = fmt.Sprintf("%s %q", ErrUnknownSetting, perr.Key)
		perr.Err = fmt.Errorf("%w: %w", ErrUnknownSetting, err)
	case errors.As(err, &derr):
		perr.Line, perr.Column = derr.Position()
		perr.Key = strings.Join(derr.Key(), ".")
	}
	return perr
}

// ParseError reports a settings file that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Key     string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
