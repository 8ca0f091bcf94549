package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keytap/internal/input/key"
)

// Loader errors.
var (
	ErrMalformed         = errors.New("malformed rule file")
	ErrUnsupportedFormat = errors.New("unsupported rule file format")
	ErrInvalidShortcut   = errors.New("invalid shortcut")
	ErrIncompleteRecord  = errors.New("rule record needs either shortcut or fromKey and toKey")
	ErrAmbiguousRecord   = errors.New("rule record has both shortcut and fromKey/toKey")
)

// Format is a rule file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

// FormatOf returns the format for a file name based on its extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return 0, false
	}
}

// IsRuleFile reports whether a file name looks like a rule file.
// Hidden files (editor swap and temp files) are excluded.
func IsRuleFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := FormatOf(base)
	return ok
}

// ParseError describes a rule file that could not be decoded.
type ParseError struct {
	Source string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Source, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformed for every parse error.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// RuleError describes a rule record that could not be turned into a rule.
type RuleError struct {
	Source string
	Group  string
	Index  int
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: group %q rule %d: %v", e.Source, e.Group, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// Warning flags a rule that loaded but will never fire.
type Warning struct {
	Source  string
	Group   string
	Index   int
	Message string
}

// String returns a one-line description.
func (w Warning) String() string {
	return fmt.Sprintf("%s: group %q rule %d: %s", w.Source, w.Group, w.Index, w.Message)
}

// Result holds the rules and warnings from a load.
type Result struct {
	Rules    []Rule
	Warnings []Warning
	Sources  []string

	positions []position
}

type position struct {
	source string
	group  string
	index  int
}

// Snapshot builds a snapshot from the loaded rules.
func (r *Result) Snapshot() *Snapshot {
	return NewSnapshot(r.Rules, r.Sources...)
}

// Loader loads rule files into rules.
type Loader struct{}

// NewLoader creates a new rule loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads every rule file in dir, in file name order.
//
// Any malformed file or invalid rule fails the whole load, so a caller
// publishing the result never sees a partial rule set. All problems are
// reported together.
func (l *Loader) LoadDir(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory: %w", err)
	}

	result := &Result{}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !IsRuleFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := l.loadFileInto(result, path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	result.checkShadowing()
	return result, nil
}

// LoadFile loads a single rule file.
func (l *Loader) LoadFile(path string) (*Result, error) {
	result := &Result{}
	if err := l.loadFileInto(result, path); err != nil {
		return nil, err
	}
	result.checkShadowing()
	return result, nil
}

// LoadBytes loads rules from an in-memory document.
func (l *Loader) LoadBytes(source string, format Format, data []byte) (*Result, error) {
	result := &Result{}
	if err := l.loadInto(result, source, format, data); err != nil {
		return nil, err
	}
	result.checkShadowing()
	return result, nil
}

func (l *Loader) loadFileInto(result *Result, path string) error {
	format, ok := FormatOf(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rule file: %w", err)
	}
	return l.loadInto(result, path, format, data)
}

func (l *Loader) loadInto(result *Result, source string, format Format, data []byte) error {
	var groups []groupConfig
	var err error
	switch format {
	case FormatJSON:
		groups, err = parseJSON(source, data)
	case FormatYAML:
		groups, err = parseYAML(source, data)
	case FormatTOML:
		groups, err = parseTOML(source, data)
	default:
		err = fmt.Errorf("%s: %w", source, ErrUnsupportedFormat)
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, g := range groups {
		for i, rec := range g.Records {
			rule, warning, err := buildRule(rec, g)
			if err != nil {
				errs = append(errs, &RuleError{Source: source, Group: g.Name, Index: i, Err: err})
				continue
			}
			rule.Source = source
			rule.Group = g.Name
			result.Rules = append(result.Rules, rule)
			result.positions = append(result.positions, position{source, g.Name, i})
			if warning != "" {
				result.Warnings = append(result.Warnings, Warning{
					Source:  source,
					Group:   g.Name,
					Index:   i,
					Message: warning,
				})
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	result.Sources = append(result.Sources, source)
	return nil
}

// checkShadowing warns about rules that an earlier rule always beats.
func (r *Result) checkShadowing() {
	for j := range r.Rules {
		later := r.Rules[j]
		if later.IsInert() {
			continue
		}
		for i := 0; i < j; i++ {
			earlier := r.Rules[i]
			if earlier.From != later.From || !earlier.Scope.Covers(later.Scope) {
				continue
			}
			p, q := r.positions[j], r.positions[i]
			r.Warnings = append(r.Warnings, Warning{
				Source:  p.source,
				Group:   p.group,
				Index:   p.index,
				Message: fmt.Sprintf("unreachable: shadowed by %s group %q rule %d", q.source, q.group, q.index),
			})
			break
		}
	}
}

// buildRule turns a record into a rule. A non-empty warning means the rule
// loaded but is inert.
func buildRule(rec recordConfig, g groupConfig) (Rule, string, error) {
	var fromCombo, toCombo key.Combo
	var fromErr, toErr error
	fromDir, toDir := key.Pressed, key.Pressed

	switch {
	case rec.Shortcut != "" && (rec.FromKey != nil || rec.ToKey != nil):
		return Rule{}, "", ErrAmbiguousRecord
	case rec.Shortcut != "":
		fromSpec, toSpec, err := SplitShortcut(rec.Shortcut)
		if err != nil {
			return Rule{}, "", err
		}
		fromCombo, fromErr = key.ParseCombo(fromSpec)
		toCombo, toErr = key.ParseCombo(toSpec)
	case rec.FromKey != nil && rec.ToKey != nil:
		fromCombo, fromErr = key.ComboFromNames(rec.FromKey.KeyCode, rec.FromKey.PressedKeys)
		toCombo, toErr = key.ComboFromNames(rec.ToKey.KeyCode, rec.ToKey.PressedKeys)
		fromDir = rec.FromKey.direction()
		toDir = rec.ToKey.direction()
	default:
		return Rule{}, "", ErrIncompleteRecord
	}

	var warning string
	var unknown *key.UnknownNameError
	switch {
	case fromErr == nil:
	case errors.As(fromErr, &unknown):
		warning = inertWarning(unknown)
	case errors.Is(fromErr, key.ErrPrimaryHeld):
		warning = "inert: " + fromErr.Error()
	default:
		return Rule{}, "", fmt.Errorf("from: %w", fromErr)
	}
	if toErr != nil {
		return Rule{}, "", fmt.Errorf("to: %w", toErr)
	}

	apps := rec.Applications
	if len(apps) == 0 {
		apps = g.Applications
	}

	rule := Rule{
		Name:  rec.Name,
		From:  Trigger{Combo: fromCombo, Direction: fromDir},
		To:    Trigger{Combo: toCombo, Direction: toDir},
		Scope: NewScope(apps...),
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, "", err
	}
	return rule, warning, nil
}

// inertWarning describes an unknown source key, with the closest known
// names when there are any.
func inertWarning(err *key.UnknownNameError) string {
	msg := "inert: " + err.Error()
	var hints []string
	for _, name := range err.Names {
		if s := key.Suggest(name, 1); len(s) > 0 {
			hints = append(hints, s[0])
		}
	}
	if len(hints) > 0 {
		msg += " (did you mean " + strings.Join(hints, ", ") + "?)"
	}
	return msg
}

func (kc *keyConfig) direction() key.Direction {
	if kc.KeyPressed != nil && !*kc.KeyPressed {
		return key.Released
	}
	return key.Pressed
}

// SplitShortcut splits "Control+LetterX -> Control+LetterC" into its sides.
func SplitShortcut(s string) (from, to string, err error) {
	parts := strings.Split(s, "->")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q must have exactly one \"->\"", ErrInvalidShortcut, s)
	}
	from, to = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if from == "" || to == "" {
		return "", "", fmt.Errorf("%w: %q has an empty side", ErrInvalidShortcut, s)
	}
	return from, to, nil
}

// parseJSON decodes a JSON rule document. Groups are visited in document
// order, which encoding/json maps do not preserve.
func parseJSON(source string, data []byte) ([]groupConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		var v any
		err := json.Unmarshal(data, &v)
		perr := &ParseError{Source: source, Err: err}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			perr.Line, perr.Column = lineCol(data, syn.Offset)
		}
		if perr.Err == nil {
			perr.Err = errors.New("invalid JSON")
		}
		return nil, perr
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Source: source, Err: errors.New("top level must be an object of named groups")}
	}

	var groups []groupConfig
	var err error
	root.ForEach(func(k, v gjson.Result) bool {
		g := groupConfig{Name: k.String()}
		switch {
		case v.IsArray():
			err = json.Unmarshal([]byte(v.Raw), &g.Records)
		case v.IsObject():
			var body groupBody
			dec := json.NewDecoder(strings.NewReader(v.Raw))
			dec.DisallowUnknownFields()
			err = dec.Decode(&body)
			g.Applications, g.Records = body.Applications, body.Rules
		default:
			err = fmt.Errorf("group %q must be an array of rules or an object", g.Name)
		}
		if err != nil {
			err = &ParseError{Source: source, Err: fmt.Errorf("group %q: %w", g.Name, err)}
			return false
		}
		groups = append(groups, g)
		return true
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// parseYAML decodes a YAML rule document, keeping mapping order.
func parseYAML(source string, data []byte) ([]groupConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Source: source, Line: root.Line, Column: root.Column,
			Err: errors.New("top level must be a mapping of named groups")}
	}

	groups := make([]groupConfig, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		g := groupConfig{Name: k.Value}
		var err error
		switch v.Kind {
		case yaml.SequenceNode:
			err = v.Decode(&g.Records)
		case yaml.MappingNode:
			var body groupBody
			err = v.Decode(&body)
			g.Applications, g.Records = body.Applications, body.Rules
		default:
			err = fmt.Errorf("group %q must be a sequence of rules or a mapping", g.Name)
		}
		if err != nil {
			return nil, &ParseError{Source: source, Line: v.Line, Column: v.Column,
				Err: fmt.Errorf("group %q: %w", g.Name, err)}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// tomlDocument is the TOML layout: an array of [[group]] tables.
type tomlDocument struct {
	Groups []struct {
		Name         string         `toml:"name"`
		Applications []string       `toml:"applications"`
		Rules        []recordConfig `toml:"rules"`
	} `toml:"group"`
}

// parseTOML decodes a TOML rule document.
func parseTOML(source string, data []byte) ([]groupConfig, error) {
	var doc tomlDocument
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		perr := &ParseError{Source: source, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}

	groups := make([]groupConfig, 0, len(doc.Groups))
	for i, tg := range doc.Groups {
		name := tg.Name
		if name == "" {
			name = fmt.Sprintf("group-%d", i)
		}
		groups = append(groups, groupConfig{
			Name:         name,
			Applications: tg.Applications,
			Records:      tg.Rules,
		})
	}
	return groups, nil
}

// lineCol converts a byte offset to a 1-based line and column.
func lineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
