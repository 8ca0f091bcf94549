package keymap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/keytap/internal/input/key"
)

// explicitRecord is the output layout for an expanded rule record.
type explicitRecord struct {
	Name         string          `json:"name,omitempty"`
	Applications []string        `json:"applications,omitempty"`
	FromKey      explicitKeySide `json:"fromKey"`
	ToKey        explicitKeySide `json:"toKey"`
}

type explicitKeySide struct {
	KeyCode     string   `json:"keyCode"`
	KeyPressed  bool     `json:"keyPressed"`
	PressedKeys []string `json:"pressedKeys"`
}

// Expand rewrites every compact shortcut in a JSON rule document into the
// explicit fromKey/toKey form, leaving everything else untouched.
// It returns the rewritten document and the number of records expanded.
func Expand(data []byte) ([]byte, int, error) {
	if _, err := parseJSON("<input>", data); err != nil {
		return nil, 0, err
	}

	type edit struct {
		path string
		raw  []byte
	}
	var edits []edit
	var err error

	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		base := escapePath(k.String())
		records := v
		if v.IsObject() {
			base += ".rules"
			records = v.Get("rules")
		}
		records.ForEach(func(idx, rec gjson.Result) bool {
			raw, ok, xerr := expandRecord(rec)
			if xerr != nil {
				err = fmt.Errorf("group %q rule %d: %w", k.String(), idx.Int(), xerr)
				return false
			}
			if ok {
				edits = append(edits, edit{path: base + "." + strconv.FormatInt(idx.Int(), 10), raw: raw})
			}
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, 0, err
	}

	out := data
	for _, e := range edits {
		out, err = sjson.SetRawBytes(out, e.path, e.raw)
		if err != nil {
			return nil, 0, fmt.Errorf("rewriting %s: %w", e.path, err)
		}
	}
	return out, len(edits), nil
}

// expandRecord returns the explicit JSON for a compact record, or false if
// the record is already explicit.
func expandRecord(rec gjson.Result) ([]byte, bool, error) {
	var shortcut, name string
	var apps []string

	switch {
	case rec.Type == gjson.String:
		shortcut = rec.String()
	case rec.IsObject() && rec.Get("shortcut").Exists():
		shortcut = rec.Get("shortcut").String()
		name = rec.Get("name").String()
		for _, a := range rec.Get("applications").Array() {
			apps = append(apps, a.String())
		}
	default:
		return nil, false, nil
	}

	fromSpec, toSpec, err := SplitShortcut(shortcut)
	if err != nil {
		return nil, false, err
	}
	from, err := explicitSide(fromSpec)
	if err != nil {
		return nil, false, err
	}
	to, err := explicitSide(toSpec)
	if err != nil {
		return nil, false, err
	}

	raw, err := json.Marshal(explicitRecord{
		Name:         name,
		Applications: apps,
		FromKey:      from,
		ToKey:        to,
	})
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func explicitSide(spec string) (explicitKeySide, error) {
	primary, held, err := key.SplitSpec(spec)
	if err != nil {
		return explicitKeySide{}, err
	}
	if held == nil {
		held = []string{}
	}
	return explicitKeySide{KeyCode: primary, KeyPressed: true, PressedKeys: held}, nil
}

// escapePath escapes a group name for use as a gjson/sjson path component.
func escapePath(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
