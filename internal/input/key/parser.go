package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
	ErrPrimaryHeld = errors.New("primary key is also held")
)

// UnknownNameError reports key names that have no canonical mapping.
type UnknownNameError struct {
	Spec  string
	Names []string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown key name(s) %s in %q", strings.Join(e.Names, ", "), e.Spec)
}

// Combo is a primary key pressed while an exact set of other keys is held.
type Combo struct {
	Primary   Key
	Modifiers Set
}

// NewCombo creates a combo from a primary key and held keys.
func NewCombo(primary Key, held ...Key) Combo {
	return Combo{Primary: primary, Modifiers: NewSet(held...)}
}

// Equals returns true for identical primary keys and identical held sets.
func (c Combo) Equals(other Combo) bool {
	return c == other
}

// IsInert returns true if the combo can never match an event.
func (c Combo) IsInert() bool {
	return !c.Primary.IsKnown()
}

// String returns the canonical specification like "Control+Shift+UpArrow".
func (c Combo) String() string {
	if c.Modifiers.IsEmpty() {
		return c.Primary.String()
	}
	return c.Modifiers.String() + "+" + c.Primary.String()
}

// ParseCombo parses a specification like "Control+LetterX".
//
// The last "+"-separated name is the primary key; the rest are held keys.
// Names are case-sensitive. If any name is unknown the returned combo is
// inert (its primary is Unknown) and the error is an *UnknownNameError.
func ParseCombo(spec string) (Combo, error) {
	primary, held, err := SplitSpec(spec)
	if err != nil {
		return Combo{}, err
	}
	return ComboFromNames(primary, held)
}

// SplitSpec splits a combo specification into its primary and held key
// names without resolving them.
func SplitSpec(spec string) (primary string, held []string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", nil, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", nil, fmt.Errorf("%w: empty key name in %q", ErrInvalidSpec, spec)
		}
		parts[i] = p
	}
	return parts[len(parts)-1], parts[:len(parts)-1], nil
}

// ComboFromNames resolves a primary key name and held key names.
// Held names form a set, so repeats collapse. Unknown names yield an inert
// combo and an *UnknownNameError. A primary that is also held yields an
// inert combo and an error wrapping ErrPrimaryHeld.
func ComboFromNames(primary string, held []string) (Combo, error) {
	spec := strings.Join(append(append([]string(nil), held...), primary), "+")
	if primary == "" {
		return Combo{}, ErrEmptySpec
	}

	var unknown []string
	var set Set
	for _, name := range held {
		k := FromName(name)
		if k == Unknown {
			unknown = append(unknown, name)
			continue
		}
		set = set.With(k)
	}

	p := FromName(primary)
	if p == Unknown {
		unknown = append(unknown, primary)
	}

	combo := Combo{Primary: p, Modifiers: set}
	if len(unknown) > 0 {
		combo.Primary = Unknown
		return combo, &UnknownNameError{Spec: spec, Names: unknown}
	}
	if set.Has(p) {
		combo.Primary = Unknown
		return combo, fmt.Errorf("%w: %s in %q", ErrPrimaryHeld, p, spec)
	}
	return combo, nil
}

// MustParseCombo parses a combo and panics on error.
// Use only for known-valid specs in tests and initialization code.
func MustParseCombo(spec string) Combo {
	c, err := ParseCombo(spec)
	if err != nil {
		panic("invalid combo specification: " + spec + ": " + err.Error())
	}
	return c
}
