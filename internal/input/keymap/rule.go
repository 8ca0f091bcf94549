package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/keytap/internal/input/key"
)

// Rule validation errors.
var (
	ErrInertTarget      = errors.New("target key has no raw code")
	ErrTargetNotFlagged = errors.New("target held key is not a modifier")
)

// Trigger is a combo fired in a given direction.
type Trigger struct {
	Combo     key.Combo
	Direction key.Direction
}

// Press returns a trigger that fires on key-down.
func Press(c key.Combo) Trigger {
	return Trigger{Combo: c, Direction: key.Pressed}
}

// Release returns a trigger that fires on key-up.
func Release(c key.Combo) Trigger {
	return Trigger{Combo: c, Direction: key.Released}
}

// String returns a representation like "Control+LetterX" or "LetterA (released)".
func (t Trigger) String() string {
	if t.Direction == key.Released {
		return t.Combo.String() + " (released)"
	}
	return t.Combo.String()
}

// Rule is a single shortcut substitution.
// Rules are values; once placed in a Snapshot they are never modified.
type Rule struct {
	// Name is an optional label used in logs and traces.
	Name string

	// Group is the rule file group the rule was declared in.
	Group string

	// Source is the file the rule was loaded from.
	Source string

	// From is the trigger intercepted from the hardware.
	From Trigger

	// To is the trigger synthesized in its place.
	To Trigger

	// Scope restricts the rule to foreground applications.
	// The zero Scope is global.
	Scope Scope
}

// NewRule creates a global rule.
func NewRule(from, to Trigger) Rule {
	return Rule{From: from, To: to}
}

// WithName sets the name for this rule.
func (r Rule) WithName(name string) Rule {
	r.Name = name
	return r
}

// WithScope restricts this rule to the given applications.
func (r Rule) WithScope(apps ...string) Rule {
	r.Scope = NewScope(apps...)
	return r
}

// WithGroup sets the group for this rule.
func (r Rule) WithGroup(group string) Rule {
	r.Group = group
	return r
}

// IsInert returns true if the rule can never match.
func (r Rule) IsInert() bool {
	return r.From.Combo.IsInert()
}

// Validate checks that the rule's target can be synthesized.
// Inert triggers are allowed; they simply never match.
func (r Rule) Validate() error {
	to := r.To.Combo
	if !to.Primary.IsKnown() {
		return fmt.Errorf("%s: %w", r.label(), ErrInertTarget)
	}
	for _, k := range to.Modifiers.Keys() {
		if !k.IsModifier() {
			return fmt.Errorf("%s: %w: %s", r.label(), ErrTargetNotFlagged, k)
		}
	}
	return nil
}

// String returns a representation like "Control+LetterX -> Control+LetterC".
func (r Rule) String() string {
	s := r.From.String() + " -> " + r.To.String()
	if !r.Scope.IsGlobal() {
		s += " [" + strings.Join(r.Scope.Apps(), ", ") + "]"
	}
	return s
}

func (r Rule) label() string {
	if r.Name != "" {
		return fmt.Sprintf("rule %q", r.Name)
	}
	return "rule " + r.From.String()
}

// Scope is a set of foreground application names.
// The zero Scope is global. A Scope is read-only after construction.
type Scope struct {
	apps map[string]struct{}
}

// NewScope creates a scope from application names.
// Names are trimmed and canonicalized; blank names are dropped.
func NewScope(apps ...string) Scope {
	var s Scope
	for _, a := range apps {
		a = CanonicalApp(a)
		if a == "" {
			continue
		}
		if s.apps == nil {
			s.apps = make(map[string]struct{}, len(apps))
		}
		s.apps[a] = struct{}{}
	}
	return s
}

// IsGlobal returns true if the scope matches every application.
func (s Scope) IsGlobal() bool {
	return len(s.apps) == 0
}

// Contains reports whether a canonical application name is in scope.
// A global scope contains every application.
func (s Scope) Contains(app string) bool {
	if s.IsGlobal() {
		return true
	}
	_, ok := s.apps[app]
	return ok
}

// Covers returns true if every application in other is also in s.
func (s Scope) Covers(other Scope) bool {
	if s.IsGlobal() {
		return true
	}
	if other.IsGlobal() {
		return false
	}
	for a := range other.apps {
		if _, ok := s.apps[a]; !ok {
			return false
		}
	}
	return true
}

// Apps returns the application names in sorted order.
func (s Scope) Apps() []string {
	apps := make([]string, 0, len(s.apps))
	for a := range s.apps {
		apps = append(apps, a)
	}
	sort.Strings(apps)
	return apps
}

// CanonicalApp trims an application name and converts it to NFC so that
// names reported with decomposed accents compare equal to configured ones.
func CanonicalApp(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
