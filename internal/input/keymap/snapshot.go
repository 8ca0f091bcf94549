package keymap

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, ordered rule set.
//
// A snapshot is never modified after NewSnapshot returns; reloads build a
// new one and publish it through a Store. Readers that still hold an older
// snapshot keep a valid view of it for as long as they need.
type Snapshot struct {
	id      string
	rules   []Rule
	sources []string
	created time.Time
}

// NewSnapshot creates a snapshot holding a copy of rules, in order.
func NewSnapshot(rules []Rule, sources ...string) *Snapshot {
	return &Snapshot{
		id:      uuid.NewString(),
		rules:   slices.Clone(rules),
		sources: slices.Clone(sources),
		created: time.Now(),
	}
}

// EmptySnapshot returns a snapshot with no rules.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil)
}

// ID returns the unique identifier assigned when the snapshot was built.
func (s *Snapshot) ID() string {
	return s.id
}

// Len returns the number of rules.
func (s *Snapshot) Len() int {
	return len(s.rules)
}

// Rule returns the rule at index i.
func (s *Snapshot) Rule(i int) Rule {
	return s.rules[i]
}

// Rules returns a copy of the rules in order.
func (s *Snapshot) Rules() []Rule {
	return slices.Clone(s.rules)
}

// Sources returns the files the snapshot was built from.
func (s *Snapshot) Sources() []string {
	return slices.Clone(s.sources)
}

// CreatedAt returns when the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time {
	return s.created
}

// Validate checks every rule in the snapshot.
func (s *Snapshot) Validate() error {
	var errs []error
	for _, r := range s.rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
