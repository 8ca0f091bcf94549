package key

import (
	"fmt"
	"sort"
)

// Key identifies a logical key.
// The zero value is Unknown.
type Key uint8

const (
	// Unknown is any key without a canonical mapping.
	Unknown Key = iota

	// Modifier pseudo-keys
	Control
	Windows
	Alt
	Shift

	// Special keys
	CapsLock
	Tab
	Space
	Delete
	Backspace
	Tilda

	// Number row
	Num1
	Num2
	Num3
	Num4
	Num5
	Num6
	Num7
	Num8
	Num9
	Num0

	// Letters, top row
	LetterQ
	LetterW
	LetterE
	LetterR
	LetterT
	LetterY
	LetterU
	LetterI
	LetterO
	LetterP

	// Letters, home row
	LetterA
	LetterS
	LetterD
	LetterF
	LetterG
	LetterH
	LetterJ
	LetterK
	LetterL

	// Letters, bottom row
	LetterZ
	LetterX
	LetterC
	LetterV
	LetterB
	LetterN
	LetterM

	// Arrow keys
	LeftArrow
	DownArrow
	UpArrow
	RightArrow

	numKeys
)

// UnknownCode is the raw code reported for Unknown.
const UnknownCode int64 = -1

// keyInfo is one row of the canonical key table.
type keyInfo struct {
	name string
	code int64
}

// table is the single canonical raw-code mapping.
// Windows and Alt use 61 and 54.
var table = [numKeys]keyInfo{
	Unknown:   {"Unknown", UnknownCode},
	Control:   {"Control", 59},
	Windows:   {"Windows", 61},
	Alt:       {"Alt", 54},
	Shift:     {"Shift", 56},
	CapsLock:  {"CapsLock", 57},
	Tab:       {"Tab", 48},
	Space:     {"Space", 49},
	Delete:    {"Delete", 117},
	Backspace: {"Backspace", 51},
	Tilda:     {"Tilda", 50},

	Num1: {"Num1", 18},
	Num2: {"Num2", 19},
	Num3: {"Num3", 20},
	Num4: {"Num4", 21},
	Num5: {"Num5", 23},
	Num6: {"Num6", 22},
	Num7: {"Num7", 26},
	Num8: {"Num8", 28},
	Num9: {"Num9", 25},
	Num0: {"Num0", 29},

	LetterQ: {"LetterQ", 12},
	LetterW: {"LetterW", 13},
	LetterE: {"LetterE", 14},
	LetterR: {"LetterR", 15},
	LetterT: {"LetterT", 17},
	LetterY: {"LetterY", 16},
	LetterU: {"LetterU", 32},
	LetterI: {"LetterI", 34},
	LetterO: {"LetterO", 31},
	LetterP: {"LetterP", 35},

	LetterA: {"LetterA", 0},
	LetterS: {"LetterS", 1},
	LetterD: {"LetterD", 2},
	LetterF: {"LetterF", 3},
	LetterG: {"LetterG", 5},
	LetterH: {"LetterH", 4},
	LetterJ: {"LetterJ", 38},
	LetterK: {"LetterK", 40},
	LetterL: {"LetterL", 37},

	LetterZ: {"LetterZ", 6},
	LetterX: {"LetterX", 7},
	LetterC: {"LetterC", 8},
	LetterV: {"LetterV", 9},
	LetterB: {"LetterB", 11},
	LetterN: {"LetterN", 45},
	LetterM: {"LetterM", 46},

	LeftArrow:  {"LeftArrow", 123},
	DownArrow:  {"DownArrow", 125},
	UpArrow:    {"UpArrow", 126},
	RightArrow: {"RightArrow", 124},
}

var (
	byCode = make(map[int64]Key, numKeys)
	byName = make(map[string]Key, numKeys)
)

func init() {
	for k := Key(1); k < numKeys; k++ {
		info := table[k]
		if _, dup := byCode[info.code]; dup {
			panic(fmt.Sprintf("key: duplicate raw code %d for %s", info.code, info.name))
		}
		byCode[info.code] = k
		byName[info.name] = k
	}
}

// FromCode maps a raw hardware key code to its Key.
// Returns Unknown for unmapped codes.
func FromCode(code int64) Key {
	return byCode[code]
}

// FromName returns the Key for a symbolic name. Names are case-sensitive.
// Returns Unknown if the name is not recognized.
func FromName(name string) Key {
	return byName[name]
}

// Code returns the raw hardware code for the key.
func (k Key) Code() int64 {
	if k >= numKeys {
		return UnknownCode
	}
	return table[k].code
}

// String returns the canonical name for the key.
func (k Key) String() string {
	if k >= numKeys {
		return fmt.Sprintf("Key(%d)", k)
	}
	return table[k].name
}

// IsKnown returns true if the key has a canonical mapping.
func (k Key) IsKnown() bool {
	return k != Unknown && k < numKeys
}

// IsModifier returns true for the four modifier pseudo-keys.
func (k Key) IsModifier() bool {
	return k >= Control && k <= Shift
}

// IsLetter returns true if this is a letter key.
func (k Key) IsLetter() bool {
	return k >= LetterQ && k <= LetterM
}

// IsArrow returns true if this is an arrow key.
func (k Key) IsArrow() bool {
	return k >= LeftArrow && k <= RightArrow
}

// All returns every known key ordered by name.
func All() []Key {
	keys := make([]Key, 0, numKeys-1)
	for k := Key(1); k < numKeys; k++ {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return table[keys[i]].name < table[keys[j]].name
	})
	return keys
}
