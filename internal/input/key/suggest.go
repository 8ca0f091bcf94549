package key

import (
	"sort"
	"strings"
	"unicode"
)

// Suggest returns up to limit known key names that fuzzily match query,
// best first. Matching is a case-insensitive subsequence match, so "ctrl"
// finds Control and "letx" finds LetterX. A limit of zero or less returns
// every match.
func Suggest(query string, limit int) []string {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		name  string
		score int
	}
	var found []scored
	for k := Key(1); k < numKeys; k++ {
		name := table[k].name
		if score := matchScore(q, name); score > 0 {
			found = append(found, scored{name, score})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].name < found[j].name
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}

// matchScore scores name against a lowercased query. Zero means no match.
func matchScore(q []rune, name string) int {
	orig := []rune(name)
	lower := []rune(strings.ToLower(name))

	// Greedy left-to-right scan for the query as a subsequence.
	matches := make([]int, 0, len(q))
	for i := 0; i < len(lower) && len(matches) < len(q); i++ {
		if lower[i] == q[len(matches)] {
			matches = append(matches, i)
		}
	}
	if len(matches) != len(q) {
		return 0
	}

	score := 100
	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 20
		}
	}
	for _, idx := range matches {
		if isWordStart(orig, idx) {
			score += 15
		}
	}
	if matches[0] == 0 {
		score += 25
	}
	if gap := matches[len(matches)-1] - matches[0] - len(matches) + 1; gap > 0 {
		score -= gap * 2
	}
	score -= matches[0]
	if len(lower) < 20 {
		score += 20 - len(lower)
	}
	if strings.HasPrefix(string(lower), string(q)) {
		score += 50
	}
	return max(score, 1)
}

// isWordStart reports a camel-case or digit boundary at idx.
func isWordStart(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, cur := runes[idx-1], runes[idx]
	return (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
		(unicode.IsLetter(prev) && unicode.IsDigit(cur))
}
