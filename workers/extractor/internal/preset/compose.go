package preset

import (
	"fmt"
	"strings"
)

// Unique concatenates groups in order and fails if any column appears more
// than once, within a group or across groups.
func Unique(groups ...[]string) ([]string, error) {
	out := Merge(groups...)

	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total == len(out) {
		return out, nil
	}

	return nil, fmt.Errorf("column groups overlap: %s", strings.Join(duplicates(groups), ", "))
}

// Merge concatenates groups in order, keeping the first occurrence of every
// column. Use it where overlapping groups are intended.
func Merge(groups ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, g := range groups {
		for _, c := range g {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func duplicates(groups [][]string) []string {
	counts := make(map[string]int)
	var dups []string
	for _, g := range groups {
		for _, c := range g {
			counts[c]++
			if counts[c] == 2 {
				dups = append(dups, c)
			}
		}
	}
	return dups
}

// insertAt returns a copy of cols with col inserted before index i. An index
// past the end appends.
func insertAt(cols []string, i int, col string) []string {
	if i > len(cols) {
		i = len(cols)
	}
	out := make([]string, 0, len(cols)+1)
	out = append(out, cols[:i]...)
	out = append(out, col)
	return append(out, cols[i:]...)
}

// composer records the first composition failure so a whole table of
// presets can be built before checking for errors.
type composer struct {
	err error
}

func (c *composer) unique(groups ...[]string) []string {
	out, err := Unique(groups...)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return Merge(groups...)
	}
	return out
}

// Missing returns the elements of subset absent from set, in subset order.
func Missing(subset, set []string) []string {
	index := make(map[string]struct{}, len(set))
	for _, c := range set {
		index[c] = struct{}{}
	}
	var missing []string
	for _, c := range subset {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
