package channel

import (
	"fmt"
	"sort"
)

// slotKeys maps the last character of a raw label to its canonical slot
// index. RGBA and XYZW naming conventions land on the same indices.
var slotKeys = map[byte]int{
	'r': 0, 'g': 1, 'b': 2, 'a': 3,
	'x': 0, 'y': 1, 'z': 2, 'w': 3,
}

// UnknownSuffixError reports a label whose last character defines no
// slot index. There is no sensible default slot for such a label, so
// callers must treat this as a hard error rather than pick one.
type UnknownSuffixError struct {
	Label string
}

func (e *UnknownSuffixError) Error() string {
	return fmt.Sprintf("unrecognized label suffix in %q (want r/g/b/a or x/y/z/w)", e.Label)
}

// slotKey returns the canonical sort key for a raw label, derived from
// its last character, case-insensitively.
func slotKey(label string) (int, error) {
	if label == "" {
		return 0, &UnknownSuffixError{Label: label}
	}
	c := label[len(label)-1]
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	key, ok := slotKeys[c]
	if !ok {
		return 0, &UnknownSuffixError{Label: label}
	}
	return key, nil
}

// sortLabels orders labels by their slot key. The sort is stable so
// labels with equal keys keep their insertion order, meaning the most
// recently added duplicate ends up last within its key.
func sortLabels(labels []string) error {
	for _, label := range labels {
		if _, err := slotKey(label); err != nil {
			return err
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ki, _ := slotKey(labels[i])
		kj, _ := slotKey(labels[j])
		return ki < kj
	})
	return nil
}
