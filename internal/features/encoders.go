package features

import (
	"fmt"
	"sort"
)

// EncoderSet maps a categorical feature name to its label -> code table.
// Codes are the label's position in the training encoder's class list.
// The zero value is an empty set. There is no mutation API.
type EncoderSet struct {
	classes map[string][]string
	codes   map[string]map[string]int
}

// NewEncoderSet builds the lookup tables from per-feature class lists.
// Duplicate or empty labels make the table non-injective and are rejected.
func NewEncoderSet(classes map[string][]string) (EncoderSet, error) {
	set := EncoderSet{
		classes: make(map[string][]string, len(classes)),
		codes:   make(map[string]map[string]int, len(classes)),
	}
	for feature, labels := range classes {
		if len(labels) == 0 {
			return EncoderSet{}, fmt.Errorf("encoder %q has no classes", feature)
		}
		table := make(map[string]int, len(labels))
		for code, label := range labels {
			if label == "" {
				return EncoderSet{}, fmt.Errorf("encoder %q has an empty label at code %d", feature, code)
			}
			if prev, dup := table[label]; dup {
				return EncoderSet{}, fmt.Errorf("encoder %q maps %q to both %d and %d", feature, label, prev, code)
			}
			table[label] = code
		}
		set.classes[feature] = append([]string(nil), labels...)
		set.codes[feature] = table
	}
	return set, nil
}

// Code returns the integer code of label for feature
func (s EncoderSet) Code(feature, label string) (int, bool) {
	table, ok := s.codes[feature]
	if !ok {
		return 0, false
	}
	code, ok := table[label]
	return code, ok
}

// Has reports whether feature has an encoder
func (s EncoderSet) Has(feature string) bool {
	_, ok := s.codes[feature]
	return ok
}

// Len returns the number of encoded features
func (s EncoderSet) Len() int {
	return len(s.codes)
}

// Features returns the encoded feature names in sorted order
func (s EncoderSet) Features() []string {
	names := make([]string, 0, len(s.codes))
	for name := range s.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Labels returns a copy of the labels of feature ordered by code
func (s EncoderSet) Labels(feature string) []string {
	return append([]string(nil), s.classes[feature]...)
}
