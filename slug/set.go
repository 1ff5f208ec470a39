package slug

import "sort"

// Set is a collection of slugs keyed by their trimmed form, so "/A/" and "A"
// collapse into one entry.
type Set map[string]Slug

// NewSet builds a set from the given slugs.
func NewSet(values ...Slug) Set {
	set := make(Set, len(values))
	for _, value := range values {
		set.Add(value)
	}
	return set
}

// Add inserts value, keeping the first raw form seen for a key.
func (s Set) Add(value Slug) {
	key := value.String()
	if _, ok := s[key]; ok {
		return
	}
	s[key] = value
}

// Has reports whether the set holds a slug equal to value.
func (s Set) Has(value Slug) bool {
	if s == nil {
		return false
	}
	_, ok := s[value.String()]
	return ok
}

// Len returns the number of distinct slugs.
func (s Set) Len() int {
	return len(s)
}

// Difference returns the slugs in s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for key, value := range s {
		if _, ok := other[key]; !ok {
			out[key] = value
		}
	}
	return out
}

// Sorted returns the slugs ordered by their trimmed form.
func (s Set) Sorted() []Slug {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Slug, 0, len(keys))
	for _, key := range keys {
		out = append(out, s[key])
	}
	return out
}

// Strings returns the sorted trimmed forms.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, value := range sorted {
		out[i] = value.String()
	}
	return out
}
