// Package slug implements the canonical page path identifier used across the
// wiki. A slug is case preserving, never contains whitespace, and uses single
// underscores where a page title would have spaces.
//
// Leading and trailing slashes are stored but ignored by every comparison, so
// "/Index/" and "Index" name the same page.
package slug

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const separator = "/"

// Slug is an immutable, validated page path.
type Slug struct {
	raw string
}

// New validates s and returns it as a Slug.
func New(s string) (Slug, error) {
	trimmed, offset := trimEdges(s)
	if trimmed == "" {
		return Slug{}, &ConvertError{Kind: KindEmpty}
	}

	if strings.HasPrefix(trimmed, "_") {
		return Slug{}, &ConvertError{Kind: KindInvalidChar, Char: '_', Position: offset}
	}

	prev := rune(0)
	for pos, ch := range trimmed {
		if !isValidChar(ch) {
			return Slug{}, &ConvertError{Kind: KindInvalidChar, Char: ch, Position: offset + pos}
		}
		if ch == '_' && prev == '_' {
			return Slug{}, &ConvertError{Kind: KindInvalidChar, Char: ch, Position: offset + pos}
		}
		prev = ch
	}

	if strings.HasSuffix(trimmed, "_") {
		return Slug{}, &ConvertError{Kind: KindInvalidChar, Char: '_', Position: offset + len(trimmed) - 1}
	}

	return Slug{raw: s}, nil
}

// MustNew is New for values known to be valid. It panics otherwise.
func MustNew(s string) Slug {
	out, err := New(s)
	if err != nil {
		panic(fmt.Sprintf("slug: %q: %v", s, err))
	}
	return out
}

// Slugify converts an arbitrary title into a slug by trimming it and joining
// its whitespace separated fragments with single underscores.
func Slugify(s string) (Slug, error) {
	return New(strings.Join(strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return !isValidChar(r)
	}), "_"))
}

// Join concatenates two slugs with a separator.
func (s Slug) Join(other Slug) Slug {
	return MustNew(s.String() + separator + other.String())
}

// Parent returns the path before the last separator. It reports false for
// slugs at the root.
func (s Slug) Parent() (string, bool) {
	value := s.String()
	idx := strings.LastIndex(value, separator)
	if idx < 0 {
		return "", false
	}
	return value[:idx], true
}

// Title returns the last path segment with underscores shown as spaces.
func (s Slug) Title() string {
	value := s.String()
	if idx := strings.LastIndex(value, separator); idx >= 0 {
		value = value[idx+1:]
	}
	return strings.ReplaceAll(value, "_", " ")
}

// String returns the slug without its leading and trailing separator.
func (s Slug) String() string {
	value, _ := trimEdges(s.raw)
	return value
}

// Raw returns the slug exactly as it was constructed.
func (s Slug) Raw() string {
	return s.raw
}

// Equal reports whether both slugs name the same page.
func (s Slug) Equal(other Slug) bool {
	return s.String() == other.String()
}

// IsZero reports whether s is the zero value.
func (s Slug) IsZero() bool {
	return s.raw == ""
}

// MarshalText keeps the raw form so a round trip is lossless.
func (s Slug) MarshalText() ([]byte, error) {
	return []byte(s.raw), nil
}

// UnmarshalText validates the incoming value.
func (s *Slug) UnmarshalText(text []byte) error {
	parsed, err := New(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the trimmed view, which is the form used for storage keys.
func (s Slug) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.String(), nil
}

// Scan reads a slug column.
func (s *Slug) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Slug{}
		return nil
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("slug: cannot scan %T", src)
	}
}

// trimEdges removes one leading and one trailing separator and reports the
// byte offset of the trimmed view inside s.
func trimEdges(s string) (string, int) {
	offset := 0
	if strings.HasPrefix(s, separator) {
		s = s[1:]
		offset = 1
	}
	s = strings.TrimSuffix(s, separator)
	return s, offset
}

func isValidChar(ch rune) bool {
	return !unicode.IsSpace(ch)
}

// Kind classifies a ConvertError.
type Kind uint8

const (
	KindInvalidChar Kind = iota + 1
	KindEmpty
)

// ErrInvalid is matched by every ConvertError through errors.Is.
var ErrInvalid = errors.New("slug: invalid")

// ConvertError describes why a string is not a valid slug.
type ConvertError struct {
	Kind     Kind
	Char     rune
	Position int
}

func (e *ConvertError) Error() string {
	if e == nil {
		return ErrInvalid.Error()
	}
	switch e.Kind {
	case KindEmpty:
		return "slug is empty"
	default:
		return fmt.Sprintf("invalid char %q @ col %d", e.Char, e.Position+1)
	}
}

func (e *ConvertError) Unwrap() error {
	return ErrInvalid
}
