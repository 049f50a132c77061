package domain

import (
	"cmp"
	"strings"
)

// Ordering is a three-way comparison between two books.
// It returns a negative number when a sorts before b, zero when they are
// equal under the rule, and a positive number otherwise.
type Ordering func(a, b Book) int

// SortField names the key an Ordering compares.
type SortField string

// Supported sort fields.
const (
	FieldTitle  SortField = "title"
	FieldAuthor SortField = "author"
	FieldYear   SortField = "year"
)

// ByTitle orders books lexicographically by title, case-sensitive as stored.
func ByTitle(a, b Book) int {
	return strings.Compare(a.Title, b.Title)
}

// ByAuthor orders books lexicographically by author, case-sensitive as stored.
func ByAuthor(a, b Book) int {
	return strings.Compare(a.Author, b.Author)
}

// ByYear orders books numerically by publication year.
func ByYear(a, b Book) int {
	return cmp.Compare(a.PublicationYear, b.PublicationYear)
}

// Ordering returns the comparison rule for the field.
func (f SortField) Ordering() (Ordering, error) {
	switch f {
	case FieldTitle:
		return ByTitle, nil
	case FieldAuthor:
		return ByAuthor, nil
	case FieldYear:
		return ByYear, nil
	default:
		return nil, NewValidationErrorWithValue("sort_field", "must be one of: title author year", string(f))
	}
}

// Label returns the human-readable name used in menus and the interaction log.
func (f SortField) Label() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldAuthor:
		return "Author"
	case FieldYear:
		return "Publication Year"
	default:
		return string(f)
	}
}

// ParseSortField converts a case-insensitive name into a SortField.
func ParseSortField(name string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(name)))
	if _, err := f.Ordering(); err != nil {
		return "", err
	}

	return f, nil
}
