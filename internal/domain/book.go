package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// shortIDLength is how many id characters String shows.
const shortIDLength = 8

// Book is one catalog entry.
// Identity is the generated id; the descriptive fields are freely mutable.
// Two books with identical fields but different ids are distinct.
type Book struct {
	id uuid.UUID

	// Title is the book title as entered.
	Title string

	// Author is the author name as entered.
	Author string

	// PublicationYear is the year the book was published.
	PublicationYear int
}

// BookValues holds the mutable fields of a Book, used for updates.
type BookValues struct {
	Title           string
	Author          string
	PublicationYear int
}

// NewBook creates a Book with a fresh random id.
// Construction always succeeds, empty strings included.
func NewBook(title, author string, year int) *Book {
	return &Book{
		id:              uuid.New(),
		Title:           title,
		Author:          author,
		PublicationYear: year,
	}
}

// RestoreBook rebuilds a Book that already has an id, e.g. from a snapshot.
func RestoreBook(id, title, author string, year int) (*Book, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, NewValidationErrorWithValue("id", "must be a valid UUID", id)
	}

	if parsed == uuid.Nil {
		return nil, NewValidationErrorWithValue("id", "must not be the nil UUID", id)
	}

	return &Book{
		id:              parsed,
		Title:           title,
		Author:          author,
		PublicationYear: year,
	}, nil
}

// ID returns the immutable identifier.
func (b Book) ID() string {
	return b.id.String()
}

// Equal reports whether both books share the same identity.
func (b Book) Equal(other Book) bool {
	return b.id == other.id
}

// Values returns the mutable fields of the book.
func (b Book) Values() BookValues {
	return BookValues{
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
	}
}

// Apply overwrites the mutable fields, leaving the id untouched.
func (b *Book) Apply(v BookValues) {
	b.Title = v.Title
	b.Author = v.Author
	b.PublicationYear = v.PublicationYear
}

// String renders the book with a shortened id for display.
func (b Book) String() string {
	return fmt.Sprintf("Book [ID: %s, Title: %s, Author: %s, Year: %d]",
		b.ID()[:shortIDLength], b.Title, b.Author, b.PublicationYear)
}
