package storage

import (
	"fmt"

	"github.com/jsamuelsen/library-catalog/internal/domain"
)

// snapshotVersion is the current snapshot document version.
const snapshotVersion = 1

// snapshotDocument is the top-level JSON object of a snapshot file.
type snapshotDocument struct {
	Version int              `json:"version"`
	Books   []snapshotRecord `json:"books"`
}

// snapshotRecord is one book as stored on disk.
type snapshotRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int    `json:"publication_year"`
}

// Translator converts a stored record into a domain type, validating it.
type Translator[External any, Domain any] func(ext *External) (*Domain, error)

// TranslateSlice applies translate to every item, stopping at the first failure.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating record %d: %w", i, err)
		}

		result = append(result, *translated)
	}

	return result, nil
}

func bookFromRecord(r *snapshotRecord) (*domain.Book, error) {
	return domain.RestoreBook(r.ID, r.Title, r.Author, r.PublicationYear)
}

func recordFromBook(b *domain.Book) snapshotRecord {
	return snapshotRecord{
		ID:              b.ID(),
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
	}
}

func documentFromBooks(books []domain.Book) snapshotDocument {
	doc := snapshotDocument{
		Version: snapshotVersion,
		Books:   make([]snapshotRecord, 0, len(books)),
	}

	for i := range books {
		doc.Books = append(doc.Books, recordFromBook(&books[i]))
	}

	return doc
}
