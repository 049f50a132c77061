package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/jsamuelsen/library-catalog/internal/domain"
)

// seedFieldCount is the number of comma-separated fields in a seed line.
const seedFieldCount = 3

// maxSeedLineBytes bounds a single seed line.
const maxSeedLineBytes = 1 << 20

// Catalog is the ordered in-memory collection of books.
// It exclusively owns its records: every read hands out copies, and all
// mutation goes through its methods. Order is significant; sorting
// rearranges it and index lookups depend on it.
//
// A Catalog is not safe for concurrent use.
type Catalog struct {
	books  []domain.Book
	logger *slog.Logger
}

// CatalogConfig holds optional configuration for the catalog.
type CatalogConfig struct {
	Logger *slog.Logger
}

// LoadResult summarizes one LoadFrom call.
type LoadResult struct {
	// Loaded is the number of books appended.
	Loaded int

	// Ignored counts lines skipped silently for having the wrong field count.
	Ignored int

	// Diagnostics holds a *domain.ParseError for every line skipped because
	// its year was not an integer.
	Diagnostics []error
}

// NewCatalog creates an empty catalog.
func NewCatalog(cfg *CatalogConfig) *Catalog {
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Catalog{
		books:  make([]domain.Book, 0),
		logger: logger.With(slog.String("component", "app.Catalog")),
	}
}

// LoadFrom appends books parsed from "title,author,year" lines in source order.
// Lines with a field count other than three are skipped silently. Lines whose
// year is not an integer are skipped and reported in the result. Only a read
// failure of r itself is returned as an error; books parsed before it are kept.
func (c *Catalog) LoadFrom(ctx context.Context, r io.Reader) (LoadResult, error) {
	var result LoadResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxSeedLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		parts := splitSeedLine(line)
		if len(parts) != seedFieldCount {
			result.Ignored++
			continue
		}

		year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			parseErr := domain.NewParseError(lineNo, line, err)
			result.Diagnostics = append(result.Diagnostics, parseErr)
			c.logger.WarnContext(ctx, "skipping seed line",
				slog.Int("line", lineNo),
				slog.Any("error", parseErr),
			)
			continue
		}

		c.books = append(c.books, *domain.NewBook(
			strings.TrimSpace(parts[0]),
			strings.TrimSpace(parts[1]),
			year,
		))
		result.Loaded++
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading seed source: %w", err)
	}

	c.logger.InfoContext(ctx, "loaded books",
		slog.Int("loaded", result.Loaded),
		slog.Int("ignored", result.Ignored),
		slog.Int("invalid", len(result.Diagnostics)),
		slog.Int("total", len(c.books)),
	)

	return result, nil
}

// splitSeedLine splits on commas and drops trailing empty fields, so
// "a,b," counts as two fields rather than three.
func splitSeedLine(line string) []string {
	parts := strings.Split(line, ",")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Len returns the number of books.
func (c *Catalog) Len() int {
	return len(c.books)
}

// List returns copies of all books in current order.
// Returns domain.ErrEmpty when the catalog holds no books.
func (c *Catalog) List() ([]domain.Book, error) {
	if len(c.books) == 0 {
		return nil, domain.ErrEmpty
	}

	return slices.Clone(c.books), nil
}

// All returns a lazy sequence of position and book copy in current order.
// The sequence must not be held across mutations.
func (c *Catalog) All() iter.Seq2[int, domain.Book] {
	return func(yield func(int, domain.Book) bool) {
		for i, b := range c.books {
			if !yield(i, b) {
				return
			}
		}
	}
}

// Snapshot returns copies of all books, empty catalog included.
func (c *Catalog) Snapshot() []domain.Book {
	return slices.Clone(c.books)
}

// Replace swaps the whole content, e.g. after loading a snapshot.
// Returns a conflict error, leaving the catalog untouched, if two books share an id.
func (c *Catalog) Replace(books []domain.Book) error {
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		if _, dup := seen[b.ID()]; dup {
			return domain.NewConflictErrorWithDetails("book", "duplicate id", b.ID())
		}
		seen[b.ID()] = struct{}{}
	}

	c.books = slices.Clone(books)
	if c.books == nil {
		c.books = make([]domain.Book, 0)
	}

	return nil
}

// SearchByKeyword returns every book whose title, author or year contains
// term, ignoring case. An empty term matches nothing.
func (c *Catalog) SearchByKeyword(term string) []domain.Book {
	matches := make([]domain.Book, 0)
	if term == "" {
		return matches
	}

	needle := strings.ToLower(term)
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) ||
			strings.Contains(strconv.Itoa(b.PublicationYear), needle) {
			matches = append(matches, b)
		}
	}

	return matches
}

// SearchExact returns the first book whose title or author equals term,
// ignoring case.
func (c *Catalog) SearchExact(term string) (domain.Book, error) {
	for _, b := range c.books {
		if strings.EqualFold(b.Title, term) || strings.EqualFold(b.Author, term) {
			return b, nil
		}
	}

	return domain.Book{}, domain.NewNotFoundError("book", term)
}

// Add appends a copy of b.
// Returns a validation error for a nil book and a conflict error if a book
// with the same id is already present.
func (c *Catalog) Add(b *domain.Book) error {
	if b == nil {
		return domain.NewValidationError("book", "must not be nil")
	}

	if _, ok := c.indexOf(b.ID()); ok {
		return domain.NewConflictErrorWithDetails("book", "duplicate id", b.ID())
	}

	c.books = append(c.books, *b)
	c.logger.Debug("added book", slog.String("id", b.ID()), slog.String("title", b.Title))

	return nil
}

// Update overwrites the descriptive fields of the first book with the given id.
func (c *Catalog) Update(id string, v domain.BookValues) error {
	i, ok := c.indexOf(id)
	if !ok {
		return domain.NewNotFoundError("book", id)
	}

	c.books[i].Apply(v)
	c.logger.Debug("updated book", slog.String("id", id), slog.String("title", v.Title))

	return nil
}

// Delete removes every book with the given id.
func (c *Catalog) Delete(id string) error {
	before := len(c.books)
	c.books = slices.DeleteFunc(c.books, func(b domain.Book) bool {
		return b.ID() == id
	})

	if len(c.books) == before {
		return domain.NewNotFoundError("book", id)
	}

	c.logger.Debug("deleted book", slog.String("id", id))

	return nil
}

// GetByIndex returns the book at position i in current order.
// The position is only meaningful until the next mutation.
func (c *Catalog) GetByIndex(i int) (domain.Book, error) {
	if i < 0 || i >= len(c.books) {
		return domain.Book{}, domain.NewNotFoundError("book", "#"+strconv.Itoa(i))
	}

	return c.books[i], nil
}

// GetByID returns the book with the given id.
func (c *Catalog) GetByID(id string) (domain.Book, error) {
	i, ok := c.indexOf(id)
	if !ok {
		return domain.Book{}, domain.NewNotFoundError("book", id)
	}

	return c.books[i], nil
}

// Sort reorders the books in place.
func (c *Catalog) Sort(alg domain.Algorithm, ord domain.Ordering) {
	domain.Apply(alg, c.books, ord)
}

func (c *Catalog) indexOf(id string) (int, bool) {
	for i, b := range c.books {
		if b.ID() == id {
			return i, true
		}
	}
	return -1, false
}
