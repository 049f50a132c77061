// Package app contains the catalog collection and the use cases that drive it.
// This is the application layer - it coordinates domain logic and the
// storage, interaction log and metrics collaborators through ports.
//
// What does NOT belong here:
//   - Terminal rendering and prompts (that's the cli adapter)
//   - File formats (that's the storage adapters)
//   - Core ordering rules and sort algorithms (that's the domain layer)
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/platform/logging"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

// positionPrefix marks a book reference as a 1-based list position.
const positionPrefix = "#"

// Source tells where the catalog content came from at startup.
type Source string

// Startup sources.
const (
	SourceSnapshot Source = "snapshot"
	SourceSeed     Source = "seed"
	SourceEmpty    Source = "empty"
)

// DefaultAlgorithms maps each sort field to the algorithm the menu uses for it.
func DefaultAlgorithms() map[domain.SortField]domain.Algorithm {
	return map[domain.SortField]domain.Algorithm{
		domain.FieldTitle:  domain.AlgorithmBubble,
		domain.FieldAuthor: domain.AlgorithmInsertion,
		domain.FieldYear:   domain.AlgorithmQuick,
	}
}

// BootstrapResult describes how the catalog was populated.
type BootstrapResult struct {
	Source Source

	// Seed is set when the seed source was read.
	Seed LoadResult

	// Fallback explains why the snapshot was not used, when it existed but failed.
	Fallback error
}

// LibraryService orchestrates catalog use cases: startup loading, the menu
// actions, interaction recording and saving at exit.
type LibraryService struct {
	catalog    *Catalog
	snapshots  ports.SnapshotStore
	seed       ports.SeedSource
	recorder   ports.InteractionRecorder
	metrics    ports.UsageMetrics
	algorithms map[domain.SortField]domain.Algorithm
	logger     *slog.Logger

	// listing holds the ids of the last numbered listing shown, in order.
	// nil until the first listing; "#n" then falls back to catalog position.
	listing []string
}

// LibraryServiceConfig contains the dependencies of the library service.
// Catalog and Snapshots are required; everything else is optional.
type LibraryServiceConfig struct {
	Catalog    *Catalog
	Snapshots  ports.SnapshotStore
	Seed       ports.SeedSource
	Recorder   ports.InteractionRecorder
	Metrics    ports.UsageMetrics
	Algorithms map[domain.SortField]domain.Algorithm
	Logger     *slog.Logger
}

// NewLibraryService creates a library service.
// It panics if Catalog or Snapshots is nil, since nothing works without them.
func NewLibraryService(cfg LibraryServiceConfig) *LibraryService {
	if cfg.Catalog == nil {
		panic("app: LibraryServiceConfig.Catalog is required")
	}

	if cfg.Snapshots == nil {
		panic("app: LibraryServiceConfig.Snapshots is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	algorithms := DefaultAlgorithms()
	for field, alg := range cfg.Algorithms {
		algorithms[field] = alg
	}

	return &LibraryService{
		catalog:    cfg.Catalog,
		snapshots:  cfg.Snapshots,
		seed:       cfg.Seed,
		recorder:   cfg.Recorder,
		metrics:    cfg.Metrics,
		algorithms: algorithms,
		logger:     logger.With(slog.String("component", "app.LibraryService")),
	}
}

// Catalog exposes the underlying collection for read access.
func (s *LibraryService) Catalog() *Catalog {
	return s.catalog
}

// Bootstrap fills the catalog from the saved snapshot, falling back to the
// seed source when the snapshot is absent or unreadable. Failures are logged
// and reported in the result; none of them stops startup.
func (s *LibraryService) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	logger := s.loggerFor(ctx)

	books, err := s.snapshots.Load(ctx)
	switch {
	case err == nil:
		err = s.catalog.Replace(books)
		if err == nil {
			logger.InfoContext(ctx, "loaded saved library state", slog.Int("books", len(books)))
			s.reportSize()
			return BootstrapResult{Source: SourceSnapshot}, nil
		}
	case domain.IsNotFound(err):
		logger.DebugContext(ctx, "no saved library state")
		err = nil
	}

	result := BootstrapResult{Source: SourceEmpty, Fallback: err}
	if err != nil {
		logger.WarnContext(ctx, "ignoring saved library state", slog.Any("error", err))
	}

	if s.seed == nil {
		return result, nil
	}

	rc, openErr := s.seed.Open(ctx)
	if openErr != nil {
		logger.ErrorContext(ctx, "error reading seed source", slog.Any("error", openErr))
		return result, nil
	}
	defer rc.Close()

	loaded, loadErr := s.catalog.LoadFrom(ctx, rc)
	result.Source = SourceSeed
	result.Seed = loaded
	s.reportSize()

	if loadErr != nil {
		logger.ErrorContext(ctx, "error reading seed source", slog.Any("error", loadErr))
	}

	return result, nil
}

// ViewAll returns every book in current order.
// Returns domain.ErrEmpty when the catalog holds no books.
func (s *LibraryService) ViewAll(ctx context.Context) ([]domain.Book, error) {
	s.record(ctx, ports.Interaction{Kind: ports.InteractionViewAll})
	return s.listed(s.catalog.List())
}

// SortBy reorders the catalog by field with the algorithm configured for it
// and returns the resulting order.
func (s *LibraryService) SortBy(ctx context.Context, field domain.SortField) ([]domain.Book, error) {
	ord, err := field.Ordering()
	if err != nil {
		return nil, fmt.Errorf("sorting: %w", err)
	}

	alg := s.algorithms[field]

	start := time.Now()
	s.catalog.Sort(alg, ord)
	elapsed := time.Since(start)

	s.loggerFor(ctx).DebugContext(ctx, "sorted catalog",
		slog.String("field", string(field)),
		slog.String("algorithm", string(alg)),
		slog.Duration("elapsed", elapsed),
	)

	if s.metrics != nil {
		s.metrics.SortCompleted(string(alg), string(field), elapsed)
	}

	s.record(ctx, ports.Interaction{Kind: ports.InteractionSort, Subject: field.Label()})

	return s.listed(s.catalog.List())
}

// Search looks for keyword. An exact, case-insensitive title or author match
// wins and is returned alone; otherwise every book containing keyword in its
// title, author or year is returned. Returns a not found error when nothing matches.
func (s *LibraryService) Search(ctx context.Context, keyword string) ([]domain.Book, error) {
	s.record(ctx, ports.Interaction{Kind: ports.InteractionSearch, Subject: keyword})

	if b, err := s.catalog.SearchExact(keyword); err == nil {
		return s.listed([]domain.Book{b}, nil)
	}

	matches := s.catalog.SearchByKeyword(keyword)
	if len(matches) == 0 {
		return s.listed(nil, domain.NewNotFoundError("book", keyword))
	}

	return s.listed(matches, nil)
}

// AddBook creates a book from values and appends it.
func (s *LibraryService) AddBook(ctx context.Context, v domain.BookValues) (domain.Book, error) {
	b := domain.NewBook(v.Title, v.Author, v.PublicationYear)

	if err := s.catalog.Add(b); err != nil {
		return domain.Book{}, fmt.Errorf("adding book: %w", err)
	}

	s.loggerFor(ctx).InfoContext(ctx, "book added", slog.String("id", b.ID()))
	s.record(ctx, ports.Interaction{Kind: ports.InteractionCreate, Subject: v.Title})
	s.reportSize()

	return *b, nil
}

// ResolveBook finds a book from user input. A reference is one of:
//   - "#n", the 1-based position in the last listing returned by ViewAll,
//     SortBy or Search
//   - a full book id
//   - a title or author, matched exactly ignoring case (first match wins)
func (s *LibraryService) ResolveBook(ref string) (domain.Book, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Book{}, domain.NewValidationError("book", "must not be blank")
	}

	if pos, ok := strings.CutPrefix(ref, positionPrefix); ok {
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return domain.Book{}, domain.NewValidationErrorWithValue("position", "must be a number", pos)
		}
		return s.bookAt(n)
	}

	if _, err := uuid.Parse(ref); err == nil {
		if b, err := s.catalog.GetByID(ref); err == nil {
			return b, nil
		}
	}

	return s.catalog.SearchExact(ref)
}

// UpdateBook overwrites the fields of the book with the given id.
func (s *LibraryService) UpdateBook(ctx context.Context, id string, v domain.BookValues) error {
	old, err := s.catalog.GetByID(id)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}

	if err := s.catalog.Update(id, v); err != nil {
		return fmt.Errorf("updating book: %w", err)
	}

	s.loggerFor(ctx).InfoContext(ctx, "book updated", slog.String("id", id))
	s.record(ctx, ports.Interaction{Kind: ports.InteractionUpdate, Subject: old.Title})

	return nil
}

// DeleteBook removes the book with the given id.
func (s *LibraryService) DeleteBook(ctx context.Context, id string) error {
	old, err := s.catalog.GetByID(id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	if err := s.catalog.Delete(id); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	s.loggerFor(ctx).InfoContext(ctx, "book deleted", slog.String("id", id))
	s.record(ctx, ports.Interaction{Kind: ports.InteractionDelete, Subject: old.Title})
	s.reportSize()

	return nil
}

// Save writes the current catalog to the snapshot store.
func (s *LibraryService) Save(ctx context.Context) error {
	books := s.catalog.Snapshot()

	if err := s.snapshots.Save(ctx, books); err != nil {
		s.loggerFor(ctx).ErrorContext(ctx, "error saving library", slog.Any("error", err))
		return fmt.Errorf("saving library: %w", err)
	}

	s.loggerFor(ctx).InfoContext(ctx, "library saved", slog.Int("books", len(books)))

	return nil
}

// record forwards an interaction to the recorder and metrics. A recorder
// failure is logged and otherwise ignored.
func (s *LibraryService) record(ctx context.Context, i ports.Interaction) {
	if s.metrics != nil {
		s.metrics.ActionPerformed(i.Kind)
	}

	if s.recorder == nil {
		return
	}

	if err := s.recorder.Record(ctx, i); err != nil {
		level := slog.LevelWarn
		if !domain.IsUnavailable(err) {
			level = slog.LevelError
		}
		s.loggerFor(ctx).Log(ctx, level, "error writing to log file",
			slog.String("kind", string(i.Kind)),
			slog.Any("error", err),
		)
	}
}

// listed remembers the ids of books as the current listing and passes the
// result through. A failed listing shows nothing, so it clears the listing.
func (s *LibraryService) listed(books []domain.Book, err error) ([]domain.Book, error) {
	s.listing = make([]string, 0, len(books))
	for _, b := range books {
		s.listing = append(s.listing, b.ID())
	}
	return books, err
}

// bookAt returns the book shown at 1-based position n of the last listing.
// A book deleted since the listing was shown is not found.
func (s *LibraryService) bookAt(n int) (domain.Book, error) {
	if s.listing == nil {
		return s.catalog.GetByIndex(n - 1)
	}

	if n < 1 || n > len(s.listing) {
		return domain.Book{}, domain.NewNotFoundError("book", positionPrefix+strconv.Itoa(n))
	}

	return s.catalog.GetByID(s.listing[n-1])
}

func (s *LibraryService) reportSize() {
	if s.metrics != nil {
		s.metrics.CatalogSize(s.catalog.Len())
	}
}

// loggerFor prefers a session-scoped logger carried in ctx.
func (s *LibraryService) loggerFor(ctx context.Context) *slog.Logger {
	if logger, ok := logging.LoggerFromContext(ctx); ok {
		return logger.With(slog.String("component", "app.LibraryService"))
	}
	return s.logger
}
