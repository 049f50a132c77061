package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

type serviceFixture struct {
	svc       *LibraryService
	catalog   *Catalog
	snapshots *mockSnapshotStore
	seed      *mockSeedSource
	recorder  *mockRecorder
}

func newServiceFixture(t *testing.T, books ...*domain.Book) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		catalog:   newTestCatalog(t, books...),
		snapshots: &mockSnapshotStore{},
		seed:      &mockSeedSource{},
		recorder:  &mockRecorder{},
	}
	f.svc = NewLibraryService(LibraryServiceConfig{
		Catalog:   f.catalog,
		Snapshots: f.snapshots,
		Seed:      f.seed,
		Recorder:  f.recorder,
		Logger:    discardLogger(),
	})

	t.Cleanup(func() {
		f.snapshots.AssertExpectations(t)
		f.seed.AssertExpectations(t)
		f.recorder.AssertExpectations(t)
	})

	return f
}

func (f *serviceFixture) expectRecord(kind ports.InteractionKind, subject string) {
	f.recorder.On("Record", mock.Anything, ports.Interaction{Kind: kind, Subject: subject}).Return(nil).Once()
}

func seedReader(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestNewLibraryService_PanicsWithoutRequiredDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewLibraryService(LibraryServiceConfig{Snapshots: &mockSnapshotStore{}})
	})
	assert.Panics(t, func() {
		NewLibraryService(LibraryServiceConfig{Catalog: NewCatalog(nil)})
	})
}

func TestNewLibraryService_DefaultsOptional(t *testing.T) {
	svc := NewLibraryService(LibraryServiceConfig{
		Catalog:   NewCatalog(nil),
		Snapshots: &mockSnapshotStore{},
	})

	require.NotNil(t, svc)
	assert.Equal(t, DefaultAlgorithms(), svc.algorithms)

	// No recorder or metrics: actions still work.
	_, err := svc.ViewAll(context.Background())
	assert.True(t, domain.IsEmpty(err))
}

func TestLibraryService_Bootstrap(t *testing.T) {
	saved := []domain.Book{
		*domain.NewBook("Dune", "Frank Herbert", 1965),
		*domain.NewBook("1984", "George Orwell", 1949),
	}
	dup := *domain.NewBook("Emma", "Jane Austen", 1815)

	tests := []struct {
		name         string
		setup        func(f *serviceFixture)
		wantSource   Source
		wantTitles   []string
		wantFallback func(error) bool
	}{
		{
			name: "snapshot wins",
			setup: func(f *serviceFixture) {
				f.snapshots.On("Load", mock.Anything).Return(saved, nil)
			},
			wantSource: SourceSnapshot,
			wantTitles: []string{"Dune", "1984"},
		},
		{
			name: "missing snapshot falls back to seed",
			setup: func(f *serviceFixture) {
				f.snapshots.On("Load", mock.Anything).Return(nil, domain.NewNotFoundError("snapshot", ""))
				f.seed.On("Open", mock.Anything).Return(seedReader("Emma,Jane Austen,1815\nbad\n"), nil)
			},
			wantSource: SourceSeed,
			wantTitles: []string{"Emma"},
		},
		{
			name: "corrupt snapshot falls back to seed",
			setup: func(f *serviceFixture) {
				f.snapshots.On("Load", mock.Anything).Return(nil, domain.NewUnavailableError("snapshot", "corrupt"))
				f.seed.On("Open", mock.Anything).Return(seedReader("Emma,Jane Austen,1815"), nil)
			},
			wantSource:   SourceSeed,
			wantTitles:   []string{"Emma"},
			wantFallback: domain.IsUnavailable,
		},
		{
			name: "snapshot with duplicate ids falls back to seed",
			setup: func(f *serviceFixture) {
				f.snapshots.On("Load", mock.Anything).Return([]domain.Book{dup, dup}, nil)
				f.seed.On("Open", mock.Anything).Return(seedReader("Dune,Frank Herbert,1965"), nil)
			},
			wantSource:   SourceSeed,
			wantTitles:   []string{"Dune"},
			wantFallback: func(err error) bool { return errors.Is(err, domain.ErrConflict) },
		},
		{
			name: "unreadable seed leaves catalog empty",
			setup: func(f *serviceFixture) {
				f.snapshots.On("Load", mock.Anything).Return(nil, domain.ErrNotFound)
				f.seed.On("Open", mock.Anything).Return(nil, domain.NewUnavailableError("seed", "no such file"))
			},
			wantSource: SourceEmpty,
			wantTitles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			tt.setup(f)

			result, err := f.svc.Bootstrap(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, result.Source)
			assert.Equal(t, tt.wantTitles, titlesOf(f.catalog.Snapshot()))

			if tt.wantFallback != nil {
				require.Error(t, result.Fallback)
				assert.True(t, tt.wantFallback(result.Fallback))
			} else {
				assert.NoError(t, result.Fallback)
			}
		})
	}
}

func TestLibraryService_Bootstrap_ReportsSeedDiagnostics(t *testing.T) {
	f := newServiceFixture(t)
	f.snapshots.On("Load", mock.Anything).Return(nil, domain.ErrNotFound)
	f.seed.On("Open", mock.Anything).Return(seedReader("Dune,Frank Herbert,1965\nEmma,Jane Austen,abc"), nil)

	result, err := f.svc.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Seed.Loaded)
	require.Len(t, result.Seed.Diagnostics, 1)
	require.ErrorIs(t, result.Seed.Diagnostics[0], domain.ErrParse)
}

func TestLibraryService_ViewAll(t *testing.T) {
	f := newServiceFixture(t, domain.NewBook("Dune", "Frank Herbert", 1965))
	f.expectRecord(ports.InteractionViewAll, "")

	books, err := f.svc.ViewAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titlesOf(books))
}

func TestLibraryService_SortBy(t *testing.T) {
	tests := []struct {
		field      domain.SortField
		wantLabel  string
		wantAlg    string
		wantTitles []string
	}{
		{domain.FieldTitle, "Title", "bubble", []string{"1984", "2001", "Dune"}},
		{domain.FieldAuthor, "Author", "insertion", []string{"2001", "Dune", "1984"}},
		{domain.FieldYear, "Publication Year", "quick", []string{"1984", "Dune", "2001"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			f := newServiceFixture(t,
				domain.NewBook("Dune", "Frank Herbert", 1965),
				domain.NewBook("1984", "George Orwell", 1949),
				domain.NewBook("2001", "Arthur C. Clarke", 2001),
			)
			metrics := &mockMetrics{}
			f.svc.metrics = metrics

			metrics.On("SortCompleted", tt.wantAlg, string(tt.field), mock.Anything).Return().Once()
			metrics.On("ActionPerformed", ports.InteractionSort).Return().Once()
			f.expectRecord(ports.InteractionSort, tt.wantLabel)

			books, err := f.svc.SortBy(context.Background(), tt.field)

			require.NoError(t, err)
			assert.Equal(t, tt.wantTitles, titlesOf(books))
			metrics.AssertExpectations(t)
		})
	}
}

func TestLibraryService_SortBy_ConfiguredAlgorithm(t *testing.T) {
	catalog := newTestCatalog(t,
		domain.NewBook("B", "x", 2),
		domain.NewBook("A", "y", 1),
	)
	metrics := &mockMetrics{}
	svc := NewLibraryService(LibraryServiceConfig{
		Catalog:    catalog,
		Snapshots:  &mockSnapshotStore{},
		Metrics:    metrics,
		Algorithms: map[domain.SortField]domain.Algorithm{domain.FieldTitle: domain.AlgorithmLibrary},
		Logger:     discardLogger(),
	})

	metrics.On("SortCompleted", "library", "title", mock.Anything).Return().Once()
	metrics.On("ActionPerformed", ports.InteractionSort).Return().Once()

	books, err := svc.SortBy(context.Background(), domain.FieldTitle)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titlesOf(books))
	assert.Equal(t, domain.AlgorithmInsertion, svc.algorithms[domain.FieldAuthor], "unset fields keep defaults")
	metrics.AssertExpectations(t)
}

func TestLibraryService_SortBy_UnknownField(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SortBy(context.Background(), "isbn")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestLibraryService_Search(t *testing.T) {
	books := []*domain.Book{
		domain.NewBook("Dune", "Frank Herbert", 1965),
		domain.NewBook("Dune Messiah", "Frank Herbert", 1969),
	}

	tests := []struct {
		name       string
		keyword    string
		wantTitles []string
		wantErr    bool
	}{
		{name: "exact title wins", keyword: "dune", wantTitles: []string{"Dune"}},
		{name: "substring falls back to keyword search", keyword: "messiah", wantTitles: []string{"Dune Messiah"}},
		{name: "year substring", keyword: "196", wantTitles: []string{"Dune", "Dune Messiah"}},
		{name: "no match", keyword: "tolkien", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, books...)
			f.expectRecord(ports.InteractionSearch, tt.keyword)

			got, err := f.svc.Search(context.Background(), tt.keyword)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitles, titlesOf(got))
		})
	}
}

func TestLibraryService_AddBook(t *testing.T) {
	f := newServiceFixture(t)
	f.expectRecord(ports.InteractionCreate, "Dune")

	b, err := f.svc.AddBook(context.Background(), domain.BookValues{
		Title: "Dune", Author: "Frank Herbert", PublicationYear: 1965,
	})

	require.NoError(t, err)
	got, err := f.catalog.GetByID(b.ID())
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestLibraryService_ResolveBook(t *testing.T) {
	dune := domain.NewBook("Dune", "Frank Herbert", 1965)
	orwell := domain.NewBook("1984", "George Orwell", 1949)
	f := newServiceFixture(t, dune, orwell)

	tests := []struct {
		name     string
		ref      string
		wantID   string
		errCheck func(error) bool
	}{
		{name: "by position", ref: "#2", wantID: orwell.ID()},
		{name: "by position with spaces", ref: " # 1 ", wantID: dune.ID()},
		{name: "by id", ref: dune.ID(), wantID: dune.ID()},
		{name: "by title ignoring case", ref: "DUNE", wantID: dune.ID()},
		{name: "numeric title is a title, not a position", ref: "1984", wantID: orwell.ID()},
		{name: "by author", ref: "george orwell", wantID: orwell.ID()},
		{name: "position out of range", ref: "#3", errCheck: domain.IsNotFound},
		{name: "position not a number", ref: "#x", errCheck: domain.IsValidation},
		{name: "unknown id", ref: "0d5c3a1e-9a7b-4c2d-8e6f-1a2b3c4d5e6f", errCheck: domain.IsNotFound},
		{name: "unknown title", ref: "Emma", errCheck: domain.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := f.svc.ResolveBook(tt.ref)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, b.ID())
		})
	}
}

func TestLibraryService_ResolveBook_PositionFollowsLastListing(t *testing.T) {
	dune := domain.NewBook("Dune", "Frank Herbert", 1965)
	nineteen := domain.NewBook("1984", "George Orwell", 1949)
	farm := domain.NewBook("Animal Farm", "George Orwell", 1945)
	f := newServiceFixture(t, dune, nineteen, farm)
	ctx := context.Background()

	f.expectRecord(ports.InteractionSearch, "orwell")
	results, err := f.svc.Search(ctx, "orwell")
	require.NoError(t, err)
	require.Equal(t, []string{"1984", "Animal Farm"}, titlesOf(results))

	b, err := f.svc.ResolveBook("#2")
	require.NoError(t, err)
	assert.Equal(t, farm.ID(), b.ID())

	_, err = f.svc.ResolveBook("#3")
	assert.True(t, domain.IsNotFound(err))

	f.expectRecord(ports.InteractionSort, "Year")
	_, err = f.svc.SortBy(ctx, domain.FieldYear)
	require.NoError(t, err)

	b, err = f.svc.ResolveBook("#3")
	require.NoError(t, err)
	assert.Equal(t, dune.ID(), b.ID())

	f.expectRecord(ports.InteractionDelete, "Dune")
	require.NoError(t, f.svc.DeleteBook(ctx, dune.ID()))

	_, err = f.svc.ResolveBook("#3")
	assert.True(t, domain.IsNotFound(err), "a deleted book stays gone from the shown listing")

	f.expectRecord(ports.InteractionSearch, "tolkien")
	_, err = f.svc.Search(ctx, "tolkien")
	require.Error(t, err)

	_, err = f.svc.ResolveBook("#1")
	assert.True(t, domain.IsNotFound(err), "an empty search result leaves nothing to pick")
}

func TestLibraryService_ResolveBook_BlankReference(t *testing.T) {
	untitled := domain.NewBook("", "", 2000)
	f := newServiceFixture(t, untitled)

	for _, ref := range []string{"", "   ", "\t"} {
		_, err := f.svc.ResolveBook(ref)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err), "ref %q", ref)
	}
}

func TestLibraryService_UpdateBook(t *testing.T) {
	dune := domain.NewBook("Dune", "Frank Herbert", 1965)
	f := newServiceFixture(t, dune)
	f.expectRecord(ports.InteractionUpdate, "Dune")

	err := f.svc.UpdateBook(context.Background(), dune.ID(), domain.BookValues{
		Title: "Dune Messiah", Author: "Frank Herbert", PublicationYear: 1969,
	})

	require.NoError(t, err)
	got, err := f.catalog.GetByID(dune.ID())
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, 1969, got.PublicationYear)

	err = f.svc.UpdateBook(context.Background(), "missing", domain.BookValues{})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestLibraryService_DeleteBook(t *testing.T) {
	dune := domain.NewBook("Dune", "Frank Herbert", 1965)
	f := newServiceFixture(t, dune)
	f.expectRecord(ports.InteractionDelete, "Dune")

	require.NoError(t, f.svc.DeleteBook(context.Background(), dune.ID()))

	_, err := f.catalog.GetByID(dune.ID())
	assert.True(t, domain.IsNotFound(err))

	err = f.svc.DeleteBook(context.Background(), dune.ID())
	assert.True(t, domain.IsNotFound(err))
}

func TestLibraryService_RecorderFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t, domain.NewBook("Dune", "Frank Herbert", 1965))
	f.recorder.On("Record", mock.Anything, mock.Anything).
		Return(domain.NewUnavailableError("interaction log", "read-only file system"))

	books, err := f.svc.ViewAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestLibraryService_Save(t *testing.T) {
	dune := domain.NewBook("Dune", "Frank Herbert", 1965)

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture(t, dune)
		f.snapshots.On("Save", mock.Anything, []domain.Book{*dune}).Return(nil).Once()

		require.NoError(t, f.svc.Save(context.Background()))
	})

	t.Run("failure is returned", func(t *testing.T) {
		f := newServiceFixture(t, dune)
		f.snapshots.On("Save", mock.Anything, mock.Anything).
			Return(domain.NewUnavailableError("snapshot", "disk full")).Once()

		err := f.svc.Save(context.Background())

		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	})

	t.Run("empty catalog saves empty list", func(t *testing.T) {
		f := newServiceFixture(t)
		f.snapshots.On("Save", mock.Anything, []domain.Book{}).Return(nil).Once()

		require.NoError(t, f.svc.Save(context.Background()))
	})
}

func TestLibraryService_MetricsCountActions(t *testing.T) {
	f := newServiceFixture(t)
	metrics := &mockMetrics{}
	f.svc.metrics = metrics

	metrics.On("ActionPerformed", ports.InteractionCreate).Return().Once()
	metrics.On("CatalogSize", 1).Return().Once()
	f.expectRecord(ports.InteractionCreate, "Dune")

	_, err := f.svc.AddBook(context.Background(), domain.BookValues{Title: "Dune"})

	require.NoError(t, err)
	metrics.AssertExpectations(t)
}
