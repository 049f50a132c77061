package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/library-catalog/internal/domain"
)

func newTestStore(t *testing.T) *JSONSnapshotStore {
	t.Helper()

	return NewJSONSnapshotStore(SnapshotConfig{
		Path:   filepath.Join(t.TempDir(), "data", "library.json"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func sampleBooks(n int) []domain.Book {
	books := make([]domain.Book, 0, n)
	for i := range n {
		books = append(books, *domain.NewBook(
			fmt.Sprintf("Title %04d", i),
			fmt.Sprintf("Author %d", i%17),
			1900+i%120,
		))
	}
	return books
}

func assertSameBooks(t *testing.T, want, got []domain.Book) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID(), got[i].ID(), "id at %d", i)
		assert.Equal(t, want[i].Values(), got[i].Values(), "values at %d", i)
	}
}

func TestJSONSnapshotStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		books []domain.Book
	}{
		{name: "empty catalog", books: []domain.Book{}},
		{name: "single book", books: []domain.Book{*domain.NewBook("Dune", "Frank Herbert", 1965)}},
		{name: "thousand books", books: sampleBooks(1000)},
		{name: "unicode and commas", books: []domain.Book{
			*domain.NewBook("Cien años de soledad", "Gabriel García Márquez", 1967),
			*domain.NewBook("Crime, and Punishment", "Фёдор Достоевский", 1866),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, tt.books))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assertSameBooks(t, tt.books, got)
		})
	}
}

func TestJSONSnapshotStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleBooks(5)))

	second := sampleBooks(2)
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameBooks(t, second, got)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestJSONSnapshotStore_DocumentFormat(t *testing.T) {
	store := newTestStore(t)
	b, err := domain.RestoreBook("6ba7b810-9dad-11d1-80b4-00c04fd430c8", "Dune", "Frank Herbert", 1965)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), []domain.Book{*b}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 1,
		"books": [{
			"id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"title": "Dune",
			"author": "Frank Herbert",
			"publication_year": 1965
		}]
	}`, string(data))
}

func TestJSONSnapshotStore_LoadNotFound(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "absent file"},
		{name: "zero bytes", content: ptr("")},
		{name: "whitespace only", content: ptr("  \n\t\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if tt.content != nil {
				writeSnapshot(t, store.Path(), *tt.content)
			}

			books, err := store.Load(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsNotFound(err))
			assert.Nil(t, books)
		})
	}
}

func TestJSONSnapshotStore_LoadUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "Dune,Frank Herbert,1965"},
		{name: "truncated", content: `{"version":1,"books":[{"id":"6ba7b810-9dad`},
		{name: "wrong version", content: `{"version":2,"books":[]}`},
		{name: "malformed id", content: `{"version":1,"books":[{"id":"nope","title":"Dune","author":"Frank Herbert","publication_year":1965}]}`},
		{name: "year is a string", content: `{"version":1,"books":[{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","title":"Dune","author":"Frank Herbert","publication_year":"1965"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			writeSnapshot(t, store.Path(), tt.content)

			books, err := store.Load(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsUnavailable(err), "got %v", err)
			assert.Nil(t, books)
		})
	}
}

func TestJSONSnapshotStore_SaveUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := NewJSONSnapshotStore(SnapshotConfig{Path: filepath.Join(blocker, "library.json")})

	err := store.Save(context.Background(), sampleBooks(1))
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestJSONSnapshotStore_CanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, sampleBooks(1)), context.Canceled)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, store.Path())
}

func TestJSONSnapshotStore_Check(t *testing.T) {
	t.Run("missing directories are fine", func(t *testing.T) {
		store := newTestStore(t)
		assert.Equal(t, "snapshot", store.Name())
		assert.NoError(t, store.Check(context.Background()))
	})

	t.Run("parent is a file", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		store := NewJSONSnapshotStore(SnapshotConfig{Path: filepath.Join(blocker, "library.json")})
		err := store.Check(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	})
}

func writeSnapshot(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func ptr[T any](v T) *T {
	return &v
}
