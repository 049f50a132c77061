package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	snapshotResource = "snapshot"
	dirPerm          = 0o755
	filePerm         = 0o644
)

// JSONSnapshotStore persists the whole catalog as one JSON document.
type JSONSnapshotStore struct {
	path   string
	logger *slog.Logger
}

var (
	_ ports.SnapshotStore = (*JSONSnapshotStore)(nil)
	_ ports.HealthChecker = (*JSONSnapshotStore)(nil)
)

// SnapshotConfig configures a JSONSnapshotStore.
type SnapshotConfig struct {
	// Path is the snapshot file. Parent directories are created on save.
	Path string

	// Logger is an optional logger. If nil, a default logger is used.
	Logger *slog.Logger
}

// NewJSONSnapshotStore creates a snapshot store for cfg.Path.
func NewJSONSnapshotStore(cfg SnapshotConfig) *JSONSnapshotStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JSONSnapshotStore{
		path:   cfg.Path,
		logger: logger.With(slog.String("component", "storage.JSONSnapshotStore")),
	}
}

// Path returns the snapshot file path.
func (s *JSONSnapshotStore) Path() string {
	return s.path
}

// Save replaces the snapshot with books. The new file is written next to the
// old one and renamed over it, so a failed save leaves the previous snapshot intact.
func (s *JSONSnapshotStore) Save(ctx context.Context, books []domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(documentFromBooks(books), "", "  ")
	if err != nil {
		return s.unavailable("encoding snapshot", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return s.unavailable("creating snapshot directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return s.unavailable("creating temporary snapshot", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return s.unavailable("writing snapshot", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return s.unavailable("syncing snapshot", err)
	}

	if err := tmp.Close(); err != nil {
		return s.unavailable("closing snapshot", err)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		return s.unavailable("setting snapshot permissions", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return s.unavailable("replacing snapshot", err)
	}

	s.logger.DebugContext(ctx, "snapshot saved",
		slog.String("path", s.path),
		slog.Int("books", len(books)),
	)

	return nil
}

// Load reads the snapshot. Returns domain.ErrNotFound when the file is absent
// or empty and domain.ErrUnavailable when it cannot be read or decoded.
func (s *JSONSnapshotStore) Load(ctx context.Context) ([]domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError(snapshotResource, s.path)
	}
	if err != nil {
		return nil, s.unavailable("reading snapshot", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.NewNotFoundError(snapshotResource, s.path)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, s.unavailable("decoding snapshot", err)
	}

	if doc.Version != snapshotVersion {
		return nil, domain.NewUnavailableError(snapshotResource,
			fmt.Sprintf("unsupported snapshot version %d", doc.Version))
	}

	books, err := TranslateSlice(doc.Books, bookFromRecord)
	if err != nil {
		return nil, s.unavailable("restoring snapshot", err)
	}

	s.logger.DebugContext(ctx, "snapshot loaded",
		slog.String("path", s.path),
		slog.Int("books", len(books)),
	)

	return books, nil
}

// Name implements ports.HealthChecker.
func (s *JSONSnapshotStore) Name() string {
	return snapshotResource
}

// Check reports whether the snapshot can be written: the nearest existing
// ancestor of the file must be a writable directory.
func (s *JSONSnapshotStore) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return domain.NewUnavailableError(snapshotResource, dir+" is not a directory")
			}
			return checkWritableDir(dir)
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return s.unavailable("inspecting snapshot directory", err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

func (s *JSONSnapshotStore) unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.NewUnavailableError(snapshotResource, s.path), err)
}

func checkWritableDir(dir string) error {
	f, err := os.CreateTemp(dir, ".catalog-check-*")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(snapshotResource, dir+" is not writable"), err)
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}
