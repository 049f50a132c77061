package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

const seedResource = "seed"

// FileSeedSource opens the comma-separated seed file.
type FileSeedSource struct {
	path string
}

var (
	_ ports.SeedSource    = (*FileSeedSource)(nil)
	_ ports.HealthChecker = (*FileSeedSource)(nil)
)

// NewFileSeedSource creates a seed source for path.
func NewFileSeedSource(path string) *FileSeedSource {
	return &FileSeedSource{path: path}
}

// Path returns the seed file path.
func (s *FileSeedSource) Path() string {
	return s.path
}

// Open opens the seed file. The caller must close it.
// Returns domain.ErrNotFound when the file is absent.
func (s *FileSeedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError(seedResource, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening seed: %w: %w", domain.NewUnavailableError(seedResource, s.path), err)
	}

	return f, nil
}

// Name implements ports.HealthChecker.
func (s *FileSeedSource) Name() string {
	return seedResource
}

// Check reports whether the seed file can be opened.
func (s *FileSeedSource) Check(ctx context.Context) error {
	rc, err := s.Open(ctx)
	if err != nil {
		return err
	}

	return rc.Close()
}
