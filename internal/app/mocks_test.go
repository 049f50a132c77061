package app

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

type mockSnapshotStore struct {
	mock.Mock
}

func (m *mockSnapshotStore) Save(ctx context.Context, books []domain.Book) error {
	args := m.Called(ctx, books)
	return args.Error(0)
}

func (m *mockSnapshotStore) Load(ctx context.Context) ([]domain.Book, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]domain.Book)
	return books, args.Error(1)
}

type mockSeedSource struct {
	mock.Mock
}

func (m *mockSeedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	args := m.Called(ctx)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, i ports.Interaction) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) ActionPerformed(kind ports.InteractionKind) {
	m.Called(kind)
}

func (m *mockMetrics) SortCompleted(algorithm, field string, elapsed time.Duration) {
	m.Called(algorithm, field, elapsed)
}

func (m *mockMetrics) CatalogSize(n int) {
	m.Called(n)
}
