// Package ports defines interfaces for the catalog's external collaborators.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for blocking I/O
//   - Return domain types, never on-disk DTOs
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"io"

	"github.com/jsamuelsen/library-catalog/internal/domain"
)

// SnapshotStore persists the whole catalog between runs.
type SnapshotStore interface {
	// Save replaces the stored snapshot with books, preserving ids.
	// Returns domain.ErrUnavailable if the snapshot cannot be written.
	Save(ctx context.Context, books []domain.Book) error

	// Load returns the stored books in saved order.
	// Returns domain.ErrNotFound if no snapshot exists or it is empty, and
	// domain.ErrUnavailable if it exists but cannot be read or decoded.
	Load(ctx context.Context) ([]domain.Book, error)
}

// SeedSource provides the plain-text initial data, one
// "title,author,year" record per line.
type SeedSource interface {
	// Open returns a reader over the seed lines. The caller closes it.
	// Returns domain.ErrUnavailable if the source cannot be opened.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// InteractionKind identifies a user action recorded in the interaction log.
type InteractionKind string

// Interaction kinds, one per menu action that is recorded.
const (
	InteractionViewAll InteractionKind = "view_all"
	InteractionSort    InteractionKind = "sort"
	InteractionSearch  InteractionKind = "search"
	InteractionCreate  InteractionKind = "create"
	InteractionUpdate  InteractionKind = "update"
	InteractionDelete  InteractionKind = "delete"
)

// Interaction is a single user action.
// Subject carries the sort criteria, search keyword or book title.
type Interaction struct {
	Kind    InteractionKind
	Subject string
}

// Description renders the interaction as a log line message.
func (i Interaction) Description() string {
	switch i.Kind {
	case InteractionViewAll:
		return "View all books action"
	case InteractionSort:
		return "Sort action: " + i.Subject
	case InteractionSearch:
		return "Search action: " + i.Subject
	case InteractionCreate:
		return "Create book action: " + i.Subject
	case InteractionUpdate:
		return "Update book action: " + i.Subject
	case InteractionDelete:
		return "Delete book action: " + i.Subject
	default:
		if i.Subject == "" {
			return string(i.Kind)
		}
		return string(i.Kind) + ": " + i.Subject
	}
}

// InteractionRecorder appends user actions to the interaction log.
// Recording is a side effect; callers never depend on the log content.
type InteractionRecorder interface {
	// Record appends one interaction.
	// Returns domain.ErrUnavailable if the log cannot be written.
	Record(ctx context.Context, interaction Interaction) error
}
