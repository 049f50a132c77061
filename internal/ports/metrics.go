package ports

import "time"

// UsageMetrics receives counters about catalog usage.
// Implementations must be cheap; they are called inline on every action.
type UsageMetrics interface {
	// ActionPerformed counts one user action of the given kind.
	ActionPerformed(kind InteractionKind)

	// SortCompleted observes how long one in-place sort took.
	SortCompleted(algorithm, field string, elapsed time.Duration)

	// CatalogSize reports the current number of books.
	CatalogSize(n int)
}
