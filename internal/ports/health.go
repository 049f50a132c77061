package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateChecker is returned when attempting to register a health checker
// with a name that is already registered.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by storage adapters that can report whether
// their backing files are usable. Checks run once at startup; an unhealthy
// result is reported but never stops the program.
//
// Example implementation:
//
//	func (s *JSONSnapshotStore) Name() string { return "snapshot" }
//
//	func (s *JSONSnapshotStore) Check(ctx context.Context) error {
//	    return checkWritableDir(filepath.Dir(s.path))
//	}
type HealthChecker interface {
	// Name returns a unique identifier for this health check.
	Name() string

	// Check returns an error if the component is unusable.
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded indicates at least one check failed.
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	// Status is the overall health status.
	Status HealthStatus

	// Checks contains individual check results in registration order.
	Checks []CheckResult

	// Timestamp is when the health check was performed.
	Timestamp time.Time
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	// Name is the checker name.
	Name string

	// Status is the health status of this component.
	Status HealthStatus

	// Message provides additional context on failure.
	Message string

	// Duration is how long the check took.
	Duration time.Duration
}

// HealthRegistry aggregates startup checks from storage adapters.
type HealthRegistry struct {
	checkers []HealthChecker
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		checkers: make([]HealthChecker, 0),
	}
}

// Register adds a health checker to the registry.
// Returns an error if a checker with the same name is already registered.
func (r *HealthRegistry) Register(checker HealthChecker) error {
	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every registered check in registration order.
func (r *HealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make([]CheckResult, 0, len(r.checkers)),
		Timestamp: time.Now(),
	}

	for _, c := range r.checkers {
		start := time.Now()
		err := c.Check(ctx)

		check := CheckResult{
			Name:     c.Name(),
			Status:   HealthStatusHealthy,
			Duration: time.Since(start),
		}

		if err != nil {
			check.Status = HealthStatusDegraded
			check.Message = err.Error()
			result.Status = HealthStatusDegraded
		}

		result.Checks = append(result.Checks, check)
	}

	return result
}
