// Package interactionlog appends one timestamped line per user action to a
// rotating text file:
//
//	2024-03-01 14:05:09 - Sort action: Title
package interactionlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/platform/logging"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

// TimestampLayout is the time format that starts every line.
const TimestampLayout = "2006-01-02 15:04:05"

const resource = "interaction log"

// Config configures a FileRecorder.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Clock returns the time stamped on each line. Defaults to time.Now.
	Clock func() time.Time

	// Logger is an optional logger. If nil, a default logger is used.
	Logger *slog.Logger
}

// FileRecorder implements ports.InteractionRecorder on top of lumberjack.
type FileRecorder struct {
	mu     sync.Mutex
	out    io.WriteCloser
	path   string
	clock  func() time.Time
	logger *slog.Logger
}

var _ ports.InteractionRecorder = (*FileRecorder)(nil)

// New creates a recorder appending to cfg.Path. The file and its directory
// are created on the first write.
func New(cfg Config) *FileRecorder {
	return newRecorder(cfg, &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	})
}

func newRecorder(cfg Config, out io.WriteCloser) *FileRecorder {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FileRecorder{
		out:    out,
		path:   cfg.Path,
		clock:  clock,
		logger: logger.With(slog.String("component", "interactionlog.FileRecorder")),
	}
}

// Record appends the description of i. A write failure is returned as a
// domain.UnavailableError.
func (r *FileRecorder) Record(ctx context.Context, i ports.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line := FormatLine(r.clock(), i.Description())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.out, line); err != nil {
		return fmt.Errorf("recording interaction: %w: %w", domain.NewUnavailableError(resource, r.path), err)
	}

	r.logger.Log(ctx, logging.LevelTrace, "interaction recorded", slog.String("kind", string(i.Kind)))

	return nil
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.out.Close()
}

// FormatLine renders one log line, newline included.
func FormatLine(t time.Time, message string) string {
	return t.Format(TimestampLayout) + " - " + message + "\n"
}
