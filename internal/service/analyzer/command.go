package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/detect"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/journal"
	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/repository/history"
	"github.com/whistle-ai/whistle/internal/ui"
)

// DefaultSince is the analysis window used when none is given.
const DefaultSince = "1 hour ago"

// Options controls the range analysis.
type Options struct {
	// ConfigPath specifies the path to the configuration file.
	ConfigPath string
	// Since is a journalctl time expression marking the start of the
	// analyzed range, e.g. "1 hour ago" or "2023-10-27 10:00:00".
	Since string
}

// Source reads all log entries recorded since a point in time.
type Source interface {
	Since(ctx context.Context, expr string) ([]string, error)
}

// Detector classifies a log entry.
type Detector interface {
	Analyze(ctx context.Context, entry string) anomaly.Analysis
}

// service holds the analyzer's collaborators for a single run.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type service struct {
	source   Source             // Reads the journal range.
	detector Detector           // Classifies entries.
	repo     history.Repository // Records detected anomalies.
	printer  *ui.Printer        // User-facing output.
}

// Run analyzes all journal entries recorded since the configured start time
// and reports the anomalous ones. It is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-analyze")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	detector, err := detect.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize detector: %w", err)
	}

	repo, err := history.Open(config.HistoryPathFor(opts.ConfigPath))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	defer func() {
		_ = repo.Close()
	}()

	s := &service{
		source: journal.NewReader(journal.Selection{
			Kernel: cfg.Log.KernelOnly,
			Units:  cfg.Log.ServiceUnits,
		}),
		detector: detector,
		repo:     repo,
		printer:  ui.NewPrinter(),
	}

	return s.run(ctx, opts.Since)
}

// run reads the range, classifies every entry and prints a summary.
func (s *service) run(ctx context.Context, since string) error {
	if since == "" {
		since = DefaultSince
	}

	s.printer.Printf("Analyzing logs since '%s'...\n", since)

	entries, err := s.source.Since(ctx, since)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if len(entries) == 0 {
		s.printer.Println("No log entries found for the specified time range and configuration.")
		return nil
	}

	s.printer.Printf("\nFound %d log entries. Analyzing...\n", len(entries))

	anomalies := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		analysis := s.detector.Analyze(ctx, entry)
		if !analysis.IsAnomaly {
			continue
		}

		anomalies++

		s.printer.Separator()
		s.printer.Alarmf("Anomaly detected: %s", analysis.Reason)
		s.printer.Println(entry)

		s.recordEvent(ctx, entry, analysis.Reason)
	}

	s.printer.Separator()

	if anomalies > 0 {
		s.printer.Alarmf("\nAnalysis complete. Found %d anomalies.", anomalies)
	} else {
		s.printer.Successf("\nAnalysis complete. No anomalies found.")
	}

	return nil
}

// recordEvent stores the anomaly in the history database. Failures are
// logged and do not interrupt the analysis.
func (s *service) recordEvent(ctx context.Context, entry, reason string) {
	if s.repo == nil {
		return
	}

	event := &anomaly.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    anomaly.SourceAnalyze,
		Entry:     entry,
		Reason:    reason,
	}

	if err := s.repo.Record(ctx, event); err != nil {
		logger.WarnKV(ctx, "Failed to record anomaly", "error", err)
	}
}
