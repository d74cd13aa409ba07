package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/whistle-ai/whistle/internal/alert"
	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/detect"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/journal"
	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/repository/history"
	"github.com/whistle-ai/whistle/internal/ui"
)

// Options controls the monitor's configuration sources.
type Options struct {
	// ConfigPath specifies the path to the configuration file.
	ConfigPath string
}

// Source streams log entries to a handler until the context is canceled.
type Source interface {
	Follow(ctx context.Context, handle func(entry string)) error
}

// Detector classifies a log entry.
type Detector interface {
	Analyze(ctx context.Context, entry string) anomaly.Analysis
}

// service holds the monitor's collaborators for a single run.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type service struct {
	source   Source             // Follows the journal.
	detector Detector           // Classifies entries.
	notifier alert.Notifier     // Sends alerts; nil when not configured.
	repo     history.Repository // Records detected anomalies.
	printer  *ui.Printer        // User-facing output.
}

// Run follows the configured journald streams and reports every entry the
// detector flags as an anomaly. It is the public entry point for the CLI
// and blocks until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-monitor")

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
		notifier: alert.NewFromConfig(cfg),
		repo:     repo,
		printer:  ui.NewPrinter(),
	}

	return s.run(ctx)
}

// run drives the follow loop until cancellation.
func (s *service) run(ctx context.Context) error {
	s.printer.Println("Starting log monitoring...")

	if s.notifier == nil {
		s.printer.Noticef("No alert method configured.")
	}

	err := s.source.Follow(ctx, func(entry string) {
		s.handleEntry(ctx, entry)
	})
	if errors.Is(err, context.Canceled) {
		logger.Info(ctx, "Context canceled, exiting")
		return nil
	}

	return err
}

// handleEntry classifies one entry and reports it when it is an anomaly.
func (s *service) handleEntry(ctx context.Context, entry string) {
	analysis := s.detector.Analyze(ctx, entry)
	if !analysis.IsAnomaly {
		return
	}

	s.printer.Separator()
	s.printer.Alarmf("Anomaly detected: %s", analysis.Reason)
	s.printer.Println(entry)

	s.sendAlert(ctx, entry, analysis.Reason)
	s.recordEvent(ctx, entry, analysis.Reason)
}

// sendAlert forwards the anomaly to Slack when alerting is configured.
func (s *service) sendAlert(ctx context.Context, entry, reason string) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Send(ctx, formatAlert(entry, reason)); err != nil {
		logger.ErrorKV(ctx, "Failed to send alert", "error", err)
		s.printer.Alarmf("Failed to send Slack alert: %v", err)

		return
	}

	s.printer.Successf("Slack alert sent successfully.")
}

// recordEvent stores the anomaly in the history database. Failures are
// logged and do not interrupt monitoring.
func (s *service) recordEvent(ctx context.Context, entry, reason string) {
	if s.repo == nil {
		return
	}

	event := &anomaly.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    anomaly.SourceMonitor,
		Entry:     entry,
		Reason:    reason,
	}

	if err := s.repo.Record(ctx, event); err != nil {
		logger.WarnKV(ctx, "Failed to record anomaly", "error", err)
	}
}

// formatAlert builds the Slack message for a detected anomaly.
func formatAlert(entry, reason string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown host"
	}

	return fmt.Sprintf("Anomaly detected on %s:\n%s\nReason: %s", hostname, entry, reason)
}
