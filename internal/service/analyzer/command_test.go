package analyzer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/ui"
)

type fakeSource struct {
	entries []string
	err     error

	gotSince string
}

func (f *fakeSource) Since(_ context.Context, expr string) ([]string, error) {
	f.gotSince = expr
	return f.entries, f.err
}

type fakeDetector struct {
	verdicts map[string]anomaly.Analysis
}

func (f *fakeDetector) Analyze(_ context.Context, entry string) anomaly.Analysis {
	if verdict, ok := f.verdicts[entry]; ok {
		return verdict
	}

	return anomaly.Analysis{IsAnomaly: false, Reason: "looks fine"}
}

type fakeRepository struct {
	events []*anomaly.Event
}

func (f *fakeRepository) Record(_ context.Context, event *anomaly.Event) error {
	f.events = append(f.events, event.Clone())
	return nil
}

func (f *fakeRepository) Recent(_ context.Context, _ int) ([]*anomaly.Event, error) {
	return f.events, nil
}

func (f *fakeRepository) Close() error {
	return nil
}

func TestRunReportsAnomaliesAndSummary(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	repo := &fakeRepository{}

	s := &service{
		source: &fakeSource{
			entries: []string{
				"oom-killer: killed process 4242",
				"systemd[1]: Started Daily Cleanup.",
			},
		},
		detector: &fakeDetector{
			verdicts: map[string]anomaly.Analysis{
				"oom-killer: killed process 4242": {
					IsAnomaly: true,
					Reason:    "out of memory kill",
				},
			},
		},
		repo:    repo,
		printer: ui.NewPrinterTo(&output),
	}

	require.NoError(t, s.run(context.Background(), "2 hours ago"))

	printed := output.String()
	require.Contains(t, printed, "Analyzing logs since '2 hours ago'...")
	require.Contains(t, printed, "Found 2 log entries. Analyzing...")
	require.Contains(t, printed, "Anomaly detected: out of memory kill")
	require.Contains(t, printed, "oom-killer: killed process 4242")
	require.Contains(t, printed, "Analysis complete. Found 1 anomalies.")

	require.Len(t, repo.events, 1)
	require.Equal(t, anomaly.SourceAnalyze, repo.events[0].Source)
}

func TestRunDefaultsSinceExpression(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}

	s := &service{
		source:   source,
		detector: &fakeDetector{},
		repo:     &fakeRepository{},
		printer:  ui.NewPrinterTo(&bytes.Buffer{}),
	}

	require.NoError(t, s.run(context.Background(), ""))
	require.Equal(t, DefaultSince, source.gotSince)
}

func TestRunEmptyRange(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	s := &service{
		source:   &fakeSource{},
		detector: &fakeDetector{},
		repo:     &fakeRepository{},
		printer:  ui.NewPrinterTo(&output),
	}

	require.NoError(t, s.run(context.Background(), "1 hour ago"))
	require.Contains(t, output.String(), "No log entries found for the specified time range and configuration.")
	require.NotContains(t, output.String(), "Analysis complete.")
}

func TestRunCleanRange(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	s := &service{
		source: &fakeSource{
			entries: []string{"systemd[1]: Started Daily Cleanup."},
		},
		detector: &fakeDetector{},
		repo:     &fakeRepository{},
		printer:  ui.NewPrinterTo(&output),
	}

	require.NoError(t, s.run(context.Background(), "1 hour ago"))
	require.Contains(t, output.String(), "Analysis complete. No anomalies found.")
}

func TestRunSourceError(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("journalctl missing")

	s := &service{
		source:   &fakeSource{err: sourceErr},
		detector: &fakeDetector{},
		repo:     &fakeRepository{},
		printer:  ui.NewPrinterTo(&bytes.Buffer{}),
	}

	require.ErrorIs(t, s.run(context.Background(), "1 hour ago"), sourceErr)
}
