package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/repository/history"
	"github.com/whistle-ai/whistle/internal/service/analyzer"
)

// TestAnalyzer_Run_ScansRangeWithRulesAndKeywords feeds a journal range
// through a fake journalctl with no model configured and verifies ignore
// rules suppress matches while the keyword heuristic records the rest.
func TestAnalyzer_Run_ScansRangeWithRulesAndKeywords(t *testing.T) {
	// One entry matches an ignore rule, one trips the keyword heuristic,
	// one is clean.
	ignored := "usb 1-1: device descriptor read/64, error -71"
	flagged := "kernel: I/O error on device sda1, logical block 2048"
	clean := "systemd[1]: Started Daily Cleanup of Temporary Directories."
	fakeJournalctl(t, ignored, flagged, clean)

	// No model in the configuration, so classification falls back to
	// keywords after the ignore rules.
	cfg := config.Default()
	require.NoError(t, cfg.AddIgnoreRule(config.Rule{
		Name:    "usb-flap",
		Regex:   "error -71",
		Comment: "known flaky hub",
	}))

	cfgPath := writeConfig(t, cfg)

	analyzerOptions := &analyzer.Options{
		ConfigPath: cfgPath,
		Since:      "2 hours ago",
	}

	require.NoError(t, analyzer.Run(context.Background(), analyzerOptions))

	// Only the keyword hit lands in history, attributed to the analyzer.
	repo, err := history.Open(config.HistoryPathFor(cfgPath))
	require.NoError(t, err)

	defer func() {
		require.NoError(t, repo.Close())
	}()

	events, err := repo.Recent(context.Background(), history.DefaultLimit)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, anomaly.SourceAnalyze, events[0].Source)
	require.Equal(t, flagged, events[0].Entry)
	require.Equal(t, `Log entry contains "error" or "failed" (keyword analysis).`, events[0].Reason)
}
