package detect

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/whistle-ai/whistle/internal/config"
)

// stubLLM is a canned chat-completion client.
type stubLLM struct {
	content string
	err     error
	calls   int
}

func (s *stubLLM) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++

	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

// llmConfig returns a configuration with a fully configured model endpoint.
func llmConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.BaseURL = config.StringPtr("https://llm.local/v1")
	cfg.LLM.APIKey = config.StringPtr("sk-test")
	cfg.LLM.Model = config.StringPtr("gpt-4o-mini")

	return cfg
}

// TestIgnoreRulesWinFirst ensures matching rules suppress entries before any other layer.
func TestIgnoreRulesWinFirst(t *testing.T) {
	t.Parallel()

	cfg := llmConfig()
	cfg.Ignore = []config.Rule{{Name: "dhcp-noise", Regex: `DHCPREQUEST`}}

	llm := &stubLLM{content: `{"is_anomaly": true, "reason": "should not be asked"}`}

	d, err := New(cfg, WithClient(llm))
	require.NoError(t, err)

	verdict := d.Analyze(context.Background(), "dhclient: DHCPREQUEST error on eth0")
	require.False(t, verdict.IsAnomaly)
	require.Equal(t, "Ignored by rule 'dhcp-noise'", verdict.Reason)
	require.Zero(t, llm.calls)
}

// TestKeywordHeuristic covers classification without a configured model.
func TestKeywordHeuristic(t *testing.T) {
	t.Parallel()

	d, err := New(config.Default())
	require.NoError(t, err)

	ctx := context.Background()

	verdict := d.Analyze(ctx, "systemd[1]: nginx.service: Failed with result 'exit-code'")
	require.True(t, verdict.IsAnomaly)
	require.Contains(t, verdict.Reason, "keyword analysis")

	verdict = d.Analyze(ctx, "kernel: EXT4-fs ERROR (device sda1): bad block bitmap")
	require.True(t, verdict.IsAnomaly)

	verdict = d.Analyze(ctx, "systemd[1]: Started Daily apt upgrade and clean activities.")
	require.False(t, verdict.IsAnomaly)
}

// TestModelVerdictIsUsed wires a stub model and checks its JSON verdict flows through.
func TestModelVerdictIsUsed(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{content: `{"is_anomaly": true, "reason": "kernel reported an OOM kill"}`}

	d, err := New(llmConfig(), WithClient(llm))
	require.NoError(t, err)

	verdict := d.Analyze(context.Background(), "kernel: Out of memory: Killed process 4242 (stress)")
	require.True(t, verdict.IsAnomaly)
	require.Equal(t, "kernel reported an OOM kill", verdict.Reason)
	require.Equal(t, 1, llm.calls)
}

// TestModelFailureFallsBack degrades to keywords when the model call errors
// or answers with something that is not the expected JSON.
func TestModelFailureFallsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	d, err := New(llmConfig(), WithClient(&stubLLM{err: errors.New("connection refused")}))
	require.NoError(t, err)

	verdict := d.Analyze(ctx, "disk error on /dev/sda")
	require.True(t, verdict.IsAnomaly)
	require.Contains(t, verdict.Reason, "keyword analysis")

	d, err = New(llmConfig(), WithClient(&stubLLM{content: "certainly! here is my analysis..."}))
	require.NoError(t, err)

	verdict = d.Analyze(ctx, "all services nominal")
	require.False(t, verdict.IsAnomaly)
	require.Contains(t, verdict.Reason, "keyword analysis")
}

// TestNewRejectsBrokenRules surfaces regex compilation failures at construction.
func TestNewRejectsBrokenRules(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Ignore = []config.Rule{{Name: "broken", Regex: "("}}

	_, err := New(cfg)
	require.Error(t, err)
}
