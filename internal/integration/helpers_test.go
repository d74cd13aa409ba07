package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whistle-ai/whistle/internal/config"
)

// fakeJournalctl puts a journalctl stand-in on PATH that prints the given
// lines and exits cleanly, so the follow and since readers terminate on
// their own instead of blocking the test.
func fakeJournalctl(t *testing.T, lines ...string) {
	t.Helper()

	dir := t.TempDir()

	var script strings.Builder

	script.WriteString("#!/bin/sh\n")

	for _, line := range lines {
		script.WriteString("echo '")
		script.WriteString(strings.ReplaceAll(line, "'", `'\''`))
		script.WriteString("'\n")
	}

	path := filepath.Join(dir, "journalctl")
	require.NoError(t, os.WriteFile(path, []byte(script.String()), 0o755))

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// llmVerdict is the classification a test chat-completions server should
// return for entries containing the Match substring.
type llmVerdict struct {
	Match     string
	IsAnomaly bool
	Reason    string
}

// newLLMServer serves an OpenAI-compatible chat completions endpoint that
// classifies entries by substring matching against the supplied verdicts.
// Entries matching none of them are reported as normal.
func newLLMServer(t *testing.T, verdicts ...llmVerdict) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}

		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		require.NotEmpty(t, request.Messages)

		entry := request.Messages[len(request.Messages)-1].Content

		verdict := map[string]any{"is_anomaly": false, "reason": "Nothing unusual."}

		for _, v := range verdicts {
			if strings.Contains(entry, v.Match) {
				verdict = map[string]any{"is_anomaly": v.IsAnomaly, "reason": v.Reason}

				break
			}
		}

		content, err := json.Marshal(verdict)
		require.NoError(t, err)

		response := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": string(content),
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// newSlackServer serves a Slack-compatible incoming webhook that records the
// text of every posted message.
func newSlackServer(t *testing.T, messages *[]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload struct {
			Text string `json:"text"`
		}

		require.NoError(t, json.Unmarshal(body, &payload))

		*messages = append(*messages, payload.Text)

		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(server.Close)

	return server
}

// writeConfig saves cfg into its own temporary directory and returns the
// config path. The anomaly history database lands next to it.
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	return path
}
