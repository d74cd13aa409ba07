package detect

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/logger"
)

//go:embed prompts/classify_system.md
var systemPrompt string

//go:embed prompts/classify_user.md
var userPromptTemplate string

// llmTimeout bounds a single classification call.
const llmTimeout = 30 * time.Second

var (
	// errEmptyCompletion is returned when the model answers with no choices.
	errEmptyCompletion = errors.New("empty completion from model")
	// errMalformedVerdict is returned when the model response is not the expected JSON.
	errMalformedVerdict = errors.New("malformed verdict from model")
)

// Client is the slice of the chat-completion API the detector needs.
// *openai.Client satisfies it; tests substitute a stub.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Option configures detector construction.
type Option func(*Detector)

// WithClient overrides the chat-completion client, mainly for tests.
func WithClient(client Client) Option {
	return func(d *Detector) {
		d.llm = client
	}
}

// compiledRule pairs an ignore rule name with its compiled pattern.
type compiledRule struct {
	name    string
	pattern *regexp.Regexp
}

// Detector classifies journal entries. Ignore rules run first; entries that
// survive go to the configured model, or to a keyword heuristic when no model
// is configured or the model answer cannot be used.
type Detector struct {
	// rules are the compiled ignore rules, in configuration order.
	rules []compiledRule
	// llm is nil when classification runs on the keyword heuristic alone.
	llm Client
	// model is the identifier passed with every completion request.
	model string
	// userTemplate renders the per-entry prompt.
	userTemplate *template.Template
}

// New builds a Detector from the configuration.
func New(cfg *config.Config, opts ...Option) (*Detector, error) {
	rules := make([]compiledRule, 0, len(cfg.Ignore))

	for _, rule := range cfg.Ignore {
		pattern, err := regexp.Compile(rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("compile ignore rule %q: %w", rule.Name, err)
		}

		rules = append(rules, compiledRule{
			name:    rule.Name,
			pattern: pattern,
		})
	}

	userTemplate, err := template.New("user").Parse(userPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt template: %w", err)
	}

	d := &Detector{
		rules:        rules,
		userTemplate: userTemplate,
	}

	if cfg.LLM.Configured() {
		clientConfig := openai.DefaultConfig(*cfg.LLM.APIKey)
		clientConfig.BaseURL = *cfg.LLM.BaseURL

		d.llm = openai.NewClientWithConfig(clientConfig)
		d.model = *cfg.LLM.Model
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Analyze classifies a single journal entry. It never fails: a model error
// degrades to the keyword heuristic so a log stream keeps flowing.
func (d *Detector) Analyze(ctx context.Context, entry string) anomaly.Analysis {
	for _, rule := range d.rules {
		if rule.pattern.MatchString(entry) {
			return anomaly.Analysis{
				IsAnomaly: false,
				Reason:    fmt.Sprintf("Ignored by rule '%s'", rule.name),
			}
		}
	}

	if d.llm != nil {
		verdict, err := d.classify(ctx, entry)
		if err == nil {
			return verdict
		}

		logger.WarnKV(ctx, "Model classification failed, falling back to keywords", "error", err)
	}

	return keywordAnalysis(entry)
}

// classify asks the configured model for a verdict on one entry.
func (d *Detector) classify(ctx context.Context, entry string) (anomaly.Analysis, error) {
	var buf bytes.Buffer
	if err := d.userTemplate.Execute(&buf, map[string]string{"Entry": entry}); err != nil {
		return anomaly.Analysis{}, fmt.Errorf("render user prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	resp, err := d.llm.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buf.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return anomaly.Analysis{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return anomaly.Analysis{}, errEmptyCompletion
	}

	var verdict struct {
		IsAnomaly bool   `json:"is_anomaly"`
		Reason    string `json:"reason"`
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return anomaly.Analysis{}, fmt.Errorf("%w: %s", errMalformedVerdict, content)
	}

	return anomaly.Analysis{
		IsAnomaly: verdict.IsAnomaly,
		Reason:    verdict.Reason,
	}, nil
}

// keywordAnalysis is the heuristic used without a model:
// entries mentioning "error" or "failed" are anomalies.
func keywordAnalysis(entry string) anomaly.Analysis {
	lowered := strings.ToLower(entry)
	if strings.Contains(lowered, "error") || strings.Contains(lowered, "failed") {
		return anomaly.Analysis{
			IsAnomaly: true,
			Reason:    `Log entry contains "error" or "failed" (keyword analysis).`,
		}
	}

	return anomaly.Analysis{
		IsAnomaly: false,
		Reason:    "Not an anomaly (keyword analysis).",
	}
}
