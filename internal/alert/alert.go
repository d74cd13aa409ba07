package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/whistle-ai/whistle/internal/config"
)

// defaultTimeout bounds a single webhook delivery.
const defaultTimeout = 10 * time.Second

// Notifier delivers alert messages to a configured destination.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// SlackNotifier posts messages to a Slack incoming webhook.
type SlackNotifier struct {
	// webhookURL is the incoming-webhook endpoint.
	webhookURL string
	// httpClient performs the delivery.
	httpClient *http.Client
}

// SlackOption configures a SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithHTTPClient overrides the HTTP client used for delivery.
func WithHTTPClient(client *http.Client) SlackOption {
	return func(n *SlackNotifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// NewSlackNotifier creates a notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Send posts the message as webhook text.
func (n *SlackNotifier) Send(ctx context.Context, message string) error {
	msg := &slack.WebhookMessage{Text: message}

	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		return fmt.Errorf("post Slack webhook: %w", err)
	}

	return nil
}

// NewFromConfig returns the notifier selected by the configuration,
// or nil when no alert method is configured.
func NewFromConfig(cfg *config.Config) Notifier {
	if url := cfg.Alert.SlackURL(); url != "" {
		return NewSlackNotifier(url)
	}

	return nil
}
