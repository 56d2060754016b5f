package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier posts alerts as JSON to a Slack, Teams, or generic HTTP
// target. The target URL is resolved from the environment at send time.
type WebhookNotifier struct {
	cfg    config.WebhookConfig
	client *http.Client
}

// NewWebhookNotifier returns a WebhookNotifier for the given target.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, ev Event) error {
	url := n.cfg.URL()
	if url == "" {
		return fmt.Errorf("alerts: webhook url env %q is empty", n.cfg.URLEnv)
	}

	var payload interface{}
	switch n.cfg.Format {
	case "slack":
		payload = map[string]string{
			"text": fmt.Sprintf("*[ALERT]* %s", ev.Message()),
		}
	case "teams":
		payload = map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": "FF4F6A",
			"summary":    ev.Metric,
			"title":      fmt.Sprintf("hostboard alert: %s", ev.Metric),
			"text":       ev.Message(),
		}
	default:
		payload = map[string]interface{}{"alert": ev}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("alerts: encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("alerts: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("alerts: webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("alerts: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
