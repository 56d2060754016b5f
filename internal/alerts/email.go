package alerts

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/hostboard/hostboard/internal/config"
)

// EmailNotifier delivers alerts by email through the Resend API.
type EmailNotifier struct {
	cfg    config.EmailConfig
	client *resend.Client
}

// NewEmailNotifier builds an EmailNotifier. The API key is resolved from the
// environment once at startup; a missing key is a configuration error.
func NewEmailNotifier(cfg config.EmailConfig) (*EmailNotifier, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("alerts: email api key env %q is empty", cfg.APIKeyEnv)
	}
	return &EmailNotifier{
		cfg:    cfg,
		client: resend.NewClient(key),
	}, nil
}

func (n *EmailNotifier) Send(ctx context.Context, ev Event) error {
	params := &resend.SendEmailRequest{
		From:    n.cfg.From,
		To:      n.cfg.To,
		Subject: fmt.Sprintf("hostboard alert: %s at %.1f%%", ev.Metric, ev.Value),
		Text: fmt.Sprintf("%s\n\nFired at: %s\n",
			ev.Message(), ev.FiredAt.UTC().Format("2006-01-02 15:04:05 MST")),
	}
	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("alerts: email send: %w", err)
	}
	return nil
}
