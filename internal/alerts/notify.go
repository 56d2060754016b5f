package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

// Event is one threshold-exceeded notification. It is constructed when the
// gate opens, handed to the Notifier, then discarded.
type Event struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	FiredAt   time.Time `json:"fired_at"`
}

// Message renders the human-readable alert line used by all transports.
func (e Event) Message() string {
	return fmt.Sprintf("%s at %.1f%% crossed threshold %.1f%%", e.Metric, e.Value, e.Threshold)
}

// Notifier delivers a formatted alert to an external transport. Send may fail
// on network or auth errors; callers log and swallow the failure.
type Notifier interface {
	Send(ctx context.Context, ev Event) error
}

// LogNotifier writes alerts to the structured log and never fails. It is the
// sink for disabled and dry-run configurations.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, ev Event) error {
	slog.Warn("alert notification",
		"metric", ev.Metric,
		"value", ev.Value,
		"threshold", ev.Threshold,
		"fired_at", ev.FiredAt,
	)
	return nil
}

// NewNotifier builds the transport selected by the configuration.
func NewNotifier(cfg config.NotifierConfig) (Notifier, error) {
	switch cfg.Type {
	case "log":
		return LogNotifier{}, nil
	case "webhook":
		return NewWebhookNotifier(cfg.Webhook), nil
	case "email":
		return NewEmailNotifier(cfg.Email)
	default:
		return nil, fmt.Errorf("alerts: unsupported notifier type %q", cfg.Type)
	}
}
