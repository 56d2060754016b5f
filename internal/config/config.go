package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort    = 8080
	DefaultHistoryTTL  = 15 * time.Minute
	DefaultQueueSize   = 64
	DefaultSendTimeout = 10 * time.Second
)

// Config is the top-level configuration for hostboard.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// History controls in-memory retention of recent stat samples.
	History HistoryConfig `yaml:"history"`
}

// HistoryConfig controls the in-memory sample history.
type HistoryConfig struct {
	// TTL is how long a recorded sample remains visible in /api/history
	// before it is evicted. Default: 15m.
	TTL time.Duration `yaml:"ttl"`
}

// ProviderConfig selects the metrics provider backend.
type ProviderConfig struct {
	// Type is one of: local | nodeexporter.
	// "local" reads this host's counters directly; "nodeexporter" scrapes a
	// remote node_exporter /metrics endpoint.
	Type string `yaml:"type"`

	// Endpoint is the full URL of the node_exporter metrics endpoint.
	// Required when Type == "nodeexporter", ignored otherwise.
	Endpoint string `yaml:"endpoint"`
}

// AlertsConfig holds the alerting rules, notifier selection, and dispatch tuning.
type AlertsConfig struct {
	// Enabled toggles alert evaluation. When false, sampling still serves the
	// API but no rule is ever evaluated.
	Enabled bool `yaml:"enabled"`

	Rules    []AlertRule    `yaml:"rules"`
	Notifier NotifierConfig `yaml:"notifier"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Metric is the monitored metric id: cpu | memory | disk.
	Metric string `yaml:"metric"`

	// Threshold is the percentage at or above which the rule fires. Range [0, 100].
	Threshold float64 `yaml:"threshold"`

	// Cooldown suppresses re-fires for this duration after the rule fires.
	// Zero means every exceeding sample fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// NotifierConfig selects the alert delivery transport.
type NotifierConfig struct {
	// Type is one of: log | webhook | email.
	Type string `yaml:"type"`

	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`
}

// WebhookConfig defines the webhook delivery target.
type WebhookConfig struct {
	// Format is one of: slack | teams | http.
	Format string `yaml:"format"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// EmailConfig defines the email delivery settings.
type EmailConfig struct {
	From string   `yaml:"from"`
	To   []string `yaml:"to"`

	// APIKeyEnv is the name of the environment variable that holds the
	// Resend API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey returns the email provider API key resolved from the environment.
func (e EmailConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// DispatchConfig tunes the background notification dispatcher.
type DispatchConfig struct {
	// QueueSize is the maximum number of alert events waiting for delivery.
	// Events beyond this are dropped (and logged). Default: 64.
	QueueSize int `yaml:"queue_size"`

	// SendTimeout bounds a single delivery attempt so a hung transport cannot
	// leak background work. Default: 10s.
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			History: HistoryConfig{
				TTL: DefaultHistoryTTL,
			},
		},
		Provider: ProviderConfig{
			Type: "local",
		},
		Alerts: AlertsConfig{
			Enabled: true,
			Notifier: NotifierConfig{
				Type: "log",
			},
			Dispatch: DispatchConfig{
				QueueSize:   DefaultQueueSize,
				SendTimeout: DefaultSendTimeout,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
// Any violation is fatal: the process refuses to start rather than run with
// undefined alerting behavior.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.History.TTL < 0 {
		return fmt.Errorf("server.history.ttl must not be negative")
	}

	switch cfg.Provider.Type {
	case "local":
	case "nodeexporter":
		if cfg.Provider.Endpoint == "" {
			return fmt.Errorf("provider.endpoint is required when provider.type is nodeexporter")
		}
	default:
		return fmt.Errorf("provider.type %q unknown: want local|nodeexporter", cfg.Provider.Type)
	}

	seen := make(map[string]bool, len(cfg.Alerts.Rules))
	for i, r := range cfg.Alerts.Rules {
		switch r.Metric {
		case "cpu", "memory", "disk":
		default:
			return fmt.Errorf("alerts.rules[%d].metric %q unknown: want cpu|memory|disk", i, r.Metric)
		}
		if seen[r.Metric] {
			return fmt.Errorf("alerts.rules[%d]: duplicate rule for metric %q", i, r.Metric)
		}
		seen[r.Metric] = true

		if r.Threshold < 0 || r.Threshold > 100 {
			return fmt.Errorf("alerts.rules[%d].threshold %.2f is out of range [0, 100]", i, r.Threshold)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("alerts.rules[%d].cooldown must not be negative", i)
		}
	}

	switch cfg.Alerts.Notifier.Type {
	case "log":
	case "webhook":
		switch cfg.Alerts.Notifier.Webhook.Format {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.notifier.webhook.format %q unknown: want slack|teams|http",
				cfg.Alerts.Notifier.Webhook.Format)
		}
		if cfg.Alerts.Notifier.Webhook.URLEnv == "" {
			return fmt.Errorf("alerts.notifier.webhook.url_env is required for the webhook notifier")
		}
	case "email":
		if cfg.Alerts.Notifier.Email.From == "" {
			return fmt.Errorf("alerts.notifier.email.from is required for the email notifier")
		}
		if len(cfg.Alerts.Notifier.Email.To) == 0 {
			return fmt.Errorf("alerts.notifier.email.to must list at least one recipient")
		}
		if cfg.Alerts.Notifier.Email.APIKeyEnv == "" {
			return fmt.Errorf("alerts.notifier.email.api_key_env is required for the email notifier")
		}
	default:
		return fmt.Errorf("alerts.notifier.type %q unknown: want log|webhook|email", cfg.Alerts.Notifier.Type)
	}

	if cfg.Alerts.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("alerts.dispatch.queue_size must be positive")
	}
	if cfg.Alerts.Dispatch.SendTimeout <= 0 {
		return fmt.Errorf("alerts.dispatch.send_timeout must be positive")
	}

	return nil
}
