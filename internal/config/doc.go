// Package config loads the hostboard configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort    : port for the REST API and WebSocket hub (default 8080)
//   - Server.History.TTL : how long recorded samples stay in /api/history (default 15m)
//   - Provider.Type      : "local" (gopsutil) or "nodeexporter" (remote scrape)
//   - Alerts.Enabled     : master switch for alert evaluation (default true)
//   - Alerts.Rules       : per-metric threshold (percent) and cooldown
//   - Alerts.Notifier    : "log", "webhook", or "email" transport
//   - Alerts.Dispatch    : delivery queue depth and per-send timeout
//
// Secrets (webhook URLs, API keys) are never stored in the file; the config
// names an environment variable and the value is resolved at use time.
//
// Load(path) applies defaults before unmarshalling, then validates. A
// threshold outside [0, 100], a negative cooldown, or an unknown enum value
// is a fatal error; the process refuses to start.
package config
