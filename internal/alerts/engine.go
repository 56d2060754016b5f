package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

// maxRecentEvents bounds the in-memory history served by /api/alerts.
const maxRecentEvents = 200

// Engine evaluates alert rules against metric snapshots and queues fired
// events for background delivery.
//
// Engine is safe for concurrent use: the cooldown state is guarded by a single
// mutex inside State, and Evaluate never blocks on the notifier.
type Engine struct {
	enabled    bool
	rules      []config.AlertRule
	gate       *Gate
	dispatcher *Dispatcher
	now        func() time.Time // injectable for deterministic tests

	mu     sync.Mutex
	recent []Event
}

// NewEngine creates an Engine from the alerts configuration, delivering
// through n. An Engine with no rules is valid; Evaluate becomes a no-op.
func NewEngine(cfg config.AlertsConfig, n Notifier) *Engine {
	return &Engine{
		enabled:    cfg.Enabled,
		rules:      cfg.Rules,
		gate:       NewGate(NewState()),
		dispatcher: NewDispatcher(n, cfg.Dispatch),
		now:        time.Now,
	}
}

// Run starts the background delivery worker. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.dispatcher.Run(ctx)
}

// Evaluate tests every configured rule whose metric is present in snap.
// Events that pass the gate are recorded and queued for delivery; the caller
// returns promptly regardless of notifier latency or failure.
func (e *Engine) Evaluate(snap *Snapshot) {
	if !e.enabled || len(e.rules) == 0 {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		value, ok := snap.Values[rule.Metric]
		if !ok {
			continue
		}
		if !e.gate.ShouldFire(rule.Metric, value, rule, now) {
			continue
		}

		ev := Event{
			Metric:    rule.Metric,
			Value:     value,
			Threshold: rule.Threshold,
			FiredAt:   now,
		}
		slog.Warn("alert fired",
			"metric", rule.Metric,
			"value", value,
			"threshold", rule.Threshold,
		)
		e.record(ev)

		if !e.dispatcher.Enqueue(ev) {
			slog.Warn("alerts: dispatch queue full, dropping notification",
				"metric", rule.Metric)
		}
	}
}

// Recent returns the most recently fired events, newest first.
func (e *Engine) Recent() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Event, len(e.recent))
	for i, ev := range e.recent {
		out[len(e.recent)-1-i] = ev
	}
	return out
}

func (e *Engine) record(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recent = append(e.recent, ev)
	if len(e.recent) > maxRecentEvents {
		e.recent = e.recent[len(e.recent)-maxRecentEvents:]
	}
}
