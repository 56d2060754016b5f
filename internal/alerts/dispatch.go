package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

// Dispatcher delivers alert events to the notifier off the request path.
// Enqueue never blocks: when the queue is full the event is dropped and
// logged, so a hung transport cannot pile up unbounded background work.
type Dispatcher struct {
	notifier Notifier
	queue    chan Event
	timeout  time.Duration
}

// NewDispatcher returns a Dispatcher delivering through n.
func NewDispatcher(n Notifier, cfg config.DispatchConfig) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		queue:    make(chan Event, cfg.QueueSize),
		timeout:  cfg.SendTimeout,
	}
}

// Enqueue hands ev to the delivery worker. It reports whether the event was
// accepted; a full queue drops the event.
func (d *Dispatcher) Enqueue(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		return false
	}
}

// Run drains the queue, delivering each event with a bounded timeout.
// Delivery failures are logged and swallowed. Run blocks until ctx is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.send(ctx, ev)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, ev Event) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Send(sendCtx, ev); err != nil {
		slog.Error("alerts: notification delivery failed",
			"metric", ev.Metric,
			"value", ev.Value,
			"err", err,
		)
		return
	}
	slog.Debug("alerts: notification delivered", "metric", ev.Metric)
}
