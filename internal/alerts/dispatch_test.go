package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

// blockingNotifier holds every Send until its context expires, counting calls.
type blockingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (b *blockingNotifier) Send(ctx context.Context, _ Event) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingNotifier) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// deadlineNotifier records whether each Send context carried a deadline.
type deadlineNotifier struct {
	mu        sync.Mutex
	deadlines []bool
}

func (d *deadlineNotifier) Send(ctx context.Context, _ Event) error {
	_, ok := ctx.Deadline()
	d.mu.Lock()
	d.deadlines = append(d.deadlines, ok)
	d.mu.Unlock()
	return nil
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	// No worker running: the queue fills and stays full.
	d := NewDispatcher(&fakeNotifier{}, config.DispatchConfig{QueueSize: 2, SendTimeout: time.Second})

	ev := Event{Metric: MetricCPU}
	if !d.Enqueue(ev) || !d.Enqueue(ev) {
		t.Fatal("enqueue within capacity: got false, want true")
	}
	if d.Enqueue(ev) {
		t.Fatal("enqueue beyond capacity: got true, want dropped")
	}
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	fn := &fakeNotifier{}
	d := NewDispatcher(fn, config.DispatchConfig{QueueSize: 8, SendTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 3; i++ {
		if !d.Enqueue(Event{Metric: MetricCPU, Value: float64(i)}) {
			t.Fatalf("enqueue %d: dropped", i)
		}
	}
	waitFor(t, func() bool { return len(fn.delivered()) == 3 })
}

func TestDispatcher_SendCarriesTimeout(t *testing.T) {
	dn := &deadlineNotifier{}
	d := NewDispatcher(dn, config.DispatchConfig{QueueSize: 1, SendTimeout: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Event{Metric: MetricCPU})
	waitFor(t, func() bool {
		dn.mu.Lock()
		defer dn.mu.Unlock()
		return len(dn.deadlines) == 1
	})

	dn.mu.Lock()
	defer dn.mu.Unlock()
	if !dn.deadlines[0] {
		t.Error("delivery context carried no deadline")
	}
}

// A hung transport must not wedge the worker: the per-send timeout expires and
// the next event is still attempted.
func TestDispatcher_HungTransportTimesOut(t *testing.T) {
	bn := &blockingNotifier{}
	d := NewDispatcher(bn, config.DispatchConfig{QueueSize: 4, SendTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Event{Metric: MetricCPU})
	d.Enqueue(Event{Metric: MetricMemory})

	waitFor(t, func() bool { return bn.callCount() == 2 })
}
