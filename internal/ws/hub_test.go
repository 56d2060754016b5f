package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hostboard/hostboard/internal/alerts"
	"github.com/hostboard/hostboard/internal/config"
	"github.com/hostboard/hostboard/internal/store"
	"github.com/hostboard/hostboard/internal/sysinfo"
	wsHub "github.com/hostboard/hostboard/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

// fakeProvider serves a mutable canned reading.
type fakeProvider struct {
	mu    sync.Mutex
	stats sysinfo.SystemStats
	fail  bool
}

func (f *fakeProvider) set(cpu float64) {
	f.mu.Lock()
	f.stats.CPUPercent = cpu
	f.mu.Unlock()
}

func (f *fakeProvider) SystemStats(context.Context) (*sysinfo.SystemStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, sysinfo.ErrUnavailable
	}
	st := f.stats
	return &st, nil
}

func (f *fakeProvider) Processes(context.Context) ([]sysinfo.ProcessInfo, error) {
	return nil, nil
}

func (f *fakeProvider) DiskReport(context.Context) (*sysinfo.DiskReport, error) {
	return &sysinfo.DiskReport{}, nil
}

func (f *fakeProvider) Network(context.Context) (*sysinfo.NetworkStats, error) {
	return &sysinfo.NetworkStats{}, nil
}

func newProvider(cpu float64) *fakeProvider {
	return &fakeProvider{stats: sysinfo.SystemStats{
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CPUPercent: cpu,
		CPUCount:   4,
	}}
}

func newEngine(rules ...config.AlertRule) *alerts.Engine {
	return alerts.NewEngine(config.AlertsConfig{
		Enabled: true,
		Rules:   rules,
		Dispatch: config.DispatchConfig{
			QueueSize:   config.DefaultQueueSize,
			SendTimeout: config.DefaultSendTimeout,
		},
	}, alerts.LogNotifier{})
}

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
func startHub(t *testing.T, p sysinfo.Provider, st *store.Store, engine *alerts.Engine) (wsURL string, hub *wsHub.Hub, cancel func()) {
	t.Helper()

	hub = wsHub.New(p, st, engine, testInterval)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, cancelFn
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

func decode(t *testing.T, msg []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesLatestSample(t *testing.T) {
	st := store.New(time.Minute)
	st.Record(&sysinfo.SystemStats{
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CPUPercent: 33,
	})
	wsURL, _, _ := startHub(t, newProvider(33), st, newEngine())

	conn := dial(t, wsURL)
	m := decode(t, readMessage(t, conn))

	if m["event"] != "stats" {
		t.Errorf("event: got %v, want stats", m["event"])
	}
	data, ok := m["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data: missing or wrong type")
	}
	if data["cpu_percent"] != 33.0 {
		t.Errorf("cpu_percent: got %v, want 33", data["cpu_percent"])
	}
}

func TestHub_TickBroadcastsFreshSample(t *testing.T) {
	p := newProvider(55)
	wsURL, _, _ := startHub(t, p, store.New(time.Minute), newEngine())

	conn := dial(t, wsURL)
	// Empty store on connect, so the first message comes from a tick.
	m := decode(t, readMessage(t, conn))
	data := m["data"].(map[string]interface{})
	if data["cpu_percent"] != 55.0 {
		t.Errorf("cpu_percent: got %v, want 55", data["cpu_percent"])
	}
}

func TestHub_TickFeedsStoreAndEngine(t *testing.T) {
	p := newProvider(95)
	st := store.New(time.Minute)
	engine := newEngine(config.AlertRule{Metric: "cpu", Threshold: 90, Cooldown: time.Minute})
	wsURL, _, _ := startHub(t, p, st, engine)

	conn := dial(t, wsURL)
	readMessage(t, conn) // wait for at least one tick

	if st.Count() == 0 {
		t.Error("store: no samples recorded after tick")
	}
	recent := engine.Recent()
	if len(recent) != 1 {
		t.Fatalf("alerts: got %d, want 1", len(recent))
	}
	if recent[0].Metric != "cpu" || recent[0].Value != 95 {
		t.Errorf("event: got %+v", recent[0])
	}
}

func TestHub_ProviderFailureSkipsTick(t *testing.T) {
	p := newProvider(10)
	p.fail = true
	st := store.New(time.Minute)
	wsURL, hub, _ := startHub(t, p, st, newEngine())

	conn := dial(t, wsURL)
	time.Sleep(5 * testInterval)

	if st.Count() != 0 {
		t.Errorf("store: got %d samples, want 0 while provider is down", st.Count())
	}
	if n := hub.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1 (client stays connected)", n)
	}
	_ = conn
}

func TestHub_CountClients(t *testing.T) {
	wsURL, hub, _ := startHub(t, newProvider(10), store.New(time.Minute), newEngine())

	for i := 0; i < 3; i++ {
		conn := dial(t, wsURL)
		readMessage(t, conn) // consume first broadcast
	}

	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}

func TestHub_CountDecreasesOnDisconnect(t *testing.T) {
	wsURL, hub, _ := startHub(t, newProvider(10), store.New(time.Minute), newEngine())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	if n := hub.Count(); n != 1 {
		t.Errorf("Count before disconnect: got %d, want 1", n)
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond) // let readPump detect the close

	if n := hub.Count(); n != 0 {
		t.Errorf("Count after disconnect: got %d, want 0", n)
	}
}

func TestHub_AllClientsReceiveBroadcast(t *testing.T) {
	wsURL, _, _ := startHub(t, newProvider(70), store.New(time.Minute), newEngine())

	conns := make([]*websocket.Conn, 3)
	for i := 0; i < 3; i++ {
		conns[i] = dial(t, wsURL)
	}

	for i, conn := range conns {
		m := decode(t, readMessage(t, conn))
		if m["event"] != "stats" {
			t.Errorf("client %d: event: got %v, want stats", i, m["event"])
		}
	}
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, cancel := startHub(t, newProvider(10), store.New(time.Minute), newEngine())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	cancel() // signal shutdown

	time.Sleep(50 * time.Millisecond)
	if n := hub.Count(); n != 0 {
		t.Errorf("Count after cancel: got %d, want 0", n)
	}
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := wsHub.New(newProvider(10), store.New(time.Minute), newEngine(), testInterval)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
