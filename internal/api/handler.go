package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hostboard/hostboard/internal/alerts"
	"github.com/hostboard/hostboard/internal/store"
	"github.com/hostboard/hostboard/internal/sysinfo"
)

// serviceName identifies this service in /api/health payloads.
const serviceName = "hostboard"

// topProcesses caps the /api/processes listing.
const topProcesses = 15

// Handler is the HTTP handler for all /api/* endpoints. It samples the
// metrics provider on demand and runs one alert evaluation pass per
// system-stats request.
type Handler struct {
	sampler  *alerts.Sampler
	provider sysinfo.Provider
	store    *store.Store
	engine   *alerts.Engine
	mux      *http.ServeMux
}

// New creates a Handler wired to the given provider, history store, and alert
// engine, and registers all routes.
func New(provider sysinfo.Provider, st *store.Store, engine *alerts.Engine) http.Handler {
	h := &Handler{
		sampler:  alerts.NewSampler(provider),
		provider: provider,
		store:    st,
		engine:   engine,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/system-stats", h.systemStats)
	h.mux.HandleFunc("/api/processes", h.processes)
	h.mux.HandleFunc("/api/disk", h.disk)
	h.mux.HandleFunc("/api/network", h.network)
	h.mux.HandleFunc("/api/health", h.health)
	h.mux.HandleFunc("/api/alerts", h.alerts)
	h.mux.HandleFunc("/api/history", h.history)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// systemStats returns GET /api/system-stats. One fresh sampling pass.
// As a side effect the sample is recorded and alert rules are evaluated;
// notification dispatch happens in the background, so provider latency is the
// only thing this handler waits on.
func (h *Handler) systemStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := h.sampler.Sample(r.Context())
	if err != nil {
		h.providerErr(w, "system-stats", err)
		return
	}

	h.store.Record(snap.Stats)
	h.engine.Evaluate(snap)

	jsonResp(w, http.StatusOK, BuildSystemStats(snap.Stats))
}

// processes returns GET /api/processes: the top processes by memory share.
func (h *Handler) processes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	procs, err := h.provider.Processes(r.Context())
	if err != nil {
		h.providerErr(w, "processes", err)
		return
	}

	sort.Slice(procs, func(i, j int) bool {
		return procs[i].MemoryPercent > procs[j].MemoryPercent
	})
	if len(procs) > topProcesses {
		procs = procs[:topProcesses]
	}

	out := make([]ProcessResponse, 0, len(procs))
	for _, p := range procs {
		out = append(out, ProcessResponse{
			PID:           p.PID,
			Name:          p.Name,
			Status:        p.Status,
			MemoryPercent: p.MemoryPercent,
			CPUPercent:    p.CPUPercent,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// disk returns GET /api/disk: root usage plus the partition table.
func (h *Handler) disk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := h.provider.DiskReport(r.Context())
	if err != nil {
		h.providerErr(w, "disk", err)
		return
	}

	resp := DiskResponse{
		Root:       toUsage(report.Root),
		Partitions: make([]PartitionResponse, 0, len(report.Partitions)),
	}
	for _, p := range report.Partitions {
		resp.Partitions = append(resp.Partitions, PartitionResponse{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
		})
	}
	jsonResp(w, http.StatusOK, resp)
}

// network returns GET /api/network: cumulative network I/O counters.
func (h *Handler) network(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.provider.Network(r.Context())
	if err != nil {
		h.providerErr(w, "network", err)
		return
	}
	jsonResp(w, http.StatusOK, NetworkResponse{
		BytesSent:   stats.BytesSent,
		BytesRecv:   stats.BytesRecv,
		PacketsSent: stats.PacketsSent,
		PacketsRecv: stats.PacketsRecv,
	})
}

// health returns GET /api/health: liveness for external monitors. It does
// not touch the provider, so it stays healthy even when sampling fails.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
	})
}

// alerts returns GET /api/alerts: recently fired alert events, newest first.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	events := h.engine.Recent()
	out := make([]AlertResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, AlertResponse{
			Metric:    ev.Metric,
			Value:     ev.Value,
			Threshold: ev.Threshold,
			FiredAt:   ev.FiredAt.UTC().Format(time.RFC3339),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// history returns GET /api/history: the retained window of recorded samples.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.Recent()
	resp := HistoryResponse{
		Samples:     make([]SystemStatsResponse, 0, len(entries)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		resp.Samples = append(resp.Samples, BuildSystemStats(e.Stats))
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

// providerErr maps a sampling failure to a 502: the provider is an upstream
// dependency and no partial data is fabricated in its place.
func (h *Handler) providerErr(w http.ResponseWriter, route string, err error) {
	slog.Warn("api: provider unavailable", "route", route, "err", err)
	if errors.Is(err, sysinfo.ErrUnavailable) {
		jsonErr(w, http.StatusBadGateway, "metrics provider unavailable")
		return
	}
	jsonErr(w, http.StatusInternalServerError, "internal error")
}

// BuildSystemStats maps a stats reading to its JSON representation.
// Exported for the WebSocket hub, which broadcasts the same shape.
func BuildSystemStats(st *sysinfo.SystemStats) SystemStatsResponse {
	return SystemStatsResponse{
		Timestamp:  st.Timestamp.UTC().Format(time.RFC3339),
		CPUPercent: st.CPUPercent,
		CPUCount:   st.CPUCount,
		Memory: MemoryResponse{
			Total:     st.Memory.Total,
			Available: st.Memory.Available,
			Used:      st.Memory.Used,
			Free:      st.Memory.Free,
			Percent:   st.Memory.Percent,
		},
		Disk:          toUsage(st.Disk),
		UptimeSeconds: st.UptimeSeconds,
	}
}

func toUsage(u sysinfo.UsageStats) UsageResponse {
	return UsageResponse{
		Total:   u.Total,
		Used:    u.Used,
		Free:    u.Free,
		Percent: u.Percent,
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
