package sysinfo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const nodeScrapeTimeout = 10 * time.Second

// node_exporter metric names we read.
const (
	nodeCPUSeconds   = "node_cpu_seconds_total"
	nodeMemTotal     = "node_memory_MemTotal_bytes"
	nodeMemAvailable = "node_memory_MemAvailable_bytes"
	nodeMemFree      = "node_memory_MemFree_bytes"
	nodeFSSize       = "node_filesystem_size_bytes"
	nodeFSAvail      = "node_filesystem_avail_bytes"
	nodeBootTime     = "node_boot_time_seconds"
	nodeNetRecvBytes = "node_network_receive_bytes_total"
	nodeNetSentBytes = "node_network_transmit_bytes_total"
	nodeNetRecvPkts  = "node_network_receive_packets_total"
	nodeNetSentPkts  = "node_network_transmit_packets_total"
)

// nodeExporterProvider scrapes a remote node_exporter /metrics endpoint and
// derives the same figures the local provider reads from the OS.
//
// CPU usage is a rate over cumulative counters, so the provider keeps the
// previous scrape's idle/total seconds and computes the busy share of the
// delta. The first scrape after start establishes the baseline and reports 0.
type nodeExporterProvider struct {
	endpoint string
	client   *http.Client

	mu        sync.Mutex
	prevIdle  float64
	prevTotal float64
	baselined bool
}

// NewNodeExporterProvider returns a Provider that scrapes endpoint.
func NewNodeExporterProvider(endpoint string) Provider {
	return &nodeExporterProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: nodeScrapeTimeout},
	}
}

func (p *nodeExporterProvider) SystemStats(ctx context.Context) (*SystemStats, error) {
	mfs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	memTotal := sumFamily(mfs[nodeMemTotal])
	if memTotal <= 0 {
		return nil, fmt.Errorf("%w: scrape of %q is missing %s", ErrUnavailable, p.endpoint, nodeMemTotal)
	}
	memAvail := sumFamily(mfs[nodeMemAvailable])
	memUsed := memTotal - memAvail

	fsTotal := sumFamilyLabel(mfs[nodeFSSize], "mountpoint", rootPath)
	fsAvail := sumFamilyLabel(mfs[nodeFSAvail], "mountpoint", rootPath)
	fsUsed := fsTotal - fsAvail

	boot := sumFamily(mfs[nodeBootTime])
	var uptime float64
	if boot > 0 {
		uptime = now.Sub(time.Unix(int64(boot), 0)).Seconds()
	}

	cpuPct, cpuCount := p.cpuFromCounters(mfs[nodeCPUSeconds])

	stats := &SystemStats{
		Timestamp:  now,
		CPUPercent: cpuPct,
		CPUCount:   cpuCount,
		Memory: MemoryStats{
			Total:     uint64(memTotal),
			Available: uint64(memAvail),
			Used:      uint64(memUsed),
			Free:      uint64(sumFamily(mfs[nodeMemFree])),
			Percent:   memUsed / memTotal * 100,
		},
		Disk: UsageStats{
			Total: uint64(fsTotal),
			Used:  uint64(fsUsed),
			Free:  uint64(fsAvail),
		},
		UptimeSeconds: uptime,
	}
	if fsTotal > 0 {
		stats.Disk.Percent = fsUsed / fsTotal * 100
	}
	return stats, nil
}

// Processes is not supported: node_exporter exposes no per-process data.
func (p *nodeExporterProvider) Processes(ctx context.Context) ([]ProcessInfo, error) {
	return nil, fmt.Errorf("%w: node_exporter exposes no per-process data", ErrUnavailable)
}

func (p *nodeExporterProvider) DiskReport(ctx context.Context) (*DiskReport, error) {
	mfs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	fsTotal := sumFamilyLabel(mfs[nodeFSSize], "mountpoint", rootPath)
	fsAvail := sumFamilyLabel(mfs[nodeFSAvail], "mountpoint", rootPath)
	fsUsed := fsTotal - fsAvail

	report := &DiskReport{
		Root: UsageStats{
			Total: uint64(fsTotal),
			Used:  uint64(fsUsed),
			Free:  uint64(fsAvail),
		},
	}
	if fsTotal > 0 {
		report.Root.Percent = fsUsed / fsTotal * 100
	}

	if mf := mfs[nodeFSSize]; mf != nil {
		for _, m := range mf.GetMetric() {
			report.Partitions = append(report.Partitions, Partition{
				Device:     labelValue(m, "device"),
				Mountpoint: labelValue(m, "mountpoint"),
			})
		}
	}
	return report, nil
}

func (p *nodeExporterProvider) Network(ctx context.Context) (*NetworkStats, error) {
	mfs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &NetworkStats{
		BytesSent:   uint64(sumFamilyExceptLabel(mfs[nodeNetSentBytes], "device", "lo")),
		BytesRecv:   uint64(sumFamilyExceptLabel(mfs[nodeNetRecvBytes], "device", "lo")),
		PacketsSent: uint64(sumFamilyExceptLabel(mfs[nodeNetSentPkts], "device", "lo")),
		PacketsRecv: uint64(sumFamilyExceptLabel(mfs[nodeNetRecvPkts], "device", "lo")),
	}, nil
}

// cpuFromCounters derives overall CPU usage from node_cpu_seconds_total and
// the previous scrape's baseline. Returns (percent, logical CPU count).
func (p *nodeExporterProvider) cpuFromCounters(mf *dto.MetricFamily) (float64, int) {
	var idle, total float64
	cpus := make(map[string]struct{})

	if mf != nil {
		for _, m := range mf.GetMetric() {
			v := metricValue(m)
			total += v
			if labelValue(m, "mode") == "idle" {
				idle += v
			}
			if c := labelValue(m, "cpu"); c != "" {
				cpus[c] = struct{}{}
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var pct float64
	if p.baselined {
		dTotal := total - p.prevTotal
		dIdle := idle - p.prevIdle
		if dTotal > 0 {
			pct = (dTotal - dIdle) / dTotal * 100
			if pct < 0 {
				pct = 0
			}
		}
	}
	p.prevIdle, p.prevTotal, p.baselined = idle, total, true

	return pct, len(cpus)
}

// fetch performs an HTTP GET to the endpoint and parses the text exposition.
func (p *nodeExporterProvider) fetch(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: scrape %q: %v", ErrUnavailable, p.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scrape %q: unexpected status %d", ErrUnavailable, p.endpoint, resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("%w: parse prometheus text: %v", ErrUnavailable, err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += metricValue(m)
	}
	return total
}

// sumFamilyLabel sums values of metrics whose label equals value.
func sumFamilyLabel(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		if labelValue(m, label) == value {
			total += metricValue(m)
		}
	}
	return total
}

// sumFamilyExceptLabel sums values of metrics whose label does NOT equal value.
func sumFamilyExceptLabel(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		if labelValue(m, label) != value {
			total += metricValue(m)
		}
	}
	return total
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
