package alerts

import (
	"context"
	"time"

	"github.com/hostboard/hostboard/internal/sysinfo"
)

// Metric ids the alert rules understand.
const (
	MetricCPU    = "cpu"
	MetricMemory = "memory"
	MetricDisk   = "disk"
)

// Snapshot is an immutable record of one sampling pass. It is owned by the
// evaluation that created it and discarded after use.
type Snapshot struct {
	Timestamp time.Time

	// Values maps metric id to its sampled percentage.
	Values map[string]float64

	// Stats is the full reading the values were derived from.
	Stats *sysinfo.SystemStats
}

// SnapshotFrom maps a system stats reading to the metric values rules evaluate.
func SnapshotFrom(st *sysinfo.SystemStats) *Snapshot {
	return &Snapshot{
		Timestamp: st.Timestamp,
		Values: map[string]float64{
			MetricCPU:    st.CPUPercent,
			MetricMemory: st.Memory.Percent,
			MetricDisk:   st.Disk.Percent,
		},
		Stats: st,
	}
}

// Sampler assembles snapshots from a metrics provider.
type Sampler struct {
	provider sysinfo.Provider
}

// NewSampler returns a Sampler reading from p.
func NewSampler(p sysinfo.Provider) *Sampler {
	return &Sampler{provider: p}
}

// Sample performs one sampling pass. It does not retry; the caller decides
// retry policy. Provider failures wrap sysinfo.ErrUnavailable.
func (s *Sampler) Sample(ctx context.Context) (*Snapshot, error) {
	stats, err := s.provider.SystemStats(ctx)
	if err != nil {
		return nil, err
	}
	return SnapshotFrom(stats), nil
}
