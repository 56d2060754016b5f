package sysinfo

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable classifies provider failures: the backend could not be
// reached or returned malformed data. Callers surface it as a failed fetch
// and must not fabricate partial data.
var ErrUnavailable = errors.New("metrics provider unavailable")

// Provider is the read-only source of raw host metrics. Implementations must
// not retry internally; the caller decides retry policy.
type Provider interface {
	// SystemStats returns one point-in-time reading of CPU, memory, disk,
	// and uptime figures.
	SystemStats(ctx context.Context) (*SystemStats, error)

	// Processes returns the running processes, unordered.
	Processes(ctx context.Context) ([]ProcessInfo, error)

	// DiskReport returns root filesystem usage plus the partition table.
	DiskReport(ctx context.Context) (*DiskReport, error)

	// Network returns cumulative network I/O counters.
	Network(ctx context.Context) (*NetworkStats, error)
}

// SystemStats is one sampling pass over the core host metrics.
type SystemStats struct {
	Timestamp     time.Time
	CPUPercent    float64
	CPUCount      int
	Memory        MemoryStats
	Disk          UsageStats
	UptimeSeconds float64
}

// MemoryStats describes virtual memory usage in bytes.
type MemoryStats struct {
	Total     uint64
	Available uint64
	Used      uint64
	Free      uint64
	Percent   float64
}

// UsageStats describes filesystem usage in bytes.
type UsageStats struct {
	Total   uint64
	Used    uint64
	Free    uint64
	Percent float64
}

// Partition identifies one mounted filesystem.
type Partition struct {
	Device     string
	Mountpoint string
}

// DiskReport is the payload behind /api/disk.
type DiskReport struct {
	Root       UsageStats
	Partitions []Partition
}

// NetworkStats holds cumulative network I/O counters across all interfaces.
type NetworkStats struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// ProcessInfo is one process record for /api/processes.
type ProcessInfo struct {
	PID           int32
	Name          string
	Status        string
	MemoryPercent float64
	CPUPercent    float64
}
