package sysinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// rootPath is the mountpoint whose usage backs the disk metric.
const rootPath = "/"

// localProvider reads this host's counters directly via gopsutil.
type localProvider struct{}

// NewLocalProvider returns a Provider backed by the local OS.
func NewLocalProvider() Provider {
	return &localProvider{}
}

func (p *localProvider) SystemStats(ctx context.Context) (*SystemStats, error) {
	// Interval 0 derives CPU usage from the delta since the previous call,
	// so the first reading after process start reports 0.
	cpuPct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("%w: cpu percent: %v", ErrUnavailable, err)
	}
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: cpu counts: %v", ErrUnavailable, err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: virtual memory: %v", ErrUnavailable, err)
	}
	du, err := disk.UsageWithContext(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: disk usage: %v", ErrUnavailable, err)
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: uptime: %v", ErrUnavailable, err)
	}

	stats := &SystemStats{
		Timestamp: time.Now(),
		CPUCount:  counts,
		Memory: MemoryStats{
			Total:     vm.Total,
			Available: vm.Available,
			Used:      vm.Used,
			Free:      vm.Free,
			Percent:   vm.UsedPercent,
		},
		Disk: UsageStats{
			Total:   du.Total,
			Used:    du.Used,
			Free:    du.Free,
			Percent: du.UsedPercent,
		},
		UptimeSeconds: float64(uptime),
	}
	if len(cpuPct) > 0 {
		stats.CPUPercent = cpuPct[0]
	}
	return stats, nil
}

func (p *localProvider) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: process list: %v", ErrUnavailable, err)
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, proc := range procs {
		// Processes can exit or deny access mid-iteration; skip those.
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		memPct, err := proc.MemoryPercentWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, err := proc.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		status := ""
		if st, err := proc.StatusWithContext(ctx); err == nil {
			status = strings.Join(st, ",")
		}
		out = append(out, ProcessInfo{
			PID:           proc.Pid,
			Name:          name,
			Status:        status,
			MemoryPercent: float64(memPct),
			CPUPercent:    cpuPct,
		})
	}
	return out, nil
}

func (p *localProvider) DiskReport(ctx context.Context) (*DiskReport, error) {
	du, err := disk.UsageWithContext(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: disk usage: %v", ErrUnavailable, err)
	}
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%w: disk partitions: %v", ErrUnavailable, err)
	}

	report := &DiskReport{
		Root: UsageStats{
			Total:   du.Total,
			Used:    du.Used,
			Free:    du.Free,
			Percent: du.UsedPercent,
		},
		Partitions: make([]Partition, 0, len(parts)),
	}
	for _, pt := range parts {
		report.Partitions = append(report.Partitions, Partition{
			Device:     pt.Device,
			Mountpoint: pt.Mountpoint,
		})
	}
	return report, nil
}

func (p *localProvider) Network(ctx context.Context) (*NetworkStats, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%w: net io counters: %v", ErrUnavailable, err)
	}
	if len(counters) == 0 {
		return nil, fmt.Errorf("%w: net io counters: empty result", ErrUnavailable)
	}
	c := counters[0]
	return &NetworkStats{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	}, nil
}
