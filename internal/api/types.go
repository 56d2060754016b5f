package api

// SystemStatsResponse is the payload for GET /api/system-stats.
type SystemStatsResponse struct {
	Timestamp     string         `json:"timestamp"` // RFC3339
	CPUPercent    float64        `json:"cpu_percent"`
	CPUCount      int            `json:"cpu_count"`
	Memory        MemoryResponse `json:"memory"`
	Disk          UsageResponse  `json:"disk"`
	UptimeSeconds float64        `json:"uptime_seconds"`
}

// MemoryResponse describes virtual memory usage in bytes.
type MemoryResponse struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Used      uint64  `json:"used"`
	Free      uint64  `json:"free"`
	Percent   float64 `json:"percent"`
}

// UsageResponse describes filesystem usage in bytes.
type UsageResponse struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// ProcessResponse is one entry in GET /api/processes.
type ProcessResponse struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	MemoryPercent float64 `json:"memory_percent"`
	CPUPercent    float64 `json:"cpu_percent"`
}

// DiskResponse is the payload for GET /api/disk.
type DiskResponse struct {
	Root       UsageResponse       `json:"root"`
	Partitions []PartitionResponse `json:"partitions"`
}

// PartitionResponse identifies one mounted filesystem.
type PartitionResponse struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
}

// NetworkResponse is the payload for GET /api/network.
type NetworkResponse struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC3339
	Service   string `json:"service"`
}

// AlertResponse is one entry in GET /api/alerts.
type AlertResponse struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	FiredAt   string  `json:"fired_at"` // RFC3339
}

// HistoryResponse is the payload for GET /api/history.
type HistoryResponse struct {
	Samples     []SystemStatsResponse `json:"samples"`
	GeneratedAt string                `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
