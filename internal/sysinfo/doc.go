// Package sysinfo supplies raw host metrics behind the Provider interface.
//
// Two backends exist:
//   - local: reads this host's counters directly via gopsutil (CPU, memory,
//     disk, network, processes, uptime).
//   - nodeexporter: scrapes a remote node_exporter /metrics endpoint and
//     derives the same figures from the Prometheus text exposition. Per-process
//     data is not available from node_exporter, so Processes fails with
//     ErrUnavailable.
//
// Providers never retry and never fabricate partial data: any backend failure
// is reported as an error wrapping ErrUnavailable.
package sysinfo
