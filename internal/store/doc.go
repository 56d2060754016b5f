// Package store keeps a bounded in-memory history of recent system stat
// samples with TTL eviction. The WebSocket hub reads the latest entry and
// /api/history serves the retained window.
package store
