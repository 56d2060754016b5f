// Package api implements the REST surface of the dashboard. All endpoints
// are read-only JSON over GET; sampling the metrics provider happens per
// request, and each system-stats request also feeds the history store and the
// alert engine.
package api
