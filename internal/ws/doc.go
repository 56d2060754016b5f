// Package ws streams live system stats to browser clients over WebSocket.
// The hub owns the periodic sampling loop: each tick feeds the history store
// and the alert engine before broadcasting, so alerting keeps working even
// when no REST client is polling.
package ws
