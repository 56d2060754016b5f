// Package alerts implements threshold alert evaluation with per-metric
// cooldowns and background notification delivery.
//
// A Sampler turns one Provider reading into a Snapshot of metric values. The
// Engine tests each configured rule against the snapshot: the Gate combines
// the threshold check with the shared cooldown State in a single critical
// section, so concurrent evaluations of the same crossing produce exactly one
// fire. Fired events are queued to a Dispatcher that delivers them through the
// configured Notifier (log, webhook, or email) with a bounded per-send
// timeout. Delivery failures are logged and swallowed; they never reach the
// caller of Evaluate.
package alerts
