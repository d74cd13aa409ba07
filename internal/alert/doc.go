// Package alert delivers anomaly notifications.
//
// Slack incoming webhooks are the only destination today; the Notifier
// interface keeps the monitor loop independent of the transport so more
// destinations can be added behind the same configuration block.
package alert
