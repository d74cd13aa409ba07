// Package monitor follows journald in real time, classifies every entry and
// reports anomalies: on the terminal, to Slack when configured, and into the
// detection history database.
package monitor
