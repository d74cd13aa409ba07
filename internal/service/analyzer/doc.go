// Package analyzer runs a one-shot anomaly scan over the journald entries
// recorded since a given point in time.
package analyzer
