// Package ui renders user-facing CLI output.
//
// The Printer writes result lines to stdout with color when the stream is an
// interactive terminal, and exposes the interactivity check gating prompts.
package ui
