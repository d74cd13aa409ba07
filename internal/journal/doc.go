// Package journal reads entries from the systemd journal by running
// journalctl, either tailing selected streams live or collecting a time
// range in one pass.
//
// The Selection type maps the log configuration (kernel ring, service units)
// onto journalctl argument lists; the Reader handles process lifecycle,
// line scanning and cancellation.
package journal
