package journal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/whistle-ai/whistle/internal/logger"
)

const (
	// Binary is the journald query tool required on the host.
	Binary = "journalctl"

	// maxEntryBytes caps a single journal line; kernel dumps can run long.
	maxEntryBytes = 1024 * 1024
)

// errJournalctlMissing is returned when the host has no journalctl, i.e. no systemd.
var errJournalctlMissing = errors.New("journalctl command not found, make sure systemd is installed")

// Selection picks which journal streams are read.
type Selection struct {
	// Kernel selects the kernel ring buffer (-k).
	Kernel bool
	// Units lists systemd units to read (-u, one per unit).
	Units []string
}

// followArgs builds the argument list for live tailing:
// `journalctl -f --no-pager [-k] [-u unit]...`.
func (s Selection) followArgs() []string {
	args := []string{"-f", "--no-pager"}

	if s.Kernel {
		args = append(args, "-k")
	}

	for _, unit := range s.Units {
		args = append(args, "-u", unit)
	}

	return args
}

// sinceArgs builds one argument list per selected stream:
// `journalctl --since <expr> --no-pager -k` and one `-u <unit>` run per unit.
func (s Selection) sinceArgs(expr string) [][]string {
	runs := make([][]string, 0, len(s.Units)+1)

	if s.Kernel {
		runs = append(runs, []string{"--since", expr, "--no-pager", "-k"})
	}

	for _, unit := range s.Units {
		runs = append(runs, []string{"--since", expr, "--no-pager", "-u", unit})
	}

	return runs
}

// Reader streams entries from the system journal via journalctl.
type Reader struct {
	// selection picks the journal streams to read.
	selection Selection
	// binary is the journalctl executable name or path.
	binary string
}

// NewReader creates a Reader over the selected journal streams.
func NewReader(selection Selection) *Reader {
	return &Reader{
		selection: selection,
		binary:    Binary,
	}
}

// Follow tails the selected streams and passes every non-empty entry to
// handle. It blocks until the context is canceled or journalctl exits;
// cancellation surfaces as the context's error.
func (r *Reader) Follow(ctx context.Context, handle func(entry string)) error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return errJournalctlMissing
	}

	args := r.selection.followArgs()
	logger.InfoKV(ctx, "Following journal", "command", r.binary+" "+strings.Join(args, " "))

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open journal pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("start journalctl: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxEntryBytes)

	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" {
			continue
		}

		handle(entry)
	}

	scanErr := scanner.Err()

	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		return fmt.Errorf("journalctl exited: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if scanErr != nil {
		return fmt.Errorf("read journal stream: %w", scanErr)
	}

	return nil
}

// Since collects entries from each selected stream starting at the given
// journalctl time expression (e.g. "1 hour ago"). A stream that fails to
// read is reported and skipped so the remaining streams still contribute.
func (r *Reader) Since(ctx context.Context, expr string) ([]string, error) {
	if _, err := exec.LookPath(r.binary); err != nil {
		return nil, errJournalctlMissing
	}

	var entries []string

	for _, args := range r.selection.sinceArgs(expr) {
		logger.InfoKV(ctx, "Reading journal range", "command", r.binary+" "+strings.Join(args, " "))

		cmd := exec.CommandContext(ctx, r.binary, args...)

		output, err := cmd.Output()
		if err != nil {
			var stderr string

			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				stderr = strings.TrimSpace(string(exitErr.Stderr))
			}

			logger.ErrorKV(ctx, "Journal range read failed",
				"args", strings.Join(args, " "),
				"error", err,
				"stderr", stderr)

			continue
		}

		for _, line := range strings.Split(string(output), "\n") {
			if entry := strings.TrimSpace(line); entry != "" {
				entries = append(entries, entry)
			}
		}
	}

	return entries, nil
}
