package installer

import (
	"crypto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"
)

const (
	// BinaryName is the name of the installed binary and the suffix a release
	// asset must carry to be considered for installation.
	BinaryName = "whistle"

	// DefaultRepository is the GitHub repository releases are fetched from.
	DefaultRepository = "whistle-ai/whistle"

	// DefaultInstallDir is where the binary lands unless overridden.
	DefaultInstallDir = "/usr/local/bin"

	// EnvInstallDir overrides the install directory when no positional
	// argument is given.
	EnvInstallDir = "INSTALL_DIR"

	// EnvEscalated marks a process re-executed under sudo so a failing
	// escalation cannot loop.
	EnvEscalated = "WHISTLE_INSTALLER_ESCALATED"

	// DefaultFileMode is the permission set on the installed binary.
	DefaultFileMode = os.FileMode(0o755)

	// DefaultChecksumFunction hashes assets for verification.
	DefaultChecksumFunction = crypto.SHA256

	// versionCommandTimeout bounds how long "whistle version" may take.
	versionCommandTimeout = 10 * time.Second

	// temporaryDirectoryPattern names download scratch directories.
	temporaryDirectoryPattern = "whistle-installer-"
)

// resolveInstallDir picks the target directory: an explicit argument wins,
// then the INSTALL_DIR environment variable, then the default.
func resolveInstallDir(explicit string) string {
	if explicit != "" {
		return filepath.Clean(explicit)
	}

	if fromEnv := os.Getenv(EnvInstallDir); fromEnv != "" {
		return filepath.Clean(fromEnv)
	}

	return DefaultInstallDir
}

// isDirWritable probes whether the current user can create files in dir.
func isDirWritable(dir string) bool {
	probe, err := os.CreateTemp(dir, ".whistle-write-probe-*")
	if err != nil {
		return false
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return true
}

// escalationArgs builds the sudo argument list that re-runs the installer
// with the already resolved directory as an explicit argument, so the choice
// survives sudo's environment reset.
func escalationArgs(selfPath, installDir string, opts *Options) []string {
	args := []string{"env", EnvEscalated + "=1", selfPath, installDir}

	if opts.Repository != "" && opts.Repository != DefaultRepository {
		args = append(args, "--repo", opts.Repository)
	}

	if opts.APIBaseURL != "" {
		args = append(args, "--api-url", opts.APIBaseURL)
	}

	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}

	if opts.Select {
		args = append(args, "--select")
	}

	if opts.StopRunning {
		args = append(args, "--stop-running")
	}

	return args
}

// normalizeTag gives a release tag the "v" prefix semver comparison expects.
func normalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.HasPrefix(tag, "v") {
		return tag
	}

	return "v" + tag
}

// terminateProcessByName kills every process whose executable matches name,
// skipping the current process.
func terminateProcessByName(name string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if process.Executable() != name {
			continue
		}

		runningProcess, err := os.FindProcess(processID)
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
