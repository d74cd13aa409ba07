package installer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"golang.org/x/mod/semver"

	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/release"
	"github.com/whistle-ai/whistle/internal/ui"
)

var (
	errDirNotWritable       = errors.New("install directory is not writable")
	errEscalationFailed     = errors.New("install directory is still not writable after privilege escalation")
	errSudoNotFound         = errors.New("sudo is required to write to the install directory but is not available")
	errNoBinaryAsset        = errors.New("no release asset ends with the binary name")
	errNoAssets             = errors.New("release has no assets")
	errSelectNeedsTerminal  = errors.New("interactive selection requires a terminal")
	errEmptyAsset           = errors.New("downloaded asset is empty")
	errInvalidVersionOutput = errors.New("invalid version output format")
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// InstallDir is the explicit target directory; empty means resolve from
	// the environment or the default.
	InstallDir string
	// Repository is the "owner/name" GitHub repository to install from.
	Repository string
	// APIBaseURL overrides the GitHub API endpoint, e.g. for GitHub
	// Enterprise. Empty means api.github.com.
	APIBaseURL string
	// Tag installs the release with this tag instead of the latest.
	Tag string
	// Select asks for the asset interactively instead of matching by name.
	Select bool
	// Check compares the installed version against the requested release
	// without installing anything.
	Check bool
	// StopRunning terminates running whistle processes before replacing
	// the binary.
	StopRunning bool
}

// runner holds the mutable state for a single installation.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	opts               *Options         // Inputs from the CLI.
	installDir         string           // Resolved target directory.
	client             *release.Client  // GitHub release client.
	release            *release.Release // Latest release metadata.
	temporaryDirectory string           // Where the asset is downloaded before apply.
	downloadedPath     string           // Local path of the downloaded asset.
	checksum           []byte           // Expected asset digest, when the release publishes one.
}

// Run executes the installer lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-install")

	r := &runner{opts: opts}

	defer r.cleanup(ctx)

	if err := r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		return err
	}

	return nil
}

// Run executes the workflow for this runner instance:
// 1) Resolve the install directory.
// 2) Create it if missing and make sure it is writable, escalating via sudo if not.
// 3) Fetch the requested release and pick the binary asset.
// 4) Download it and verify the checksum when one is published.
// 5) Optionally stop running processes, then swap the binary in place.
func (r *runner) Run(ctx context.Context) error {
	r.installDir = resolveInstallDir(r.opts.InstallDir)
	logger.InfoKV(ctx, "Resolved install directory", "dir", r.installDir)

	if r.opts.Check {
		return r.reportVersionStatus(ctx)
	}

	done, err := r.ensureWritableTarget(ctx)
	if err != nil {
		return err
	}

	if done {
		// The escalated child performed the installation.
		return nil
	}

	if err = r.fetchRelease(ctx); err != nil {
		return err
	}

	asset, err := r.chooseAsset()
	if err != nil {
		return err
	}

	if err = r.downloadAsset(ctx, asset); err != nil {
		return err
	}

	if err = r.verifyAsset(ctx, asset); err != nil {
		return err
	}

	if r.opts.StopRunning {
		logger.Info(ctx, "Stopping running whistle processes")

		if err = terminateProcessByName(BinaryName); err != nil {
			return fmt.Errorf("stop running processes: %w", err)
		}
	}

	if err = r.applyBinary(ctx); err != nil {
		return err
	}

	return nil
}

// ensureWritableTarget creates the install directory when missing, checks
// write access to it, and re-executes the installer under sudo when the
// current user lacks either. The sudo lookup happens before any network
// access so a missing sudo fails fast. Returns true when an escalated child
// already did the work.
func (r *runner) ensureWritableTarget(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(r.installDir, DefaultFileMode); err == nil && isDirWritable(r.installDir) {
		return false, nil
	}

	if os.Geteuid() == 0 {
		return false, fmt.Errorf("%s: %w", r.installDir, errDirNotWritable)
	}

	if os.Getenv(EnvEscalated) != "" {
		return false, fmt.Errorf("%s: %w", r.installDir, errEscalationFailed)
	}

	sudoPath, err := exec.LookPath("sudo")
	if err != nil {
		return false, fmt.Errorf("%s: %w", r.installDir, errSudoNotFound)
	}

	selfPath, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("locate own executable: %w", err)
	}

	logger.InfoKV(ctx, "Escalating privileges to write to the install directory", "dir", r.installDir)

	cmd := exec.CommandContext(ctx, sudoPath, escalationArgs(selfPath, r.installDir, r.opts)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err = cmd.Run(); err != nil {
		return true, fmt.Errorf("escalated installer: %w", err)
	}

	return true, nil
}

// fetchRelease queries the repository for the latest published release, or
// for a specific tag when one was requested.
func (r *runner) fetchRelease(ctx context.Context) error {
	var clientOpts []release.Option
	if r.opts.APIBaseURL != "" {
		clientOpts = append(clientOpts, release.WithBaseURL(r.opts.APIBaseURL))
	}

	client, err := release.NewClient(r.opts.Repository, clientOpts...)
	if err != nil {
		return err
	}

	r.client = client

	var fetched *release.Release

	if r.opts.Tag != "" {
		logger.InfoKV(ctx, "Fetching release by tag",
			"repository", client.Repository(), "tag", r.opts.Tag)

		fetched, err = client.ByTag(ctx, r.opts.Tag)
	} else {
		logger.InfoKV(ctx, "Fetching the latest release", "repository", client.Repository())

		fetched, err = client.Latest(ctx)
	}

	if err != nil {
		return err
	}

	r.release = fetched

	logger.InfoKV(ctx, "Found release", "tag", fetched.TagName, "assets", len(fetched.Assets))

	return nil
}

// chooseAsset picks the asset to install, either automatically by binary name
// or interactively when requested.
func (r *runner) chooseAsset() (release.Asset, error) {
	if r.opts.Select {
		return r.chooseAssetInteractively()
	}

	asset, found := release.BinaryAsset(r.release.Assets, BinaryName)
	if !found {
		return release.Asset{}, fmt.Errorf("%w: %s", errNoBinaryAsset, BinaryName)
	}

	return asset, nil
}

// chooseAssetInteractively lets the user pick any release asset.
func (r *runner) chooseAssetInteractively() (release.Asset, error) {
	if len(r.release.Assets) == 0 {
		return release.Asset{}, errNoAssets
	}

	if !ui.IsInteractive() {
		return release.Asset{}, errSelectNeedsTerminal
	}

	names := make([]string, 0, len(r.release.Assets))
	for _, asset := range r.release.Assets {
		names = append(names, asset.Name)
	}

	index, err := ui.Select("Select an asset to install", names)
	if err != nil {
		return release.Asset{}, fmt.Errorf("select asset: %w", err)
	}

	return r.release.Assets[index], nil
}

// downloadAsset streams the asset into a temporary directory and rejects
// empty downloads.
func (r *runner) downloadAsset(ctx context.Context, asset release.Asset) error {
	temporaryDirectory, err := os.MkdirTemp("", temporaryDirectoryPattern)
	if err != nil {
		return err
	}

	r.temporaryDirectory = temporaryDirectory

	destPath := filepath.Join(temporaryDirectory, filepath.Base(asset.Name))

	logger.InfoKV(ctx, "Downloading asset", "name", asset.Name, "size", asset.Size)

	written, err := r.client.Download(ctx, asset, destPath)
	if err != nil {
		return err
	}

	if written == 0 {
		return fmt.Errorf("%s: %w", asset.Name, errEmptyAsset)
	}

	r.downloadedPath = destPath

	logger.InfoKV(ctx, "Downloaded asset", "path", destPath, "bytes", written)

	return nil
}

// verifyAsset checks the download against the release's checksum manifest.
// Releases without a manifest, or manifests without an entry for the asset,
// install unverified.
func (r *runner) verifyAsset(ctx context.Context, asset release.Asset) error {
	manifest, found := release.ChecksumsAsset(r.release.Assets)
	if !found {
		logger.Debug(ctx, "Release publishes no checksum manifest, skipping verification")
		return nil
	}

	manifestPath := filepath.Join(r.temporaryDirectory, filepath.Base(manifest.Name))
	if _, err := r.client.Download(ctx, manifest, manifestPath); err != nil {
		return fmt.Errorf("download checksum manifest: %w", err)
	}

	manifestFile, err := os.Open(manifestPath)
	if err != nil {
		return err
	}

	checksums, err := release.ParseChecksums(manifestFile)
	if closeErr := manifestFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return err
	}

	digestHex, ok := checksums[asset.Name]
	if !ok {
		logger.WarnKV(ctx, "Checksum manifest has no entry for asset", "asset", asset.Name)
		return nil
	}

	if err = release.VerifyFile(r.downloadedPath, digestHex); err != nil {
		return err
	}

	r.checksum, err = hex.DecodeString(digestHex)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verified asset checksum", "asset", asset.Name)

	return nil
}

// applyBinary swaps the downloaded asset into place with executable
// permissions using go-update.
func (r *runner) applyBinary(ctx context.Context) error {
	data, err := os.ReadFile(r.downloadedPath)
	if err != nil {
		return err
	}

	targetPath := filepath.Join(r.installDir, BinaryName)

	createdFresh := false

	if _, err = os.Stat(targetPath); err != nil && os.IsNotExist(err) {
		var placeholder *os.File

		if placeholder, err = os.Create(targetPath); err != nil {
			return err
		}

		_ = placeholder.Close()
		createdFresh = true
	}

	options := &goupdate.Options{
		TargetPath: targetPath,
		TargetMode: DefaultFileMode,
	}

	if len(r.checksum) > 0 {
		options.Checksum = r.checksum
		options.Hash = DefaultChecksumFunction
	}

	dataReader := bytes.NewReader(data)
	if err = goupdate.Apply(dataReader, *options); err != nil {
		if createdFresh {
			_ = os.Remove(targetPath)
		}

		return fmt.Errorf("apply binary: %w", err)
	}

	oldFileName := targetPath + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.InfoKV(ctx, "Installed binary", "path", targetPath)

	return nil
}

// reportVersionStatus compares the installed binary's version against the
// latest release without installing anything.
func (r *runner) reportVersionStatus(ctx context.Context) error {
	if err := r.fetchRelease(ctx); err != nil {
		return err
	}

	installedVersion, err := detectInstalledVersion(ctx, filepath.Join(r.installDir, BinaryName))
	if err != nil {
		return err
	}

	remoteTag := normalizeTag(r.release.TagName)

	switch {
	case installedVersion == "":
		logger.InfoKV(ctx, "whistle is not installed", "latest", remoteTag)
	case semver.Compare(normalizeTag(installedVersion), remoteTag) < 0:
		logger.InfoKV(ctx, "Update available",
			"installed", installedVersion, "latest", remoteTag)
	default:
		logger.InfoKV(ctx, "Installed version is up to date",
			"version", installedVersion)
	}

	return nil
}

// detectInstalledVersion runs the installed binary to get its version.
func detectInstalledVersion(ctx context.Context, executable string) (string, error) {
	// Create a context with timeout to avoid hanging
	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, executable, "version")

	output, err := cmd.Output()
	if err != nil {
		logger.Warnf(ctx, "Could not get installed version from %s: %v", executable, err)
		return "", nil // Not an error - might be first install
	}

	return parseVersionFromOutput(string(output))
}

// parseVersionFromOutput extracts semantic version from executable version output.
func parseVersionFromOutput(output string) (string, error) {
	// Parse "version: 1.0.0, commit: abc123, built at: ..." → "1.0.0"
	output = strings.TrimSpace(output)
	if strings.HasPrefix(output, "version: ") {
		parts := strings.Split(output, ",")
		if len(parts) > 0 {
			version := strings.TrimSpace(strings.TrimPrefix(parts[0], "version: "))
			if version != "" {
				return version, nil
			}
		}
	}

	return "", errInvalidVersionOutput
}

// cleanup removes download scratch space.
func (r *runner) cleanup(ctx context.Context) {
	if r.temporaryDirectory == "" {
		return
	}

	if _, err := os.Stat(r.temporaryDirectory); err == nil {
		_ = os.RemoveAll(r.temporaryDirectory)
	}

	logger.Debug(ctx, "Removed temporary files")
}
