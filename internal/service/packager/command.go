package packager

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/release"
	"github.com/whistle-ai/whistle/internal/service/installer"
	"github.com/whistle-ai/whistle/internal/version"
)

// errNoBinaries indicates that the packager was started without any binaries to package.
var errNoBinaries = errors.New("no binaries to package")

// Options contains inputs for the packager entry point.
type Options struct {
	// OutputDir is the directory release assets are staged into.
	OutputDir string
	// Version is the release version; empty means the build version.
	Version string
	// Binaries are paths to built binaries named "<goos>-<goarch>-whistle".
	Binaries []string
}

// packager stages release assets and writes checksum and release manifests.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type packager struct {
	// outputDir is where assets are staged.
	outputDir string
	// binaries maps staged asset names to their source paths.
	binaries map[string]string
	// desc is the release manifest being filled.
	desc *Description
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-package")

	pkg, err := newPackager(opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager validates the inputs and prepares the staging directory.
func newPackager(opts *Options) (*packager, error) {
	if len(opts.Binaries) == 0 {
		return nil, errNoBinaries
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	versionNumber := strings.TrimPrefix(strings.TrimSpace(opts.Version), "v")
	if versionNumber == "" {
		versionNumber = version.Short()
	}

	pkg := &packager{
		outputDir: outputDir,
		binaries:  make(map[string]string, len(opts.Binaries)),
		desc:      NewDescription(),
	}

	pkg.desc.VersionNumber = versionNumber

	for _, binaryPath := range opts.Binaries {
		name := filepath.Base(binaryPath)
		if _, err := parsePlatformFromName(name); err != nil {
			return nil, err
		}

		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("stat %s: %w", binaryPath, err)
		}

		pkg.binaries[name] = binaryPath
	}

	if err := os.MkdirAll(outputDir, installer.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return pkg, nil
}

// Run stages binaries, builds archives and writes both manifests.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Staging release assets",
		"version", p.desc.VersionNumber, "output", p.outputDir)

	if err := p.stageBinaries(ctx); err != nil {
		return err
	}

	if err := p.buildArchives(ctx); err != nil {
		return err
	}

	if err := p.fillChecksums(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving checksum manifest", "path", ChecksumsFilename)

	if err := p.saveChecksums(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving release description", "path", DescriptionFilename)

	if err := p.saveDescription(); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// stageBinaries copies each binary into the output directory under its
// platform name with executable permissions.
func (p *packager) stageBinaries(ctx context.Context) error {
	for name, sourcePath := range p.binaries {
		destPath := filepath.Join(p.outputDir, name)

		if sameFile(sourcePath, destPath) {
			logger.DebugKV(ctx, "Binary already staged", "name", name)
			continue
		}

		if err := copyFile(sourcePath, destPath, DefaultFileMode); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}

		logger.InfoKV(ctx, "Staged binary", "name", name)
	}

	return nil
}

// buildArchives wraps each staged binary into a tar.gz distribution archive.
func (p *packager) buildArchives(ctx context.Context) error {
	for name := range p.binaries {
		target, err := parsePlatformFromName(name)
		if err != nil {
			return err
		}

		archive := archiveName(p.desc.VersionNumber, target)
		archivePath := filepath.Join(p.outputDir, archive)

		if err = writeArchive(archivePath, filepath.Join(p.outputDir, name)); err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}

		logger.InfoKV(ctx, "Built archive", "name", archive)
	}

	return nil
}

// fillChecksums computes a SHA-256 digest for every staged asset.
func (p *packager) fillChecksums() error {
	for _, name := range p.assetNames() {
		digest, err := release.FileSHA256(filepath.Join(p.outputDir, name))
		if err != nil {
			return err
		}

		p.desc.Files[name] = digest
	}

	return nil
}

// saveChecksums writes the sha256sum-format manifest.
func (p *packager) saveChecksums() error {
	var builder strings.Builder

	names := make([]string, 0, len(p.desc.Files))
	for name := range p.desc.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		builder.WriteString(p.desc.Files[name])
		builder.WriteString("  ")
		builder.WriteString(name)
		builder.WriteString("\n")
	}

	path := filepath.Join(p.outputDir, ChecksumsFilename)

	return os.WriteFile(path, []byte(builder.String()), manifestFileMode)
}

// saveDescription writes the release manifest.
func (p *packager) saveDescription() error {
	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return err
	}

	path := filepath.Join(p.outputDir, DescriptionFilename)

	return os.WriteFile(path, contents, manifestFileMode)
}

// printNextSteps logs human-readable guidance for publishing the release.
func (p *packager) printNextSteps(ctx context.Context) {
	files := p.assetNames()
	files = append(files, ChecksumsFilename, DescriptionFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("Create a GitHub release tagged v")
	builder.WriteString(p.desc.VersionNumber)
	builder.WriteString(" and upload the following files from ")
	builder.WriteString(p.outputDir)
	builder.WriteString(":\n")

	for i, name := range files {
		if i == 0 {
			builder.WriteString(name)
		} else {
			builder.WriteString(",\n")
			builder.WriteString(name)
		}
	}

	builder.WriteString("\n\nUsers can then install the release by running: whistle-install")

	logger.Info(ctx, builder.String())
}

// assetNames lists staged binaries and their archives, sorted.
func (p *packager) assetNames() []string {
	names := make([]string, 0, len(p.binaries)*2)

	for name := range p.binaries {
		names = append(names, name)

		if target, err := parsePlatformFromName(name); err == nil {
			names = append(names, archiveName(p.desc.VersionNumber, target))
		}
	}

	sort.Strings(names)

	return names
}

// sameFile reports whether two paths refer to the same file.
func sameFile(a, b string) bool {
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}

	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(infoA, infoB)
}

// copyFile copies src to dest with the given permissions.
func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	return err
}

// writeArchive builds a tar.gz archive containing the binary under its
// installed name.
func writeArchive(archivePath, binaryPath string) error {
	in, err := os.Open(binaryPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}

	gzipWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzipWriter)

	header := &tar.Header{
		Name:    installer.BinaryName,
		Mode:    int64(DefaultFileMode),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if err = tarWriter.WriteHeader(header); err == nil {
		_, err = io.Copy(tarWriter, in)
	}

	if closeErr := tarWriter.Close(); err == nil {
		err = closeErr
	}

	if closeErr := gzipWriter.Close(); err == nil {
		err = closeErr
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	return err
}
