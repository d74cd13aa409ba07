package packager

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/whistle-ai/whistle/internal/service/installer"
	"github.com/whistle-ai/whistle/internal/version"
)

const (
	// DescriptionFilename is the release manifest written next to the assets.
	DescriptionFilename = "whistle-release.yaml"

	// ChecksumsFilename is the sha256sum manifest uploaded with the assets.
	ChecksumsFilename = "checksums.txt"

	// DefaultOutputDir is where release assets are staged.
	DefaultOutputDir = "dist"

	// DefaultFileMode is the permission set on staged binaries.
	DefaultFileMode = os.FileMode(0o755)

	// manifestFileMode is the permission set on the written manifests.
	manifestFileMode = os.FileMode(0o644)

	// platformNameParts is the number of segments in a platform binary name.
	platformNameParts = 3
)

// errBadBinaryName is returned when a binary file is not named
// "<goos>-<goarch>-whistle".
var errBadBinaryName = errors.New(`binary must be named "<goos>-<goarch>-whistle"`)

// Description is the release manifest: the version, when it was packaged and
// a checksum per asset.
type Description struct {
	// VersionNumber is the release version without the "v" prefix.
	VersionNumber string `yaml:"version"`
	// CreatedAt is the packaging time in RFC 3339.
	CreatedAt string `yaml:"created_at"`
	// Files maps asset names to hex-encoded SHA-256 checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription returns a manifest for the current build version.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Files:         make(map[string]string),
	}
}

// platform is the target OS and architecture a binary was built for.
type platform struct {
	goos   string
	goarch string
}

// parsePlatformFromName extracts the platform from a binary named
// "<goos>-<goarch>-whistle".
func parsePlatformFromName(name string) (platform, error) {
	parts := strings.SplitN(name, "-", platformNameParts)
	if len(parts) != platformNameParts ||
		parts[0] == "" || parts[1] == "" || parts[2] != installer.BinaryName {
		return platform{}, fmt.Errorf("%w: %s", errBadBinaryName, name)
	}

	return platform{goos: parts[0], goarch: parts[1]}, nil
}

// archiveName builds the distribution archive name for a platform,
// e.g. "whistle_0.3.0_linux_amd64.tar.gz".
func archiveName(versionNumber string, p platform) string {
	return fmt.Sprintf("%s_%s_%s_%s.tar.gz", installer.BinaryName, versionNumber, p.goos, p.goarch)
}
