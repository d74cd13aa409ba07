package release

import (
	"runtime"
	"strings"
)

// osNames maps a GOOS value to the spellings release assets use for it.
var osNames = map[string][]string{
	"linux":   {"linux"},
	"darwin":  {"darwin", "macos", "osx"},
	"windows": {"windows", "win"},
}

// archNames maps a GOARCH value to the spellings release assets use for it.
var archNames = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"arm64": {"arm64", "aarch64"},
	"386":   {"386", "i386", "x86"},
	"arm":   {"arm", "armv7"},
}

// metadataMarkers flag assets that are never the binary itself.
var metadataMarkers = []string{
	"checksum",
	"sha256",
	"sha512",
	".sig",
	".asc",
	".pem",
	"license",
	"readme",
	"changelog",
	".json",
	".txt",
	".yaml",
	".yml",
}

// checksumsNames are the filenames a checksum manifest asset may carry.
var checksumsNames = map[string]struct{}{
	"checksums.txt":  {},
	"sha256sums.txt": {},
	"sha256sums":     {},
	"shasums.txt":    {},
}

// BinaryAsset picks the asset carrying the named binary. Candidates are assets
// whose name ends with binaryName; among several, the one matching the running
// platform best wins. The second return is false when no asset qualifies.
func BinaryAsset(assets []Asset, binaryName string) (Asset, bool) {
	var (
		best      Asset
		bestScore = -1
	)

	for _, asset := range assets {
		if !strings.HasSuffix(asset.Name, binaryName) {
			continue
		}

		if isMetadataAsset(asset.Name) {
			continue
		}

		if score := platformScore(asset.Name); score > bestScore {
			best = asset
			bestScore = score
		}
	}

	return best, bestScore >= 0
}

// ChecksumsAsset finds the release's checksum manifest, if any.
func ChecksumsAsset(assets []Asset) (Asset, bool) {
	for _, asset := range assets {
		if _, ok := checksumsNames[strings.ToLower(asset.Name)]; ok {
			return asset, true
		}
	}

	return Asset{}, false
}

// platformScore rates how well an asset name matches the running OS and
// architecture. OS match weighs 2, architecture 1.
func platformScore(name string) int {
	lowered := strings.ToLower(name)
	score := 0

	for _, spelling := range osNames[runtime.GOOS] {
		if strings.Contains(lowered, spelling) {
			score += 2
			break
		}
	}

	for _, spelling := range archNames[runtime.GOARCH] {
		if strings.Contains(lowered, spelling) {
			score++
			break
		}
	}

	return score
}

// isMetadataAsset reports whether the name looks like a signature, checksum
// manifest or documentation file rather than a binary.
func isMetadataAsset(name string) bool {
	lowered := strings.ToLower(name)

	for _, marker := range metadataMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}
