// Package release talks to the GitHub Releases API: it fetches the latest
// release of a repository (or one named by tag), picks the asset carrying a
// named binary for the running platform, downloads it following redirects,
// and verifies it against the release's checksum manifest when one is
// published.
package release
