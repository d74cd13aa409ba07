// Package packager stages release assets for publication: platform binaries
// renamed for the installer to find, tar.gz distribution archives, a
// sha256sum checksum manifest and a YAML release description.
package packager
