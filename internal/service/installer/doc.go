// Package installer downloads the latest whistle release from GitHub and
// installs the binary into a target directory. The directory is chosen from
// an explicit argument, the INSTALL_DIR environment variable, or the
// /usr/local/bin default, and the installer re-executes itself under sudo
// when the directory is not writable by the current user.
package installer
