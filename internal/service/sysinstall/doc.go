// Package sysinstall manages whistle's systemd deployment: it installs the
// whistle-ai unit running the monitor against /etc/whistle/config.json, and
// removes it again on uninstall.
package sysinstall
