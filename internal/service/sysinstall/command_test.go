package sysinstall

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/ui"
)

func TestRenderUnit(t *testing.T) {
	t.Parallel()

	unit := renderUnit("/usr/local/bin/whistle")

	require.Contains(t, unit, "Description=WhistleAI Log Monitoring Service")
	require.Contains(t, unit, "ExecStart=/usr/local/bin/whistle monitor --config /etc/whistle/config.json")
	require.Contains(t, unit, "Restart=on-failure")
	require.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestWriteUnitFile(t *testing.T) {
	t.Parallel()

	unitPath := filepath.Join(t.TempDir(), "system", "whistle-ai.service")

	require.NoError(t, writeUnitFile(unitPath, "/opt/bin/whistle"))

	contents, err := os.ReadFile(unitPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "ExecStart=/opt/bin/whistle monitor")

	info, err := os.Stat(unitPath)
	require.NoError(t, err)
	require.Equal(t, unitFileMode, info.Mode().Perm())
}

func TestEnsureDefaultConfigCreates(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	configPath := filepath.Join(t.TempDir(), "whistle", "config.json")

	require.NoError(t, ensureDefaultConfig(ui.NewPrinterTo(&output), configPath))
	require.Contains(t, output.String(), "Creating default config at "+configPath)

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	require.True(t, loaded.Log.KernelOnly)
}

func TestEnsureDefaultConfigKeepsExisting(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	configPath := filepath.Join(t.TempDir(), "config.json")

	existing := config.Default()
	existing.Log.KernelOnly = false
	require.NoError(t, config.Save(configPath, existing))

	require.NoError(t, ensureDefaultConfig(ui.NewPrinterTo(&output), configPath))
	require.Contains(t, output.String(), "already exists. Skipping creation.")

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	require.False(t, loaded.Log.KernelOnly)
}
