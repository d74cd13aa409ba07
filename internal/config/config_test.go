package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks rule and webhook validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Empty document is fine and gets its collections normalized.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.NotNil(t, cfg.Ignore)
	require.NotNil(t, cfg.Log.ServiceUnits)

	// Bad webhook URL.
	cfg = Default()
	cfg.Alert.Slack = StringPtr("not a url")
	require.Error(t, Validate(cfg))

	// Nameless rule.
	cfg = Default()
	cfg.Ignore = []Rule{{Regex: "x"}}
	require.Error(t, Validate(cfg))

	// Duplicate rule names.
	cfg = Default()
	cfg.Ignore = []Rule{{Name: "dup", Regex: "a"}, {Name: "dup", Regex: "b"}}
	require.Error(t, Validate(cfg))

	// Broken regex.
	cfg = Default()
	cfg.Ignore = []Rule{{Name: "broken", Regex: "("}}
	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures the document is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.LLM.BaseURL = StringPtr("https://llm.local/v1")
	cfg.LLM.APIKey = StringPtr("sk-test")
	cfg.LLM.Model = StringPtr("gpt-4o-mini")
	cfg.Log.ServiceUnits = []string{"sshd.service", "nginx.service"}
	cfg.Ignore = []Rule{{Name: "dhcp-noise", Regex: `DHCPREQUEST`, Comment: "lease renewals"}}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestSaveUnconfiguredFieldsAreNull keeps the on-disk format of untouched installs stable.
func TestSaveUnconfiguredFieldsAreNull(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, Default()))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"base_url": null`)
	require.Contains(t, string(contents), `"slack": null`)
	require.Contains(t, string(contents), `"kernel_only": true`)
	require.Contains(t, string(contents), `"service_units": []`)
	require.Contains(t, string(contents), `"ignore": []`)
}

// TestLoadMissing distinguishes the default location from an explicit path.
func TestLoadMissing(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())

	// Missing default location falls back to the stock document.
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// Missing explicit path is an error.
	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestConfigDirOverride points the default location at the override directory.
func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	require.Equal(t, filepath.Join(dir, DefaultConfigFilename), DefaultPath())
	require.Equal(t, filepath.Join(dir, DefaultHistoryFilename), HistoryPath())
}

// TestIgnoreRuleHelpers covers add and remove semantics used by the ignore commands.
func TestIgnoreRuleHelpers(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.NoError(t, cfg.AddIgnoreRule(Rule{Name: "scans", Regex: `port scan from`}))
	require.Error(t, cfg.AddIgnoreRule(Rule{Name: "scans", Regex: `again`}))
	require.Error(t, cfg.AddIgnoreRule(Rule{Name: "broken", Regex: `(`}))
	require.Error(t, cfg.AddIgnoreRule(Rule{Regex: `nameless`}))

	require.NoError(t, cfg.RemoveIgnoreRule("scans"))
	require.Error(t, cfg.RemoveIgnoreRule("scans"))
	require.Empty(t, cfg.Ignore)
}

// TestLLMConfigured requires all three endpoint fields.
func TestLLMConfigured(t *testing.T) {
	t.Parallel()

	llm := LLM{}
	require.False(t, llm.Configured())

	llm.BaseURL = StringPtr("https://llm.local/v1")
	llm.APIKey = StringPtr("sk-test")
	require.False(t, llm.Configured())

	llm.Model = StringPtr("gpt-4o-mini")
	require.True(t, llm.Configured())
}
