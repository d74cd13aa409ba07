package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
)

// Config is the whistle configuration document.
// The on-disk format is JSON; field order mirrors the document layout.
type Config struct {
	// LLM holds connection settings for the language-model endpoint.
	LLM LLM `json:"llm"`
	// Alert holds notification settings.
	Alert Alert `json:"alert"`
	// Log selects which journal streams are watched.
	Log Log `json:"log"`
	// Ignore lists rules suppressing known-noisy entries before analysis.
	Ignore []Rule `json:"ignore"`
}

// LLM configures the OpenAI-compatible endpoint used for log classification.
// Fields are pointers because an unconfigured value is stored as JSON null.
type LLM struct {
	// BaseURL is the API base URL, e.g. "https://api.openai.com/v1".
	BaseURL *string `json:"base_url"`
	// APIKey authenticates requests to the endpoint.
	APIKey *string `json:"api_key"`
	// Model is the model identifier passed with every request.
	Model *string `json:"model"`
}

// Configured reports whether all fields required for live classification are present.
func (l *LLM) Configured() bool {
	return deref(l.BaseURL) != "" && deref(l.APIKey) != "" && deref(l.Model) != ""
}

// Alert configures outbound notifications.
type Alert struct {
	// Slack is an incoming-webhook URL, or null when Slack alerts are disabled.
	Slack *string `json:"slack"`
}

// SlackURL returns the configured webhook URL, empty when disabled.
func (a *Alert) SlackURL() string {
	return deref(a.Slack)
}

// Log selects journal sources to watch.
type Log struct {
	// KernelOnly watches the kernel ring buffer when true.
	KernelOnly bool `json:"kernel_only"`
	// ServiceUnits lists systemd units to watch in addition to the kernel.
	ServiceUnits []string `json:"service_units"`
}

// Rule suppresses journal entries matching a regular expression.
type Rule struct {
	// Name uniquely identifies the rule.
	Name string `json:"name"`
	// Regex is matched against every journal entry before analysis.
	Regex string `json:"regex"`
	// Comment optionally documents why the rule exists.
	Comment string `json:"comment,omitempty"`
}

const (
	// DefaultConfigFilename is the configuration file name inside the config directory.
	DefaultConfigFilename = "config.json"

	// DefaultHistoryFilename is the detection history database inside the config directory.
	DefaultHistoryFilename = "history.db"

	// DirName is the whistle directory under the user's configuration root.
	DirName = "whistle"

	// EnvConfigDir overrides the configuration directory location.
	EnvConfigDir = "WHISTLE_CONFIG_DIR"

	// SystemConfigPath is where the systemd service reads its configuration.
	SystemConfigPath = "/etc/whistle/config.json"

	// DefaultFilePermissions is the file permission for written configuration files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the permission for created configuration directories.
	DefaultDirPermissions = 0o755

	// jsonIndent matches the four-space indentation of the original document.
	jsonIndent = "    "
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRuleNameRequired is returned when an ignore rule has no name.
	errRuleNameRequired = errors.New("ignore rule name must be provided")
	// errDuplicateRuleName is returned when two ignore rules share a name.
	errDuplicateRuleName = errors.New("ignore rule with this name already exists")
	// errRuleNotFound is returned when removing an unknown ignore rule.
	errRuleNotFound = errors.New("ignore rule not found")
)

// Default returns a configuration with the stock document values:
// kernel watching on, nothing else set.
func Default() *Config {
	return &Config{
		Log: Log{
			KernelOnly:   true,
			ServiceUnits: []string{},
		},
		Ignore: []Rule{},
	}
}

// Dir returns the directory holding whistle's configuration files:
// $WHISTLE_CONFIG_DIR when set, ~/.config/whistle otherwise.
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory; stay relative to the working directory.
		return filepath.Join(".config", DirName)
	}

	return filepath.Join(home, ".config", DirName)
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(Dir(), DefaultConfigFilename)
}

// HistoryPath returns the default detection history database location.
func HistoryPath() string {
	return filepath.Join(Dir(), DefaultHistoryFilename)
}

// HistoryPathFor returns the history database location belonging to a
// configuration file, so an explicit --config keeps its history next to it.
func HistoryPathFor(configPath string) string {
	if configPath == "" {
		return HistoryPath()
	}

	return filepath.Join(filepath.Dir(configPath), DefaultHistoryFilename)
}

// Load reads configuration from the provided path and validates it.
// An empty path means the default location; a missing file there yields the
// default configuration, while a missing explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read configuration: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path,
// creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultPath()
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}

	// Restrict permissions; the document may carry an API key.
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	return nil
}

// Validate checks the provided configuration and normalizes absent collections.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	// Absent lists marshal as [] rather than null.
	if cfg.Log.ServiceUnits == nil {
		cfg.Log.ServiceUnits = []string{}
	}

	if cfg.Ignore == nil {
		cfg.Ignore = []Rule{}
	}

	if slackURL := cfg.Alert.SlackURL(); slackURL != "" {
		if _, err := url.ParseRequestURI(slackURL); err != nil {
			return fmt.Errorf("invalid Slack webhook URL: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Ignore))

	for _, rule := range cfg.Ignore {
		if rule.Name == "" {
			return errRuleNameRequired
		}

		if _, found := seen[rule.Name]; found {
			return fmt.Errorf("%w: %s", errDuplicateRuleName, rule.Name)
		}

		seen[rule.Name] = struct{}{}

		if _, err := regexp.Compile(rule.Regex); err != nil {
			return fmt.Errorf("invalid regex in ignore rule %q: %w", rule.Name, err)
		}
	}

	return nil
}

// AddIgnoreRule appends a rule after checking name uniqueness and regex validity.
func (c *Config) AddIgnoreRule(rule Rule) error {
	if rule.Name == "" {
		return errRuleNameRequired
	}

	for _, existing := range c.Ignore {
		if existing.Name == rule.Name {
			return fmt.Errorf("%w: %s", errDuplicateRuleName, rule.Name)
		}
	}

	if _, err := regexp.Compile(rule.Regex); err != nil {
		return fmt.Errorf("invalid regex in ignore rule %q: %w", rule.Name, err)
	}

	c.Ignore = append(c.Ignore, rule)

	return nil
}

// RemoveIgnoreRule deletes the rule with the given name.
func (c *Config) RemoveIgnoreRule(name string) error {
	for i, existing := range c.Ignore {
		if existing.Name == name {
			c.Ignore = append(c.Ignore[:i], c.Ignore[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("%w: %s", errRuleNotFound, name)
}

// Render returns the configuration as indented JSON for display.
func (c *Config) Render() (string, error) {
	data, err := json.MarshalIndent(c, "", jsonIndent)
	if err != nil {
		return "", fmt.Errorf("marshal configuration: %w", err)
	}

	return string(data), nil
}

// deref returns the string p points to, or empty when p is nil.
func deref(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}

// StringPtr returns a pointer to s, for assigning nullable fields.
func StringPtr(s string) *string {
	return &s
}
