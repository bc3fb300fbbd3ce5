package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

type ScanConfig struct {
	Workers       int      `yaml:"workers"`
	FailOn        string   `yaml:"fail_on"`
	MaxFileSizeKB int64    `yaml:"max_file_size_kb"`
	Ignore        []string `yaml:"ignore"`
}

type RulesConfig struct {
	Enabled       []string `yaml:"enabled"`
	MinConfidence float64  `yaml:"min_confidence"`
}

type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	TTLHours      int    `yaml:"ttl_hours"`
	RetentionDays int    `yaml:"retention_days"`
	MemoryEntries int    `yaml:"memory_entries"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Rules    RulesConfig    `yaml:"rules"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Publish  PublishConfig  `yaml:"publish"`
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".dbsec")
	var cats []string
	for _, c := range model.Categories() {
		cats = append(cats, string(c))
	}
	return &Config{
		Scan: ScanConfig{
			Workers:       runtime.NumCPU(),
			FailOn:        string(model.SeverityHigh),
			MaxFileSizeKB: 10240,
			Ignore:        []string{"vendor", "node_modules", "testdata"},
		},
		Rules: RulesConfig{
			Enabled: cats,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           stateDir,
			TTLHours:      24,
			RetentionDays: 7,
			MemoryEntries: 4096,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(stateDir, "dbsec.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Publish: PublishConfig{
			Subject: "dbsec.findings",
		},
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dbsec", "config.yaml")
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. A file that exists but does not parse is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Scan.Workers < 1 {
		return fmt.Errorf("%w: scan.workers must be at least 1, got %d", model.ErrBadConfig, c.Scan.Workers)
	}
	if _, err := model.ParseSeverity(c.Scan.FailOn); err != nil {
		return fmt.Errorf("%w: scan.fail_on: %v", model.ErrBadConfig, err)
	}
	for _, cat := range c.Rules.Enabled {
		if _, err := model.ParseCategory(cat); err != nil {
			return fmt.Errorf("%w: rules.enabled: %v", model.ErrBadConfig, err)
		}
	}
	if c.Rules.MinConfidence < 0 || c.Rules.MinConfidence > 1 {
		return fmt.Errorf("%w: rules.min_confidence must be between 0 and 1, got %v", model.ErrBadConfig, c.Rules.MinConfidence)
	}
	if c.Cache.TTLHours < 0 || c.Cache.RetentionDays < 0 {
		return fmt.Errorf("%w: cache ttl and retention must not be negative", model.ErrBadConfig)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", model.ErrBadConfig, c.Server.Port)
	}
	return nil
}

// EnabledRules converts the configured category names. Validate must
// have accepted the config first.
func (c *Config) EnabledRules() []model.Category {
	out := make([]model.Category, 0, len(c.Rules.Enabled))
	for _, s := range c.Rules.Enabled {
		if cat, err := model.ParseCategory(s); err == nil {
			out = append(out, cat)
		}
	}
	return out
}

// IgnorePatterns returns the path globs excluded from scanning.
func (c *Config) IgnorePatterns() []string {
	return c.Scan.Ignore
}

// FailSeverity returns the severity at or above which findings fail the
// scan.
func (c *Config) FailSeverity() model.Severity {
	sev, err := model.ParseSeverity(c.Scan.FailOn)
	if err != nil {
		return model.SeverityHigh
	}
	return sev
}

// SeverityThresholds maps severities to the finding count at which a scan
// fails. A single finding at or above fail_on trips the threshold.
func (c *Config) SeverityThresholds() map[model.Severity]int {
	return map[model.Severity]int{c.FailSeverity(): 1}
}

// CachePath is the sqlite file backing the persistent cache tier.
func (c *Config) CachePath() string {
	return filepath.Join(c.Cache.Dir, "cache.db")
}

// Write renders the config as YAML at path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the built-in configuration, used by `config init` and
// tests.
func Default() *Config {
	return defaults()
}
