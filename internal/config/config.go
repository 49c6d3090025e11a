package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lmagee3/missionctl/internal/otel"
)

// BackendConfig holds connection settings for the ops backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// TimeoutSeconds bounds every backend request. Default 15.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ScanConfig controls the file-scan requests sent to the backend.
type ScanConfig struct {
	// DefaultPaths are scanned when the user gives none. Default ["~/Desktop"].
	DefaultPaths []string `yaml:"default_paths"`
	IncludeExts  []string `yaml:"include_exts"`
	ExcludeDirs  []string `yaml:"exclude_dirs"`
	MaxFileMB    int      `yaml:"max_file_mb"`
	MaxChars     int      `yaml:"max_chars"`
}

// PollConfig holds the poll cadence for background refresh jobs.
type PollConfig struct {
	// OpsSeconds is the health/ops-summary/next poll interval. Default 10.
	OpsSeconds int `yaml:"ops_seconds"`
	// QuotesSeconds is the market-quote poll interval. Default 30.
	QuotesSeconds int `yaml:"quotes_seconds"`
	// HeadlinesCron schedules the headline refresh. Default "0 * * * *".
	HeadlinesCron string `yaml:"headlines_cron"`
	// RescanCron schedules the background auto-rescan. Default "0 * * * *".
	RescanCron string `yaml:"rescan_cron"`
}

// EmailConfig controls inbox sync requests.
type EmailConfig struct {
	Mailbox    string `yaml:"mailbox"`
	FetchLimit int    `yaml:"fetch_limit"`
}

type Config struct {
	HomeDir string `yaml:"-"`

	LogLevel string `yaml:"log_level"`

	Backend BackendConfig `yaml:"backend"`
	Scan    ScanConfig    `yaml:"scan"`
	Poll    PollConfig    `yaml:"poll"`
	Email   EmailConfig   `yaml:"email"`
	OTel    otel.Config   `yaml:"otel"`
}

// ConfigPath returns the path to config.yaml within the given home directory.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// BackendTimeout returns the request timeout as a duration.
func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// OpsInterval returns the combined health/ops/next poll interval.
func (c Config) OpsInterval() time.Duration {
	return time.Duration(c.Poll.OpsSeconds) * time.Second
}

// QuotesInterval returns the market-quote poll interval.
func (c Config) QuotesInterval() time.Duration {
	return time.Duration(c.Poll.QuotesSeconds) * time.Second
}

// Fingerprint returns a stable hash of the active config.
func (c Config) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "backend=%s|log=%s|ops=%d|quotes=%d|headlines=%s|rescan=%s|mailbox=%s",
		c.Backend.BaseURL, c.LogLevel, c.Poll.OpsSeconds, c.Poll.QuotesSeconds,
		c.Poll.HeadlinesCron, c.Poll.RescanCron, c.Email.Mailbox)
	return fmt.Sprintf("cfg-%x", h.Sum64())
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 15,
		},
		Scan: ScanConfig{
			DefaultPaths: []string{"~/Desktop"},
			IncludeExts:  []string{"pdf", "docx", "md", "txt", "pptx", "xlsx", "py", "js", "ts", "tsx"},
			ExcludeDirs:  []string{"node_modules", ".git", ".venv", "dist", "build", "__pycache__"},
			MaxFileMB:    2,
			MaxChars:     12000,
		},
		Poll: PollConfig{
			OpsSeconds:    10,
			QuotesSeconds: 30,
			HeadlinesCron: "0 * * * *",
			RescanCron:    "0 * * * *",
		},
		Email: EmailConfig{
			Mailbox:    "INBOX",
			FetchLimit: 5,
		},
	}
}

// HomeDir resolves the missionctl data directory.
func HomeDir() string {
	if override := os.Getenv("MISSIONCTL_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".missionctl")
}

// Load reads config.yaml from the missionctl home directory, applying
// defaults, env overrides, and normalization. A missing file is not an
// error; defaults apply.
func Load() (Config, error) {
	return LoadFrom(HomeDir())
}

// LoadFrom is Load with an explicit home directory, for tests.
func LoadFrom(homeDir string) (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = homeDir

	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create missionctl home: %w", err)
	}

	data, err := os.ReadFile(ConfigPath(cfg.HomeDir))
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if len(cfg.Scan.DefaultPaths) == 0 {
		cfg.Scan.DefaultPaths = []string{"~/Desktop"}
	}
	if cfg.Scan.MaxFileMB <= 0 {
		cfg.Scan.MaxFileMB = 2
	}
	if cfg.Scan.MaxChars <= 0 {
		cfg.Scan.MaxChars = 12000
	}
	if cfg.Poll.OpsSeconds <= 0 {
		cfg.Poll.OpsSeconds = 10
	}
	if cfg.Poll.QuotesSeconds <= 0 {
		cfg.Poll.QuotesSeconds = 30
	}
	if strings.TrimSpace(cfg.Poll.HeadlinesCron) == "" {
		cfg.Poll.HeadlinesCron = "0 * * * *"
	}
	if strings.TrimSpace(cfg.Poll.RescanCron) == "" {
		cfg.Poll.RescanCron = "0 * * * *"
	}
	if strings.TrimSpace(cfg.Email.Mailbox) == "" {
		cfg.Email.Mailbox = "INBOX"
	}
	if cfg.Email.FetchLimit <= 0 {
		cfg.Email.FetchLimit = 5
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("MISSIONCTL_BACKEND_URL"); raw != "" {
		cfg.Backend.BaseURL = raw
	}
	if raw := os.Getenv("MISSIONCTL_API_KEY"); raw != "" {
		cfg.Backend.APIKey = raw
	}
	if raw := os.Getenv("MISSIONCTL_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("MISSIONCTL_OPS_POLL_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Poll.OpsSeconds = v
		}
	}
	if raw := os.Getenv("MISSIONCTL_QUOTES_POLL_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Poll.QuotesSeconds = v
		}
	}
	if raw := os.Getenv("MISSIONCTL_MAILBOX"); raw != "" {
		cfg.Email.Mailbox = raw
	}
}
