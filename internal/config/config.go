package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Archive contains configuration for the remote candidate catalog.
type Archive struct {
	BaseURL        string `toml:"base_url"`
	Table          string `toml:"table"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Classifier contains configuration for the external classification endpoint.
type Classifier struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Naming contains configuration for designation assignment.
type Naming struct {
	CatalogPrefix string `toml:"catalog_prefix"`
}

// Scheduler contains configuration for the periodic sync trigger.
type Scheduler struct {
	Enabled  bool   `toml:"enabled"`
	Pattern  string `toml:"pattern"`
	Timezone string `toml:"timezone"`
}

// Assistant contains connection settings for the conversational assistant.
type Assistant struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Orrery.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Archive: remote candidate catalog connection
//   - Classifier: external ML classification endpoint
//   - Naming: designation prefix for confirmed discoveries
//   - Scheduler: periodic sync trigger pattern and timezone
//   - Assistant: optional conversational assistant backend
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Archive    Archive    `toml:"archive"`
	Classifier Classifier `toml:"classifier"`
	Naming     Naming     `toml:"naming"`
	Scheduler  Scheduler  `toml:"scheduler"`
	Assistant  Assistant  `toml:"assistant"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/orrery/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved config path, the third reports whether a file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("orrery.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the candidate store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "orrery.db")
}

// LockFilePath returns the location of the daemon instance lock.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "orrery.lock")
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Archive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.BaseURL), "/")
	c.Archive.Table = strings.TrimSpace(c.Archive.Table)
	c.Classifier.URL = strings.TrimSpace(c.Classifier.URL)
	c.Naming.CatalogPrefix = strings.TrimSpace(c.Naming.CatalogPrefix)
	c.Scheduler.Pattern = strings.TrimSpace(c.Scheduler.Pattern)
	c.Scheduler.Timezone = strings.TrimSpace(c.Scheduler.Timezone)

	if key := strings.TrimSpace(os.Getenv("ORRERY_ASSISTANT_API_KEY")); key != "" && c.Assistant.APIKey == "" {
		c.Assistant.APIKey = key
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
