package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SourceDir       string `toml:"source_dir"`
	DestinationRoot string `toml:"destination_root"`
	StateDir        string `toml:"state_dir"`
	LogDir          string `toml:"log_dir"`
}

// Pipeline tunes the rename/relocate workers.
type Pipeline struct {
	MaxWorkersPerCategory  int `toml:"max_workers_per_category"`
	DescribeTimeoutSeconds int `toml:"describe_timeout_seconds"`
	MaxNameLength          int `toml:"max_name_length"`
	PDFTextChars           int `toml:"pdf_text_chars"`
}

// Category configures one file category.
type Category struct {
	Enabled    bool     `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Directory  string   `toml:"directory"`
}

// Categories groups the per-category settings.
type Categories struct {
	Image    Category `toml:"image"`
	Document Category `toml:"document"`
}

// LLM contains the vision model connection settings used to caption images.
type LLM struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	Prompt            string `toml:"prompt"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxImageDimension int    `toml:"max_image_dimension"`
}

// Journal controls the write-only run history database.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics controls the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autosort.
//
// Configuration sections by subsystem:
//   - Paths: source directory, destination root, state and log directories
//   - Pipeline: worker pool size, describe timeout, name and text limits
//   - Categories: per-category extensions and destination directory names
//   - LLM: vision model used to caption images
//   - Journal: SQLite run history
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Categories Categories `toml:"categories"`
	LLM        LLM        `toml:"llm"`
	Journal    Journal    `toml:"journal"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autosort.toml")
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

// EnsureDirectories creates the state and log directories. Destination
// directories are created per run, only for categories that have work.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DestinationBase returns the directory that holds the category directories
// when organizing sourceDir: the configured destination root, or sourceDir
// itself when none is set.
func (c *Config) DestinationBase(sourceDir string) string {
	if c.Paths.DestinationRoot != "" {
		return c.Paths.DestinationRoot
	}
	return sourceDir
}

// DescribeTimeout returns the per-file describe deadline.
func (c *Config) DescribeTimeout() time.Duration {
	return time.Duration(c.Pipeline.DescribeTimeoutSeconds) * time.Second
}

// LockDir returns the directory holding per-source run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
