// Package config provides configuration management for modsync.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klauern/modsync/internal/util"
)

const remoteBaseURL = "https://raw.githubusercontent.com/07th-mod/python-patcher/master/"

// Config represents the complete modsync configuration.
type Config struct {
	// Tools locates the external downloader and archive tool
	Tools ToolsConfig `yaml:"tools"`

	// Download tunes the downloader
	Download DownloadConfig `yaml:"download"`

	// Remote configures where the catalog and version data come from
	Remote RemoteConfig `yaml:"remote"`

	// Cache configures the archive size cache
	Cache CacheConfig `yaml:"cache"`

	// Install configures install attempts
	Install InstallConfig `yaml:"install"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`
}

// ToolsConfig holds external tool settings.
type ToolsConfig struct {
	// Aria2c lists candidate paths or names for the downloader, tried in order
	Aria2c []string `yaml:"aria2c"`
	// SevenZip lists candidate paths or names for the archive tool
	SevenZip []string `yaml:"seven_zip"`
	// OutputEncoding is the charset of tool output (empty for UTF-8)
	OutputEncoding string `yaml:"output_encoding,omitempty"`
}

// DownloadConfig holds downloader settings.
type DownloadConfig struct {
	Connections     int           `yaml:"connections"`
	Split           int           `yaml:"split"`
	ConcurrentItems int           `yaml:"concurrent_items"`
	RetryWait       time.Duration `yaml:"retry_wait"`
	IPv6            bool          `yaml:"ipv6"`
	// SummaryInterval of 0 lets the downloader use its own default
	SummaryInterval time.Duration `yaml:"summary_interval"`
}

// RemoteConfig holds remote data locations.
type RemoteConfig struct {
	// CatalogURL is the install catalog; a local path is also accepted
	CatalogURL string `yaml:"catalog_url"`
	// VersionDataURL is the remote version manifest list
	VersionDataURL string        `yaml:"version_data_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	// Enabled enables or disables the size cache
	Enabled bool `yaml:"enabled"`
	// TTL is the time-to-live for cache entries
	TTL time.Duration `yaml:"ttl"`
	// Location is the cache directory path
	Location string `yaml:"location"`
}

// InstallConfig holds install attempt settings.
type InstallConfig struct {
	// KeepDownloads keeps the download directory after a successful install
	KeepDownloads bool `yaml:"keep_downloads"`
	// LockTimeout bounds the wait for another running install
	LockTimeout time.Duration `yaml:"lock_timeout"`
	// TempDirName is the download directory created inside the install directory
	TempDirName string `yaml:"temp_dir_name"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Progress selects the progress display (auto, bar, tui, none)
	Progress string `yaml:"progress"`
}

// Progress display modes.
const (
	ProgressAuto = "auto"
	ProgressBar  = "bar"
	ProgressTUI  = "tui"
	ProgressNone = "none"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			Aria2c:   []string{"aria2c", filepath.Join(util.ModsyncConfigPath(), "bin", "aria2c")},
			SevenZip: []string{"7z", "7za", "7zr", filepath.Join(util.ModsyncConfigPath(), "bin", "7za")},
		},
		Download: DownloadConfig{
			Connections:     8,
			Split:           8,
			ConcurrentItems: 1,
			RetryWait:       5 * time.Second,
			IPv6:            false,
			SummaryInterval: 5 * time.Second,
		},
		Remote: RemoteConfig{
			CatalogURL:     remoteBaseURL + "installData.json",
			VersionDataURL: remoteBaseURL + "versionData.json",
			Timeout:        30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      24 * time.Hour,
			Location: util.ModsyncCachePath(),
		},
		Install: InstallConfig{
			KeepDownloads: false,
			LockTimeout:   5 * time.Second,
			TempDirName:   "temp",
		},
		Output: OutputConfig{
			Color:    "auto",
			Progress: ProgressAuto,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.ModsyncConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	configPath := FilePath()
	// #nosec G304 - configPath is constructed from trusted config directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	cfg.applyEnvironment()
	return cfg, cfg.Validate()
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, cfg.Validate()
}

// Validate rejects settings the installer cannot run with.
func (c *Config) Validate() error {
	if c.Download.Connections < 1 || c.Download.Split < 1 || c.Download.ConcurrentItems < 1 {
		return fmt.Errorf("download connections, split and concurrent_items must be at least 1")
	}
	switch c.Output.Progress {
	case ProgressAuto, ProgressBar, ProgressTUI, ProgressNone:
	default:
		return fmt.Errorf("unknown progress mode %q (valid: auto, bar, tui, none)", c.Output.Progress)
	}
	if strings.TrimSpace(c.Install.TempDirName) == "" {
		return fmt.Errorf("install temp_dir_name cannot be empty")
	}
	return nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern MODSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Tool settings - list separated by the OS path list separator
	if v := os.Getenv("MODSYNC_TOOLS_ARIA2C"); v != "" {
		c.Tools.Aria2c = splitPaths(v)
	}
	if v := os.Getenv("MODSYNC_TOOLS_SEVEN_ZIP"); v != "" {
		c.Tools.SevenZip = splitPaths(v)
	}
	if v := os.Getenv("MODSYNC_TOOLS_OUTPUT_ENCODING"); v != "" {
		c.Tools.OutputEncoding = v
	}

	// Download settings
	if v := os.Getenv("MODSYNC_DOWNLOAD_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Download.Connections = n
		}
	}
	if v := os.Getenv("MODSYNC_DOWNLOAD_IPV6"); v != "" {
		c.Download.IPv6 = parseBool(v)
	}
	if v := os.Getenv("MODSYNC_DOWNLOAD_RETRY_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Download.RetryWait = d
		}
	}

	// Remote settings
	if v := os.Getenv("MODSYNC_REMOTE_CATALOG_URL"); v != "" {
		c.Remote.CatalogURL = v
	}
	if v := os.Getenv("MODSYNC_REMOTE_VERSION_DATA_URL"); v != "" {
		c.Remote.VersionDataURL = v
	}
	if v := os.Getenv("MODSYNC_REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Remote.Timeout = d
		}
	}

	// Cache settings
	if v := os.Getenv("MODSYNC_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("MODSYNC_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("MODSYNC_CACHE_LOCATION"); v != "" {
		c.Cache.Location = v
	}

	// Install settings
	if v := os.Getenv("MODSYNC_INSTALL_KEEP_DOWNLOADS"); v != "" {
		c.Install.KeepDownloads = parseBool(v)
	}
	if v := os.Getenv("MODSYNC_INSTALL_LOCK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Install.LockTimeout = d
		}
	}

	// Output settings
	if v := os.Getenv("MODSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("MODSYNC_OUTPUT_PROGRESS"); v != "" {
		c.Output.Progress = v
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitPaths splits a path-list string into individual paths.
// Empty segments are filtered out.
func splitPaths(s string) []string {
	parts := filepath.SplitList(s)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// CacheDir returns the expanded cache location.
func (c *Config) CacheDir() string {
	if c.Cache.Location == "" {
		return util.ModsyncCachePath()
	}
	return util.ExpandPath(c.Cache.Location, "")
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
