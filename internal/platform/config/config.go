// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultDir is where Load looks for base.yaml and profile files.
const DefaultDir = "configs"

// envPrefix marks environment variables that override configuration.
const envPrefix = "APP_"

// Default configuration values.
const (
	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 10

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultSnapshotPath is where the library is saved at exit.
	DefaultSnapshotPath = "data/library.json"

	// DefaultSeedPath is the comma-separated book file read when no snapshot exists.
	DefaultSeedPath = "data/books.txt"

	// DefaultInteractionLogPath is the user interaction log.
	DefaultInteractionLogPath = "data/user_interactions.log"
)

// Config is the root configuration structure.
type Config struct {
	App            AppConfig            `koanf:"app"             validate:"required"`
	Log            LogConfig            `koanf:"log"             validate:"required"`
	Catalog        CatalogConfig        `koanf:"catalog"         validate:"required"`
	InteractionLog InteractionLogConfig `koanf:"interaction_log"`
	Telemetry      TelemetryConfig      `koanf:"telemetry"`
	UI             UIConfig             `koanf:"ui"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev test prod"`
}

// LogConfig contains diagnostic logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Level      string `koanf:"level"       validate:"omitempty,oneof=trace debug info warn error"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// CatalogConfig locates the catalog's files and picks the sort algorithm
// used for each field.
type CatalogConfig struct {
	SnapshotPath string     `koanf:"snapshot_path" validate:"required"`
	SeedPath     string     `koanf:"seed_path"     validate:"required"`
	Sort         SortConfig `koanf:"sort"`
}

// SortConfig names the algorithm per sort field.
type SortConfig struct {
	Title  string `koanf:"title"  validate:"required,oneof=bubble insertion quick library"`
	Author string `koanf:"author" validate:"required,oneof=bubble insertion quick library"`
	Year   string `koanf:"year"   validate:"required,oneof=bubble insertion quick library"`
}

// InteractionLogConfig configures the timestamped user interaction log.
type InteractionLogConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains usage metrics settings.
type TelemetryConfig struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	TextfilePath   string `koanf:"textfile_path"   validate:"required_if=MetricsEnabled true"`
}

// UIConfig contains terminal menu settings.
type UIConfig struct {
	Color bool `koanf:"color"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "library-catalog",
		"app.version":     "dev",
		"app.environment": "local",

		"log.level":            "info",
		"log.format":           "pretty",
		"log.file.enabled":     false,
		"log.file.level":       "debug",
		"log.file.path":        "./logs/catalog.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"catalog.snapshot_path": DefaultSnapshotPath,
		"catalog.seed_path":     DefaultSeedPath,
		"catalog.sort.title":    "bubble",
		"catalog.sort.author":   "insertion",
		"catalog.sort.year":     "quick",

		"interaction_log.enabled":     true,
		"interaction_log.path":        DefaultInteractionLogPath,
		"interaction_log.max_size":    DefaultLogFileMaxSizeMB,
		"interaction_log.max_backups": DefaultLogFileMaxBackups,
		"interaction_log.max_age":     DefaultLogFileMaxAgeDays,
		"interaction_log.compress":    false,

		"telemetry.metrics_enabled": false,
		"telemetry.textfile_path":   "data/catalog.prom",

		"ui.color": true,
	}
}

// Load loads configuration from DefaultDir. See LoadDir.
func Load(profile string) (*Config, error) {
	return LoadDir(DefaultDir, profile)
}

// LoadDir loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file ({dir}/{profile}.yaml)
//  3. Base config file ({dir}/base.yaml)
//  4. Default values
func LoadDir(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	err = loadFileIfExists(k, filepath.Join(dir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		err := loadFileIfExists(k, filepath.Join(dir, profile+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", envKeyMapper(k.Keys())), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyMapper maps APP_CATALOG_SNAPSHOT_PATH to catalog.snapshot_path.
// Known keys are matched exactly so underscores inside key names survive;
// anything else treats every underscore as a level separator.
func envKeyMapper(known []string) func(string) string {
	flat := make(map[string]string, len(known))
	for _, key := range known {
		flat[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if key, ok := flat[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
