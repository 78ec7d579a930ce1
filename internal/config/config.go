// Package config loads mcagent settings.
//
// Precedence, highest first: flags bound by the CLI, MCAGENT_* environment
// variables (a .env file in the working directory is loaded first, without
// overriding variables that are already set), an optional mcagent.{yaml,json,toml}
// file, and the defaults below.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MCAGENT_MINING_TOP_N.
const EnvPrefix = "MCAGENT"

// Config is the full runtime configuration.
type Config struct {
	DataDir     string `mapstructure:"data_dir"`
	LogLevel    string `mapstructure:"log_level"`
	SamplesPath string `mapstructure:"samples_path"`
	ExportDir   string `mapstructure:"export_dir"`

	MineContext MineContextConfig `mapstructure:"minecontext"`
	Mining      MiningConfig      `mapstructure:"mining"`
	Evidence    EvidenceConfig    `mapstructure:"evidence"`
	Cache       CacheConfig       `mapstructure:"cache"`
	HTTP        HTTPConfig        `mapstructure:"http"`
}

// MineContextConfig points at the local MineContext debug API.
type MineContextConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	FetchLimit        int           `mapstructure:"fetch_limit"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Retries           int           `mapstructure:"retries"`
}

// MiningConfig holds the clustering parameters.
type MiningConfig struct {
	Days                int     `mapstructure:"days"`
	TopN                int     `mapstructure:"top_n"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	// LookupTopN bounds the re-mine used to resolve a candidate id.
	LookupTopN int `mapstructure:"lookup_top_n"`
	// Vocabulary replaces the built-in application/tool names recognised in
	// activity content. Empty keeps the built-in table.
	Vocabulary []string `mapstructure:"vocabulary"`
}

// EvidenceConfig holds evidence pack parameters.
type EvidenceConfig struct {
	MinExamples   int `mapstructure:"min_examples"`
	ExcerptLength int `mapstructure:"excerpt_length"`
}

// CacheConfig toggles the SQLite activity cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HTTPConfig configures the HTTP wrapper service.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// CachePath is the SQLite file holding cached activity batches.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// Validate checks every numeric setting is in range.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return &ConfigError{Field: "data_dir", Message: "must not be empty"}
	case c.MineContext.BaseURL == "":
		return &ConfigError{Field: "minecontext.base_url", Message: "must not be empty"}
	case c.MineContext.Timeout <= 0:
		return &ConfigError{Field: "minecontext.timeout", Message: "must be positive"}
	case c.MineContext.FetchLimit <= 0:
		return &ConfigError{Field: "minecontext.fetch_limit", Message: "must be positive"}
	case c.MineContext.RequestsPerSecond <= 0:
		return &ConfigError{Field: "minecontext.requests_per_second", Message: "must be positive"}
	case c.MineContext.Retries < 0:
		return &ConfigError{Field: "minecontext.retries", Message: "must not be negative"}
	case c.Mining.Days <= 0:
		return &ConfigError{Field: "mining.days", Message: "must be positive"}
	case c.Mining.TopN <= 0:
		return &ConfigError{Field: "mining.top_n", Message: "must be positive"}
	case c.Mining.LookupTopN <= 0:
		return &ConfigError{Field: "mining.lookup_top_n", Message: "must be positive"}
	case c.Mining.SimilarityThreshold < 0 || c.Mining.SimilarityThreshold > 1:
		return &ConfigError{Field: "mining.similarity_threshold", Message: fmt.Sprintf("must be within [0, 1], got %v", c.Mining.SimilarityThreshold)}
	case c.Evidence.MinExamples <= 0:
		return &ConfigError{Field: "evidence.min_examples", Message: "must be positive"}
	case c.Evidence.ExcerptLength <= 0:
		return &ConfigError{Field: "evidence.excerpt_length", Message: "must be positive"}
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers may bind flags to it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("samples_path", filepath.Join("samples", "sample_activities.json"))
	v.SetDefault("export_dir", "exports")

	v.SetDefault("minecontext.base_url", "http://127.0.0.1:1733")
	v.SetDefault("minecontext.timeout", 30*time.Second)
	v.SetDefault("minecontext.fetch_limit", 1000)
	v.SetDefault("minecontext.requests_per_second", 4.0)
	v.SetDefault("minecontext.retries", 2)

	v.SetDefault("mining.days", 7)
	v.SetDefault("mining.top_n", 5)
	v.SetDefault("mining.similarity_threshold", 0.6)
	v.SetDefault("mining.lookup_top_n", 50)
	v.SetDefault("mining.vocabulary", []string{})

	v.SetDefault("evidence.min_examples", 3)
	v.SetDefault("evidence.excerpt_length", 200)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("http.addr", "127.0.0.1:18080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration with no flag bindings. An empty path searches
// for mcagent.* in the working directory and the data directory.
func Load(path string) (*Config, error) {
	_ = LoadEnv()
	return FromViper(NewViper(), path)
}

// FromViper resolves a Config from v. A missing config file is not an error
// unless path names it explicitly.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mcagent")
		v.AddConfigPath(".")
		v.AddConfigPath(expandHome(v.GetString("data_dir")))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.SamplesPath = expandHome(cfg.SamplesPath)
	cfg.ExportDir = expandHome(cfg.ExportDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads ./.env into the process environment. Variables already set
// win over the file; a missing file is ignored.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mcagent"
	}
	return filepath.Join(home, ".mcagent")
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
