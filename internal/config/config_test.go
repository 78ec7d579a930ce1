package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MCAGENT_DATA_DIR", dir)

	cfg, err := FromViper(NewViper(), "")
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}

	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.MineContext.BaseURL != "http://127.0.0.1:1733" {
		t.Errorf("BaseURL = %q", cfg.MineContext.BaseURL)
	}
	if cfg.MineContext.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.MineContext.Timeout)
	}
	if cfg.MineContext.FetchLimit != 1000 {
		t.Errorf("FetchLimit = %d, want 1000", cfg.MineContext.FetchLimit)
	}
	if cfg.Mining.Days != 7 || cfg.Mining.TopN != 5 || cfg.Mining.SimilarityThreshold != 0.6 {
		t.Errorf("Mining = %+v", cfg.Mining)
	}
	if cfg.Evidence.MinExamples != 3 || cfg.Evidence.ExcerptLength != 200 {
		t.Errorf("Evidence = %+v", cfg.Evidence)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.HTTP.Addr != "127.0.0.1:18080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.CachePath() != filepath.Join(dir, "cache.db") {
		t.Errorf("CachePath = %q", cfg.CachePath())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MCAGENT_DATA_DIR", t.TempDir())
	t.Setenv("MCAGENT_MINING_TOP_N", "9")
	t.Setenv("MCAGENT_MINING_SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("MCAGENT_MINECONTEXT_TIMEOUT", "5s")
	t.Setenv("MCAGENT_CACHE_ENABLED", "false")
	t.Setenv("MCAGENT_MINING_VOCABULARY", "Jira,Linear")

	cfg, err := FromViper(NewViper(), "")
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Mining.TopN != 9 {
		t.Errorf("TopN = %d, want 9", cfg.Mining.TopN)
	}
	if cfg.Mining.SimilarityThreshold != 0.75 {
		t.Errorf("SimilarityThreshold = %v, want 0.75", cfg.Mining.SimilarityThreshold)
	}
	if cfg.MineContext.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.MineContext.Timeout)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by env")
	}
	if got := strings.Join(cfg.Mining.Vocabulary, ","); got != "Jira,Linear" {
		t.Errorf("Vocabulary = %v, want [Jira Linear]", cfg.Mining.Vocabulary)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MCAGENT_DATA_DIR", dir)
	path := filepath.Join(dir, "custom.yaml")
	body := "mining:\n  days: 14\nevidence:\n  min_examples: 5\nhttp:\n  addr: 0.0.0.0:9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromViper(NewViper(), path)
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Mining.Days != 14 {
		t.Errorf("Days = %d, want 14", cfg.Mining.Days)
	}
	if cfg.Evidence.MinExamples != 5 {
		t.Errorf("MinExamples = %d, want 5", cfg.Evidence.MinExamples)
	}
	if cfg.HTTP.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", cfg.HTTP.Addr)
	}
	// Untouched keys keep their defaults.
	if cfg.Mining.TopN != 5 {
		t.Errorf("TopN = %d, want default 5", cfg.Mining.TopN)
	}
}

func TestLoad_DataDirConfigDiscovered(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MCAGENT_DATA_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "mcagent.json"), []byte(`{"log_level":"debug"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromViper(NewViper(), "")
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("MCAGENT_DATA_DIR", t.TempDir())
	if _, err := FromViper(NewViper(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestLoad_InvalidValueRejected(t *testing.T) {
	t.Setenv("MCAGENT_DATA_DIR", t.TempDir())
	t.Setenv("MCAGENT_MINING_SIMILARITY_THRESHOLD", "1.5")

	_, err := FromViper(NewViper(), "")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "mining.similarity_threshold" {
		t.Errorf("Field = %q", cfgErr.Field)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := FromViper(NewViper(), "")
		if err != nil {
			t.Fatalf("FromViper: %v", err)
		}
		return cfg
	}
	t.Setenv("MCAGENT_DATA_DIR", t.TempDir())

	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"data_dir", func(c *Config) { c.DataDir = "" }},
		{"minecontext.fetch_limit", func(c *Config) { c.MineContext.FetchLimit = 0 }},
		{"minecontext.retries", func(c *Config) { c.MineContext.Retries = -1 }},
		{"mining.days", func(c *Config) { c.Mining.Days = 0 }},
		{"mining.top_n", func(c *Config) { c.Mining.TopN = -3 }},
		{"evidence.min_examples", func(c *Config) { c.Evidence.MinExamples = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("expandHome(~/x) = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}

func TestLoadEnv_MissingFileIgnored(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnv(); err != nil {
		t.Errorf("LoadEnv() = %v, want nil without .env", err)
	}
}
