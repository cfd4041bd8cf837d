// Package config loads application settings from defaults, an optional TOML
// file, and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "SCOPE_AGENT_"

// Config holds the resolved application settings.
type Config struct {
	ProjectsDir    string
	ArchivePath    string
	Model          string
	MaxSuggestions int
	PollInterval   time.Duration
	AutoSave       bool
	APIKey         string
}

type tomlConfig struct {
	ProjectsDir    string `toml:"projects_dir"`
	ArchivePath    string `toml:"archive_path"`
	Model          string `toml:"model"`
	MaxSuggestions int    `toml:"max_suggestions"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	AutoSave       *bool  `toml:"auto_save"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{
		ProjectsDir:    "projects",
		Model:          "gpt-4o",
		MaxSuggestions: 5,
		PollInterval:   500 * time.Millisecond,
		AutoSave:       true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.ArchivePath = filepath.Join(home, ".config", "scope-agent", "history.db")
	} else {
		cfg.ArchivePath = "history.db"
	}
	return cfg
}

// Load reads config from ~/.config/scope-agent/config.toml, a .env file in
// the working directory, and the environment. Missing files fall back to
// defaults.
func Load() (*Config, error) {
	// A .env in the working directory can supply OPENAI_API_KEY during
	// development; absence is fine.
	_ = godotenv.Load()

	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		tomlPath := filepath.Join(home, ".config", "scope-agent", "config.toml")
		if _, err := os.Stat(tomlPath); err == nil {
			if err := cfg.applyFile(tomlPath); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if tc.ProjectsDir != "" {
		c.ProjectsDir = tc.ProjectsDir
	}
	if tc.ArchivePath != "" {
		c.ArchivePath = tc.ArchivePath
	}
	if tc.Model != "" {
		c.Model = tc.Model
	}
	if tc.MaxSuggestions > 0 {
		c.MaxSuggestions = tc.MaxSuggestions
	}
	if tc.PollIntervalMS > 0 {
		c.PollInterval = time.Duration(tc.PollIntervalMS) * time.Millisecond
	}
	if tc.AutoSave != nil {
		c.AutoSave = *tc.AutoSave
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envPrefix + "PROJECTS_DIR"); v != "" {
		c.ProjectsDir = v
	}
	if v := os.Getenv(envPrefix + "ARCHIVE_PATH"); v != "" {
		c.ArchivePath = v
	}
	if v := os.Getenv(envPrefix + "MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv(envPrefix + "MAX_SUGGESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSuggestions = n
		}
	}
	if v := os.Getenv(envPrefix + "POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PollInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv(envPrefix + "AUTO_SAVE"); v != "" {
		c.AutoSave = parseBool(v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKey = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true
	}
	return false
}
