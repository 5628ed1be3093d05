package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIURL       string
	LogDir       string
	PollInterval time.Duration
}

const (
	defaultConfigPath  = "~/.config/tagger/config.toml"
	defaultLogDir      = "~/.local/state/tagger"
	defaultAPIURL      = "127.0.0.1:8000"
	defaultPollSeconds = 30
	logName            = "tagger.INFO"
)

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// Load parses the config at path (or the default location), falling back to
// defaults when the file does not exist.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:       defaultAPIURL,
		LogDir:       mustExpand(defaultLogDir),
		PollInterval: defaultPollSeconds * time.Second,
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		LogDir      string `toml:"log_dir"`
		PollSeconds *int   `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if raw.PollSeconds != nil {
		if *raw.PollSeconds < 0 {
			return Config{}, fmt.Errorf("parse config: poll_seconds must not be negative, got %d", *raw.PollSeconds)
		}
		// zero disables polling
		cfg.PollInterval = time.Duration(*raw.PollSeconds) * time.Second
	}

	return cfg, nil
}

// LogPath is the glog symlink to the newest INFO log in LogDir.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), logName)
	}
	return filepath.Join(c.LogDir, logName)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
