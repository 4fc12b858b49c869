// Package config loads the daemon's TOML configuration: daemon settings
// plus the set of tags to create at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Tag is one [[tag]] table in the config file. Screen is 1-based; an
// omitted screen means screen 1, and values beyond the number of attached
// screens clamp to the last screen.
type Tag struct {
	Name     string `toml:"name"`
	Screen   int    `toml:"screen"`
	Selected bool   `toml:"selected"`
}

// Config is the persisted config file schema.
type Config struct {
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
	Terminal string `toml:"terminal"`
	Tags     []Tag  `toml:"tag"`
	Source   string `toml:"-"`
}

// Default returns the built-in configuration: tags "1" through "9", all on
// screen 1, with "1" selected.
func Default() Config {
	cfg := Config{
		LogLevel: "info",
		Terminal: "x-terminal-emulator",
	}
	for i := 1; i <= 9; i++ {
		cfg.Tags = append(cfg.Tags, Tag{
			Name:     fmt.Sprintf("%d", i),
			Screen:   1,
			Selected: i == 1,
		})
	}
	return cfg
}

// DefaultPath returns ~/.config/sharedtagsd/config.toml, or "" when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sharedtagsd", "config.toml")
}

// Load reads the config at path, falling back to DefaultPath. A missing
// file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	loaded := Config{Source: path}
	if err := toml.Unmarshal(content, &loaded); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if loaded.LogLevel == "" {
		loaded.LogLevel = cfg.LogLevel
	}
	if loaded.Terminal == "" {
		loaded.Terminal = cfg.Terminal
	}
	if len(loaded.Tags) == 0 {
		loaded.Tags = cfg.Tags
	}
	for i := range loaded.Tags {
		if loaded.Tags[i].Screen == 0 {
			loaded.Tags[i].Screen = 1
		}
	}
	if err := validate(loaded); err != nil {
		return cfg, err
	}
	return loaded, nil
}

func validate(cfg Config) error {
	seen := make(map[string]bool)
	for i, t := range cfg.Tags {
		if t.Name == "" {
			return fmt.Errorf("config: tag %d has no name", i+1)
		}
		if t.Screen < 1 {
			return fmt.Errorf("config: tag %q has non-positive screen %d", t.Name, t.Screen)
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate tag name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
