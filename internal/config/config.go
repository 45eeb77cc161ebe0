// Package config loads cbzmeta settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Library controls how archives are read.
type Library struct {
	// Locale is a BCP 47 tag selecting the page filename collation.
	Locale            string `toml:"locale"`
	Workers           int    `toml:"workers"`
	ReadComicBookInfo bool   `toml:"read_comicbookinfo"`
}

// Save controls how archives are written.
type Save struct {
	ComicBookInfoComment bool   `toml:"comicbookinfo_comment"`
	AppID                string `toml:"app_id"`
}

// Preview controls page preview rendering.
type Preview struct {
	MaxWidth    int `toml:"max_width"`
	JPEGQuality int `toml:"jpeg_quality"`
}

// Config encapsulates all configuration values for cbzmeta.
type Config struct {
	Logging Logging `toml:"logging"`
	Library Library `toml:"library"`
	Save    Save    `toml:"save"`
	Preview Preview `toml:"preview"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cbzmeta/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error: defaults are returned and exists reports false.
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LocaleTag returns the parsed collation locale. An empty locale yields
// language.Und, the root collation.
func (c *Config) LocaleTag() language.Tag {
	if c.Library.Locale == "" {
		return language.Und
	}
	tag, err := language.Parse(c.Library.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Library.Locale = strings.TrimSpace(c.Library.Locale)
	c.Save.AppID = strings.TrimSpace(c.Save.AppID)
	if c.Save.AppID == "" {
		c.Save.AppID = defaultAppID
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cbzmeta.toml")
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
