// Package config loads client configuration from defaults, an optional YAML
// file, a .env file and HACKFORGE_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HACKFORGE_API_URL.
const EnvPrefix = "HACKFORGE"

// Config is the client configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Web      WebConfig      `mapstructure:"web"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
}

// APIConfig points at the REST API. URL is the origin; "/api" is appended by
// the client.
type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RealtimeConfig points at the websocket endpoint. An empty URL disables the
// realtime bridge.
type RealtimeConfig struct {
	URL string `mapstructure:"url"`
}

// WebConfig is the browser-facing site, used for links.
type WebConfig struct {
	URL string `mapstructure:"url"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // file, sqlite or memory
	Path    string `mapstructure:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`   // empty = stderr
}

// UIConfig tunes the terminal UI.
type UIConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// Dir returns ~/.hackforge.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.Dir: %w", err)
	}
	return filepath.Join(home, ".hackforge"), nil
}

// Load reads configuration. configPath may be empty, in which case
// ~/.hackforge/config.yaml is used if it exists. A .env file in the working
// directory is loaded first; variables already set in the environment win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("realtime.url", "ws://localhost:5000/ws")
	v.SetDefault("web.url", "http://localhost:3000")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", dir)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.page_size", 12)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	if err := checkURL(c.API.URL, "http", "https"); err != nil {
		problems = append(problems, "api.url: "+err.Error())
	}
	if c.Realtime.URL != "" {
		if err := checkURL(c.Realtime.URL, "ws", "wss", "http", "https"); err != nil {
			problems = append(problems, "realtime.url: "+err.Error())
		}
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout: must be positive")
	}
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		problems = append(problems, fmt.Sprintf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		problems = append(problems, "storage.path: required")
	}
	if c.UI.PageSize < 1 || c.UI.PageSize > 100 {
		problems = append(problems, "ui.page_size: must be between 1 and 100")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// StoragePath returns the path handed to storage.Open: the directory itself
// for the file backend, a database file inside it for sqlite.
func (c *Config) StoragePath() string {
	if c.Storage.Backend == "sqlite" && filepath.Ext(c.Storage.Path) == "" {
		return filepath.Join(c.Storage.Path, "hackforge.db")
	}
	return c.Storage.Path
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme %q not one of %s", u.Scheme, strings.Join(schemes, ", "))
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
