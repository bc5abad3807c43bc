package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"parley/internal/types"
)

const defaultBaseURL = "https://digital-mufti-backend.onrender.com"

const (
	defaultToastSeconds = 5
	defaultHTTPTimeout  = 10
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	User    UserConfig    `toml:"user"`
	Logging LoggingConfig `toml:"logging"`
	UI      UIConfig      `toml:"ui"`
}

type ServerConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type UserConfig struct {
	ID string `toml:"id"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type UIConfig struct {
	Markdown     *bool `toml:"markdown"`
	ToastSeconds int   `toml:"toast_seconds"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultHTTPTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			ToastSeconds: defaultToastSeconds,
		},
	}
}

// Load reads the settings file at the default location. A missing or
// empty file yields the defaults.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) BaseURL() string {
	url := strings.TrimSpace(c.Server.BaseURL)
	if url == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(url, "/")
}

func (c Config) HTTPTimeout() time.Duration {
	if c.Server.TimeoutSeconds <= 0 {
		return defaultHTTPTimeout * time.Second
	}
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// UserID returns the configured identity, or the guest placeholder when
// none is set.
func (c Config) UserID() string {
	id := strings.TrimSpace(c.User.ID)
	if id == "" {
		return types.GuestUserID
	}
	return id
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

// LogFile returns the configured log file path, or "" meaning the
// default location should be used.
func (c Config) LogFile() string {
	return strings.TrimSpace(c.Logging.File)
}

// MarkdownEnabled reports whether assistant replies are rendered as
// markdown. Enabled unless explicitly turned off.
func (c Config) MarkdownEnabled() bool {
	if c.UI.Markdown == nil {
		return true
	}
	return *c.UI.Markdown
}

func (c Config) ToastDuration() time.Duration {
	if c.UI.ToastSeconds <= 0 {
		return defaultToastSeconds * time.Second
	}
	return time.Duration(c.UI.ToastSeconds) * time.Second
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
