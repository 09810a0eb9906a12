// Package config loads the playground configuration from YAML.
package config

import (
	"bytes"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/digest-playground/errors"
)

// Config is the full configuration. Zero fields are filled from Default.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	UI     UIConfig     `yaml:"ui"`
	Serve  ServeConfig  `yaml:"serve"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig locates the WASM digest engine.
type EngineConfig struct {
	Path string `yaml:"path"`
	// MemoryLimitPages caps guest memory in 64KiB pages; 0 keeps the
	// runtime default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

type UIConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// BaseURL prefixes share links produced by the terminal UI.
	BaseURL string `yaml:"base_url"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Path:             "digest.wasm",
			MemoryLimitPages: 1024,
		},
		UI: UIConfig{
			Debounce: 150 * time.Millisecond,
			BaseURL:  "http://localhost:8080/",
		},
		Serve: ServeConfig{Addr: "127.0.0.1:8080"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.NotFound(errors.PhaseConfig, "config file", path)
		}
		return cfg, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("read %s", path).
			Cause(err).
			Build()
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document does not set.
func Parse(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("parse config").
			Cause(err).
			Build()
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Engine.Path == "" {
		return invalid("engine.path must not be empty")
	}
	if c.UI.Debounce < 0 {
		return invalid("ui.debounce must not be negative, got %s", c.UI.Debounce)
	}
	if c.UI.BaseURL != "" {
		u, err := url.Parse(c.UI.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("ui.base_url %q is not an absolute URL", c.UI.BaseURL)
		}
	}
	if c.Serve.Addr == "" {
		return invalid("serve.addr must not be empty")
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return invalid("log.level %q: %v", c.Log.Level, err)
	}
	return nil
}

// ZapLevel parses Level; empty means info.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(l.Level)
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Detail(format, args...).
		Build()
}
