// Package config loads jsgate settings from a YAML file and JSGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the jsgate service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Prelude PreludeConfig `mapstructure:"prelude"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// EvalConfig holds evaluation limits.
type EvalConfig struct {
	DefaultTimeout   time.Duration `mapstructure:"default_timeout"`
	MaxTimeout       time.Duration `mapstructure:"max_timeout"` // 0 disables the cap
	MaxCallStackSize int           `mapstructure:"max_call_stack_size"`
	InterruptGrace   time.Duration `mapstructure:"interrupt_grace"`
	StrictNames      bool          `mapstructure:"strict_names"`
	StrictMode       bool          `mapstructure:"strict_mode"`
}

// PreludeConfig says where the prelude comes from. At most one source may be set.
type PreludeConfig struct {
	Inline       string            `mapstructure:"inline"`
	Path         string            `mapstructure:"path"`
	URL          string            `mapstructure:"url"`
	Headers      map[string]string `mapstructure:"headers"`
	FetchTimeout time.Duration     `mapstructure:"fetch_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("jsgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/jsgate")
	}

	v.SetEnvPrefix("JSGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 40*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.max_concurrent", 16)

	v.SetDefault("eval.default_timeout", time.Second)
	v.SetDefault("eval.max_timeout", 30*time.Second)
	v.SetDefault("eval.max_call_stack_size", 1024)
	v.SetDefault("eval.interrupt_grace", 100*time.Millisecond)
	v.SetDefault("eval.strict_names", false)
	v.SetDefault("eval.strict_mode", false)

	v.SetDefault("prelude.inline", "")
	v.SetDefault("prelude.path", "")
	v.SetDefault("prelude.url", "")
	v.SetDefault("prelude.headers", map[string]string{})
	v.SetDefault("prelude.fetch_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks value ranges and that at most one prelude source is set.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent))
	}
	if c.Eval.DefaultTimeout < 0 {
		errs = append(errs, fmt.Errorf("eval.default_timeout cannot be negative, got %s", c.Eval.DefaultTimeout))
	}
	if c.Eval.MaxTimeout < 0 {
		errs = append(errs, fmt.Errorf("eval.max_timeout cannot be negative, got %s", c.Eval.MaxTimeout))
	}
	if c.Eval.MaxCallStackSize <= 0 {
		errs = append(errs, fmt.Errorf("eval.max_call_stack_size must be positive, got %d", c.Eval.MaxCallStackSize))
	}
	if c.Eval.InterruptGrace < 0 {
		errs = append(errs, fmt.Errorf("eval.interrupt_grace cannot be negative, got %s", c.Eval.InterruptGrace))
	}

	sources := 0
	for _, s := range []string{c.Prelude.Inline, c.Prelude.Path, c.Prelude.URL} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		errs = append(errs, errors.New("only one of prelude.inline, prelude.path, prelude.url may be set"))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a config level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", level, err)
	}
	return l, nil
}

// Handler builds the slog handler described by c, writing to w.
func (c LogConfig) Handler(w io.Writer) slog.Handler {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
