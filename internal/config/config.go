package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	DefaultFile = "piglet.yaml"
	EnvPrefix   = "PIGLET_"
)

type Config struct {
	Origin       string           `koanf:"origin"`
	Output       string           `koanf:"output"`
	Pretty       bool             `koanf:"pretty"`
	Backend      BackendConfig    `koanf:"backend"`
	Validation   ValidationConfig `koanf:"validation"`
	Mock         MockConfig       `koanf:"mock"`
	Templates    TemplateConfig   `koanf:"templates"`
	SanitizeHTML bool             `koanf:"sanitize-html"`
	LogLevel     string           `koanf:"log-level"`
	Server       ServerConfig     `koanf:"server"`
}

type BackendConfig struct {
	Mode          string        `koanf:"mode"`
	WorkerTimeout time.Duration `koanf:"worker-timeout"`
}

type ValidationConfig struct {
	Mode string `koanf:"mode"`
}

type MockConfig struct {
	Seed           uint64        `koanf:"seed"`
	PatternTimeout time.Duration `koanf:"pattern-timeout"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type ServerConfig struct {
	Addr  string `koanf:"addr"`
	Token string `koanf:"token"`
}

func defaults() map[string]any {
	return map[string]any{
		"output":                 "-",
		"pretty":                 true,
		"backend.mode":           "auto",
		"backend.worker-timeout": "30s",
		"validation.mode":        "passthrough",
		"mock.seed":              0,
		"mock.pattern-timeout":   "250ms",
		"log-level":              "info",
		"server.addr":            ":8080",
	}
}

// BindCommonFlags binds the flags shared by every command.
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: piglet.yaml)")
	flags.String("origin", "", "Fallback origin for relative or scheme-less server URLs")
	flags.String("backend", "", "Validation and dereference backend (auto, worker, direct)")
	flags.Duration("worker-timeout", 0, "Round-trip timeout for the worker backend")
	flags.String("validation", "", "Validation mode (passthrough, strict)")
	flags.Uint64("seed", 0, "Mock data seed (0 picks a random seed)")
	flags.Duration("pattern-timeout", 0, "Time limit for pattern-based mock strings")
	flags.String("templates", "", "Custom script templates directory")
	flags.Bool("sanitize-html", false, "Strip markup from descriptions")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
}

// Load layers defaults, the config file, PIGLET_ environment variables and
// command-line flags, in increasing precedence.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps PIGLET_BACKEND__WORKER_TIMEOUT to backend.worker-timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ReplaceAll(s, "_", "-")
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	getDuration := func(name string) time.Duration {
		if v, err := cmd.Flags().GetDuration(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetDuration(name); err == nil {
			return v
		}
		return 0
	}

	stringFlags := map[string]string{
		"origin":     "origin",
		"output":     "output",
		"backend":    "backend.mode",
		"validation": "validation.mode",
		"templates":  "templates.dir",
		"log-level":  "log-level",
		"addr":       "server.addr",
		"token":      "server.token",
	}
	for flag, key := range stringFlags {
		if v := getString(flag); v != "" {
			m[key] = v
		}
	}

	for flag, key := range map[string]string{"pretty": "pretty", "sanitize-html": "sanitize-html"} {
		if flagChanged(flag) {
			m[key] = getBool(flag)
		}
	}

	for flag, key := range map[string]string{"worker-timeout": "backend.worker-timeout", "pattern-timeout": "mock.pattern-timeout"} {
		if flagChanged(flag) {
			m[key] = getDuration(flag).String()
		}
	}

	if flagChanged("seed") {
		if v, err := cmd.Flags().GetUint64("seed"); err == nil {
			m["mock.seed"] = v
		} else if v, err := cmd.PersistentFlags().GetUint64("seed"); err == nil {
			m["mock.seed"] = v
		}
	}

	return m
}

func (c *Config) Validate() error {
	validBackends := map[string]bool{"auto": true, "worker": true, "direct": true}
	if !validBackends[c.Backend.Mode] {
		return fmt.Errorf("invalid backend mode: %s (valid: auto, worker, direct)", c.Backend.Mode)
	}

	validValidation := map[string]bool{"passthrough": true, "strict": true}
	if !validValidation[c.Validation.Mode] {
		return fmt.Errorf("invalid validation mode: %s (valid: passthrough, strict)", c.Validation.Mode)
	}

	if c.Backend.WorkerTimeout <= 0 {
		return fmt.Errorf("worker timeout must be positive")
	}
	if c.Mock.PatternTimeout <= 0 {
		return fmt.Errorf("pattern timeout must be positive")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.Output == "" {
		return fmt.Errorf("output is required (use - for stdout)")
	}

	return nil
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
