// Package config loads menutree settings.
//
// Settings come from, in increasing order of precedence: built-in defaults,
// an optional YAML file, MENUTREE_* environment variables and command line
// flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mchmarny/menutree/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTokenEnv names the environment variable holding the API bearer token.
	DefaultTokenEnv = "MENU_API_TOKEN"

	// DefaultTimeout bounds a single record fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultRoot is the parent id of top-level records.
	DefaultRoot = "0"

	// DefaultPort matches the HTTP server default.
	DefaultPort = 8080
)

// Environment overrides.
const (
	EnvEndpoint = "MENUTREE_ENDPOINT"
	EnvFile     = "MENUTREE_FILE"
	EnvPort     = "MENUTREE_PORT"
	EnvRoot     = "MENUTREE_ROOT"
	EnvLogLevel = logger.EnvVarLogLevel
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Source selects where menu records come from. Exactly one of Endpoint and
// File must be set.
type Source struct {
	// Endpoint is the menu tree API URL.
	Endpoint string `yaml:"endpoint,omitempty" validate:"required_without=File,excluded_with=File,omitempty,url"`

	// File is a local JSON file with the same payload as the API.
	File string `yaml:"file,omitempty"`

	// TokenEnv names the environment variable with the bearer token.
	TokenEnv string `yaml:"token_env,omitempty"`

	// Timeout bounds one fetch.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// TLS enables HTTPS when both files are set.
type TLS struct {
	CertFile string `yaml:"cert_file,omitempty" validate:"required_with=KeyFile"`
	KeyFile  string `yaml:"key_file,omitempty" validate:"required_with=CertFile"`
}

// Server tunes the HTTP server. Zero durations and sizes keep the server
// defaults.
type Server struct {
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes,omitempty" validate:"gte=0"`
	TLS             TLS           `yaml:"tls,omitempty"`
}

// TLSEnabled reports whether a certificate and key are configured.
func (s Server) TLSEnabled() bool {
	return s.TLS.CertFile != "" && s.TLS.KeyFile != ""
}

// Config is the top-level menutree configuration.
type Config struct {
	Port        int               `yaml:"port" validate:"gte=0,lte=65535"`
	Server      Server            `yaml:"server,omitempty"`
	Source      Source            `yaml:"source"`
	Root        string            `yaml:"root" validate:"required"`
	Decorations map[string]string `yaml:"decorations,omitempty"`
	LogLevel    string            `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
}

// Default returns a Config with sensible defaults. The source is left unset.
func Default() Config {
	return Config{
		Port: DefaultPort,
		Source: Source{
			TokenEnv: DefaultTokenEnv,
			Timeout:  DefaultTimeout,
		},
		Root:        DefaultRoot,
		Decorations: map[string]string{"Image": "appstore"},
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// decorations from the file replace the built-in table instead of
	// merging into it
	cfg.Decorations = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Decorations == nil {
		cfg.Decorations = Default().Decorations
	}

	return cfg, nil
}

// ApplyEnv overrides fields from MENUTREE_* variables and LOG_LEVEL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvEndpoint); ok {
		c.Source.Endpoint = v
	}
	if v, ok := lookup(EnvFile); ok {
		c.Source.File = v
	}
	if v, ok := lookup(EnvRoot); ok {
		c.Root = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvPort, v)
		}
		c.Port = port
	}

	return nil
}

// Token returns the bearer token from the configured environment variable.
func (c Config) Token() string {
	if c.Source.TokenEnv == "" {
		return ""
	}

	return os.Getenv(c.Source.TokenEnv)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalid, verrs.Error())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	durations := map[string]time.Duration{
		"source.timeout":          c.Source.Timeout,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, name)
		}
	}

	return nil
}
