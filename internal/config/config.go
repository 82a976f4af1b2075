// Package config loads nebulaboard settings from a YAML file, a .env file and
// NEBULA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is read from the working directory when no file is given.
	DefaultFile = "nebulaboard.yaml"
	// DefaultEnvFile is read from the working directory when present.
	DefaultEnvFile = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "NEBULA_"
)

// Config holds the runtime settings. Empty directories are resolved by the
// platform layer.
type Config struct {
	AppName    string        `yaml:"app_name"`
	ProfileDir string        `yaml:"profile_dir"`
	DataDir    string        `yaml:"data_dir"`
	Format     string        `yaml:"format"`
	APIBaseURL string        `yaml:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	ReadOnly   bool          `yaml:"read_only"`
	Watch      bool          `yaml:"watch"`
	AuthAddr   string        `yaml:"auth_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		AppName:    "nebulaboard",
		Format:     "json",
		APIBaseURL: "http://localhost:8080",
		Timeout:    30 * time.Second,
		TokenTTL:   24 * time.Hour,
		AuthAddr:   "127.0.0.1:8080",
	}
}

type options struct {
	file         string
	fileExplicit bool
	envFile      string
	lookup       func(string) (string, bool)
}

// Option configures Load.
type Option func(*options)

// WithFile reads settings from path. Unlike DefaultFile, a missing path is an error.
func WithFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.file = path
			o.fileExplicit = true
		}
	}
}

// WithEnvFile reads dotenv variables from path instead of DefaultEnvFile.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(o *options) {
		if fn != nil {
			o.lookup = fn
		}
	}
}

// Load builds the configuration. Values that fail to parse keep the value
// from the previous layer.
func Load(opts ...Option) (Config, error) {
	o := &options{
		file:    DefaultFile,
		envFile: DefaultEnvFile,
		lookup:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := Default()
	if err := cfg.readFile(o.file, o.fileExplicit); err != nil {
		return cfg, err
	}

	dotenv, err := readEnvFile(o.envFile)
	if err != nil {
		return cfg, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := o.lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	c.AppName = getenv(lookup, "APP_NAME", c.AppName)
	c.ProfileDir = getenv(lookup, "PROFILE_DIR", c.ProfileDir)
	c.DataDir = getenv(lookup, "DATA_DIR", c.DataDir)
	c.Format = strings.ToLower(getenv(lookup, "FORMAT", c.Format))
	c.APIBaseURL = getenv(lookup, "API_URL", c.APIBaseURL)
	c.Timeout = getenvDuration(lookup, "TIMEOUT", c.Timeout)
	c.TokenTTL = getenvDuration(lookup, "TOKEN_TTL", c.TokenTTL)
	c.ReadOnly = getenvBool(lookup, "READ_ONLY", c.ReadOnly)
	c.Watch = getenvBool(lookup, "WATCH", c.Watch)
	c.AuthAddr = getenv(lookup, "AUTH_ADDR", c.AuthAddr)
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch c.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", c.Format)
	}
	if c.AppName == "" {
		return errors.New("app name must not be empty")
	}
	return nil
}

func getenv(lookup func(string) (string, bool), key, def string) string {
	v, ok := lookup(EnvPrefix + key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return def
	}
	return v
}

func getenvDuration(lookup func(string) (string, bool), key string, def time.Duration) time.Duration {
	v := getenv(lookup, key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenvBool(lookup func(string) (string, bool), key string, def bool) bool {
	v := getenv(lookup, key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
