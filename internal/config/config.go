// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Plain environment variables (STORAGE_PATH, TEMPLATE_KIND, ...)
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Template source kinds.
const (
	TemplateKindFile = "file"
	TemplateKindHTTP = "http"
	TemplateKindS3   = "s3"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing — better to crash at boot than to silently use a wrong default.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	HTTPServer `yaml:"http_server"`

	Template Template `yaml:"template"`
	Output   Output   `yaml:"output"`
	AWS      AWS      `yaml:"aws"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Template tells the renderer where the certificate template PDF lives.
//
// Kind selects which of the remaining fields is used:
//
//	file → Path
//	http → URL
//	s3   → S3Bucket + S3Key
type Template struct {
	Kind     string        `yaml:"kind" env:"TEMPLATE_KIND" env-default:"file"`
	Path     string        `yaml:"path" env:"TEMPLATE_PATH" env-default:"templates_certificates/date.pdf"`
	URL      string        `yaml:"url" env:"TEMPLATE_URL"`
	S3Bucket string        `yaml:"s3_bucket" env:"TEMPLATE_S3_BUCKET"`
	S3Key    string        `yaml:"s3_key" env:"TEMPLATE_S3_KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"TEMPLATE_TIMEOUT" env-default:"15s"`
}

// Output configures where stored certificates go. When S3Bucket is set it
// wins over Dir.
type Output struct {
	Dir      string `yaml:"dir" env:"OUTPUT_DIR" env-default:"generated_certificates"`
	S3Bucket string `yaml:"s3_bucket" env:"OUTPUT_S3_BUCKET"`
	S3Prefix string `yaml:"s3_prefix" env:"OUTPUT_S3_PREFIX" env-default:"certificates/date"`
}

// AWS holds the settings shared by every S3 client. Endpoint is only
// needed for S3-compatible stores such as MinIO.
type AWS struct {
	Region   string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint string `yaml:"endpoint" env:"AWS_ENDPOINT_URL"`
}

// UsesS3 reports whether any part of the configuration needs an S3 client.
func (c *Config) UsesS3() bool {
	return c.Template.Kind == TemplateKindS3 || c.Output.S3Bucket != ""
}

// Validate checks cross-field rules cleanenv cannot express with tags.
func (c *Config) Validate() error {
	switch c.Template.Kind {
	case TemplateKindFile:
		if c.Template.Path == "" {
			return errors.New("template.path is required for kind \"file\"")
		}
	case TemplateKindHTTP:
		if c.Template.URL == "" {
			return errors.New("template.url is required for kind \"http\"")
		}
	case TemplateKindS3:
		if c.Template.S3Bucket == "" || c.Template.S3Key == "" {
			return errors.New("template.s3_bucket and template.s3_key are required for kind \"s3\"")
		}
	default:
		return fmt.Errorf("unknown template kind %q", c.Template.Kind)
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. Unlike MustLoad it never exits the process, which
// makes it the right choice for tests and the CLI.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadEnv builds a Config from environment variables and defaults only.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to panic/fatal on failure. Callers do not need to
// check a returned error — if this function returns, the config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	// ── Source 3: environment only (containers without a config file) ─
	if configPath == "" {
		cfg, err := LoadEnv()
		if err != nil {
			log.Fatalf("config path is not set (use --config flag or CONFIG_PATH env var) and %v", err)
		}
		return cfg
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
