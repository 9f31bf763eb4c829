// Package config handles loading and validating the gateway configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

// Config is the top-level gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Shopify ShopifyConfig `yaml:"shopify"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// ShopifyConfig defines the shop and app credentials.
type ShopifyConfig struct {
	Shop        string        `yaml:"shop"`
	APIKey      string        `yaml:"api_key"`
	APISecret   string        `yaml:"api_secret"`
	AccessToken string        `yaml:"access_token"`
	BaseURL     string        `yaml:"base_url"` // empty derives https://{shop}.myshopify.com
	TTL         time.Duration `yaml:"ttl"`
	Scopes      []string      `yaml:"scopes"`
	RedirectURL string        `yaml:"redirect_url"`
}

// ClientOptions translates the section into shopify.Client options.
func (s *ShopifyConfig) ClientOptions() []shopify.Option {
	opts := []shopify.Option{shopify.WithTTL(s.TTL)}
	if s.AccessToken != "" {
		opts = append(opts, shopify.WithAccessToken(s.AccessToken))
	}
	if s.APIKey != "" || s.APISecret != "" {
		opts = append(opts, shopify.WithCredentials(s.APIKey, s.APISecret))
	}
	if s.BaseURL != "" {
		opts = append(opts, shopify.WithBaseURL(s.BaseURL))
	}
	return opts
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyShopifyDefaults(&cfg.Shopify)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 1 << 20
	}
}

func applyShopifyDefaults(s *ShopifyConfig) {
	if s.TTL == 0 {
		s.TTL = shopify.DefaultTTL
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	s := cfg.Shopify
	if strings.TrimSpace(s.Shop) == "" {
		errs = append(errs, fmt.Errorf("shopify.shop is required"))
	}

	hasCreds := s.APIKey != "" && s.APISecret != ""
	if s.AccessToken == "" && !hasCreds {
		errs = append(errs, fmt.Errorf(
			"shopify.access_token or both shopify.api_key and shopify.api_secret are required",
		))
	}
	if (s.APIKey == "") != (s.APISecret == "") {
		errs = append(errs, fmt.Errorf("shopify.api_key and shopify.api_secret must be set together"))
	}

	if s.APIKey != "" {
		if len(s.Scopes) == 0 {
			errs = append(errs, fmt.Errorf("shopify.scopes is required when api_key is set"))
		}
		if s.RedirectURL == "" {
			errs = append(errs, fmt.Errorf("shopify.redirect_url is required when api_key is set"))
		} else if u, err := url.Parse(s.RedirectURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("shopify.redirect_url must be an absolute URL (got %q)", s.RedirectURL))
		}
	}

	if s.TTL < 0 {
		errs = append(errs, fmt.Errorf("shopify.ttl must be positive"))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)",
			cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}
