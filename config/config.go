// Package config provides YAML configuration parsing for feedwatch.
//
// This package enables running feedwatch as a standalone binary with a
// provider registry file, as an alternative to the programmatic SDK
// approach.
//
// Example configuration:
//
//	port: 8085
//	stagger_delay: 300ms
//	max_concurrent_fetches: 20
//
//	providers:
//	  - name: OpenAI
//	    feed_url: https://status.openai.com/history.atom
//	    poll_interval_seconds: 60
//	    product: OpenAI API
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Parse when the file leaves fields unset.
const (
	DefaultPort                 = 8085
	DefaultStaggerDelay         = 300 * time.Millisecond
	DefaultMaxConcurrentFetches = 20
	DefaultPollIntervalSeconds  = 30
)

// Config is the root configuration structure for feedwatch.
//
// It maps directly to the YAML configuration file. Use [Load] or [Parse]
// to create a Config.
type Config struct {
	// Title is the dashboard title. Defaults to "feedwatch" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP port for the dashboard/SSE server. Defaults to 8085.
	Port int `yaml:"port"`

	// StaggerDelay is the pause between successive polling-task launches.
	// Accepts duration strings like "300ms", "1s". Defaults to 300ms.
	StaggerDelay Duration `yaml:"stagger_delay"`

	// MaxConcurrentFetches caps simultaneous in-flight feed requests
	// across all providers. Defaults to 20.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`

	// Providers is the ordered registry of status-page feeds to poll.
	// At least one provider is required.
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig defines a single status-page feed.
type ProviderConfig struct {
	// Name uniquely identifies the provider.
	Name string `yaml:"name"`

	// FeedURL is the Atom/RSS feed URL. Supports environment variable
	// substitution: ${VAR} or ${VAR:-default}.
	FeedURL string `yaml:"feed_url"`

	// PollIntervalSeconds is the base interval between polls.
	// Defaults to 30.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// Product is the label prefixed to entry titles in emitted events.
	// Defaults to Name.
	Product string `yaml:"product"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values. A reference to an unset variable without a default
// is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables in feed URLs, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	for i := range cfg.Providers {
		expanded, err := expandEnvVars(cfg.Providers[i].FeedURL)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", cfg.Providers[i].Name, err)
		}
		cfg.Providers[i].FeedURL = expanded
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.StaggerDelay == 0 {
		cfg.StaggerDelay = Duration(DefaultStaggerDelay)
	}
	if cfg.MaxConcurrentFetches == 0 {
		cfg.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.PollIntervalSeconds == 0 {
			p.PollIntervalSeconds = DefaultPollIntervalSeconds
		}
		if p.Product == "" {
			p.Product = p.Name
		}
	}
}

func validate(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return errors.New("at least one provider is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConcurrentFetches < 1 {
		return fmt.Errorf("max_concurrent_fetches must be positive, got %d", cfg.MaxConcurrentFetches)
	}
	if cfg.StaggerDelay < 0 {
		return errors.New("stagger_delay must not be negative")
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Name == "" {
			return errors.New("provider name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %q", p.Name)
		}
		seen[p.Name] = true

		if err := validateFeedURL(p.FeedURL); err != nil {
			return fmt.Errorf("provider %q: %w", p.Name, err)
		}
		if p.PollIntervalSeconds < 1 {
			return fmt.Errorf("provider %q: poll_interval_seconds must be positive, got %d", p.Name, p.PollIntervalSeconds)
		}
	}
	return nil
}

func validateFeedURL(raw string) error {
	if raw == "" {
		return errors.New("feed_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed_url must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("feed_url has no host: %q", raw)
	}
	return nil
}
