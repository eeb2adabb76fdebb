// Package config loads the formguard service configuration from an optional
// YAML file, layered over defaults and FORMGUARD_ environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/guard"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMGUARD_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full service configuration.
type Config struct {
	Addr     string  `yaml:"addr"`
	Database string  `yaml:"database"`
	Locale   string  `yaml:"locale"`
	Rules    string  `yaml:"rules"`
	Notice   string  `yaml:"notice"`
	Theme    Theme   `yaml:"theme"`
	DNS      DNS     `yaml:"dns"`
	Signals  Signals `yaml:"signals"`
	Log      Log     `yaml:"log"`
}

// Theme selects the page theme and overrides individual tokens.
type Theme struct {
	Name    string            `yaml:"name"`
	Variant string            `yaml:"variant"`
	Tokens  map[string]string `yaml:"tokens"`
}

// DNS configures the related-domain probe.
type DNS struct {
	Enabled bool          `yaml:"enabled"`
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`
	// ResolvConf is read for a nameserver when Server is empty.
	ResolvConf string `yaml:"resolv_conf"`
}

// Signals configures signal caching.
type Signals struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Database: "data/formguard.db",
		Locale:   guard.DefaultLocale,
		DNS: DNS{
			Timeout:    estimate.DefaultDNSTimeout,
			ResolvConf: "/etc/resolv.conf",
		},
		Signals: Signals{CacheTTL: estimate.DefaultCacheTTL},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result without
// consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides addr, database and locale from FORMGUARD_ADDR,
// FORMGUARD_DATABASE and FORMGUARD_LOCALE.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	for key, dst := range map[string]*string{
		"ADDR":     &c.Addr,
		"DATABASE": &c.Database,
		"LOCALE":   &c.Locale,
	} {
		if value, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr is required")
	}
	if strings.TrimSpace(c.Database) == "" {
		problems = append(problems, "database is required")
	}
	if strings.TrimSpace(c.Locale) == "" {
		problems = append(problems, "locale is required")
	}
	if c.DNS.Enabled && c.DNS.Timeout <= 0 {
		problems = append(problems, "dns.timeout must be positive")
	}
	if c.Signals.CacheTTL < 0 {
		problems = append(problems, "signals.cache_ttl must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is unknown", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// NewLogger builds a logrus logger writing to out.
func (l Log) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if out != nil {
		logger.SetOutput(out)
	}
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
