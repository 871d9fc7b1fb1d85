package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sheridangray/family-event-planner/internal/dedup"
	"github.com/sheridangray/family-event-planner/internal/location"
)

// Source types understood by the scraper
const (
	SourceHTML = "html"
	SourceRSS  = "rss"
	SourceJSON = "json"
)

type Config struct {
	DataDir string        `yaml:"data_dir"`
	Logging LoggingConfig `yaml:"logging"`
	Dedup   DedupConfig   `yaml:"dedup"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Sources []Source      `yaml:"sources"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DedupConfig struct {
	Threshold  float64       `yaml:"threshold"`
	Boost      float64       `yaml:"boost"`
	MaxDateGap time.Duration `yaml:"max_date_gap"`
	Weights    dedup.Weights `yaml:"weights"`
}

type AuditConfig struct {
	// SQLitePath enables the merge audit log when set
	SQLitePath string        `yaml:"sqlite_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	UserAgent   string        `yaml:"user_agent"`
}

// Source is one event listing to fetch
type Source struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	URL           string  `yaml:"url"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxRetries    int     `yaml:"max_retries"`
}

func Default() Config {
	return Config{
		DataDir: "~/.family-events",
		Logging: LoggingConfig{
			Level: "info",
		},
		Dedup: DedupConfig{
			Threshold:  dedup.DefaultThreshold,
			Boost:      dedup.DefaultBoost,
			MaxDateGap: dedup.DefaultMaxDateGap,
			Weights:    dedup.DefaultWeights,
		},
		Audit: AuditConfig{
			Timeout: dedup.DefaultAuditTimeout,
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			Concurrency: 4,
			UserAgent:   "family-events/1.0",
		},
	}
}

// Load reads a YAML config file and merges it over defaults.
// An empty path or a missing file returns the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Sources {
		cfg.Sources[i].applyDefaults()
	}
	return cfg, nil
}

func (s *Source) applyDefaults() {
	if s.RatePerSecond <= 0 {
		s.RatePerSecond = 1
	}
	if s.Burst <= 0 {
		s.Burst = 1
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
}

// Validate reports every problem found in the configuration
func (c Config) Validate() error {
	var errs []error

	if sum := c.Dedup.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		errs = append(errs, fmt.Errorf("dedup weights must sum to 1, got %.4f", sum))
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		errs = append(errs, fmt.Errorf("dedup threshold must be in (0, 1], got %v", c.Dedup.Threshold))
	}
	if c.Dedup.Boost < 0 {
		errs = append(errs, fmt.Errorf("dedup boost must not be negative, got %v", c.Dedup.Boost))
	}
	if c.Dedup.MaxDateGap < 0 {
		errs = append(errs, fmt.Errorf("dedup max_date_gap must not be negative, got %v", c.Dedup.MaxDateGap))
	}
	if c.Audit.Timeout < 0 {
		errs = append(errs, fmt.Errorf("audit timeout must not be negative, got %v", c.Audit.Timeout))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch concurrency must be at least 1, got %d", c.Fetch.Concurrency))
	}

	seen := make(map[string]bool)
	for i, s := range c.Sources {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("source %d has no name", i))
		case seen[s.Name]:
			errs = append(errs, fmt.Errorf("duplicate source name %q", s.Name))
		}
		seen[s.Name] = true

		switch s.Type {
		case SourceHTML, SourceRSS, SourceJSON:
		default:
			errs = append(errs, fmt.Errorf("source %q has unknown type %q", s.Name, s.Type))
		}
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("source %q has no url", s.Name))
		}
	}

	return errors.Join(errs...)
}

// DedupOptions translates the dedup section and the audit write timeout into
// deduplicator options. A zero timeout keeps the deduplicator default.
func (c Config) DedupOptions() []dedup.Option {
	opts := []dedup.Option{
		dedup.WithThreshold(c.Dedup.Threshold),
		dedup.WithScorer(dedup.NewScorer(location.New(), c.Dedup.Weights, c.Dedup.Boost)),
		dedup.WithMaxDateGap(c.Dedup.MaxDateGap),
	}
	if c.Audit.Timeout > 0 {
		opts = append(opts, dedup.WithAuditTimeout(c.Audit.Timeout))
	}
	return opts
}
