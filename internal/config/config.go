package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/platformid/internal/fingerprint"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMemgraph = "memgraph"

	ProfileCustom = "custom"
)

type ServerConfig struct {
	Port                  string `toml:"port"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

type StoreConfig struct {
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// MatchingConfig selects the weight table and threshold used by the resolver.
// Weights listed here override (or, for the custom profile, replace) the
// profile's table. Threshold overrides the profile's threshold when > 0.
type MatchingConfig struct {
	Profile   string         `toml:"profile"`
	Threshold float64        `toml:"threshold"`
	Weights   map[string]int `toml:"weights"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Matching MatchingConfig `toml:"matching"`
	Logging  LoggingConfig  `toml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  "8080",
			RequestTimeoutSeconds: 10,
		},
		Store: StoreConfig{
			Backend:    BackendMemory,
			SQLitePath: "data/platformid.db",
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Matching: MatchingConfig{
			Profile: fingerprint.StandardProfile.Name,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides file values with environment variables when set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("MATCH_PROFILE"); v != "" {
		c.Matching.Profile = v
	}
	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MATCH_THRESHOLD: %w", err)
		}
		c.Matching.Threshold = th
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// BuildMatching resolves the profile, weight overrides and threshold into
// the resolver's immutable configuration.
func (c *Config) BuildMatching() (fingerprint.Matching, error) {
	name := strings.ToLower(strings.TrimSpace(c.Matching.Profile))
	if name == "" {
		name = fingerprint.StandardProfile.Name
	}

	weights := make(map[string]int)
	threshold := c.Matching.Threshold
	if name != ProfileCustom {
		p, ok := fingerprint.LookupProfile(name)
		if !ok {
			return fingerprint.Matching{}, fmt.Errorf("matching: unknown profile %q", c.Matching.Profile)
		}
		weights = p.Weights
		if threshold == 0 {
			threshold = p.Threshold
		}
	} else if len(c.Matching.Weights) == 0 {
		return fingerprint.Matching{}, fmt.Errorf("matching: custom profile needs [matching.weights]")
	}
	for field, w := range c.Matching.Weights {
		weights[field] = w
	}

	table, err := fingerprint.NewWeightTable(weights)
	if err != nil {
		return fingerprint.Matching{}, fmt.Errorf("matching: %w", err)
	}
	m, err := fingerprint.NewMatching(table, threshold)
	if err != nil {
		return fingerprint.Matching{}, fmt.Errorf("matching: %w", err)
	}
	return m, nil
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store: sqlite_path is required for the sqlite backend")
		}
	case BackendMemgraph:
		if strings.TrimSpace(c.Memgraph.URI) == "" {
			return fmt.Errorf("memgraph: uri is required for the memgraph backend")
		}
	default:
		return fmt.Errorf("store: unsupported backend %q", c.Store.Backend)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("server: request_timeout_seconds must not be negative")
	}
	if _, err := c.BuildMatching(); err != nil {
		return err
	}
	return nil
}
