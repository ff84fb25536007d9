// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package config loads the clustering service's configuration through a
// layered koanf stack: compiled-in defaults, an optional YAML file, then
// environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths is searched, in order, for a config file when none is
// given explicitly.
var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/burbujas/config.yaml"}

// ConfigPathEnvVar overrides the file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the prefix environment variables must carry to be picked up,
// e.g. BURBUJAS_CLUSTERING_WINDOW_DAYS overrides Clustering.WindowDays.
const EnvPrefix = "BURBUJAS_"

// ClusteringConfig holds the run coordinator's default parameters. The
// trigger command overrides window_days, min_voters and min_votes_per_voter
// per invocation; the other fields come from configuration only.
type ClusteringConfig struct {
	WindowDays       int     `koanf:"window_days"`
	MinVoters        int     `koanf:"min_voters"`
	MinVotesPerVoter int     `koanf:"min_votes_per_voter"`
	NeutralEpsilon   float64 `koanf:"neutral_epsilon"`
	KGroupMin        int     `koanf:"k_group_min"`
	KGroupMax        int     `koanf:"k_group_max"`
	Seed             int64   `koanf:"seed"`
	LeaseTTLSeconds  int     `koanf:"lease_ttl_seconds"`
	TrainInterval    string  `koanf:"run_interval"` // parsed as a time.Duration by the caller
}

// StorageConfig points at the DuckDB database file the run coordinator
// persists runs to, and the Badger directory backing the clustering lease.
type StorageConfig struct {
	DuckDBPath  string `koanf:"duckdb_path"`
	LeaseDBPath string `koanf:"lease_db_path"`
}

// EventsConfig configures the embedded NATS server and watermill publisher
// used for the naming hook call-out and completed-run notifications.
type EventsConfig struct {
	EmbeddedServer bool   `koanf:"embedded_server"`
	URL            string `koanf:"url"`
	RunCompletedSubject string `koanf:"run_completed_subject"`
	NamingRequestSubject string `koanf:"naming_request_subject"`
}

// APIConfig configures the read-only query API (C9).
type APIConfig struct {
	ListenAddr      string `koanf:"listen_addr"`
	RateLimitPerMin int    `koanf:"rate_limit_per_min"`
	JWTSigningKey   string `koanf:"jwt_signing_key"`
}

// VoteStoreConfig points at the external platform API (C1) the matrix
// builder reads votes and claim events from.
type VoteStoreConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

// LoggingConfig mirrors logging.Config's koanf-loadable fields.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the top-level configuration tree.
type Config struct {
	Clustering ClusteringConfig `koanf:"clustering"`
	Storage    StorageConfig    `koanf:"storage"`
	Events     EventsConfig     `koanf:"events"`
	API        APIConfig        `koanf:"api"`
	VoteStore  VoteStoreConfig  `koanf:"vote_store"`
	Logging    LoggingConfig    `koanf:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Clustering: ClusteringConfig{
			WindowDays:       30,
			MinVoters:        50,
			MinVotesPerVoter: 3,
			NeutralEpsilon:   1e-4,
			KGroupMin:        2,
			KGroupMax:        5,
			Seed:             42,
			LeaseTTLSeconds:  30 * 60,
			TrainInterval:    "24h",
		},
		Storage: StorageConfig{
			DuckDBPath:  "burbujas.duckdb",
			LeaseDBPath: "burbujas-lease",
		},
		Events: EventsConfig{
			EmbeddedServer:       true,
			URL:                  "nats://127.0.0.1:4222",
			RunCompletedSubject:  "burbujas.run.completed",
			NamingRequestSubject: "burbujas.naming.requested",
		},
		API: APIConfig{
			ListenAddr:      ":8080",
			RateLimitPerMin: 120,
		},
		VoteStore: VoteStoreConfig{
			BaseURL: "http://localhost:3000/api/internal",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the layered configuration. path, if non-empty, is tried
// before DefaultConfigPaths; CONFIG_PATH in the environment wins over both.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if resolved := resolvePath(path); resolved != "" {
		if err := k.Load(file.Provider(resolved), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", resolved, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		// Only the first underscore introduces the section ("clustering",
		// "storage", ...); the rest of the name stays snake_case to match
		// the struct koanf tags, e.g. BURBUJAS_CLUSTERING_WINDOW_DAYS ->
		// clustering.window_days.
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func resolvePath(explicit string) string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	if explicit != "" {
		return explicit
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
