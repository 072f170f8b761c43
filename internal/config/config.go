// Package config loads server settings from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultGameID is the leaderboard tracked when none are configured.
const DefaultGameID = "k6qg0xdg"

// Game is a tracked leaderboard.
type Game struct {
	ID   string
	Name string
}

// Config holds all configuration values for the server.
type Config struct {
	DatabaseURL string
	HTTPPort    int

	// Upstream speedrun.com API
	UpstreamURL     string
	UpstreamTimeout time.Duration
	DecodePolicy    string

	// Tracked leaderboards, sorted by id
	Games []Game

	// Auth and booking policy
	AuthMode            string
	AuthenticatedClaims bool
	ForceRelease        bool
	IdentityCacheSize   int
	IdentityCacheTTL    time.Duration

	// Background refresh and cleanup; zero interval disables it
	SyncInterval   time.Duration
	SyncMaxBackoff time.Duration

	// Requests per second per caller
	RateLimit float64
	RateBurst int

	OTELEndpoint string
	LogLevel     string
}

var envBindings = map[string]string{
	"database_url":         "DATABASE_URL",
	"http_port":            "PORT",
	"upstream_url":         "UPSTREAM_URL",
	"upstream_timeout":     "UPSTREAM_TIMEOUT",
	"decode_policy":        "DECODE_POLICY",
	"games":                "GAMES",
	"auth_mode":            "AUTH_MODE",
	"authenticated_claims": "AUTHENTICATED_CLAIMS",
	"force_release":        "FORCE_RELEASE",
	"identity_cache_size":  "IDENTITY_CACHE_SIZE",
	"identity_cache_ttl":   "IDENTITY_CACHE_TTL",
	"sync_interval":        "SYNC_INTERVAL",
	"sync_max_backoff":     "SYNC_MAX_BACKOFF",
	"rate_limit":           "RATE_LIMIT",
	"rate_burst":           "RATE_BURST",
	"otel_endpoint":        "OTEL_EXPORTER_OTLP_ENDPOINT",
	"log_level":            "LOG_LEVEL",
}

// Load reads configuration from path (optional) with environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 8080)
	v.SetDefault("upstream_url", "https://www.speedrun.com/api/v1")
	v.SetDefault("upstream_timeout", 10*time.Second)
	v.SetDefault("decode_policy", "skip")
	v.SetDefault("games", map[string]string{DefaultGameID: "Super Mario 64"})
	v.SetDefault("auth_mode", "apikey")
	v.SetDefault("authenticated_claims", true)
	v.SetDefault("force_release", false)
	v.SetDefault("identity_cache_size", 256)
	v.SetDefault("identity_cache_ttl", 10*time.Minute)
	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("sync_max_backoff", 40*time.Minute)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("log_level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:         v.GetString("database_url"),
		HTTPPort:            v.GetInt("http_port"),
		UpstreamURL:         strings.TrimRight(v.GetString("upstream_url"), "/"),
		UpstreamTimeout:     v.GetDuration("upstream_timeout"),
		DecodePolicy:        strings.ToLower(v.GetString("decode_policy")),
		Games:               parseGames(v.GetStringMapString("games")),
		AuthMode:            strings.ToLower(v.GetString("auth_mode")),
		AuthenticatedClaims: v.GetBool("authenticated_claims"),
		ForceRelease:        v.GetBool("force_release"),
		IdentityCacheSize:   v.GetInt("identity_cache_size"),
		IdentityCacheTTL:    v.GetDuration("identity_cache_ttl"),
		SyncInterval:        v.GetDuration("sync_interval"),
		SyncMaxBackoff:      v.GetDuration("sync_max_backoff"),
		RateLimit:           v.GetFloat64("rate_limit"),
		RateBurst:           v.GetInt("rate_burst"),
		OTELEndpoint:        v.GetString("otel_endpoint"),
		LogLevel:            v.GetString("log_level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url is required (env: DATABASE_URL)")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.DecodePolicy != "skip" && c.DecodePolicy != "abort" {
		return fmt.Errorf("invalid decode_policy %q: must be 'skip' or 'abort'", c.DecodePolicy)
	}
	if c.AuthMode != "apikey" && c.AuthMode != "password" {
		return fmt.Errorf("invalid auth_mode %q: must be 'apikey' or 'password'", c.AuthMode)
	}
	if len(c.Games) == 0 {
		return errors.New("at least one game must be configured")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("invalid upstream_timeout: %v", c.UpstreamTimeout)
	}
	if c.IdentityCacheTTL <= 0 {
		return fmt.Errorf("invalid identity_cache_ttl: %v", c.IdentityCacheTTL)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("invalid sync_interval: %v", c.SyncInterval)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("rate_limit and rate_burst must be positive")
	}
	return nil
}

func parseGames(m map[string]string) []Game {
	games := make([]Game, 0, len(m))
	for id, name := range m {
		if id == "" {
			continue
		}
		games = append(games, Game{ID: id, Name: name})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games
}
