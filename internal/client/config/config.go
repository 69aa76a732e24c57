package config

import "time"

// Config holds runtime settings for the tripkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the trip backend.
//   - DatabasePath: SQLite file holding the cache, the action queue and the session.
//   - OnlineCheckInterval: how often device connectivity is probed.
//   - RequestTimeout: upper bound for a single HTTP exchange.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL           string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "tripkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
