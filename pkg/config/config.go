// Package config loads proxy and load-balancer configuration the way
// kubilitics-ai/internal/config loads its service configuration: Viper over
// a YAML file plus environment variable overrides, with defaults set before
// the file is read so a missing file is never fatal on its own.
//
// Proxy list and strategy are read once at Load and never mutated
// afterwards — spec.md fixes both as immutable after startup. Only the log
// level is eligible for the fsnotify-backed live reload in WatchLogLevel.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProxyConfig is the configuration surface for a single proxy node
// (spec.md §6).
type ProxyConfig struct {
	Host       string
	Port       int
	OriginHost string
	OriginPort int

	CacheType   string // "ttl" or "lru"
	TTLSeconds  int
	LRUCapacity int

	WarmerEnabled   bool
	WarmerThreshold int // accesses/min at or above which a key is eligible for warming

	LogLevel string
}

// Validate enforces spec.md §6's constraints on the proxy configuration
// surface. A failure here is fatal at startup per spec.md §7.
func (c ProxyConfig) Validate() error {
	if c.Port <= 1024 {
		return fmt.Errorf("port must be greater than 1024, got %d", c.Port)
	}
	if c.OriginPort <= 1024 {
		return fmt.Errorf("origin_port must be greater than 1024, got %d", c.OriginPort)
	}
	if c.Port == c.OriginPort {
		return fmt.Errorf("port and origin_port must differ, both are %d", c.Port)
	}
	switch c.CacheType {
	case "ttl":
		if c.TTLSeconds <= 0 {
			return fmt.Errorf("ttl_seconds must be positive for cache_type=ttl, got %d", c.TTLSeconds)
		}
	case "lru":
		if c.LRUCapacity < 1 {
			return fmt.Errorf("lru_capacity must be at least 1 for cache_type=lru, got %d", c.LRUCapacity)
		}
	default:
		return fmt.Errorf("cache_type must be \"ttl\" or \"lru\", got %q", c.CacheType)
	}
	return nil
}

// LoadProxyConfig reads a proxy's configuration from path (a YAML file,
// which is optional — defaults plus PROXYFLEET_* environment variables are
// enough to run) and validates it.
func LoadProxyConfig(path string) (ProxyConfig, error) {
	v := newViper("PROXYFLEET", path)

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 9001)
	v.SetDefault("origin_host", "127.0.0.1")
	v.SetDefault("origin_port", 8000)
	v.SetDefault("cache_type", "ttl")
	v.SetDefault("ttl_seconds", 30)
	v.SetDefault("lru_capacity", 1000)
	v.SetDefault("warmer_enabled", false)
	v.SetDefault("warmer_threshold", 5)
	v.SetDefault("log_level", "info")

	if err := readConfig(v); err != nil {
		return ProxyConfig{}, err
	}

	cfg := ProxyConfig{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		OriginHost:      v.GetString("origin_host"),
		OriginPort:      v.GetInt("origin_port"),
		CacheType:       v.GetString("cache_type"),
		TTLSeconds:      v.GetInt("ttl_seconds"),
		LRUCapacity:     v.GetInt("lru_capacity"),
		WarmerEnabled:   v.GetBool("warmer_enabled"),
		WarmerThreshold: v.GetInt("warmer_threshold"),
		LogLevel:        v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return ProxyConfig{}, err
	}
	return cfg, nil
}

// LBConfig is the configuration surface for the load balancer (spec.md §6).
type LBConfig struct {
	Host    string
	Port     int
	Proxies  []string // "host:port" entries, ordered, immutable after Load
	Strategy string   // "round_robin" or "least_loaded"

	PollInterval time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int

	LogLevel string
}

// Validate enforces spec.md §6's constraints on the load-balancer
// configuration surface, including that every proxy entry parses as a
// host:port pair (a malformed address is a fatal config error per
// spec.md §7).
func (c LBConfig) Validate() error {
	switch c.Strategy {
	case "round_robin", "least_loaded":
	default:
		return fmt.Errorf("strategy must be \"round_robin\" or \"least_loaded\", got %q", c.Strategy)
	}
	for _, p := range c.Proxies {
		if _, _, err := net.SplitHostPort(p); err != nil {
			return fmt.Errorf("invalid proxy address %q: %w", p, err)
		}
	}
	return nil
}

// LoadLBConfig reads the load balancer's configuration from path.
func LoadLBConfig(path string) (LBConfig, error) {
	v := newViper("LBFLEET", path)

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8000)
	v.SetDefault("strategy", "round_robin")
	v.SetDefault("poll_interval_seconds", 2)
	v.SetDefault("rate_limit_per_second", 50.0)
	v.SetDefault("rate_limit_burst", 100)
	v.SetDefault("log_level", "info")

	if err := readConfig(v); err != nil {
		return LBConfig{}, err
	}

	cfg := LBConfig{
		Host:               v.GetString("host"),
		Port:               v.GetInt("port"),
		Proxies:            splitProxies(v.GetStringSlice("proxies")),
		Strategy:           v.GetString("strategy"),
		PollInterval:       time.Duration(v.GetInt("poll_interval_seconds")) * time.Second,
		RateLimitPerSecond: v.GetFloat64("rate_limit_per_second"),
		RateLimitBurst:     v.GetInt("rate_limit_burst"),
		LogLevel:           v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return LBConfig{}, err
	}
	return cfg, nil
}

func splitProxies(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newViper(envPrefix, path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func readConfig(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// ReloadableLevel is the subset of configuration this package allows to
// change after startup: only the log level. Everything that would affect
// the immutable proxy list or strategy (spec.md §3) is deliberately not
// wired into WatchLogLevel.
type ReloadableLevel struct {
	LogLevel string
}

// WatchLogLevel watches path for changes and invokes onChange with the new
// log level whenever the file is rewritten. It never touches the proxy
// list, strategy, or any other structural field — those are snapshotted
// once by LoadProxyConfig/LoadLBConfig and never revisited.
func WatchLogLevel(path string, onChange func(ReloadableLevel)) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("log_level", "info")
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		onChange(ReloadableLevel{LogLevel: v.GetString("log_level")})
	})
	return nil
}
