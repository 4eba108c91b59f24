// Package config loads server and pipeline configuration for neatgraph.
//
// Configuration comes from three layers, later layers winning:
//  1. Built-in defaults (Default)
//  2. An optional config file in TOML, YAML or JSON, picked by extension
//  3. Environment variables for addresses and secrets
//
// Timeout fields hold whole seconds so the same value reads naturally in
// every supported file format.
package config

import (
	"fmt"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `toml:"server" yaml:"server" json:"server"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache" json:"cache"`
	Store  StoreConfig  `toml:"store" yaml:"store" json:"store"`
	Layout LayoutConfig `toml:"layout" yaml:"layout" json:"layout"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr            string `toml:"addr" yaml:"addr" json:"addr"`
	ReadTimeout     int    `toml:"read_timeout" yaml:"read_timeout" json:"read_timeout"`             // seconds
	WriteTimeout    int    `toml:"write_timeout" yaml:"write_timeout" json:"write_timeout"`          // seconds
	ShutdownTimeout int    `toml:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"` // seconds
	TaskLimit       int    `toml:"task_limit" yaml:"task_limit" json:"task_limit"`                   // max concurrent async layout tasks
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend" yaml:"backend" json:"backend"` // file, redis or none
	Dir     string      `toml:"dir" yaml:"dir" json:"dir"`             // file backend directory
	Prefix  string      `toml:"prefix" yaml:"prefix" json:"prefix"`    // key namespace prefix
	Redis   RedisConfig `toml:"redis" yaml:"redis" json:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr" json:"addr"`
	Password string `toml:"password" yaml:"password" json:"password"`
	DB       int    `toml:"db" yaml:"db" json:"db"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend string      `toml:"backend" yaml:"backend" json:"backend"` // memory, sqlite or mongo
	Path    string      `toml:"path" yaml:"path" json:"path"`          // sqlite database file
	Mongo   MongoConfig `toml:"mongo" yaml:"mongo" json:"mongo"`
}

// MongoConfig configures the mongo store backend.
type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri" json:"uri"`
	Database   string `toml:"database" yaml:"database" json:"database"`
	Collection string `toml:"collection" yaml:"collection" json:"collection"`
}

// LayoutConfig configures layout behavior.
type LayoutConfig struct {
	Preset  string               `toml:"preset" yaml:"preset" json:"preset"`    // default preset name
	Worker  bool                 `toml:"worker" yaml:"worker" json:"worker"`    // run a warmed layout worker
	Queue   int                  `toml:"queue" yaml:"queue" json:"queue"`       // worker queue depth
	Density layout.DensityPolicy `toml:"density" yaml:"density" json:"density"` // auto preset selection knobs
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8721",
			ReadTimeout:     15,
			WriteTimeout:    60,
			ShutdownTimeout: 10,
			TaskLimit:       16,
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Layout: LayoutConfig{
			Preset:  layout.DefaultPreset,
			Worker:  true,
			Queue:   16,
			Density: layout.DefaultDensityPolicy(),
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive seconds")
	}
	if c.Server.TaskLimit < 0 {
		return fmt.Errorf("server.task_limit cannot be negative")
	}

	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case "", "memory", "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Layout.Queue < 0 {
		return fmt.Errorf("layout.queue cannot be negative")
	}
	return nil
}
