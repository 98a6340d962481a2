// Package config loads the optional fluxgraph.yaml file of the command line tool.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config flag is given. A missing default file is not an error.
const DefaultFile = "fluxgraph.yaml"

// Store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the file form of the command line settings. Flags override it.
type Config struct {
	// Dir is the project directory of the file store.
	Dir string `yaml:"dir"`
	// Format is the document format of the file store: json or yaml.
	Format    string   `yaml:"format"`
	LogLevel  string   `yaml:"logLevel"`
	Factories []string `yaml:"factories"`

	Store   Store   `yaml:"store"`
	HTTP    HTTP    `yaml:"http"`
	History History `yaml:"history"`
}

// Store selects the project store.
type Store struct {
	Kind string `yaml:"kind"`
	// Path is the database file of the sqlite store.
	Path  string `yaml:"path"`
	Redis Redis  `yaml:"redis"`

	// Validate refuses to save projects that fail validation.
	Validate bool `yaml:"validate"`
	// EncryptionKey is a base64 AES-256 key. When set, projects are stored encrypted.
	EncryptionKey string `yaml:"encryptionKey"`
	// FallbackKeys decrypt projects saved before a key rotation.
	FallbackKeys []string `yaml:"fallbackKeys"`
}

// Keys decodes the encryption keys. The active key is nil when encryption is off.
func (s Store) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// Redis configures the redis store and the distributed lock.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables the distributed session lock.
	Lock    bool          `yaml:"lock"`
	LockTTL time.Duration `yaml:"lockTTL"`
}

// HTTP configures the serve command.
type HTTP struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// History configures editor histories.
type History struct {
	// Capacity bounds the snapshots kept per project. Zero keeps them all.
	Capacity int `yaml:"capacity"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Dir:      ".",
		Format:   "json",
		LogLevel: "info",
		Store: Store{
			Kind:     StoreFile,
			Path:     "fluxgraph.db",
			Validate: true,
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "fluxgraph:",
			},
		},
		HTTP: HTTP{Addr: ":8080", Metrics: true},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown enumerations and negative sizes.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreFile, StoreMemory, StoreRedis, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	switch c.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if active, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	} else if active != nil && len(active) != 32 {
		errs = append(errs, fmt.Errorf("encryption key must be 32 bytes, got %d", len(active)))
	}
	if c.History.Capacity < 0 {
		errs = append(errs, fmt.Errorf("negative history capacity %d", c.History.Capacity))
	}
	return errors.Join(errs...)
}
