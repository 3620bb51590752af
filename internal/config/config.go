// Package config loads process configuration from config.yaml and the
// environment. Everything is read once at startup.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Zalo      ZaloConfig      `koanf:"zalo"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Storage   StorageConfig   `koanf:"storage"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type ZaloConfig struct {
	// SecretKey signs webhook payloads; supports ${VAR} expansion so the
	// yaml file can reference the environment.
	SecretKey        string `koanf:"secret_key"`
	VerifyToken      string `koanf:"verify_token"`
	AppID            string `koanf:"app_id"`
	OAID             string `koanf:"oa_id"`
	RequireSignature bool   `koanf:"require_signature"`
}

type RateLimitConfig struct {
	// MaxEventsPerMinute is the per-client admission cap for the sliding
	// window.
	MaxEventsPerMinute int `koanf:"max_events_per_minute"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, none
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml (optional) and then the environment with prefix
// WEBHOOK_, double underscores mapping to nesting: WEBHOOK_ZALO__SECRET_KEY
// sets zalo.secret_key.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path, for tests.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("WEBHOOK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WEBHOOK_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8000)
	}
	if !k.Exists("rate_limit.max_events_per_minute") {
		k.Set("rate_limit.max_events_per_minute", 100)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "none")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/events.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Zalo.SecretKey = substituteEnvVars(cfg.Zalo.SecretKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
