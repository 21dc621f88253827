// Package config loads chart definitions and server settings from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RedisConfig configures the Redis definition store and locker.
// An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" json:"password" mapstructure:"password"`
	DB       int           `yaml:"db" json:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
}

// ServerConfig represents cedar.yaml.
type ServerConfig struct {
	Port         string        `yaml:"port" json:"port" mapstructure:"port"`
	LogLevel     string        `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout" mapstructure:"query_timeout"`
	// Strict rejects remote datasets without a name.
	Strict bool `yaml:"strict" json:"strict" mapstructure:"strict"`
	// StoreDir keeps definitions on disk when Redis is not configured.
	StoreDir string      `yaml:"store_dir" json:"store_dir" mapstructure:"store_dir"`
	Token    string      `yaml:"token" json:"token" mapstructure:"token"`
	Redis    RedisConfig `yaml:"redis" json:"redis" mapstructure:"redis"`
	// Redact lists key patterns (regular expressions) masked before a
	// definition is stored.
	Redact []string `yaml:"redact" json:"redact" mapstructure:"redact"`
	// EncryptionKey is a base64 encoded AES-256 key. When set, stored
	// definitions are encrypted.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key" mapstructure:"encryption_key"`
}

// DefaultServer returns the settings used when no file is present.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		LogLevel:     "info",
		QueryTimeout: 30 * time.Second,
	}
}

// LoadServer reads server settings on top of DefaultServer.
// A missing file is not an error.
func LoadServer(path string) (ServerConfig, error) {
	cfg := DefaultServer()

	raw, err := readMap(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefinition reads a chart definition (YAML, or JSON by extension).
func LoadDefinition(path string) (*domain.Definition, error) {
	raw, err := readMap(path)
	if err != nil {
		return nil, err
	}
	return DecodeDefinition(raw)
}

// ParseDefinition decodes a definition document. Both YAML and JSON are
// accepted since JSON is valid YAML.
func ParseDefinition(data []byte) (*domain.Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return DecodeDefinition(raw)
}

// DecodeDefinition converts a generic document (e.g. MCP tool arguments)
// into a Definition.
func DecodeDefinition(raw map[string]any) (*domain.Definition, error) {
	var def domain.Definition
	if err := decode(raw, &def); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return &def, nil
}

func readMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raw, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
