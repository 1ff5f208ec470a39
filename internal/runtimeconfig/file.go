package runtimeconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goliatone/go-wiki/internal/validation"
	"gopkg.in/yaml.v3"
)

// ConfigJSONSchema documents the YAML shape accepted by LoadFile. Durations
// use Go syntax ("90s", "5m").
const ConfigJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "WikiConfig",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "storage": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "driver": {"type": "string", "enum": ["", "memory", "sqlite", "sqlite3", "pg", "postgres", "postgresql"]},
        "dsn": {"type": "string"},
        "max_open_conns": {"type": "integer", "minimum": 0}
      }
    },
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "default_ttl": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))+$"}
      }
    },
    "markup": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "wiki_prefix": {"type": "string"},
        "typographer": {"type": "boolean"}
      }
    },
    "commands": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "timeout": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))+$"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "provider": {"type": "string"},
        "level": {"type": "string"},
        "format": {"type": "string"},
        "add_source": {"type": "boolean"},
        "focus": {"type": "array", "items": {"type": "string"}}
      }
    },
    "features": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "logger": {"type": "boolean"}
      }
    }
  }
}
`

var configSchema = validation.MustCompile("wiki-config.json", ConfigJSONSchema)

// LoadFile reads a YAML configuration file and overlays it on DefaultConfig.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("wiki config: read %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("wiki config: %s: %w", path, err)
	}
	return cfg, nil
}

// Load parses YAML configuration. Unset keys keep their defaults. The document
// is checked against ConfigJSONSchema before decoding and the result is
// validated with Config.Validate.
func Load(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if document != nil {
		if err := configSchema.Validate(document); err != nil {
			return Config{}, err
		}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = NormalizeDriver(cfg.Storage.Driver)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
