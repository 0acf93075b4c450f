package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// File is the on-disk coordinator configuration: the tool definitions the
// registry serves and the static caller->tools access policy.
type File struct {
	Tools  []ToolConfig        `yaml:"tools"`
	Policy map[string][]string `yaml:"policy"`
}

// ToolConfig describes one registered tool server
type ToolConfig struct {
	ID             string           `yaml:"id"`
	Endpoint       string           `yaml:"endpoint"`
	Capabilities   []string         `yaml:"capabilities"`
	HealthCheckURL string           `yaml:"health_check_url"`
	Auth           *AuthConfig      `yaml:"auth,omitempty"`
	RateLimit      *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// AuthConfig describes a static auth header for a tool server
type AuthConfig struct {
	Kind   string `yaml:"kind"`
	Header string `yaml:"header"`
	Token  string `yaml:"token"`
}

// RateLimitConfig describes the per-tool rate limit and concurrency cap
type RateLimitConfig struct {
	RequestsPerWindow int `yaml:"requests_per_window"`
	WindowSeconds     int `yaml:"window_seconds"`
	MaxConcurrent     int `yaml:"max_concurrent"`
}

// Load reads, schema-validates, and decodes a coordinator config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML config bytes against the embedded schema and
// decodes them. Validation happens on the generic document so schema errors
// reference the offending field rather than a Go type.
func Parse(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &f, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	raw, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
	if err != nil {
		return nil, fmt.Errorf("parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", raw); err != nil {
		return nil, fmt.Errorf("add config schema: %w", err)
	}
	schema, err := c.Compile("config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	return schema, nil
}

// configSchema constrains the coordinator config file. Tool ids and
// endpoints are required; capability lists must be non-empty, matching the
// registry's own registration checks so bad files fail at startup.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["tools", "policy"],
  "properties": {
    "tools": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "endpoint", "capabilities"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "endpoint": {"type": "string", "minLength": 1},
          "capabilities": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "health_check_url": {"type": "string"},
          "auth": {
            "type": "object",
            "required": ["kind", "header", "token"],
            "properties": {
              "kind": {"type": "string"},
              "header": {"type": "string"},
              "token": {"type": "string"}
            }
          },
          "rate_limit": {
            "type": "object",
            "properties": {
              "requests_per_window": {"type": "integer", "minimum": 1},
              "window_seconds": {"type": "integer", "minimum": 1},
              "max_concurrent": {"type": "integer", "minimum": 1}
            }
          }
        }
      }
    },
    "policy": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string", "minLength": 1}
      }
    }
  }
}`
