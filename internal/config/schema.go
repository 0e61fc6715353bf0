package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema is the JSON Schema the raw config value tree must satisfy
// before it is converted to a Config, grounded on the teacher's
// pkg/ami/schema.go embedded-schema-string pattern. Deprecated keys
// (monitor_count, array-style workflows/templates/paths) are absent from
// "properties" and rejected by additionalProperties: false.
const configSchema = `
{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["service", "monitors", "themes"],
  "additionalProperties": false,
  "properties": {
    "service": {
      "type": "object",
      "additionalProperties": false,
      "required": ["base_url"],
      "properties": {
        "base_url": {"type": "string", "minLength": 1},
        "timeout": {"type": "integer", "minimum": 1, "maximum": 3600},
        "poll_interval": {"type": "integer", "minimum": 1, "maximum": 60}
      }
    },
    "monitors": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "required": ["resolution", "output"],
        "properties": {
          "resolution": {"type": "string", "pattern": "^[0-9]+x[0-9]+$"},
          "output": {"type": "string", "minLength": 1},
          "command": {"type": "string"},
          "templates": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "themes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "required": ["workflow_prefix"],
        "properties": {
          "workflow_prefix": {"type": "string", "minLength": 1},
          "default_template": {"type": "string"}
        }
      }
    },
    "workflows": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "prompts": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "schedule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "latitude": {"type": "number"},
        "longitude": {"type": "number"},
        "timezone": {"type": "string"},
        "sunrise_time": {"type": "string"},
        "sunset_time": {"type": "string"},
        "day_themes": {"type": "array", "items": {"$ref": "#/definitions/weightedTheme"}},
        "night_themes": {"type": "array", "items": {"$ref": "#/definitions/weightedTheme"}},
        "blend_duration_minutes": {"type": "integer", "minimum": 1}
      }
    },
    "prompt": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "time_slot_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
        "use_monitor_seed": {"type": "boolean"}
      }
    },
    "atoms_root": {"type": "string", "minLength": 1},
    "prompts_root": {"type": "string", "minLength": 1},
    "config_root": {"type": "string", "minLength": 1},
    "state_path": {"type": "string", "minLength": 1},
    "history_path": {"type": "string", "minLength": 1}
  },
  "definitions": {
    "weightedTheme": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name", "weight"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "weight": {"type": "number", "minimum": 0}
      }
    }
  }
}
`

// SchemaValidator validates a decoded config value tree against
// configSchema before it is converted to a Config.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidator compiles configSchema.
func NewSchemaValidator() (*SchemaValidator, error) {
	loader := gojsonschema.NewStringLoader(configSchema)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load config schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate checks raw (the Viper-decoded value tree) against the schema,
// returning a single error naming every offending key when invalid.
func (v *SchemaValidator) Validate(raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("config: failed to marshal config for validation: %w", err)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("config: invalid configuration:\n%s", strings.Join(msgs, "\n"))
	}
	return nil
}
