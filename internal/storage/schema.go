package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchemaJSON describes the persisted document. Unknown keys are
// allowed: documents written by the legacy desktop app carry extra fields.
const documentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "timestamp": {
      "type": "string",
      "pattern": "^\\d{4}-\\d{2}-\\d{2} \\d{2}:\\d{2}(:\\d{2})?$"
    },
    "task": {
      "type": "object",
      "required": ["text", "priority", "created"],
      "properties": {
        "id": {"type": "string"},
        "text": {"type": "string", "minLength": 1},
        "priority": {"enum": ["High", "Medium", "Low"]},
        "created": {"$ref": "#/definitions/timestamp"},
        "completed": {"$ref": "#/definitions/timestamp"}
      }
    }
  },
  "properties": {
    "tasks": {"type": "array", "items": {"$ref": "#/definitions/task"}},
    "completed_tasks": {
      "type": "array",
      "items": {
        "allOf": [
          {"$ref": "#/definitions/task"},
          {"required": ["completed"]}
        ]
      }
    },
    "scheduled_tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "created"],
        "anyOf": [
          {"required": ["target_time"]},
          {"required": ["datetime"]}
        ],
        "properties": {
          "id": {"type": "string"},
          "text": {"type": "string", "minLength": 1},
          "created": {"$ref": "#/definitions/timestamp"},
          "target_time": {"$ref": "#/definitions/timestamp"},
          "datetime": {"$ref": "#/definitions/timestamp"}
        }
      }
    },
    "streak_count": {"type": "integer", "minimum": 0},
    "last_completed_date": {
      "type": ["string", "null"],
      "pattern": "^\\d{4}-\\d{2}-\\d{2}$"
    },
    "reminder_enabled": {"type": "boolean"},
    "water_reminder_active": {"type": "boolean"}
  }
}`

var documentSchema = jsonschema.MustCompileString("todo-state.schema.json", documentSchemaJSON)

// SchemaError reports a document that does not match the persisted schema.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "invalid state document: " + e.Message
	}
	return fmt.Sprintf("invalid state document at %s: %s", e.Path, e.Message)
}

// ValidateDocument checks raw JSON against the persisted document schema.
func ValidateDocument(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode state document: %w", err)
	}
	if err := documentSchema.Validate(v); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError reduces a jsonschema error tree to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &SchemaError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &SchemaError{
		Path:    strings.TrimPrefix(ve.InstanceLocation, "#"),
		Message: ve.Message,
	}
}
