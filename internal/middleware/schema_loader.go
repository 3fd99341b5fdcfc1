package middleware

import (
	"encoding/json"
	"fmt"
	"strings"

	contextutils "modleapp/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

// Request body schemas, keyed by the names routes register themselves under.
// Kept as raw JSON Schema so validation failures carry field-level detail.
var requestSchemaSources = map[string]string{
	"LoginRequest": `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["username", "password"],
		"additionalProperties": false,
		"properties": {
			"username": {"type": "string", "minLength": 1, "maxLength": 64},
			"password": {"type": "string", "minLength": 1}
		}
	}`,
	"UserCreateRequest": `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["username", "password"],
		"additionalProperties": false,
		"properties": {
			"username": {"type": "string", "minLength": 1, "maxLength": 64},
			"password": {"type": "string", "minLength": 8},
			"email": {"type": "string"},
			"timezone": {"type": "string"},
			"preferred_language": {"type": "string"}
		}
	}`,
	"UserUpdateRequest": `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"email": {"type": "string"},
			"timezone": {"type": "string"},
			"preferred_language": {"type": "string"}
		}
	}`,
	"ResultRequest": `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["language", "date", "correct", "guesses"],
		"additionalProperties": false,
		"properties": {
			"language": {"type": "string", "minLength": 1},
			"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
			"correct": {"type": "boolean"},
			"guesses": {
				"type": "array",
				"maxItems": 5,
				"items": {"type": "string", "minLength": 1}
			}
		}
	}`,
	"PuzzleCreateRequest": `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["language", "date", "answer", "hints"],
		"additionalProperties": false,
		"properties": {
			"language": {"type": "string", "minLength": 1},
			"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
			"answer": {"type": "string", "minLength": 1},
			"hints": {
				"type": "array",
				"minItems": 1,
				"maxItems": 5,
				"items": {"type": "string", "minLength": 1}
			}
		}
	}`,
}

// SchemaLoader holds the compiled request body schemas
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaLoader compiles the embedded request schemas. Compilation failures
// are programmer errors and panic at startup rather than surfacing per request.
func NewSchemaLoader() *SchemaLoader {
	loader := &SchemaLoader{
		schemas: make(map[string]*gojsonschema.Schema, len(requestSchemaSources)),
	}
	for name, source := range requestSchemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
		}
		loader.schemas[name] = schema
	}
	return loader
}

// HasSchema reports whether a schema is registered under the given name
func (sl *SchemaLoader) HasSchema(name string) bool {
	_, ok := sl.schemas[name]
	return ok
}

// ValidateBytes validates a raw JSON document against a named schema
func (sl *SchemaLoader) ValidateBytes(body []byte, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	if !json.Valid(body) {
		return contextutils.NewAppError(
			contextutils.ErrorCodeInvalidFormat,
			contextutils.SeverityWarn,
			"Request body is not valid JSON",
			"",
		)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return contextutils.WrapError(err, "validation error")
	}

	if !result.Valid() {
		var validationErrors []string
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.NewAppError(
			contextutils.ErrorCodeValidationFailed,
			contextutils.SeverityWarn,
			"Request validation failed",
			strings.Join(validationErrors, "; "),
		)
	}
	return nil
}

// ValidateData validates any JSON-marshalable value against a named schema
func (sl *SchemaLoader) ValidateData(data interface{}, schemaName string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal data")
	}
	return sl.ValidateBytes(jsonData, schemaName)
}
