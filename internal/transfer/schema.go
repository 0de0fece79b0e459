package transfer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// documentSchema describes the shape of an importable export. Field
// semantics (enums, URLs, references) are checked after decoding.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["dataTypes", "datasets", "categories", "dataTypeDatasets"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "exported_at": {"type": "string"},
    "dataTypes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "category": {"type": "string"},
          "priority": {"type": "string"},
          "status": {"type": "string"},
          "created_at": {"type": "string"}
        }
      }
    },
    "datasets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "source_url": {"type": "string"},
          "is_validated": {"type": "boolean"},
          "is_primary_example": {"type": "boolean"},
          "created_at": {"type": "string"}
        }
      }
    },
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "dataTypeDatasets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["data_type_id", "dataset_id"],
        "properties": {
          "id": {"type": "string"},
          "data_type_id": {"type": "string", "minLength": 1},
          "dataset_id": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// checkShape validates payload against documentSchema. Every violation is
// listed in the returned error.
func checkShape(payload []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling import schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: payload is not a JSON export (CSV exports cannot be imported): %v", types.ErrInvalidPayload, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", types.ErrInvalidPayload, strings.Join(msgs, "; "))
}
