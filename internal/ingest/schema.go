package ingest

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// flatEventSchema constrains the flat (already-canonical) wire format. Only
// applied in strict mode; the other formats are shaped by their mapping
// tables and cannot be usefully schema-checked without duplicating them.
const flatEventSchema = `{
  "type": "object",
  "required": ["event_type", "trade_id"],
  "properties": {
    "event_type": {
      "type": "string",
      "enum": ["ENTRY", "MFE_UPDATE", "BE_TRIGGERED", "EXIT_BE", "EXIT_SL", "CANCELLED"]
    },
    "trade_id": {"type": "string", "minLength": 1},
    "event_timestamp": {"type": ["number", "string"]},
    "direction": {"type": "string"},
    "entry_price": {"type": "number"},
    "stop_loss": {"type": "number"},
    "risk_distance": {"type": "number", "minimum": 0},
    "current_price": {"type": "number"},
    "be_mfe": {"type": "number"},
    "no_be_mfe": {"type": "number"},
    "mae_r": {"type": "number"},
    "session": {"type": "string"}
  }
}`

var (
	flatSchemaOnce sync.Once
	flatSchema     *jsonschema.Schema
	flatSchemaErr  error
)

func compiledFlatSchema() (*jsonschema.Schema, error) {
	flatSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("flat_event.json", strings.NewReader(flatEventSchema)); err != nil {
			flatSchemaErr = err
			return
		}
		flatSchema, flatSchemaErr = compiler.Compile("flat_event.json")
	})
	return flatSchema, flatSchemaErr
}

func validateFlatSchema(body []byte) error {
	schema, err := compiledFlatSchema()
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errUnrecognized("body is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Reason: "schema check failed: " + err.Error()}
	}
	return nil
}
