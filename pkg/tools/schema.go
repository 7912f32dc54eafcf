package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// schemaFor reflects a JSON schema from an argument struct. The schema is
// inlined (no $ref or $defs) because completion providers expect a
// self-contained object schema.
func schemaFor(v interface{}) map[string]interface{} {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// decodeArgs binds a raw argument map onto a typed struct via a JSON round
// trip, so type mismatches surface as validation errors.
func decodeArgs(toolName string, args map[string]interface{}, into interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return &ValidationError{Tool: toolName, Field: "arguments", Reason: fmt.Sprintf("not encodable: %v", err)}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return &ValidationError{Tool: toolName, Field: "arguments", Reason: fmt.Sprintf("malformed: %v", err)}
	}
	return nil
}
