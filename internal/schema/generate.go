// Package schema generates and validates the JSON Schemas that describe tool
// arguments, and provides the permissive argument object handlers consume.
package schema

import (
	"encoding/json"

	invopopSchema "github.com/invopop/jsonschema"
)

// marshalFunc is the JSON marshaler used by Generate. Package-level so tests
// can inject a failing marshaler to cover the error return path.
var marshalFunc = func(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Generate reflects a JSON Schema string from a Go struct using
// invopop/jsonschema. Fields without an omitempty json tag become required
// properties. Additional properties are allowed: callers may pass extra
// arguments and handlers ignore them.
func Generate(input interface{}) string {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := reflector.Reflect(input)

	b, err := marshalFunc(s)
	if err != nil {
		return ""
	}
	return string(b)
}
