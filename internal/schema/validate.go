package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile compiles a JSON Schema string for repeated use. Registered tools
// are compiled once at registration time.
func Compile(schemaStr string) (*jsonschema.Schema, error) {
	s, err := jsonschema.CompileString("", schemaStr)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return s, nil
}

// CheckRequired verifies that every required property of the compiled schema
// is present in args. This is the lenient default check: present values are
// not type-checked, and unknown extras are ignored.
func CheckRequired(args map[string]interface{}, s *jsonschema.Schema) error {
	if s == nil {
		return nil
	}
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}
	return nil
}

// Validate fully validates raw JSON input against a compiled schema. Used
// only when strict validation is enabled.
func Validate(input json.RawMessage, s *jsonschema.Schema) error {
	if s == nil {
		return nil
	}
	var data interface{}
	if err := json.Unmarshal(input, &data); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	if err := s.Validate(data); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
