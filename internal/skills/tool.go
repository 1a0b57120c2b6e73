// Package skills implements the skill modules: named bundles of tools that
// either compute locally or talk to an external collaborator (subprocess,
// library, or HTTP API) and format the result as a string.
package skills

import (
	"encoding/json"
	"fmt"
	"math"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// handlerFunc is the uniform calling convention for tool handlers. Handlers
// read arguments through the permissive Args accessors and are the final
// boundary for their own failures.
type handlerFunc func(args schema.Args) (string, error)

// funcTool binds a declarative descriptor (name, description, schema reflected
// from an input struct) to a handler.
type funcTool struct {
	name        string
	description string
	schemaStr   string
	fn          handlerFunc
}

// newTool builds a Tool whose schema is reflected from the input struct.
// Fields without omitempty become required parameters.
func newTool(name, description string, input interface{}, fn handlerFunc) domain.Tool {
	return &funcTool{
		name:        name,
		description: description,
		schemaStr:   schema.Generate(input),
		fn:          fn,
	}
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Schema() string      { return t.schemaStr }

func (t *funcTool) Call(raw json.RawMessage) (string, error) {
	args, err := schema.ParseArgs(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse input: %w", err)
	}
	return t.fn(args)
}

// jsonUnmarshal is the JSON unmarshaler used by handlers. Package-level so
// tests can inject a failing unmarshaler to cover the error path.
var jsonUnmarshal = json.Unmarshal

// maxOutput bounds external tool output so a chatty binary cannot flood the
// caller.
const maxOutput = 8 * 1024

// truncate caps s at max bytes, appending a marker when anything was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (output truncated)"
}

// jsonBlob formats v as indented JSON, the dominant success payload shape.
// round trims a float to the given number of decimal places.
func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func jsonBlob(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return string(b)
}
