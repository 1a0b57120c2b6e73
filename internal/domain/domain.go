package domain

import "encoding/json"

// ToolDefinition is the wire form of one invocable capability, suitable for
// serializing into an LLM function-calling request or the gateway /tools list.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Tool is one discrete invocable capability within a skill. The schema exists
// primarily so an LLM caller knows what arguments the tool accepts; handlers
// re-validate and default missing optional fields internally.
type Tool interface {
	// Name returns the unique tool name used in function-calling (e.g. "hash").
	Name() string
	// Description returns a human-readable summary for the LLM.
	Description() string
	// Schema returns the JSON Schema string for the tool's arguments.
	Schema() string
	// Call executes the tool with the given JSON arguments. The returned
	// string is opaque to callers and often JSON-encoded. A tool is the final
	// boundary for its own failures; errors returned here are formatted into
	// an error string by the registry, never propagated as exceptions.
	Call(args json.RawMessage) (string, error)
}

// Skill is a named, independently-lifecycled bundle of tools. Skills are
// created once at startup, live for the process lifetime, and hold no
// persisted state across restarts beyond what a skill explicitly writes to
// disk. Any cached handle (a detected interface name, a bridge URL) is
// advisory and may be refreshed on every call.
type Skill interface {
	Name() string
	Description() string
	// Tools returns the skill's current tool list. May be computed fresh on
	// each call; declaration order is meaningful and insertion-stable.
	Tools() []Tool
}
