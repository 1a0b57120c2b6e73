// Package registry maintains the mapping from tool name to descriptor and
// dispatches invocations. Dispatch is synchronous request/response: each
// Invoke runs to completion, including any subprocess or network round-trip,
// before returning.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// UnknownToolError is returned by Invoke for tool names that were never
// registered. It is the only failure that propagates structurally; everything
// else a handler can do wrong comes back as an error string result, so the
// agent loop can distinguish "tool doesn't exist" from "tool ran and failed".
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %q", e.Name)
}

// entry binds a registered tool to its owning skill and pre-compiled schema.
type entry struct {
	skill    string
	tool     domain.Tool
	compiled *santhosh.Schema
}

// Registry owns the skill modules and their tool descriptors. It is not safe
// for concurrent mutation; callers serialize Register and Invoke.
type Registry struct {
	entries map[string]*entry
	order   []string // insertion order of tool names, registration-stable
	skills  []domain.Skill
	strict  bool
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger. Nil is allowed and the default slog
// logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithStrictValidation turns on full JSON-Schema validation of arguments.
// The default checks only the schema's required list.
func WithStrictValidation(strict bool) Option {
	return func(r *Registry) { r.strict = strict }
}

// New returns an empty, ready-to-use registry.
func New(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Register inserts every tool the skill declares. Duplicate names are not an
// error: the last registration wins and replaces the prior descriptor,
// keeping the first-seen position in the listing order.
func (r *Registry) Register(s domain.Skill) {
	if s == nil {
		return
	}
	r.skills = append(r.skills, s)
	for _, t := range s.Tools() {
		name := t.Name()
		if prev, exists := r.entries[name]; exists {
			r.log().Warn("tool shadowed by re-registration",
				"tool", name, "previous_skill", prev.skill, "skill", s.Name())
		} else {
			r.order = append(r.order, name)
		}
		compiled, err := schema.Compile(t.Schema())
		if err != nil {
			// A broken schema disables validation for this tool but never
			// blocks registration; the schema is documentation first.
			r.log().Warn("tool schema failed to compile", "tool", name, "error", err)
			compiled = nil
		}
		r.entries[name] = &entry{skill: s.Name(), tool: t, compiled: compiled}
	}
	r.log().Debug("skill registered", "skill", s.Name(), "tools", len(s.Tools()))
}

// Skills returns the registered skills in registration order.
func (r *Registry) Skills() []domain.Skill {
	out := make([]domain.Skill, len(r.skills))
	copy(out, r.skills)
	return out
}

// List returns one definition per registered tool name, in skill-registration
// then tool-declaration order. Repeated calls produce the same sequence.
func (r *Registry) List() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		out = append(out, domain.ToolDefinition{
			Name:        name,
			Description: e.tool.Description(),
			InputSchema: json.RawMessage(e.tool.Schema()),
		})
	}
	return out
}

// Invoke looks up the named tool, validates the arguments, and executes the
// handler. Handler and validation failures are formatted as "Error: ..."
// result strings with a nil error; only an unknown name returns a non-nil
// error, and it is always an *UnknownToolError.
func (r *Registry) Invoke(name string, args json.RawMessage) (string, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	parsed, err := schema.ParseArgs(args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if err := schema.CheckRequired(parsed, e.compiled); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if r.strict {
		if err := schema.Validate(args, e.compiled); err != nil {
			return fmt.Sprintf("Error: %v", err), nil
		}
	}

	result, err := e.tool.Call(args)
	if err != nil {
		r.log().Debug("tool reported failure", "tool", name, "error", err)
		return fmt.Sprintf("Error: %v", err), nil
	}
	return result, nil
}
