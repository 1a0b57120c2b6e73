package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"skillbox/internal/domain"
)

// customArg describes one argument of a markdown-defined tool.
type customArg struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// customFrontmatter is the YAML frontmatter of a skill .md file.
type customFrontmatter struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Args        []customArg `yaml:"args"`
}

// parseFrontmatter splits a markdown document into YAML frontmatter and body.
// The frontmatter must be delimited by "---" lines.
func parseFrontmatter(content string) (*customFrontmatter, string, error) {
	const delimiter = "---"

	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, delimiter) {
		return nil, "", fmt.Errorf("no frontmatter found: content must start with ---")
	}

	rest := trimmed[len(delimiter):]
	closingIdx := strings.Index(rest, "\n"+delimiter)
	if closingIdx == -1 {
		return nil, "", fmt.Errorf("no closing --- delimiter found")
	}

	yamlContent := rest[:closingIdx]
	body := strings.TrimSpace(rest[closingIdx+len("\n"+delimiter):])

	var fm customFrontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return nil, "", fmt.Errorf("invalid YAML frontmatter: %w", err)
	}
	if fm.Name == "" {
		return nil, "", fmt.Errorf("frontmatter missing required field: name")
	}
	if fm.Description == "" {
		return nil, "", fmt.Errorf("frontmatter missing required field: description")
	}
	return &fm, body, nil
}

// buildArgSchema converts frontmatter args into a JSON Schema string.
func buildArgSchema(args []customArg) string {
	properties := make(map[string]map[string]string)
	var required []string

	for _, arg := range args {
		prop := map[string]string{"type": arg.Type}
		if prop["type"] == "" {
			prop["type"] = "string"
		}
		if arg.Description != "" {
			prop["description"] = arg.Description
		}
		properties[arg.Name] = prop
		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}

	b, _ := json.Marshal(s)
	return string(b)
}

// markdownTool is a tool defined by a markdown file. Calling it returns the
// markdown body with {{arg}} placeholders substituted from the arguments.
type markdownTool struct {
	name        string
	description string
	schema      string
	args        []customArg
	body        string
}

func (t *markdownTool) Name() string        { return t.name }
func (t *markdownTool) Description() string { return t.description }
func (t *markdownTool) Schema() string      { return t.schema }

func (t *markdownTool) Call(raw json.RawMessage) (string, error) {
	values := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return "", fmt.Errorf("failed to parse input: %w", err)
		}
	}

	for _, arg := range t.args {
		if arg.Required {
			if _, ok := values[arg.Name]; !ok {
				return fmt.Sprintf("Error: missing required argument: %s", arg.Name), nil
			}
		}
	}

	out := t.body
	for _, arg := range t.args {
		v, ok := values[arg.Name]
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, "{{"+arg.Name+"}}", fmt.Sprintf("%v", v))
	}
	return out, nil
}

// parseCustomTool reads one markdown skill file into a tool.
func parseCustomTool(path string) (*markdownTool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skill file %q: %w", path, err)
	}
	fm, body, err := parseFrontmatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse skill file %q: %w", path, err)
	}
	return &markdownTool{
		name:        fm.Name,
		description: fm.Description,
		schema:      buildArgSchema(fm.Args),
		args:        fm.Args,
		body:        body,
	}, nil
}

// loadCustomTools reads every .md file in dir as a tool definition. Non-.md
// entries are ignored. A file that fails to parse fails the whole load.
func loadCustomTools(dir string) ([]domain.Tool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills directory %q: %w", dir, err)
	}

	var tools []domain.Tool
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		tool, err := parseCustomTool(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load skill from %q: %w", entry.Name(), err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// CustomSkill exposes markdown-defined tools loaded from a directory.
// Reload re-reads the directory; the watcher in custom_watcher.go drives it.
type CustomSkill struct {
	dir   string
	mu    sync.RWMutex
	tools []domain.Tool
}

// NewCustomSkill loads the directory once up front. A missing directory is
// not an error; the skill just starts empty.
func NewCustomSkill(dir string) (*CustomSkill, error) {
	s := &CustomSkill{dir: dir}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CustomSkill) Name() string        { return "custom" }
func (s *CustomSkill) Description() string { return "User-defined tools from markdown files" }

func (s *CustomSkill) Tools() []domain.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Dir reports the watched skill directory.
func (s *CustomSkill) Dir() string { return s.dir }

// Reload re-reads the directory and swaps in the new tool set.
func (s *CustomSkill) Reload() error {
	tools, err := loadCustomTools(s.dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tools = tools
	s.mu.Unlock()
	return nil
}
