package skills

import (
	"encoding/json"
	"strings"
	"testing"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// callTool invokes the named tool on the skill with raw JSON arguments.
// Fails the test if the skill does not declare the tool.
func callTool(t *testing.T, s domain.Skill, name, args string) (string, error) {
	t.Helper()
	for _, tool := range s.Tools() {
		if tool.Name() == name {
			return tool.Call(json.RawMessage(args))
		}
	}
	t.Fatalf("tool %q not declared by skill %q", name, s.Name())
	return "", nil
}

// mustCall invokes the tool and fails the test on a non-nil error.
// argJSON builds a one-field argument object, escaping the value properly.
func argJSON(key, value string) string {
	raw, _ := json.Marshal(map[string]string{key: value})
	return string(raw)
}

func mustCall(t *testing.T, s domain.Skill, name, args string) string {
	t.Helper()
	out, err := callTool(t, s, name, args)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	return out
}

func TestTruncate_WhenWithinLimit_ShouldReturnUnchanged(t *testing.T) {
	// When
	out := truncate("short", 100)

	// Then
	if out != "short" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTruncate_WhenOverLimit_ShouldCutAndMark(t *testing.T) {
	// Given
	in := strings.Repeat("x", 50)

	// When
	out := truncate(in, 10)

	// Then
	if !strings.HasPrefix(out, strings.Repeat("x", 10)) {
		t.Errorf("expected 10 x's prefix, got %q", out)
	}
	if !strings.HasSuffix(out, "... (output truncated)") {
		t.Errorf("expected truncation marker, got %q", out)
	}
}

func TestRound_WhenTwoPlaces_ShouldTrimFraction(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{3.14159, 2, 3.14},
		{1.0, 2, 1.0},
		{2.5, 0, 3.0},
	}
	for _, c := range cases {
		if got := round(c.in, c.places); got != c.want {
			t.Errorf("round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestJSONBlob_WhenStruct_ShouldIndentTwoSpaces(t *testing.T) {
	// When
	out := jsonBlob(map[string]string{"key": "value"})

	// Then
	if out != "{\n  \"key\": \"value\"\n}" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestJSONBlob_WhenUnmarshalable_ShouldReturnErrorString(t *testing.T) {
	// When
	out := jsonBlob(make(chan int))

	// Then
	if !strings.HasPrefix(out, "Error:") {
		t.Errorf("expected Error prefix, got %q", out)
	}
}

func TestNewTool_WhenBadJSONArguments_ShouldReturnParseError(t *testing.T) {
	// Given
	tool := newTool("t", "test tool", struct{}{}, func(schema.Args) (string, error) {
		return "unreached", nil
	})

	// When
	_, err := tool.Call(json.RawMessage(`[1]`))

	// Then
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse input") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewTool_WhenDescribed_ShouldExposeMetadata(t *testing.T) {
	// Given
	type input struct {
		Text string `json:"text"`
	}

	// When
	tool := newTool("sample", "a sample tool", input{}, func(args schema.Args) (string, error) {
		return args.String("text", ""), nil
	})

	// Then
	if tool.Name() != "sample" || tool.Description() != "a sample tool" {
		t.Errorf("unexpected metadata: %s / %s", tool.Name(), tool.Description())
	}
	if !strings.Contains(tool.Schema(), `"text"`) {
		t.Errorf("schema should mention the text property: %s", tool.Schema())
	}
	out, err := tool.Call(json.RawMessage(`{"text": "hi"}`))
	if err != nil || out != "hi" {
		t.Errorf("unexpected call result: %q, %v", out, err)
	}
}
