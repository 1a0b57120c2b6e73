package skills

import (
	"errors"
	"strings"
	"testing"

	"skillbox/internal/tokenizer"
)

func TestTextStats_WhenMultiParagraph_ShouldCountEverything(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_stats", `{"text": "Hello world. How are you?\n\nSecond paragraph!"}`)

	// Then
	for _, want := range []string{
		`"words": 7`,
		`"sentences": 3`,
		`"paragraphs": 2`,
		`"lines": 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in: %s", want, out)
		}
	}
}

func TestTextCase_WhenEachTarget_ShouldTransform(t *testing.T) {
	// Given
	s := NewTextSkill()

	cases := []struct {
		target string
		text   string
		want   string
	}{
		{"upper", "hello world", "HELLO WORLD"},
		{"lower", "HELLO World", "hello world"},
		{"title", "hello world", "Hello World"},
		{"capitalize", "hELLO WORLD", "Hello world"},
		{"camel", "hello world example", "helloWorldExample"},
		{"snake", "helloWorld example", "hello_world_example"},
		{"kebab", "helloWorld example", "hello-world-example"},
	}
	for _, c := range cases {
		// When
		out := mustCall(t, s, "text_case", `{"text": "`+c.text+`", "case": "`+c.target+`"}`)

		// Then
		if out != c.want {
			t.Errorf("%s: got %q, want %q", c.target, out, c.want)
		}
	}
}

func TestTextCase_WhenUnknownTarget_ShouldListAvailable(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_case", `{"text": "x", "case": "sponge"}`)

	// Then
	if !strings.HasPrefix(out, "Unknown case: sponge.") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "camel, snake, kebab") {
		t.Errorf("should list available cases: %q", out)
	}
}

func TestTextSlug_WhenDiacriticsAndPunctuation_ShouldNormalize(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_slug", `{"text": "Héllo, Wörld! -- Go Time"}`)

	// Then
	if out != "hello-world-go-time" {
		t.Errorf("unexpected slug: %q", out)
	}
}

func TestTextTruncate_WhenLongerThanLimit_ShouldCutWithSuffix(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_truncate", `{"text": "hello wonderful world", "length": 10}`)

	// Then
	if out != "hello w..." {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTextTruncate_WhenShorterThanLimit_ShouldReturnUnchanged(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_truncate", `{"text": "short", "length": 50}`)

	// Then
	if out != "short" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTextTruncate_WhenNonPositiveLength_ShouldReturnErrorString(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_truncate", `{"text": "hello", "length": 0}`)

	// Then
	if out != "Error: length must be positive" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTextReverse_WhenUnicode_ShouldReverseByRune(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "text_reverse", `{"text": "héllo"}`)

	// Then
	if out != "olléh" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTokenCount_WhenEncoderFails_ShouldReturnErrorString(t *testing.T) {
	// Given
	s := NewTextSkill()
	s.newEncoder = func(string) (*tokenizer.Encoder, error) {
		return nil, errors.New("no such encoding")
	}

	// When
	out := mustCall(t, s, "token_count", `{"text": "hello"}`)

	// Then
	if out != "Error: no such encoding" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTokenCount_WhenTextGiven_ShouldReportTokensAndRatio(t *testing.T) {
	// Given
	s := NewTextSkill()

	// When
	out := mustCall(t, s, "token_count", `{"text": "Hello world, this is a token counting test."}`)

	// Then
	if !strings.Contains(out, `"encoding": "cl100k_base"`) {
		t.Errorf("missing encoding: %s", out)
	}
	if !strings.Contains(out, `"words": 8`) {
		t.Errorf("missing word count: %s", out)
	}
	if !strings.Contains(out, `"chars_per_token"`) {
		t.Errorf("missing ratio: %s", out)
	}
}

func TestTokenCount_WhenCalledTwice_ShouldReuseCachedEncoder(t *testing.T) {
	// Given
	s := NewTextSkill()
	builds := 0
	original := s.newEncoder
	s.newEncoder = func(name string) (*tokenizer.Encoder, error) {
		builds++
		return original(name)
	}

	// When
	mustCall(t, s, "token_count", `{"text": "first"}`)
	mustCall(t, s, "token_count", `{"text": "second"}`)

	// Then
	if builds != 1 {
		t.Errorf("expected one encoder build, got %d", builds)
	}
}
