package skills

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
	"skillbox/internal/tokenizer"
)

// TextSkill offers text statistics, case transforms, and token counting.
// Encoders are cached per encoding name because building one loads the
// whole BPE vocabulary.
type TextSkill struct {
	encoders   map[string]*tokenizer.Encoder
	newEncoder func(string) (*tokenizer.Encoder, error)
}

func NewTextSkill() *TextSkill {
	return &TextSkill{
		encoders:   map[string]*tokenizer.Encoder{},
		newEncoder: tokenizer.New,
	}
}

func (s *TextSkill) Name() string        { return "text" }
func (s *TextSkill) Description() string { return "Text statistics, transforms, and token counting" }

type textStatsArgs struct {
	Text string `json:"text" jsonschema:"description=Text to analyze"`
}

type textCaseArgs struct {
	Text string `json:"text" jsonschema:"description=Text to convert"`
	Case string `json:"case" jsonschema:"description=Target case: upper, lower, title, capitalize, camel, snake, kebab"`
}

type textSlugArgs struct {
	Text string `json:"text" jsonschema:"description=Text to slugify"`
}

type textTruncateArgs struct {
	Text   string `json:"text" jsonschema:"description=Text to truncate"`
	Length int    `json:"length" jsonschema:"description=Maximum length in characters"`
	Suffix string `json:"suffix,omitempty" jsonschema:"description=Suffix appended when truncated (default: ...)"`
}

type textReverseArgs struct {
	Text string `json:"text" jsonschema:"description=Text to reverse"`
}

type tokenCountArgs struct {
	Text     string `json:"text" jsonschema:"description=Text to tokenize"`
	Encoding string `json:"encoding,omitempty" jsonschema:"description=Tiktoken encoding name (default: cl100k_base)"`
}

func (s *TextSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("text_stats", "Count characters, words, lines, sentences, and paragraphs",
			textStatsArgs{}, s.stats),
		newTool("text_case", "Convert text to another case",
			textCaseArgs{}, s.convertCase),
		newTool("text_slug", "Generate a URL slug from text",
			textSlugArgs{}, s.slug),
		newTool("text_truncate", "Truncate text to a maximum length",
			textTruncateArgs{}, s.truncateText),
		newTool("text_reverse", "Reverse text",
			textReverseArgs{}, s.reverse),
		newTool("token_count", "Count LLM tokens in text",
			tokenCountArgs{}, s.tokenCount),
	}
}

var sentenceRe = regexp.MustCompile(`[.!?]+`)

func (s *TextSkill) stats(args schema.Args) (string, error) {
	text := args.String("text", "")

	noSpaces := strings.NewReplacer(" ", "", "\n", "").Replace(text)
	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	return jsonBlob(map[string]interface{}{
		"characters":           len([]rune(text)),
		"characters_no_spaces": len([]rune(noSpaces)),
		"words":                len(strings.Fields(text)),
		"lines":                len(strings.Split(text, "\n")),
		"sentences":            len(sentenceRe.FindAllString(text, -1)),
		"paragraphs":           paragraphs,
	}), nil
}

var (
	wordSplitRe  = regexp.MustCompile(`[\s_-]+`)
	camelBreakRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

func (s *TextSkill) convertCase(args schema.Args) (string, error) {
	text := args.String("text", "")
	target := strings.ToLower(args.String("case", ""))

	switch target {
	case "upper":
		return strings.ToUpper(text), nil
	case "lower":
		return strings.ToLower(text), nil
	case "title":
		return cases.Title(language.English).String(text), nil
	case "capitalize":
		if text == "" {
			return "", nil
		}
		r := []rune(strings.ToLower(text))
		r[0] = unicode.ToUpper(r[0])
		return string(r), nil
	case "camel":
		words := wordSplitRe.Split(text, -1)
		var b strings.Builder
		for i, w := range words {
			if w == "" {
				continue
			}
			if b.Len() == 0 && i == 0 {
				b.WriteString(strings.ToLower(w))
				continue
			}
			b.WriteString(cases.Title(language.English).String(strings.ToLower(w)))
		}
		return b.String(), nil
	case "snake":
		broken := camelBreakRe.ReplaceAllString(text, "${1}_${2}")
		return strings.ToLower(wordSplitRe.ReplaceAllString(broken, "_")), nil
	case "kebab":
		broken := camelBreakRe.ReplaceAllString(text, "${1}-${2}")
		return strings.ToLower(wordSplitRe.ReplaceAllString(broken, "-")), nil
	default:
		return fmt.Sprintf("Unknown case: %s. Available: upper, lower, title, capitalize, camel, snake, kebab", target), nil
	}
}

var slugDropRe = regexp.MustCompile(`[^\w\s-]`)
var slugDashRe = regexp.MustCompile(`[-\s]+`)

func (s *TextSkill) slug(args schema.Args) (string, error) {
	text := args.String("text", "")

	// Strip diacritics: decompose, drop combining marks, recompose.
	stripper := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(stripper, text); err == nil {
		text = plain
	}

	text = strings.ToLower(text)
	text = slugDropRe.ReplaceAllString(text, "")
	text = slugDashRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-"), nil
}

func (s *TextSkill) truncateText(args schema.Args) (string, error) {
	text := args.String("text", "")
	length := args.Int("length", 0)
	suffix := args.String("suffix", "...")

	if length <= 0 {
		return "Error: length must be positive", nil
	}
	r := []rune(text)
	if len(r) <= length {
		return text, nil
	}
	cut := length - len([]rune(suffix))
	if cut < 0 {
		cut = 0
	}
	return string(r[:cut]) + suffix, nil
}

func (s *TextSkill) reverse(args schema.Args) (string, error) {
	r := []rune(args.String("text", ""))
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r), nil
}

func (s *TextSkill) tokenCount(args schema.Args) (string, error) {
	text := args.String("text", "")
	name := args.String("encoding", tokenizer.DefaultEncoding)

	enc, ok := s.encoders[name]
	if !ok {
		var err error
		enc, err = s.newEncoder(name)
		if err != nil {
			return fmt.Sprintf("Error: %v", err), nil
		}
		s.encoders[name] = enc
	}

	tokens := enc.Count(text)
	chars := len([]rune(text))
	result := map[string]interface{}{
		"encoding":   enc.Name(),
		"tokens":     tokens,
		"characters": chars,
		"words":      len(strings.Fields(text)),
	}
	if tokens > 0 {
		result["chars_per_token"] = round(float64(chars)/float64(tokens), 2)
	}
	return jsonBlob(result), nil
}
