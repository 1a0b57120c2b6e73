package skills

import (
	"encoding/hex"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// EncodingSkill provides hex and Unicode text utilities.
type EncodingSkill struct{}

// NewEncodingSkill returns the encoding skill.
func NewEncodingSkill() *EncodingSkill { return &EncodingSkill{} }

func (s *EncodingSkill) Name() string        { return "encoding" }
func (s *EncodingSkill) Description() string { return "Encoding: hex, Unicode escapes and inspection" }

type textInput struct {
	Text string `json:"text" jsonschema:"description=Text to process"`
}

type hexDecodeInput struct {
	HexString string `json:"hex_string" jsonschema:"description=Hex string to decode"`
}

type codepointInput struct {
	Codepoint string `json:"codepoint" jsonschema:"description=Codepoint (U+0041, 0x41, or decimal)"`
}

type escapeInput struct {
	Text   string `json:"text" jsonschema:"description=Text to escape"`
	Format string `json:"format,omitempty" jsonschema:"description=Escape format: json, html (default: json)"`
}

func (s *EncodingSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("hex_encode", "Encode text to hex", textInput{}, s.hexEncode),
		newTool("hex_decode", "Decode hex to text", hexDecodeInput{}, s.hexDecode),
		newTool("unicode_info", "Get Unicode information for characters", textInput{}, s.unicodeInfo),
		newTool("unicode_from_codepoint", "Get character from codepoint", codepointInput{}, s.fromCodepoint),
		newTool("escape_unicode", "Escape text to Unicode sequences", escapeInput{}, s.escapeUnicode),
		newTool("unescape_unicode", "Unescape Unicode sequences and HTML entities", textInput{}, s.unescapeUnicode),
	}
}

func (s *EncodingSkill) hexEncode(args schema.Args) (string, error) {
	text := args.String("text", "")
	h := hex.EncodeToString([]byte(text))

	spaced := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		spaced = append(spaced, h[i:i+2])
	}
	return jsonBlob(map[string]interface{}{
		"original":   text,
		"hex":        h,
		"hex_spaced": strings.Join(spaced, " "),
	}), nil
}

func (s *EncodingSkill) hexDecode(args schema.Args) (string, error) {
	raw := args.String("hex_string", "")
	clean := strings.NewReplacer(" ", "", "0x", "", "\\x", "").Replace(raw)

	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}
	return jsonBlob(map[string]interface{}{
		"hex":     raw,
		"decoded": string(decoded),
	}), nil
}

// runeCategory returns the Unicode general category name (e.g. "Lu") of r.
func runeCategory(r rune) string {
	for name, table := range unicode.Categories {
		if len(name) == 2 && unicode.Is(table, r) {
			return name
		}
	}
	return "Cn"
}

func runeInfo(r rune) map[string]interface{} {
	name := runenames.Name(r)
	if name == "" {
		name = "UNKNOWN"
	}
	return map[string]interface{}{
		"char":      string(r),
		"codepoint": fmt.Sprintf("U+%04X", r),
		"decimal":   int(r),
		"name":      name,
		"category":  runeCategory(r),
	}
}

func (s *EncodingSkill) unicodeInfo(args schema.Args) (string, error) {
	text := args.String("text", "")

	// Inspect at most 20 characters.
	chars := []map[string]interface{}{}
	for i, r := range []rune(text) {
		if i >= 20 {
			break
		}
		chars = append(chars, runeInfo(r))
	}
	return jsonBlob(map[string]interface{}{
		"count":      len(chars),
		"characters": chars,
	}), nil
}

func (s *EncodingSkill) fromCodepoint(args schema.Args) (string, error) {
	cp := strings.TrimSpace(args.String("codepoint", ""))

	var digits string
	var base int
	switch {
	case strings.HasPrefix(strings.ToUpper(cp), "U+"):
		digits, base = cp[2:], 16
	case strings.HasPrefix(strings.ToLower(cp), "0x"):
		digits, base = cp[2:], 16
	case strings.HasPrefix(cp, "\\u"):
		digits, base = cp[2:], 16
	default:
		digits, base = cp, 10
	}
	code, err := strconv.ParseInt(digits, base, 32)
	if err != nil || code < 0 || code > utf8.MaxRune {
		return fmt.Sprintf("Invalid codepoint: %s", cp), nil
	}

	r := rune(code)
	info := runeInfo(r)
	info["input"] = cp
	delete(info, "category")
	return jsonBlob(info), nil
}

func (s *EncodingSkill) escapeUnicode(args schema.Args) (string, error) {
	text := args.String("text", "")
	format := args.String("format", "json")

	var b strings.Builder
	for _, r := range text {
		if r <= 127 {
			b.WriteRune(r)
			continue
		}
		switch format {
		case "json":
			if r > 0xFFFF {
				r1, r2 := utf16Pair(r)
				fmt.Fprintf(&b, "\\u%04x\\u%04x", r1, r2)
			} else {
				fmt.Fprintf(&b, "\\u%04x", r)
			}
		case "html":
			fmt.Fprintf(&b, "&#x%x;", r)
		default:
			return fmt.Sprintf("Unknown format: %s", format), nil
		}
	}
	return jsonBlob(map[string]interface{}{
		"original": text,
		"format":   format,
		"escaped":  b.String(),
	}), nil
}

// utf16Pair splits a supplementary-plane rune into its surrogate halves.
func utf16Pair(r rune) (rune, rune) {
	r -= 0x10000
	return 0xD800 + (r >> 10), 0xDC00 + (r & 0x3FF)
}

var unicodeEscapeReplacer = strings.NewReplacer("\\n", "\n", "\\t", "\t", "\\r", "\r")

func (s *EncodingSkill) unescapeUnicode(args schema.Args) (string, error) {
	text := args.String("text", "")

	// \uXXXX sequences first, then simple escapes, then HTML entities.
	var b strings.Builder
	for i := 0; i < len(text); {
		if i+6 <= len(text) && strings.HasPrefix(text[i:], "\\u") {
			if code, err := strconv.ParseInt(text[i+2:i+6], 16, 32); err == nil {
				b.WriteRune(rune(code))
				i += 6
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	unescaped := html.UnescapeString(unicodeEscapeReplacer.Replace(b.String()))

	return jsonBlob(map[string]interface{}{
		"escaped":   text,
		"unescaped": unescaped,
	}), nil
}
