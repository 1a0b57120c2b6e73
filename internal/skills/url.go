package skills

import (
	"fmt"
	"net/url"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// URLSkill provides URL encoding, decoding and parsing.
type URLSkill struct{}

// NewURLSkill returns the url skill.
func NewURLSkill() *URLSkill { return &URLSkill{} }

func (s *URLSkill) Name() string        { return "url" }
func (s *URLSkill) Description() string { return "URL: encode, decode, parse" }

type urlTextInput struct {
	Text string `json:"text" jsonschema:"description=Text to encode or decode"`
}

type urlParseInput struct {
	URL string `json:"url" jsonschema:"description=URL to parse"`
}

func (s *URLSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("url_encode", "Percent-encode text for use in a URL query", urlTextInput{}, s.encode),
		newTool("url_decode", "Decode percent-encoded text", urlTextInput{}, s.decode),
		newTool("url_parse", "Parse a URL into its components", urlParseInput{}, s.parse),
	}
}

func (s *URLSkill) encode(args schema.Args) (string, error) {
	return url.QueryEscape(args.String("text", "")), nil
}

func (s *URLSkill) decode(args schema.Args) (string, error) {
	decoded, err := url.QueryUnescape(args.String("text", ""))
	if err != nil {
		return "", fmt.Errorf("invalid percent-encoding: %w", err)
	}
	return decoded, nil
}

func (s *URLSkill) parse(args schema.Args) (string, error) {
	raw := args.String("url", "")
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	query := map[string]interface{}{}
	for k, v := range u.Query() {
		if len(v) == 1 {
			query[k] = v[0]
		} else {
			query[k] = v
		}
	}
	return jsonBlob(map[string]interface{}{
		"url":      raw,
		"scheme":   u.Scheme,
		"host":     u.Hostname(),
		"port":     u.Port(),
		"path":     u.Path,
		"query":    query,
		"fragment": u.Fragment,
		"user":     u.User.Username(),
	}), nil
}
