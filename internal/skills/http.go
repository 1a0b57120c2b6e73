package skills

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/schema"
)

// HTTPSkill issues bounded HTTP requests through the shared fetcher.
type HTTPSkill struct {
	fetcher fetch.Fetcher
}

func NewHTTPSkill(fetcher fetch.Fetcher) *HTTPSkill {
	return &HTTPSkill{fetcher: fetcher}
}

func (s *HTTPSkill) Name() string        { return "http" }
func (s *HTTPSkill) Description() string { return "HTTP requests with bounded responses" }

type httpGetArgs struct {
	URL string `json:"url" jsonschema:"description=URL to fetch (http or https)"`
}

type httpPostArgs struct {
	URL  string `json:"url" jsonschema:"description=URL to post to (http or https)"`
	Body string `json:"body,omitempty" jsonschema:"description=JSON request body"`
}

type httpHeadArgs struct {
	URL string `json:"url" jsonschema:"description=URL to probe (http or https)"`
}

func (s *HTTPSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("http_get", "Fetch a URL and return the response body",
			httpGetArgs{}, s.get),
		newTool("http_post", "POST a JSON body to a URL",
			httpPostArgs{}, s.post),
		newTool("http_head", "Fetch only the status and headers of a URL",
			httpHeadArgs{}, s.head),
	}
}

// validateHTTPURL rejects anything that is not an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only HTTP/HTTPS URLs are allowed")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

func (s *HTTPSkill) get(args schema.Args) (string, error) {
	target := strings.TrimSpace(args.String("url", ""))
	if target == "" {
		return "Error: url is required", nil
	}
	if err := validateHTTPURL(target); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	body, err := s.fetcher.Get(target)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return truncate(prettyBody(body), maxOutput), nil
}

func (s *HTTPSkill) post(args schema.Args) (string, error) {
	target := strings.TrimSpace(args.String("url", ""))
	if target == "" {
		return "Error: url is required", nil
	}
	if err := validateHTTPURL(target); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	var payload interface{}
	if raw := args.String("body", ""); raw != "" {
		if err := jsonUnmarshal([]byte(raw), &payload); err != nil {
			return fmt.Sprintf("Error: body is not valid JSON: %v", err), nil
		}
	} else {
		payload = map[string]interface{}{}
	}

	out, err := s.fetcher.PostJSON(target, payload)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return truncate(prettyBody(out), maxOutput), nil
}

func (s *HTTPSkill) head(args schema.Args) (string, error) {
	target := strings.TrimSpace(args.String("url", ""))
	if target == "" {
		return "Error: url is required", nil
	}
	if err := validateHTTPURL(target); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	status, headers, err := s.fetcher.Head(target)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	fmt.Fprintf(&out, "HTTP %d\n\nHeaders:", status)
	for _, k := range keys {
		fmt.Fprintf(&out, "\n  %s: %s", k, strings.Join(headers[k], ", "))
	}
	return out.String(), nil
}

// prettyBody reindents JSON bodies and passes everything else through.
func prettyBody(body []byte) string {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(body)
	}
	return string(pretty)
}
