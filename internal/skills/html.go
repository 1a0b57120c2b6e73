package skills

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	xhtml "golang.org/x/net/html"

	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/schema"
)

// HTMLSkill parses and transforms HTML documents. The article extractor can
// also fetch a page first.
type HTMLSkill struct {
	fetcher fetch.Fetcher
}

func NewHTMLSkill(fetcher fetch.Fetcher) *HTMLSkill {
	return &HTMLSkill{fetcher: fetcher}
}

func (s *HTMLSkill) Name() string        { return "html" }
func (s *HTMLSkill) Description() string { return "HTML: parse, extract, clean, convert to text" }

type htmlInput struct {
	HTML string `json:"html" jsonschema:"description=HTML content"`
}

type htmlCleanInput struct {
	HTML        string `json:"html" jsonschema:"description=HTML content"`
	AllowedTags string `json:"allowed_tags,omitempty" jsonschema:"description=Comma-separated tags to keep"`
}

type htmlArticleInput struct {
	URL  string `json:"url,omitempty" jsonschema:"description=Page URL to fetch and extract"`
	HTML string `json:"html,omitempty" jsonschema:"description=Raw HTML to extract from instead of fetching"`
}

func (s *HTMLSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("html_to_text", "Convert HTML to plain text", htmlInput{}, s.toText),
		newTool("html_extract_links", "Extract all links from HTML", htmlInput{}, s.extractLinks),
		newTool("html_extract_images", "Extract all image URLs from HTML", htmlInput{}, s.extractImages),
		newTool("html_extract_meta", "Extract title and meta tags", htmlInput{}, s.extractMeta),
		newTool("html_extract_tables", "Extract tables as JSON", htmlInput{}, s.extractTables),
		newTool("html_clean", "Sanitize HTML, keeping only allowed tags", htmlCleanInput{}, s.clean),
		newTool("html_minify", "Minify HTML", htmlInput{}, s.minify),
		newTool("html_article", "Extract the main article from a page", htmlArticleInput{}, s.article),
	}
}

func parseDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

var multiBlankRe = regexp.MustCompile(`\n\s*\n+`)

func (s *HTMLSkill) toText(args schema.Args) (string, error) {
	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}
	doc.Find("script, style, head, meta, link").Remove()

	var lines []string
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return multiBlankRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"), nil
}

func (s *HTMLSkill) extractLinks(args schema.Args) (string, error) {
	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}

	links := []map[string]string{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		links = append(links, map[string]string{
			"href": href,
			"text": strings.TrimSpace(sel.Text()),
		})
	})
	return jsonBlob(map[string]interface{}{"count": len(links), "links": links}), nil
}

func (s *HTMLSkill) extractImages(args schema.Args) (string, error) {
	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}

	images := []map[string]string{}
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		alt, _ := sel.Attr("alt")
		images = append(images, map[string]string{"src": src, "alt": alt})
	})
	return jsonBlob(map[string]interface{}{"count": len(images), "images": images}), nil
}

func (s *HTMLSkill) extractMeta(args schema.Args) (string, error) {
	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}

	meta := map[string]string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok {
			name, _ = sel.Attr("property")
		}
		content, _ := sel.Attr("content")
		if name != "" && content != "" {
			meta[name] = content
		}
	})
	return jsonBlob(meta), nil
}

func (s *HTMLSkill) extractTables(args schema.Args) (string, error) {
	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}

	var tables []map[string]interface{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(th.Text()))
		})

		var rows []interface{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(td.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if len(headers) > 0 {
				row := map[string]string{}
				for i, cell := range cells {
					if i < len(headers) {
						row[headers[i]] = cell
					}
				}
				rows = append(rows, row)
			} else {
				rows = append(rows, cells)
			}
		})

		if len(rows) > 0 {
			tables = append(tables, map[string]interface{}{
				"headers": headers,
				"rows":    rows,
			})
		}
	})
	return jsonBlob(map[string]interface{}{"count": len(tables), "tables": tables}), nil
}

const defaultAllowedTags = "p,a,b,i,u,br,ul,ol,li,h1,h2,h3,h4,h5,h6,strong,em,span,div"

// dropTags are removed entirely, content included.
var dropTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true,
}

func (s *HTMLSkill) clean(args schema.Args) (string, error) {
	allowed := map[string]bool{}
	for _, tag := range strings.Split(args.String("allowed_tags", defaultAllowedTags), ",") {
		allowed[strings.ToLower(strings.TrimSpace(tag))] = true
	}

	doc, err := parseDoc(args.String("html", ""))
	if err != nil {
		return fmt.Sprintf("Error parsing HTML: %v", err), nil
	}
	body := doc.Find("body")
	for _, node := range body.Nodes {
		sanitizeNode(node, allowed)
	}

	out, err := body.Html()
	if err != nil {
		return fmt.Sprintf("Error rendering HTML: %v", err), nil
	}
	return strings.TrimSpace(out), nil
}

// sanitizeNode removes dangerous elements, unwraps disallowed tags and strips
// every attribute except href.
func sanitizeNode(n *xhtml.Node, allowed map[string]bool) {
	var next *xhtml.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type != xhtml.ElementNode {
			continue
		}
		if dropTags[child.Data] {
			n.RemoveChild(child)
			continue
		}
		sanitizeNode(child, allowed)
		if !allowed[strings.ToLower(child.Data)] {
			unwrapNode(n, child)
			continue
		}
		var kept []xhtml.Attribute
		for _, attr := range child.Attr {
			if attr.Key == "href" {
				kept = append(kept, attr)
			}
		}
		child.Attr = kept
	}
}

// unwrapNode replaces child with its own children, preserving order.
func unwrapNode(parent, child *xhtml.Node) {
	for grand := child.FirstChild; grand != nil; {
		next := grand.NextSibling
		child.RemoveChild(grand)
		parent.InsertBefore(grand, child)
		grand = next
	}
	parent.RemoveChild(child)
}

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	betweenTagsRe = regexp.MustCompile(`>\s+<`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

func (s *HTMLSkill) minify(args schema.Args) (string, error) {
	out := htmlCommentRe.ReplaceAllString(args.String("html", ""), "")
	out = betweenTagsRe.ReplaceAllString(out, "><")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out), nil
}

func (s *HTMLSkill) article(args schema.Args) (string, error) {
	pageURL := args.String("url", "")
	html := args.String("html", "")

	if html == "" {
		if pageURL == "" {
			return "Provide either url or html", nil
		}
		body, err := s.fetcher.Get(pageURL)
		if err != nil {
			return fmt.Sprintf("Error fetching page: %v", err), nil
		}
		html = string(body)
	}

	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return fmt.Sprintf("Error extracting article: %v", err), nil
	}

	return jsonBlob(map[string]interface{}{
		"title":   article.Title,
		"byline":  article.Byline,
		"excerpt": article.Excerpt,
		"length":  article.Length,
		"text":    truncate(article.TextContent, maxOutput),
	}), nil
}
