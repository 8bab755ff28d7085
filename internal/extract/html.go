package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Page holds everything the generic extractor recovers from one HTML document
type Page struct {
	Title       string
	Description string   // og:description, meta description or twitter:description
	BodyText    string   // Readability main content, or visible page text when that is too short
	JSONLDText  string   // Text fields from application/ld+json blocks
	Images      []string // Meta, JSON-LD and <img> candidates, absolute, unfiltered
}

// SelectText picks the best text: body unless it looks blocked, then JSON-LD, then the meta description
func (p *Page) SelectText(minBodyChars int) string {
	switch {
	case !LooksBlocked(p.BodyText, minBodyChars):
		return p.BodyText
	case p.JSONLDText != "":
		return p.JSONLDText
	default:
		return p.Description
	}
}

// ParseHTML runs the generic extraction over a fetched page. pageURL is the
// final URL after redirects and is used to resolve relative image links.
func ParseHTML(body []byte, pageURL string, minBodyChars int) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		Title:       metaTitle(doc),
		Description: metaDescription(doc),
	}

	ld := jsonLDItems(doc)
	page.JSONLDText = jsonLDText(ld)

	page.BodyText = readableText(body, base)
	if len([]rune(page.BodyText)) < minBodyChars {
		if len(doc.Selection.Nodes) > 0 {
			page.BodyText = CleanText(visibleText(doc.Selection.Nodes[0]))
		}
	}

	var images []string
	images = append(images, metaImages(doc)...)
	images = append(images, jsonLDImages(ld)...)
	images = append(images, inlineImages(doc)...)
	for _, img := range images {
		if resolved := resolve(base, img); resolved != "" {
			page.Images = append(page.Images, resolved)
		}
	}

	return page, nil
}

func readableText(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	return CleanText(article.TextContent)
}

func metaContent(doc *goquery.Document, key string) string {
	for _, sel := range []string{`meta[property="` + key + `"]`, `meta[name="` + key + `"]`} {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func metaTitle(doc *goquery.Document) string {
	if t := metaContent(doc, "og:title"); t != "" {
		return t
	}
	return CleanText(doc.Find("title").First().Text())
}

func metaDescription(doc *goquery.Document) string {
	for _, key := range []string{"og:description", "description", "twitter:description"} {
		if d := metaContent(doc, key); d != "" {
			return d
		}
	}
	return ""
}

func metaImages(doc *goquery.Document) []string {
	var out []string
	for _, key := range []string{"og:image", "og:image:secure_url", "twitter:image", "twitter:image:src"} {
		if v := metaContent(doc, key); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func inlineImages(doc *goquery.Document) []string {
	var out []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src", "data-original"} {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				out = append(out, v)
				return
			}
		}
		if v := lastSrcsetCandidate(s.AttrOr("srcset", "")); v != "" {
			out = append(out, v)
		}
	})
	return out
}

// lastSrcsetCandidate returns the URL of the final (usually largest) srcset entry
func lastSrcsetCandidate(srcset string) string {
	var last string
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			last = fields[0]
		}
	}
	return last
}

func jsonLDItems(doc *goquery.Document) []map[string]any {
	var items []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		items = append(items, flattenJSONLD(data)...)
	})
	return items
}

func flattenJSONLD(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			out = append(out, flattenJSONLD(graph)...)
		}
	case []any:
		for _, item := range v {
			out = append(out, flattenJSONLD(item)...)
		}
	}
	return out
}

func jsonLDText(items []map[string]any) string {
	var parts []string
	for _, item := range items {
		for _, key := range []string{"articleBody", "text", "description", "headline", "name"} {
			if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		if page, ok := item["mainEntityOfPage"].(map[string]any); ok {
			if s, ok := page["name"].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
	}
	return CleanText(strings.Join(parts, " "))
}

func jsonLDImages(items []map[string]any) []string {
	var out []string
	for _, item := range items {
		for _, key := range []string{"image", "thumbnailUrl"} {
			switch v := item[key].(type) {
			case string:
				out = append(out, v)
			case []any:
				for _, e := range v {
					switch ev := e.(type) {
					case string:
						out = append(out, ev)
					case map[string]any:
						out = append(out, imageObjectURL(ev))
					}
				}
			case map[string]any:
				out = append(out, imageObjectURL(v))
			}
		}
	}
	return out
}

func imageObjectURL(obj map[string]any) string {
	if s, ok := obj["url"].(string); ok {
		return s
	}
	if s, ok := obj["contentUrl"].(string); ok {
		return s
	}
	return ""
}

var skipTextElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "svg": true, "nav": true, "footer": true, "head": true,
}

// visibleText concatenates text nodes outside non-content elements
func visibleText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skipTextElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
			buf.WriteString(" ")
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}
