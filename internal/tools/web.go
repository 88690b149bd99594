package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/hearthmind/hearthmind/internal/schema"
)

const (
	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5
)

// WebProvider exposes web_search (Brave Search API) and web_fetch
// (readability extraction). Fetched pages come back as a resource content
// part so large bodies travel by blob token instead of flooding the
// conversation.
type WebProvider struct {
	searchKey  string
	maxResults int
	maxChars   int
	httpClient *http.Client
}

func NewWebProvider(searchKey string, maxResults, maxChars int) *WebProvider {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxChars <= 0 {
		maxChars = 50000
	}
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &WebProvider{
		searchKey:  searchKey,
		maxResults: maxResults,
		maxChars:   maxChars,
		httpClient: client,
	}
}

func (p *WebProvider) ListTools(_ context.Context) ([]schema.ToolDescriptor, error) {
	return []schema.ToolDescriptor{
		{
			Name:        "web_search",
			Description: "Search the web. Returns titles, URLs, and snippets.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search query",
					},
					"count": map[string]any{
						"type":        "integer",
						"description": "Results (1-10)",
						"minimum":     1,
						"maximum":     10,
					},
				},
				"required":             []any{"query"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "web_fetch",
			Description: "Fetch a URL and extract readable content. The body is returned as a chat:// resource.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"format":      "uri",
						"description": "URL to fetch",
					},
					"extractMode": map[string]any{
						"type": "string",
						"enum": []any{"markdown", "text"},
					},
				},
				"required":             []any{"url"},
				"additionalProperties": false,
			},
		},
	}, nil
}

func (p *WebProvider) CallTool(ctx context.Context, _, name string, args map[string]any) (*schema.ToolResult, error) {
	switch name {
	case "web_search":
		return p.search(ctx, args)
	case "web_fetch":
		return p.fetch(ctx, args)
	}
	return nil, fmt.Errorf("web provider has no tool %q", name)
}

// ---------------------------------------------------------------------------
// web_search
// ---------------------------------------------------------------------------

func (p *WebProvider) search(ctx context.Context, args map[string]any) (*schema.ToolResult, error) {
	if p.searchKey == "" {
		return schema.NewErrorResult("Error: search API key not configured"), nil
	}
	query, _ := args["query"].(string)
	if query == "" {
		return schema.NewErrorResult("Error: query is required"), nil
	}

	n := p.maxResults
	if countVal, ok := args["count"]; ok {
		switch v := countVal.(type) {
		case float64:
			n = int(v)
		case int:
			n = v
		}
	}
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.search.brave.com/res/v1/web/search", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", n))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.searchKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := data.Web.Results
	if len(results) == 0 {
		return schema.NewToolResult(schema.NewTextPart("No results for: " + query)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Results for: %s\n\n", query)
	for i, item := range results {
		if i >= n {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s", i+1, item.Title, item.URL)
		if item.Description != "" {
			sb.WriteString("\n   " + item.Description)
		}
		sb.WriteString("\n")
	}
	return schema.NewToolResult(schema.NewTextPart(sb.String())), nil
}

// ---------------------------------------------------------------------------
// web_fetch
// ---------------------------------------------------------------------------

func (p *WebProvider) fetch(ctx context.Context, args map[string]any) (*schema.ToolResult, error) {
	rawURL, _ := args["url"].(string)
	if rawURL == "" {
		return schema.NewErrorResult("Error: url is required"), nil
	}
	if err := validateURL(rawURL); err != nil {
		return schema.NewErrorResult(fmt.Sprintf("Error: URL validation failed: %v", err)), nil
	}

	extractMode := "markdown"
	if m, ok := args["extractMode"].(string); ok && m != "" {
		extractMode = m
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	ctype := resp.Header.Get("Content-Type")
	var text, mime string

	switch {
	case strings.Contains(ctype, "application/json"):
		var jsonData any
		if err := json.Unmarshal(bodyBytes, &jsonData); err == nil {
			formatted, _ := json.MarshalIndent(jsonData, "", "  ")
			text = string(formatted)
		} else {
			text = string(bodyBytes)
		}
		mime = "application/json"

	case strings.Contains(ctype, "text/html") || isHTMLPrefix(bodyBytes):
		parsedURL, _ := url.Parse(rawURL)
		article, err := readability.FromReader(bytes.NewReader(bodyBytes), parsedURL)
		if err == nil {
			if extractMode == "markdown" {
				text = htmlToMarkdown(article.Content)
			} else {
				text = stripHTMLTags(article.Content)
			}
			if article.Title != "" {
				text = "# " + article.Title + "\n\n" + text
			}
		} else {
			text = stripHTMLTags(string(bodyBytes))
		}
		mime = "text/markdown"
		if extractMode == "text" {
			mime = "text/plain"
		}

	default:
		text = string(bodyBytes)
		mime = "text/plain"
	}

	truncated := ""
	if len(text) > p.maxChars {
		text = text[:p.maxChars]
		truncated = " (truncated)"
	}

	return schema.NewToolResult(
		schema.NewTextPart(fmt.Sprintf("Fetched %s: HTTP %d, %d chars%s.", rawURL, resp.StatusCode, len(text), truncated)),
		schema.NewResourcePart(mime, text),
	), nil
}

// validateURL checks that url is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

// isHTMLPrefix returns true if the body starts with an HTML declaration.
func isHTMLPrefix(b []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// ---------------------------------------------------------------------------
// HTML → text/markdown helpers
// ---------------------------------------------------------------------------

var (
	reScript    = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags      = regexp.MustCompile(`<[^>]+>`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
	reLinks     = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>([\s\S]*?)</a>`)
	reHeadings  = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	reListItems = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reBlockEnd  = regexp.MustCompile(`(?is)</(p|div|section|article)>`)
	reLineBreak = regexp.MustCompile(`(?is)<(br|hr)\s*/?>`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToMarkdown converts HTML to a simple markdown representation.
func htmlToMarkdown(htmlText string) string {
	text := reLinks.ReplaceAllStringFunc(htmlText, func(m string) string {
		parts := reLinks.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		return fmt.Sprintf("[%s](%s)", stripHTMLTags(parts[2]), parts[1])
	})
	text = reHeadings.ReplaceAllStringFunc(text, func(m string) string {
		parts := reHeadings.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		level := int(parts[1][0] - '0')
		return fmt.Sprintf("\n%s %s\n", strings.Repeat("#", level), stripHTMLTags(parts[2]))
	})
	text = reListItems.ReplaceAllStringFunc(text, func(m string) string {
		parts := reListItems.FindStringSubmatch(m)
		if len(parts) < 2 {
			return m
		}
		return "\n- " + stripHTMLTags(parts[1])
	})
	text = reBlockEnd.ReplaceAllString(text, "\n\n")
	text = reLineBreak.ReplaceAllString(text, "\n")
	return normalizeWhitespace(stripHTMLTags(text))
}

func normalizeWhitespace(text string) string {
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
