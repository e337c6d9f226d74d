package attach

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	linkUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxLinkChars  = 2000
	maxLinks      = 2
)

var reURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// LinkProcessor extracts readable article text from URLs mentioned in a
// message so personas can reason about linked content, not just the bare URL.
type LinkProcessor struct {
	httpClient *http.Client
}

// NewLinkProcessor creates a LinkProcessor with a bounded fetch timeout.
func NewLinkProcessor() *LinkProcessor {
	return &LinkProcessor{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Process fetches up to maxLinks URLs found in content and returns their
// extracted text as documents. Fetch or parse failures are logged and
// skipped; the message itself is never blocked on enrichment.
func (p *LinkProcessor) Process(ctx context.Context, content string, _ []string) Enrichment {
	urls := reURL.FindAllString(content, maxLinks)
	if len(urls) == 0 {
		return Enrichment{}
	}

	var docs []string
	for _, raw := range urls {
		text, err := p.fetchArticle(ctx, raw)
		if err != nil {
			slog.Debug("attach: link fetch failed", "url", raw, "err", err)
			continue
		}
		if text != "" {
			docs = append(docs, text)
		}
	}
	return Enrichment{ExtractedDocuments: docs}
}

func (p *LinkProcessor) fetchArticle(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", linkUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", nil
	}

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > maxLinkChars {
		text = text[:maxLinkChars] + "..."
	}
	if article.Title != "" {
		text = article.Title + ": " + text
	}
	return text, nil
}
