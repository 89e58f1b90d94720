package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
	"github.com/bikkkubo/pts-stock/internal/retry"
)

// Fetcher retrieves article bodies over HTTP with a fixed timeout and
// the shared retry policy for transient network errors.
type Fetcher struct {
	client    *http.Client
	userAgent string
	policy    retry.Policy
	log       *slog.Logger
}

// NewFetcher creates a fetcher. timeout bounds each request; zero
// selects 15 seconds.
func NewFetcher(timeout time.Duration, userAgent string, policy retry.Policy) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		policy:    policy,
		log:       logger.Get(),
	}
}

// FetchArticle downloads a URL and extracts its title and main text.
func (f *Fetcher) FetchArticle(ctx context.Context, url, source string) (core.Article, error) {
	var body string
	err := f.policy.Do(ctx, func() error {
		var fetchErr error
		body, fetchErr = f.get(ctx, url)
		return fetchErr
	})
	if err != nil {
		return core.Article{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return core.Article{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return core.Article{
		ID:          uuid.NewString(),
		Title:       extractTitle(doc),
		Content:     extractText(doc),
		URL:         url,
		Source:      source,
		PublishedAt: time.Now().UTC(),
	}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(bodyBytes), nil
}

// extractTitle tries the document title, the OpenGraph title, then the
// first h1.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		return title
	}
	if ogTitle, _ := doc.Find("meta[property='og:title']").Attr("content"); ogTitle != "" {
		return strings.TrimSpace(ogTitle)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractText removes boilerplate elements and collects paragraph-level
// text from the main content region, falling back to the whole body.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript").Remove()

	var b strings.Builder
	appendText := func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	main := doc.Find("article, main, [role='main']").First()
	if main.Length() > 0 {
		main.Find("p, h1, h2, h3, li").Each(appendText)
	} else {
		doc.Find("body").Find("p, h1, h2, h3, li").Each(appendText)
	}

	return strings.TrimSpace(b.String())
}
