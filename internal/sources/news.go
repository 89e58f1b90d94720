package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/bikkkubo/pts-stock/internal/core"
)

const stockNewsURLFormat = "https://kabutan.jp/stock/news?code=%s"

// ScrapeStockNews collects the news/disclosure headlines listed for
// one instrument code. Bodies are left empty; the content fetcher
// fills them when needed.
func (s *KabutanScraper) ScrapeStockNews(ctx context.Context, code string) ([]core.Article, error) {
	url := fmt.Sprintf(stockNewsURLFormat, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch news for %s: status code %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read news for %s: %w", code, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse news for %s: %w", code, err)
	}

	return s.parseNewsList(doc), nil
}

// parseNewsList walks the news table rows: timestamp, category badge,
// headline link.
func (s *KabutanScraper) parseNewsList(doc *goquery.Document) []core.Article {
	var articles []core.Article

	doc.Find("table.s_news_list tr, div.news_contents table tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}

		publishedAt := time.Time{}
		if dt, ok := row.Find("time").Attr("datetime"); ok {
			if parsed, err := time.Parse(time.RFC3339, dt); err == nil {
				publishedAt = parsed
			}
		}

		category := strings.TrimSpace(row.Find("div.newslist_ctg").First().Text())

		articles = append(articles, core.Article{
			ID:          uuid.NewString(),
			Title:       title,
			URL:         absoluteURL(href),
			Source:      "kabutan",
			PublishedAt: publishedAt,
			Category:    category,
		})
	})

	return articles
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return "https://kabutan.jp" + href
	}
	return "https://kabutan.jp/" + href
}
