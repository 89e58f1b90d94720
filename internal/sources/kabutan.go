package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

// RankingCategory identifies one Kabutan price-movement ranking page.
type RankingCategory string

const (
	RegularUp   RankingCategory = "regular_up"
	RegularDown RankingCategory = "regular_down"
	PTSUp       RankingCategory = "pts_up"
	PTSDown     RankingCategory = "pts_down"
)

// RankingURLs maps each category to its Kabutan ranking page.
var RankingURLs = map[RankingCategory]string{
	RegularUp:   "https://kabutan.jp/warning/value_increase",
	RegularDown: "https://kabutan.jp/warning/value_decrease",
	PTSUp:       "https://kabutan.jp/warning/pts_night_price_increase",
	PTSDown:     "https://kabutan.jp/warning/pts_night_price_decrease",
}

// Categories lists the ranking categories in report order.
var Categories = []RankingCategory{RegularUp, RegularDown, PTSUp, PTSDown}

// IsPTS reports whether the category belongs to the PTS market.
func (c RankingCategory) IsPTS() bool {
	return strings.HasPrefix(string(c), "pts")
}

var changeRegexp = regexp.MustCompile(`([-−－]?\d*\.?\d+)`)

// KabutanScraper fetches the top rows of Kabutan ranking tables.
type KabutanScraper struct {
	client    *http.Client
	userAgent string
	topN      int
	log       *slog.Logger
}

// NewKabutanScraper creates a scraper limited to the first topN rows
// per page (10 when topN is zero).
func NewKabutanScraper(timeout time.Duration, userAgent string, topN int) *KabutanScraper {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if topN <= 0 {
		topN = 10
	}
	return &KabutanScraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		topN:      topN,
		log:       logger.Get(),
	}
}

// ScrapeRanking fetches and parses one ranking page. A failed fetch or
// an unrecognized page yields an empty list, not an error to the
// caller's run loop.
func (s *KabutanScraper) ScrapeRanking(ctx context.Context, category RankingCategory) ([]core.RankedStock, error) {
	url, ok := RankingURLs[category]
	if !ok {
		return nil, fmt.Errorf("unknown ranking category %q", category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranking %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch ranking %s: status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ranking %s: %w", url, err)
	}

	stocks := s.parseTable(doc, url)
	s.log.Info("scraped ranking", "category", string(category), "stocks", len(stocks))
	return stocks, nil
}

// parseTable walks the ranking table (class stock_kabuka0), skipping
// the header row and stopping after topN valid rows.
func (s *KabutanScraper) parseTable(doc *goquery.Document, url string) []core.RankedStock {
	table := doc.Find("table.stock_kabuka0").First()
	if table.Length() == 0 {
		s.log.Warn("ranking table not found", "url", url)
		return nil
	}

	var stocks []core.RankedStock
	rank := 1

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 || rank > s.topN {
			return
		}

		cols := row.Find("td")
		if cols.Length() < 4 {
			return
		}

		code := cellText(cols, 0)
		if len(code) != 4 || !isDigits(code) {
			return
		}

		name := cellText(cols, 1)
		if name == "" {
			return
		}

		price := parsePrice(cellText(cols, 3))

		change, ok := findChangePercent(cols)
		if !ok {
			s.log.Warn("change % column not identified", "code", code, "url", url)
			return
		}

		stocks = append(stocks, core.RankedStock{
			Rank:          rank,
			Code:          code,
			Name:          name,
			Price:         price,
			ChangePercent: change,
			IsStopLimit:   hasStopLimit(cols),
			SourceURL:     url,
		})
		rank++
	})

	return stocks
}

// findChangePercent scans columns backwards for one marked with a
// change/rate class or containing a ％ sign.
func findChangePercent(cols *goquery.Selection) (float64, bool) {
	for i := cols.Length() - 1; i > 2; i-- {
		col := cols.Eq(i)
		class, _ := col.Attr("class")
		text := strings.TrimSpace(col.Text())
		if !strings.Contains(class, "change") && !strings.Contains(class, "rate") && !strings.Contains(text, "％") && !strings.Contains(text, "%") {
			continue
		}

		raw := strings.NewReplacer("％", "", "%", "", "+", "").Replace(text)
		m := changeRegexp.FindStringSubmatch(raw)
		if m == nil {
			return 0, false
		}
		normalized := strings.NewReplacer("−", "-", "－", "-").Replace(m[1])
		v, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// hasStopLimit looks for Ｓ高/Ｓ安 markers in the status columns.
func hasStopLimit(cols *goquery.Selection) bool {
	found := false
	cols.Each(func(i int, col *goquery.Selection) {
		if i < 3 || found {
			return
		}
		text := col.Text()
		if strings.Contains(text, "S高") || strings.Contains(text, "S安") ||
			strings.Contains(text, "Ｓ高") || strings.Contains(text, "Ｓ安") {
			found = true
		}
	})
	return found
}

func cellText(cols *goquery.Selection, i int) string {
	col := cols.Eq(i)
	if a := col.Find("a").First(); a.Length() > 0 {
		return strings.TrimSpace(a.Text())
	}
	return strings.TrimSpace(col.Text())
}

func parsePrice(text string) float64 {
	text = strings.ReplaceAll(text, ",", "")
	if text == "" || text == "--" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
