package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bikkkubo/pts-stock/internal/clustering"
	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/facts"
	"github.com/bikkkubo/pts-stock/internal/fetch"
	"github.com/bikkkubo/pts-stock/internal/logger"
	"github.com/bikkkubo/pts-stock/internal/narrative"
	"github.com/bikkkubo/pts-stock/internal/pipeline"
	"github.com/bikkkubo/pts-stock/internal/render"
	"github.com/bikkkubo/pts-stock/internal/report"
	"github.com/bikkkubo/pts-stock/internal/retry"
	"github.com/bikkkubo/pts-stock/internal/sources"
	"github.com/bikkkubo/pts-stock/internal/summarize"
)

// maxArticleBodies bounds per-stock content fetches; headlines beyond
// this still feed the pipeline without bodies.
const maxArticleBodies = 5

var sectionTitles = map[sources.RankingCategory]string{
	sources.RegularUp:   "Regular Market - Top Gainers",
	sources.RegularDown: "Regular Market - Top Losers",
	sources.PTSUp:       "PTS Market - Top Gainers",
	sources.PTSDown:     "PTS Market - Top Losers",
}

// NewRunCmd creates the full ranking-to-report workflow command.
func NewRunCmd() *cobra.Command {
	var (
		dateFlag     string
		folderID     string
		markdownOnly bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape the rankings, analyze every ranked stock, and write the dated report",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateFlag
			if date == "" {
				date = time.Now().Format("2006-01-02")
			} else if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateFlag)
			}
			if folderID != "" {
				cfg.Report.DriveFolderID = folderID
			}
			return runReport(cmd.Context(), date, markdownOnly)
		},
	}

	runCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "report date in YYYY-MM-DD format (defaults to today)")
	runCmd.Flags().StringVarP(&folderID, "folder-id", "f", "", "Google Drive folder ID for the report document")
	runCmd.Flags().BoolVar(&markdownOnly, "markdown", false, "write a local markdown report instead of a Google Doc")

	return runCmd
}

func runReport(ctx context.Context, date string, markdownOnly bool) error {
	log := logger.Get()
	start := time.Now()
	log.Info("starting stock market analysis report", "date", date)

	scraper, fetcher := newCollaborators()
	pipe := newPipeline(ctx)

	var (
		data            report.Data
		stopLimitStocks []core.RankedStock
		stopLimitMkts   []string
	)
	data.Date = date

	for _, category := range sources.Categories {
		stocks, err := scraper.ScrapeRanking(ctx, category)
		if err != nil {
			log.Warn("ranking scrape failed, skipping category",
				"category", string(category), "error", err.Error())
			continue
		}

		section := report.Section{Title: sectionTitles[category]}
		for _, stock := range stocks {
			log.Info("analyzing stock", "code", stock.Code, "name", stock.Name,
				"change_percent", stock.ChangePercent)

			articles := gatherArticles(ctx, scraper, fetcher, stock.Code)
			result := pipe.Run(ctx, articles)

			section.Reports = append(section.Reports, core.StockReport{
				Stock:       stock,
				Result:      result,
				GeneratedAt: time.Now().UTC(),
			})

			if stock.IsStopLimit {
				stopLimitStocks = append(stopLimitStocks, stock)
				market := "Regular"
				if category.IsPTS() {
					market = "PTS"
				}
				stopLimitMkts = append(stopLimitMkts, market)
			}
		}
		data.Sections = append(data.Sections, section)
	}

	if len(stopLimitStocks) >= cfg.Report.StopLimitThreshold {
		log.Warn("stop limit threshold reached", "count", len(stopLimitStocks))
		data.StopLimitWarning = report.StopLimitWarning(stopLimitStocks, stopLimitMkts)
	}

	if err := writeReport(ctx, data, markdownOnly); err != nil {
		return err
	}

	log.Info("report generation finished", "elapsed", time.Since(start).String())
	return nil
}

// gatherArticles collects the stock's news headlines and fetches
// bodies for the first few. Failures leave headline-only articles; an
// empty batch still yields a (low-information) result downstream.
func gatherArticles(ctx context.Context, scraper *sources.KabutanScraper, fetcher *fetch.Fetcher, code string) []core.Article {
	log := logger.Get()

	articles, err := scraper.ScrapeStockNews(ctx, code)
	if err != nil {
		log.Warn("news scrape failed", "code", code, "error", err.Error())
		return nil
	}

	for i := range articles {
		if i >= maxArticleBodies {
			break
		}
		fetched, err := fetcher.FetchArticle(ctx, articles[i].URL, articles[i].Source)
		if err != nil {
			log.Debug("article body fetch failed", "url", articles[i].URL, "error", err.Error())
			continue
		}
		articles[i].Content = fetched.Content
	}

	return articles
}

// writeReport prefers the Google Docs writer and degrades to markdown
// when credentials are unavailable.
func writeReport(ctx context.Context, data report.Data, markdownOnly bool) error {
	log := logger.Get()

	if !markdownOnly {
		if _, err := os.Stat(cfg.Report.CredentialsPath); err == nil {
			writer, err := report.NewDocsWriter(ctx, cfg.Report.CredentialsPath, cfg.Report.DriveFolderID)
			if err == nil {
				url, createErr := writer.Create(ctx, data)
				if createErr == nil {
					log.Info("report written", "url", url)
					return nil
				}
				log.Warn("Google Docs report failed, falling back to markdown", "error", createErr.Error())
			} else {
				log.Warn("Google Docs writer unavailable, falling back to markdown", "error", err.Error())
			}
		} else {
			log.Warn("Google credentials not found, falling back to markdown",
				"path", cfg.Report.CredentialsPath)
		}
	}

	path, err := render.RenderMarkdownReport(data, cfg.App.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	log.Info("report written", "path", path)
	return nil
}

// newCollaborators builds the ranking scraper and content fetcher from
// config.
func newCollaborators() (*sources.KabutanScraper, *fetch.Fetcher) {
	timeout, _ := time.ParseDuration(cfg.Fetch.Timeout)
	retryDelay, _ := time.ParseDuration(cfg.Fetch.RetryDelay)

	policy := retry.Default()
	if cfg.Fetch.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Fetch.MaxAttempts
	}
	if retryDelay > 0 {
		policy.InitialDelay = retryDelay
	}

	scraper := sources.NewKabutanScraper(timeout, cfg.Fetch.UserAgent, cfg.Ranking.TopN)
	fetcher := fetch.NewFetcher(timeout, cfg.Fetch.UserAgent, policy)
	return scraper, fetcher
}

// newPipeline assembles the analysis pipeline, degraded when the
// generative service is not configured.
func newPipeline(ctx context.Context) *pipeline.Pipeline {
	deps := pipeline.Deps{
		Extractor: facts.NewExtractor(),
		Clusterer: clustering.NewClusterer(clustering.DefaultKMeansConfig()),
	}

	if client := newLLMClient(ctx); client != nil {
		deps.Embedder = client
		deps.Summarizer = summarize.NewSummarizer(client)
		deps.Narrator = narrative.NewGenerator(client)
	} else {
		deps.Summarizer = summarize.NewSummarizer(nil)
		deps.Narrator = narrative.NewGenerator(nil)
	}

	return pipeline.New(deps)
}
