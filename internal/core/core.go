package core

import "time"

// Article represents one news/disclosure record about an instrument.
// Articles are immutable once fetched; the pipeline owns them for the
// duration of one run.
type Article struct {
	ID          string    `json:"id"`           // Unique identifier for the article
	Title       string    `json:"title"`        // Headline text
	Content     string    `json:"content"`      // Body text (may be empty until fetched)
	URL         string    `json:"url"`          // Where the article was retrieved from
	Source      string    `json:"source"`       // Publisher or feed name
	PublishedAt time.Time `json:"published_at"` // Publication timestamp
	Category    string    `json:"category"`     // Optional source category (e.g. "disclosure")
}

// FactCategory identifies the kind of numeric claim a FactRecord holds.
type FactCategory string

const (
	FactSales     FactCategory = "sales"     // 売上高
	FactProfit    FactCategory = "profit"    // 利益/損失 (signed)
	FactYoYGrowth FactCategory = "yoyGrowth" // 前年比 (percent, signed)
	FactOutlook   FactCategory = "outlook"   // Free-text outlook span
)

// FactRecord is one extracted numeric claim with its unit and origin.
// Multiple records may originate from one article, one per pattern
// match; there is no article-level uniqueness guarantee.
type FactRecord struct {
	Category    FactCategory `json:"category"`
	Value       float64      `json:"value"`        // Signed; negative for loss/decrease
	Unit        string       `json:"unit"`         // e.g. "億円", "%"
	Text        string       `json:"text"`         // Matched span (outlook records carry only this)
	SourceTitle string       `json:"source_title"` // Title of the originating article
}

// FactSet groups extracted records by category, in extraction order.
type FactSet struct {
	Sales   []FactRecord `json:"sales"`
	Profit  []FactRecord `json:"profit"`
	YoY     []FactRecord `json:"yoy"`
	Outlook []FactRecord `json:"outlook"`
}

// TopicCluster is a non-empty ordered set of articles sharing a topic.
// Clusters never retain references back to the full article pool.
type TopicCluster struct {
	ID       string    `json:"id"`
	Articles []Article `json:"articles"`
	Centroid []float64 `json:"centroid,omitempty"`
}

// ClusterSummary is the structured record produced by the map stage
// for one cluster. When the generative call fails or its output cannot
// be parsed, the sentinel value from summarize is used instead.
type ClusterSummary struct {
	Title   string `json:"title"`
	KPI     string `json:"kpi"`
	Driver  string `json:"driver"`
	Outlook string `json:"outlook"`
}

// AggregatedInsights is the reduce-stage merge of cluster summaries
// and extracted facts. Derived, recomputed each run, never persisted.
type AggregatedInsights struct {
	PrimaryDrivers    []string `json:"primary_drivers"`    // Encounter order
	KeyMetrics        []string `json:"key_metrics"`        // Rendered representative metrics
	OutlookStatements []string `json:"outlook_statements"` // Encounter order
	IndustryContext   string   `json:"industry_context"`
}

// FinalResult is the only value the pipeline exposes to callers.
// Summary always satisfies the format contract: at most 400 runes and
// 2-3 sentences.
type FinalResult struct {
	Summary   string   `json:"summary"`
	Sources   []string `json:"sources"` // First-seen order, deduplicated, capped
	Metrics   string   `json:"metrics"` // Comma-joined KPI strings
	Validated bool     `json:"validated"`
}

// RankedStock is one row of a price-movement ranking page.
type RankedStock struct {
	Rank          int     `json:"rank"`
	Code          string  `json:"code"` // 4-digit ticker
	Name          string  `json:"name"`
	Price         float64 `json:"price"` // 0 when the page shows no price
	ChangePercent float64 `json:"change_percent"`
	IsStopLimit   bool    `json:"is_stop_limit"` // Ｓ高/Ｓ安
	SourceURL     string  `json:"source_url"`
}

// StockReport bundles one instrument's pipeline output for the report
// writers.
type StockReport struct {
	Stock       RankedStock `json:"stock"`
	Result      FinalResult `json:"result"`
	GeneratedAt time.Time   `json:"generated_at"`
}
