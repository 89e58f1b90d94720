package insights

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
)

// Industry context labels produced by the keyword classifier. This is
// a coarse heuristic over driver text, not a trained model.
const (
	ContextEarnings = "決算シーズンの業績評価"
	ContextGrowth   = "成長フェーズの拡大期待"
	ContextMarket   = "市場環境の変化への対応"
	ContextSpecific = "個別材料"
)

var contextKeywords = []struct {
	label    string
	keywords []string
}{
	{ContextEarnings, []string{"決算", "業績", "四半期", "増益", "減益", "黒字", "赤字"}},
	{ContextGrowth, []string{"新規事業", "新製品", "新サービス", "提携", "買収", "出資"}},
	{ContextMarket, []string{"市場環境", "金利", "為替", "地合い", "相場"}},
}

// Aggregate merges per-cluster summaries and extracted facts into one
// insight set. Drivers and outlooks keep encounter order; one
// representative metric is selected per fact category.
func Aggregate(summaries []core.ClusterSummary, facts core.FactSet) core.AggregatedInsights {
	var insights core.AggregatedInsights

	for _, s := range summaries {
		if s.Driver != "" {
			insights.PrimaryDrivers = append(insights.PrimaryDrivers, s.Driver)
		}
		if s.Outlook != "" {
			insights.OutlookStatements = append(insights.OutlookStatements, s.Outlook)
		}
	}
	// Extracted outlook spans trail the cluster-level statements.
	for _, r := range facts.Outlook {
		insights.OutlookStatements = append(insights.OutlookStatements, r.Text)
	}

	insights.KeyMetrics = representativeMetrics(facts)
	insights.IndustryContext = classifyContext(insights.PrimaryDrivers)

	return insights
}

// representativeMetrics selects one metric per category: the maximum
// sales figure, the profit/loss with the largest absolute value (sign
// preserved, label flipped for losses), and the arithmetic mean of all
// year-over-year rates.
func representativeMetrics(facts core.FactSet) []string {
	var metrics []string

	if r, ok := maxBy(facts.Sales, func(r core.FactRecord) float64 { return r.Value }); ok {
		metrics = append(metrics, fmt.Sprintf("売上高%s%s", formatValue(r.Value), r.Unit))
	}

	if r, ok := maxBy(facts.Profit, func(r core.FactRecord) float64 { return math.Abs(r.Value) }); ok {
		label := "利益"
		if r.Value < 0 {
			label = "損失"
		}
		metrics = append(metrics, fmt.Sprintf("%s%s%s", label, formatValue(math.Abs(r.Value)), r.Unit))
	}

	if len(facts.YoY) > 0 {
		var sum float64
		for _, r := range facts.YoY {
			sum += r.Value
		}
		mean := sum / float64(len(facts.YoY))
		metrics = append(metrics, fmt.Sprintf("前年比%+.1f%%", mean))
	}

	return metrics
}

// classifyContext labels the aggregate driver text by keyword lookup.
func classifyContext(drivers []string) string {
	joined := strings.Join(drivers, " ")
	for _, entry := range contextKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(joined, kw) {
				return entry.label
			}
		}
	}
	return ContextSpecific
}

func maxBy(records []core.FactRecord, key func(core.FactRecord) float64) (core.FactRecord, bool) {
	if len(records) == 0 {
		return core.FactRecord{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if key(r) > key(best) {
			best = r
		}
	}
	return best, true
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
