package facts

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
)

// numericPattern is one entry of the extraction table. Each match
// produces one FactRecord; patterns are independent and may overlap.
type numericPattern struct {
	category   core.FactCategory
	re         *regexp.Regexp
	valueGroup int // Submatch index of the numeric string
	unitGroup  int // Submatch index of the unit, 0 for fixed-unit patterns
	unit       string
}

// negativeMarkers flip the sign of a matched value when present in the
// matched span: 損失/赤字 for results, ▲/△/減 for rates.
var negativeMarkers = []string{"損失", "赤字", "▲", "△", "減"}

var numericPatterns = []numericPattern{
	// 売上高1200億円. The broad variant below matches the same span;
	// this double counting is the documented behavior and can be
	// suppressed with SkipOverlaps.
	{
		category:   core.FactSales,
		re:         regexp.MustCompile(`売上高[はがも]?([0-9][0-9,]*(?:\.[0-9]+)?)(兆円|億円|百万円|万円|円)`),
		valueGroup: 1,
		unitGroup:  2,
	},
	{
		category:   core.FactSales,
		re:         regexp.MustCompile(`売上(?:高|収益)?[はがも]?([0-9][0-9,]*(?:\.[0-9]+)?)(兆円|億円|百万円|万円|円)`),
		valueGroup: 1,
		unitGroup:  2,
	},
	// 営業利益300億円 / 最終損失50億円
	{
		category:   core.FactProfit,
		re:         regexp.MustCompile(`((?:営業|経常|純|最終|税引前)?(?:利益|損失|赤字|黒字))[はがも]?([0-9][0-9,]*(?:\.[0-9]+)?)(兆円|億円|百万円|万円|円)`),
		valueGroup: 2,
		unitGroup:  3,
	},
	// 前年比+15.2% / 前年同期比▲3%
	{
		category:   core.FactYoYGrowth,
		re:         regexp.MustCompile(`前年(?:同期)?比[はで]?([+＋▲△\-−]?[0-9][0-9,]*(?:\.[0-9]+)?)[%％](増|減)?`),
		valueGroup: 1,
		unit:       "%",
	},
}

// outlookPattern captures forward-looking sentences as free-text
// spans, not numbers.
var outlookPattern = regexp.MustCompile(`[^。\n]*(?:見通し|業績予想|通期予想|上方修正|下方修正|見込み|来期)[^。\n]*。?`)

// Extractor pulls numeric KPIs out of article text by pattern
// matching. It is best-effort, not a financial-statement parser.
type Extractor struct {
	// SkipOverlaps suppresses any match whose character span overlaps
	// an already-recorded match of the same category within one
	// article. Off by default: the literal behavior double-counts
	// when a broad and a narrow pattern hit the same span.
	SkipOverlaps bool
}

// NewExtractor returns an extractor with the literal (non-suppressing)
// behavior.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract applies the pattern table independently to each article and
// groups the resulting records by category, in extraction order.
func (e *Extractor) Extract(articles []core.Article) core.FactSet {
	var set core.FactSet

	for _, article := range articles {
		text := article.Title + "\n" + article.Content

		recorded := make(map[core.FactCategory][][2]int)

		for _, p := range numericPatterns {
			for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
				span := [2]int{idx[0], idx[1]}
				if e.SkipOverlaps && overlapsAny(span, recorded[p.category]) {
					continue
				}

				matched := text[idx[0]:idx[1]]
				raw := text[idx[2*p.valueGroup] : idx[2*p.valueGroup+1]]
				value, ok := parseNumber(raw)
				if !ok {
					continue
				}
				if isNegative(matched) {
					value = -value
				}

				unit := p.unit
				if p.unitGroup > 0 && idx[2*p.unitGroup] >= 0 {
					unit = text[idx[2*p.unitGroup]:idx[2*p.unitGroup+1]]
				}

				record := core.FactRecord{
					Category:    p.category,
					Value:       value,
					Unit:        unit,
					Text:        matched,
					SourceTitle: article.Title,
				}

				switch p.category {
				case core.FactSales:
					set.Sales = append(set.Sales, record)
				case core.FactProfit:
					set.Profit = append(set.Profit, record)
				case core.FactYoYGrowth:
					set.YoY = append(set.YoY, record)
				}

				recorded[p.category] = append(recorded[p.category], span)
			}
		}

		for _, span := range outlookPattern.FindAllString(text, -1) {
			span = strings.TrimSpace(span)
			if span == "" {
				continue
			}
			set.Outlook = append(set.Outlook, core.FactRecord{
				Category:    core.FactOutlook,
				Text:        span,
				SourceTitle: article.Title,
			})
		}
	}

	return set
}

// parseNumber normalizes thousands separators and sign glyphs before
// parsing.
func parseNumber(raw string) (float64, bool) {
	s := strings.NewReplacer(",", "", "＋", "", "+", "", "▲", "", "△", "", "−", "-").Replace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		// Sign is decided by isNegative on the full span.
		v = -v
	}
	return v, true
}

// isNegative reports whether the matched span carries a loss/decrease
// marker.
func isNegative(span string) bool {
	for _, marker := range negativeMarkers {
		if strings.Contains(span, marker) {
			return true
		}
	}
	return strings.Contains(span, "-") || strings.Contains(span, "−")
}

func overlapsAny(span [2]int, recorded [][2]int) bool {
	for _, r := range recorded {
		if span[0] < r[1] && r[0] < span[1] {
			return true
		}
	}
	return false
}
