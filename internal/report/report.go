package report

import (
	"fmt"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
)

// Section is one ranking category's worth of analyzed stocks.
type Section struct {
	Title   string
	Reports []core.StockReport
}

// Data is the full report payload handed to a writer.
type Data struct {
	Date             string // YYYY-MM-DD
	Sections         []Section
	StopLimitWarning string // Empty when below threshold
}

// StopLimitWarning renders the warning block emitted when the day's
// stop-high/stop-low count reaches the configured threshold.
func StopLimitWarning(stocks []core.RankedStock, markets []string) string {
	if len(stocks) == 0 {
		return ""
	}

	lines := []string{
		fmt.Sprintf("【Warning】%d Stop-High/Low Stocks Today!", len(stocks)),
		"----------------------------------------",
	}
	for i, stock := range stocks {
		market := "Regular"
		if i < len(markets) {
			market = markets[i]
		}
		stopType := "(Ｓ安)"
		if stock.ChangePercent > 0 {
			stopType = "(Ｓ高)"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) - Market: %s, Change: %+.2f%% %s",
			stock.Name, stock.Code, market, stock.ChangePercent, stopType))
	}

	return strings.Join(lines, "\n")
}
