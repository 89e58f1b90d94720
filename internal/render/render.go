package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/report"
)

// RenderMarkdownReport writes the report to a dated markdown file and
// returns its path. It is the local fallback when the Google Docs
// writer is not configured.
func RenderMarkdownReport(data report.Data, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "reports"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("stock_report_%s.md", data.Date))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Stock Market Analysis Report - %s\n\n", data.Date))

	if data.StopLimitWarning != "" {
		b.WriteString("## " + strings.SplitN(data.StopLimitWarning, "\n", 2)[0] + "\n\n")
		if parts := strings.SplitN(data.StopLimitWarning, "\n", 2); len(parts) == 2 {
			b.WriteString(parts[1] + "\n\n")
		}
	}

	empty := true
	for _, section := range data.Sections {
		if len(section.Reports) == 0 {
			continue
		}
		empty = false

		b.WriteString("## " + section.Title + "\n\n")
		for _, r := range section.Reports {
			stopStatus := ""
			if r.Stock.IsStopLimit {
				if r.Stock.ChangePercent > 0 {
					stopStatus = " (Ｓ高)"
				} else {
					stopStatus = " (Ｓ安)"
				}
			}
			b.WriteString(fmt.Sprintf("### %d. %s (%s) %+.2f%%%s\n\n",
				r.Stock.Rank, r.Stock.Name, r.Stock.Code, r.Stock.ChangePercent, stopStatus))
			b.WriteString(r.Result.Summary + "\n\n")
			if r.Result.Metrics != "" {
				b.WriteString("**Metrics:** " + r.Result.Metrics + "\n\n")
			}
			if len(r.Result.Sources) > 0 {
				b.WriteString("**Sources:**\n")
				for _, src := range r.Result.Sources {
					b.WriteString("- " + src + "\n")
				}
				b.WriteString("\n")
			}
		}
	}

	if empty {
		b.WriteString("No stocks analyzed for this report.\n")
	}

	if err := os.WriteFile(filePath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", filePath, err)
	}

	return filePath, nil
}
