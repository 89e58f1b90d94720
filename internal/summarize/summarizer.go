package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

// ErrMalformedResponse marks a generative response that did not parse
// as the expected four-field record. It is converted to the sentinel
// summary, never propagated out of the map stage.
var ErrMalformedResponse = errors.New("malformed summarizer response")

// MaxClusterRunes bounds the concatenated cluster text sent to the
// generative service, capping request cost.
const MaxClusterRunes = 2500

// Sentinel is the fixed placeholder summary substituted when the
// generative call fails or its output cannot be parsed. A single
// malformed cluster must never abort the run.
var Sentinel = core.ClusterSummary{
	Title:   "情報不足",
	KPI:     "",
	Driver:  "原因を特定できる情報が不足しています",
	Outlook: "",
}

// TextGenerator is the slice of the generative service the map stage
// needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Result is the tagged outcome of one map-stage call: either a parsed
// summary, or a parse failure carrying the raw text.
type Result struct {
	Summary core.ClusterSummary
	Raw     string
	Err     error
}

// Summarizer produces one structured record per cluster.
type Summarizer struct {
	gen TextGenerator
	log *slog.Logger
}

// NewSummarizer creates the map-stage summarizer. gen may be nil when
// the generative service is disabled; every cluster then yields the
// sentinel.
func NewSummarizer(gen TextGenerator) *Summarizer {
	return &Summarizer{
		gen: gen,
		log: logger.Get(),
	}
}

// SummarizeCluster concatenates the cluster's article titles and
// contents, asks the generative service for a fixed four-field record,
// and parses the response. On any failure the sentinel record is
// returned instead of an error.
func (s *Summarizer) SummarizeCluster(ctx context.Context, cluster core.TopicCluster) core.ClusterSummary {
	result := s.summarize(ctx, cluster)
	if result.Err != nil {
		s.log.Warn("cluster summary degraded to sentinel",
			"cluster", cluster.ID, "reason", result.Err.Error())
		return Sentinel
	}
	return result.Summary
}

func (s *Summarizer) summarize(ctx context.Context, cluster core.TopicCluster) Result {
	if s.gen == nil {
		return Result{Err: fmt.Errorf("generative service disabled")}
	}

	prompt := BuildClusterPrompt(cluster)

	raw, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return Result{Err: fmt.Errorf("generate cluster summary: %w", err)}
	}

	summary, err := ParseResponse(raw)
	if err != nil {
		return Result{Raw: raw, Err: err}
	}

	return Result{Summary: summary, Raw: raw}
}

// BuildClusterPrompt renders the map-stage instruction for one
// cluster, bounding the article text to MaxClusterRunes.
func BuildClusterPrompt(cluster core.TopicCluster) string {
	var b strings.Builder
	for _, article := range cluster.Articles {
		b.WriteString(article.Title)
		b.WriteString("\n")
		b.WriteString(article.Content)
		b.WriteString("\n\n")
	}
	text := truncateRunes(b.String(), MaxClusterRunes)

	return fmt.Sprintf(`以下は同一銘柄に関する同一トピックのニュース記事群です。内容を分析し、次の4項目をJSONで出力してください。

出力形式(JSONのみ、説明文は不要):
{"title": "トピックの見出し(20文字以内)", "kpi": "言及されている主要な数値指標", "driver": "株価変動の主因", "outlook": "今後の見通し"}

記事:
%s`, text)
}

// ParseResponse parses a generative response as a ClusterSummary.
// Markdown code fences are tolerated. A record with neither title nor
// driver is treated as malformed.
func ParseResponse(raw string) (core.ClusterSummary, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var summary core.ClusterSummary
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return core.ClusterSummary{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if summary.Title == "" && summary.Driver == "" {
		return core.ClusterSummary{}, fmt.Errorf("%w: empty record", ErrMalformedResponse)
	}

	return summary, nil
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
