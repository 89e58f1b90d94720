package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
	"github.com/bikkkubo/pts-stock/internal/retry"
)

// ErrFormatViolation marks a generated narrative that failed the
// sentence/length validation and should be regenerated.
var ErrFormatViolation = errors.New("narrative format violation")

// MaxAttempts bounds narrative regeneration.
const MaxAttempts = 3

// TextGenerator is the slice of the generative service the narrative
// stage needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generator produces the final 2-3 sentence narrative, retrying on
// format violations and falling back deterministically. The caller
// never receives an error from this stage.
type Generator struct {
	gen    TextGenerator
	policy retry.Policy
	log    *slog.Logger
}

// NewGenerator creates a narrative generator. gen may be nil when the
// generative service is disabled; Generate then goes straight to the
// deterministic fallback.
func NewGenerator(gen TextGenerator) *Generator {
	return &Generator{
		gen: gen,
		policy: retry.Policy{
			MaxAttempts:  MaxAttempts,
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2,
		},
		log: logger.Get(),
	}
}

// Generate builds the narrative prompt from the aggregated insights
// and asks the generative service for a compliant narrative, retrying
// up to MaxAttempts on validation failure. When every attempt fails,
// or the service is disabled, it returns the deterministic fallback
// with validated=false.
func (g *Generator) Generate(ctx context.Context, insights core.AggregatedInsights) (string, bool) {
	if g.gen == nil {
		return Fallback(insights), false
	}

	prompt := BuildPrompt(insights)

	var narrative string
	err := g.policy.Do(ctx, func() error {
		text, genErr := g.gen.GenerateText(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		text = strings.TrimSpace(text)
		if vErr := Validate(text); vErr != nil {
			g.log.Debug("narrative rejected", "reason", vErr.Error())
			return vErr
		}
		narrative = text
		return nil
	})
	if err != nil {
		g.log.Warn("narrative generation exhausted, using fallback", "error", err.Error())
		return Fallback(insights), false
	}

	return narrative, true
}

// Validate checks the format contract: non-empty, at most 400 runes,
// and 2-3 sentences by terminator split.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty narrative", ErrFormatViolation)
	}
	if n := utf8.RuneCountInString(text); n > MaxSummaryRunes {
		return fmt.Errorf("%w: %d runes exceeds %d", ErrFormatViolation, n, MaxSummaryRunes)
	}
	if n := CountSentences(text); n < 2 || n > MaxSentences {
		return fmt.Errorf("%w: %d sentences, want 2-%d", ErrFormatViolation, n, MaxSentences)
	}
	return nil
}

// BuildPrompt renders the narrative instruction from the selected
// metrics, top two drivers, first outlook statement, and industry
// context.
func BuildPrompt(insights core.AggregatedInsights) string {
	var b strings.Builder

	b.WriteString("以下の分析結果から、株価変動の因果関係を説明する要約を日本語で作成してください。\n\n")

	if len(insights.KeyMetrics) > 0 {
		b.WriteString("主要指標: " + strings.Join(insights.KeyMetrics, "、") + "\n")
	}
	for i, driver := range insights.PrimaryDrivers {
		if i >= 2 {
			break
		}
		b.WriteString(fmt.Sprintf("変動要因%d: %s\n", i+1, driver))
	}
	if len(insights.OutlookStatements) > 0 {
		b.WriteString("見通し: " + insights.OutlookStatements[0] + "\n")
	}
	if insights.IndustryContext != "" {
		b.WriteString("業界文脈: " + insights.IndustryContext + "\n")
	}

	b.WriteString(`
制約:
- 2〜3文、全体で400文字以内
- 1文目に具体的な数値を含める
- 2文目は今後の見通しを述べる
- 3文目は背景・文脈の説明(省略可)
- 要約本文のみを出力し、前置きは不要`)

	return b.String()
}

// Fallback builds a deterministic narrative from the insights alone.
// It always satisfies the format contract.
func Fallback(insights core.AggregatedInsights) string {
	var sentences []string

	if len(insights.KeyMetrics) > 0 {
		sentences = append(sentences, fmt.Sprintf("主要指標は%sです。", strings.Join(insights.KeyMetrics, "、")))
	} else {
		sentences = append(sentences, "具体的な数値情報は確認できませんでした。")
	}

	if len(insights.PrimaryDrivers) > 0 {
		sentences = append(sentences, fmt.Sprintf("%sが変動要因とみられます。", clip(insights.PrimaryDrivers[0], 80)))
	} else {
		sentences = append(sentences, "変動要因を特定できる情報は限定的です。")
	}

	if len(insights.OutlookStatements) > 0 {
		outlook := clip(insights.OutlookStatements[0], 80)
		if !strings.HasSuffix(outlook, "。") {
			outlook += "。"
		}
		sentences = append(sentences, outlook)
	} else if insights.IndustryContext != "" {
		sentences = append(sentences, fmt.Sprintf("背景としては%sが挙げられます。", insights.IndustryContext))
	}

	return Enforce(strings.Join(sentences, ""))
}

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
