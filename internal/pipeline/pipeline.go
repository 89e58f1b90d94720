package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/dedup"
	"github.com/bikkkubo/pts-stock/internal/insights"
	"github.com/bikkkubo/pts-stock/internal/logger"
	"github.com/bikkkubo/pts-stock/internal/narrative"
	"github.com/bikkkubo/pts-stock/internal/retry"
)

// State names the pipeline's progress through one run. Every external
// failure moves to a degraded branch of the same state, never to a
// terminal failure: the pipeline always yields a FinalResult.
type State string

const (
	StateRaw        State = "RAW"
	StateDeduped    State = "DEDUPED"
	StateFacts      State = "FACTS_EXTRACTED"
	StateEmbedded   State = "EMBEDDED"
	StateClustered  State = "CLUSTERED"
	StateMapped     State = "MAPPED"
	StateAggregated State = "AGGREGATED"
	StateNarrated   State = "NARRATED"
	StateFormatted  State = "FORMATTED"
)

// MaxSources caps the FinalResult source list.
const MaxSources = 5

// maxEmbedRunes bounds the text handed to the embedding client per
// article.
const maxEmbedRunes = 1000

// Pipeline turns one instrument's article batch into a compact,
// numerically grounded, format-constrained causal narrative. Stages
// run synchronously in order; only one external call is outstanding at
// a time.
type Pipeline struct {
	embedder   EmbeddingClient
	extractor  FactExtractor
	clusterer  Clusterer
	summarizer ClusterSummarizer
	narrator   NarrativeGenerator
	policy     retry.Policy
	log        *slog.Logger
}

// Deps holds the pipeline's collaborators. Embedder may be nil when
// the API credential is absent; the pipeline then takes the degraded
// single-cluster path. Extractor, Clusterer, Summarizer, and Narrator
// are required.
type Deps struct {
	Embedder   EmbeddingClient
	Extractor  FactExtractor
	Clusterer  Clusterer
	Summarizer ClusterSummarizer
	Narrator   NarrativeGenerator
}

// New assembles a pipeline from its collaborators. A missing embedding
// client is warned about once, here, not per run.
func New(deps Deps) *Pipeline {
	log := logger.Get()
	if deps.Embedder == nil {
		log.Warn("embedding client unavailable, clustering disabled for all runs")
	}
	return &Pipeline{
		embedder:   deps.Embedder,
		extractor:  deps.Extractor,
		clusterer:  deps.Clusterer,
		summarizer: deps.Summarizer,
		narrator:   deps.Narrator,
		policy:     retry.Default(),
		log:        log,
	}
}

// Run processes one finite batch of articles for one instrument and
// always returns a FinalResult: missing data, unavailable services,
// and malformed external output degrade the result, they never abort
// the run.
func (p *Pipeline) Run(ctx context.Context, articles []core.Article) core.FinalResult {
	p.transition(StateRaw, len(articles))

	deduped := dedup.Deduplicate(articles)
	p.transition(StateDeduped, len(deduped))

	facts := p.extractor.Extract(deduped)
	p.transition(StateFacts, len(facts.Sales)+len(facts.Profit)+len(facts.YoY)+len(facts.Outlook))

	embeddings := p.embed(ctx, deduped)
	p.transition(StateEmbedded, len(embeddings))

	clusters := p.clusterer.Cluster(deduped, embeddings)
	p.transition(StateClustered, len(clusters))

	summaries := make([]core.ClusterSummary, 0, len(clusters))
	for _, cluster := range clusters {
		summaries = append(summaries, p.summarizer.SummarizeCluster(ctx, cluster))
	}
	p.transition(StateMapped, len(summaries))

	aggregated := insights.Aggregate(summaries, facts)
	p.transition(StateAggregated, len(aggregated.PrimaryDrivers))

	summary, validated := p.narrator.Generate(ctx, aggregated)
	p.transition(StateNarrated, 1)

	result := core.FinalResult{
		Summary:   narrative.Enforce(summary),
		Sources:   collectSources(deduped),
		Metrics:   strings.Join(aggregated.KeyMetrics, ", "),
		Validated: validated,
	}
	p.transition(StateFormatted, 1)

	return result
}

// embed requests one vector per article, bounded text, with the shared
// retry policy. Any terminal failure yields nil: embeddings
// unavailable, clustering falls back to a single cluster.
func (p *Pipeline) embed(ctx context.Context, articles []core.Article) [][]float64 {
	if p.embedder == nil || len(articles) == 0 {
		return nil
	}

	texts := make([]string, len(articles))
	for i, article := range articles {
		texts[i] = truncateRunes(article.Title+"\n"+article.Content, maxEmbedRunes)
	}

	var embeddings [][]float64
	err := p.policy.Do(ctx, func() error {
		vectors, embErr := p.embedder.GenerateEmbeddings(ctx, texts)
		if embErr != nil {
			return embErr
		}
		embeddings = vectors
		return nil
	})
	if err != nil {
		p.log.Warn("embeddings unavailable, falling back to a single cluster", "error", err.Error())
		return nil
	}
	if len(embeddings) != len(articles) {
		p.log.Warn("embedding response misaligned, falling back to a single cluster",
			"want", len(articles), "got", len(embeddings))
		return nil
	}

	return embeddings
}

// collectSources gathers article URLs in first-seen order,
// deduplicated and capped at MaxSources.
func collectSources(articles []core.Article) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if _, ok := seen[article.URL]; ok {
			continue
		}
		seen[article.URL] = struct{}{}
		sources = append(sources, article.URL)
		if len(sources) == MaxSources {
			break
		}
	}
	return sources
}

func (p *Pipeline) transition(state State, n int) {
	p.log.Debug("pipeline state", "state", string(state), "n", n)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
