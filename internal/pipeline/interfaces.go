package pipeline

import (
	"context"

	"github.com/bikkkubo/pts-stock/internal/core"
)

// EmbeddingClient maps bounded-length texts to fixed-dimension
// vectors, order-aligned with the request. An error or empty response
// means "embeddings unavailable", never a fatal condition.
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
}

// FactExtractor pulls numeric KPIs from article text.
type FactExtractor interface {
	Extract(articles []core.Article) core.FactSet
}

// Clusterer partitions articles into topic clusters given their
// embeddings.
type Clusterer interface {
	Cluster(articles []core.Article, embeddings [][]float64) []core.TopicCluster
}

// ClusterSummarizer is the map stage: one structured record per
// cluster, sentinel on failure.
type ClusterSummarizer interface {
	SummarizeCluster(ctx context.Context, cluster core.TopicCluster) core.ClusterSummary
}

// NarrativeGenerator is the final stage: a narrative plus whether it
// passed validation (false means the deterministic fallback was used).
type NarrativeGenerator interface {
	Generate(ctx context.Context, insights core.AggregatedInsights) (string, bool)
}
