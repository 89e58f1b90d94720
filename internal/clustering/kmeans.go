package clustering

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

// KMeansConfig holds configuration for K-means clustering.
type KMeansConfig struct {
	MaxIterations int   // Hard cap on assignment/update rounds
	Seed          int64 // 0 means seed from the clock
}

// DefaultKMeansConfig returns the defaults used by the pipeline.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: 20,
	}
}

// Clusterer partitions articles into topic clusters via K-means over
// their embeddings.
type Clusterer struct {
	config KMeansConfig
	rng    *rand.Rand
	log    *slog.Logger
}

// NewClusterer creates a clusterer with the given configuration.
func NewClusterer(config KMeansConfig) *Clusterer {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Clusterer{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		log:    logger.Get(),
	}
}

// OptimalK returns the cluster count for n articles:
// max(1, round(sqrt(n))).
func OptimalK(n int) int {
	k := int(math.Round(math.Sqrt(float64(n))))
	if k < 1 {
		k = 1
	}
	return k
}

// Cluster partitions articles by their embeddings. embeddings must be
// order-aligned with articles. When n ≤ 2, or embeddings are missing
// or misaligned, clustering is skipped and a single cluster holding
// all articles is returned. Output cluster count may be below k since
// empty groups are dropped.
func (c *Clusterer) Cluster(articles []core.Article, embeddings [][]float64) []core.TopicCluster {
	n := len(articles)
	if n == 0 {
		return nil
	}

	if n <= 2 || len(embeddings) != n || len(embeddings[0]) == 0 {
		return []core.TopicCluster{singleCluster(articles)}
	}

	k := OptimalK(n)
	if k == 1 {
		return []core.TopicCluster{singleCluster(articles)}
	}

	assignments, centroids := c.run(embeddings, k)

	// Group articles by final assignment and drop empty groups.
	grouped := make([][]core.Article, k)
	for i, a := range assignments {
		grouped[a] = append(grouped[a], articles[i])
	}

	var clusters []core.TopicCluster
	for i, group := range grouped {
		if len(group) == 0 {
			continue
		}
		clusters = append(clusters, core.TopicCluster{
			ID:       fmt.Sprintf("cluster_%d", i),
			Articles: group,
			Centroid: centroids[i],
		})
	}

	c.log.Debug("clustering finished", "articles", n, "k", k, "clusters", len(clusters))
	return clusters
}

// run executes the K-means loop and returns the final assignment
// vector and centroids.
func (c *Clusterer) run(embeddings [][]float64, k int) ([]int, [][]float64) {
	dim := len(embeddings[0])

	// Centroid coordinates start uniform in [-1, 1].
	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = make([]float64, dim)
		for j := range centroids[i] {
			centroids[i][j] = c.rng.Float64()*2 - 1
		}
	}

	assignments := make([]int, len(embeddings))

	for iteration := 0; iteration < c.config.MaxIterations; iteration++ {
		changed := false
		for i, embedding := range embeddings {
			nearest := nearestCentroid(embedding, centroids)
			if iteration == 0 || nearest != assignments[i] {
				changed = true
			}
			assignments[i] = nearest
		}

		if !changed {
			break
		}

		// Recompute each centroid as the mean of its points. A
		// centroid that received no points keeps its previous
		// coordinates for this iteration; there is no reseeding.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, embedding := range embeddings {
			counts[assignments[i]]++
			for j, v := range embedding {
				sums[assignments[i]][j] += v
			}
		}
		for i := range centroids {
			if counts[i] == 0 {
				continue
			}
			for j := range centroids[i] {
				centroids[i][j] = sums[i][j] / float64(counts[i])
			}
		}
	}

	return assignments, centroids
}

// nearestCentroid returns the index of the centroid minimizing
// Euclidean distance.
func nearestCentroid(embedding []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, centroid := range centroids {
		d := euclideanDistance(embedding, centroid)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// euclideanDistance computes the L2 distance between two vectors of
// equal length.
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func singleCluster(articles []core.Article) core.TopicCluster {
	return core.TopicCluster{
		ID:       "cluster_0",
		Articles: articles,
	}
}
