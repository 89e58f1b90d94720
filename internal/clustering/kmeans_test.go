package clustering

import (
	"fmt"
	"math"
	"testing"

	"github.com/bikkkubo/pts-stock/internal/core"
)

func makeArticles(n int) []core.Article {
	articles := make([]core.Article, n)
	for i := range articles {
		articles[i] = core.Article{ID: fmt.Sprintf("a%d", i), Title: fmt.Sprintf("記事%d", i)}
	}
	return articles
}

func TestOptimalK(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{4, 2},
		{9, 3},
		{10, 3},
		{12, 3},
		{13, 4},
		{100, 10},
	}
	for _, tc := range tests {
		if got := OptimalK(tc.n); got != tc.want {
			t.Errorf("OptimalK(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestClusterEmpty(t *testing.T) {
	c := NewClusterer(DefaultKMeansConfig())
	if got := c.Cluster(nil, nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestClusterSmallInputSingleCluster(t *testing.T) {
	c := NewClusterer(DefaultKMeansConfig())
	articles := makeArticles(2)
	embeddings := [][]float64{{1, 0}, {0, 1}}

	clusters := c.Cluster(articles, embeddings)
	if len(clusters) != 1 {
		t.Fatalf("n <= 2 must yield a single cluster, got %d", len(clusters))
	}
	if len(clusters[0].Articles) != 2 {
		t.Errorf("single cluster must hold all articles, got %d", len(clusters[0].Articles))
	}
	if clusters[0].ID != "cluster_0" {
		t.Errorf("cluster id = %q", clusters[0].ID)
	}
}

func TestClusterMissingEmbeddingsSingleCluster(t *testing.T) {
	c := NewClusterer(DefaultKMeansConfig())
	articles := makeArticles(8)

	for _, embeddings := range [][][]float64{nil, {{1, 0}, {0, 1}}} {
		clusters := c.Cluster(articles, embeddings)
		if len(clusters) != 1 || len(clusters[0].Articles) != 8 {
			t.Errorf("misaligned embeddings must fall back to one cluster with all articles")
		}
	}
}

func TestClusterBoundsAndCoverage(t *testing.T) {
	cfg := DefaultKMeansConfig()
	cfg.Seed = 42
	c := NewClusterer(cfg)

	n := 16
	articles := makeArticles(n)
	embeddings := make([][]float64, n)
	for i := range embeddings {
		// Two well-separated groups.
		base := -5.0
		if i >= n/2 {
			base = 5.0
		}
		embeddings[i] = []float64{base + float64(i%4)*0.01, base}
	}

	clusters := c.Cluster(articles, embeddings)

	k := OptimalK(n)
	if len(clusters) < 1 || len(clusters) > k {
		t.Fatalf("cluster count %d outside [1, %d]", len(clusters), k)
	}

	total := 0
	seen := make(map[string]bool)
	for _, cl := range clusters {
		if len(cl.Articles) == 0 {
			t.Error("empty clusters must be dropped")
		}
		for _, a := range cl.Articles {
			if seen[a.ID] {
				t.Errorf("article %s assigned twice", a.ID)
			}
			seen[a.ID] = true
			total++
		}
	}
	if total != n {
		t.Errorf("clusters cover %d articles, want %d", total, n)
	}
}

func TestClusterIdenticalPointsDropsEmptyGroups(t *testing.T) {
	cfg := DefaultKMeansConfig()
	cfg.Seed = 7
	c := NewClusterer(cfg)

	n := 9
	articles := makeArticles(n)
	embeddings := make([][]float64, n)
	for i := range embeddings {
		embeddings[i] = []float64{3, 3, 3}
	}

	clusters := c.Cluster(articles, embeddings)
	if len(clusters) != 1 {
		t.Fatalf("identical points collapse to one non-empty cluster, got %d", len(clusters))
	}
	if len(clusters[0].Articles) != n {
		t.Errorf("cluster holds %d articles, want %d", len(clusters[0].Articles), n)
	}
}

func TestRunStaleCentroidKeepsCoordinates(t *testing.T) {
	cfg := KMeansConfig{MaxIterations: 20, Seed: 3}
	c := NewClusterer(cfg)

	// All points identical: exactly one centroid wins every point, the
	// others never move from their [-1, 1] initialization.
	embeddings := [][]float64{{10, 10}, {10, 10}, {10, 10}, {10, 10}}
	assignments, centroids := c.run(embeddings, 3)

	winner := assignments[0]
	for _, a := range assignments {
		if a != winner {
			t.Fatalf("identical points must share one assignment")
		}
	}
	for i, centroid := range centroids {
		if i == winner {
			continue
		}
		for _, v := range centroid {
			if v < -1 || v > 1 {
				t.Errorf("stale centroid %d moved out of its initial range: %v", i, centroid)
			}
		}
	}
}

func TestEuclideanDistance(t *testing.T) {
	if d := euclideanDistance([]float64{0, 0}, []float64{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", d)
	}
	if d := euclideanDistance([]float64{1, 1}, []float64{1, 1}); d != 0 {
		t.Errorf("distance of equal vectors = %v, want 0", d)
	}
}
