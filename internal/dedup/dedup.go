package dedup

import (
	"strings"

	"github.com/bikkkubo/pts-stock/internal/core"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

// SimilarityThreshold is the Jaccard similarity above which two titles
// are considered the same story.
const SimilarityThreshold = 0.8

// Deduplicate collapses near-duplicate articles by title similarity,
// returning an ordered subsequence of the input. For each article in
// input order the title is lower-cased and tokenized on whitespace;
// if the token set's Jaccard similarity against any already-kept
// article exceeds the threshold, the article is dropped. O(n²) in
// article count, which is fine at tens of articles per instrument.
//
// Empty and single-element inputs are returned unchanged. Empty titles
// have similarity 0 against everything, so they are never treated as
// duplicates of each other.
func Deduplicate(articles []core.Article) []core.Article {
	if len(articles) <= 1 {
		return articles
	}

	log := logger.Get()

	kept := make([]core.Article, 0, len(articles))
	keptTokens := make([]map[string]struct{}, 0, len(articles))

	for _, article := range articles {
		tokens := tokenizeTitle(article.Title)

		duplicate := false
		for i, existing := range keptTokens {
			if jaccard(tokens, existing) > SimilarityThreshold {
				log.Debug("dropping near-duplicate article",
					"title", article.Title,
					"kept_title", kept[i].Title)
				duplicate = true
				break
			}
		}

		if !duplicate {
			kept = append(kept, article)
			keptTokens = append(keptTokens, tokens)
		}
	}

	return kept
}

// tokenizeTitle lower-cases a title and splits it into a whitespace
// token set.
func tokenizeTitle(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// jaccard computes |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
