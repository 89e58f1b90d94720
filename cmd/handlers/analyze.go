package handlers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bikkkubo/pts-stock/internal/core"
)

// NewAnalyzeCmd creates the single-instrument command: run the
// pipeline for one code (or a prepared article file) and print the
// result as JSON.
func NewAnalyzeCmd() *cobra.Command {
	var (
		code        string
		articleFile string
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a single instrument and print the resulting narrative as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" && articleFile == "" {
				return fmt.Errorf("either --code or --articles is required")
			}

			ctx := cmd.Context()

			var articles []core.Article
			if articleFile != "" {
				loaded, err := loadArticles(articleFile)
				if err != nil {
					return err
				}
				articles = loaded
			} else {
				scraper, fetcher := newCollaborators()
				articles = gatherArticles(ctx, scraper, fetcher, code)
			}

			result := newPipeline(ctx).Run(ctx, articles)

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	analyzeCmd.Flags().StringVarP(&code, "code", "c", "", "4-digit instrument code to analyze")
	analyzeCmd.Flags().StringVarP(&articleFile, "articles", "a", "", "JSON file holding the article batch to analyze")

	return analyzeCmd
}

// loadArticles reads a JSON array of articles from a file.
func loadArticles(path string) ([]core.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read article file %s: %w", path, err)
	}

	var articles []core.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse article file %s: %w", path, err)
	}

	return articles, nil
}
