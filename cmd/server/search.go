package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahul4469/opportunity-finder/internal/config"
	"github.com/rahul4469/opportunity-finder/internal/models"
	"github.com/rahul4469/opportunity-finder/internal/services"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search from the terminal",
	Long:  "Fetch the top posts for a keyword in a subreddit, classify them and print the results.",
	RunE:  runSearch,
}

var (
	searchSubreddit string
	searchKeyword   string
	searchAPIKey    string
	searchJSON      bool
)

func init() {
	searchCmd.Flags().StringVarP(&searchSubreddit, "subreddit", "s", "", "Subreddit to search (required)")
	searchCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "Keyword to search for (required)")
	searchCmd.Flags().StringVar(&searchAPIKey, "api-key", "", "AI provider API key (overrides MISTRAL_API_KEY env var)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	_ = searchCmd.MarkFlagRequired("subreddit")
	_ = searchCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	apiKey := searchAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("MISTRAL_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required (set MISTRAL_API_KEY environment variable or use --api-key flag)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := services.NewSearchServiceFromConfig(cfg)
	if err != nil {
		return err
	}

	result, err := svc.Search(cmd.Context(), models.SearchRequest{
		Subreddit: searchSubreddit,
		Keyword:   searchKeyword,
		APIKey:    apiKey,
	})
	if err != nil {
		return fmt.Errorf("%s", models.UserMessage(err))
	}

	if searchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result *models.SearchResult) {
	if result.Empty() {
		fmt.Fprintln(w, result.Message)
		return
	}

	fmt.Fprintf(w, "%d posts analyzed, %d opportunities\n", len(result.Posts), result.Opportunities())
	for i, p := range result.Posts {
		fmt.Fprintf(w, "\n%d. %s (%d upvotes)\n   %s\n", i+1, p.Title, p.Upvotes, p.RedditURL())
		if p.Failed() {
			fmt.Fprintf(w, "   ! %s\n", p.AnalysisError)
			continue
		}
		verdict := "no"
		if p.Analysis.IsOpportunity {
			verdict = "YES"
		}
		fmt.Fprintf(w, "   Opportunity: %s (confidence %d%%)\n", verdict, p.Analysis.Confidence)
		fmt.Fprintf(w, "   Problem:  %s\n", p.Analysis.Problem)
		fmt.Fprintf(w, "   Solution: %s\n", p.Analysis.Solution)
		fmt.Fprintf(w, "   %s\n", strings.TrimSpace(p.Analysis.Summary))
	}
}
