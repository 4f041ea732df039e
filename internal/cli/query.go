package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryDataset string
	queryText    string
	queryTopK    int
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search a dataset for relevant passages",
	Long: `Search a dataset with hybrid embedding + keyword ranking. Results are
diversified so a single long document cannot fill every slot.

Examples:
  docrag query --dataset support -q "vpn token reset"
  docrag query --dataset support -q "billing" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryDataset, "dataset", "", "dataset to search (required)")
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("dataset")
	queryCmd.MarkFlagRequired("query")
}

// queryResult is the JSON output shape for one ranked passage.
type queryResult struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
	Text       string   `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	topK := cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := app.search.Search(cmd.Context(), queryDataset, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		out := make([]queryResult, 0, len(results))
		for _, r := range results {
			out = append(out, queryResult{
				ID:         r.Unit.UnitID(),
				Source:     r.Unit.SourceID(),
				Score:      r.Score,
				Highlights: r.Highlights,
				Text:       r.Unit.Content(),
			})
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (score: %.2f) ---\n", i+1, r.Unit.UnitID(), r.Score)
		for _, h := range r.Highlights {
			fmt.Printf("  > %s\n", h)
		}
		// Truncate long text for display
		text := r.Unit.Content()
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
