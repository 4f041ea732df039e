package cli

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"docrag/internal/usecase"
)

var embedDataset string

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Warm the embedding cache for a dataset",
	Long: `Embed every document of a dataset through the embedding cache, chunking
exactly the way search does. Texts already cached are skipped, so re-runs
only pay for new or changed content.

Examples:
  docrag embed --dataset support
  docrag embed --dataset support --config ./docrag.yaml`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVar(&embedDataset, "dataset", "", "dataset to embed (required)")
	embedCmd.MarkFlagRequired("dataset")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if app.embedder == nil {
		return fmt.Errorf("embedding is disabled in config")
	}

	embedUC := usecase.NewEmbedUseCase(app.loader, app.chunker, app.embedder, app.embeddings, app.results, nil)

	fmt.Printf("Embedding dataset %q with %s/%s...\n", embedDataset, app.embedder.Provider(), app.embedder.ModelName())

	// Create progress bar (initialized once the total is known)
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var initialized bool

	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}

		bar.Set(done)
	}

	stats, err := embedUC.Ensure(cmd.Context(), embedDataset, progress)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Printf("\nEmbedding complete:\n")
	fmt.Printf("  Documents: %d\n", stats.Documents)
	fmt.Printf("  Units:     %d\n", stats.Units)
	fmt.Printf("  Cached:    %d (reused)\n", stats.Cached)
	fmt.Printf("  Embedded:  %d (new)\n", stats.Embedded)

	return nil
}
