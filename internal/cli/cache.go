package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"docrag/internal/adapter/cache"
)

var (
	clearProvider string
	clearModel    string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached embeddings",
	Long: `Remove cached embeddings. Without flags the whole cache is cleared;
--provider narrows to one provider and --model to one model within it.

Examples:
  docrag cache clear
  docrag cache clear --provider openai
  docrag cache clear --provider openai --model text-embedding-3-small`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().StringVar(&clearProvider, "provider", "", "clear only this provider")
	cacheClearCmd.Flags().StringVar(&clearModel, "model", "", "clear only this model (requires --provider)")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := newCacheStore()
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer store.Close()

	embeddings := cache.NewEmbeddingCache(store, cfg.Cache.Workers, nil)
	if err := embeddings.Clear(cmd.Context(), clearProvider, clearModel); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	switch {
	case clearProvider == "":
		fmt.Println("Cleared the entire embedding cache.")
	case clearModel == "":
		fmt.Printf("Cleared cached embeddings for provider %q.\n", clearProvider)
	default:
		fmt.Printf("Cleared cached embeddings for %s/%s.\n", clearProvider, clearModel)
	}

	return nil
}
