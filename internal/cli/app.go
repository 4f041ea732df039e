package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/dataset"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/retriever"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// app bundles the wired retrieval pipeline shared by the commands.
type app struct {
	loader     *dataset.Loader
	chunker    *chunker.TextChunker
	embedder   port.Embedder
	store      port.CacheStore
	embeddings *cache.EmbeddingCache
	results    *cache.SearchCache
	search     *usecase.SearchUseCase
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildApp wires the pipeline from the loaded config. The embedder is nil
// when embedding is disabled; search then ranks by keyword overlap alone.
func buildApp() (*app, error) {
	root := cfg.Dataset.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(rootDir, root)
	}

	walker := fs.NewWalker(cfg.Dataset.Includes, cfg.Dataset.Excludes)
	loader := dataset.NewLoader(root, cfg.Dataset.Separator, walker, nil)

	chk := chunker.NewTextChunker(chunker.Options{
		MaxTokens:         cfg.Chunking.MaxTokens,
		OverlapTokens:     cfg.Chunking.OverlapTokens,
		PreserveSentences: cfg.Chunking.PreserveSentences,
	})

	embedder, err := newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := newCacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	embeddings := cache.NewEmbeddingCache(store, cfg.Cache.Workers, nil)
	scorer := retriever.NewHybridScorer(cfg.Search.EnableHybrid, cfg.Search.EmbeddingWeight)
	results := cache.NewSearchCache(cfg.Cache.SearchSize, time.Duration(cfg.Cache.SearchTTLSecs)*time.Second)

	return &app{
		loader:     loader,
		chunker:    chk,
		embedder:   embedder,
		store:      store,
		embeddings: embeddings,
		results:    results,
		search:     usecase.NewSearchUseCase(loader, chk, embedder, embeddings, scorer, results, nil),
	}, nil
}

// newEmbedder creates the configured embedding provider, or nil when
// embedding is disabled.
func newEmbedder() (port.Embedder, error) {
	if !cfg.Embedding.Enabled {
		return nil, nil
	}

	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "jina":
		return embedding.NewJinaEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "compatible":
		if cfg.Embedding.BaseURL == "" {
			return nil, fmt.Errorf("compatible embedding provider requires base_url")
		}
		return embedding.NewOpenAICompatibleEmbedder("compatible", cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// newLLM creates the configured completion client for the ask command.
func newLLM() (port.LLM, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAIClient(cfg.LLM.APIKeyEnv, cfg.LLM.Model)
	case "deepseek":
		return llm.NewDeepSeekClient(cfg.LLM.APIKeyEnv, cfg.LLM.Model)
	case "ollama":
		return llm.NewOllamaClient(cfg.LLM.Model, cfg.LLM.BaseURL)
	case "compatible":
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("compatible llm provider requires base_url")
		}
		return llm.NewCompatibleClient("compatible", cfg.LLM.APIKeyEnv, cfg.LLM.Model, cfg.LLM.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

// newCacheStore opens the configured embedding cache backend.
func newCacheStore() (port.CacheStore, error) {
	switch cfg.Cache.Backend {
	case "", "files":
		return cache.NewFileStore(config.CacheDir(rootDir)), nil
	case "bolt":
		if err := config.EnsureDataDir(rootDir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return cache.NewBoltStore(config.EmbeddingDBPath(rootDir))
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}
