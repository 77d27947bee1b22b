package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/boundary/gemini"
	configfile "github.com/custodia-labs/docquery-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/docquery-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docquery-cli/internal/adapters/driven/embedding/openai"
	memorystore "github.com/custodia-labs/docquery-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/storage/sqlite"
	mistralsynth "github.com/custodia-labs/docquery-cli/internal/adapters/driven/synthesis/mistral"
	ollamasynth "github.com/custodia-labs/docquery-cli/internal/adapters/driven/synthesis/ollama"
	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/vectorstore/chroma"
	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/docquery-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/services"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := configfile.NewConfigStore(os.Getenv("DOCQUERY_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	minTokens := cfg.GetInt("chunking.min_tokens")
	if minTokens == 0 {
		minTokens = domain.DefaultMinTokens
	}
	maxTokens := cfg.GetInt("chunking.max_tokens")
	if maxTokens == 0 {
		maxTokens = domain.DefaultMaxTokens
	}

	counter, err := tiktoken.NewCounter(cfg.GetString("tokenizer.encoding"))
	if err != nil {
		return fmt.Errorf("init tokenizer: %w", err)
	}

	chunkStore, err := buildChunkStore(cfg)
	if err != nil {
		return fmt.Errorf("open chunk store: %w", err)
	}
	defer chunkStore.Close()

	suggester, err := buildSuggester(ctx, cfg, minTokens, maxTokens)
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	vectors := buildVectorStore(cfg)
	defer vectors.Close()

	synthesis := buildSynthesis(cfg)

	planner := services.NewBoundaryPlanner(suggester, counter, minTokens, maxTokens)
	chunking := services.NewChunkingService(planner, counter, chunkStore, minTokens, maxTokens)

	indexingOpts := []services.IndexingOption{}
	if size := cfg.GetInt("indexing.batch_size"); size > 0 {
		indexingOpts = append(indexingOpts, services.WithBatchSize(size))
	}
	if perSecond := cfg.GetInt("indexing.rate_limit"); perSecond > 0 {
		indexingOpts = append(indexingOpts, services.WithRateLimit(float64(perSecond)))
	}
	indexing := services.NewIndexingService(chunkStore, embedder, vectors, indexingOpts...)

	retrieval := services.NewRetrievalService(embedder, vectors)
	answer := services.NewAnswerService(retrieval, synthesis)

	cli.SetServices(cli.Services{
		Chunking:   chunking,
		Indexing:   indexing,
		Retrieval:  retrieval,
		Answer:     answer,
		ChunkStore: chunkStore,
		Vectors:    vectors,
	})

	return cli.Execute()
}

// buildSuggester returns nil when no Gemini key is configured; chunking then
// falls back to fixed token windows.
func buildSuggester(ctx context.Context, cfg *configfile.ConfigStore, minTokens, maxTokens int) (driven.BoundarySuggester, error) {
	apiKey := firstNonEmpty(os.Getenv("GEMINI_API_KEY"), cfg.GetString("boundary.api_key"))
	if apiKey == "" {
		logger.Debug("no Gemini API key; semantic boundary suggestions disabled")
		return nil, nil
	}
	s, err := gemini.NewSuggester(ctx, gemini.Config{
		APIKey:    apiKey,
		Model:     cfg.GetString("boundary.model"),
		MinTokens: minTokens,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init boundary suggester: %w", err)
	}
	return s, nil
}

func buildChunkStore(cfg *configfile.ConfigStore) (driven.ChunkSetStore, error) {
	if cfg.GetString("storage.provider") == "memory" {
		return memorystore.NewChunkSetStore(), nil
	}
	return sqlite.NewStore(firstNonEmpty(os.Getenv("DOCQUERY_DATA_DIR"), cfg.GetString("storage.data_dir")))
}

func buildEmbedder(cfg *configfile.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" && os.Getenv("OPENAI_API_KEY") != "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     firstNonEmpty(os.Getenv("OPENAI_API_KEY"), cfg.GetString("embedding.api_key")),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "", "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    firstNonEmpty(os.Getenv("OLLAMA_URL"), cfg.GetString("embedding.base_url")),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func buildVectorStore(cfg *configfile.ConfigStore) driven.VectorStore {
	if cfg.GetString("vectorstore.provider") == "memory" {
		return memory.NewStore(driven.Metric(cfg.GetString("vectorstore.space")))
	}
	return chroma.NewStore(chroma.Config{
		BaseURL: firstNonEmpty(os.Getenv("CHROMA_URL"), cfg.GetString("vectorstore.base_url")),
		Space:   cfg.GetString("vectorstore.space"),
	})
}

// buildSynthesis returns nil when no provider is reachable by configuration;
// the ask command is then unavailable but the rest of the pipeline works.
func buildSynthesis(cfg *configfile.ConfigStore) driven.SynthesisService {
	mistralKey := firstNonEmpty(os.Getenv("MISTRAL_API_KEY"), cfg.GetString("synthesis.api_key"))
	provider := cfg.GetString("synthesis.provider")
	if provider == "" && mistralKey != "" {
		provider = "mistral"
	}

	switch provider {
	case "mistral":
		s, err := mistralsynth.NewSynthesisService(mistralsynth.Config{
			APIKey:  mistralKey,
			BaseURL: cfg.GetString("synthesis.base_url"),
			Model:   cfg.GetString("synthesis.model"),
		})
		if err != nil {
			logger.Warn("synthesis unavailable: %v", err)
			return nil
		}
		return s
	case "ollama":
		return ollamasynth.NewSynthesisService(ollamasynth.Config{
			BaseURL: firstNonEmpty(os.Getenv("OLLAMA_URL"), cfg.GetString("synthesis.base_url")),
			Model:   cfg.GetString("synthesis.model"),
		})
	default:
		logger.Debug("no synthesis provider configured; ask command disabled")
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
