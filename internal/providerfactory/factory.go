// internal/providerfactory/factory.go
// Package providerfactory builds the assistant and its collaborators from configuration.
package providerfactory

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mwiater/docent/internal/agent"
	"github.com/mwiater/docent/internal/appconfig"
	"github.com/mwiater/docent/internal/evaluation"
	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/providers"
	"github.com/mwiater/docent/internal/providers/ollama"
	"github.com/mwiater/docent/internal/rag"
	"github.com/mwiater/docent/internal/rerank"
	"github.com/mwiater/docent/internal/telemetry"
	"github.com/mwiater/docent/internal/websearch"
)

// Assistant bundles the agent with the collaborators commands need direct access to.
type Assistant struct {
	Agent     *agent.Agent
	Index     *rag.ChromemIndex
	Generator *ollama.Provider
	Searcher  websearch.Searcher
}

// NewIndex opens the configured vector store with the Ollama embedding model.
func NewIndex(cfg *appconfig.Config) (*rag.ChromemIndex, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	client := &http.Client{Timeout: cfg.RequestTimeout()}
	embed := rag.NewOllamaEmbedder(client, cfg.OllamaURL, cfg.EmbeddingModel)
	return rag.OpenChromemIndex(rag.StoreConfig{PersistPath: cfg.VectorstorePath, Collection: cfg.Collection}, embed)
}

// NewReranker returns the cross-encoder client behind an LRU score cache.
func NewReranker(cfg *appconfig.Config) (*rerank.Cached, error) {
	client, err := rerank.NewClient(cfg.RerankURL,
		rerank.WithModel(cfg.RerankModel),
		rerank.WithAPIKey(cfg.RerankAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("reranker: %w", err)
	}
	return rerank.NewCached(client, cfg.RerankCacheSize)
}

// NewGenerator returns the Ollama generator for the configured model.
func NewGenerator(cfg *appconfig.Config) *ollama.Provider {
	return ollama.New(cfg.OllamaURL, cfg.LLMModel, providers.Options{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, cfg.RequestTimeout())
}

// NewSearcher selects the web search backend. It returns nil, without error,
// when Tavily is configured but no key is available and the mode is offline.
func NewSearcher(cfg *appconfig.Config) (websearch.Searcher, error) {
	opts := []websearch.Option{websearch.WithMaxResults(cfg.MaxWebResults)}
	switch cfg.WebSearchProvider {
	case appconfig.WebSearchDuckDuckGo:
		return websearch.NewDuckDuckGo(opts...), nil
	case appconfig.WebSearchTavily, "":
		if strings.TrimSpace(cfg.TavilyAPIKey) == "" {
			if cfg.IsOnline() {
				return nil, fmt.Errorf("%w: TAVILY_API_KEY required for online mode", appconfig.ErrConfig)
			}
			return nil, nil
		}
		tavily, err := websearch.NewTavily(cfg.TavilyAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return tavily, nil
	default:
		return nil, fmt.Errorf("%w: unknown webSearchProvider %q", appconfig.ErrConfig, cfg.WebSearchProvider)
	}
}

// NewAssistant wires retrieval, reranking, generation and web search into an agent.
func NewAssistant(cfg *appconfig.Config, recorder *telemetry.Recorder) (*Assistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	mode, err := agent.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appconfig.ErrConfig, err)
	}

	index, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	reranker, err := NewReranker(cfg)
	if err != nil {
		return nil, err
	}
	stage, err := rag.NewStage(index, reranker)
	if err != nil {
		return nil, err
	}
	searcher, err := NewSearcher(cfg)
	if err != nil {
		return nil, err
	}
	generator := NewGenerator(cfg)

	opts := []agent.Option{
		agent.WithMode(mode),
		agent.WithK(cfg.RetrievalK),
		agent.WithThreshold(cfg.RerankThreshold),
		agent.WithRecorder(recorder),
	}
	if searcher != nil {
		opts = append(opts, agent.WithSearcher(searcher))
	}
	a, err := agent.New(stage, generator, opts...)
	if err != nil {
		return nil, err
	}

	logging.LogEvent("assistant ready: mode=%s model=%s documents=%d", mode, cfg.LLMModel, index.Count())
	if index.Count() == 0 {
		logging.LogWarn("vector store %s is empty; run the index command first", cfg.VectorstorePath)
	}
	return &Assistant{Agent: a, Index: index, Generator: generator, Searcher: searcher}, nil
}

// NewReferenceScorer connects the Gemini judge used for reference-based metrics.
func NewReferenceScorer(ctx context.Context, cfg *appconfig.Config) (*evaluation.GeminiJudge, error) {
	return evaluation.NewGeminiJudge(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
}
