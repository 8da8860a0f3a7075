package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, cfg *Config) {
	if cfg == nil {
		fmt.Fprintln(out, "No configuration loaded.")
		return
	}
	if cfg.ConfigPath == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults and environment).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigPath)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Mode:              %s\n", cfg.Mode)
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  LLM Model:         %s\n", cfg.LLMModel)
	fmt.Fprintf(out, "  Ollama URL:        %s\n", cfg.OllamaURL)
	fmt.Fprintf(out, "  Temperature:       %.2f\n", cfg.Temperature)
	fmt.Fprintf(out, "  Max Tokens:        %d\n", cfg.MaxTokens)
	fmt.Fprintf(out, "  Embedding Model:   %s\n", cfg.EmbeddingModel)
	fmt.Fprintf(out, "  Vector Store:      %s (collection %s)\n", cfg.VectorstorePath, cfg.Collection)
	fmt.Fprintf(out, "  Retrieval K:       %d\n", cfg.RetrievalK)
	fmt.Fprintf(out, "  Chunk Size:        %d (overlap %d)\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Fprintf(out, "  Reranker:          %s (%s)\n", cfg.RerankURL, cfg.RerankModel)
	fmt.Fprintf(out, "  Rerank Threshold:  %.3f\n", cfg.RerankThreshold)
	fmt.Fprintf(out, "  Code Language:     %s\n", cfg.CodeLanguage)
	fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	if cfg.IsOnline() {
		fmt.Fprintf(out, "  Web Search:        %s (max %d results)\n", cfg.WebSearchProvider, cfg.MaxWebResults)
		fmt.Fprintf(out, "  Tavily API Key:    %s\n", maskSecret(cfg.TavilyAPIKey))
	}
	fmt.Fprintf(out, "  Google API Key:    %s\n", maskSecret(cfg.GoogleAPIKey))
	fmt.Fprintf(out, "  Gemini Model:      %s\n", cfg.GeminiModel)
}

// maskSecret keeps the last four characters of a credential.
func maskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
