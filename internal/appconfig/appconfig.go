// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultLogFile is used when the config omits logFile.
	defaultLogFile = "docent.log"
)

const (
	ModeOffline = "offline"
	ModeOnline  = "online"

	WebSearchTavily     = "tavily"
	WebSearchDuckDuckGo = "duckduckgo"
)

// ErrConfig marks configuration problems that must stop the run before any question is processed.
var ErrConfig = errors.New("configuration error")

// supportedCodeLanguages lists the languages the code-validity checker can parse.
var supportedCodeLanguages = []string{"python", "go", "json", "yaml"}

// Config represents the top-level application configuration.
type Config struct {
	Mode              string  `mapstructure:"mode" json:"mode"`
	LLMModel          string  `mapstructure:"llmModel" json:"llmModel"`
	EmbeddingModel    string  `mapstructure:"embeddingModel" json:"embeddingModel"`
	OllamaURL         string  `mapstructure:"ollamaURL" json:"ollamaURL"`
	Temperature       float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens         int     `mapstructure:"maxTokens" json:"maxTokens"`
	RetrievalK        int     `mapstructure:"retrievalK" json:"retrievalK"`
	ChunkSize         int     `mapstructure:"chunkSize" json:"chunkSize"`
	ChunkOverlap      int     `mapstructure:"chunkOverlap" json:"chunkOverlap"`
	RerankThreshold   float64 `mapstructure:"rerankThreshold" json:"rerankThreshold"`
	RerankURL         string  `mapstructure:"rerankURL" json:"rerankURL"`
	RerankModel       string  `mapstructure:"rerankModel" json:"rerankModel"`
	RerankAPIKey      string  `mapstructure:"rerankAPIKey" json:"rerankAPIKey,omitempty"`
	RerankCacheSize   int     `mapstructure:"rerankCacheSize" json:"rerankCacheSize"`
	MaxWebResults     int     `mapstructure:"maxWebResults" json:"maxWebResults"`
	WebSearchProvider string  `mapstructure:"webSearchProvider" json:"webSearchProvider"`
	TavilyAPIKey      string  `mapstructure:"tavilyAPIKey" json:"tavilyAPIKey,omitempty"`
	GoogleAPIKey      string  `mapstructure:"googleAPIKey" json:"googleAPIKey,omitempty"`
	GeminiModel       string  `mapstructure:"geminiModel" json:"geminiModel"`
	DataDir           string  `mapstructure:"dataDir" json:"dataDir"`
	VectorstorePath   string  `mapstructure:"vectorstorePath" json:"vectorstorePath"`
	Collection        string  `mapstructure:"collection" json:"collection"`
	TimeoutSeconds    int     `mapstructure:"timeout" json:"timeout,omitempty"`
	LogFile           string  `mapstructure:"logFile" json:"logFile,omitempty"`
	Debug             bool    `mapstructure:"debug" json:"debug"`
	CodeLanguage      string  `mapstructure:"codeLanguage" json:"codeLanguage"`
	ConfigPath        string  `mapstructure:"-" json:"-"`
}

// defaults mirrors the values the assistant runs with when nothing is configured.
var defaults = map[string]any{
	"mode":              ModeOffline,
	"llmModel":          "llama3.2:3b",
	"embeddingModel":    "nomic-embed-text",
	"ollamaURL":         "http://localhost:11434",
	"temperature":       0.1,
	"maxTokens":         2000,
	"retrievalK":        5,
	"chunkSize":         1000,
	"chunkOverlap":      200,
	"rerankThreshold":   0.0,
	"rerankURL":         "http://localhost:7997/rerank",
	"rerankModel":       "cross-encoder/ms-marco-MiniLM-L-6-v2",
	"rerankCacheSize":   4096,
	"maxWebResults":     3,
	"webSearchProvider": WebSearchTavily,
	"geminiModel":       "gemini-2.5-flash",
	"dataDir":           "data",
	"vectorstorePath":   "data/vectorstore",
	"collection":        "docs",
	"timeout":           int(defaultRequestTimeout.Seconds()),
	"logFile":           defaultLogFile,
	"debug":             false,
	"codeLanguage":      "python",
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"mode":              "AGENT_MODE",
	"llmModel":          "LLM_MODEL",
	"embeddingModel":    "EMBEDDING_MODEL",
	"ollamaURL":         "OLLAMA_BASE_URL",
	"temperature":       "TEMPERATURE",
	"maxTokens":         "MAX_TOKENS",
	"retrievalK":        "RETRIEVAL_K",
	"chunkSize":         "CHUNK_SIZE",
	"chunkOverlap":      "CHUNK_OVERLAP",
	"rerankThreshold":   "RERANK_THRESHOLD",
	"rerankURL":         "RERANK_URL",
	"rerankModel":       "RERANK_MODEL",
	"rerankAPIKey":      "RERANK_API_KEY",
	"webSearchProvider": "WEB_SEARCH_PROVIDER",
	"tavilyAPIKey":      "TAVILY_API_KEY",
	"googleAPIKey":      "GOOGLE_API_KEY",
	"geminiModel":       "GOOGLE_GEMINI_MODEL",
	"dataDir":           "DATA_DIR",
	"vectorstorePath":   "VECTORSTORE_PATH",
}

// Load merges flags already bound to v, environment variables, the config file, and defaults,
// in that order of precedence, and validates the result.
func Load(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.WebSearchProvider = strings.ToLower(strings.TrimSpace(cfg.WebSearchProvider))
	cfg.CodeLanguage = strings.ToLower(strings.TrimSpace(cfg.CodeLanguage))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem, wrapped in ErrConfig.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("%w: unknown mode %q (want %s or %s)", ErrConfig, c.Mode, ModeOffline, ModeOnline)
	}
	switch c.WebSearchProvider {
	case WebSearchTavily, WebSearchDuckDuckGo:
	default:
		return fmt.Errorf("%w: unknown webSearchProvider %q", ErrConfig, c.WebSearchProvider)
	}
	if c.IsOnline() && c.WebSearchProvider == WebSearchTavily && strings.TrimSpace(c.TavilyAPIKey) == "" {
		return fmt.Errorf("%w: TAVILY_API_KEY required for online mode", ErrConfig)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("%w: retrievalK must be greater than zero", ErrConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunkSize must be greater than zero", ErrConfig)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunkOverlap must be zero or greater and smaller than chunkSize", ErrConfig)
	}
	if !isSupportedLanguage(c.CodeLanguage) {
		return fmt.Errorf("%w: unsupported codeLanguage %q (supported: %s)", ErrConfig, c.CodeLanguage, strings.Join(supportedCodeLanguages, ", "))
	}
	return nil
}

func isSupportedLanguage(lang string) bool {
	for _, l := range supportedCodeLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// IsOnline reports whether web search is available to the agent.
func (c Config) IsOnline() bool {
	return c.Mode == ModeOnline
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}
