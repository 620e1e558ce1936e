package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultAppName is the application name sessions are stored under.
const DefaultAppName = "legal_agent"

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// Driver is the session storage driver (file, sqlite or postgres)
	Driver string
	// DSN points to the sqlite file or postgres database
	DSN string
	// Version is the current version of server
	Version string
	// AppName is the owning application of stored sessions
	AppName string

	// Derived directories, defaulted under Data by Validate.
	TemplateDir string // LEXAGENT_TEMPLATE_DIR
	OutputDir   string // LEXAGENT_OUTPUT_DIR
	SessionDir  string // LEXAGENT_SESSION_DIR
	VectorDir   string // LEXAGENT_VECTOR_DIR

	// StrictSessionDecode rejects session records carrying unknown fields.
	StrictSessionDecode bool // LEXAGENT_STRICT_SESSION_DECODE

	// AI Configuration
	LLMAPIKey           string // LEXAGENT_LLM_API_KEY (legacy: OPENROUTER_API_KEY)
	LLMBaseURL          string // LEXAGENT_LLM_BASE_URL (default: https://openrouter.ai/api/v1)
	LLMModel            string // LEXAGENT_LLM_MODEL (default: kwaipilot/kat-coder-pro:free)
	EmbeddingAPIKey     string // LEXAGENT_EMBEDDING_API_KEY (default: LLM key)
	EmbeddingBaseURL    string // LEXAGENT_EMBEDDING_BASE_URL (default: LLM base URL)
	EmbeddingModel      string // LEXAGENT_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingDimensions int    // LEXAGENT_EMBEDDING_DIMENSIONS (default: 0, provider default)
	// RetrievalBackend selects the passage store: chromem, pgvector or none.
	RetrievalBackend string // LEXAGENT_RETRIEVAL_BACKEND (default: chromem)

	// Web search configuration
	TavilyAPIKey  string // LEXAGENT_TAVILY_API_KEY (legacy: TAVILY_API_KEY)
	TavilyBaseURL string // LEXAGENT_TAVILY_BASE_URL (default: https://api.tavily.com)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a completion API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// IsWebSearchEnabled returns true if a web search API key is configured.
func (p *Profile) IsWebSearchEnabled() bool {
	return p.TavilyAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads AI and tool configuration from environment variables.
// Supports LEXAGENT_* (new) and the bare provider variables (legacy).
// Fields already set (e.g. from flags) are left untouched.
func (p *Profile) FromEnv() {
	// Helper to get env value with legacy fallback
	// Skips empty values to allow defaults to take effect
	getEnvWithDefault := func(newKey, legacyKey, defaultValue string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		if legacyKey != "" {
			if val := os.Getenv(legacyKey); val != "" {
				return val
			}
		}
		return defaultValue
	}

	setIfEmpty := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}

	setIfEmpty(&p.LLMAPIKey, getEnvWithDefault("LEXAGENT_LLM_API_KEY", "OPENROUTER_API_KEY", ""))
	setIfEmpty(&p.LLMBaseURL, getEnvWithDefault("LEXAGENT_LLM_BASE_URL", "", "https://openrouter.ai/api/v1"))
	setIfEmpty(&p.LLMModel, getEnvWithDefault("LEXAGENT_LLM_MODEL", "", "kwaipilot/kat-coder-pro:free"))
	setIfEmpty(&p.EmbeddingAPIKey, getEnvWithDefault("LEXAGENT_EMBEDDING_API_KEY", "", p.LLMAPIKey))
	setIfEmpty(&p.EmbeddingBaseURL, getEnvWithDefault("LEXAGENT_EMBEDDING_BASE_URL", "", p.LLMBaseURL))
	setIfEmpty(&p.EmbeddingModel, getEnvWithDefault("LEXAGENT_EMBEDDING_MODEL", "", "text-embedding-3-small"))
	setIfEmpty(&p.RetrievalBackend, getEnvWithDefault("LEXAGENT_RETRIEVAL_BACKEND", "", "chromem"))
	setIfEmpty(&p.TavilyAPIKey, getEnvWithDefault("LEXAGENT_TAVILY_API_KEY", "TAVILY_API_KEY", ""))
	setIfEmpty(&p.TavilyBaseURL, getEnvWithDefault("LEXAGENT_TAVILY_BASE_URL", "", "https://api.tavily.com"))

	setIfEmpty(&p.TemplateDir, os.Getenv("LEXAGENT_TEMPLATE_DIR"))
	setIfEmpty(&p.OutputDir, os.Getenv("LEXAGENT_OUTPUT_DIR"))
	setIfEmpty(&p.SessionDir, os.Getenv("LEXAGENT_SESSION_DIR"))
	setIfEmpty(&p.VectorDir, os.Getenv("LEXAGENT_VECTOR_DIR"))

	if p.EmbeddingDimensions == 0 {
		if v := getEnvOrDefault("LEXAGENT_EMBEDDING_DIMENSIONS", ""); v != "" {
			var dims int
			if _, err := fmt.Sscanf(v, "%d", &dims); err == nil && dims > 0 {
				p.EmbeddingDimensions = dims
			}
		}
	}
	if os.Getenv("LEXAGENT_STRICT_SESSION_DECODE") == "true" {
		p.StrictSessionDecode = true
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0o770); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.AppName == "" {
		p.AppName = DefaultAppName
	}
	if p.Driver == "" {
		p.Driver = "file"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("lexagent_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.TemplateDir == "" {
		p.TemplateDir = filepath.Join(dataDir, "templates")
	}
	if p.OutputDir == "" {
		p.OutputDir = filepath.Join(dataDir, "output")
	}
	if p.SessionDir == "" {
		p.SessionDir = filepath.Join(dataDir, "sessions")
	}
	if p.VectorDir == "" {
		p.VectorDir = filepath.Join(dataDir, "vectors")
	}

	for _, dir := range []string{p.OutputDir, p.SessionDir} {
		if err := os.MkdirAll(dir, 0o770); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	return nil
}
