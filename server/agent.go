package server

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/plugin/ai"
	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/agent/tools"
	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/vector"
	"github.com/hrygo/lexagent/plugin/drafter"
	"github.com/hrygo/lexagent/plugin/websearch"
	"github.com/hrygo/lexagent/store"
)

// Retrieval backends.
const (
	BackendChromem  = "chromem"
	BackendPGVector = "pgvector"
	BackendNone     = "none"
)

func newLegalAgent(ctx context.Context, profile *profile.Profile, store *store.Store, docDrafter *drafter.Drafter, turnMetrics metrics.MetricsService) (*agent.LLMAgent, error) {
	cfg := ai.NewConfigFromProfile(profile)
	if !cfg.Enabled {
		return nil, errors.New("LLM API key is required (set LEXAGENT_LLM_API_KEY)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	llm, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}

	deps := tools.Deps{Drafter: docDrafter}

	retriever, err := NewVectorStore(profile, store)
	if err != nil {
		// Retrieval is optional; the tool reports it is unavailable.
		slog.Warn("legal library unavailable", "backend", profile.RetrievalBackend, "error", err)
	} else if retriever != nil {
		deps.Retriever = retriever
	}

	if profile.IsWebSearchEnabled() {
		searchCfg := websearch.ConfigFromEnv()
		searchCfg.APIKey = profile.TavilyAPIKey
		searchCfg.BaseURL = profile.TavilyBaseURL
		deps.Searcher = websearch.NewClient(searchCfg)
	} else {
		slog.Warn("web search disabled, no Tavily API key configured")
	}

	executor := agent.NewResilientToolExecutor(turnMetrics,
		agent.WithFallbackRules(agent.DefaultFallbackRules()),
	)
	llmAgent, err := agent.NewLLMAgent(llm, agent.AgentConfig{
		Name:   profile.AppName,
		Prompt: agent.NewLegalPrompt(),
	}, tools.LegalTools(deps), executor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create legal agent")
	}

	slog.InfoContext(ctx, "legal agent ready",
		"model", cfg.LLM.Model,
		"tools", llmAgent.Tools(),
		"retrieval", profile.RetrievalBackend,
	)
	return llmAgent, nil
}

// NewVectorStore opens the configured legal library backend. It returns
// nil without error when retrieval is switched off.
func NewVectorStore(profile *profile.Profile, store *store.Store) (vector.Store, error) {
	backend := profile.RetrievalBackend
	if backend == "" {
		backend = BackendChromem
	}
	if backend == BackendNone {
		return nil, nil
	}

	cfg := ai.NewConfigFromProfile(profile)
	if cfg.Embedding.APIKey == "" {
		return nil, errors.New("embedding API key is required")
	}
	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	switch backend {
	case BackendChromem:
		chromemStore, err := vector.NewChromemStore(vector.ChromemConfig{PersistPath: profile.VectorDir}, embedder)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open chromem store")
		}
		return chromemStore, nil
	case BackendPGVector:
		if profile.Driver != "postgres" {
			return nil, errors.Errorf("%s retrieval requires the postgres driver, got %q", BackendPGVector, profile.Driver)
		}
		return vector.NewPGVectorStore(store, embedder), nil
	default:
		return nil, errors.Errorf("unknown retrieval backend %q", backend)
	}
}
