package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/policygate/internal/assess"
	"github.com/ppiankov/policygate/internal/audit"
	"github.com/ppiankov/policygate/internal/cache"
	"github.com/ppiankov/policygate/internal/llm"
	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/retrieve"
	"github.com/ppiankov/policygate/internal/worker"
)

// Options carries what the caller resolves outside the config file
type Options struct {
	OpenAIKey string          // for question embeddings; may differ from the chat provider key
	Limiter   *worker.Limiter // shared across pipelines in a batch; nil builds one from cfg
	Logger    *slog.Logger
}

// NewFromConfig wires the configured provider, retriever, cache and audit log
func NewFromConfig(cfg *model.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llmConfig := llm.ConfigFromModel(cfg.LLM)
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(cfg)
	}
	limited := llm.NewLimitedProvider(provider, limiter, llm.Endpoint(llmConfig), cfg.RateLimiting.MaxRetries)

	judgeModel := cfg.LLM.JudgeModel
	if judgeModel == "" {
		judgeModel = cfg.LLM.Model
	}

	retriever, err := retrieve.New(cfg.Retrieval, retrieve.Options{
		OpenAIKey: opts.OpenAIKey,
		Cache:     cache.New(cfg.Cache),
	})
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}

	deps := Deps{
		Retriever: retriever,
		Drafter:   llm.NewDrafter(limited, cfg.LLM.Model),
		Assessor:  assess.NewAssessor(llm.NewJudge(limited, judgeModel), opts.Logger),
		Models: model.ModelInfo{
			Provider:  provider.Name(),
			Model:     cfg.LLM.Model,
			Retriever: cfg.Retrieval.Backend,
		},
		Logger: opts.Logger,
	}

	var store *audit.Store
	if cfg.Audit.Enabled {
		store, err = audit.Open(cfg.Audit.DBPath)
		if err != nil {
			return nil, err
		}
		deps.Recorder = store
	}

	p := New(cfg, deps)
	if store != nil {
		p.closers = append(p.closers, store.Close)
	}
	return p, nil
}

// NewLimiter builds the per-endpoint limiter; local providers are not limited
func NewLimiter(cfg *model.Config) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	llmConfig := llm.ConfigFromModel(cfg.LLM)
	if llm.IsLocal(llmConfig) {
		if err := limiter.SetEndpointRate(llm.Endpoint(llmConfig), 0, 1); err != nil {
			slog.Warn("could not lift rate limit for local provider", "error", err)
		}
	}
	return limiter
}
