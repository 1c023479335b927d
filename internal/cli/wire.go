package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/ppiankov/diligence/internal/analysis"
	"github.com/ppiankov/diligence/internal/cache"
	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/insight"
	"github.com/ppiankov/diligence/internal/llm"
	"github.com/ppiankov/diligence/internal/model"
	"github.com/ppiankov/diligence/internal/pipeline"
	"github.com/ppiankov/diligence/internal/store"
	"github.com/ppiankov/diligence/internal/worker"
)

// runtime is everything a command needs to run DD
type runtime struct {
	cfg      *model.Config
	store    store.Store
	suite    *analysis.Suite
	dd       *pipeline.Orchestrator
	insights *insight.Generator
}

// newRuntime loads the configuration and wires the store, model client,
// document loader and analysis suite into an orchestrator
func newRuntime() (*runtime, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg)
}

func buildRuntime(cfg *model.Config) (*runtime, error) {
	suite, err := buildSuite(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	dd := pipeline.New(st, suite, pipeline.WithStageTimeout(cfg.Analysis.StageTimeout))
	return &runtime{
		cfg:      cfg,
		store:    st,
		suite:    suite,
		dd:       dd,
		insights: insight.NewGenerator(suite.Narrator),
	}, nil
}

// buildSuite creates the analysis services selected by cfg
func buildSuite(cfg *model.Config) (*analysis.Suite, error) {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	var client *llm.Client
	if provider != nil {
		client = llm.NewClient(provider,
			llm.WithCache(cache.New(cfg.Cache), cfg.Cache.DiskTTL),
			llm.WithLimiter(limiter),
			llm.WithStrictEvidence(cfg.LLM.StrictEvidence),
		)
	}

	fetcher := fetch.NewFetcher(cfg.HTTP, fetch.WithLimiter(limiter))
	loader := fetch.NewLoader(fetcher, fetch.NewAuthorityClassifier(&cfg.Authority))

	return analysis.NewSuite(cfg.Analysis, analysis.Deps{
		LLM:     client,
		Loader:  loader,
		Workers: cfg.Concurrency.DocumentWorkers,
	})
}

func (r *runtime) Close() error {
	return r.store.Close()
}
