package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/jobs"
	"github.com/sells-group/lead-enrich/internal/pipeline"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/store"
	anthropicpkg "github.com/sells-group/lead-enrich/pkg/anthropic"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// maxConcurrentJobs bounds the background job pool shared by all
// enqueue entry points.
const maxConcurrentJobs = 8

// pipelineEnv holds the initialized store, clients, and pipeline used
// by the enrichment commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Runner   *jobs.Runner
}

// Close waits for in-flight jobs and releases resources.
func (pe *pipelineEnv) Close() {
	if pe.Runner != nil {
		pe.Runner.Wait()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "lead-enrich.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, provider clients, job runner, and
// pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	listingClient := dataforseo.NewClient(cfg.DataForSEO.Login, cfg.DataForSEO.Password,
		dataforseo.WithLocale(cfg.DataForSEO.Location, cfg.DataForSEO.Language),
		dataforseo.WithSearchDepth(cfg.Rank.SearchDepth))
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithModel(cfg.Anthropic.Model),
		anthropicpkg.WithMaxTokens(cfg.Anthropic.MaxTokens))
	fetcher := scrape.NewFetcher(
		scrape.WithTimeout(time.Duration(cfg.Scrape.TimeoutSecs)*time.Second),
		scrape.WithRateLimit(cfg.Scrape.RateLimitRPS, 4))

	runner := jobs.NewRunner(ctx, maxConcurrentJobs)
	p := pipeline.New(cfg, st, listingClient, anthropicClient, fetcher, runner)

	return &pipelineEnv{Store: st, Pipeline: p, Runner: runner}, nil
}
