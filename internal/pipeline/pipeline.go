// Package pipeline orchestrates lead enrichment: the two-phase
// fetch/analyze state machine, the posts sub-fetch, keyword suggestion
// batches, and rank checks. Request entry points enqueue a background
// job and return immediately; all provider I/O happens inside jobs.
package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/jobs"
	"github.com/sells-group/lead-enrich/internal/keywords"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/anthropic"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// Pipeline wires the enrichment components together.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	listing dataforseo.Client
	llm     anthropic.Client
	runner  *jobs.Runner

	suggester *keywords.Suggester
	tracker   *keywords.RankTracker
	crawler   *scrape.EmailCrawler
}

// New creates a Pipeline.
func New(cfg *config.Config, st store.Store, listing dataforseo.Client, llm anthropic.Client, fetcher scrape.Fetcher, runner *jobs.Runner) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		listing:   listing,
		llm:       llm,
		runner:    runner,
		suggester: keywords.NewSuggester(st, listing, llm, fetcher, cfg.Suggest.CandidateLimit, cfg.Suggest.WebsiteContextChars),
		tracker:   keywords.NewRankTracker(st, listing),
		crawler:   scrape.NewEmailCrawler(fetcher),
	}
}

// RequestFetch creates a pending analysis for the lead and enqueues
// phase 1. The record is created before the job runs so the consumer
// sees progress immediately.
func (p *Pipeline) RequestFetch(ctx context.Context, leadID string) (*model.Analysis, error) {
	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	analysis, err := p.store.CreateAnalysis(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	p.runner.Submit("fetch:"+analysis.ID, func(ctx context.Context) error {
		return p.runFetch(ctx, lead.ID, analysis.ID)
	})
	return analysis, nil
}

// RequestAnalyze enqueues phase 2 for the lead's most recent analysis.
// targetKeywords steer the narrative; they may differ between re-runs.
func (p *Pipeline) RequestAnalyze(ctx context.Context, leadID string, targetKeywords []string) (*model.Analysis, error) {
	analysis, err := p.store.LatestAnalysis(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if analysis.Status != model.AnalysisStatusFetched && analysis.Status != model.AnalysisStatusAnalyzed {
		return nil, eris.Errorf("analysis %s is %s, analyze needs fetched data", analysis.ID, analysis.Status)
	}

	p.runner.Submit("analyze:"+analysis.ID, func(ctx context.Context) error {
		return p.runAnalyze(ctx, leadID, analysis.ID, targetKeywords)
	})
	return analysis, nil
}

// RequestSuggestions creates a pending suggestion batch and enqueues
// its generation.
func (p *Pipeline) RequestSuggestions(ctx context.Context, leadID string) (*model.SuggestionBatch, error) {
	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	batch, err := p.store.CreateSuggestionBatch(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	p.runner.Submit("suggest:"+batch.ID, func(ctx context.Context) error {
		return p.suggester.Generate(ctx, lead, batch.ID)
	})
	return batch, nil
}

// RequestRankCheck enqueues rank checks for the lead's tracked
// keywords. When phrases is non-empty only those phrases are checked.
func (p *Pipeline) RequestRankCheck(ctx context.Context, leadID string, phrases []string) error {
	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	tracked, err := p.store.ListTrackedKeywords(ctx, lead.ID)
	if err != nil {
		return err
	}
	if len(phrases) > 0 {
		tracked = filterKeywords(tracked, phrases)
	}
	if len(tracked) == 0 {
		return eris.Errorf("lead %s has no matching tracked keywords", leadID)
	}

	p.runner.Submit("rank:"+lead.ID, func(ctx context.Context) error {
		return p.tracker.CheckRankings(ctx, lead, tracked)
	})
	return nil
}

// Wait blocks until every enqueued job has finished.
func (p *Pipeline) Wait() {
	p.runner.Wait()
}

func filterKeywords(tracked []model.TrackedKeyword, phrases []string) []model.TrackedKeyword {
	want := make(map[string]bool, len(phrases))
	for _, ph := range phrases {
		want[ph] = true
	}
	var out []model.TrackedKeyword
	for _, kw := range tracked {
		if want[kw.Phrase] {
			out = append(out, kw)
		}
	}
	return out
}

// markError records a terminal failure, tolerating records that are
// already terminal or gone.
func (p *Pipeline) markError(ctx context.Context, analysisID, message string) {
	if err := p.store.MarkAnalysisError(ctx, analysisID, message); err != nil && !errors.Is(err, store.ErrNotFound) {
		zap.L().Error("failed to mark analysis error",
			zap.String("analysis_id", analysisID),
			zap.Error(err))
	}
}
