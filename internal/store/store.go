// Package store persists leads and their enrichment entities. Phase
// transitions are modeled as targeted field updates guarded by status
// predicates, so concurrent duplicate jobs stay idempotent and a
// completed analysis is never downgraded.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/model"
)

// ErrNotFound is returned when a record does not exist or a guarded
// status update matched no row. Jobs treat it as "target is gone, exit
// without side effects".
var ErrNotFound = eris.New("store: not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	City         string `json:"city,omitempty"`
	MissingEmail bool   `json:"missing_email,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// FetchedFields is the field set written by phase 1. Writing it moves
// the analysis to fetched; re-running phase 1 on an already-fetched
// record simply overwrites these fields.
type FetchedFields struct {
	RawPayload json.RawMessage
	Snapshot   *model.BusinessSnapshot
	Issues     []model.Issue
}

// AnalyzedFields is the field set written by phase 2. Writing it moves
// the analysis to analyzed; issues are replaced wholesale because they
// are regenerated, never patched.
type AnalyzedFields struct {
	Issues    []model.Issue
	Narrative string
	Keywords  []string
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	// SetLeadEmail records the scrape outcome: the email (kept empty on
	// a miss) and the email_scraped flag.
	SetLeadEmail(ctx context.Context, leadID, email string) error
	// DeleteLead removes the lead and, by cascade, its analyses,
	// suggestion batches, and tracked keywords with their histories.
	DeleteLead(ctx context.Context, leadID string) error

	// Analyses
	CreateAnalysis(ctx context.Context, leadID string) (*model.Analysis, error)
	GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error)
	// LatestAnalysis returns the lead's newest analysis or ErrNotFound.
	LatestAnalysis(ctx context.Context, leadID string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, leadID string) ([]model.Analysis, error)
	// MarkAnalysisFetched upserts phase-1 fields. Legal from pending or
	// fetched; ErrNotFound when the record is missing or terminal.
	MarkAnalysisFetched(ctx context.Context, analysisID string, fields FetchedFields) error
	// MarkAnalysisAnalyzed upserts phase-2 fields. Legal from fetched
	// or analyzed (re-run overwrites narrative fields).
	MarkAnalysisAnalyzed(ctx context.Context, analysisID string, fields AnalyzedFields) error
	// MarkAnalysisError records a terminal failure. Never overwrites an
	// analyzed record.
	MarkAnalysisError(ctx context.Context, analysisID, message string) error
	// UpdateAnalysisPosts writes only the posts sub-status and fields;
	// it cannot move the main status in any direction.
	UpdateAnalysisPosts(ctx context.Context, analysisID string, status model.PostsStatus, posts model.PostsInfo) error

	// Suggestion batches
	CreateSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error)
	GetSuggestionBatch(ctx context.Context, batchID string) (*model.SuggestionBatch, error)
	// LatestSuggestionBatch returns the newest batch with suggestions
	// attached, or ErrNotFound when the lead has none.
	LatestSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error)
	MarkBatchReady(ctx context.Context, batchID string, suggestions []model.Suggestion) error
	MarkBatchError(ctx context.Context, batchID, message string) error

	// Tracked keywords
	// AddTrackedKeyword is get-or-create on (lead, phrase).
	AddTrackedKeyword(ctx context.Context, leadID, phrase string) (*model.TrackedKeyword, error)
	ListTrackedKeywords(ctx context.Context, leadID string) ([]model.TrackedKeyword, error)
	AddRankCheck(ctx context.Context, keywordID string, position *int) (*model.RankCheck, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
