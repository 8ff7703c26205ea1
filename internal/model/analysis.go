package model

import (
	"encoding/json"
	"time"
)

// AnalysisStatus tracks the two-phase enrichment state machine.
// Transitions: pending -> fetched -> analyzed, with error reachable
// from pending or fetched. analyzed and error are terminal.
type AnalysisStatus string

const (
	AnalysisStatusPending  AnalysisStatus = "pending"
	AnalysisStatusFetched  AnalysisStatus = "fetched"
	AnalysisStatusAnalyzed AnalysisStatus = "analyzed"
	AnalysisStatusError    AnalysisStatus = "error"
)

// CanTransition reports whether moving from s to next is a legal step
// of the analysis state machine.
func (s AnalysisStatus) CanTransition(next AnalysisStatus) bool {
	switch s {
	case AnalysisStatusPending:
		return next == AnalysisStatusFetched || next == AnalysisStatusError
	case AnalysisStatusFetched:
		return next == AnalysisStatusAnalyzed || next == AnalysisStatusError
	default:
		// analyzed and error are terminal.
		return false
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisStatusAnalyzed || s == AnalysisStatusError
}

// PostsStatus tracks the independent posts sub-fetch.
type PostsStatus string

const (
	PostsStatusPending PostsStatus = "pending"
	PostsStatusFetched PostsStatus = "fetched"
	PostsStatusError   PostsStatus = "error"
)

// Analysis is one enrichment attempt for a lead. A lead accumulates
// analyses newest-first; the most recent one is the current view.
type Analysis struct {
	ID     string         `json:"id"`
	LeadID string         `json:"lead_id"`
	Status AnalysisStatus `json:"status"`

	// RawPayload is the untouched provider item, kept for audit and
	// reprocessing. Pipeline logic never branches on its shape outside
	// the normalizer.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	Snapshot  *BusinessSnapshot `json:"snapshot,omitempty"`
	Issues    []Issue           `json:"issues,omitempty"`
	Narrative string            `json:"narrative,omitempty"`
	// Keywords are the target phrases the narrative was generated for.
	Keywords []string `json:"keywords,omitempty"`

	PostsStatus PostsStatus `json:"posts_status"`
	Posts       PostsInfo   `json:"posts"`

	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostsVerified reports whether the posts sub-fetch has completed, so
// post-related issue rules may fire without producing false findings.
func (a *Analysis) PostsVerified() bool {
	return a.PostsStatus == PostsStatusFetched
}
