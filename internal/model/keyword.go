package model

import "time"

// BatchStatus tracks a keyword suggestion batch.
type BatchStatus string

const (
	BatchStatusPending BatchStatus = "pending"
	BatchStatusReady   BatchStatus = "ready"
	BatchStatusError   BatchStatus = "error"
)

// SuggestionBatch is one run of the keyword suggestion pipeline.
type SuggestionBatch struct {
	ID           string      `json:"id"`
	LeadID       string      `json:"lead_id"`
	Status       BatchStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Suggestions  []Suggestion `json:"suggestions,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Suggestion is a single ranked keyword candidate in a batch.
type Suggestion struct {
	ID      string `json:"id"`
	BatchID string `json:"batch_id"`
	Phrase  string `json:"phrase"`
	// Volume is the monthly search volume known from the volume
	// provider; nil when the provider had no number for the phrase.
	Volume *int   `json:"volume,omitempty"`
	Rank   int    `json:"rank"`
	Reason string `json:"reason,omitempty"`
}

// TrackedKeyword is a phrase the lead wants to rank for.
type TrackedKeyword struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Phrase    string    `json:"phrase"`
	CreatedAt time.Time `json:"created_at"`
	// Checks are rank measurements, newest first.
	Checks []RankCheck `json:"checks,omitempty"`
}

// RankCheck is one point-in-time search position measurement. A nil
// Position means the lead was not found within the search depth.
type RankCheck struct {
	ID        string    `json:"id"`
	KeywordID string    `json:"keyword_id"`
	Position  *int      `json:"position,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
