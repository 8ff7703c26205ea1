package keywords

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// SearchProvider returns ranked map results for a phrase in a location.
type SearchProvider interface {
	SearchRankings(ctx context.Context, keyword, location string) ([]dataforseo.SearchResult, error)
}

// RankTracker records point-in-time map search positions for a lead's
// tracked phrases.
type RankTracker struct {
	store  store.Store
	search SearchProvider
}

// NewRankTracker creates a RankTracker.
func NewRankTracker(st store.Store, search SearchProvider) *RankTracker {
	return &RankTracker{store: st, search: search}
}

// CheckRankings runs one rank check per keyword. Keyword failures are
// isolated: a failing query records a nil position for that keyword and
// the siblings still run.
func (t *RankTracker) CheckRankings(ctx context.Context, lead *model.Lead, kws []model.TrackedKeyword) error {
	identifier := ExtractCID(lead.MapsURL)

	for _, kw := range kws {
		results, err := t.search.SearchRankings(ctx, kw.Phrase, lead.City)
		if err != nil {
			zap.L().Warn("rank check query failed",
				zap.String("lead_id", lead.ID),
				zap.String("phrase", kw.Phrase),
				zap.Error(err))
			if _, err := t.store.AddRankCheck(ctx, kw.ID, nil); err != nil {
				return err
			}
			continue
		}

		position := matchPosition(lead, identifier, results)
		if _, err := t.store.AddRankCheck(ctx, kw.ID, position); err != nil {
			return err
		}
	}
	return nil
}

// matchPosition finds the lead in a result list. When the listing
// exposes a stable identifier, results are matched by identifier only;
// an identifier mismatch is never masked by a name fallback. Without an
// identifier the lead's name is substring-matched against result titles
// case-insensitively.
func matchPosition(lead *model.Lead, identifier string, results []dataforseo.SearchResult) *int {
	if identifier != "" {
		want := strings.TrimPrefix(identifier, "cid:")
		for _, r := range results {
			if r.Identifier == want {
				rank := r.Rank
				return &rank
			}
		}
		return nil
	}

	name := strings.ToLower(strings.TrimSpace(lead.Name))
	if name == "" {
		return nil
	}
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Title), name) {
			rank := r.Rank
			return &rank
		}
	}
	return nil
}
