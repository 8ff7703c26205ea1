package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/issues"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/snapshot"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// Terminal error messages shown to the consumer, matching the product
// copy.
const (
	msgMissingProviderConfig = "Brak konfiguracji DataForSEO w ustawieniach aplikacji."
	msgMissingLLMConfig      = "Brak klucza Anthropic API w ustawieniach aplikacji."
	msgListingNotFound       = "Nie znaleziono wizytówki Google dla tej firmy."
)

// runFetch is phase 1: call the listing provider, normalize the
// payload, run the non-posts issue rules, persist as fetched, and kick
// off the posts sub-fetch.
func (p *Pipeline) runFetch(ctx context.Context, leadID, analysisID string) error {
	// Missing credentials fail fast before any provider call.
	if !p.cfg.DataForSEO.Configured() {
		p.markError(ctx, analysisID, msgMissingProviderConfig)
		return eris.New("dataforseo credentials not configured")
	}

	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		// The lead was deleted since enqueueing; the analysis went with
		// it, so exit without side effects.
		return err
	}

	query := lead.Name + " " + lead.City
	raw, err := p.listing.BusinessInfo(ctx, query)
	if err != nil {
		if errors.Is(err, dataforseo.ErrNotFound) {
			p.markError(ctx, analysisID, msgListingNotFound)
			return err
		}
		p.markError(ctx, analysisID, fmt.Sprintf("Błąd podczas analizy: %s", err))
		return err
	}

	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		p.markError(ctx, analysisID, fmt.Sprintf("Błąd podczas analizy: %s", err))
		return eris.Wrap(err, "decode listing item")
	}

	snap := snapshot.Normalize(item)
	// Posts are not verified yet, so the post rules stay off.
	found := issues.Detect(snap, model.PostsInfo{}, false)

	err = p.store.MarkAnalysisFetched(ctx, analysisID, store.FetchedFields{
		RawPayload: raw,
		Snapshot:   snap,
		Issues:     found,
	})
	if err != nil {
		return err
	}

	zap.L().Info("analysis fetched",
		zap.String("lead_id", leadID),
		zap.String("analysis_id", analysisID),
		zap.Int("issues", len(found)))

	// Posts arrive from a slower endpoint; the sub-fetch runs on its
	// own and never blocks phase-1 completion.
	p.runner.Submit("posts:"+analysisID, func(ctx context.Context) error {
		return p.runPosts(ctx, lead, analysisID)
	})
	return nil
}
