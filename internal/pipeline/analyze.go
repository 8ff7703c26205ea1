package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/issues"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/snapshot"
	"github.com/sells-group/lead-enrich/internal/store"
)

// runAnalyze is phase 2: re-normalize the stored payload, regenerate
// issues with posts data when the sub-fetch has completed, synthesize
// the narrative, and persist as analyzed. The listing provider is never
// called again; re-runs only pay for the LLM.
func (p *Pipeline) runAnalyze(ctx context.Context, leadID, analysisID string, targetKeywords []string) error {
	if p.cfg.Anthropic.Key == "" {
		p.markError(ctx, analysisID, msgMissingLLMConfig)
		return eris.New("anthropic key not configured")
	}

	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	analysis, err := p.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	if analysis.Status != model.AnalysisStatusFetched && analysis.Status != model.AnalysisStatusAnalyzed {
		return eris.Errorf("analysis %s is %s, analyze needs fetched data", analysisID, analysis.Status)
	}

	var item map[string]any
	if err := json.Unmarshal(analysis.RawPayload, &item); err != nil {
		p.markError(ctx, analysisID, fmt.Sprintf("Błąd podczas analizy: %s", err))
		return eris.Wrap(err, "decode stored payload")
	}

	snap := snapshot.Normalize(item)
	found := issues.Detect(snap, analysis.Posts, analysis.PostsVerified())

	prompt := BuildNarrativePrompt(lead.Name, lead.City, snap, found, targetKeywords)
	narrative, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		// A failed synthesis is terminal for this record but the
		// snapshot and issues persisted in phase 1 stay committed.
		p.markError(ctx, analysisID, fmt.Sprintf("Błąd podczas analizy: %s", err))
		return eris.Wrap(err, "narrative completion")
	}

	err = p.store.MarkAnalysisAnalyzed(ctx, analysisID, store.AnalyzedFields{
		Issues:    found,
		Narrative: narrative,
		Keywords:  targetKeywords,
	})
	if err != nil {
		return err
	}

	zap.L().Info("analysis complete",
		zap.String("lead_id", leadID),
		zap.String("analysis_id", analysisID),
		zap.Int("issues", len(found)))
	return nil
}
