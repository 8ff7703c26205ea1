package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/anthropic"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

const suggestionCount = 10

// stalePendingMessage is shown when a batch sat in pending past the
// liveness threshold, matching the product copy.
const stalePendingMessage = "Przekroczono limit czasu. Zadanie prawdopodobnie nie zostało ukończone (sprawdź czy proces roboczy działa)."

// VolumeProvider returns candidate phrases with monthly search volume
// for a seed phrase.
type VolumeProvider interface {
	KeywordSuggestions(ctx context.Context, seed string, limit int) ([]dataforseo.KeywordVolume, error)
}

// Suggester runs the keyword suggestion pipeline: candidate phrases
// from the volume provider, optional website text for context, and an
// LLM pass that picks the final ranked ten.
type Suggester struct {
	store   store.Store
	volumes VolumeProvider
	llm     anthropic.Client
	fetcher scrape.Fetcher

	candidateLimit int
	contextChars   int
}

// NewSuggester creates a Suggester. candidateLimit caps the phrases
// requested from the volume provider; contextChars caps the plain-text
// website excerpt passed to the LLM.
func NewSuggester(st store.Store, volumes VolumeProvider, llm anthropic.Client, fetcher scrape.Fetcher, candidateLimit, contextChars int) *Suggester {
	if candidateLimit <= 0 {
		candidateLimit = 50
	}
	if contextChars <= 0 {
		contextChars = 3000
	}
	return &Suggester{
		store:          st,
		volumes:        volumes,
		llm:            llm,
		fetcher:        fetcher,
		candidateLimit: candidateLimit,
		contextChars:   contextChars,
	}
}

// Generate fills the batch: ready with ten ranked suggestions on
// success, error with the cause captured on any failure.
func (s *Suggester) Generate(ctx context.Context, lead *model.Lead, batchID string) error {
	suggestions, err := s.generate(ctx, lead)
	if err != nil {
		if markErr := s.store.MarkBatchError(ctx, batchID, err.Error()); markErr != nil {
			zap.L().Error("failed to mark batch error",
				zap.String("batch_id", batchID),
				zap.Error(markErr))
		}
		return err
	}
	return s.store.MarkBatchReady(ctx, batchID, suggestions)
}

func (s *Suggester) generate(ctx context.Context, lead *model.Lead) ([]model.Suggestion, error) {
	seed := strings.TrimSpace(lead.Name + " " + lead.City)
	candidates, err := s.volumes.KeywordSuggestions(ctx, seed, s.candidateLimit)
	if err != nil {
		return nil, eris.Wrap(err, "keyword candidates")
	}

	siteContext := s.websiteContext(ctx, lead)

	tracked, err := s.store.ListTrackedKeywords(ctx, lead.ID)
	if err != nil {
		return nil, eris.Wrap(err, "list tracked keywords")
	}
	trackedPhrases := make([]string, 0, len(tracked))
	for _, kw := range tracked {
		trackedPhrases = append(trackedPhrases, kw.Phrase)
	}

	var snapshot *model.BusinessSnapshot
	if latest, err := s.store.LatestAnalysis(ctx, lead.ID); err == nil {
		snapshot = latest.Snapshot
	}

	prompt := buildSuggestionPrompt(lead, snapshot, candidates, siteContext, trackedPhrases)

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "suggestion completion")
	}

	picked, err := parseSuggestions(text)
	if err != nil {
		return nil, err
	}

	// Prefer the volume the provider reported over anything the model
	// put in its answer.
	knownVolumes := make(map[string]*int, len(candidates))
	for _, c := range candidates {
		knownVolumes[strings.ToLower(c.Phrase)] = c.MonthlyVolume
	}

	out := make([]model.Suggestion, 0, len(picked))
	for _, p := range picked {
		volume := p.Volume
		if known, ok := knownVolumes[strings.ToLower(p.Phrase)]; ok {
			volume = known
		}
		out = append(out, model.Suggestion{
			Phrase: p.Phrase,
			Volume: volume,
			Rank:   p.Rank,
			Reason: p.Reason,
		})
	}
	return out, nil
}

// websiteContext fetches the lead's website and strips it down to plain
// text. Best-effort: a missing, blocked, or unreachable site yields an
// empty context and the batch proceeds without it.
func (s *Suggester) websiteContext(ctx context.Context, lead *model.Lead) string {
	if lead.Website == "" || scrape.IsBlockedForScraping(lead.Website) {
		return ""
	}
	html, err := s.fetcher.Get(ctx, lead.Website)
	if err != nil {
		zap.L().Debug("website context fetch failed",
			zap.String("lead_id", lead.ID),
			zap.String("url", lead.Website),
			zap.Error(err))
		return ""
	}
	return scrape.Truncate(scrape.StripTags(html), s.contextChars)
}

func buildSuggestionPrompt(lead *model.Lead, snapshot *model.BusinessSnapshot, candidates []dataforseo.KeywordVolume, siteContext string, tracked []string) string {
	var b strings.Builder

	b.WriteString("Jesteś ekspertem od pozycjonowania lokalnych firm w wynikach Google.\n\n")
	fmt.Fprintf(&b, "Firma: %s (%s)\n", lead.Name, lead.City)
	if snapshot != nil {
		if cat := snapshot.PrimaryCategory(); cat != "" {
			fmt.Fprintf(&b, "Kategoria: %s\n", cat)
		}
		if snapshot.Description != "" {
			fmt.Fprintf(&b, "Opis: %s\n", scrape.Truncate(snapshot.Description, 500))
		}
	}

	b.WriteString("\nKontekst ze strony WWW firmy:\n")
	if siteContext == "" {
		b.WriteString("(brak)\n")
	} else {
		b.WriteString(siteContext)
		b.WriteString("\n")
	}

	b.WriteString("\nKandydaci (fraza, miesięczny wolumen wyszukiwań):\n")
	for _, c := range candidates {
		if c.MonthlyVolume != nil {
			fmt.Fprintf(&b, "- %s, %d\n", c.Phrase, *c.MonthlyVolume)
		} else {
			fmt.Fprintf(&b, "- %s, brak danych\n", c.Phrase)
		}
	}

	if len(tracked) > 0 {
		b.WriteString("\nFrazy już śledzone dla tej firmy (nie proponuj ich ponownie):\n")
		for _, p := range tracked {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	fmt.Fprintf(&b, `
Wybierz dokładnie %d fraz, które dają tej firmie największą szansę na pozyskanie klientów z wyszukiwarki.

Odpowiedz wyłącznie tablicą JSON, bez żadnego komentarza, o elementach:
{"phrase": "fraza", "rank": 1, "reason": "krótkie uzasadnienie po polsku", "volume": 590}
Pole rank numeruje frazy od 1 (najlepsza) do %d. Pole volume to miesięczny wolumen lub null, jeśli nieznany.
`, suggestionCount, suggestionCount)

	return b.String()
}

type pickedSuggestion struct {
	Phrase string `json:"phrase"`
	Rank   int    `json:"rank"`
	Reason string `json:"reason"`
	Volume *int   `json:"volume"`
}

func parseSuggestions(text string) ([]pickedSuggestion, error) {
	cleaned := cleanJSONArray(text)

	var picked []pickedSuggestion
	if err := json.Unmarshal([]byte(cleaned), &picked); err != nil {
		return nil, eris.Wrap(err, "parse suggestion response")
	}
	if len(picked) != suggestionCount {
		return nil, eris.Errorf("expected %d suggestions, got %d", suggestionCount, len(picked))
	}
	for i, p := range picked {
		if strings.TrimSpace(p.Phrase) == "" {
			return nil, eris.Errorf("suggestion %d has an empty phrase", i+1)
		}
	}
	return picked, nil
}

// cleanJSONArray strips markdown fences and extracts the JSON array.
func cleanJSONArray(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// ReclassifyStale flags a batch that sat in pending past maxAge as
// error. A liveness check for consumers, not a pipeline timeout: the
// worker that owned the batch is assumed dead.
func ReclassifyStale(ctx context.Context, st store.Store, batch *model.SuggestionBatch, maxAge time.Duration) (*model.SuggestionBatch, error) {
	if batch == nil || batch.Status != model.BatchStatusPending {
		return batch, nil
	}
	if time.Since(batch.CreatedAt) <= maxAge {
		return batch, nil
	}
	if err := st.MarkBatchError(ctx, batch.ID, stalePendingMessage); err != nil {
		return batch, err
	}
	batch.Status = model.BatchStatusError
	batch.ErrorMessage = stalePendingMessage
	return batch, nil
}
