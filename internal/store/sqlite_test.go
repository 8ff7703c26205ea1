package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func createTestLead(t *testing.T, st *SQLiteStore) *model.Lead {
	t.Helper()
	lead, err := st.CreateLead(context.Background(), model.Lead{
		Name:    "Pizzeria Bella Napoli",
		City:    "Kraków",
		Website: "https://bellanapoli.pl",
		MapsURL: "https://maps.google.com/?cid=12345678901234567890",
	})
	require.NoError(t, err)
	return lead
}

// --- Leads ---

func TestSQLite_CreateAndGetLead(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, st)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.LeadSourceGoogleMaps, lead.Source)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pizzeria Bella Napoli", got.Name)
	assert.Equal(t, "Kraków", got.City)
	assert.Equal(t, "https://maps.google.com/?cid=12345678901234567890", got.MapsURL)
	assert.False(t, got.EmailScraped)
}

func TestSQLite_GetLead_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListLeads_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateLead(ctx, model.Lead{Name: "A", City: "Kraków", Email: "a@example.pl"})
	require.NoError(t, err)
	_, err = st.CreateLead(ctx, model.Lead{Name: "B", City: "Kraków"})
	require.NoError(t, err)
	_, err = st.CreateLead(ctx, model.Lead{Name: "C", City: "Warszawa"})
	require.NoError(t, err)

	krakow, err := st.ListLeads(ctx, LeadFilter{City: "Kraków"})
	require.NoError(t, err)
	assert.Len(t, krakow, 2)

	missing, err := st.ListLeads(ctx, LeadFilter{City: "Kraków", MissingEmail: true})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "B", missing[0].Name)
}

func TestSQLite_SetLeadEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	require.NoError(t, st.SetLeadEmail(ctx, lead.ID, "kontakt@bellanapoli.pl"))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "kontakt@bellanapoli.pl", got.Email)
	assert.True(t, got.EmailScraped)
}

func TestSQLite_SetLeadEmail_MissRecordsScraped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	// An empty email still marks the lead as scraped so it is not
	// retried on every sweep.
	require.NoError(t, st.SetLeadEmail(ctx, lead.ID, ""))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.True(t, got.EmailScraped)
}

func TestSQLite_DeleteLead_Cascades(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	batch, err := st.CreateSuggestionBatch(ctx, lead.ID)
	require.NoError(t, err)
	kw, err := st.AddTrackedKeyword(ctx, lead.ID, "pizzeria kraków")
	require.NoError(t, err)
	pos := 3
	_, err = st.AddRankCheck(ctx, kw.ID, &pos)
	require.NoError(t, err)

	require.NoError(t, st.DeleteLead(ctx, lead.ID))

	_, err = st.GetLead(ctx, lead.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetAnalysis(ctx, analysis.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetSuggestionBatch(ctx, batch.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	kws, err := st.ListTrackedKeywords(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, kws)
}

// --- Analysis state machine ---

func TestSQLite_Analysis_FetchedThenAnalyzed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusPending, analysis.Status)
	assert.Equal(t, model.PostsStatusPending, analysis.PostsStatus)

	rating := 4.2
	err = st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{
		RawPayload: json.RawMessage(`{"title":"Pizzeria Bella Napoli"}`),
		Snapshot:   &model.BusinessSnapshot{BusinessName: "Pizzeria Bella Napoli", Rating: &rating},
		Issues:     []model.Issue{{Severity: model.SeverityWarning, Section: model.SectionReviews, Message: "x"}},
	})
	require.NoError(t, err)

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusFetched, got.Status)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, "Pizzeria Bella Napoli", got.Snapshot.BusinessName)
	assert.Len(t, got.Issues, 1)

	err = st.MarkAnalysisAnalyzed(ctx, analysis.ID, AnalyzedFields{
		Issues:    []model.Issue{{Severity: model.SeverityError, Section: model.SectionPhotos, Message: "y"}},
		Narrative: "Wizytówka wymaga uzupełnienia zdjęć.",
		Keywords:  []string{"pizzeria kraków"},
	})
	require.NoError(t, err)

	got, err = st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusAnalyzed, got.Status)
	assert.Equal(t, "Wizytówka wymaga uzupełnienia zdjęć.", got.Narrative)
	assert.Equal(t, []string{"pizzeria kraków"}, got.Keywords)
	// Issues are replaced wholesale, not appended.
	require.Len(t, got.Issues, 1)
	assert.Equal(t, model.SectionPhotos, got.Issues[0].Section)
}

func TestSQLite_Analysis_NoAnalyzeFromPending(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)

	err = st.MarkAnalysisAnalyzed(ctx, analysis.ID, AnalyzedFields{Narrative: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusPending, got.Status)
}

func TestSQLite_Analysis_TerminalStatesAreFinal(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{}))
	require.NoError(t, st.MarkAnalysisAnalyzed(ctx, analysis.ID, AnalyzedFields{Narrative: "done"}))

	// A late error from a duplicate job must not clobber the result.
	err = st.MarkAnalysisError(ctx, analysis.ID, "late failure")
	assert.ErrorIs(t, err, ErrNotFound)

	// Neither may a late phase-1 write.
	err = st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusAnalyzed, got.Status)
	assert.Equal(t, "done", got.Narrative)
	assert.Empty(t, got.ErrorMessage)
}

func TestSQLite_Analysis_RefetchOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{
		Snapshot: &model.BusinessSnapshot{BusinessName: "Old"},
	}))
	require.NoError(t, st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{
		Snapshot: &model.BusinessSnapshot{BusinessName: "New"},
	}))

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusFetched, got.Status)
	assert.Equal(t, "New", got.Snapshot.BusinessName)
}

func TestSQLite_Analysis_ErrorFromFetched(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{}))
	require.NoError(t, st.MarkAnalysisError(ctx, analysis.ID, "provider down"))

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusError, got.Status)
	assert.Equal(t, "provider down", got.ErrorMessage)
}

func TestSQLite_UpdateAnalysisPosts_NeverMovesStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	analysis, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkAnalysisFetched(ctx, analysis.ID, FetchedFields{}))
	require.NoError(t, st.MarkAnalysisAnalyzed(ctx, analysis.ID, AnalyzedFields{Narrative: "n"}))

	// The posts sub-fetch lands after phase 2; the main status stays put.
	require.NoError(t, st.UpdateAnalysisPosts(ctx, analysis.ID, model.PostsStatusFetched, model.PostsInfo{
		HasPosts: true,
		Count:    4,
	}))

	got, err := st.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusAnalyzed, got.Status)
	assert.Equal(t, model.PostsStatusFetched, got.PostsStatus)
	assert.True(t, got.Posts.HasPosts)
	assert.Equal(t, 4, got.Posts.Count)
}

func TestSQLite_LatestAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	_, err := st.LatestAnalysis(ctx, lead.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	second, err := st.CreateAnalysis(ctx, lead.ID)
	require.NoError(t, err)

	latest, err := st.LatestAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, latest.ID)
	assert.Equal(t, second.ID, latest.ID)

	all, err := st.ListAnalyses(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// --- Suggestion batches ---

func testSuggestions(batchID string) []model.Suggestion {
	vol := 590
	out := make([]model.Suggestion, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, model.Suggestion{
			BatchID: batchID,
			Phrase:  "fraza " + string(rune('a'+i-1)),
			Volume:  &vol,
			Rank:    i,
			Reason:  "uzasadnienie",
		})
	}
	return out
}

func TestSQLite_MarkBatchReady(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	batch, err := st.CreateSuggestionBatch(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusPending, batch.Status)

	require.NoError(t, st.MarkBatchReady(ctx, batch.ID, testSuggestions(batch.ID)))

	got, err := st.GetSuggestionBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusReady, got.Status)
	require.Len(t, got.Suggestions, 10)
	assert.Equal(t, 1, got.Suggestions[0].Rank)
	assert.Equal(t, 10, got.Suggestions[9].Rank)
	require.NotNil(t, got.Suggestions[0].Volume)
	assert.Equal(t, 590, *got.Suggestions[0].Volume)
}

func TestSQLite_MarkBatchReady_OnlyFromPending(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	batch, err := st.CreateSuggestionBatch(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkBatchReady(ctx, batch.ID, testSuggestions(batch.ID)))

	// A duplicate completion matches no pending row and inserts nothing.
	err = st.MarkBatchReady(ctx, batch.ID, testSuggestions(batch.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := st.GetSuggestionBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, got.Suggestions, 10)
}

func TestSQLite_MarkBatchError(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	batch, err := st.CreateSuggestionBatch(ctx, lead.ID)
	require.NoError(t, err)
	require.NoError(t, st.MarkBatchError(ctx, batch.ID, "upstream failed"))

	got, err := st.LatestSuggestionBatch(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusError, got.Status)
	assert.Equal(t, "upstream failed", got.ErrorMessage)

	// error is terminal for a batch.
	err = st.MarkBatchError(ctx, batch.ID, "again")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Tracked keywords ---

func TestSQLite_AddTrackedKeyword_GetOrCreate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	kw1, err := st.AddTrackedKeyword(ctx, lead.ID, "pizzeria kraków")
	require.NoError(t, err)
	kw2, err := st.AddTrackedKeyword(ctx, lead.ID, "pizzeria kraków")
	require.NoError(t, err)
	assert.Equal(t, kw1.ID, kw2.ID)

	kws, err := st.ListTrackedKeywords(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, kws, 1)
}

func TestSQLite_RankChecks_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := createTestLead(t, st)

	kw, err := st.AddTrackedKeyword(ctx, lead.ID, "pizzeria kraków")
	require.NoError(t, err)

	pos := 5
	_, err = st.AddRankCheck(ctx, kw.ID, &pos)
	require.NoError(t, err)
	_, err = st.AddRankCheck(ctx, kw.ID, nil)
	require.NoError(t, err)

	kws, err := st.ListTrackedKeywords(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, kws, 1)
	require.Len(t, kws[0].Checks, 2)
	// nil position means "not found in the search depth", it is a valid
	// measurement and must round-trip as nil, not zero.
	found := 0
	for _, c := range kws[0].Checks {
		if c.Position != nil {
			found++
			assert.Equal(t, 5, *c.Position)
		}
	}
	assert.Equal(t, 1, found)
}

func TestSQLite_ErrNotFound_IsWrapped(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SetLeadEmail(context.Background(), "missing", "a@b.pl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
