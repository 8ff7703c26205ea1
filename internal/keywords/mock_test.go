package keywords

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// mockSearch implements SearchProvider with per-phrase results.
type mockSearch struct {
	results map[string][]dataforseo.SearchResult
	errs    map[string]error
}

func (m *mockSearch) SearchRankings(_ context.Context, keyword, _ string) ([]dataforseo.SearchResult, error) {
	if err, ok := m.errs[keyword]; ok {
		return nil, err
	}
	return m.results[keyword], nil
}

// mockVolumes implements VolumeProvider.
type mockVolumes struct {
	candidates []dataforseo.KeywordVolume
	err        error
	seenSeed   string
	seenLimit  int
}

func (m *mockVolumes) KeywordSuggestions(_ context.Context, seed string, limit int) ([]dataforseo.KeywordVolume, error) {
	m.seenSeed = seed
	m.seenLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockLLM implements anthropic.Client.
type mockLLM struct {
	response   string
	err        error
	seenPrompt string
}

func (m *mockLLM) Complete(_ context.Context, prompt string) (string, error) {
	m.seenPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockFetcher implements scrape.Fetcher.
type mockFetcher struct {
	pages map[string]string
	calls int
}

func (m *mockFetcher) Get(_ context.Context, url string) (string, error) {
	m.calls++
	if page, ok := m.pages[url]; ok {
		return page, nil
	}
	return "", eris.Errorf("scrape: fetch %s: status 404", url)
}

func createLead(t *testing.T, st *store.SQLiteStore, lead model.Lead) *model.Lead {
	t.Helper()
	if lead.Name == "" {
		lead.Name = "Bella Napoli"
	}
	if lead.City == "" {
		lead.City = "Kraków"
	}
	out, err := st.CreateLead(context.Background(), lead)
	require.NoError(t, err)
	return out
}
