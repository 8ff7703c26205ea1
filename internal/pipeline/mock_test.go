package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/jobs"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/store"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// mockListing implements dataforseo.Client for testing.
type mockListing struct {
	businessInfo json.RawMessage
	businessErr  error

	taskID    string
	submitErr error
	postsTask *dataforseo.PostsTask
	postsErr  error

	candidates []dataforseo.KeywordVolume
	rankings   []dataforseo.SearchResult
}

func (m *mockListing) BusinessInfo(context.Context, string) (json.RawMessage, error) {
	if m.businessErr != nil {
		return nil, m.businessErr
	}
	return m.businessInfo, nil
}

func (m *mockListing) SubmitPostsTask(context.Context, string) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	if m.taskID == "" {
		return "task-1", nil
	}
	return m.taskID, nil
}

func (m *mockListing) GetPostsTask(context.Context, string) (*dataforseo.PostsTask, error) {
	if m.postsErr != nil {
		return nil, m.postsErr
	}
	if m.postsTask == nil {
		return &dataforseo.PostsTask{State: dataforseo.TaskReady}, nil
	}
	return m.postsTask, nil
}

func (m *mockListing) KeywordSuggestions(context.Context, string, int) ([]dataforseo.KeywordVolume, error) {
	return m.candidates, nil
}

func (m *mockListing) SearchRankings(context.Context, string, string) ([]dataforseo.SearchResult, error) {
	return m.rankings, nil
}

// mockLLM implements anthropic.Client.
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockFetcher implements scrape.Fetcher.
type mockFetcher struct {
	pages map[string]string
}

func (m *mockFetcher) Get(_ context.Context, url string) (string, error) {
	if page, ok := m.pages[url]; ok {
		return page, nil
	}
	return "", eris.Errorf("scrape: fetch %s: status 404", url)
}

func testConfig() *config.Config {
	return &config.Config{
		DataForSEO: config.DataForSEOConfig{
			Login:    "login",
			Password: "password",
			Location: "Poland",
			Language: "Polish",
		},
		Anthropic: config.AnthropicConfig{Key: "sk-test"},
		Suggest: config.SuggestConfig{
			CandidateLimit:      50,
			WebsiteContextChars: 3000,
			PendingTimeoutMins:  3,
		},
		Posts: config.PostsConfig{PollIntervalSecs: 0, PollAttempts: 2},
	}
}

type testEnv struct {
	store    *store.SQLiteStore
	listing  *mockListing
	llm      *mockLLM
	pipeline *Pipeline
}

func newTestEnv(t *testing.T, cfg *config.Config, listing *mockListing, llm *mockLLM) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	runner := jobs.NewRunner(context.Background(), 4)
	p := New(cfg, st, listing, llm, &mockFetcher{}, runner)
	return &testEnv{store: st, listing: listing, llm: llm, pipeline: p}
}

func (e *testEnv) createLead(t *testing.T) *model.Lead {
	t.Helper()
	lead, err := e.store.CreateLead(context.Background(), model.Lead{
		Name: "Bella Napoli",
		City: "Kraków",
	})
	require.NoError(t, err)
	return lead
}

// listingPayload is a minimal realistic provider item.
const listingPayload = `{
	"title": "Bella Napoli",
	"category": "Pizzeria",
	"description": "",
	"phone": "+48 12 345 67 89",
	"url": "https://bellanapoli.pl",
	"rating": {"value": 4.2, "votes_count": 35},
	"total_photos": 12
}`
