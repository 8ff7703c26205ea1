// Package dataforseo provides a client for the DataForSEO API: business
// listing data, listing activity posts (async task pair), keyword search
// volume, and maps search rankings.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL     = "https://api.dataforseo.com"
	defaultLocation    = "Poland"
	defaultLanguage    = "Polish"
	defaultSearchDepth = 20
)

// ErrNotFound is returned when the provider answers successfully but
// has no listing for the query. It is a distinct, non-exceptional
// outcome and must not be conflated with transport or API failures.
var ErrNotFound = eris.New("dataforseo: no results for query")

// Client defines the DataForSEO operations used by the pipeline.
type Client interface {
	// BusinessInfo fetches the live business listing for a query and
	// returns the first raw item. Returns ErrNotFound on zero items.
	BusinessInfo(ctx context.Context, keyword string) (json.RawMessage, error)

	// SubmitPostsTask creates an async listing-posts task and returns
	// its task id for polling.
	SubmitPostsTask(ctx context.Context, keyword string) (string, error)

	// GetPostsTask polls a posts task. The returned state is Ready,
	// InProgress, or Failed; Items is populated only when Ready.
	GetPostsTask(ctx context.Context, taskID string) (*PostsTask, error)

	// KeywordSuggestions returns up to limit related phrases and their
	// monthly search volumes, seeded by the given phrase.
	KeywordSuggestions(ctx context.Context, seed string, limit int) ([]KeywordVolume, error)

	// SearchRankings runs a maps search and returns the ranked results.
	SearchRankings(ctx context.Context, keyword, location string) ([]SearchResult, error)
}

// TaskState is the tri-state outcome of polling an async task.
type TaskState string

const (
	TaskReady      TaskState = "ready"
	TaskInProgress TaskState = "in_progress"
	TaskFailed     TaskState = "failed"
)

// DataForSEO task status codes: 20000 is done, 40601/40602 are
// "in queue"/"in progress", anything else is a failure.
const (
	statusTaskDone       = 20000
	statusTaskInProgress = 40601
	statusTaskInQueue    = 40602
)

// PostsTask is the polled state of a listing-posts task.
type PostsTask struct {
	State TaskState
	Items []json.RawMessage
}

// KeywordVolume pairs a phrase with its monthly search volume. Volume
// is nil when the provider has no number for the phrase.
type KeywordVolume struct {
	Phrase        string
	MonthlyVolume *int
}

// SearchResult is a single ranked maps search hit. Identifier is the
// listing's stable id as a string; the provider returns it as either a
// number or a string, so it is normalized here.
type SearchResult struct {
	Identifier string
	Title      string
	Rank       int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocale overrides the default location and language names.
func WithLocale(location, language string) Option {
	return func(c *httpClient) {
		c.location = location
		c.language = language
	}
}

// WithSearchDepth overrides how many SERP results a rankings query
// requests.
func WithSearchDepth(depth int) Option {
	return func(c *httpClient) {
		if depth > 0 {
			c.searchDepth = depth
		}
	}
}

type httpClient struct {
	login       string
	password    string
	baseURL     string
	location    string
	language    string
	searchDepth int
	http        *http.Client
}

// NewClient creates a DataForSEO client with basic-auth credentials.
func NewClient(login, password string, opts ...Option) Client {
	c := &httpClient{
		login:       login,
		password:    password,
		baseURL:     defaultBaseURL,
		location:    defaultLocation,
		language:    defaultLanguage,
		searchDepth: defaultSearchDepth,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// apiResponse is the generic DataForSEO envelope.
type apiResponse struct {
	StatusCode int       `json:"status_code"`
	Tasks      []apiTask `json:"tasks"`
}

type apiTask struct {
	ID            string      `json:"id"`
	StatusCode    int         `json:"status_code"`
	StatusMessage string      `json:"status_message"`
	Result        []apiResult `json:"result"`
}

type apiResult struct {
	Items []json.RawMessage `json:"items"`
}

// call POSTs (or GETs, with a nil payload) and decodes the envelope.
func (c *httpClient) call(ctx context.Context, method, path string, payload any) (*apiResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "dataforseo: marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, eris.Wrapf(err, "dataforseo: create request %s", path)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "dataforseo: send request %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "dataforseo: read response %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dataforseo: %s: unexpected status %d: %s", path, resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrapf(err, "dataforseo: unmarshal response %s", path)
	}
	return &result, nil
}

// firstTask returns the first task of the envelope or an error when
// the provider returned an empty task list.
func (r *apiResponse) firstTask(path string) (*apiTask, error) {
	if len(r.Tasks) == 0 {
		return nil, eris.Errorf("dataforseo: %s: empty task list", path)
	}
	return &r.Tasks[0], nil
}

func (c *httpClient) BusinessInfo(ctx context.Context, keyword string) (json.RawMessage, error) {
	const path = "/v3/business_data/google/my_business_info/live"
	resp, err := c.call(ctx, http.MethodPost, path, []map[string]any{{
		"keyword":       keyword,
		"location_name": c.location,
		"language_name": c.language,
	}})
	if err != nil {
		return nil, err
	}

	task, err := resp.firstTask(path)
	if err != nil {
		return nil, err
	}
	if task.StatusCode != statusTaskDone {
		return nil, eris.Errorf("dataforseo: business info: task status %d: %s", task.StatusCode, task.StatusMessage)
	}
	if len(task.Result) == 0 || len(task.Result[0].Items) == 0 {
		return nil, ErrNotFound
	}
	return task.Result[0].Items[0], nil
}

func (c *httpClient) SubmitPostsTask(ctx context.Context, keyword string) (string, error) {
	const path = "/v3/business_data/google/my_business_updates/task_post"
	resp, err := c.call(ctx, http.MethodPost, path, []map[string]any{{
		"keyword":       keyword,
		"location_name": c.location,
		"language_name": c.language,
		"depth":         10,
	}})
	if err != nil {
		return "", err
	}

	task, err := resp.firstTask(path)
	if err != nil {
		return "", err
	}
	if task.ID == "" {
		return "", eris.Errorf("dataforseo: posts task_post: missing task id (status %d)", task.StatusCode)
	}
	return task.ID, nil
}

func (c *httpClient) GetPostsTask(ctx context.Context, taskID string) (*PostsTask, error) {
	path := "/v3/business_data/google/my_business_updates/task_get/" + taskID
	resp, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	task, err := resp.firstTask(path)
	if err != nil {
		return nil, err
	}

	switch task.StatusCode {
	case statusTaskDone:
		out := &PostsTask{State: TaskReady}
		if len(task.Result) > 0 {
			out.Items = task.Result[0].Items
		}
		return out, nil
	case statusTaskInProgress, statusTaskInQueue:
		return &PostsTask{State: TaskInProgress}, nil
	default:
		return &PostsTask{State: TaskFailed}, nil
	}
}

func (c *httpClient) KeywordSuggestions(ctx context.Context, seed string, limit int) ([]KeywordVolume, error) {
	const path = "/v3/keywords_data/google_ads/keywords_for_keywords/live"
	resp, err := c.call(ctx, http.MethodPost, path, []map[string]any{{
		"keywords":      []string{seed},
		"location_name": c.location,
		"language_name": c.language,
	}})
	if err != nil {
		return nil, err
	}

	task, err := resp.firstTask(path)
	if err != nil {
		return nil, err
	}
	if task.StatusCode != statusTaskDone {
		return nil, eris.Errorf("dataforseo: keyword suggestions: task status %d: %s", task.StatusCode, task.StatusMessage)
	}

	var out []KeywordVolume
	for _, res := range task.Result {
		for _, raw := range res.Items {
			var item struct {
				Keyword      string `json:"keyword"`
				SearchVolume *int   `json:"search_volume"`
			}
			if err := json.Unmarshal(raw, &item); err != nil || item.Keyword == "" {
				continue
			}
			out = append(out, KeywordVolume{Phrase: item.Keyword, MonthlyVolume: item.SearchVolume})
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (c *httpClient) SearchRankings(ctx context.Context, keyword, location string) ([]SearchResult, error) {
	const path = "/v3/serp/google/maps/live/advanced"
	loc := location
	if loc == "" {
		loc = c.location
	}
	resp, err := c.call(ctx, http.MethodPost, path, []map[string]any{{
		"keyword":       keyword,
		"location_name": loc,
		"language_name": c.language,
		"depth":         c.searchDepth,
	}})
	if err != nil {
		return nil, err
	}

	task, err := resp.firstTask(path)
	if err != nil {
		return nil, err
	}
	if task.StatusCode != statusTaskDone {
		return nil, eris.Errorf("dataforseo: search rankings: task status %d: %s", task.StatusCode, task.StatusMessage)
	}

	var out []SearchResult
	for _, res := range task.Result {
		for _, raw := range res.Items {
			if item, ok := parseSearchItem(raw); ok {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

// parseSearchItem decodes a maps result item, normalizing the cid to a
// string. json.Number keeps full precision for 64-bit listing ids that
// would otherwise be mangled by float64 decoding.
func parseSearchItem(raw json.RawMessage) (SearchResult, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item map[string]any
	if err := dec.Decode(&item); err != nil {
		return SearchResult{}, false
	}

	out := SearchResult{}
	switch cid := item["cid"].(type) {
	case string:
		out.Identifier = cid
	case json.Number:
		out.Identifier = cid.String()
	}
	out.Title, _ = item["title"].(string)
	if rank, ok := item["rank_absolute"].(json.Number); ok {
		if n, err := rank.Int64(); err == nil {
			out.Rank = int(n)
		}
	}
	if out.Title == "" && out.Identifier == "" {
		return SearchResult{}, false
	}
	return out, true
}
