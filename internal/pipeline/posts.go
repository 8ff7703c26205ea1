package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/dataforseo"
)

// countPlusDepth is the posts fetch depth. A result set this large
// means the provider hit its limit and the real count may be higher.
const countPlusDepth = 10

// runPosts is the posts sub-fetch: submit the provider task, poll it
// to completion, and write only the posts fields on the analysis. It
// runs decoupled from phase 2 and can never move the main status.
func (p *Pipeline) runPosts(ctx context.Context, lead *model.Lead, analysisID string) error {
	info, err := p.fetchPosts(ctx, lead)
	if err != nil {
		zap.L().Warn("posts fetch failed",
			zap.String("lead_id", lead.ID),
			zap.String("analysis_id", analysisID),
			zap.Error(err))
		return p.store.UpdateAnalysisPosts(ctx, analysisID, model.PostsStatusError, model.PostsInfo{})
	}
	return p.store.UpdateAnalysisPosts(ctx, analysisID, model.PostsStatusFetched, *info)
}

func (p *Pipeline) fetchPosts(ctx context.Context, lead *model.Lead) (*model.PostsInfo, error) {
	taskID, err := p.listing.SubmitPostsTask(ctx, lead.Name+" "+lead.City)
	if err != nil {
		return nil, err
	}

	items, err := dataforseo.PollPostsTask(ctx, p.listing, taskID,
		dataforseo.WithPollInterval(time.Duration(p.cfg.Posts.PollIntervalSecs)*time.Second),
		dataforseo.WithPollAttempts(p.cfg.Posts.PollAttempts),
	)
	if err != nil {
		return nil, err
	}

	info := parsePosts(items)
	return &info, nil
}

// parsePosts summarizes a post list. Post dates arrive under different
// keys depending on the endpoint generation; only the date part is
// meaningful.
func parsePosts(items []json.RawMessage) model.PostsInfo {
	if len(items) == 0 {
		return model.PostsInfo{}
	}

	info := model.PostsInfo{
		HasPosts:  true,
		Count:     len(items),
		CountPlus: len(items) >= countPlusDepth,
	}

	for _, raw := range items {
		var post map[string]any
		if err := json.Unmarshal(raw, &post); err != nil {
			continue
		}
		for _, key := range []string{"timestamp", "date_posted", "create_time"} {
			s, ok := post[key].(string)
			if !ok || len(s) < 10 {
				continue
			}
			t, err := time.Parse("2006-01-02", s[:10])
			if err != nil {
				continue
			}
			if info.LastPostDate == nil || t.After(*info.LastPostDate) {
				info.LastPostDate = &t
			}
			break
		}
	}
	return info
}
