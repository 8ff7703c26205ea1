package dataforseo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultPollAttempts = 9
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	attempts int
}

// WithPollInterval overrides the fixed sleep between polls.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollAttempts overrides the attempt budget.
func WithPollAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.attempts = n
	}
}

// PollPostsTask polls GetPostsTask at a fixed interval until the task
// is ready, fails, the attempt budget runs out, or the context expires.
// The defaults (9 attempts x 10s) give the posts provider a ~90s
// budget. Transient poll errors consume an attempt and the loop keeps
// going; an exhausted budget is a failure.
func PollPostsTask(ctx context.Context, client Client, taskID string, opts ...PollOption) ([]json.RawMessage, error) {
	cfg := pollConfig{
		interval: defaultPollInterval,
		attempts: defaultPollAttempts,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 0; attempt < cfg.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "dataforseo: poll posts task %s", taskID)
		case <-time.After(cfg.interval):
		}

		task, err := client.GetPostsTask(ctx, taskID)
		if err != nil {
			continue
		}

		switch task.State {
		case TaskReady:
			return task.Items, nil
		case TaskFailed:
			return nil, eris.Errorf("dataforseo: posts task %s failed", taskID)
		}
	}

	return nil, eris.Errorf("dataforseo: posts task %s timed out after %d attempts", taskID, cfg.attempts)
}
