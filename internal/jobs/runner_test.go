package jobs

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestRunner_RunsSubmittedJobs(t *testing.T) {
	r := NewRunner(context.Background(), 2)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		r.Submit("job", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	r.Wait()
	assert.Equal(t, int32(5), ran.Load())
}

func TestRunner_FailureDoesNotCancelSiblings(t *testing.T) {
	r := NewRunner(context.Background(), 0)

	var ok atomic.Bool
	r.Submit("failing", func(context.Context) error {
		return eris.New("boom")
	})
	r.Submit("healthy", func(ctx context.Context) error {
		// The runner never cancels the shared context on a sibling error.
		assert.NoError(t, ctx.Err())
		ok.Store(true)
		return nil
	})
	r.Wait()
	assert.True(t, ok.Load())
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := NewRunner(context.Background(), 1)

	r.Submit("panicking", func(context.Context) error {
		panic("unexpected")
	})
	r.Submit("after", func(context.Context) error { return nil })

	// Wait must return normally; the panic is contained in the job.
	r.Wait()
}

func TestRunner_JobsReceiveRunnerContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	r := NewRunner(ctx, 1)

	var got atomic.Value
	r.Submit("ctx", func(ctx context.Context) error {
		got.Store(ctx.Value(key{}))
		return nil
	})
	r.Wait()
	assert.Equal(t, "v", got.Load())
}
