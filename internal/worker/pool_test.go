package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temasictfic/bfme2replaybot/internal/replay"
)

func testPool(workers int) *Pool {
	decoder := replay.NewDecoder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewPool(workers, decoder, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPool_ResultsInJobOrder(t *testing.T) {
	jobs := []Job{
		{Name: "a.bfme2replay", Data: []byte("not a replay")},
		{Name: "b.bfme2replay", Data: []byte("also not")},
		{Name: "c.bfme2replay", Data: nil},
	}

	results := testPool(2).Run(context.Background(), jobs)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, jobs[i].Name, r.Name)
		assert.ErrorIs(t, r.Err, replay.ErrInvalidHeader)
		assert.Nil(t, r.Info)
	}
}

func TestPool_ZeroWorkersFallsBackToOne(t *testing.T) {
	results := testPool(0).Run(context.Background(), []Job{
		{Name: "x", Data: nil},
	})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = Job{Name: "n", Data: nil}
	}

	results := testPool(2).Run(ctx, jobs)
	require.Len(t, results, 50)

	// Every job has an error: either the decode error for dispatched
	// jobs or the context error for the queued remainder.
	cancelled := 0
	for _, r := range results {
		assert.Error(t, r.Err)
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	assert.Positive(t, cancelled, "queued jobs report the context error")
}

func TestPool_EmptyJobs(t *testing.T) {
	results := testPool(4).Run(context.Background(), nil)
	assert.Empty(t, results)
}
