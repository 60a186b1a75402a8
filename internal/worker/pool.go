// Package worker fans replay decoding out over a bounded goroutine
// pool. Decoding is CPU-bound and per-buffer independent, so one shared
// Decoder serves all workers.
package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/temasictfic/bfme2replaybot/internal/model"
	"github.com/temasictfic/bfme2replaybot/internal/replay"
)

// Job is one replay buffer to decode.
type Job struct {
	Name string
	Data []byte
}

// Result pairs a job with its decode outcome. Exactly one of Info and
// Err is set, except on cancellation where Err is the context error.
type Result struct {
	Name string
	Info *model.ReplayInfo
	Err  error
}

// Pool decodes batches of jobs with a fixed number of workers.
type Pool struct {
	workers int
	decoder *replay.Decoder
	logger  *slog.Logger
}

// NewPool creates a pool. A non-positive worker count falls back to 1.
func NewPool(workers int, decoder *replay.Decoder, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, decoder: decoder, logger: logger}
}

// Run decodes all jobs and returns results in job order. Pending jobs
// are staged on a queue and handed to workers one at a time; cancelling
// the context stops the dispatch, and everything still queued reports
// the context error. Already-running decodes finish.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	pending := NewQueue[int]()
	for i := range jobs {
		pending.Push(i)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				info, err := p.decoder.Decode(job.Data)
				results[i] = Result{Name: job.Name, Info: info, Err: err}
				if err != nil {
					p.logger.Debug("Replay decode failed", "name", job.Name, "error", err)
				}
			}
		}()
	}

	for {
		i, ok := pending.Pop()
		if !ok {
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			results[i] = Result{Name: jobs[i].Name, Err: ctx.Err()}
			for _, j := range pending.Drain() {
				results[j] = Result{Name: jobs[j].Name, Err: ctx.Err()}
			}
		}
	}
	close(indexes)
	wg.Wait()

	return results
}
