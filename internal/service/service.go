// Package service wires the decode pipeline together: candidate replay
// entries are decoded on the worker pool, persisted, rendered, reported
// to metrics, and handed to an optional chat notifier.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/temasictfic/bfme2replaybot/internal/archive"
	"github.com/temasictfic/bfme2replaybot/internal/model"
	"github.com/temasictfic/bfme2replaybot/internal/render"
	"github.com/temasictfic/bfme2replaybot/internal/replay"
	"github.com/temasictfic/bfme2replaybot/internal/storage"
	"github.com/temasictfic/bfme2replaybot/internal/worker"
)

// maxNotifyPerBatch caps how many rendered summaries one batch may send.
const maxNotifyPerBatch = 10

// Notifier delivers one rendered match summary to a chat platform.
// name is the replay entry's filename, summary the display line.
type Notifier interface {
	NotifyMatch(ctx context.Context, name, summary string, image []byte) error
}

// Store persists decode results.
type Store interface {
	Save(ctx context.Context, rec *model.ReplayRecord) error
}

// DecodeMetrics reports decode outcomes.
type DecodeMetrics interface {
	RecordDecode(ctx context.Context, info *model.ReplayInfo, filename string, decodeTime time.Duration) error
	RecordDecodeFailure(ctx context.Context, filename, kind string) error
}

// Result is the pipeline outcome for one entry.
type Result struct {
	Name      string
	Info      *model.ReplayInfo
	Err       error
	Duplicate bool
	Notified  bool
}

// Batch summarizes one pipeline run.
type Batch struct {
	Decoded    int
	Failed     int
	Duplicates int
	Notified   int
	Results    []Result
}

// Pipeline processes batches of replay entries. Store is required;
// renderer, metrics, and notifier are optional and skipped when nil.
type Pipeline struct {
	pool     *worker.Pool
	renderer *render.Renderer
	store    Store
	metrics  DecodeMetrics
	notifier Notifier
	logger   *slog.Logger
}

// NewPipeline assembles a pipeline from its stages.
func NewPipeline(pool *worker.Pool, renderer *render.Renderer, store Store, metrics DecodeMetrics, notifier Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		pool:     pool,
		renderer: renderer,
		store:    store,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}
}

// Process runs the full pipeline over a batch of entries.
func (p *Pipeline) Process(ctx context.Context, entries []archive.Entry) Batch {
	jobs := make([]worker.Job, len(entries))
	for i, e := range entries {
		jobs[i] = worker.Job{Name: e.Name, Data: e.Data}
	}

	start := time.Now()
	decoded := p.pool.Run(ctx, jobs)
	decodeTime := time.Since(start)

	batch := Batch{Results: make([]Result, 0, len(decoded))}
	perDecode := decodeTime
	if len(decoded) > 0 {
		perDecode = decodeTime / time.Duration(len(decoded))
	}

	for i, d := range decoded {
		res := Result{Name: d.Name, Info: d.Info, Err: d.Err}

		if d.Err != nil {
			batch.Failed++
			p.logger.Info("Replay rejected", "name", d.Name, "reason", d.Err)
			if p.metrics != nil {
				_ = p.metrics.RecordDecodeFailure(ctx, d.Name, errorKind(d.Err))
			}
			batch.Results = append(batch.Results, res)
			continue
		}
		batch.Decoded++

		sum := sha256.Sum256(entries[i].Data)
		checksum := hex.EncodeToString(sum[:])

		rec, err := model.NewReplayRecord(d.Info, d.Name, checksum)
		if err != nil {
			res.Err = err
			batch.Results = append(batch.Results, res)
			continue
		}

		switch err := p.store.Save(ctx, rec); {
		case errors.Is(err, storage.ErrDuplicateReplay):
			res.Duplicate = true
			batch.Duplicates++
		case err != nil:
			res.Err = err
			p.logger.Error("Failed to store replay", "name", d.Name, "error", err)
		}

		if p.metrics != nil {
			_ = p.metrics.RecordDecode(ctx, d.Info, d.Name, perDecode)
		}

		if !res.Duplicate && res.Err == nil && batch.Notified < maxNotifyPerBatch {
			if err := p.notify(ctx, d.Name, d.Info); err != nil {
				p.logger.Error("Failed to deliver match summary", "name", d.Name, "error", err)
			} else if p.notifier != nil {
				res.Notified = true
				batch.Notified++
			}
		}

		batch.Results = append(batch.Results, res)
	}

	p.logger.Info("Batch processed",
		"entries", len(entries),
		"decoded", batch.Decoded,
		"failed", batch.Failed,
		"duplicates", batch.Duplicates,
		"notified", batch.Notified)

	return batch
}

// notify renders the map image and hands it to the notifier.
func (p *Pipeline) notify(ctx context.Context, name string, info *model.ReplayInfo) error {
	if p.notifier == nil {
		return nil
	}

	var img []byte
	if p.renderer != nil {
		var buf bytes.Buffer
		if err := p.renderer.RenderJPEG(&buf, info, name); err != nil {
			return err
		}
		img = buf.Bytes()
	}

	return p.notifier.NotifyMatch(ctx, name, Summary(name, info), img)
}

// Summary formats the one-line match summary used in notifications.
func Summary(name string, info *model.ReplayInfo) string {
	return fmt.Sprintf("%s | %s | %s | %s | %d players",
		name, info.StartDate(), info.DurationText(), info.Winner, len(info.Players))
}

// errorKind maps a decode error onto its metrics tag.
func errorKind(err error) string {
	var mapErr *replay.UnsupportedMapError
	var parseErr *replay.ParseError
	switch {
	case errors.Is(err, replay.ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, replay.ErrNoPlayers):
		return "no_players"
	case errors.As(err, &mapErr):
		return "unsupported_map"
	case errors.As(err, &parseErr):
		return "parse_error"
	default:
		return "other"
	}
}
