package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/temasictfic/bfme2replaybot/internal/archive"
	"github.com/temasictfic/bfme2replaybot/internal/config"
	"github.com/temasictfic/bfme2replaybot/internal/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <path>...

Decodes BFME2 replay files and archives, stores the results, and writes
rendered match images. Paths may be .bfme2replay files or .zip archives.

Flags:
`, AppName)
	flag.PrintDefaults()
}

// runPaths processes each input path and returns the process exit code:
// zero when at least one replay decoded and nothing failed to load.
func runPaths(ctx context.Context, pipeline *service.Pipeline, paths []string, logger *slog.Logger) int {
	var entries []archive.Entry
	loadFailed := false

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read input", "path", path, "error", err)
			loadFailed = true
			continue
		}

		switch {
		case archive.IsArchiveFile(path):
			extracted, total, err := archive.Extract(data, config.GetArchiveConfig(), logger)
			if err != nil {
				logger.Error("Failed to extract archive", "path", path, "error", err)
				loadFailed = true
				continue
			}
			logger.Info("Archive extracted", "path", path,
				"replays", total, "accepted", len(extracted))
			entries = append(entries, extracted...)
		case archive.IsReplayFile(path):
			entries = append(entries, archive.Entry{
				Name: filepath.Base(path),
				Data: data,
			})
		default:
			logger.Warn("Skipping unrecognized file", "path", path)
		}
	}

	if len(entries) == 0 {
		logger.Error("No replay entries to process")
		return 1
	}

	batch := pipeline.Process(ctx, entries)
	printBatch(batch)

	if loadFailed || batch.Decoded == 0 {
		return 1
	}
	return 0
}

// printBatch writes the per-entry outcome table to stdout.
func printBatch(batch service.Batch) {
	for _, res := range batch.Results {
		switch {
		case res.Err != nil:
			fmt.Printf("REJECTED  %-40s %v\n", res.Name, res.Err)
		case res.Duplicate:
			fmt.Printf("DUPLICATE %-40s already stored\n", res.Name)
		default:
			fmt.Printf("OK        %s\n", service.Summary(res.Name, res.Info))
		}
	}
	fmt.Printf("\n%d decoded, %d failed, %d duplicates, %d notified\n",
		batch.Decoded, batch.Failed, batch.Duplicates, batch.Notified)
}

// fileNotifier writes rendered match images to a local directory. It
// stands in for a chat-platform notifier in CLI mode.
type fileNotifier struct {
	dir    string
	logger *slog.Logger
}

func (n *fileNotifier) NotifyMatch(_ context.Context, name, _ string, image []byte) error {
	if len(image) == 0 {
		return nil
	}
	if err := os.MkdirAll(n.dir, 0755); err != nil {
		return fmt.Errorf("error creating render dir: %w", err)
	}

	path := filepath.Join(n.dir, name+".jpg")
	if err := os.WriteFile(path, image, 0644); err != nil {
		return fmt.Errorf("error writing render: %w", err)
	}

	n.logger.Debug("Match image written", "path", path)
	return nil
}
