// Package archive extracts replay files from uploaded ZIP archives.
// Archives come from untrusted uploads, so extraction is quota-bounded:
// entry count, per-entry uncompressed size, and total uncompressed size
// are all capped before any byte is inflated.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/temasictfic/bfme2replaybot/internal/config"
)

// ReplayExtension is the replay file suffix, matched case-insensitively.
const ReplayExtension = ".bfme2replay"

// Entry is one extracted replay: the display name is the entry basename,
// not the archive path.
type Entry struct {
	Name string
	Data []byte
}

// Extract returns the replay entries of a ZIP archive, honoring the
// configured quotas. The second return is how many replay entries the
// archive contained in total, including ones skipped over quota.
func Extract(data []byte, cfg config.ArchiveConfig, logger *slog.Logger) ([]Entry, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("error opening archive: %w", err)
	}

	var entries []Entry
	var total int
	var totalBytes int64

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ReplayExtension) {
			continue
		}
		total++

		if len(entries) >= cfg.MaxReplays {
			continue
		}
		if int64(f.UncompressedSize64) > cfg.MaxEntrySize {
			logger.Warn("Skipping oversized replay entry",
				"entry", f.Name, "size", f.UncompressedSize64)
			continue
		}
		if totalBytes+int64(f.UncompressedSize64) > cfg.MaxTotalSize {
			logger.Warn("Archive total size quota reached", "entry", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, total, fmt.Errorf("error opening entry %s: %w", f.Name, err)
		}

		// The declared size is attacker-controlled; cap the actual read.
		buf, err := io.ReadAll(io.LimitReader(rc, cfg.MaxEntrySize+1))
		rc.Close()
		if err != nil {
			return nil, total, fmt.Errorf("error reading entry %s: %w", f.Name, err)
		}
		if int64(len(buf)) > cfg.MaxEntrySize {
			logger.Warn("Skipping replay entry larger than declared", "entry", f.Name)
			continue
		}

		totalBytes += int64(len(buf))
		entries = append(entries, Entry{
			Name: path.Base(f.Name),
			Data: buf,
		})
	}

	return entries, total, nil
}

// IsReplayFile reports whether a filename looks like a single replay.
func IsReplayFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ReplayExtension)
}

// IsArchiveFile reports whether a filename looks like a ZIP archive.
func IsArchiveFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}
