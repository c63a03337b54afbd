// Package artifact persists run results: a timestamped JSON document on
// local disk, optionally mirrored to S3.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/statementworks/folio/internal/pipeline"
)

// Writer writes run documents under a local directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.With().Str("service", "artifact").Logger(),
	}
}

// Filename builds the artifact name for a run. Timestamps sort
// lexicographically so directory listings read chronologically.
func Filename(generatedAt time.Time, runID string) string {
	return fmt.Sprintf("portfolio_%s_%s.json", generatedAt.UTC().Format("20060102T150405Z"), runID)
}

// Write persists one result and returns the path it landed at. The write
// goes through a temp file and rename so a crash never leaves a partial
// document behind.
func (w *Writer) Write(result *pipeline.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run document: %w", err)
	}

	path := filepath.Join(w.dir, Filename(result.GeneratedAt, result.RunID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize run document: %w", err)
	}

	w.log.Info().Str("path", path).Int("bytes", len(data)).Msg("Run document written")
	return path, nil
}
