// Package calllog persists one JSON record per finished call, mirroring
// agent.py's _save_call_log: a single append-only file per call rather than
// a database, so recordings and logs can live side by side on the same
// storage backend.
package calllog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scranst/phoneagent/pkg/storage"
)

// Record is one call's outcome, the fields agent.py's log_data dict writes
// plus direction/engine per SPEC_FULL.md §4.8.
type Record struct {
	Timestamp     time.Time         `json:"timestamp"`
	Phone         string            `json:"phone"`
	Direction     string            `json:"direction"`
	Objective     string            `json:"objective"`
	Context       map[string]string `json:"context,omitempty"`
	Success       bool              `json:"success"`
	Summary       string            `json:"summary"`
	CollectedInfo map[string]string `json:"collected_info,omitempty"`
	Transcript    []TranscriptTurn  `json:"transcript"`
	RecordingPath string            `json:"recording_path,omitempty"`
	DurationSecs  float64           `json:"duration_seconds"`
	Engine        string            `json:"engine"`
}

// TranscriptTurn is one line of a call's transcript.
type TranscriptTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Store writes call records as individual JSON files under a FileStore.
type Store struct {
	files storage.FileStore
}

// New wraps a storage.FileStore as a call log Store.
func New(files storage.FileStore) *Store {
	return &Store{files: files}
}

// Save writes r to "<prefix>_<YYYYMMDD_HHMMSS>.json", where prefix is
// "log" for outbound calls and "incoming" for inbound ones, matching the
// original's filename convention.
func (s *Store) Save(ctx context.Context, r Record) (string, error) {
	prefix := "log"
	if r.Direction == "incoming" {
		prefix = "incoming"
	}
	path := fmt.Sprintf("%s_%s.json", prefix, r.Timestamp.Format("20060102_150405"))

	w, err := s.files.Write(ctx, path)
	if err != nil {
		return "", fmt.Errorf("calllog: open %s: %w", path, err)
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("calllog: encode %s: %w", path, err)
	}
	return path, nil
}
