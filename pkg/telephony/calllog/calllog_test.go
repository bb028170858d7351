package calllog

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/scranst/phoneagent/pkg/storage"
)

func TestSaveWritesOutboundFilename(t *testing.T) {
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	s := New(fs)
	ctx := context.Background()

	r := Record{
		Timestamp: time.Date(2026, 3, 4, 15, 6, 7, 0, time.UTC),
		Phone:     "17025551234",
		Direction: "outgoing",
		Objective: "confirm the reservation",
		Success:   true,
		Summary:   "Reservation confirmed for 7pm.",
		Transcript: []TranscriptTurn{
			{Role: "user", Text: "Hi, I'd like to confirm"},
			{Role: "assistant", Text: "Confirmed for 7pm."},
		},
		DurationSecs: 42.5,
		Engine:       "doubao",
	}

	path, err := s.Save(ctx, r)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != "log_20260304_150607.json" {
		t.Fatalf("unexpected path: %q", path)
	}

	rc, err := fs.Read(ctx, path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Phone != r.Phone || got.Summary != r.Summary || len(got.Transcript) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveWritesIncomingFilename(t *testing.T) {
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	s := New(fs)

	path, err := s.Save(context.Background(), Record{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Direction: "incoming",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(path, "incoming_") {
		t.Fatalf("expected incoming_ prefix, got %q", path)
	}
}
