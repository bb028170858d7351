package callagent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scranst/phoneagent/pkg/storage"
	"github.com/scranst/phoneagent/pkg/telephony/calllog"
	"github.com/scranst/phoneagent/pkg/telephony/conversation"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
	"github.com/scranst/phoneagent/pkg/telephony/vad"
)

func newTestAgent(t *testing.T) (*Agent, storage.FileStore) {
	t.Helper()
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	logs := calllog.New(fs)
	a := New(nil, "", "", nil, nil, nil, vad.Config{}, logs, fs, 0, "test-engine", nil)
	return a, fs
}

func TestFailureResultFormatsSummary(t *testing.T) {
	a, _ := newTestAgent(t)
	start := time.Now().Add(-2 * time.Second)
	res := a.failureResult("17025551234", "outgoing", "book a table", start, errors.New("dial refused"))

	if res.Success {
		t.Fatal("expected failure result to be unsuccessful")
	}
	if !strings.Contains(res.Summary, "dial refused") {
		t.Fatalf("summary missing underlying error: %q", res.Summary)
	}
	if res.Phone != "17025551234" || res.Direction != "outgoing" {
		t.Fatalf("unexpected result fields: %+v", res)
	}
	if res.DurationSeconds <= 0 {
		t.Fatalf("expected a positive duration, got %v", res.DurationSeconds)
	}
}

func TestSaveLogPersistsRecord(t *testing.T) {
	a, fs := newTestAgent(t)

	res := Result{
		Success:   true,
		Summary:   "Confirmed the appointment.",
		Phone:     "17025551234",
		Objective: "confirm the appointment",
		Direction: "outgoing",
		Transcript: []conversation.Turn{
			{Role: "user", Text: "Hi, calling to confirm"},
			{Role: "assistant", Text: "Confirmed, see you then. Goodbye!"},
		},
		DurationSeconds: 12.5,
	}
	ctxEntries := []speechadapt.ContextEntry{{Key: "business", Value: "City Dental"}}

	now := time.Now()
	a.saveLog(context.Background(), res, ctxEntries)

	// saveLog stamps the record with time.Now() internally, so probe a
	// handful of candidate filenames around the call instead of computing
	// the exact second.
	found := false
	for d := -1; d <= 1 && !found; d++ {
		path := now.Add(time.Duration(d) * time.Second).Format("log_20060102_150405.json")
		if ok, err := fs.Exists(context.Background(), path); err == nil && ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected saveLog to write a log_<timestamp>.json file")
	}
}

func TestSaveRecordingNoopWithoutStore(t *testing.T) {
	a := &Agent{}
	path := a.saveRecording(context.Background(), []byte("fake wav bytes"), time.Now())
	if path != "" {
		t.Fatalf("expected no path when recordings store is nil, got %q", path)
	}
}

func TestSaveRecordingNoopOnEmptyAudio(t *testing.T) {
	a, _ := newTestAgent(t)
	path := a.saveRecording(context.Background(), nil, time.Now())
	if path != "" {
		t.Fatalf("expected no path for empty audio, got %q", path)
	}
}
