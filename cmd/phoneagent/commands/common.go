package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/scranst/phoneagent/cmd/phoneagent/internal/app"
	"github.com/scranst/phoneagent/pkg/telephony/callagent"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
)

// buildApp resolves settings/paths from the persistent flags and assembles
// an app.App, the shared entry point every call/listen/sms command uses.
func buildApp() (*app.App, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}
	paths, err := GetPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create app directory: %w", err)
	}

	return app.New(path, app.Options{
		Paths:           paths,
		InputDevice:     audioInputDevice,
		OutputDevice:    audioOutputDevice,
		MaxCallDuration: 10 * time.Minute,
	})
}

// parseContextFlags turns "key=value" flag strings into ContextEntry
// slices, preserving order (llm.py's context_str joins a Python dict in
// insertion order; speechadapt.ContextEntry is a slice for the same
// reason, so the CLI must parse left-to-right, not into a map).
func parseContextFlags(raw []string) ([]speechadapt.ContextEntry, error) {
	var entries []speechadapt.ContextEntry
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --context entry %q, want key=value", kv)
		}
		entries = append(entries, speechadapt.ContextEntry{Key: parts[0], Value: parts[1]})
	}
	return entries, nil
}

// printResult reports a finished call's outcome to stdout.
func printResult(result callagent.Result) {
	fmt.Printf("success: %v\n", result.Success)
	fmt.Printf("summary: %s\n", result.Summary)
	fmt.Printf("duration: %.1fs\n", result.DurationSeconds)
	if result.RecordingPath != "" {
		fmt.Printf("recording: %s\n", result.RecordingPath)
	}
	if result.TransferTo != "" {
		fmt.Printf("transferred to: %s\n", result.TransferTo)
	}
	fmt.Println("transcript:")
	for _, turn := range result.Transcript {
		fmt.Printf("  %s: %s\n", turn.Role, turn.Text)
	}
}
