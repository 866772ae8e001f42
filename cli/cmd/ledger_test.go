package cmd

import (
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	icupacklode "github.com/justapithecus/icupack/lode"
)

func seedLedger(t *testing.T, root string, entries ...icupacklode.LedgerEntry) {
	t.Helper()
	ledger, err := icupacklode.NewLedger(lode.NewFSFactory(root))
	if err != nil {
		t.Fatalf("NewLedger() error: %v", err)
	}
	for _, e := range entries {
		if err := ledger.Append(t.Context(), e); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
}

func TestLedger_Latest(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	seedLedger(t, root,
		icupacklode.LedgerEntry{BuildID: "b-1", Package: "icudt", Platform: "linux", Mode: "release", Outcome: "success", State: "emitted", CompletedAt: at},
		icupacklode.LedgerEntry{BuildID: "b-2", Package: "testdata", Platform: "linux", Mode: "testdata", Outcome: "success", State: "finalized", CompletedAt: at.Add(time.Minute)},
	)

	tests := []struct {
		name   string
		args   []string
		wantID string
	}{
		{"any package", nil, "b-2"},
		{"filtered", []string{"--package", "icudt"}, "b-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"ledger", "--format", "json", "--publish-backend", "fs", "--publish-path", root}, tt.args...)
			stdout, stderr, code := runApp(t, args...)
			if code != 0 {
				t.Fatalf("exit = %d, stderr = %s", code, stderr)
			}
			var got icupacklode.LedgerEntry
			if err := json.Unmarshal([]byte(stdout), &got); err != nil {
				t.Fatalf("decode output: %v\n%s", err, stdout)
			}
			if got.BuildID != tt.wantID {
				t.Errorf("build_id = %q, want %q", got.BuildID, tt.wantID)
			}
			if stderr != "" {
				t.Errorf("unexpected stderr for successful build: %s", stderr)
			}
		})
	}
}

func TestLedger_WarnsOnFailedBuild(t *testing.T) {
	root := t.TempDir()
	seedLedger(t, root, icupacklode.LedgerEntry{
		BuildID:     "b-9",
		Package:     "icudt",
		Platform:    "linux",
		Mode:        "release",
		Outcome:     "tool_error",
		State:       "failed",
		FailedStage: "archive",
		ExitCode:    7,
		CompletedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	})

	stdout, stderr, code := runApp(t, "ledger", "--format", "json", "--publish-backend", "fs", "--publish-path", root)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, `"failed_stage": "archive"`) {
		t.Errorf("stdout missing failed_stage:\n%s", stdout)
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(stderr)), &line); err != nil {
		t.Fatalf("decode warning: %v\n%s", err, stderr)
	}
	if line["level"] != "warn" {
		t.Errorf("level = %v, want warn", line["level"])
	}
	if line["message"] != "latest build ended tool_error with exit code 7" {
		t.Errorf("message = %v", line["message"])
	}
	if line["stage"] != "archive" || line["build_id"] != "b-9" {
		t.Errorf("context = %v", line)
	}
}

// runLedger runs the ledger command and returns its error so exit
// messages can be checked.
func runLedger(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.App{
		Name:           "icupack",
		Writer:         io.Discard,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands:       []*cli.Command{LedgerCommand()},
	}
	return app.Run(append([]string{"icupack", "ledger"}, args...))
}

func TestLedger_Errors(t *testing.T) {
	empty := t.TempDir()
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no backend", nil, 2, "--publish-backend is required"},
		{"bad backend", []string{"--publish-backend", "gcs", "--publish-path", empty}, 2, "unknown publish backend"},
		{"empty ledger", []string{"--publish-backend", "fs", "--publish-path", empty}, 1, "no builds recorded"},
		{"empty package", []string{"--publish-backend", "fs", "--publish-path", empty, "--package", "icudt"}, 1, "no builds recorded for package icudt"},
		{"tui rejected", []string{"--tui", "--publish-backend", "fs", "--publish-path", empty}, 1, "--tui is not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			err := runLedger(t, tt.args...)
			if code := exitCodeOf(err); code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
