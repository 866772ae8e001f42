package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	// Must not exit on nil.
	exitErrHandler(nil, nil)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "config error with message",
			err:      cli.Exit("--src-dir is required", 2),
			wantCode: 2,
			wantMsg:  "--src-dir is required",
		},
		{
			name:     "tool exit code without message",
			err:      cli.Exit("", 7),
			wantCode: 7,
			wantMsg:  "",
		},
		{
			name:     "timeout",
			err:      cli.Exit("", 124),
			wantCode: 124,
		},
		{
			name:     "wrapped exit coder",
			err:      errors.Join(errors.New("context"), cli.Exit("inner error", 42)),
			wantCode: 42,
			wantMsg:  "inner error",
		},
		{
			name:     "regular error",
			err:      errors.New("boom"),
			wantCode: 1,
			wantMsg:  "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitStatus(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	want := []string{"build", "testdata", "list", "inspect", "ledger", "platform", "version"}
	if len(app.Commands) != len(want) {
		t.Fatalf("got %d commands, want %d", len(app.Commands), len(want))
	}
	for i, name := range want {
		if app.Commands[i].Name != name {
			t.Errorf("command[%d] = %q, want %q", i, app.Commands[i].Name, name)
		}
	}
}
