package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
		{"invalid with message", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	data := map[string]string{"package": "icudt"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"package"`) || !strings.Contains(got, `"icudt"`) {
		t.Errorf("JSON output missing expected content: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	data := map[string]string{"package": "icudt"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "package:") || !strings.Contains(got, "icudt") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type platformView struct {
		Platform string   `json:"platform"`
		Flavor   string   `json:"assembly_flavor"`
		Files    []string `json:"standalone"`
		Built    time.Time
	}

	data := &platformView{
		Platform: "darwin",
		Flavor:   "gcc-darwin",
		Files:    []string{"zoneinfo64.res", "nam.typ"},
		Built:    time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"platform:", "darwin", "assembly_flavor:", "gcc-darwin", "[2 items]", "built:", "2026-03-04T05:06:07Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type tool struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	data := []tool{
		{Name: "pkgdata", Path: "/icu/bin/pkgdata"},
		{Name: "genccode", Path: "/icu/bin/genccode"},
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "name") || !strings.Contains(got, "path") {
		t.Errorf("table output missing headers: %s", got)
	}
	if !strings.Contains(got, "/icu/bin/pkgdata") || !strings.Contains(got, "/icu/bin/genccode") {
		t.Errorf("table output missing rows: %s", got)
	}
}

func TestRenderer_Table_Lines(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render([]string{"brkitr/char.brk", "coll/root.res"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got, want := buf.String(), "brkitr/char.brk\ncoll/root.res\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderer_Table_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render([]string{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty slice should show '(no results)', got: %s", buf.String())
	}
}

func TestRenderer_NoColor_DoesNotAffectJSON(t *testing.T) {
	var bufColor, bufNoColor bytes.Buffer

	data := map[string]string{"platform": "linux"}
	if err := NewRendererWithWriter(FormatJSON, false, &bufColor).Render(data); err != nil {
		t.Fatalf("Render with color failed: %v", err)
	}
	if err := NewRendererWithWriter(FormatJSON, true, &bufNoColor).Render(data); err != nil {
		t.Fatalf("Render without color failed: %v", err)
	}
	if bufColor.String() != bufNoColor.String() {
		t.Errorf("--no-color should not affect JSON output")
	}
}

func TestRenderer_RenderTUI_Unsupported(t *testing.T) {
	r := NewRendererWithWriter(FormatJSON, false, &bytes.Buffer{})
	if err := r.RenderTUI("platform", nil); err == nil {
		t.Fatal("expected error for unsupported TUI view")
	}
}
