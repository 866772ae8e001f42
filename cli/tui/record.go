package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/icupack/runtime"
)

// RecordModel shows a decoded build record.
type RecordModel struct {
	record   *runtime.BuildRecord
	quitting bool
}

// NewRecordModel creates a record view. data must be a *runtime.BuildRecord.
func NewRecordModel(data any) RecordModel {
	rec, _ := data.(*runtime.BuildRecord)
	return RecordModel{record: rec}
}

// Init implements tea.Model.
func (m RecordModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m RecordModel) View() string {
	if m.quitting {
		return ""
	}
	return m.render() + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
}

func (m RecordModel) render() string {
	rec := m.record
	if rec == nil {
		return "Invalid data type for inspect_record"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Build Record"))
	b.WriteString("\n\n")

	flavor := string(rec.AssemblyFlavor)
	if flavor == "" {
		flavor = "(object file)"
	}
	rows := [][2]string{
		{"Build ID", rec.BuildID},
		{"Package", rec.PackageName},
		{"Entry", rec.EntryName},
		{"Mode", string(rec.Mode)},
		{"Platform", string(rec.Platform)},
		{"Assembly", flavor},
		{"Artifact", rec.ArtifactName},
		{"Archive", fmt.Sprintf("%d bytes", rec.ArchiveBytes)},
		{"SHA-256", rec.ArchiveSHA256},
		{"Fragments", fmt.Sprintf("%d", len(rec.Manifest))},
		{"Manifest SHA", rec.ManifestSHA256},
		{"Completed", rec.CompletedAt.Format("2006-01-02 15:04:05 MST")},
		{"icupack", rec.ToolVersion},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}

	if len(rec.Standalone) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Standalone:"))
		b.WriteString("\n")
		for _, name := range rec.Standalone {
			fmt.Fprintf(&b, "  • %s\n", PathStyle.Render(name))
		}
	}

	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RenderStatic renders a view without starting a program.
func RenderStatic(viewType string, data any) string {
	var view string
	switch viewType {
	case ViewInspectRecord:
		view = NewRecordModel(data).render()
	case ViewListManifest:
		m := NewManifestModel(data)
		view = m.header() + "\n" + m.body()
	default:
		view = fmt.Sprintf("Unknown view type: %s", viewType)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(view)
}
