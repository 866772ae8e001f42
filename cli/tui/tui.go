package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// View types that support TUI mode.
const (
	ViewInspectRecord = "inspect_record"
	ViewListManifest  = "list_manifest"
)

// Run starts the TUI for viewType.
func Run(viewType string, data any) error {
	var model tea.Model
	switch viewType {
	case ViewInspectRecord:
		model = NewRecordModel(data)
	case ViewListManifest:
		model = NewManifestModel(data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// IsTUISupported reports whether viewType has a TUI.
func IsTUISupported(viewType string) bool {
	for _, v := range SupportedTUIViews() {
		if v == viewType {
			return true
		}
	}
	return false
}

// SupportedTUIViews lists the view types that support TUI mode.
func SupportedTUIViews() []string {
	return []string{ViewInspectRecord, ViewListManifest}
}
