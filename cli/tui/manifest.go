package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/icupack/manifest"
)

// headerHeight is the number of lines above the viewport.
const headerHeight = 4

// ManifestModel is a scrollable manifest listing.
type ManifestModel struct {
	listing  *manifest.Listing
	viewport viewport.Model
	ready    bool
	quitting bool
}

// NewManifestModel creates a listing view. data must be a *manifest.Listing.
func NewManifestModel(data any) ManifestModel {
	listing, _ := data.(*manifest.Listing)
	return ManifestModel{listing: listing}
}

// Init implements tea.Model.
func (m ManifestModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ManifestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-headerHeight-2, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.body())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ManifestModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.header() + "\n" + m.body()
	}
	help := HelpStyle.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll  q quit", m.viewport.ScrollPercent()*100))
	return m.header() + "\n" + m.viewport.View() + "\n" + help
}

func (m ManifestModel) header() string {
	if m.listing == nil {
		return "Invalid data type for list_manifest"
	}
	title := TitleStyle.Render("Manifest")
	info := fmt.Sprintf("%s %s\n%s %s",
		LabelStyle.Render("Root:"), ValueStyle.Render(m.listing.Root),
		LabelStyle.Render("Entries:"), ValueStyle.Render(fmt.Sprintf("%d", len(m.listing.Entries))))
	if len(m.listing.Exclude) > 0 {
		info += fmt.Sprintf("  %s %s", LabelStyle.Render("Excluding:"),
			ValueStyle.Render(strings.Join(m.listing.Exclude, ", ")))
	}
	return title + "\n" + info
}

func (m ManifestModel) body() string {
	if m.listing == nil {
		return ""
	}
	if len(m.listing.Entries) == 0 {
		return HelpStyle.Render("(no fragments)")
	}
	var b strings.Builder
	for _, entry := range m.listing.Entries {
		b.WriteString(PathStyle.Render(entry))
		b.WriteString("\n")
	}
	return b.String()
}
