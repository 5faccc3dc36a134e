package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/familyhelper-app/console/internal/buildinfo"
	"github.com/familyhelper-app/console/internal/routes"
)

// homeModel is the landing screen inside the drawer: a short orientation
// panel with the version and the navigable sections.
type homeModel struct{}

func newHomeModel() homeModel {
	return homeModel{}
}

func (m homeModel) Init() tea.Cmd {
	return nil
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	return m, nil
}

func (m homeModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Family Helper Console") + "\n")
	b.WriteString(labelStyle.Render("Version") + valueStyle.Render(buildinfo.Version) + "\n\n")
	b.WriteString(valueStyle.Render("Sections") + "\n")
	for i, r := range routes.DrawerEntries() {
		b.WriteString(subtitleStyle.Render("  "+string(rune('1'+i))+" · "+r.Title) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("press a number or use tab to switch sections · q quit"))
	return sectionStyle.Render(b.String())
}
