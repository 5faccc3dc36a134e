package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/browser"
)

// webAppModel is the console's view of the member-facing app. The screen is
// shared with the companion mobile app, so it renders inside the device
// frame; from the terminal it links out to the hosted version.
type webAppModel struct {
	appURL string
}

func newWebAppModel(apiBaseURL string) webAppModel {
	return webAppModel{appURL: strings.TrimSuffix(apiBaseURL, "/api") + "/web-app"}
}

func (m webAppModel) Init() tea.Cmd {
	return nil
}

func (m webAppModel) Update(msg tea.Msg) (webAppModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "o" {
		url := m.appURL
		return m, func() tea.Msg {
			if err := browser.OpenURL(url); err != nil {
				log.WithError(err).Warn("could not open the app")
			}
			return nil
		}
	}
	return m, nil
}

func (m webAppModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Family Helper App") + "\n")
	b.WriteString(valueStyle.Render("This screen mirrors the mobile app experience.") + "\n")
	b.WriteString(subtitleStyle.Render(m.appURL) + "\n\n")
	b.WriteString(helpStyle.Render("o open in browser"))
	return frameStyle.Render(b.String())
}
