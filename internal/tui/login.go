package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/auth"
)

// loginDeps are the collaborators a sign-in attempt needs. openURL is
// swappable so tests do not launch a browser.
type loginDeps struct {
	provider   *auth.IdentityProvider
	store      auth.Store
	apiBaseURL string
	// redirectURI is served by the deep-link bridge.
	redirectURI string
	// callbacks delivers the authorization response captured by the bridge.
	callbacks <-chan auth.CallbackResult
	openURL   func(url string) error
}

type browserOpenedMsg struct {
	err error
}

type callbackMsg struct {
	result auth.CallbackResult
}

// loginDoneMsg ends a sign-in attempt. On success the root model re-gates
// navigation against the new session.
type loginDoneMsg struct {
	err error
}

// loginModel drives the browser sign-in flow from the terminal: open the
// provider page, wait for the captured callback, complete the exchange.
type loginModel struct {
	deps loginDeps

	flow    *auth.LoginFlow
	waiting bool
	err     string
}

func newLoginModel(deps loginDeps) loginModel {
	return loginModel{deps: deps}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if !m.waiting {
				return m.start()
			}
		case "esc":
			if m.waiting {
				m.waiting = false
				m.flow = nil
			}
		case "q":
			if !m.waiting {
				return m, tea.Quit
			}
		}
		return m, nil

	case browserOpenedMsg:
		if msg.err != nil {
			// The URL is still valid; the user can open it by hand.
			log.WithError(msg.err).Warn("could not open browser")
		}
		return m, nil

	case callbackMsg:
		if m.flow == nil {
			return m, nil
		}
		flow := m.flow
		store := m.deps.store
		return m, func() tea.Msg {
			_, err := flow.Complete(context.Background(), msg.result)
			if err != nil {
				// A half-completed exchange must not leave a partial pair.
				_ = store.Clear(context.Background())
			}
			return loginDoneMsg{err: err}
		}

	case loginDoneMsg:
		m.waiting = false
		m.flow = nil
		if msg.err != nil {
			m.err = "Sign-in failed. Please try again."
			log.WithError(msg.err).Error("sign-in failed")
		} else {
			m.err = ""
		}
		return m, nil
	}
	return m, nil
}

// start opens the provider page and begins waiting for the callback.
func (m loginModel) start() (loginModel, tea.Cmd) {
	m.flow = auth.NewLoginFlow(m.deps.provider, m.deps.store, m.deps.apiBaseURL, m.deps.redirectURI)
	m.waiting = true
	m.err = ""

	authURL := m.flow.AuthURL()
	openURL := m.deps.openURL
	callbacks := m.deps.callbacks
	return m, tea.Batch(
		func() tea.Msg {
			return browserOpenedMsg{err: openURL(authURL)}
		},
		func() tea.Msg {
			result, ok := <-callbacks
			if !ok {
				return loginDoneMsg{err: context.Canceled}
			}
			return callbackMsg{result: result}
		},
	)
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign In") + "\n")
	if m.waiting {
		b.WriteString(valueStyle.Render("Waiting for the browser sign-in to finish…") + "\n\n")
		b.WriteString(helpStyle.Render("esc cancel"))
		return sectionStyle.Render(b.String())
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("✗ "+m.err) + "\n\n")
	}
	b.WriteString(valueStyle.Render("Press enter to sign in with your Family Helper account.") + "\n")
	b.WriteString(subtitleStyle.Render("Your browser will open the sign-in page.") + "\n\n")
	b.WriteString(helpStyle.Render("enter sign in · q quit"))
	return sectionStyle.Render(b.String())
}
