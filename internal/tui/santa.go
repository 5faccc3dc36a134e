package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/familyhelper-app/console/internal/api"
)

type santaEventMsg struct {
	event *api.SantaEvent
	err   error
}

type santaVerifiedMsg struct {
	creds api.SantaCredentials
	err   error
}

type santaDataMsg struct {
	data *api.SantaData
	err  error
}

type santaPurchaseMsg struct {
	err error
}

// santaModel walks a participant through a Secret Santa event: the public
// summary, the email+passcode prompt, then their assignment. Participant
// credentials ride along on each call and are held only in this model.
type santaModel struct {
	client   *api.Client
	notifier Notifier
	token    string

	event *api.SantaEvent
	creds api.SantaCredentials
	data  *api.SantaData

	verified bool
	loading  bool
	err      string
	cursor   int

	emailInput    textinput.Model
	passcodeInput textinput.Model
	// focusPasscode selects which credential field has focus.
	focusPasscode bool
}

func newSantaModel(client *api.Client, notifier Notifier, token string) santaModel {
	email := textinput.New()
	email.CharLimit = 128
	email.Prompt = "  Email: "
	passcode := textinput.New()
	passcode.CharLimit = 32
	passcode.Prompt = "  Passcode: "
	passcode.EchoMode = textinput.EchoPassword
	passcode.EchoCharacter = '*'
	return santaModel{
		client:        client,
		notifier:      notifier,
		token:         token,
		emailInput:    email,
		passcodeInput: passcode,
	}
}

func (m santaModel) Init() tea.Cmd {
	return tea.Batch(m.fetchEvent, m.emailInput.Focus())
}

func (m santaModel) fetchEvent() tea.Msg {
	event, err := m.client.FetchSantaEvent(context.Background(), m.token)
	return santaEventMsg{event: event, err: err}
}

func (m santaModel) Update(msg tea.Msg) (santaModel, tea.Cmd) {
	switch msg := msg.(type) {
	case santaEventMsg:
		if msg.err != nil {
			m.err = api.UserMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.event = msg.event
		return m, nil

	case santaVerifiedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = api.UserMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.verified = true
		m.creds = msg.creds
		client := m.client
		token := m.token
		creds := msg.creds
		return m, func() tea.Msg {
			data, err := client.FetchSantaData(context.Background(), token, creds)
			return santaDataMsg{data: data, err: err}
		}

	case santaDataMsg:
		if msg.err != nil {
			m.err = api.UserMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.data = msg.data
		if m.cursor >= len(m.data.AssignedItems) {
			m.cursor = max(0, len(m.data.AssignedItems)-1)
		}
		return m, nil

	case santaPurchaseMsg:
		if msg.err != nil {
			return m, m.notifier.Error(api.UserMessage(msg.err))
		}
		client := m.client
		token := m.token
		creds := m.creds
		return m, tea.Batch(
			m.notifier.Success("Marked as purchased"),
			func() tea.Msg {
				data, err := client.FetchSantaData(context.Background(), token, creds)
				return santaDataMsg{data: data, err: err}
			},
		)

	case tea.KeyMsg:
		if !m.verified {
			return m.updateCredentials(msg)
		}
		return m.updateAssignment(msg)
	}
	return m, nil
}

func (m santaModel) updateCredentials(msg tea.KeyMsg) (santaModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusPasscode = !m.focusPasscode
		if m.focusPasscode {
			m.emailInput.Blur()
			return m, m.passcodeInput.Focus()
		}
		m.passcodeInput.Blur()
		return m, m.emailInput.Focus()
	case "enter":
		creds := api.SantaCredentials{
			Email:    strings.TrimSpace(m.emailInput.Value()),
			Passcode: strings.TrimSpace(m.passcodeInput.Value()),
		}
		if creds.Email == "" || creds.Passcode == "" {
			m.err = "Enter your email and passcode."
			return m, nil
		}
		m.loading = true
		m.err = ""
		client := m.client
		token := m.token
		return m, func() tea.Msg {
			err := client.VerifySantaCredentials(context.Background(), token, creds)
			return santaVerifiedMsg{creds: creds, err: err}
		}
	}
	var cmd tea.Cmd
	if m.focusPasscode {
		m.passcodeInput, cmd = m.passcodeInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	return m, cmd
}

func (m santaModel) updateAssignment(msg tea.KeyMsg) (santaModel, tea.Cmd) {
	items := m.assignedItems()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "p":
		if m.cursor < len(items) {
			item := items[m.cursor]
			if item.Purchased {
				return m, m.notifier.Info("Already purchased.")
			}
			client := m.client
			token := m.token
			creds := m.creds
			return m, func() tea.Msg {
				return santaPurchaseMsg{err: client.PurchaseSantaItem(context.Background(), token, item.ID, creds)}
			}
		}
	}
	return m, nil
}

func (m santaModel) assignedItems() []api.RegistryItem {
	if m.data == nil {
		return nil
	}
	return m.data.AssignedItems
}

func (m santaModel) View() string {
	var b strings.Builder

	name := "Secret Santa"
	if m.event != nil && m.event.Name != "" {
		name = m.event.Name
	}
	b.WriteString(titleStyle.Render(name) + "\n")
	if m.event != nil {
		if m.event.ExchangeDate != "" {
			b.WriteString(labelStyle.Render("Exchange date") + valueStyle.Render(m.event.ExchangeDate) + "\n")
		}
		if m.event.Budget != "" {
			b.WriteString(labelStyle.Render("Budget") + valueStyle.Render(m.event.Budget) + "\n")
		}
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("✗ "+m.err) + "\n\n")
	}

	if !m.verified {
		b.WriteString(valueStyle.Render("Enter your participant details to see your match.") + "\n\n")
		b.WriteString(m.emailInput.View() + "\n")
		b.WriteString(m.passcodeInput.View() + "\n\n")
		if m.loading {
			b.WriteString(subtitleStyle.Render("Checking…"))
		} else {
			b.WriteString(helpStyle.Render("tab switch field · enter continue"))
		}
		return sectionStyle.Render(b.String())
	}

	if m.data == nil {
		b.WriteString(subtitleStyle.Render("Loading your match…"))
		return sectionStyle.Render(b.String())
	}

	b.WriteString(labelStyle.Render("You drew") + valueStyle.Render(m.data.AssignedTo) + "\n\n")
	items := m.assignedItems()
	if len(items) == 0 {
		b.WriteString(subtitleStyle.Render("They have not added wishes yet."))
	} else {
		for i, item := range items {
			line := item.Name
			if item.Purchased {
				line += "  " + successStyle.Render("✓ purchased")
			}
			if i == m.cursor {
				b.WriteString(tableSelectedStyle.Render(line) + "\n")
			} else {
				b.WriteString(tableCellStyle.Render(line) + "\n")
			}
		}
		b.WriteString("\n" + helpStyle.Render("↑/↓ select · p purchase"))
	}
	return sectionStyle.Render(b.String())
}
