package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/familyhelper-app/console/internal/api"
)

type registryDataMsg struct {
	registry *api.Registry
	err      error
}

type purchaseDoneMsg struct {
	err error
}

// registryModel shows a shared gift or item registry: the passcode gate when
// the owner protected it, then the item list with purchase marking.
type registryModel struct {
	client   *api.Client
	notifier Notifier
	kind     api.RegistryKind
	token    string
	shareURL string

	registry *api.Registry
	loading  bool
	err      string
	cursor   int

	passcodeInput textinput.Model

	// purchasing holds the item being marked purchased while the name
	// prompt is open.
	purchasing string
	nameInput  textinput.Model
}

func newRegistryModel(client *api.Client, notifier Notifier, kind api.RegistryKind, token, shareURL string) registryModel {
	passcode := textinput.New()
	passcode.CharLimit = 32
	passcode.Prompt = "  Passcode: "
	passcode.EchoMode = textinput.EchoPassword
	passcode.EchoCharacter = '*'

	name := textinput.New()
	name.CharLimit = 64
	name.Prompt = "  Your name: "

	return registryModel{
		client:        client,
		notifier:      notifier,
		kind:          kind,
		token:         token,
		shareURL:      shareURL,
		passcodeInput: passcode,
		nameInput:     name,
	}
}

func (m registryModel) Init() tea.Cmd {
	return m.fetch
}

func (m registryModel) fetch() tea.Msg {
	registry, err := m.client.FetchRegistry(context.Background(), m.kind, m.token)
	return registryDataMsg{registry: registry, err: err}
}

func (m registryModel) Update(msg tea.Msg) (registryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registryDataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = api.UserMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.registry = msg.registry
		if m.registry.NeedsPasscode {
			m.passcodeInput.SetValue("")
			return m, m.passcodeInput.Focus()
		}
		if m.cursor >= len(m.registry.Items) {
			m.cursor = max(0, len(m.registry.Items)-1)
		}
		return m, nil

	case purchaseDoneMsg:
		if msg.err != nil {
			return m, m.notifier.Error(api.UserMessage(msg.err))
		}
		return m, tea.Batch(m.notifier.Success("Marked as purchased"), m.fetch)

	case tea.KeyMsg:
		if m.gated() {
			return m.updatePasscode(msg)
		}
		if m.purchasing != "" {
			return m.updatePurchase(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m registryModel) gated() bool {
	return m.registry != nil && m.registry.NeedsPasscode
}

func (m registryModel) updatePasscode(msg tea.KeyMsg) (registryModel, tea.Cmd) {
	if msg.String() == "enter" {
		passcode := strings.TrimSpace(m.passcodeInput.Value())
		if passcode == "" {
			return m, nil
		}
		client := m.client
		kind := m.kind
		token := m.token
		return m, func() tea.Msg {
			registry, err := client.UnlockRegistry(context.Background(), kind, token, passcode)
			return registryDataMsg{registry: registry, err: err}
		}
	}
	var cmd tea.Cmd
	m.passcodeInput, cmd = m.passcodeInput.Update(msg)
	return m, cmd
}

func (m registryModel) updatePurchase(msg tea.KeyMsg) (registryModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := m.nameInput.Value()
		itemID := m.purchasing
		m.purchasing = ""
		m.nameInput.Blur()
		if strings.TrimSpace(name) == "" {
			// Rejected before any call goes out.
			return m, m.notifier.Warning(api.UserMessage(api.ErrPurchaserNameRequired))
		}
		client := m.client
		token := m.token
		return m, func() tea.Msg {
			return purchaseDoneMsg{err: client.PurchaseItem(context.Background(), token, itemID, name)}
		}
	case "esc":
		m.purchasing = ""
		m.nameInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m registryModel) updateList(msg tea.KeyMsg) (registryModel, tea.Cmd) {
	items := m.items()
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
		if m.cursor < len(items) && m.kind == api.GiftRegistry {
			item := items[m.cursor]
			if item.Purchased {
				return m, m.notifier.Info("Already purchased by " + orDash(item.PurchaserName))
			}
			m.purchasing = item.ID
			m.nameInput.SetValue("")
			return m, m.nameInput.Focus()
		}
	case "c":
		if m.shareURL != "" {
			if err := clipboard.WriteAll(m.shareURL); err != nil {
				return m, m.notifier.Warning("Could not copy the share link.")
			}
			return m, m.notifier.Success("Share link copied")
		}
	case "r":
		m.loading = true
		return m, m.fetch
	}
	return m, nil
}

func (m registryModel) items() []api.RegistryItem {
	if m.registry == nil {
		return nil
	}
	return m.registry.Items
}

func (m registryModel) View() string {
	var b strings.Builder

	name := "Registry"
	if m.registry != nil && m.registry.Name != "" {
		name = m.registry.Name
	}
	b.WriteString(titleStyle.Render(name) + "\n")

	switch {
	case m.err != "":
		b.WriteString(errorStyle.Render("✗ " + m.err))
	case m.registry == nil:
		b.WriteString(subtitleStyle.Render("Loading…"))
	case m.gated():
		if m.registry.Message != "" {
			b.WriteString(errorStyle.Render("✗ "+m.registry.Message) + "\n")
		}
		b.WriteString(valueStyle.Render("This registry is protected.") + "\n\n")
		b.WriteString(m.passcodeInput.View() + "\n\n")
		b.WriteString(helpStyle.Render("enter submit"))
	default:
		if m.registry.OwnerName != "" {
			b.WriteString(subtitleStyle.Render("by "+m.registry.OwnerName) + "\n\n")
		}
		b.WriteString(m.renderItems())
		if m.purchasing != "" {
			b.WriteString("\n" + m.nameInput.View() + "\n")
		}
		help := "↑/↓ select · c copy link · r refresh"
		if m.kind == api.GiftRegistry {
			help = "↑/↓ select · p purchase · c copy link · r refresh"
		}
		b.WriteString("\n" + helpStyle.Render(help))
	}
	return sectionStyle.Render(b.String())
}

func (m registryModel) renderItems() string {
	items := m.items()
	if len(items) == 0 {
		return subtitleStyle.Render("No items yet.") + "\n"
	}
	var b strings.Builder
	for i, item := range items {
		line := item.Name
		if item.Description != "" {
			line += "  " + subtitleStyle.Render(item.Description)
		}
		if item.Purchased {
			line += "  " + successStyle.Render("✓ purchased")
		}
		if i == m.cursor {
			b.WriteString(tableSelectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(tableCellStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
