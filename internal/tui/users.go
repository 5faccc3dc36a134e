package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/familyhelper-app/console/internal/api"
)

// userActionMsg reports a mutation on one user.
type userActionMsg struct {
	action string
	err    error
}

// usersModel is the support user list: searchable, paginated, with per-user
// actions (lock, support access, subscription end date).
type usersModel struct {
	client   *api.Client
	notifier Notifier
	table    dataTable

	// editingDate holds the user whose subscription end date is being
	// edited; empty means no edit in progress.
	editingDate string
	dateInput   textinput.Model
}

func newUsersModel(client *api.Client, notifier Notifier) usersModel {
	ti := textinput.New()
	ti.CharLimit = 10
	ti.Prompt = "  End date (YYYY-MM-DD): "
	m := usersModel{
		client:    client,
		notifier:  notifier,
		dateInput: ti,
	}
	m.table = newDataTable("users", "email or name", []string{"Email", "Name", "Access", "Locked", "Subscription ends"}, m.fetchPage)
	return m
}

func (m usersModel) fetchPage(ctx context.Context, filter string, page int) (pageData, error) {
	result, err := m.client.ListUsers(ctx, filter, page)
	if err != nil {
		return pageData{}, err
	}
	rows := make([]tableRow, 0, len(result.Users))
	for _, u := range result.Users {
		rows = append(rows, tableRow{
			id: u.ID,
			cells: []string{
				u.Email,
				strings.TrimSpace(u.GivenName + " " + u.FamilyName),
				yesNo(u.SupportAccess),
				yesNo(u.Locked),
				orDash(u.SubscriptionEndDate),
			},
		})
	}
	return pageData{rows: rows, total: result.Total, totalPages: result.TotalPages, page: result.Page}, nil
}

// start issues the first page fetch. The updated model must replace the old
// one so the fetch's request id is the one responses are checked against.
func (m usersModel) start() (usersModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.load(1)
	return m, cmd
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pageDataMsg:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case userActionMsg:
		if msg.err != nil {
			return m, m.notifier.Error(api.UserMessage(msg.err))
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.reload()
		return m, tea.Batch(m.notifier.Success(msg.action), cmd)

	case tea.KeyMsg:
		if m.editingDate != "" {
			return m.updateDateEdit(msg)
		}
		if m.table.filtering {
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "a":
			return m.toggleAccess()
		case "x":
			return m.toggleLock()
		case "e":
			if row, ok := m.table.selected(); ok {
				m.editingDate = row.id
				m.dateInput.SetValue(currentEndDate(row))
				return m, m.dateInput.Focus()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m usersModel) updateDateEdit(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		userID := m.editingDate
		endDate := strings.TrimSpace(m.dateInput.Value())
		m.editingDate = ""
		m.dateInput.Blur()
		if endDate != "" && !validEndDate(endDate) {
			return m, m.notifier.Warning("Use YYYY-MM-DD for the end date.")
		}
		client := m.client
		return m, func() tea.Msg {
			err := client.SetSubscriptionEndDate(context.Background(), userID, endDate)
			return userActionMsg{action: "Subscription end date updated", err: err}
		}
	case "esc":
		m.editingDate = ""
		m.dateInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m usersModel) toggleAccess() (usersModel, tea.Cmd) {
	row, ok := m.table.selected()
	if !ok {
		return m, nil
	}
	allowed := row.cells[2] != "yes"
	client := m.client
	return m, func() tea.Msg {
		err := client.SetSupportAccess(context.Background(), row.id, allowed)
		action := "Support access granted"
		if !allowed {
			action = "Support access revoked"
		}
		return userActionMsg{action: action, err: err}
	}
}

func (m usersModel) toggleLock() (usersModel, tea.Cmd) {
	row, ok := m.table.selected()
	if !ok {
		return m, nil
	}
	locked := row.cells[3] != "yes"
	client := m.client
	return m, func() tea.Msg {
		err := client.SetLocked(context.Background(), row.id, locked)
		action := "Account locked"
		if !locked {
			action = "Account unlocked"
		}
		return userActionMsg{action: action, err: err}
	}
}

func (m usersModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Users") + "\n")
	if m.editingDate != "" {
		b.WriteString(m.dateInput.View() + "\n\n")
	}
	b.WriteString(m.table.View())
	b.WriteString("\n" + helpStyle.Render("a access · x lock · e end date"))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func currentEndDate(row tableRow) string {
	if len(row.cells) < 5 || row.cells[4] == "-" {
		return ""
	}
	return row.cells[4]
}

// validEndDate accepts YYYY-MM-DD with plausible month and day parts; the
// backend does the real calendar validation.
func validEndDate(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 {
		return false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return false
	}
	return true
}
