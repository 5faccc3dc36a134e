package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tidwall/gjson"

	"github.com/familyhelper-app/console/internal/api"
)

// auditModel is the read-only support audit log list, filterable by action.
type auditModel struct {
	client *api.Client
	table  dataTable
}

func newAuditModel(client *api.Client) auditModel {
	m := auditModel{client: client}
	m.table = newDataTable("audit-logs", "action, e.g. user.lock", []string{"When", "Action", "Actor", "Target", "Details"}, m.fetchPage)
	return m
}

func (m auditModel) fetchPage(ctx context.Context, filter string, page int) (pageData, error) {
	result, err := m.client.ListAuditLogs(ctx, filter, page)
	if err != nil {
		return pageData{}, err
	}
	rows := make([]tableRow, 0, len(result.Logs))
	for _, entry := range result.Logs {
		rows = append(rows, tableRow{
			id: entry.ID,
			cells: []string{
				entry.CreatedAt,
				entry.Action,
				entry.ActorEmail,
				orDash(entry.TargetID),
				summarizeDetails(entry.Details),
			},
		})
	}
	return pageData{rows: rows, total: result.Total, totalPages: result.TotalPages, page: result.Page}, nil
}

// start issues the first page fetch, returning the model that owns the
// fetch's request id.
func (m auditModel) start() (auditModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.load(1)
	return m, cmd
}

func (m auditModel) Update(msg tea.Msg) (auditModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pageDataMsg, tea.KeyMsg:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m auditModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Audit Logs") + "\n")
	b.WriteString(m.table.View())
	return b.String()
}

// summarizeDetails flattens the free-form details JSON into "k=v" pairs for
// the table cell.
func summarizeDetails(details []byte) string {
	if len(details) == 0 || !gjson.ValidBytes(details) {
		return "-"
	}
	var pairs []string
	gjson.ParseBytes(details).ForEach(func(key, value gjson.Result) bool {
		pairs = append(pairs, key.String()+"="+value.String())
		return len(pairs) < 4
	})
	if len(pairs) == 0 {
		return "-"
	}
	return strings.Join(pairs, " ")
}
