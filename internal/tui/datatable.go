package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/familyhelper-app/console/internal/api"
)

// tableRow is one rendered row plus the entity id mutations act on.
type tableRow struct {
	id    string
	cells []string
}

// pageData is one fetched page in display form.
type pageData struct {
	rows       []tableRow
	total      int
	totalPages int
	page       int
}

// pageFetcher loads one page for a filter. Implementations wrap an API list
// call and convert its payload into rows.
type pageFetcher func(ctx context.Context, filter string, page int) (pageData, error)

// pageDataMsg delivers a fetched page back to its table. reqID ties the
// response to the fetch that requested it.
type pageDataMsg struct {
	table string
	reqID uint64
	data  pageData
	err   error
}

// dataTable is the shared controller behind the paginated admin screens:
// filter input, page cursor, row cursor, and fetch state. Every list screen
// follows the same fetch-filter-paginate-refetch cycle, so the cycle lives
// here once.
type dataTable struct {
	name    string
	columns []string
	fetch   pageFetcher

	filterInput textinput.Model
	filtering   bool
	// filter is the committed filter the current rows were fetched with;
	// the input may hold uncommitted edits.
	filter string

	rows       []tableRow
	total      int
	totalPages int
	page       int
	cursor     int

	loading bool
	err     string

	// reqID increments per fetch. A response whose reqID is not the most
	// recent is stale and ignored, so rapid pagination cannot clobber a
	// fresher page with an older one.
	reqID uint64

	width int
}

func newDataTable(name, placeholder string, columns []string, fetch pageFetcher) dataTable {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Prompt = "  / "
	ti.Placeholder = placeholder
	return dataTable{
		name:    name,
		columns: columns,
		fetch:   fetch,
		page:    1,

		filterInput: ti,
	}
}

// load issues a fetch for the given page with the committed filter.
func (m dataTable) load(page int) (dataTable, tea.Cmd) {
	m.reqID++
	m.loading = true
	m.err = ""
	reqID := m.reqID
	name := m.name
	filter := m.filter
	fetch := m.fetch
	return m, func() tea.Msg {
		data, err := fetch(context.Background(), filter, page)
		return pageDataMsg{table: name, reqID: reqID, data: data, err: err}
	}
}

// reload refetches the current page, used after a successful mutation.
func (m dataTable) reload() (dataTable, tea.Cmd) {
	return m.load(m.page)
}

func (m dataTable) Update(msg tea.Msg) (dataTable, tea.Cmd) {
	switch msg := msg.(type) {
	case pageDataMsg:
		if msg.table != m.name || msg.reqID != m.reqID {
			// Stale or foreign response.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = api.UserMessage(msg.err)
			return m, nil
		}
		m.rows = msg.data.rows
		m.total = msg.data.total
		m.totalPages = msg.data.totalPages
		m.page = msg.data.page
		if m.page < 1 {
			m.page = 1
		}
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter":
				m.filtering = false
				m.filterInput.Blur()
				m.filter = strings.TrimSpace(m.filterInput.Value())
				m.cursor = 0
				return m.load(1)
			case "esc":
				m.filtering = false
				m.filterInput.Blur()
				m.filterInput.SetValue(m.filter)
				return m, nil
			}
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.filtering = true
			return m, m.filterInput.Focus()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "left", "h":
			if m.page > 1 {
				m.cursor = 0
				return m.load(m.page - 1)
			}
		case "right", "l":
			if m.totalPages == 0 || m.page < m.totalPages {
				m.cursor = 0
				return m.load(m.page + 1)
			}
		case "r":
			return m.reload()
		}
	}
	return m, nil
}

// selected returns the row under the cursor.
func (m dataTable) selected() (tableRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tableRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m dataTable) View() string {
	var b strings.Builder

	if m.filtering {
		b.WriteString(m.filterInput.View() + "\n\n")
	} else if m.filter != "" {
		b.WriteString(subtitleStyle.Render("filter: "+m.filter) + "\n\n")
	}

	if m.err != "" {
		b.WriteString(errorStyle.Render("✗ "+m.err) + "\n")
		return b.String()
	}
	if m.loading && len(m.rows) == 0 {
		b.WriteString(subtitleStyle.Render("Loading…") + "\n")
		return b.String()
	}

	widths := m.columnWidths()
	header := make([]string, len(m.columns))
	for i, col := range m.columns {
		header[i] = pad(col, widths[i])
	}
	b.WriteString(tableHeaderStyle.Render(strings.Join(header, "  ")) + "\n")

	if len(m.rows) == 0 {
		b.WriteString(subtitleStyle.Render("No results.") + "\n")
	}
	for i, row := range m.rows {
		cells := make([]string, len(row.cells))
		for j, cell := range row.cells {
			w := 16
			if j < len(widths) {
				w = widths[j]
			}
			cells[j] = pad(cell, w)
		}
		line := strings.Join(cells, "  ")
		if i == m.cursor {
			b.WriteString(tableSelectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(tableCellStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + m.pager())
	return b.String()
}

func (m dataTable) pager() string {
	totalPages := m.totalPages
	if totalPages < 1 {
		totalPages = 1
	}
	status := fmt.Sprintf("page %d/%d · %d total", m.page, totalPages, m.total)
	if m.loading {
		status += " · loading…"
	}
	return statusBarStyle.Render(status) + "  " +
		helpStyle.Render("←/→ page · ↑/↓ select · / filter · r refresh")
}

// columnWidths splits the available width evenly with a floor so narrow
// terminals stay readable.
func (m dataTable) columnWidths() []int {
	n := len(m.columns)
	widths := make([]int, n)
	per := 18
	if m.width > 0 && n > 0 {
		per = (m.width - 2*n) / n
		if per < 8 {
			per = 8
		}
	}
	for i := range widths {
		widths[i] = per
	}
	return widths
}

// pad fits a cell to its column by display width, so multibyte and wide
// characters neither split mid-rune nor misalign the table.
func pad(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w > width {
		if width <= 1 {
			return runewidth.Truncate(s, width, "")
		}
		return runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-w)
}
