package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// recordingFetcher captures fetch arguments and returns canned pages.
type recordingFetcher struct {
	mu    sync.Mutex
	calls []struct {
		filter string
		page   int
	}
}

func (f *recordingFetcher) fetch(ctx context.Context, filter string, page int) (pageData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, struct {
		filter string
		page   int
	}{filter, page})
	f.mu.Unlock()
	return pageData{
		rows:       []tableRow{{id: "r1", cells: []string{"row of page " + string(rune('0'+page))}}},
		total:      40,
		totalPages: 2,
		page:       page,
	}, nil
}

func (f *recordingFetcher) lastCall() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return "", 0
	}
	last := f.calls[len(f.calls)-1]
	return last.filter, last.page
}

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDataTableFilterCommitFetchesPageOne(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{}
	table := newDataTable("users", "search", []string{"Email"}, fetcher.fetch)

	table, _ = table.Update(keyMsg("/"))
	if !table.filtering {
		t.Fatal("expected filter mode")
	}
	for _, r := range "jane" {
		table, _ = table.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	table, cmd := table.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("commit did not trigger a fetch")
	}
	if msg := cmd(); msg != nil {
		table, _ = table.Update(msg)
	}

	filter, page := fetcher.lastCall()
	if filter != "jane" || page != 1 {
		t.Fatalf("fetch(%q, %d), want (jane, 1)", filter, page)
	}
}

func TestDataTablePaginationReplacesRows(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{}
	table := newDataTable("users", "search", []string{"Email"}, fetcher.fetch)

	table, cmd := table.load(1)
	table, _ = table.Update(cmd())

	table, cmd = table.Update(keyMsg("right"))
	if cmd == nil {
		t.Fatal("page forward did not trigger a fetch")
	}
	table, _ = table.Update(cmd())

	if _, page := fetcher.lastCall(); page != 2 {
		t.Fatalf("fetched page %d, want 2", page)
	}
	if table.page != 2 {
		t.Errorf("table.page = %d, want 2", table.page)
	}
	if len(table.rows) != 1 || !strings.Contains(table.rows[0].cells[0], "page 2") {
		t.Errorf("rows = %+v, want replaced with page 2 set", table.rows)
	}

	// Past the last page, no fetch issues.
	if _, cmd = table.Update(keyMsg("right")); cmd != nil {
		t.Error("fetch issued past the last page")
	}
}

func TestDataTableStaleResponseIgnored(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{}
	table := newDataTable("users", "search", []string{"Email"}, fetcher.fetch)

	// Two overlapping fetches: page 1 resolves after page 2 was requested.
	table, cmd1 := table.load(1)
	staleMsg := cmd1().(pageDataMsg)

	table, cmd2 := table.load(2)
	freshMsg := cmd2().(pageDataMsg)

	table, _ = table.Update(freshMsg)
	table, _ = table.Update(staleMsg)

	if table.page != 2 {
		t.Fatalf("page = %d; stale page-1 response clobbered the fresher fetch", table.page)
	}
	if !strings.Contains(table.rows[0].cells[0], "page 2") {
		t.Errorf("rows = %+v, want page 2 rows kept", table.rows)
	}
}

func TestPadFitsMultibyteCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		width int
	}{
		{"ascii overflow", "charlotte@example.com", 12},
		{"accented at the boundary", "Zoë Müllerová", 8},
		{"cyrillic", "Екатерина Петрова", 10},
		{"wide characters", "山田花子のウィッシュリスト", 9},
		{"short value padded", "Ana", 10},
		{"width one", "Ána", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := pad(tt.in, tt.width)
			if !utf8.ValidString(got) {
				t.Fatalf("pad(%q, %d) = %q, not valid UTF-8", tt.in, tt.width, got)
			}
			if w := runewidth.StringWidth(got); w > tt.width {
				t.Errorf("pad(%q, %d) renders %d cells wide", tt.in, tt.width, w)
			}
		})
	}
}

func TestDataTableIgnoresOtherTablesResponses(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{}
	table := newDataTable("users", "search", []string{"Email"}, fetcher.fetch)
	table, cmd := table.load(1)
	msg := cmd().(pageDataMsg)
	msg.table = "audit-logs"

	table, _ = table.Update(msg)
	if len(table.rows) != 0 {
		t.Errorf("rows = %+v, want foreign response ignored", table.rows)
	}
	if !table.loading {
		t.Error("loading flag cleared by a foreign response")
	}
}
