package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// noticeMsg raises a dismissible banner at the top of the console.
type noticeMsg struct {
	kind noticeKind
	text string
}

// noticeExpiredMsg clears a banner after its display window. The id matches
// the banner it was scheduled for so a newer banner is not cleared early.
type noticeExpiredMsg struct {
	id int
}

// Notifier raises user-visible notifications. It is passed explicitly to the
// screens that need one; there is no package-level notification hook.
type Notifier interface {
	Info(text string) tea.Cmd
	Success(text string) tea.Cmd
	Warning(text string) tea.Cmd
	Error(text string) tea.Cmd
}

// msgNotifier emits notices as bubbletea messages consumed by the root model.
type msgNotifier struct{}

func (msgNotifier) Info(text string) tea.Cmd    { return notice(noticeInfo, text) }
func (msgNotifier) Success(text string) tea.Cmd { return notice(noticeSuccess, text) }
func (msgNotifier) Warning(text string) tea.Cmd { return notice(noticeWarning, text) }
func (msgNotifier) Error(text string) tea.Cmd   { return notice(noticeError, text) }

func notice(kind noticeKind, text string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{kind: kind, text: text}
	}
}

// banner is the root model's current notice, if any.
type banner struct {
	kind noticeKind
	text string
	id   int
}

// show replaces the current banner and schedules its expiry.
func (b *banner) show(msg noticeMsg) tea.Cmd {
	b.kind = msg.kind
	b.text = msg.text
	b.id++
	id := b.id
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// expire clears the banner when the expiry matches the banner shown.
func (b *banner) expire(msg noticeExpiredMsg) {
	if msg.id == b.id {
		b.text = ""
	}
}

// render returns the banner line, or "" when nothing is shown.
func (b *banner) render() string {
	if b.text == "" {
		return ""
	}
	prefix := "i "
	switch b.kind {
	case noticeSuccess:
		prefix = "✓ "
	case noticeWarning:
		prefix = "! "
	case noticeError:
		prefix = "✗ "
	}
	return noticeStyle(b.kind).Render(prefix + b.text)
}
