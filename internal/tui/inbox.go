package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/store"
)

const inboxLimit = 50

var notifyIcons = map[string]string{
	store.NotifyStudyReminder:    "📚",
	store.NotifyDeadlineReminder: "⏰",
	store.NotifyGoalReminder:     "🎯",
	store.NotifyAchievement:      "🏆",
}

type inboxModel struct {
	svc    Services
	width  int
	height int

	notifications []store.Notification
	unread        int
	unreadOnly    bool
	cursor        int
}

func newInboxModel(svc Services) inboxModel {
	return inboxModel{svc: svc}
}

func (m *inboxModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type inboxDataMsg struct {
	notifications []store.Notification
	unread        int
	err           error
}

func (m inboxModel) refresh() tea.Cmd {
	st, userID, unreadOnly := m.svc.Store, m.svc.User.ID, m.unreadOnly
	return func() tea.Msg {
		list, err := st.ListNotifications(userID, unreadOnly, inboxLimit)
		if err != nil {
			return inboxDataMsg{err: err}
		}
		unread, err := st.UnreadCount(userID)
		return inboxDataMsg{notifications: list, unread: unread, err: err}
	}
}

func (m inboxModel) update(msg tea.Msg) (inboxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case inboxDataMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return errStatus("Inbox", msg.err) }
		}
		m.notifications = msg.notifications
		m.unread = msg.unread
		if m.cursor >= len(m.notifications) {
			m.cursor = max(0, len(m.notifications)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.notifications)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Read), key.Matches(msg, keys.Enter):
			if m.cursor < len(m.notifications) {
				if err := m.svc.Store.MarkNotificationRead(m.notifications[m.cursor].ID); err != nil {
					return m, func() tea.Msg { return errStatus("Mark read", err) }
				}
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(m.notifications) {
				n := m.notifications[m.cursor]
				if err := m.svc.Store.DeleteNotification(n.ID); err != nil {
					return m, func() tea.Msg { return errStatus("Delete notification", err) }
				}
				return m, tea.Batch(m.refresh(), func() tea.Msg { return statusMsg{text: "Deleted " + n.Title} })
			}
		case key.Matches(msg, keys.Complete):
			if err := m.svc.Store.MarkAllNotificationsRead(m.svc.User.ID); err != nil {
				return m, func() tea.Msg { return errStatus("Mark all read", err) }
			}
			return m, m.refresh()
		case key.Matches(msg, keys.Filter):
			m.unreadOnly = !m.unreadOnly
			m.cursor = 0
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m inboxModel) view() string {
	w := m.width - 4
	showing := "all"
	if m.unreadOnly {
		showing = "unread"
	}
	header := titleStyle.Render("Inbox") +
		highlightStyle.Render(fmt.Sprintf("  %d unread", m.unread)) +
		mutedStyle.Render("  showing: "+showing)

	if len(m.notifications) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("Nothing here yet."),
		))
	}

	rows := []string{header, ""}
	for i, n := range m.notifications {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		if n.IsRead {
			style = mutedStyle
		}
		icon := notifyIcons[n.Type]
		unreadMark := " "
		if !n.IsRead {
			unreadMark = accentStyle.Render("●")
		}
		rows = append(rows,
			fmt.Sprintf("%s%s %s %s", unreadMark, style.Render(cursor+icon), style.Render(n.Title), mutedStyle.Render(ago(n.CreatedAt))),
			"      "+mutedStyle.Render(n.Message),
		)
	}

	rows = append(rows, "", mutedStyle.Render("  r: mark read  c: mark all read  d: delete  f: unread only"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// ago renders a coarse relative time.
func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Local().Format("Jan 02")
}
