package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/momentum"
	"github.com/sadopc/studytrackr/internal/store"
)

const recentLimit = 5

type dashboardModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	data         *dashboard.Dashboard
	todayMinutes int
	recent       []store.StudySession
	subjects     []store.Subject

	// Subject picker state
	picking      bool
	pickerCursor int
}

func newDashboardModel(svc Services) dashboardModel {
	return dashboardModel{
		svc:   svc,
		timer: newTimerModel(svc.Store, svc.User.ID),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.timer.paused() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	data         *dashboard.Dashboard
	todayMinutes int
	recent       []store.StudySession
	subjects     []store.Subject
	err          error
}

func (d dashboardModel) loadData() tea.Cmd {
	svc := d.svc
	return func() tea.Msg {
		userID := svc.User.ID
		data, err := svc.Dashboard.Build(userID)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		today, err := svc.Store.MinutesOn(userID, time.Now())
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		recent, err := svc.Store.ListSessions(store.SessionFilter{UserID: userID, Limit: recentLimit})
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		subjects, err := svc.Store.ListSubjects(userID, false)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		return dashboardDataMsg{
			data:         data,
			todayMinutes: today,
			recent:       recent,
			subjects:     subjects,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			d.svc.Log.Error("load dashboard", "error", msg.err)
			return d, func() tea.Msg { return errStatus("Dashboard", msg.err) }
		}
		d.data = msg.data
		d.todayMinutes = msg.todayMinutes
		d.recent = msg.recent
		d.subjects = msg.subjects
		return d, nil

	case tickMsg:
		if d.timer.tick() {
			return d.stopTimer()
		}
		return d, nil

	case tea.KeyMsg:
		d.timer.recordActivity()

		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, nil
			}
			if len(d.subjects) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No subjects yet. Press 2 to go to Subjects and create one.", isError: true}
				}
			}
			if len(d.subjects) == 1 {
				return d.startTimer(d.subjects[0])
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.subjects)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		return d.startTimer(d.subjects[d.pickerCursor])
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(sub store.Subject) (dashboardModel, tea.Cmd) {
	d.timer.start(sub.ID, sub.Name)
	return d, func() tea.Msg { return timerStartedMsg{subject: sub.Name} }
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	session, err := d.timer.stop()
	if err != nil {
		d.svc.Log.Error("log timed session", "subject", d.timer.subjectID, "error", err)
		return d, func() tea.Msg { return errStatus("Could not log session", err) }
	}
	if session == nil {
		return d, func() tea.Msg { return statusMsg{text: "Under a minute, nothing logged"} }
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return sessionLoggedMsg{session: session} },
	)
}

func (d dashboardModel) subjectName(id int64) string {
	for _, s := range d.subjects {
		if s.ID == id {
			return s.Name
		}
	}
	if d.data != nil {
		for _, sh := range d.data.SubjectBreakdown {
			if sh.SubjectID == id {
				return sh.Name
			}
		}
	}
	return "?"
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	w := d.width - 4
	half := w/2 - 1

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		d.renderTimerPanel(half),
		d.renderMomentumPanel(w-half),
	)

	var bottom string
	if d.picking {
		bottom = d.renderSubjectPicker(w)
	} else {
		bottom = lipgloss.JoinHorizontal(lipgloss.Top,
			d.renderRecentPanel(half),
			d.renderUpcomingPanel(w-half),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, d.renderStatsPanel(w), bottom)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.currentElapsed())

		var timeDisplay, indicator string
		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			if d.timer.isIdle {
				indicator = warningStyle.Render("⏸  IDLE")
			} else {
				indicator = warningStyle.Render("⏸  PAUSED")
			}
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  STUDYING")
		}

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			highlightStyle.Render(d.timer.subjectName),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start studying"),
	)
	return panelStyle.Width(w).Render(content)
}

var componentLabels = []struct {
	c     momentum.Component
	label string
}{
	{momentum.Consistency, "Consistency"},
	{momentum.StudyTrend, "Study trend"},
	{momentum.GoalCompletion, "Goals"},
	{momentum.AssignmentPerformance, "Assignments"},
}

func (d dashboardModel) renderMomentumPanel(w int) string {
	title := titleStyle.Render("Momentum")
	if d.data == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Loading...")))
	}

	m := d.data.Momentum
	score := scoreStyle.Foreground(scoreColor(m.Score)).Render(fmt.Sprintf("%d", m.Score))
	trend := trendStyle(string(m.Trend)).Render(trendArrow(m.Trend) + " " + string(m.Trend))

	rows := []string{fmt.Sprintf("%s %s  %s", title, score, trend), ""}
	barWidth := max(5, min(20, w-30))
	for _, cl := range componentLabels {
		v, ok := m.Breakdown[cl.c]
		if !ok {
			continue
		}
		rows = append(rows, fmt.Sprintf("%-12s %s %3d", cl.label, progressBar(v, barWidth), v))
	}
	if len(m.Suggestions) > 0 {
		rows = append(rows, "")
		for _, s := range m.Suggestions {
			rows = append(rows, mutedStyle.Render("• "+s))
		}
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func trendArrow(t momentum.Trend) string {
	switch t {
	case momentum.Improving:
		return "▲"
	case momentum.Declining:
		return "▼"
	}
	return "■"
}

func (d dashboardModel) renderStatsPanel(w int) string {
	var streak int
	var total float64
	if d.data != nil {
		streak = d.data.Streak
		total = d.data.TotalHours
	}
	daily := d.svc.Store.GetSettingInt("daily_goal", 7200) / 60

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Streak "), highlightStyle.Render(fmt.Sprintf("%d days", streak)),
		"    ",
		titleStyle.Render("Today "), highlightStyle.Render(formatMinutes(d.todayMinutes)),
		mutedStyle.Render(fmt.Sprintf(" / %s", formatMinutes(daily))),
		"    ",
		titleStyle.Render("Total "), highlightStyle.Render(fmt.Sprintf("%.1fh", total)),
	)

	rows := []string{stats}
	if d.data != nil && len(d.data.WeeklyTrend) > 0 {
		rows = append(rows, "", d.renderWeeklyTrend(w-6))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderWeeklyTrend(w int) string {
	chart := barchart.New(max(20, w), 5)
	bars := make([]barchart.BarData, 0, len(d.data.WeeklyTrend))
	for _, day := range d.data.WeeklyTrend {
		label := day.Date
		if t, err := time.Parse("2006-01-02", day.Date); err == nil {
			label = t.Format("Mon")
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  day.Date,
				Value: float64(day.Minutes),
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		))
	}

	rows := []string{title}
	for _, ss := range d.recent {
		rows = append(rows, fmt.Sprintf("  %s  %-16s %6s  %s",
			ss.Date.Local().Format("Jan 02"),
			d.subjectName(ss.SubjectID),
			formatMinutes(ss.Duration),
			strings.Repeat("★", ss.Quality),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderUpcomingPanel(w int) string {
	title := titleStyle.Render("Coming Up")
	if d.data == nil || (len(d.data.ActiveGoals) == 0 && len(d.data.UpcomingAssignments) == 0) {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing due"),
		))
	}

	rows := []string{title}
	for _, a := range d.data.UpcomingAssignments {
		rows = append(rows, fmt.Sprintf("  %s %-20s %s",
			colorDot(a.SubjectColor),
			a.Title,
			mutedStyle.Render(a.Deadline.Local().Format("Jan 02 15:04")),
		))
	}
	for _, g := range d.data.ActiveGoals {
		rows = append(rows, fmt.Sprintf("  ◎ %-20s %s %s",
			g.Title,
			progressBar(g.Progress(), 10),
			mutedStyle.Render(g.Deadline.Local().Format("Jan 02")),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderSubjectPicker(w int) string {
	rows := []string{titleStyle.Render("Select Subject")}
	for i, s := range d.subjects {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, colorDot(s.Color), s.Name)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
