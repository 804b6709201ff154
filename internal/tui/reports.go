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
	"github.com/sadopc/studytrackr/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	svc    Services
	width  int
	height int

	mode   reportMode
	rows   []store.DailyMinutes
	offset int // weeks or 7-day blocks back from today (0 = current)

	pomodoros   int
	pomodoroSec int64
	analytics   *dashboard.Analytics

	chart barchart.Model
}

func newReportsModel(svc Services) reportsModel {
	return reportsModel{
		svc:   svc,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	rows        []store.DailyMinutes
	pomodoros   int
	pomodoroSec int64
	analytics   *dashboard.Analytics
	err         error
}

func (r reportsModel) refresh() tea.Cmd {
	st, dash, userID := r.svc.Store, r.svc.Dashboard, r.svc.User.ID
	from, to := r.dateRange(time.Now())
	return func() tea.Msg {
		rows, err := st.DailyMinutes(userID, from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		count, secs, err := st.GetPomodoroStats(userID, from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		analytics, err := dash.Analytics(userID, dashboard.DefaultPeriodDays)
		return reportsDataMsg{rows: rows, pomodoros: count, pomodoroSec: secs, analytics: analytics, err: err}
	}
}

// dateRange returns the half-open UTC day range [from, to) on screen.
func (r reportsModel) dateRange(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportWeekly:
		first := time.Monday
		if v, _ := r.svc.Store.GetSetting("week_start"); v == "sunday" {
			first = time.Sunday
		}
		back := (int(today.Weekday()) - int(first) + 7) % 7
		start := today.AddDate(0, 0, -back-7*r.offset)
		return start, start.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*r.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return errStatus("Reports", msg.err) }
		}
		r.rows = msg.rows
		r.pomodoros = msg.pomodoros
		r.pomodoroSec = msg.pomodoroSec
		r.analytics = msg.analytics
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Filter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(max(20, r.width-8), chartHeight)

	from, to := r.dateRange(time.Now())

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)

		var values []barchart.BarValue
		for _, row := range r.rows {
			if row.Date == date {
				values = append(values, barchart.BarValue{
					Name:  row.SubjectName,
					Value: float64(row.Minutes) / 60,
					Style: dotStyle(row.SubjectColor),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange(time.Now())
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  f: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderTotals(), r.renderAnalytics(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTotals() string {
	var minutes, sessions int
	for _, row := range r.rows {
		minutes += row.Minutes
		sessions += row.SessionCount
	}
	return fmt.Sprintf("  %s %s   %s %d   %s %d (%s)",
		titleStyle.Render("Studied"), highlightStyle.Render(formatMinutes(minutes)),
		titleStyle.Render("Sessions"), sessions,
		titleStyle.Render("Pomodoros"), r.pomodoros, formatMinutes(int(r.pomodoroSec/60)),
	)
}

// renderAnalytics summarizes the trailing period regardless of the page shown.
func (r reportsModel) renderAnalytics() string {
	a := r.analytics
	if a == nil || a.TotalSessions == 0 {
		return mutedStyle.Render(fmt.Sprintf("  Last %d days: no sessions", dashboard.DefaultPeriodDays))
	}
	var quality int
	for _, q := range a.QualityTrend {
		quality += q.Quality
	}
	return mutedStyle.Render(fmt.Sprintf("  Last %d days: %d sessions on %d days, avg quality %.1f",
		a.PeriodDays, a.TotalSessions, len(a.DailyStats), float64(quality)/float64(len(a.QualityTrend))))
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.rows) == 0 {
		return mutedStyle.Render("  No study time in this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Subject", "Time", "Sessions")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
	}
	for _, row := range r.rows {
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			row.Date, colorDot(row.SubjectColor), row.SubjectName, formatMinutes(row.Minutes), row.SessionCount,
		))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	seen := make(map[int64]bool)
	var items []string
	for _, row := range r.rows {
		if seen[row.SubjectID] {
			continue
		}
		seen[row.SubjectID] = true
		items = append(items, fmt.Sprintf("%s %s", colorDot(row.SubjectColor), row.SubjectName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
