package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/export"
	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	exportSessionsCSV = iota
	exportSessionsJSON
	exportDashboardJSON
)

var exportFormats = []string{"Sessions CSV", "Sessions JSON", "Dashboard JSON"}

// App is the root Bubble Tea model.
type App struct {
	svc    Services
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard   dashboardModel
	subjects    subjectsModel
	goals       goalsModel
	assignments assignmentsModel
	reports     reportsModel
	pomodoro    pomodoroModel
	inbox       inboxModel
	settings    settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(svc Services) App {
	if svc.Log == nil {
		svc.Log = logger.Nop()
	}
	h := help.New()
	h.ShowAll = false

	return App{
		svc:         svc,
		activeView:  viewDashboard,
		dashboard:   newDashboardModel(svc),
		subjects:    newSubjectsModel(svc),
		goals:       newGoalsModel(svc),
		assignments: newAssignmentsModel(svc),
		reports:     newReportsModel(svc),
		pomodoro:    newPomodoroModel(svc),
		inbox:       newInboxModel(svc),
		settings:    newSettingsModel(svc),
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.inbox.refresh(),
		a.pomodoro.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.subjects.setSize(a.width, contentHeight)
		a.goals.setSize(a.width, contentHeight)
		a.assignments.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.inbox.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		a.dashboard.timer.recordActivity()

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A form in the active view owns the keyboard.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}
		for i, b := range tabKeys {
			if key.Matches(msg, b) {
				return a.switchTo(viewState(i))
			}
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The study timer and the pomodoro run whatever view is shown.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		cmds = append(cmds, cmd)
		a.pomodoro, cmd = a.pomodoro.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case timerStartedMsg:
		a.setStatus("Studying "+msg.subject, false)
		return a, nil

	case sessionLoggedMsg:
		a.setStatus("Logged "+formatMinutes(msg.session.Duration), false)
		a.svc.Log.Info("session logged",
			"session", msg.session.ID,
			"subject", msg.session.SubjectID,
			"minutes", msg.session.Duration,
		)
		return a, tea.Batch(a.dashboard.loadData(), a.refreshCurrentView())

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil

	// Data messages go to their owner even if the user has moved on.
	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case subjectsDataMsg, sessionsDataMsg:
		var cmd tea.Cmd
		a.subjects, cmd = a.subjects.update(msg)
		return a, cmd
	case goalsDataMsg:
		var cmd tea.Cmd
		a.goals, cmd = a.goals.update(msg)
		return a, cmd
	case goalCompletedMsg:
		var cmd tea.Cmd
		a.goals, cmd = a.goals.update(msg)
		return a, tea.Batch(cmd, a.inbox.refresh())
	case assignmentsDataMsg:
		var cmd tea.Cmd
		a.assignments, cmd = a.assignments.update(msg)
		return a, cmd
	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	case pomodoroSubjectsMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd
	case inboxDataMsg:
		var cmd tea.Cmd
		a.inbox, cmd = a.inbox.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		a.dashboard.timer.loadSettings()
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusError = isError
}

// quit logs a running timer before leaving so no study time is lost.
func (a App) quit() tea.Cmd {
	if a.dashboard.isRunning() {
		if _, err := a.dashboard.timer.stop(); err != nil {
			a.svc.Log.Error("log session on quit", "error", err)
		}
	}
	return tea.Quit
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewSubjects:
		a.subjects, cmd = a.subjects.update(msg)
	case viewGoals:
		a.goals, cmd = a.goals.update(msg)
	case viewAssignments:
		a.assignments, cmd = a.assignments.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewInbox:
		a.inbox, cmd = a.inbox.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewSubjects:
		return a.subjects.formActive
	case viewGoals:
		return a.goals.formActive
	case viewAssignments:
		return a.assignments.formActive
	case viewSettings:
		return a.settings.formActive
	case viewDashboard:
		return a.dashboard.picking
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewSubjects:
		if a.subjects.viewingSessions {
			return tea.Batch(a.subjects.refresh(), a.subjects.refreshSessions())
		}
		return a.subjects.refresh()
	case viewGoals:
		return a.goals.refresh()
	case viewAssignments:
		return a.assignments.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewPomodoro:
		return a.pomodoro.refresh()
	case viewInbox:
		return a.inbox.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewSubjects:
		content = a.subjects.view()
	case viewGoals:
		content = a.goals.view()
	case viewAssignments:
		content = a.assignments.view()
	case viewReports:
		content = a.reports.view()
	case viewPomodoro:
		content = a.pomodoro.view()
	case viewInbox:
		content = a.inbox.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == viewInbox && a.inbox.unread > 0 {
			name = fmt.Sprintf("%s (%d)", name, a.inbox.unread)
		}
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studytrackr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		elapsed := a.dashboard.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.dashboard.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  files go to "+a.svc.ExportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		now := time.Now()
		userID := svc.User.ID

		if format == exportDashboardJSON {
			d, err := svc.Dashboard.Build(userID)
			if err != nil {
				return errStatus("Export", err)
			}
			path := export.FileName(svc.ExportDir, "dashboard", "json", now)
			if err := export.DashboardJSON(d, path); err != nil {
				svc.Log.Error("export dashboard", "path", path, "error", err)
				return errStatus("Export", err)
			}
			return exportDoneMsg{path: path}
		}

		sessions, err := svc.Store.ListSessions(store.SessionFilter{UserID: userID})
		if err != nil {
			return errStatus("Export", err)
		}
		list, err := svc.Store.ListSubjects(userID, true)
		if err != nil {
			return errStatus("Export", err)
		}
		subjects := make(map[int64]*store.Subject, len(list))
		for i := range list {
			subjects[list[i].ID] = &list[i]
		}

		var path string
		if format == exportSessionsCSV {
			path = export.FileName(svc.ExportDir, "sessions", "csv", now)
			err = export.SessionsCSV(sessions, subjects, path)
		} else {
			path = export.FileName(svc.ExportDir, "sessions", "json", now)
			err = export.SessionsJSON(sessions, subjects, path)
		}
		if err != nil {
			svc.Log.Error("export sessions", "path", path, "error", err)
			return errStatus("Export", err)
		}
		svc.Log.Info("exported sessions", "path", path, "count", len(sessions))
		return exportDoneMsg{path: path}
	}
}
