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

type pomodoroPhase int

const (
	pomodoroIdle pomodoroPhase = iota
	pomodoroWork
	pomodoroShortBreak
	pomodoroLongBreak
	pomodoroCompleted
)

// phaseStatus is the pomodoro_sessions.status written for each phase.
var phaseStatus = map[pomodoroPhase]string{
	pomodoroIdle:       "idle",
	pomodoroWork:       "working",
	pomodoroShortBreak: "short_break",
	pomodoroLongBreak:  "long_break",
	pomodoroCompleted:  "completed",
}

type pomodoroModel struct {
	svc    Services
	width  int
	height int

	phase          pomodoroPhase
	completedCount int
	targetCount    int

	remaining time.Duration
	phaseEnd  time.Time

	workDuration      time.Duration
	breakDuration     time.Duration
	longBreakDuration time.Duration

	subjects      []store.Subject
	subjectCursor int

	sessionID int64 // pomodoro_sessions.id
}

func newPomodoroModel(svc Services) pomodoroModel {
	m := pomodoroModel{
		svc:         svc,
		phase:       pomodoroIdle,
		targetCount: 4,
	}
	m.loadSettings()
	return m
}

func (p *pomodoroModel) loadSettings() {
	st := p.svc.Store
	p.workDuration = time.Duration(st.GetSettingInt("pomodoro_work", 1500)) * time.Second
	p.breakDuration = time.Duration(st.GetSettingInt("pomodoro_break", 300)) * time.Second
	p.longBreakDuration = time.Duration(st.GetSettingInt("pomodoro_long_break", 900)) * time.Second
	p.targetCount = max(1, st.GetSettingInt("pomodoro_count", 4))
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type pomodoroSubjectsMsg struct {
	subjects []store.Subject
	err      error
}

func (p pomodoroModel) refresh() tea.Cmd {
	st, userID := p.svc.Store, p.svc.User.ID
	return func() tea.Msg {
		subjects, err := st.ListSubjects(userID, false)
		return pomodoroSubjectsMsg{subjects: subjects, err: err}
	}
}

func (p pomodoroModel) subject() *store.Subject {
	if p.subjectCursor < 0 || p.subjectCursor >= len(p.subjects) {
		return nil
	}
	return &p.subjects[p.subjectCursor]
}

func (p pomodoroModel) active() bool {
	return p.phase == pomodoroWork || p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pomodoroSubjectsMsg:
		if msg.err != nil {
			return p, func() tea.Msg { return errStatus("Subjects", msg.err) }
		}
		p.subjects = msg.subjects
		if p.subjectCursor >= len(p.subjects) {
			p.subjectCursor = 0
		}
		return p, nil

	case tickMsg:
		if p.active() {
			p.remaining = time.Until(p.phaseEnd)
			if p.remaining <= 0 {
				return p.advancePhase()
			}
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if !p.active() {
				return p.startSession()
			}
		case key.Matches(msg, keys.Stop):
			if p.phase == pomodoroLongBreak {
				// Already completed; just end the break.
				return p.advancePhase()
			}
			if p.active() {
				return p.cancelSession()
			}
		case key.Matches(msg, keys.Pause):
			// Skip break
			if p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak {
				return p.advancePhase()
			}
		case key.Matches(msg, keys.Left):
			if !p.active() && len(p.subjects) > 0 {
				p.subjectCursor = (p.subjectCursor - 1 + len(p.subjects)) % len(p.subjects)
			}
		case key.Matches(msg, keys.Right):
			if !p.active() && len(p.subjects) > 0 {
				p.subjectCursor = (p.subjectCursor + 1) % len(p.subjects)
			}
		}
	}
	return p, nil
}

func (p pomodoroModel) startSession() (pomodoroModel, tea.Cmd) {
	p.completedCount = 0
	p.loadSettings()

	var subjectID *int64
	if sub := p.subject(); sub != nil {
		id := sub.ID
		subjectID = &id
	}
	session, err := p.svc.Store.StartPomodoro(p.svc.User.ID, subjectID,
		int(p.workDuration.Seconds()),
		int(p.breakDuration.Seconds()),
		p.targetCount,
	)
	if err != nil {
		return p, func() tea.Msg { return errStatus("Start pomodoro", err) }
	}
	p.sessionID = session.ID

	return p.enter(pomodoroWork, p.workDuration), nil
}

func (p pomodoroModel) enter(phase pomodoroPhase, d time.Duration) pomodoroModel {
	p.phase = phase
	p.remaining = d
	p.phaseEnd = time.Now().Add(d)
	if p.sessionID > 0 && phase != pomodoroCompleted {
		if err := p.svc.Store.UpdatePomodoroStatus(p.sessionID, phaseStatus[phase]); err != nil {
			p.svc.Log.Warn("pomodoro status", "id", p.sessionID, "error", err)
		}
	}
	return p
}

// advancePhase moves to the next phase. A finished work phase is logged as a
// study session for the chosen subject; after targetCount of them the set
// is complete and a long break follows.
func (p pomodoroModel) advancePhase() (pomodoroModel, tea.Cmd) {
	switch p.phase {
	case pomodoroWork:
		p.completedCount++
		st := p.svc.Store
		if p.sessionID > 0 {
			if err := st.IncrementPomodoro(p.sessionID); err != nil {
				p.svc.Log.Warn("pomodoro increment", "id", p.sessionID, "error", err)
			}
		}
		cmds := []tea.Cmd{p.logWork()}

		if p.completedCount >= p.targetCount {
			p = p.enter(pomodoroLongBreak, p.longBreakDuration)
			// The set counts as completed; the long break is not tracked.
			if p.sessionID > 0 {
				if err := st.CompletePomodoro(p.sessionID); err != nil {
					p.svc.Log.Warn("pomodoro complete", "id", p.sessionID, "error", err)
				}
			}
			cmds = append(cmds, func() tea.Msg {
				return statusMsg{text: "Set complete! Take a long break. \a"}
			})
			return p, tea.Batch(cmds...)
		}

		p = p.enter(pomodoroShortBreak, p.breakDuration)
		cmds = append(cmds, func() tea.Msg { return statusMsg{text: "Break time! \a"} })
		return p, tea.Batch(cmds...)

	case pomodoroShortBreak:
		return p.enter(pomodoroWork, p.workDuration), nil

	case pomodoroLongBreak:
		p.phase = pomodoroCompleted
		p.remaining = 0
		return p, func() tea.Msg { return statusMsg{text: "Pomodoro set finished \a"} }
	}
	return p, nil
}

// logWork records one work phase as a study session. Without a subject
// there is nothing to attribute the time to.
func (p pomodoroModel) logWork() tea.Cmd {
	sub := p.subject()
	minutes := int(p.workDuration.Minutes())
	if sub == nil || minutes < 1 {
		return nil
	}
	session, err := p.svc.Store.CreateSession(store.NewSession{
		UserID:    p.svc.User.ID,
		SubjectID: sub.ID,
		Duration:  minutes,
		Date:      time.Now().UTC(),
		Notes:     "Pomodoro",
	})
	if err != nil {
		p.svc.Log.Error("log pomodoro session", "subject", sub.ID, "error", err)
		return func() tea.Msg { return errStatus("Log pomodoro", err) }
	}
	return func() tea.Msg { return sessionLoggedMsg{session: session} }
}

func (p pomodoroModel) cancelSession() (pomodoroModel, tea.Cmd) {
	if p.sessionID > 0 {
		if err := p.svc.Store.CancelPomodoro(p.sessionID); err != nil {
			p.svc.Log.Warn("pomodoro cancel", "id", p.sessionID, "error", err)
		}
	}
	p.phase = pomodoroIdle
	p.remaining = 0
	return p, func() tea.Msg {
		return statusMsg{text: "Pomodoro cancelled"}
	}
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	var timeDisplay, phaseLabel, indicator string
	switch p.phase {
	case pomodoroIdle:
		timeDisplay = timerStyle.Width(w - 6).Render(formatPomodoroTime(p.workDuration))
		phaseLabel = mutedStyle.Render("Ready to start")
		indicator = mutedStyle.Render("Press s to begin")
	case pomodoroWork:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = accentStyle.Bold(true).Render("FOCUS")
		indicator = p.renderProgress()
	case pomodoroShortBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = successStyle.Bold(true).Render("SHORT BREAK")
		indicator = p.renderProgress()
	case pomodoroLongBreak:
		timeDisplay = highlightStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = highlightStyle.Bold(true).Render("LONG BREAK")
		indicator = p.renderProgress()
	case pomodoroCompleted:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render("SET COMPLETE")
		indicator = p.renderProgress()
	}

	subjectLine := mutedStyle.Render("No subject: time will not be logged")
	if sub := p.subject(); sub != nil {
		subjectLine = colorDot(sub.Color) + " " + highlightStyle.Render(sub.Name)
		if !p.active() && len(p.subjects) > 1 {
			subjectLine = mutedStyle.Render("◀ ") + subjectLine + mutedStyle.Render(" ▶")
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Pomodoro Timer"),
		"",
		timeDisplay,
		phaseLabel,
		subjectLine,
		"",
		indicator,
	)

	var controls string
	switch p.phase {
	case pomodoroIdle, pomodoroCompleted:
		controls = mutedStyle.Render("s: start  ←/→: subject")
	case pomodoroWork:
		controls = mutedStyle.Render("x: cancel")
	case pomodoroShortBreak, pomodoroLongBreak:
		controls = mutedStyle.Render("space: skip break  x: cancel")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderProgress() string {
	parts := make([]string, 0, p.targetCount)
	for i := range p.targetCount {
		switch {
		case i < p.completedCount:
			parts = append(parts, successStyle.Render("●"))
		case i == p.completedCount && p.phase == pomodoroWork:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ") + mutedStyle.Render(fmt.Sprintf("  %d/%d", p.completedCount, p.targetCount))
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
