package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/store"
)

var subjectColors = []string{"#3B82F6", "#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6"}

const (
	formSubject     = "subject"
	formEditSubject = "edit_subject"
	formSession     = "session"
)

type subjectsModel struct {
	svc    Services
	width  int
	height int

	subjects        []store.Subject
	totals          map[int64]int
	sessions        []store.StudySession
	cursor          int
	sessionCursor   int
	viewingSessions bool

	formState
	editingID int64

	// Form field pointers (survive value copies)
	formName    *string
	formColor   *string
	formTarget  *string
	formMinutes *string
	formQuality *string
	formDay     *string
	formNotes   *string
}

func newSubjectsModel(svc Services) subjectsModel {
	var name, color, target, minutes, quality, day, notes string
	return subjectsModel{
		svc:         svc,
		totals:      map[int64]int{},
		formName:    &name,
		formColor:   &color,
		formTarget:  &target,
		formMinutes: &minutes,
		formQuality: &quality,
		formDay:     &day,
		formNotes:   &notes,
	}
}

func (p *subjectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type subjectsDataMsg struct {
	subjects []store.Subject
	totals   map[int64]int
	err      error
}

type sessionsDataMsg struct {
	sessions []store.StudySession
	err      error
}

func (p subjectsModel) refresh() tea.Cmd {
	st, userID := p.svc.Store, p.svc.User.ID
	return func() tea.Msg {
		subjects, err := st.ListSubjects(userID, false)
		if err != nil {
			return subjectsDataMsg{err: err}
		}
		rows, err := st.SubjectTotals(userID, false)
		if err != nil {
			return subjectsDataMsg{err: err}
		}
		totals := make(map[int64]int, len(rows))
		for _, r := range rows {
			totals[r.SubjectID] = r.Minutes
		}
		return subjectsDataMsg{subjects: subjects, totals: totals}
	}
}

func (p subjectsModel) refreshSessions() tea.Cmd {
	sub := p.selected()
	if sub == nil {
		return nil
	}
	st, userID, subjectID := p.svc.Store, p.svc.User.ID, sub.ID
	return func() tea.Msg {
		sessions, err := st.ListSessions(store.SessionFilter{UserID: userID, SubjectID: &subjectID})
		return sessionsDataMsg{sessions: sessions, err: err}
	}
}

func (p subjectsModel) selected() *store.Subject {
	if p.cursor < 0 || p.cursor >= len(p.subjects) {
		return nil
	}
	return &p.subjects[p.cursor]
}

func (p subjectsModel) update(msg tea.Msg) (subjectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case subjectsDataMsg:
		if msg.err != nil {
			return p, func() tea.Msg { return errStatus("Subjects", msg.err) }
		}
		p.subjects = msg.subjects
		p.totals = msg.totals
		if p.cursor >= len(p.subjects) {
			p.cursor = max(0, len(p.subjects)-1)
		}
		return p, nil

	case sessionsDataMsg:
		if msg.err != nil {
			return p, func() tea.Msg { return errStatus("Sessions", msg.err) }
		}
		p.sessions = msg.sessions
		if p.sessionCursor >= len(p.sessions) {
			p.sessionCursor = max(0, len(p.sessions)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingSessions {
			return p.updateSessionView(msg)
		}
		return p.updateSubjectList(msg)
	}
	return p, nil
}

func (p subjectsModel) updateSubjectList(msg tea.KeyMsg) (subjectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.subjects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.subjects) > 0 {
			p.viewingSessions = true
			p.sessionCursor = 0
			return p, p.refreshSessions()
		}
	case key.Matches(msg, keys.New):
		return p.showSubjectForm(nil)
	case key.Matches(msg, keys.Update):
		if sub := p.selected(); sub != nil {
			return p.showSubjectForm(sub)
		}
	case key.Matches(msg, keys.Delete):
		if sub := p.selected(); sub != nil {
			if err := p.svc.Store.ArchiveSubject(sub.ID); err != nil {
				return p, func() tea.Msg { return errStatus("Archive subject", err) }
			}
			name := sub.Name
			return p, tea.Batch(p.refresh(), func() tea.Msg {
				return statusMsg{text: "Archived " + name}
			})
		}
	}
	return p, nil
}

func (p subjectsModel) updateSessionView(msg tea.KeyMsg) (subjectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingSessions = false
		return p, p.refresh()
	case key.Matches(msg, keys.Up):
		if p.sessionCursor > 0 {
			p.sessionCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.sessionCursor < len(p.sessions)-1 {
			p.sessionCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showSessionForm()
	case key.Matches(msg, keys.Delete):
		if len(p.sessions) > 0 {
			ss := p.sessions[p.sessionCursor]
			if err := p.svc.Store.DeleteSession(ss.ID); err != nil {
				return p, func() tea.Msg { return errStatus("Delete session", err) }
			}
			return p, p.refreshSessions()
		}
	}
	return p, nil
}

func (p subjectsModel) showSubjectForm(sub *store.Subject) (subjectsModel, tea.Cmd) {
	kind := formSubject
	*p.formName, *p.formColor, *p.formTarget = "", subjectColors[0], "0"
	if sub != nil {
		kind = formEditSubject
		p.editingID = sub.ID
		*p.formName = sub.Name
		*p.formColor = sub.Color
		*p.formTarget = strconv.FormatFloat(sub.TargetHours, 'f', -1, 64)
	}

	colorOptions := make([]huh.Option[string], len(subjectColors))
	for i, c := range subjectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(p.formName).CharLimit(100),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
			huh.NewInput().Title("Target hours").Value(p.formTarget).Validate(validateOptionalFloat),
		),
	)
	cmd := p.open(kind, form)
	return p, cmd
}

func (p subjectsModel) showSessionForm() (subjectsModel, tea.Cmd) {
	*p.formMinutes = "30"
	*p.formQuality = "3"
	*p.formDay = "today"
	*p.formNotes = ""

	form := newForm(
		huh.NewGroup(
			huh.NewInput().Title("Minutes").Value(p.formMinutes).Validate(validatePositiveInt),
			huh.NewSelect[string]().Title("Quality").Options(qualityOptions...).Value(p.formQuality),
			huh.NewInput().Title("Date (YYYY-MM-DD or today)").Value(p.formDay).Validate(validateDay),
			huh.NewText().Title("Notes").Value(p.formNotes).CharLimit(500),
		),
	)
	cmd := p.open(formSession, form)
	return p, cmd
}

func (p subjectsModel) updateForm(msg tea.Msg) (subjectsModel, tea.Cmd) {
	kind := p.kind
	done, cmd := p.step(msg)
	if !done {
		return p, cmd
	}

	var err error
	switch kind {
	case formSubject, formEditSubject:
		if strings.TrimSpace(*p.formName) == "" {
			return p, nil
		}
		target, _ := strconv.ParseFloat(strings.TrimSpace(*p.formTarget), 64)
		in := store.NewSubject{Name: *p.formName, Color: *p.formColor, TargetHours: target}
		if kind == formSubject {
			_, err = p.svc.Store.CreateSubject(p.svc.User.ID, in)
		} else {
			err = p.svc.Store.UpdateSubject(p.editingID, in)
		}
		if err != nil {
			return p, func() tea.Msg { return errStatus("Save subject", err) }
		}
		return p, p.refresh()

	case formSession:
		sub := p.selected()
		if sub == nil {
			return p, nil
		}
		minutes, _ := strconv.Atoi(strings.TrimSpace(*p.formMinutes))
		quality, _ := strconv.Atoi(*p.formQuality)
		day, _ := parseDay(*p.formDay)
		session, err := p.svc.Store.CreateSession(store.NewSession{
			UserID:    p.svc.User.ID,
			SubjectID: sub.ID,
			Duration:  minutes,
			Date:      day.UTC(),
			Quality:   quality,
			Notes:     *p.formNotes,
		})
		if err != nil {
			return p, func() tea.Msg { return errStatus("Log session", err) }
		}
		return p, tea.Batch(p.refreshSessions(), func() tea.Msg {
			return sessionLoggedMsg{session: session}
		})
	}
	return p, nil
}

func (p subjectsModel) view() string {
	w := p.width - 4
	if p.formActive && p.form != nil {
		title := "New Subject"
		switch p.kind {
		case formEditSubject:
			title = "Edit Subject"
		case formSession:
			title = "Log Session"
			if sub := p.selected(); sub != nil {
				title += ": " + sub.Name
			}
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if p.viewingSessions && p.selected() != nil {
		return p.renderSessionView(w)
	}
	return p.renderSubjectList(w)
}

func (p subjectsModel) renderSubjectList(w int) string {
	title := titleStyle.Render("Subjects")

	if len(p.subjects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No subjects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-24s %8s  %-16s", "Name", "Studied", "Target")))

	for i, sub := range p.subjects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		minutes := p.totals[sub.ID]
		target := mutedStyle.Render("no target")
		if sub.TargetHours > 0 {
			pct := int(float64(minutes) / 60 / sub.TargetHours * 100)
			target = progressBar(pct, 10) + fmt.Sprintf(" %.0fh", sub.TargetHours)
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %8s  ", cursor, colorDot(sub.Color), sub.Name, formatHours(minutes)))
		rows = append(rows, row+target)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  u: edit  d: archive  enter: sessions"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p subjectsModel) renderSessionView(w int) string {
	sub := p.selected()
	title := titleStyle.Render(fmt.Sprintf("%s %s: Sessions", colorDot(sub.Color), sub.Name))

	if len(p.sessions) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No sessions. Press n to log one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	for i, ss := range p.sessions {
		cursor := "  "
		style := normalItemStyle
		if i == p.sessionCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%s  %7s  %-5s", cursor, ss.Date.Local().Format("Mon Jan 02"), formatMinutes(ss.Duration), strings.Repeat("★", ss.Quality)))
		if ss.Notes != "" {
			line += mutedStyle.Render("  " + ss.Notes)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", mutedStyle.Render("  n: log session  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
