package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	formAssignment = "assignment"
	formGrade      = "grade"
)

type assignmentsModel struct {
	svc    Services
	width  int
	height int

	assignments []store.Assignment
	subjects    map[int64]store.Subject
	subjectList []store.Subject
	performance []dashboard.SubjectScores
	cursor      int
	status      string

	formState
	formSubject  *string
	formTitle    *string
	formDeadline *string
	formMax      *string
	formDesc     *string
	formScore    *string
}

func newAssignmentsModel(svc Services) assignmentsModel {
	var subject, title, deadline, maxScore, desc, score string
	return assignmentsModel{
		svc:          svc,
		subjects:     map[int64]store.Subject{},
		status:       store.StatusPending,
		formSubject:  &subject,
		formTitle:    &title,
		formDeadline: &deadline,
		formMax:      &maxScore,
		formDesc:     &desc,
		formScore:    &score,
	}
}

func (a *assignmentsModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

type assignmentsDataMsg struct {
	assignments []store.Assignment
	subjects    []store.Subject
	performance []dashboard.SubjectScores
	err         error
}

func (a assignmentsModel) refresh() tea.Cmd {
	st, dash, userID, status := a.svc.Store, a.svc.Dashboard, a.svc.User.ID, a.status
	return func() tea.Msg {
		list, err := st.ListAssignments(userID, store.AssignmentFilter{Status: status})
		if err != nil {
			return assignmentsDataMsg{err: err}
		}
		subjects, err := st.ListSubjects(userID, true)
		if err != nil {
			return assignmentsDataMsg{err: err}
		}
		var performance []dashboard.SubjectScores
		if dash != nil {
			if performance, err = dash.AssignmentAnalytics(userID); err != nil {
				return assignmentsDataMsg{err: err}
			}
		}
		return assignmentsDataMsg{assignments: list, subjects: subjects, performance: performance}
	}
}

func (a assignmentsModel) selected() *store.Assignment {
	if a.cursor < 0 || a.cursor >= len(a.assignments) {
		return nil
	}
	return &a.assignments[a.cursor]
}

func (a assignmentsModel) update(msg tea.Msg) (assignmentsModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case assignmentsDataMsg:
		if msg.err != nil {
			return a, func() tea.Msg { return errStatus("Assignments", msg.err) }
		}
		a.assignments = msg.assignments
		a.performance = msg.performance
		a.subjects = make(map[int64]store.Subject, len(msg.subjects))
		a.subjectList = nil
		for _, s := range msg.subjects {
			a.subjects[s.ID] = s
			if !s.Archived {
				a.subjectList = append(a.subjectList, s)
			}
		}
		if a.cursor >= len(a.assignments) {
			a.cursor = max(0, len(a.assignments)-1)
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, keys.Down):
			if a.cursor < len(a.assignments)-1 {
				a.cursor++
			}
		case key.Matches(msg, keys.Filter):
			a.status = nextAssignmentFilter(a.status)
			a.cursor = 0
			return a, a.refresh()
		case key.Matches(msg, keys.New):
			if len(a.subjectList) == 0 {
				return a, func() tea.Msg {
					return statusMsg{text: "Create a subject first (press 2).", isError: true}
				}
			}
			return a.showAssignmentForm()
		case key.Matches(msg, keys.Grade):
			if as := a.selected(); as != nil {
				return a.showGradeForm(as)
			}
		case key.Matches(msg, keys.Delete):
			if as := a.selected(); as != nil {
				if err := a.svc.Store.DeleteAssignment(as.ID); err != nil {
					return a, func() tea.Msg { return errStatus("Delete assignment", err) }
				}
				return a, a.refresh()
			}
		}
	}
	return a, nil
}

func nextAssignmentFilter(status string) string {
	switch status {
	case store.StatusPending:
		return store.StatusCompleted
	case store.StatusCompleted:
		return store.StatusAll
	}
	return store.StatusPending
}

func (a assignmentsModel) showAssignmentForm() (assignmentsModel, tea.Cmd) {
	*a.formSubject = strconv.FormatInt(a.subjectList[0].ID, 10)
	*a.formTitle = ""
	*a.formDeadline = time.Now().AddDate(0, 0, 7).Format(dateLayout)
	*a.formMax = "100"
	*a.formDesc = ""

	options := make([]huh.Option[string], len(a.subjectList))
	for i, s := range a.subjectList {
		options[i] = huh.NewOption(s.Name, strconv.FormatInt(s.ID, 10))
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Subject").Options(options...).Value(a.formSubject),
			huh.NewInput().Title("Title").Value(a.formTitle).CharLimit(200),
			huh.NewInput().Title("Deadline (YYYY-MM-DD [HH:MM])").Value(a.formDeadline).Validate(validateDeadline),
			huh.NewInput().Title("Max score").Value(a.formMax).Validate(validatePositiveFloat),
			huh.NewText().Title("Description").Value(a.formDesc).CharLimit(1000),
		),
	)
	cmd := a.open(formAssignment, form)
	return a, cmd
}

func (a assignmentsModel) showGradeForm(as *store.Assignment) (assignmentsModel, tea.Cmd) {
	*a.formScore = ""
	if as.ObtainedScore != nil {
		*a.formScore = strconv.FormatFloat(*as.ObtainedScore, 'f', -1, 64)
	}
	maxScore := as.MaxScore
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Score for %q out of %s (empty if not graded yet)", as.Title, strconv.FormatFloat(maxScore, 'f', -1, 64))).
				Value(a.formScore).
				Validate(func(s string) error {
					if err := validateOptionalFloat(s); err != nil {
						return err
					}
					if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && v > maxScore {
						return fmt.Errorf("score cannot exceed %s", strconv.FormatFloat(maxScore, 'f', -1, 64))
					}
					return nil
				}),
		),
	)
	cmd := a.open(formGrade, form)
	return a, cmd
}

func (a assignmentsModel) updateForm(msg tea.Msg) (assignmentsModel, tea.Cmd) {
	kind := a.kind
	done, cmd := a.step(msg)
	if !done {
		return a, cmd
	}

	switch kind {
	case formAssignment:
		if strings.TrimSpace(*a.formTitle) == "" {
			return a, nil
		}
		subjectID, _ := strconv.ParseInt(*a.formSubject, 10, 64)
		deadline, _ := parseDeadline(*a.formDeadline)
		maxScore, _ := strconv.ParseFloat(strings.TrimSpace(*a.formMax), 64)
		_, err := a.svc.Store.CreateAssignment(store.NewAssignment{
			UserID:      a.svc.User.ID,
			SubjectID:   subjectID,
			Title:       *a.formTitle,
			Description: *a.formDesc,
			Deadline:    deadline.UTC(),
			MaxScore:    maxScore,
		})
		if err != nil {
			return a, func() tea.Msg { return errStatus("Save assignment", err) }
		}
		return a, a.refresh()

	case formGrade:
		as := a.selected()
		if as == nil {
			return a, nil
		}
		var score *float64
		if v, err := strconv.ParseFloat(strings.TrimSpace(*a.formScore), 64); err == nil {
			score = &v
		}
		if err := a.svc.Store.CompleteAssignment(as.ID, score); err != nil {
			return a, func() tea.Msg { return errStatus("Submit assignment", err) }
		}
		title := as.Title
		return a, tea.Batch(a.refresh(), func() tea.Msg {
			return statusMsg{text: "Submitted " + title}
		})
	}
	return a, nil
}

func (a assignmentsModel) view() string {
	w := a.width - 4
	if a.formActive && a.form != nil {
		title := "New Assignment"
		if a.kind == formGrade {
			title = "Submit / Grade"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", a.form.View()),
		)
	}

	header := titleStyle.Render("Assignments") + mutedStyle.Render("  showing: "+filterLabel(a.status))
	if len(a.assignments) == 0 {
		rows := []string{header, "", mutedStyle.Render("No assignments here. Press n to add one.")}
		rows = append(rows, a.renderPerformance()...)
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	now := time.Now()
	rows := []string{header, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-28s %-16s %-14s %s", "Title", "Subject", "Due", "Score")))
	for i, as := range a.assignments {
		cursor := "  "
		style := normalItemStyle
		if i == a.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		sub := a.subjects[as.SubjectID]
		due := as.Deadline.Local().Format("Jan 02 15:04")
		switch {
		case as.IsCompleted:
			due = successStyle.Render(fmt.Sprintf("%-14s", "submitted"))
		case as.Deadline.Before(now):
			due = errorStyle.Render(fmt.Sprintf("%-14s", "overdue"))
		default:
			due = fmt.Sprintf("%-14s", due)
		}
		score := mutedStyle.Render("-")
		if pct := as.Percentage(); pct != nil {
			score = lipgloss.NewStyle().Foreground(scoreColor(*pct)).Render(fmt.Sprintf("%s/%s (%d%%)",
				strconv.FormatFloat(*as.ObtainedScore, 'f', -1, 64),
				strconv.FormatFloat(as.MaxScore, 'f', -1, 64),
				*pct))
		}
		rows = append(rows, fmt.Sprintf("%s%s %-16s %s %s",
			style.Render(cursor+fmt.Sprintf("%-28s", as.Title)),
			colorDot(sub.Color),
			sub.Name,
			due,
			score,
		))
	}

	rows = append(rows, a.renderPerformance()...)
	rows = append(rows, "", mutedStyle.Render("  n: new  g: submit/grade  d: delete  f: filter"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderPerformance lists the average graded percentage per subject.
func (a assignmentsModel) renderPerformance() []string {
	if len(a.performance) == 0 {
		return nil
	}
	rows := []string{"", accentStyle.Render("Performance by subject")}
	for _, p := range a.performance {
		avg := lipgloss.NewStyle().Foreground(scoreColor(p.Average)).Render(fmt.Sprintf("%3d%%", p.Average))
		rows = append(rows, fmt.Sprintf("  %s %-16s %s %s",
			colorDot(p.Color), p.Subject, avg,
			mutedStyle.Render(fmt.Sprintf("%d graded", p.Count))))
	}
	return rows
}
