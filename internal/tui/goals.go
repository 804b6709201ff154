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
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	formGoal         = "goal"
	formGoalProgress = "goal_progress"
)

// statusFilters is the cycle order of the f key in list views.
var statusFilters = []string{store.StatusAll, store.StatusActive, store.StatusCompleted}

func filterLabel(status string) string {
	if status == store.StatusAll {
		return "all"
	}
	return status
}

func nextFilter(status string) string {
	for i, s := range statusFilters {
		if s == status {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return store.StatusAll
}

type goalsModel struct {
	svc    Services
	width  int
	height int

	goals  []store.Goal
	cursor int
	status string

	formState
	formTitle    *string
	formType     *string
	formTarget   *string
	formUnit     *string
	formDeadline *string
	formDesc     *string
	formCurrent  *string
}

func newGoalsModel(svc Services) goalsModel {
	var title, typ, target, unit, deadline, desc, current string
	return goalsModel{
		svc:          svc,
		status:       store.StatusActive,
		formTitle:    &title,
		formType:     &typ,
		formTarget:   &target,
		formUnit:     &unit,
		formDeadline: &deadline,
		formDesc:     &desc,
		formCurrent:  &current,
	}
}

func (g *goalsModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

type goalsDataMsg struct {
	goals []store.Goal
	err   error
}

func (g goalsModel) refresh() tea.Cmd {
	st, userID, status := g.svc.Store, g.svc.User.ID, g.status
	return func() tea.Msg {
		goals, err := st.ListGoals(userID, store.GoalFilter{Status: status})
		return goalsDataMsg{goals: goals, err: err}
	}
}

func (g goalsModel) selected() *store.Goal {
	if g.cursor < 0 || g.cursor >= len(g.goals) {
		return nil
	}
	return &g.goals[g.cursor]
}

func (g goalsModel) update(msg tea.Msg) (goalsModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	switch msg := msg.(type) {
	case goalsDataMsg:
		if msg.err != nil {
			return g, func() tea.Msg { return errStatus("Goals", msg.err) }
		}
		g.goals = msg.goals
		if g.cursor >= len(g.goals) {
			g.cursor = max(0, len(g.goals)-1)
		}
		return g, nil

	case goalCompletedMsg:
		if msg.err != nil {
			return g, func() tea.Msg { return errStatus("Complete goal", msg.err) }
		}
		title := msg.goal.Title
		return g, tea.Batch(g.refresh(), func() tea.Msg {
			return statusMsg{text: "Goal completed: " + title}
		})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if g.cursor > 0 {
				g.cursor--
			}
		case key.Matches(msg, keys.Down):
			if g.cursor < len(g.goals)-1 {
				g.cursor++
			}
		case key.Matches(msg, keys.Filter):
			g.status = nextFilter(g.status)
			g.cursor = 0
			return g, g.refresh()
		case key.Matches(msg, keys.New):
			return g.showGoalForm()
		case key.Matches(msg, keys.Update):
			if goal := g.selected(); goal != nil && !goal.IsCompleted {
				return g.showProgressForm(goal)
			}
		case key.Matches(msg, keys.Complete):
			if goal := g.selected(); goal != nil {
				return g, g.complete(goal.ID)
			}
		case key.Matches(msg, keys.Delete):
			if goal := g.selected(); goal != nil {
				if err := g.svc.Store.DeleteGoal(goal.ID); err != nil {
					return g, func() tea.Msg { return errStatus("Delete goal", err) }
				}
				return g, g.refresh()
			}
		}
	}
	return g, nil
}

type goalCompletedMsg struct {
	goal *store.Goal
	err  error
}

// complete goes through the reminder service so the achievement lands in
// the inbox.
func (g goalsModel) complete(id int64) tea.Cmd {
	rem := g.svc.Reminders
	return func() tea.Msg {
		goal, err := rem.CompleteGoal(id)
		return goalCompletedMsg{goal: goal, err: err}
	}
}

func (g goalsModel) showGoalForm() (goalsModel, tea.Cmd) {
	*g.formTitle = ""
	*g.formType = store.GoalShortTerm
	*g.formTarget = "10"
	*g.formUnit = "hours"
	*g.formDeadline = time.Now().AddDate(0, 0, 7).Format(dateLayout)
	*g.formDesc = ""

	form := newForm(
		huh.NewGroup(
			huh.NewInput().Title("Goal").Value(g.formTitle).CharLimit(200),
			huh.NewSelect[string]().Title("Type").Options(
				huh.NewOption("Short-term", store.GoalShortTerm),
				huh.NewOption("Long-term", store.GoalLongTerm),
			).Value(g.formType),
			huh.NewInput().Title("Target").Value(g.formTarget).Validate(validatePositiveFloat),
			huh.NewInput().Title("Unit").Value(g.formUnit).CharLimit(30),
			huh.NewInput().Title("Deadline (YYYY-MM-DD [HH:MM])").Value(g.formDeadline).Validate(validateDeadline),
			huh.NewText().Title("Description").Value(g.formDesc).CharLimit(1000),
		),
	)
	cmd := g.open(formGoal, form)
	return g, cmd
}

func (g goalsModel) showProgressForm(goal *store.Goal) (goalsModel, tea.Cmd) {
	*g.formCurrent = strconv.FormatFloat(goal.CurrentValue, 'f', -1, 64)
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Progress on %q (target %s %s)", goal.Title, strconv.FormatFloat(goal.TargetValue, 'f', -1, 64), goal.Unit)).
				Value(g.formCurrent).
				Validate(validateOptionalFloat),
		),
	)
	cmd := g.open(formGoalProgress, form)
	return g, cmd
}

func (g goalsModel) updateForm(msg tea.Msg) (goalsModel, tea.Cmd) {
	kind := g.kind
	done, cmd := g.step(msg)
	if !done {
		return g, cmd
	}

	switch kind {
	case formGoal:
		if strings.TrimSpace(*g.formTitle) == "" {
			return g, nil
		}
		target, _ := strconv.ParseFloat(strings.TrimSpace(*g.formTarget), 64)
		deadline, _ := parseDeadline(*g.formDeadline)
		_, err := g.svc.Store.CreateGoal(store.NewGoal{
			UserID:      g.svc.User.ID,
			Title:       *g.formTitle,
			Description: *g.formDesc,
			Type:        *g.formType,
			TargetValue: target,
			Unit:        strings.TrimSpace(*g.formUnit),
			Deadline:    deadline.UTC(),
		})
		if err != nil {
			return g, func() tea.Msg { return errStatus("Save goal", err) }
		}
		return g, g.refresh()

	case formGoalProgress:
		goal := g.selected()
		if goal == nil {
			return g, nil
		}
		current, _ := strconv.ParseFloat(strings.TrimSpace(*g.formCurrent), 64)
		if err := g.svc.Store.UpdateGoalProgress(goal.ID, current); err != nil {
			return g, func() tea.Msg { return errStatus("Update goal", err) }
		}
		if goal.TargetValue > 0 && current >= goal.TargetValue {
			return g, g.complete(goal.ID)
		}
		return g, g.refresh()
	}
	return g, nil
}

func (g goalsModel) view() string {
	w := g.width - 4
	if g.formActive && g.form != nil {
		title := "New Goal"
		if g.kind == formGoalProgress {
			title = "Update Progress"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", g.form.View()),
		)
	}

	header := titleStyle.Render("Goals") + mutedStyle.Render("  showing: "+filterLabel(g.status))
	if len(g.goals) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No goals here. Press n to set one."),
		))
	}

	now := time.Now()
	rows := []string{header, ""}
	for i, goal := range g.goals {
		cursor := "  "
		style := normalItemStyle
		if i == g.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := "◎"
		due := goal.Deadline.Local().Format("Jan 02")
		switch {
		case goal.IsCompleted:
			mark = successStyle.Render("✓")
		case goal.Deadline.Before(now):
			due = errorStyle.Render(due + " overdue")
		}
		amount := fmt.Sprintf("%s/%s %s",
			strconv.FormatFloat(goal.CurrentValue, 'f', -1, 64),
			strconv.FormatFloat(goal.TargetValue, 'f', -1, 64),
			goal.Unit)
		rows = append(rows, fmt.Sprintf("%s %s %s %3d%%  %-16s %s",
			style.Render(cursor+fmt.Sprintf("%-28s", goal.Title)),
			mark,
			progressBar(goal.Progress(), 12),
			goal.Progress(),
			mutedStyle.Render(amount),
			due,
		))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  u: progress  c: complete  d: delete  f: filter"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
