package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studytrackr/internal/store"
)

// settingLabels orders and names the rows of the settings table.
var settingLabels = []struct {
	key, label string
}{
	{"pomodoro_work", "Pomodoro focus"},
	{"pomodoro_break", "Short break"},
	{"pomodoro_long_break", "Long break"},
	{"pomodoro_count", "Pomodoros per set"},
	{"idle_timeout", "Idle timeout"},
	{"idle_action", "When idle"},
	{"daily_goal", "Daily study goal"},
	{"week_start", "Week starts on"},
}

type settingsModel struct {
	svc    Services
	width  int
	height int

	values map[string]string
	users  []store.User
	cursor int
	formState

	// Form values as pointers (survive value copies)
	pomodoroWork      *string
	pomodoroBreak     *string
	pomodoroLongBreak *string
	pomodoroCount     *string
	idleTimeout       *string
	idleAction        *string
	dailyGoal         *string
	weekStart         *string
}

func newSettingsModel(svc Services) settingsModel {
	var pw, pb, plb, pc, it, ia, dg, ws string
	return settingsModel{
		svc:               svc,
		values:            map[string]string{},
		pomodoroWork:      &pw,
		pomodoroBreak:     &pb,
		pomodoroLongBreak: &plb,
		pomodoroCount:     &pc,
		idleTimeout:       &it,
		idleAction:        &ia,
		dailyGoal:         &dg,
		weekStart:         &ws,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	users    []store.User
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.svc.Store
	return func() tea.Msg {
		settings, err := st.GetAllSettings()
		if err != nil {
			return settingsDataMsg{err: err}
		}
		users, err := st.ListUsers()
		return settingsDataMsg{settings: settings, users: users, err: err}
	}
}

// nextRole cycles student, teacher, admin.
func nextRole(role string) string {
	switch role {
	case store.RoleStudent:
		return store.RoleTeacher
	case store.RoleTeacher:
		return store.RoleAdmin
	}
	return store.RoleStudent
}

func (s settingsModel) selectedUser() *store.User {
	if s.cursor < 0 || s.cursor >= len(s.users) {
		return nil
	}
	return &s.users[s.cursor]
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, func() tea.Msg { return errStatus("Settings", msg.err) }
		}
		s.values = make(map[string]string, len(msg.settings))
		for _, st := range msg.settings {
			s.values[st.Key] = st.Value
		}
		s.users = msg.users
		if s.cursor >= len(s.users) {
			s.cursor = max(0, len(s.users)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Update):
			return s.showForm()
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.users)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Block):
			u := s.selectedUser()
			if u == nil {
				return s, nil
			}
			if err := s.svc.Store.SetUserBlocked(u.ID, !u.Blocked); err != nil {
				return s, func() tea.Msg { return errStatus("Block profile", err) }
			}
			verb := "Blocked"
			if u.Blocked {
				verb = "Unblocked"
			}
			s.svc.Log.Info("profile block toggled", "profile", u.ID, "blocked", !u.Blocked)
			text := fmt.Sprintf("%s %s", verb, u.Name)
			return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: text} })
		case key.Matches(msg, keys.Role):
			u := s.selectedUser()
			if u == nil {
				return s, nil
			}
			role := nextRole(u.Role)
			if err := s.svc.Store.SetUserRole(u.ID, role); err != nil {
				return s, func() tea.Msg { return errStatus("Change role", err) }
			}
			s.svc.Log.Info("profile role changed", "profile", u.ID, "role", role)
			text := fmt.Sprintf("%s is now a %s", u.Name, role)
			return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: text} })
		}
	}
	return s, nil
}

func (s settingsModel) getVal(k, fallback string) string {
	if v, ok := s.values[k]; ok {
		return v
	}
	return fallback
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.pomodoroWork = secsToMin(s.getVal("pomodoro_work", "1500"))
	*s.pomodoroBreak = secsToMin(s.getVal("pomodoro_break", "300"))
	*s.pomodoroLongBreak = secsToMin(s.getVal("pomodoro_long_break", "900"))
	*s.pomodoroCount = s.getVal("pomodoro_count", "4")
	*s.idleTimeout = secsToMin(s.getVal("idle_timeout", "300"))
	*s.idleAction = s.getVal("idle_action", "pause")
	*s.dailyGoal = secsToHours(s.getVal("daily_goal", "7200"))
	*s.weekStart = s.getVal("week_start", "monday")

	form := newForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus length (min)").Value(s.pomodoroWork).Validate(validatePositiveInt),
			huh.NewInput().Title("Short break (min)").Value(s.pomodoroBreak).Validate(validatePositiveInt),
			huh.NewInput().Title("Long break (min)").Value(s.pomodoroLongBreak).Validate(validatePositiveInt),
			huh.NewInput().Title("Pomodoros before long break").Value(s.pomodoroCount).Validate(validatePositiveInt),
		).Title("Pomodoro"),
		huh.NewGroup(
			huh.NewInput().Title("Idle timeout (min)").Value(s.idleTimeout).Validate(validatePositiveInt),
			huh.NewSelect[string]().Title("When idle").
				Options(
					huh.NewOption("Pause the timer", "pause"),
					huh.NewOption("Stop and log the session", "stop"),
				).Value(s.idleAction),
			huh.NewInput().Title("Daily study goal (hours)").Value(s.dailyGoal).Validate(validatePositiveFloat),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("Studying"),
	)
	cmd := s.open("settings", form)
	return s, cmd
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	done, cmd := s.step(msg)
	if !done {
		return s, cmd
	}
	if err := s.saveSettings(); err != nil {
		return s, tea.Batch(s.refresh(), func() tea.Msg { return errStatus("Save settings", err) })
	}
	return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
}

func (s settingsModel) saveSettings() error {
	pairs := [][2]string{
		{"pomodoro_work", minToSecs(*s.pomodoroWork)},
		{"pomodoro_break", minToSecs(*s.pomodoroBreak)},
		{"pomodoro_long_break", minToSecs(*s.pomodoroLongBreak)},
		{"pomodoro_count", strings.TrimSpace(*s.pomodoroCount)},
		{"idle_timeout", minToSecs(*s.idleTimeout)},
		{"idle_action", *s.idleAction},
		{"daily_goal", hoursToSecs(*s.dailyGoal)},
		{"week_start", *s.weekStart},
	}
	var errs []error
	for _, kv := range pairs {
		if err := s.svc.Store.SetSetting(kv[0], kv[1]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kv[0], err))
		}
	}
	return errors.Join(errs...)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	if s.svc.User != nil {
		rows = append(rows, fmt.Sprintf("  %s %s",
			lipgloss.NewStyle().Width(24).Render("Profile"),
			highlightStyle.Render(s.svc.User.Name)), "")
	}
	for _, sl := range settingLabels {
		v, ok := s.values[sl.key]
		if !ok {
			continue
		}
		label := lipgloss.NewStyle().Width(24).Render(sl.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(formatSettingValue(sl.key, v))))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	if len(s.users) > 0 {
		rows = append(rows, "", accentStyle.Render("Profiles"))
		for i, u := range s.users {
			cursor := "  "
			style := normalItemStyle
			if i == s.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			name := u.Name
			if s.svc.User != nil && u.ID == s.svc.User.ID {
				name += " (you)"
			}
			line := fmt.Sprintf("%s%s %s", cursor,
				style.Render(lipgloss.NewStyle().Width(20).Render(name)),
				mutedStyle.Render(u.Role))
			if u.Blocked {
				line += " " + errorStyle.Render("blocked")
			}
			rows = append(rows, line)
		}
		rows = append(rows, "", mutedStyle.Render("  b: block/unblock  o: cycle role"))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "pomodoro_work", "pomodoro_break", "pomodoro_long_break", "idle_timeout":
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	case "daily_goal":
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%.1f hours", float64(secs)/3600)
		}
	}
	return v
}

func secsToMin(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(secs / 60)
	}
	return s
}

func minToSecs(s string) string {
	if mins, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return strconv.Itoa(mins * 60)
	}
	return s
}

func secsToHours(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%.1f", float64(secs)/3600)
	}
	return s
}

func hoursToSecs(s string) string {
	if hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return strconv.Itoa(int(hours * 3600))
	}
	return s
}
