package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var qualityOptions = []huh.Option[string]{
	huh.NewOption("★ poor", "1"),
	huh.NewOption("★★ fair", "2"),
	huh.NewOption("★★★ good", "3"),
	huh.NewOption("★★★★ great", "4"),
	huh.NewOption("★★★★★ excellent", "5"),
}

// parseDeadline accepts "2006-01-02" (end of that day) or "2006-01-02 15:04",
// both in local time.
func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use YYYY-MM-DD or YYYY-MM-DD HH:MM")
	}
	return t.Add(24*time.Hour - time.Minute), nil
}

// parseDay accepts "2006-01-02" or "today". Past days are placed at noon so
// local and UTC agree on the day for most time zones; today means now. Days
// after today are rejected.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	now := time.Now()
	if s == "" || strings.EqualFold(s, "today") {
		return now, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch {
	case t.After(today):
		return time.Time{}, errors.New("date cannot be in the future")
	case t.Equal(today):
		return now, nil
	}
	return t.Add(12 * time.Hour), nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func validatePositiveFloat(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return errors.New("enter a number greater than 0")
	}
	return nil
}

func validateOptionalFloat(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return errors.New("enter a number, or leave empty")
	}
	return nil
}

func validateDeadline(s string) error {
	_, err := parseDeadline(s)
	return err
}

func validateDay(s string) error {
	_, err := parseDay(s)
	return err
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
}

// formState is embedded by views that host a huh form. kind says which
// form is open.
type formState struct {
	formActive bool
	form       *huh.Form
	kind       string
}

func (f *formState) open(kind string, form *huh.Form) tea.Cmd {
	f.kind = kind
	f.form = form
	f.formActive = true
	return form.Init()
}

// step feeds msg to the open form. It reports done once the form completed
// and closes it; esc closes it without completing.
func (f *formState) step(msg tea.Msg) (done bool, cmd tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		f.close()
		return false, nil
	}

	form, cmd := f.form.Update(msg)
	if ff, ok := form.(*huh.Form); ok {
		f.form = ff
	}
	switch f.form.State {
	case huh.StateCompleted:
		f.close()
		return true, nil
	case huh.StateAborted:
		f.close()
		return false, nil
	}
	return false, cmd
}

func (f *formState) close() {
	f.formActive = false
	f.form = nil
}
