package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/reminder"
	"github.com/sadopc/studytrackr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewSubjects
	viewGoals
	viewAssignments
	viewReports
	viewPomodoro
	viewInbox
	viewSettings
)

var viewNames = []string{"Dashboard", "Subjects", "Goals", "Assignments", "Reports", "Pomodoro", "Inbox", "Settings"}

// Services is everything the views read from or write to. User is the
// profile the TUI is running as.
type Services struct {
	Store     *store.Store
	User      *store.User
	Dashboard *dashboard.Service
	Reminders *reminder.Service
	ExportDir string
	Log       *logger.Logger
}

// --- Messages ---

type timerStartedMsg struct {
	subject string
}

type sessionLoggedMsg struct {
	session *store.StudySession
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMinutes renders a study duration like "1h 05m" or "45m".
func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func formatHours(minutes int) string {
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}

func colorDot(color string) string {
	return dotStyle(color).Render("●")
}
