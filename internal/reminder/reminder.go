// Package reminder writes in-app notifications: daily study nudges, deadline
// warnings and goal achievements.
package reminder

import (
	"fmt"
	"time"

	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	linkAssignments = "/assignments"
	linkGoals       = "/goals"
)

type Service struct {
	store *store.Store
	now   func() time.Time
	log   *logger.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendDailyStudyReminders notifies every active student. It returns how many
// notifications were written; a failure for one user does not stop the rest.
func (s *Service) SendDailyStudyReminders() (int, error) {
	users, err := s.store.ListActiveStudents()
	if err != nil {
		return 0, fmt.Errorf("daily reminders: %w", err)
	}

	sent := 0
	for _, u := range users {
		if s.notify(store.NewNotification{
			UserID:  u.ID,
			Type:    store.NotifyStudyReminder,
			Title:   "Daily Study Reminder",
			Message: "Don't forget to log your study session today! Keep your momentum going.",
		}) {
			sent++
		}
	}
	s.log.Info("daily study reminders sent", "count", sent, "students", len(users))
	return sent, nil
}

// DeadlineWindow is the span checked by SendDeadlineReminders: from the start
// of today to the last second of tomorrow, in UTC.
func DeadlineWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 0, 2).Add(-time.Second)
	return from, to
}

// SendDeadlineReminders warns about incomplete assignments and goals due
// today or tomorrow, for every user.
func (s *Service) SendDeadlineReminders() (int, error) {
	from, to := DeadlineWindow(s.now())

	assignments, err := s.store.ListAssignmentsDueBetween(from, to)
	if err != nil {
		return 0, fmt.Errorf("deadline reminders: %w", err)
	}
	goals, err := s.store.ListGoalsDueBetween(from, to)
	if err != nil {
		return 0, fmt.Errorf("deadline reminders: %w", err)
	}

	subjects := make(map[int64]string)
	sent := 0
	for _, a := range assignments {
		name, ok := subjects[a.SubjectID]
		if !ok {
			name = "your course"
			if sub, err := s.store.GetSubject(a.SubjectID); err == nil {
				name = sub.Name
			}
			subjects[a.SubjectID] = name
		}
		if s.notify(store.NewNotification{
			UserID:  a.UserID,
			Type:    store.NotifyDeadlineReminder,
			Title:   "Assignment Deadline Tomorrow",
			Message: fmt.Sprintf("%s for %s is due tomorrow!", a.Title, name),
			Link:    linkAssignments,
		}) {
			sent++
		}
	}

	for _, g := range goals {
		if s.notify(store.NewNotification{
			UserID:  g.UserID,
			Type:    store.NotifyGoalReminder,
			Title:   "Goal Deadline Tomorrow",
			Message: fmt.Sprintf("Your goal %q deadline is tomorrow!", g.Title),
			Link:    linkGoals,
		}) {
			sent++
		}
	}

	s.log.Info("deadline reminders sent", "count", sent, "assignments", len(assignments), "goals", len(goals))
	return sent, nil
}

// GoalAchieved records an achievement notification for g.
func (s *Service) GoalAchieved(g *store.Goal) error {
	_, err := s.store.CreateNotification(store.NewNotification{
		UserID:  g.UserID,
		Type:    store.NotifyAchievement,
		Title:   "Goal Completed! 🎉",
		Message: fmt.Sprintf("Congratulations! You've completed your goal: %s", g.Title),
		Link:    linkGoals,
	})
	if err != nil {
		return fmt.Errorf("goal achieved: %w", err)
	}
	return nil
}

// CompleteGoal marks a goal done and congratulates the user the first time.
func (s *Service) CompleteGoal(id int64) (*store.Goal, error) {
	g, newly, err := s.store.CompleteGoal(id)
	if err != nil {
		return nil, err
	}
	if newly {
		if err := s.GoalAchieved(g); err != nil {
			s.log.Warn("achievement notification failed", "goal", id, "error", err)
		}
	}
	return g, nil
}

func (s *Service) notify(n store.NewNotification) bool {
	if _, err := s.store.CreateNotification(n); err != nil {
		s.log.Error("create notification", "user", n.UserID, "type", n.Type, "error", err)
		return false
	}
	return true
}
