// Package dashboard assembles the per-student overview and analytics views
// from the store and the momentum engine.
package dashboard

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/momentum"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	listLimit         = 5
	trendDays         = 7
	DefaultPeriodDays = 30
	dateLayout        = "2006-01-02"
)

type SubjectHours struct {
	SubjectID int64   `json:"subjectId"`
	Name      string  `json:"name"`
	Hours     float64 `json:"hours"`
	Color     string  `json:"color"`
}

type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// UpcomingAssignment is an assignment with its subject resolved.
type UpcomingAssignment struct {
	store.Assignment
	SubjectName  string `json:"subjectName"`
	SubjectColor string `json:"subjectColor"`
}

type Dashboard struct {
	UserID              string               `json:"userId"`
	GeneratedAt         time.Time            `json:"generatedAt"`
	Momentum            momentum.Result      `json:"momentum"`
	Streak              int                  `json:"streak"`
	TotalHours          float64              `json:"totalHours"`
	SubjectBreakdown    []SubjectHours       `json:"subjectBreakdown"`
	WeeklyTrend         []DayMinutes         `json:"weeklyTrend"`
	ActiveGoals         []store.Goal         `json:"activeGoals"`
	UpcomingAssignments []UpcomingAssignment `json:"upcomingAssignments"`
}

type SubjectStat struct {
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
	Color    string `json:"color"`
}

type QualityPoint struct {
	Date    string `json:"date"`
	Quality int    `json:"quality"`
}

type Analytics struct {
	PeriodDays    int                    `json:"periodDays"`
	DailyStats    map[string]int         `json:"dailyStats"`
	SubjectStats  map[string]SubjectStat `json:"subjectStats"`
	QualityTrend  []QualityPoint         `json:"qualityTrend"`
	TotalSessions int                    `json:"totalSessions"`
}

// SubjectScores summarizes graded assignments for one subject. Scores are
// percentages in deadline order.
type SubjectScores struct {
	SubjectID int64     `json:"subjectId"`
	Subject   string    `json:"subject"`
	Color     string    `json:"color"`
	Average   int       `json:"average"`
	Count     int       `json:"count"`
	Scores    []float64 `json:"scores"`
}

type Service struct {
	store  *store.Store
	engine *momentum.Engine
	now    func() time.Time
	log    *logger.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(st *store.Store, engine *momentum.Engine, opts ...Option) *Service {
	s := &Service{
		store:  st,
		engine: engine,
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build assembles the dashboard for one user. Momentum never fails and a
// streak error is reported as 0; any other store error is returned.
func (s *Service) Build(userID string) (*Dashboard, error) {
	now := s.now().UTC()
	d := &Dashboard{
		UserID:      userID,
		GeneratedAt: now,
		Momentum:    s.engine.Compute(userID),
	}

	streak, err := s.engine.Streak(userID)
	if err != nil {
		s.log.Warn("streak unavailable", "user", userID, "error", err)
	}
	d.Streak = streak

	total, err := s.store.TotalMinutes(userID)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	d.TotalHours = hours(total)

	totals, err := s.store.SubjectTotals(userID, true)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	d.SubjectBreakdown = make([]SubjectHours, 0, len(totals))
	for _, t := range totals {
		d.SubjectBreakdown = append(d.SubjectBreakdown, SubjectHours{
			SubjectID: t.SubjectID,
			Name:      t.Name,
			Hours:     hours(t.Minutes),
			Color:     t.Color,
		})
	}

	if d.WeeklyTrend, err = s.weeklyTrend(userID, now); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	goals, err := s.store.ListActiveGoals(userID, now, listLimit)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	d.ActiveGoals = append([]store.Goal{}, goals...)

	if d.UpcomingAssignments, err = s.upcoming(userID, now); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	return d, nil
}

// weeklyTrend returns minutes for each of the seven UTC days ending today,
// oldest first, including empty days.
func (s *Service) weeklyTrend(userID string, now time.Time) ([]DayMinutes, error) {
	today := startOfDay(now)
	from := today.AddDate(0, 0, -(trendDays - 1))
	rows, err := s.store.DailyMinutes(userID, from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int)
	for _, r := range rows {
		byDay[r.Date] += r.Minutes
	}

	trend := make([]DayMinutes, 0, trendDays)
	for i := range trendDays {
		date := from.AddDate(0, 0, i).Format(dateLayout)
		trend = append(trend, DayMinutes{Date: date, Minutes: byDay[date]})
	}
	return trend, nil
}

func (s *Service) upcoming(userID string, now time.Time) ([]UpcomingAssignment, error) {
	assignments, err := s.store.ListUpcomingAssignments(userID, now, listLimit)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjectIndex(userID)
	if err != nil {
		return nil, err
	}
	out := make([]UpcomingAssignment, 0, len(assignments))
	for _, a := range assignments {
		ua := UpcomingAssignment{Assignment: a}
		if sub, ok := subjects[a.SubjectID]; ok {
			ua.SubjectName = sub.Name
			ua.SubjectColor = sub.Color
		}
		out = append(out, ua)
	}
	return out, nil
}

// Analytics summarizes the sessions of the last periodDays days. A
// non-positive period falls back to DefaultPeriodDays.
func (s *Service) Analytics(userID string, periodDays int) (*Analytics, error) {
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	now := s.now().UTC()
	from := now.AddDate(0, 0, -periodDays)

	sessions, err := s.store.ListSessions(store.SessionFilter{UserID: userID, From: &from})
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	subjects, err := s.subjectIndex(userID)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	// Sessions arrive newest first; report oldest first.
	slices.Reverse(sessions)

	a := &Analytics{
		PeriodDays:    periodDays,
		DailyStats:    make(map[string]int),
		SubjectStats:  make(map[string]SubjectStat),
		QualityTrend:  make([]QualityPoint, 0, len(sessions)),
		TotalSessions: len(sessions),
	}
	for _, ss := range sessions {
		date := ss.Date.UTC().Format(dateLayout)
		a.DailyStats[date] += ss.Duration

		name := fmt.Sprintf("subject %d", ss.SubjectID)
		var color string
		if sub, ok := subjects[ss.SubjectID]; ok {
			name, color = sub.Name, sub.Color
		}
		stat := a.SubjectStats[name]
		stat.Minutes += ss.Duration
		stat.Sessions++
		stat.Color = color
		a.SubjectStats[name] = stat

		a.QualityTrend = append(a.QualityTrend, QualityPoint{Date: date, Quality: ss.Quality})
	}
	return a, nil
}

// AssignmentAnalytics groups completed, scored assignments by subject, sorted
// by subject name.
func (s *Service) AssignmentAnalytics(userID string) ([]SubjectScores, error) {
	assignments, err := s.store.ListScoredAssignments(userID)
	if err != nil {
		return nil, fmt.Errorf("assignment analytics: %w", err)
	}
	subjects, err := s.subjectIndex(userID)
	if err != nil {
		return nil, fmt.Errorf("assignment analytics: %w", err)
	}

	byID := make(map[int64]*SubjectScores)
	for _, a := range assignments {
		if a.ObtainedScore == nil || a.MaxScore <= 0 {
			continue
		}
		ss, ok := byID[a.SubjectID]
		if !ok {
			ss = &SubjectScores{
				SubjectID: a.SubjectID,
				Subject:   fmt.Sprintf("subject %d", a.SubjectID),
				Scores:    []float64{},
			}
			if sub, ok := subjects[a.SubjectID]; ok {
				ss.Subject, ss.Color = sub.Name, sub.Color
			}
			byID[a.SubjectID] = ss
		}
		ss.Scores = append(ss.Scores, *a.ObtainedScore*100/a.MaxScore)
		ss.Count++
	}

	out := make([]SubjectScores, 0, len(byID))
	for _, ss := range byID {
		var total float64
		for _, p := range ss.Scores {
			total += p
		}
		ss.Average = int(math.Round(total / float64(ss.Count)))
		out = append(out, *ss)
	}
	slices.SortFunc(out, func(a, b SubjectScores) int { return strings.Compare(a.Subject, b.Subject) })
	return out, nil
}

func (s *Service) subjectIndex(userID string) (map[int64]store.Subject, error) {
	list, err := s.store.ListSubjects(userID, true)
	if err != nil {
		return nil, err
	}
	idx := make(map[int64]store.Subject, len(list))
	for _, sub := range list {
		idx[sub.ID] = sub
	}
	return idx, nil
}

// hours converts minutes to hours rounded to one decimal.
func hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
