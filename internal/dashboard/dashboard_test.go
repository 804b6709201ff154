package dashboard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studytrackr/internal/momentum"
	"github.com/sadopc/studytrackr/internal/store"
)

var refNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

type fixture struct {
	s       *store.Store
	svc     *Service
	user    *store.User
	math    *store.Subject
	physics *store.Subject
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	u, err := s.CreateUser("alice")
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.CreateSubject(u.ID, store.NewSubject{Name: "Math", Color: "#FF0000"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.CreateSubject(u.ID, store.NewSubject{Name: "Physics", Color: "#0000FF"})
	if err != nil {
		t.Fatal(err)
	}

	engine := momentum.New(s, momentum.WithClock(fixedClock))
	return fixture{
		s:       s,
		svc:     New(s, engine, WithClock(fixedClock)),
		user:    u,
		math:    m,
		physics: p,
	}
}

func (f fixture) logSession(t *testing.T, subjectID int64, date time.Time, minutes, quality int) {
	t.Helper()
	_, err := f.s.CreateSession(store.NewSession{
		UserID:    f.user.ID,
		SubjectID: subjectID,
		Duration:  minutes,
		Date:      date,
		Quality:   quality,
	})
	if err != nil {
		t.Fatalf("log session: %v", err)
	}
}

// ============================================================
// Build
// ============================================================

func TestBuildEmpty(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Build(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Streak != 0 || d.TotalHours != 0 {
		t.Fatalf("unexpected streak/hours: %d / %v", d.Streak, d.TotalHours)
	}
	if d.Momentum.Score != 20 {
		t.Fatalf("momentum = %d, want 20", d.Momentum.Score)
	}
	if len(d.WeeklyTrend) != 7 {
		t.Fatalf("weekly trend has %d days, want 7", len(d.WeeklyTrend))
	}
	if len(d.SubjectBreakdown) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(d.SubjectBreakdown))
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"momentum":`, `"streak":0`, `"totalHours":0`, `"activeGoals":[]`, `"upcomingAssignments":[]`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("json missing %s: %s", key, data)
		}
	}
}

func TestBuildTotalsAndBreakdown(t *testing.T) {
	f := newFixture(t)
	f.logSession(t, f.math.ID, refNow, 50, 4)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -1), 45, 3)
	f.logSession(t, f.physics.ID, refNow.AddDate(0, 0, -2), 20, 5)

	d, err := f.svc.Build(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	// 115 minutes = 1.9166 hours
	if d.TotalHours != 1.9 {
		t.Fatalf("total hours = %v, want 1.9", d.TotalHours)
	}
	if d.Streak != 3 {
		t.Fatalf("streak = %d, want 3", d.Streak)
	}
	got := map[string]float64{}
	for _, sh := range d.SubjectBreakdown {
		got[sh.Name] = sh.Hours
	}
	if got["Math"] != 1.6 || got["Physics"] != 0.3 {
		t.Fatalf("breakdown = %v", got)
	}
}

func TestBuildWeeklyTrend(t *testing.T) {
	f := newFixture(t)
	f.logSession(t, f.math.ID, refNow, 30, 3)
	f.logSession(t, f.physics.ID, refNow.Add(-2*time.Hour), 15, 3)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -6), 10, 3)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -7), 99, 3) // outside the week

	d, err := f.svc.Build(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	first, last := d.WeeklyTrend[0], d.WeeklyTrend[6]
	if first.Date != "2026-03-09" || first.Minutes != 10 {
		t.Fatalf("first day = %+v", first)
	}
	if last.Date != "2026-03-15" || last.Minutes != 45 {
		t.Fatalf("last day = %+v", last)
	}
	for _, day := range d.WeeklyTrend[1:6] {
		if day.Minutes != 0 {
			t.Fatalf("expected empty day, got %+v", day)
		}
	}
}

func TestBuildGoalsAndAssignments(t *testing.T) {
	f := newFixture(t)
	for i := range 7 {
		_, err := f.s.CreateGoal(store.NewGoal{
			UserID: f.user.ID, Title: "goal", Type: store.GoalShortTerm,
			TargetValue: 10, Deadline: refNow.AddDate(0, 0, 7-i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	f.s.CreateGoal(store.NewGoal{
		UserID: f.user.ID, Title: "expired", Type: store.GoalShortTerm,
		TargetValue: 10, Deadline: refNow.AddDate(0, 0, -1),
	})
	for i := range 6 {
		_, err := f.s.CreateAssignment(store.NewAssignment{
			UserID: f.user.ID, SubjectID: f.physics.ID, Title: "hw",
			Deadline: refNow.AddDate(0, 0, i+1), MaxScore: 10,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	d, err := f.svc.Build(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.ActiveGoals) != 5 {
		t.Fatalf("expected 5 active goals, got %d", len(d.ActiveGoals))
	}
	for i := 1; i < len(d.ActiveGoals); i++ {
		if d.ActiveGoals[i].Deadline.Before(d.ActiveGoals[i-1].Deadline) {
			t.Fatal("active goals should be sorted by deadline")
		}
	}
	if len(d.UpcomingAssignments) != 5 {
		t.Fatalf("expected 5 upcoming assignments, got %d", len(d.UpcomingAssignments))
	}
	ua := d.UpcomingAssignments[0]
	if ua.SubjectName != "Physics" || ua.SubjectColor != "#0000FF" {
		t.Fatalf("subject not resolved: %+v", ua)
	}
	if !ua.Deadline.Equal(refNow.AddDate(0, 0, 1)) {
		t.Fatalf("soonest deadline first, got %v", ua.Deadline)
	}
}

// ============================================================
// Analytics
// ============================================================

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -2), 30, 2)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -1), 40, 4)
	f.logSession(t, f.physics.ID, refNow.AddDate(0, 0, -1).Add(time.Hour), 20, 5)
	f.logSession(t, f.physics.ID, refNow.AddDate(0, 0, -40), 60, 1) // outside default period

	a, err := f.svc.Analytics(f.user.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.PeriodDays != DefaultPeriodDays {
		t.Fatalf("period = %d, want %d", a.PeriodDays, DefaultPeriodDays)
	}
	if a.TotalSessions != 3 {
		t.Fatalf("total sessions = %d, want 3", a.TotalSessions)
	}
	if a.DailyStats["2026-03-13"] != 30 || a.DailyStats["2026-03-14"] != 60 {
		t.Fatalf("daily stats = %v", a.DailyStats)
	}
	if m := a.SubjectStats["Math"]; m.Minutes != 70 || m.Sessions != 2 || m.Color != "#FF0000" {
		t.Fatalf("math stats = %+v", m)
	}
	if p := a.SubjectStats["Physics"]; p.Minutes != 20 || p.Sessions != 1 {
		t.Fatalf("physics stats = %+v", p)
	}
	if len(a.QualityTrend) != 3 || a.QualityTrend[0].Quality != 2 || a.QualityTrend[2].Quality != 5 {
		t.Fatalf("quality trend should be oldest first: %+v", a.QualityTrend)
	}
}

func TestAnalyticsCustomPeriod(t *testing.T) {
	f := newFixture(t)
	f.logSession(t, f.math.ID, refNow.AddDate(0, 0, -40), 60, 3)
	a, err := f.svc.Analytics(f.user.ID, 90)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalSessions != 1 || a.PeriodDays != 90 {
		t.Fatalf("got %d sessions over %d days", a.TotalSessions, a.PeriodDays)
	}
}

func (f fixture) gradedAssignment(t *testing.T, subjectID int64, deadline time.Time, maxScore, obtained float64) {
	t.Helper()
	a, err := f.s.CreateAssignment(store.NewAssignment{
		UserID: f.user.ID, SubjectID: subjectID, Title: "Task", Deadline: deadline, MaxScore: maxScore,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.s.CompleteAssignment(a.ID, &obtained); err != nil {
		t.Fatal(err)
	}
}

func TestAssignmentAnalytics(t *testing.T) {
	f := newFixture(t)
	f.gradedAssignment(t, f.physics.ID, refNow.AddDate(0, 0, -3), 50, 40)
	f.gradedAssignment(t, f.math.ID, refNow.AddDate(0, 0, -5), 100, 70)
	f.gradedAssignment(t, f.math.ID, refNow.AddDate(0, 0, -1), 20, 19)

	// Completed without a score and still open: both left out.
	ungraded, _ := f.s.CreateAssignment(store.NewAssignment{
		UserID: f.user.ID, SubjectID: f.math.ID, Title: "Essay", Deadline: refNow, MaxScore: 10,
	})
	if err := f.s.CompleteAssignment(ungraded.ID, nil); err != nil {
		t.Fatal(err)
	}
	f.s.CreateAssignment(store.NewAssignment{
		UserID: f.user.ID, SubjectID: f.physics.ID, Title: "Lab", Deadline: refNow, MaxScore: 10,
	})

	got, err := f.svc.AssignmentAnalytics(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d subjects, want 2: %+v", len(got), got)
	}
	m, p := got[0], got[1]
	if m.Subject != "Math" || p.Subject != "Physics" {
		t.Fatalf("order = %s, %s", m.Subject, p.Subject)
	}
	// (70 + 95) / 2 = 82.5 rounds to 83.
	if m.Count != 2 || m.Average != 83 || m.Color != "#FF0000" {
		t.Fatalf("math = %+v", m)
	}
	if len(m.Scores) != 2 || m.Scores[0] != 70 || m.Scores[1] != 95 {
		t.Fatalf("math scores = %v, want [70 95]", m.Scores)
	}
	if p.Count != 1 || p.Average != 80 {
		t.Fatalf("physics = %+v", p)
	}
}

func TestAssignmentAnalyticsEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.AssignmentAnalytics(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %+v, want empty slice", got)
	}
}

func TestBuildBreakdownIncludesArchived(t *testing.T) {
	f := newFixture(t)
	f.logSession(t, f.math.ID, refNow, 60, 3)
	f.logSession(t, f.physics.ID, refNow, 30, 3)
	if err := f.s.ArchiveSubject(f.physics.ID); err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.Build(f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, sh := range d.SubjectBreakdown {
		sum += sh.Hours
	}
	if len(d.SubjectBreakdown) != 2 || sum != d.TotalHours {
		t.Fatalf("breakdown %+v sums to %v, total %v", d.SubjectBreakdown, sum, d.TotalHours)
	}
}

func TestHours(t *testing.T) {
	tests := []struct {
		minutes int
		want    float64
	}{
		{0, 0},
		{60, 1},
		{90, 1.5},
		{100, 1.7},
		{115, 1.9},
	}
	for _, tt := range tests {
		if got := hours(tt.minutes); got != tt.want {
			t.Errorf("hours(%d) = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}
