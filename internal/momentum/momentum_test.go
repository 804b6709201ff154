package momentum

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/sadopc/studytrackr/internal/store"
)

var refNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

func daysAgo(n int) time.Time {
	return refNow.AddDate(0, 0, -n)
}

func session(date time.Time, minutes int) store.StudySession {
	return store.StudySession{Date: date, Duration: minutes, Quality: 3}
}

func score(v float64) *float64 { return &v }

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

// ============================================================
// Consistency
// ============================================================

func TestConsistencyScoreEmpty(t *testing.T) {
	if got := ConsistencyScore(nil); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestConsistencyScoreCountsDistinctDays(t *testing.T) {
	var sessions []store.StudySession
	for i := range 12 {
		sessions = append(sessions, session(daysAgo(i), 30))
		// A second session on the same day must not count twice.
		sessions = append(sessions, session(daysAgo(i).Add(-time.Hour), 10))
	}
	if got := ConsistencyScore(sessions); got != 60 {
		t.Fatalf("got %v, want 60", got)
	}
}

func TestConsistencyScoreSaturates(t *testing.T) {
	for _, n := range []int{20, 25, 30} {
		var sessions []store.StudySession
		for i := range n {
			sessions = append(sessions, session(daysAgo(i), 30))
		}
		if got := ConsistencyScore(sessions); got != 100 {
			t.Errorf("%d days: got %v, want 100", n, got)
		}
	}
}

// ============================================================
// Study trend
// ============================================================

func TestStudyTrendScore(t *testing.T) {
	from := refNow.Add(-Window)
	tests := []struct {
		name     string
		sessions []store.StudySession
		want     float64
	}{
		{"no sessions", nil, 0},
		{"only second half", []store.StudySession{session(daysAgo(3), 30)}, 100},
		{"flat", []store.StudySession{session(daysAgo(20), 30), session(daysAgo(2), 30)}, 50},
		{"up by half", []store.StudySession{session(daysAgo(20), 30), session(daysAgo(2), 45)}, 100},
		{"down by quarter", []store.StudySession{session(daysAgo(20), 40), session(daysAgo(2), 30)}, 25},
		{"only first half", []store.StudySession{session(daysAgo(25), 60)}, 0},
		{"averages per half", []store.StudySession{
			session(daysAgo(25), 20), session(daysAgo(20), 40),
			session(daysAgo(5), 30), session(daysAgo(4), 30), session(daysAgo(3), 30),
		}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StudyTrendScore(tt.sessions, from, refNow); !approx(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStudyTrendMidpointBelongsToSecondHalf(t *testing.T) {
	from := refNow.Add(-Window)
	mid := from.Add(Window / 2)
	got := StudyTrendScore([]store.StudySession{session(mid, 30)}, from, refNow)
	if got != 100 {
		t.Fatalf("session at the midpoint should count as second half, got %v", got)
	}
}

// ============================================================
// Goals
// ============================================================

func TestGoalCompletionScore(t *testing.T) {
	future := daysAgo(-5)
	past := daysAgo(5)
	tests := []struct {
		name  string
		goals []store.Goal
		want  float64
	}{
		{"no goals", nil, 50},
		{"all completed", []store.Goal{{IsCompleted: true, TargetValue: 1}}, 60},
		{"half done, half in progress", []store.Goal{
			{IsCompleted: true, TargetValue: 10, Deadline: past},
			{TargetValue: 10, CurrentValue: 5, Deadline: future},
		}, 50},
		{"overdue goal has no progress credit", []store.Goal{
			{IsCompleted: true, TargetValue: 10, Deadline: past},
			{TargetValue: 10, CurrentValue: 9, Deadline: past},
		}, 30},
		{"overachieving is clamped", []store.Goal{
			{TargetValue: 10, CurrentValue: 300, Deadline: future},
		}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GoalCompletionScore(tt.goals, refNow); !approx(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================
// Assignments
// ============================================================

func TestAssignmentScore(t *testing.T) {
	tests := []struct {
		name        string
		assignments []store.Assignment
		want        float64
	}{
		{"none", nil, 50},
		{"ungraded only", []store.Assignment{{IsCompleted: true, MaxScore: 10}}, 50},
		{"average", []store.Assignment{
			{IsCompleted: true, MaxScore: 10, ObtainedScore: score(8)},
			{IsCompleted: true, MaxScore: 20, ObtainedScore: score(12)},
			{IsCompleted: false, MaxScore: 10, ObtainedScore: score(0)},
		}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssignmentScore(tt.assignments); !approx(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================
// Previous score and suggestions
// ============================================================

func TestPreviousScore(t *testing.T) {
	if got := PreviousScore(6); got != 60 {
		t.Fatalf("6 older sessions: got %d, want 60", got)
	}
	if got := PreviousScore(5); got != 40 {
		t.Fatalf("5 older sessions: got %d, want 40", got)
	}
	if got := PreviousScore(0); got != 40 {
		t.Fatalf("no older sessions: got %d, want 40", got)
	}
}

func TestSuggestionsExcellent(t *testing.T) {
	got := Suggestions(85, Scores{Consistency: 90, StudyTrend: 80, GoalCompletion: 60, AssignmentPerformance: 60})
	want := []string{MsgExcellent}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSuggestionsOrder(t *testing.T) {
	got := Suggestions(20, Scores{Consistency: 10, StudyTrend: 10, GoalCompletion: 10, AssignmentPerformance: 10})
	want := []string{MsgBelowOptimal, MsgStudyMoreDays, MsgIncreaseTime, MsgRealisticGoal, MsgReviewTopics}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSuggestionsThresholds(t *testing.T) {
	// Exactly on every threshold.
	got := Suggestions(60, Scores{Consistency: 50, StudyTrend: 50, GoalCompletion: 50, AssignmentPerformance: 60})
	if len(got) != 0 {
		t.Fatalf("expected no suggestions, got %q", got)
	}
	got = Suggestions(80, Scores{Consistency: 100, StudyTrend: 100, GoalCompletion: 100, AssignmentPerformance: 59})
	want := []string{MsgReviewTopics, MsgExcellent}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWeightsCombine(t *testing.T) {
	s := Scores{Consistency: 100, StudyTrend: 50, GoalCompletion: 50, AssignmentPerformance: 0}
	if got := DefaultWeights().Combine(s); !approx(got, 55) {
		t.Fatalf("got %v, want 55", got)
	}
}

// ============================================================
// Engine
// ============================================================

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fixture struct {
	s       *store.Store
	user    *store.User
	subject *store.Subject
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := newTestStore(t)
	u, err := s.CreateUser("alice")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := s.CreateSubject(u.ID, store.NewSubject{Name: "Math"})
	if err != nil {
		t.Fatal(err)
	}
	return fixture{s: s, user: u, subject: sub}
}

func (f fixture) logSession(t *testing.T, date time.Time, minutes int) {
	t.Helper()
	_, err := f.s.CreateSession(store.NewSession{
		UserID:    f.user.ID,
		SubjectID: f.subject.ID,
		Duration:  minutes,
		Date:      date,
	})
	if err != nil {
		t.Fatalf("log session: %v", err)
	}
}

func TestComputeNoActivity(t *testing.T) {
	f := newFixture(t)
	e := New(f.s, WithClock(fixedClock))

	res := e.Compute(f.user.ID)
	if res.Score != 20 {
		t.Fatalf("score = %d, want 20", res.Score)
	}
	if res.Trend != Declining {
		t.Fatalf("trend = %q, want declining", res.Trend)
	}
	want := map[Component]int{Consistency: 0, StudyTrend: 0, GoalCompletion: 50, AssignmentPerformance: 50}
	if !reflect.DeepEqual(res.Breakdown, want) {
		t.Fatalf("breakdown = %v, want %v", res.Breakdown, want)
	}
	wantSuggestions := []string{MsgBelowOptimal, MsgStudyMoreDays, MsgIncreaseTime, MsgReviewTopics}
	if !reflect.DeepEqual(res.Suggestions, wantSuggestions) {
		t.Fatalf("suggestions = %q", res.Suggestions)
	}
}

func TestComputeRecentOnlyActivity(t *testing.T) {
	f := newFixture(t)
	for i := range 10 {
		f.logSession(t, daysAgo(i), 30)
	}
	e := New(f.s, WithClock(fixedClock))

	res := e.Compute(f.user.ID)
	if res.Breakdown[StudyTrend] != 100 {
		t.Fatalf("study trend = %d, want 100", res.Breakdown[StudyTrend])
	}
	if res.Breakdown[Consistency] != 50 {
		t.Fatalf("consistency = %d, want 50", res.Breakdown[Consistency])
	}
	if res.Score != 65 {
		t.Fatalf("score = %d, want 65", res.Score)
	}
	if res.Trend != Improving {
		t.Fatalf("trend = %q, want improving", res.Trend)
	}
}

func TestComputeTwentyDaysSaturatesConsistency(t *testing.T) {
	f := newFixture(t)
	for i := range 20 {
		f.logSession(t, daysAgo(i), 30)
	}
	res := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	if res.Breakdown[Consistency] != 100 {
		t.Fatalf("consistency = %d, want 100", res.Breakdown[Consistency])
	}
}

// Six days split evenly across the halves with equal lengths:
// consistency 30, trend 50, goals 50, assignments 50 => 9+15+10+10 = 44.
func logEvenMonth(t *testing.T, f fixture) {
	t.Helper()
	for _, d := range []int{25, 22, 18, 10, 5, 1} {
		f.logSession(t, daysAgo(d), 30)
	}
}

func TestComputeQuietHistoryImproves(t *testing.T) {
	f := newFixture(t)
	logEvenMonth(t, f)
	res := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	if res.Score != 44 {
		t.Fatalf("score = %d, want 44", res.Score)
	}
	// Four sessions predate the last week, so the baseline is 40.
	if res.Trend != Improving {
		t.Fatalf("trend = %q, want improving", res.Trend)
	}
}

func TestComputeBusyHistoryDeclines(t *testing.T) {
	f := newFixture(t)
	logEvenMonth(t, f)
	f.logSession(t, daysAgo(40), 30)
	f.logSession(t, daysAgo(41), 30)
	res := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	if res.Score != 44 {
		t.Fatalf("score = %d, want 44", res.Score)
	}
	// Six older sessions lift the baseline to 60.
	if res.Trend != Declining {
		t.Fatalf("trend = %q, want declining", res.Trend)
	}
}

func TestComputeStableTrend(t *testing.T) {
	f := newFixture(t)
	// No activity: goals and assignments sit at 50, so 0.4*50+0.4*50 = 40.
	e := New(f.s, WithClock(fixedClock), WithWeights(Weights{Consistency: 0.2, GoalCompletion: 0.4, AssignmentPerformance: 0.4}))
	res := e.Compute(f.user.ID)
	if res.Score != 40 || res.Trend != Stable {
		t.Fatalf("got score %d trend %q, want 40 stable", res.Score, res.Trend)
	}
}

func TestComputeWithGoalsAndAssignments(t *testing.T) {
	f := newFixture(t)
	g, err := f.s.CreateGoal(store.NewGoal{
		UserID: f.user.ID, Title: "Finish book", Type: store.GoalShortTerm,
		TargetValue: 10, Deadline: daysAgo(-7),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.s.CompleteGoal(g.ID); err != nil {
		t.Fatal(err)
	}
	a, err := f.s.CreateAssignment(store.NewAssignment{
		UserID: f.user.ID, SubjectID: f.subject.ID, Title: "Quiz",
		Deadline: daysAgo(1), MaxScore: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.s.CompleteAssignment(a.ID, score(9)); err != nil {
		t.Fatal(err)
	}

	res := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	if res.Breakdown[GoalCompletion] != 60 {
		t.Fatalf("goal completion = %d, want 60", res.Breakdown[GoalCompletion])
	}
	if res.Breakdown[AssignmentPerformance] != 90 {
		t.Fatalf("assignment performance = %d, want 90", res.Breakdown[AssignmentPerformance])
	}
	// 0.2*60 + 0.2*90 = 30
	if res.Score != 30 {
		t.Fatalf("score = %d, want 30", res.Score)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	for _, d := range []int{1, 3, 17, 21} {
		f.logSession(t, daysAgo(d), 20+d)
	}
	e := New(f.s, WithClock(fixedClock))
	first := e.Compute(f.user.ID)
	second := e.Compute(f.user.ID)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestComputeCustomWeights(t *testing.T) {
	f := newFixture(t)
	e := New(f.s, WithClock(fixedClock), WithWeights(Weights{GoalCompletion: 1}))
	res := e.Compute(f.user.ID)
	if res.Score != 50 {
		t.Fatalf("score = %d, want 50", res.Score)
	}
	if e.Weights().GoalCompletion != 1 {
		t.Fatal("weights not applied")
	}

	for i := range 10 {
		f.logSession(t, daysAgo(i), 30)
	}
	want := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	for _, w := range []Weights{
		{Consistency: 1, StudyTrend: 1, GoalCompletion: 1, AssignmentPerformance: 1},
		{Consistency: 2, StudyTrend: -1},
		{StudyTrend: 0.5},
	} {
		e := New(f.s, WithClock(fixedClock), WithWeights(w))
		if e.Weights() != DefaultWeights() {
			t.Errorf("%+v: weights kept, want defaults", w)
		}
		res := e.Compute(f.user.ID)
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("%+v: score %d outside [0,100]", w, res.Score)
		}
		if res.Score != want.Score {
			t.Errorf("%+v: score %d, want %d", w, res.Score, want.Score)
		}
	}
}

func TestWeightsValid(t *testing.T) {
	tests := []struct {
		name string
		w    Weights
		want bool
	}{
		{"defaults", DefaultWeights(), true},
		{"single factor", Weights{StudyTrend: 1}, true},
		{"over unity", Weights{1, 1, 1, 1}, false},
		{"under unity", Weights{GoalCompletion: 0.8}, false},
		{"negative factor", Weights{Consistency: 1.5, StudyTrend: -0.5}, false},
		{"nan", Weights{Consistency: math.NaN(), StudyTrend: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Valid(); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeScoreInRange(t *testing.T) {
	f := newFixture(t)
	for i := range 30 {
		f.logSession(t, daysAgo(i), 240)
	}
	f.logSession(t, daysAgo(29), 1)
	res := New(f.s, WithClock(fixedClock)).Compute(f.user.ID)
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score out of range: %d", res.Score)
	}
	for k, v := range res.Breakdown {
		if v < 0 || v > 100 {
			t.Fatalf("%s out of range: %d", k, v)
		}
	}
}

// ============================================================
// Fallback
// ============================================================

type failingSource struct {
	err   error
	panic bool
}

func (f failingSource) ListSessions(store.SessionFilter) ([]store.StudySession, error) {
	if f.panic {
		panic("boom")
	}
	return nil, f.err
}

func (f failingSource) ListGoals(string, store.GoalFilter) ([]store.Goal, error) {
	return nil, f.err
}

func (f failingSource) ListScoredAssignments(string) ([]store.Assignment, error) {
	return nil, f.err
}

func assertNeutral(t *testing.T, res Result) {
	t.Helper()
	if !reflect.DeepEqual(res, Neutral()) {
		t.Fatalf("expected neutral result, got %+v", res)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"score":0,"trend":"stable","breakdown":{},"suggestions":[]}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}

func TestComputeStoreErrorIsNeutral(t *testing.T) {
	e := New(failingSource{err: errors.New("db down")}, WithClock(fixedClock))
	assertNeutral(t, e.Compute("u1"))
}

func TestComputePanicIsNeutral(t *testing.T) {
	e := New(failingSource{panic: true}, WithClock(fixedClock))
	assertNeutral(t, e.Compute("u1"))
}

type nanSource struct{}

func (nanSource) ListSessions(store.SessionFilter) ([]store.StudySession, error) {
	return nil, nil
}

func (nanSource) ListGoals(string, store.GoalFilter) ([]store.Goal, error) {
	return nil, nil
}

func (nanSource) ListScoredAssignments(string) ([]store.Assignment, error) {
	nan := 0.0
	nan = nan / nan
	return []store.Assignment{{IsCompleted: true, MaxScore: 10, ObtainedScore: &nan}}, nil
}

func TestComputeNaNIsNeutral(t *testing.T) {
	e := New(nanSource{}, WithClock(fixedClock))
	assertNeutral(t, e.Compute("u1"))
}

func TestStreakStoreError(t *testing.T) {
	e := New(failingSource{err: errors.New("db down")}, WithClock(fixedClock))
	if _, err := e.Streak("u1"); err == nil {
		t.Fatal("expected error")
	}
}
