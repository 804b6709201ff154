// Package momentum turns a student's recent activity into a 0-100 score with
// a trend label and suggestions, and computes study streaks.
package momentum

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	// Window is the lookback used by the consistency and study-trend scores.
	Window = 30 * 24 * time.Hour

	windowDays       = 30
	previousCutoff   = 7 * 24 * time.Hour
	previousSample   = 10
	previousBusyMark = 5
	weightTolerance  = 1e-9
)

// Source is the read side of the store the engine needs. *store.Store
// satisfies it.
type Source interface {
	ListSessions(f store.SessionFilter) ([]store.StudySession, error)
	ListGoals(userID string, f store.GoalFilter) ([]store.Goal, error)
	ListScoredAssignments(userID string) ([]store.Assignment, error)
}

// Trend compares the current score with the estimated previous one.
type Trend string

const (
	Improving Trend = "improving"
	Declining Trend = "declining"
	Stable    Trend = "stable"
)

// Component names a sub-score in Result.Breakdown.
type Component string

const (
	Consistency           Component = "consistency"
	StudyTrend            Component = "studyTrend"
	GoalCompletion        Component = "goalCompletion"
	AssignmentPerformance Component = "assignmentPerformance"
)

// Weights are the factors applied to each sub-score. They should sum to 1.
type Weights struct {
	Consistency           float64
	StudyTrend            float64
	GoalCompletion        float64
	AssignmentPerformance float64
}

// DefaultWeights favours consistency and study trend over goals and grades.
func DefaultWeights() Weights {
	return Weights{
		Consistency:           0.3,
		StudyTrend:            0.3,
		GoalCompletion:        0.2,
		AssignmentPerformance: 0.2,
	}
}

// Valid reports whether every factor is non-negative and they sum to 1.
func (w Weights) Valid() bool {
	for _, v := range []float64{w.Consistency, w.StudyTrend, w.GoalCompletion, w.AssignmentPerformance} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	sum := w.Consistency + w.StudyTrend + w.GoalCompletion + w.AssignmentPerformance
	return math.Abs(sum-1) <= weightTolerance
}

// Combine returns the weighted sum of s, unrounded.
func (w Weights) Combine(s Scores) float64 {
	return s.Consistency*w.Consistency +
		s.StudyTrend*w.StudyTrend +
		s.GoalCompletion*w.GoalCompletion +
		s.AssignmentPerformance*w.AssignmentPerformance
}

// Scores holds the four unrounded sub-scores.
type Scores struct {
	Consistency           float64
	StudyTrend            float64
	GoalCompletion        float64
	AssignmentPerformance float64
}

func (s Scores) finite() bool {
	for _, v := range []float64{s.Consistency, s.StudyTrend, s.GoalCompletion, s.AssignmentPerformance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s Scores) breakdown() map[Component]int {
	return map[Component]int{
		Consistency:           int(math.Round(s.Consistency)),
		StudyTrend:            int(math.Round(s.StudyTrend)),
		GoalCompletion:        int(math.Round(s.GoalCompletion)),
		AssignmentPerformance: int(math.Round(s.AssignmentPerformance)),
	}
}

// Result is the outcome of Compute, shaped for JSON export.
type Result struct {
	Score       int               `json:"score"`
	Trend       Trend             `json:"trend"`
	Breakdown   map[Component]int `json:"breakdown"`
	Suggestions []string          `json:"suggestions"`
}

// Neutral is the result reported when a score cannot be computed.
func Neutral() Result {
	return Result{
		Score:       0,
		Trend:       Stable,
		Breakdown:   map[Component]int{},
		Suggestions: []string{},
	}
}

// Engine computes momentum and streaks from a Source.
type Engine struct {
	src     Source
	weights Weights
	now     func() time.Time
	log     *logger.Logger
}

type Option func(*Engine)

// WithWeights overrides DefaultWeights. Weights that fail Valid are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:     src,
		weights: DefaultWeights(),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.weights.Valid() {
		e.log.Warn("ignoring invalid momentum weights", "weights", e.weights)
		e.weights = DefaultWeights()
	}
	return e
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// Compute scores a user's momentum. It never fails: any store error or bad
// arithmetic yields Neutral().
func (e *Engine) Compute(userID string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("momentum computation panicked", "user", userID, "panic", fmt.Sprint(r))
			res = Neutral()
		}
	}()

	now := e.now().UTC()
	scores, olderCount, err := e.collect(userID, now)
	if err != nil {
		e.log.Warn("momentum falling back to neutral", "user", userID, "error", err)
		return Neutral()
	}
	if !scores.finite() {
		e.log.Warn("momentum produced non-finite sub-score", "user", userID, "scores", scores)
		return Neutral()
	}

	composite := int(math.Round(clamp(e.weights.Combine(scores))))
	previous := PreviousScore(olderCount)

	trend := Stable
	switch {
	case composite > previous:
		trend = Improving
	case composite < previous:
		trend = Declining
	}

	res = Result{
		Score:       composite,
		Trend:       trend,
		Breakdown:   scores.breakdown(),
		Suggestions: Suggestions(composite, scores),
	}
	e.log.Debug("momentum computed", "user", userID, "score", res.Score, "trend", res.Trend)
	return res
}

func (e *Engine) collect(userID string, now time.Time) (Scores, int, error) {
	from := now.Add(-Window)
	recent, err := e.src.ListSessions(store.SessionFilter{UserID: userID, From: &from, To: &now})
	if err != nil {
		return Scores{}, 0, fmt.Errorf("recent sessions: %w", err)
	}
	goals, err := e.src.ListGoals(userID, store.GoalFilter{})
	if err != nil {
		return Scores{}, 0, fmt.Errorf("goals: %w", err)
	}
	assignments, err := e.src.ListScoredAssignments(userID)
	if err != nil {
		return Scores{}, 0, fmt.Errorf("scored assignments: %w", err)
	}
	cutoff := now.Add(-previousCutoff)
	older, err := e.src.ListSessions(store.SessionFilter{UserID: userID, Before: &cutoff, Limit: previousSample})
	if err != nil {
		return Scores{}, 0, fmt.Errorf("older sessions: %w", err)
	}

	return Scores{
		Consistency:           ConsistencyScore(recent),
		StudyTrend:            StudyTrendScore(recent, from, now),
		GoalCompletion:        GoalCompletionScore(goals, now),
		AssignmentPerformance: AssignmentScore(assignments),
	}, len(older), nil
}

// Streak counts consecutive study days ending today or yesterday.
func (e *Engine) Streak(userID string) (int, error) {
	sessions, err := e.src.ListSessions(store.SessionFilter{UserID: userID})
	if err != nil {
		return 0, fmt.Errorf("streak sessions: %w", err)
	}
	dates := make([]time.Time, len(sessions))
	for i, ss := range sessions {
		dates[i] = ss.Date
	}
	return StreakFromDates(dates, e.now()), nil
}
