package momentum

import (
	"time"

	"github.com/sadopc/studytrackr/internal/store"
)

const (
	MsgBelowOptimal  = "Your momentum is below optimal. Focus on building consistency."
	MsgStudyMoreDays = "Try to study at least 5 days a week to improve consistency."
	MsgIncreaseTime  = "Gradually increase your daily study time."
	MsgRealisticGoal = "Set realistic goals and track your progress regularly."
	MsgReviewTopics  = "Review difficult topics and seek help when needed."
	MsgExcellent     = "Excellent momentum! Keep up the great work."
)

// neutralScore is used when a user has nothing to measure yet.
const neutralScore = 50.0

// ConsistencyScore rewards distinct study days in the window, saturating at
// 20 days.
func ConsistencyScore(sessions []store.StudySession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	days := make(map[time.Time]struct{})
	for _, ss := range sessions {
		days[dayOf(ss.Date)] = struct{}{}
	}
	// rate*1.5 with the boost applied before dividing keeps whole-day
	// counts exact.
	boosted := float64(len(days)) * 100 * 1.5 / windowDays
	return min(boosted, 100)
}

// StudyTrendScore compares the average session length in the two halves of
// [from, now]. An unchanged average scores 50.
func StudyTrendScore(sessions []store.StudySession, from, now time.Time) float64 {
	if len(sessions) == 0 {
		return 0
	}
	mid := from.Add(now.Sub(from) / 2)

	var firstSum, secondSum, firstN, secondN int
	for _, ss := range sessions {
		if ss.Date.Before(mid) {
			firstSum += ss.Duration
			firstN++
		} else {
			secondSum += ss.Duration
			secondN++
		}
	}
	firstAvg := float64(firstSum) / float64(max(firstN, 1))
	secondAvg := float64(secondSum) / float64(max(secondN, 1))

	if firstAvg == 0 {
		if secondAvg > 0 {
			return 100
		}
		return 0
	}
	improvement := (secondAvg - firstAvg) / firstAvg * 100
	return clamp(50 + improvement)
}

// GoalCompletionScore blends the all-time completion rate with progress on
// goals still open.
func GoalCompletionScore(goals []store.Goal, now time.Time) float64 {
	if len(goals) == 0 {
		return neutralScore
	}

	var completed, active int
	var progress float64
	for _, g := range goals {
		if g.IsCompleted {
			completed++
			continue
		}
		if g.Deadline.After(now) && g.TargetValue > 0 {
			progress += g.CurrentValue / g.TargetValue
			active++
		}
	}

	completionRate := float64(completed) / float64(len(goals)) * 100
	var activeAvg float64
	if active > 0 {
		activeAvg = progress / float64(active) * 100
	}
	return clamp(completionRate*0.6 + activeAvg*0.4)
}

// AssignmentScore averages the percentage obtained on graded, completed
// assignments.
func AssignmentScore(assignments []store.Assignment) float64 {
	var sum float64
	var n int
	for _, a := range assignments {
		if !a.IsCompleted || a.ObtainedScore == nil || a.MaxScore <= 0 {
			continue
		}
		sum += *a.ObtainedScore / a.MaxScore * 100
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return clamp(sum / float64(n))
}

// PreviousScore is the baseline the composite is compared against to pick a
// trend. It only looks at how many sessions predate the last week.
func PreviousScore(olderSessions int) int {
	if olderSessions > previousBusyMark {
		return 60
	}
	return 40
}

// Suggestions lists advice for the weak spots in s, in a fixed order.
func Suggestions(composite int, s Scores) []string {
	out := []string{}
	if composite < 60 {
		out = append(out, MsgBelowOptimal)
	}
	if s.Consistency < 50 {
		out = append(out, MsgStudyMoreDays)
	}
	if s.StudyTrend < 50 {
		out = append(out, MsgIncreaseTime)
	}
	if s.GoalCompletion < 50 {
		out = append(out, MsgRealisticGoal)
	}
	if s.AssignmentPerformance < 60 {
		out = append(out, MsgReviewTopics)
	}
	if composite >= 80 {
		out = append(out, MsgExcellent)
	}
	return out
}

func clamp(v float64) float64 {
	return max(0, min(v, 100))
}
