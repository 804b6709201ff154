package store

import "time"

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const (
	GoalShortTerm = "short-term"
	GoalLongTerm  = "long-term"
)

const (
	NotifyStudyReminder    = "study_reminder"
	NotifyDeadlineReminder = "deadline_reminder"
	NotifyGoalReminder     = "goal_reminder"
	NotifyAchievement      = "achievement"
)

// Status filters shared by goal and assignment listings.
const (
	StatusAll       = ""
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"createdAt"`
}

type Subject struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	TargetHours float64   `json:"targetHours"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type StudySession struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	SubjectID int64     `json:"subjectId"`
	Duration  int       `json:"duration"` // minutes
	Notes     string    `json:"notes"`
	Date      time.Time `json:"date"`
	Quality   int       `json:"quality"` // 1-5
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Goal struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	TargetValue  float64    `json:"targetValue"`
	CurrentValue float64    `json:"currentValue"`
	Unit         string     `json:"unit"`
	Deadline     time.Time  `json:"deadline"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Progress is the completion percentage, capped at 100.
func (g Goal) Progress() int {
	if g.TargetValue <= 0 {
		return 0
	}
	p := int(g.CurrentValue/g.TargetValue*100 + 0.5)
	if p > 100 {
		return 100
	}
	return p
}

type Assignment struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"userId"`
	SubjectID     int64      `json:"subjectId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Deadline      time.Time  `json:"deadline"`
	MaxScore      float64    `json:"maxScore"`
	ObtainedScore *float64   `json:"obtainedScore"`
	IsCompleted   bool       `json:"isCompleted"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Percentage returns the obtained score as a rounded percentage, or nil when
// the assignment has not been graded.
func (a Assignment) Percentage() *int {
	if a.ObtainedScore == nil || a.MaxScore <= 0 {
		return nil
	}
	p := int(*a.ObtainedScore/a.MaxScore*100 + 0.5)
	return &p
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type PomodoroSession struct {
	ID             int64
	UserID         string
	SubjectID      *int64
	WorkDuration   int
	BreakDuration  int
	CompletedCount int
	TargetCount    int
	Status         string // idle, working, short_break, long_break, completed, cancelled
	StartedAt      time.Time
	CompletedAt    *time.Time
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter study sessions in queries. From and To are
// inclusive; Before is exclusive.
type SessionFilter struct {
	UserID    string
	SubjectID *int64
	From      *time.Time
	To        *time.Time
	Before    *time.Time
	Limit     int
}

// DailyMinutes is the study time for one subject on one UTC day.
type DailyMinutes struct {
	Date         string
	SubjectID    int64
	SubjectName  string
	SubjectColor string
	Minutes      int
	SessionCount int
}

// SubjectTotal is the all-time study time for one subject.
type SubjectTotal struct {
	SubjectID int64
	Name      string
	Color     string
	Minutes   int
	Sessions  int
}
