package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) StartPomodoro(userID string, subjectID *int64, workDuration, breakDuration, targetCount int) (*PomodoroSession, error) {
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO pomodoro_sessions (user_id, subject_id, work_duration, break_duration, target_count, status, started_at)
		 VALUES (?, ?, ?, ?, ?, 'working', ?)`,
		userID, subjectID, workDuration, breakDuration, targetCount, now,
	)
	if err != nil {
		return nil, fmt.Errorf("start pomodoro: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetPomodoro(id)
}

func (s *Store) GetPomodoro(id int64) (*PomodoroSession, error) {
	p := &PomodoroSession{}
	var startedAt string
	var completedAt sql.NullString
	var subjectID sql.NullInt64

	err := s.db.QueryRow(
		`SELECT id, user_id, subject_id, work_duration, break_duration, completed_count, target_count, status, started_at, completed_at
		 FROM pomodoro_sessions WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &subjectID, &p.WorkDuration, &p.BreakDuration, &p.CompletedCount, &p.TargetCount, &p.Status, &startedAt, &completedAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("get pomodoro %d", id), err)
	}
	if subjectID.Valid {
		p.SubjectID = &subjectID.Int64
	}
	p.StartedAt = parseTime(startedAt)
	p.CompletedAt = parseNullTime(completedAt)
	return p, nil
}

func (s *Store) CompletePomodoro(id int64) error {
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`UPDATE pomodoro_sessions SET status = 'completed', completed_at = ?, completed_count = target_count WHERE id = ?`,
		now, id,
	)
	return err
}

func (s *Store) IncrementPomodoro(id int64) error {
	_, err := s.db.Exec(
		`UPDATE pomodoro_sessions SET completed_count = completed_count + 1 WHERE id = ?`, id,
	)
	return err
}

func (s *Store) UpdatePomodoroStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE pomodoro_sessions SET status = ? WHERE id = ?`, status, id,
	)
	return err
}

func (s *Store) CancelPomodoro(id int64) error {
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`UPDATE pomodoro_sessions SET status = 'cancelled', completed_at = ? WHERE id = ?`,
		now, id,
	)
	return err
}

// GetPomodoroStats counts a user's completed pomodoro sessions started in
// [from, to) and the work seconds they represent.
func (s *Store) GetPomodoroStats(userID string, from, to time.Time) (completed int, totalWork int64, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(work_duration * completed_count), 0)
		FROM pomodoro_sessions
		WHERE user_id = ? AND status = 'completed'
		  AND started_at >= ? AND started_at < ?`,
		userID, formatTime(from), formatTime(to),
	).Scan(&completed, &totalWork)
	return
}
