package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const goalColumns = `id, user_id, title, description, type, target_value, current_value, unit, deadline, is_completed, completed_at, created_at, updated_at`

// GoalFilter narrows ListGoals. Status is StatusActive, StatusCompleted or
// StatusAll; active here only means "not completed".
type GoalFilter struct {
	Type   string
	Status string
}

func (s *Store) CreateGoal(in NewGoal) (*Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput("insert goal", in); err != nil {
		return nil, err
	}
	if in.Unit == "" {
		in.Unit = "hours"
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO goals (user_id, title, description, type, target_value, unit, deadline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Title, in.Description, in.Type, in.TargetValue, in.Unit, formatTime(in.Deadline), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetGoal(id)
}

func (s *Store) GetGoal(id int64) (*Goal, error) {
	g, err := scanGoal(s.db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(fmt.Sprintf("get goal %d", id), err)
	}
	return g, nil
}

// ListGoals returns a user's goals ordered by deadline.
func (s *Store) ListGoals(userID string, f GoalFilter) ([]Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	switch f.Status {
	case StatusCompleted:
		query += ` AND is_completed = 1`
	case StatusActive, StatusPending:
		query += ` AND is_completed = 0`
	}
	query += ` ORDER BY deadline, id`
	return s.queryGoals(query, args...)
}

// ListActiveGoals returns incomplete goals whose deadline is at or after now.
func (s *Store) ListActiveGoals(userID string, now time.Time, limit int) ([]Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? AND is_completed = 0 AND deadline >= ? ORDER BY deadline, id`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	return s.queryGoals(query, userID, formatTime(now))
}

// ListGoalsDueBetween returns incomplete goals of every user with
// from <= deadline <= to.
func (s *Store) ListGoalsDueBetween(from, to time.Time) ([]Goal, error) {
	return s.queryGoals(
		`SELECT `+goalColumns+` FROM goals WHERE is_completed = 0 AND deadline >= ? AND deadline <= ? ORDER BY deadline, id`,
		formatTime(from), formatTime(to),
	)
}

func (s *Store) UpdateGoalProgress(id int64, current float64) error {
	if current < 0 {
		return fmt.Errorf("update goal %d: %w: negative progress", id, ErrInvalidInput)
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(`UPDATE goals SET current_value = ?, updated_at = ? WHERE id = ?`, current, now, id)
	if err != nil {
		return fmt.Errorf("update goal %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update goal %d: %w", id, ErrNotFound)
	}
	return nil
}

// CompleteGoal marks a goal completed. newly is false when it already was.
func (s *Store) CompleteGoal(id int64) (g *Goal, newly bool, err error) {
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`UPDATE goals SET is_completed = 1, completed_at = ?, updated_at = ? WHERE id = ? AND is_completed = 0`,
		now, now, id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("complete goal %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	g, err = s.GetGoal(id)
	if err != nil {
		return nil, false, err
	}
	return g, n > 0, nil
}

func (s *Store) DeleteGoal(id int64) error {
	res, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete goal %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) queryGoals(query string, args ...any) ([]Goal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func scanGoal(row rowScanner) (*Goal, error) {
	g := &Goal{}
	var deadline, createdAt, updatedAt string
	var completed int
	var completedAt sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Type, &g.TargetValue, &g.CurrentValue,
		&g.Unit, &deadline, &completed, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	g.Deadline = parseTime(deadline)
	g.IsCompleted = completed == 1
	g.CompletedAt = parseNullTime(completedAt)
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}
