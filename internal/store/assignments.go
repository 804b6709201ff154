package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const assignmentColumns = `id, user_id, subject_id, title, description, deadline, max_score, obtained_score, is_completed, submitted_at, created_at, updated_at`

// AssignmentFilter narrows ListAssignments. Status is StatusPending,
// StatusCompleted or StatusAll.
type AssignmentFilter struct {
	SubjectID *int64
	Status    string
}

func (s *Store) CreateAssignment(in NewAssignment) (*Assignment, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput("insert assignment", in); err != nil {
		return nil, err
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO assignments (user_id, subject_id, title, description, deadline, max_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.SubjectID, in.Title, in.Description, formatTime(in.Deadline), in.MaxScore, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetAssignment(id)
}

func (s *Store) GetAssignment(id int64) (*Assignment, error) {
	a, err := scanAssignment(s.db.QueryRow(`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(fmt.Sprintf("get assignment %d", id), err)
	}
	return a, nil
}

// ListAssignments returns a user's assignments ordered by deadline.
func (s *Store) ListAssignments(userID string, f AssignmentFilter) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = ?`
	args := []any{userID}
	if f.SubjectID != nil {
		query += ` AND subject_id = ?`
		args = append(args, *f.SubjectID)
	}
	switch f.Status {
	case StatusCompleted:
		query += ` AND is_completed = 1`
	case StatusPending, StatusActive:
		query += ` AND is_completed = 0`
	}
	query += ` ORDER BY deadline, id`
	return s.queryAssignments(query, args...)
}

// ListScoredAssignments returns completed assignments that carry a score.
func (s *Store) ListScoredAssignments(userID string) ([]Assignment, error) {
	return s.queryAssignments(
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE user_id = ? AND is_completed = 1 AND obtained_score IS NOT NULL
		 ORDER BY deadline, id`, userID,
	)
}

// ListUpcomingAssignments returns incomplete assignments due at or after now,
// soonest first.
func (s *Store) ListUpcomingAssignments(userID string, now time.Time, limit int) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = ? AND is_completed = 0 AND deadline >= ? ORDER BY deadline, id`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	return s.queryAssignments(query, userID, formatTime(now))
}

// ListAssignmentsDueBetween returns incomplete assignments of every user with
// from <= deadline <= to.
func (s *Store) ListAssignmentsDueBetween(from, to time.Time) ([]Assignment, error) {
	return s.queryAssignments(
		`SELECT `+assignmentColumns+` FROM assignments WHERE is_completed = 0 AND deadline >= ? AND deadline <= ? ORDER BY deadline, id`,
		formatTime(from), formatTime(to),
	)
}

// CompleteAssignment marks an assignment submitted. A nil score leaves any
// previously recorded score in place.
func (s *Store) CompleteAssignment(id int64, obtained *float64) error {
	a, err := s.GetAssignment(id)
	if err != nil {
		return err
	}
	if obtained != nil && (*obtained < 0 || *obtained > a.MaxScore) {
		return fmt.Errorf("complete assignment %d: %w: score %.1f outside 0-%.1f", id, ErrInvalidInput, *obtained, a.MaxScore)
	}
	score := a.ObtainedScore
	if obtained != nil {
		score = obtained
	}
	var scoreArg any
	if score != nil {
		scoreArg = *score
	}
	now := formatTime(time.Now())
	_, err = s.db.Exec(
		`UPDATE assignments SET is_completed = 1, obtained_score = ?, submitted_at = ?, updated_at = ? WHERE id = ?`,
		scoreArg, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete assignment %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteAssignment(id int64) error {
	res, err := s.db.Exec(`DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete assignment %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) queryAssignments(query string, args ...any) ([]Assignment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row rowScanner) (*Assignment, error) {
	a := &Assignment{}
	var deadline, createdAt, updatedAt string
	var completed int
	var obtained sql.NullFloat64
	var submittedAt sql.NullString
	err := row.Scan(&a.ID, &a.UserID, &a.SubjectID, &a.Title, &a.Description, &deadline, &a.MaxScore,
		&obtained, &completed, &submittedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if obtained.Valid {
		a.ObtainedScore = &obtained.Float64
	}
	a.Deadline = parseTime(deadline)
	a.IsCompleted = completed == 1
	a.SubmittedAt = parseNullTime(submittedAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
