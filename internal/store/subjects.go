package store

import (
	"fmt"
	"strings"
	"time"
)

const defaultSubjectColor = "#3B82F6"

func (s *Store) CreateSubject(userID string, in NewSubject) (*Subject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput("insert subject", in); err != nil {
		return nil, err
	}
	if in.Color == "" {
		in.Color = defaultSubjectColor
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO subjects (user_id, name, color, target_hours, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, in.Name, in.Color, in.TargetHours, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSubject(id)
}

func (s *Store) GetSubject(id int64) (*Subject, error) {
	sub := &Subject{}
	var createdAt, updatedAt string
	var archived int
	err := s.db.QueryRow(
		`SELECT id, user_id, name, color, target_hours, archived, created_at, updated_at FROM subjects WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Color, &sub.TargetHours, &archived, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("get subject %d", id), err)
	}
	sub.Archived = archived == 1
	sub.CreatedAt = parseTime(createdAt)
	sub.UpdatedAt = parseTime(updatedAt)
	return sub, nil
}

func (s *Store) ListSubjects(userID string, includeArchived bool) ([]Subject, error) {
	query := `SELECT id, user_id, name, color, target_hours, archived, created_at, updated_at FROM subjects WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var sub Subject
		var createdAt, updatedAt string
		var archived int
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Color, &sub.TargetHours, &archived, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sub.Archived = archived == 1
		sub.CreatedAt = parseTime(createdAt)
		sub.UpdatedAt = parseTime(updatedAt)
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func (s *Store) UpdateSubject(id int64, in NewSubject) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput("update subject", in); err != nil {
		return err
	}
	if in.Color == "" {
		in.Color = defaultSubjectColor
	}
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`UPDATE subjects SET name = ?, color = ?, target_hours = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.Color, in.TargetHours, now, id,
	)
	return err
}

func (s *Store) ArchiveSubject(id int64) error {
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`UPDATE subjects SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

// SubjectTotals returns all-time minutes per subject, including subjects with
// no sessions yet. Archived subjects are skipped unless includeArchived is set.
func (s *Store) SubjectTotals(userID string, includeArchived bool) ([]SubjectTotal, error) {
	query := `
		SELECT sub.id, sub.name, sub.color,
		       COALESCE(SUM(ss.duration), 0), COUNT(ss.id)
		FROM subjects sub
		LEFT JOIN study_sessions ss ON ss.subject_id = sub.id
		WHERE sub.user_id = ?`
	if !includeArchived {
		query += ` AND sub.archived = 0`
	}
	query += `
		GROUP BY sub.id
		ORDER BY sub.name`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("subject totals: %w", err)
	}
	defer rows.Close()

	var totals []SubjectTotal
	for rows.Next() {
		var t SubjectTotal
		if err := rows.Scan(&t.SubjectID, &t.Name, &t.Color, &t.Minutes, &t.Sessions); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
