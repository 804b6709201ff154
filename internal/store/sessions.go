package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const sessionColumns = `id, user_id, subject_id, duration, notes, date, quality, created_at, updated_at`

func (s *Store) CreateSession(in NewSession) (*StudySession, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput("insert session", in); err != nil {
		return nil, err
	}
	if in.Quality == 0 {
		in.Quality = 3
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO study_sessions (user_id, subject_id, duration, notes, date, quality, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.SubjectID, in.Duration, in.Notes, formatTime(in.Date), in.Quality, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

func (s *Store) GetSession(id int64) (*StudySession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?`, id)
	ss, err := scanSession(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("get session %d", id), err)
	}
	return ss, nil
}

// UpdateSession replaces every editable field of a session. The owner is
// taken from the stored row, not from in.UserID.
func (s *Store) UpdateSession(id int64, in NewSession) error {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput("update session", in); err != nil {
		return err
	}
	if in.Quality == 0 {
		in.Quality = 3
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`UPDATE study_sessions SET subject_id = ?, duration = ?, notes = ?, date = ?, quality = ?, updated_at = ? WHERE id = ?`,
		in.SubjectID, in.Duration, in.Notes, formatTime(in.Date), in.Quality, now, id,
	)
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update session %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSession(id int64) error {
	res, err := s.db.Exec(`DELETE FROM study_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete session %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(f SessionFilter) ([]StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE 1=1`
	var args []any

	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.SubjectID != nil {
		query += ` AND subject_id = ?`
		args = append(args, *f.SubjectID)
	}
	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND date <= ?`
		args = append(args, formatTime(*f.To))
	}
	if f.Before != nil {
		query += ` AND date < ?`
		args = append(args, formatTime(*f.Before))
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StudySession
	for rows.Next() {
		ss, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *ss)
	}
	return sessions, rows.Err()
}

func scanSession(row rowScanner) (*StudySession, error) {
	ss := &StudySession{}
	var date, createdAt, updatedAt string
	if err := row.Scan(&ss.ID, &ss.UserID, &ss.SubjectID, &ss.Duration, &ss.Notes, &date, &ss.Quality, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ss.Date = parseTime(date)
	ss.CreatedAt = parseTime(createdAt)
	ss.UpdatedAt = parseTime(updatedAt)
	return ss, nil
}

func (s *Store) TotalMinutes(userID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(duration), 0) FROM study_sessions WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total minutes: %w", err)
	}
	return int(total.Int64), nil
}

// MinutesOn returns the minutes studied on the UTC day containing day.
func (s *Store) MinutesOn(userID string, day time.Time) (int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration), 0)
		FROM study_sessions
		WHERE user_id = ? AND date >= ? AND date < ?`,
		userID, formatTime(start), formatTime(end),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("minutes on %s: %w", start.Format("2006-01-02"), err)
	}
	return int(total.Int64), nil
}

// DailyMinutes aggregates minutes per UTC day and subject for sessions with
// from <= date < to.
func (s *Store) DailyMinutes(userID string, from, to time.Time) ([]DailyMinutes, error) {
	rows, err := s.db.Query(`
		SELECT date(ss.date) AS day, ss.subject_id, sub.name, sub.color,
		       COALESCE(SUM(ss.duration), 0), COUNT(*)
		FROM study_sessions ss
		JOIN subjects sub ON sub.id = ss.subject_id
		WHERE ss.user_id = ?
		  AND ss.date >= ? AND ss.date < ?
		GROUP BY day, ss.subject_id
		ORDER BY day, sub.name`,
		userID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily minutes: %w", err)
	}
	defer rows.Close()

	var out []DailyMinutes
	for rows.Next() {
		var dm DailyMinutes
		if err := rows.Scan(&dm.Date, &dm.SubjectID, &dm.SubjectName, &dm.SubjectColor, &dm.Minutes, &dm.SessionCount); err != nil {
			return nil, err
		}
		out = append(out, dm)
	}
	return out, rows.Err()
}
