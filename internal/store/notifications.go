package store

import (
	"fmt"
	"time"
)

func (s *Store) CreateNotification(in NewNotification) (*Notification, error) {
	if err := validateInput("insert notification", in); err != nil {
		return nil, err
	}
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO notifications (user_id, type, title, message, link, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Type, in.Title, in.Message, in.Link, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, _ := res.LastInsertId()

	n := &Notification{}
	var createdAt string
	var read int
	err = s.db.QueryRow(
		`SELECT id, user_id, type, title, message, link, is_read, created_at FROM notifications WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &read, &createdAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("get notification %d", id), err)
	}
	n.IsRead = read == 1
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}

// ListNotifications returns newest first.
func (s *Store) ListNotifications(userID string, unreadOnly bool, limit int) ([]Notification, error) {
	query := `SELECT id, user_id, type, title, message, link, is_read, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var createdAt string
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &read, &createdAt); err != nil {
			return nil, err
		}
		n.IsRead = read == 1
		n.CreatedAt = parseTime(createdAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(id int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}

func (s *Store) MarkAllNotificationsRead(userID string) error {
	_, err := s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	return err
}

func (s *Store) DeleteNotification(id int64) error {
	res, err := s.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete notification %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) UnreadCount(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}
