package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateUser(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("insert user: %w: empty name", ErrInvalidInput)
	}
	id := uuid.NewString()
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, role, created_at) VALUES (?, ?, ?, ?)`,
		id, name, RoleStudent, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(id)
}

func (s *Store) GetUser(id string) (*User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, name, role, blocked, created_at FROM users WHERE id = ?`, id,
	), "get user "+id)
}

func (s *Store) GetUserByName(name string) (*User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, name, role, blocked, created_at FROM users WHERE name = ?`, strings.TrimSpace(name),
	), fmt.Sprintf("get user %q", name))
}

// EnsureUser returns the profile with the given name, creating it on first use.
func (s *Store) EnsureUser(name string) (*User, error) {
	u, err := s.GetUserByName(name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateUser(name)
}

func (s *Store) ListUsers() ([]User, error) {
	return s.queryUsers(`SELECT id, name, role, blocked, created_at FROM users ORDER BY name`)
}

// ListActiveStudents returns students who are not blocked.
func (s *Store) ListActiveStudents() ([]User, error) {
	return s.queryUsers(
		`SELECT id, name, role, blocked, created_at FROM users WHERE role = ? AND blocked = 0 ORDER BY name`,
		RoleStudent,
	)
}

// SetUserBlocked hides or restores a profile in ListActiveStudents.
func (s *Store) SetUserBlocked(id string, blocked bool) error {
	res, err := s.db.Exec(`UPDATE users SET blocked = ? WHERE id = ?`, boolToInt(blocked), id)
	if err != nil {
		return fmt.Errorf("block user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("block user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) SetUserRole(id, role string) error {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
	default:
		return fmt.Errorf("set role: %w: unknown role %q", ErrInvalidInput, role)
	}
	res, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("set role %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set role %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(row rowScanner, what string) (*User, error) {
	u := &User{}
	var createdAt string
	var blocked int
	if err := row.Scan(&u.ID, &u.Name, &u.Role, &blocked, &createdAt); err != nil {
		return nil, notFound(what, err)
	}
	u.Blocked = blocked == 1
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (s *Store) queryUsers(query string, args ...any) ([]User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := s.scanUser(rows, "scan user")
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
