package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/sun"
)

//go:embed schema.sql
var schema string

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ValidateSchedule checks every entry's content kind and start expression.
func ValidateSchedule(entries []domain.ScheduleEntry) error {
	var bad []string
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			bad = append(bad, fmt.Sprintf("entry %d: missing name", i))
		}
		if _, err := domain.ParseContentKind(string(e.Kind)); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", e.Name, err))
		}
		if err := sun.Validate(e.Start); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", e.Name, err))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid schedule: %s", strings.Join(bad, "; "))
	}
	return nil
}

// AddUser creates a user with a fresh key and returns it
func (s *Store) AddUser(ctx context.Context, u domain.User) (*domain.User, error) {
	if strings.TrimSpace(u.Home) == "" {
		return nil, errors.New("add user: home address is required")
	}
	if err := ValidateSchedule(u.Schedule); err != nil {
		return nil, err
	}
	u.Key = uuid.New().String()
	u.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (key, home, work, travel_mode, time_zone, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Key, u.Home, u.Work, u.TravelMode, u.TimeZone, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if err := writeSchedule(ctx, tx, u.Key, u.Schedule); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by key with its schedule
func (s *Store) GetUser(ctx context.Context, key string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		"SELECT key, home, work, travel_mode, time_zone, created_at FROM users WHERE key = ?",
		key,
	).Scan(&u.Key, &u.Home, &u.Work, &u.TravelMode, &u.TimeZone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.Schedule, err = s.schedule(ctx, key)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user, oldest first, without schedules
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, home, work, travel_mode, time_zone, created_at FROM users ORDER BY created_at, key",
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Key, &u.Home, &u.Work, &u.TravelMode, &u.TimeZone, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser overwrites the user's addresses, travel mode and time zone
func (s *Store) UpdateUser(ctx context.Context, u domain.User) error {
	if strings.TrimSpace(u.Home) == "" {
		return errors.New("update user: home address is required")
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET home = ?, work = ?, travel_mode = ?, time_zone = ? WHERE key = ?",
		u.Home, u.Work, u.TravelMode, u.TimeZone, u.Key,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

// SetSchedule replaces the user's schedule, keeping the given order
func (s *Store) SetSchedule(ctx context.Context, key string, entries []domain.ScheduleEntry) error {
	if err := ValidateSchedule(entries); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE key = ?", key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if exists == 0 {
		return domain.ErrUserNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_entries WHERE user_key = ?", key); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}
	if err := writeSchedule(ctx, tx, key, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteUser removes a user and its schedule
func (s *Store) DeleteUser(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_entries WHERE user_key = ?", key); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) schedule(ctx context.Context, key string) ([]domain.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, start, kind FROM schedule_entries WHERE user_key = ? ORDER BY position",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScheduleEntry
	for rows.Next() {
		var e domain.ScheduleEntry
		if err := rows.Scan(&e.Name, &e.Start, &e.Kind); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func writeSchedule(ctx context.Context, tx *sql.Tx, key string, entries []domain.ScheduleEntry) error {
	for i, e := range entries {
		kind, _ := domain.ParseContentKind(string(e.Kind))
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schedule_entries (user_key, position, name, start, kind) VALUES (?, ?, ?, ?, ?)",
			key, i, e.Name, strings.TrimSpace(e.Start), string(kind),
		)
		if err != nil {
			return fmt.Errorf("insert schedule entry %s: %w", e.Name, err)
		}
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
