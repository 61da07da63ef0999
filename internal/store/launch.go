package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/toolsuite/internal/plugin"
)

// Launch is one recorded launch attempt.
type Launch struct {
	ID        string     `json:"id"`
	Plugin    string     `json:"plugin"`
	Dir       string     `json:"dir"`
	EntryFile string     `json:"entry_file"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// LaunchRepository records launch history. It satisfies host.History.
type LaunchRepository struct {
	db *sql.DB
}

// Launches returns the launch repository for this store.
func (s *Store) Launches() *LaunchRepository {
	return &LaunchRepository{db: s.db}
}

const launchColumns = `id, plugin, dir, entry_file, success, error, started_at, closed_at`

// RecordLaunch inserts a launch attempt and returns its id. launchErr is nil on success.
func (r *LaunchRepository) RecordLaunch(desc plugin.Descriptor, launchErr error) (string, error) {
	l := &Launch{
		ID:        uuid.NewString(),
		Plugin:    desc.Name,
		Dir:       desc.Dir,
		EntryFile: desc.EntryFile,
		Success:   launchErr == nil,
		StartedAt: time.Now().UTC(),
	}
	if launchErr != nil {
		l.Error = launchErr.Error()
	}

	_, err := r.db.Exec(
		`INSERT INTO launches (id, plugin, dir, entry_file, success, error, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Plugin, l.Dir, l.EntryFile, l.Success, l.Error, l.StartedAt,
	)
	if err != nil {
		return "", err
	}
	return l.ID, nil
}

// RecordClose stamps the close time on a launch.
func (r *LaunchRepository) RecordClose(id string) error {
	result, err := r.db.Exec(
		`UPDATE launches SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a launch by its id.
func (r *LaunchRepository) GetByID(id string) (*Launch, error) {
	row := r.db.QueryRow(`SELECT `+launchColumns+` FROM launches WHERE id = ?`, id)
	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// List returns up to limit launches, newest first. A non-positive limit returns all.
func (r *LaunchRepository) List(limit int) ([]*Launch, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+launchColumns+` FROM launches ORDER BY rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	launches := []*Launch{}
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return launches, nil
}

// LastSuccessful returns the most recent successful launch.
func (r *LaunchRepository) LastSuccessful() (*Launch, error) {
	row := r.db.QueryRow(
		`SELECT ` + launchColumns + ` FROM launches WHERE success = 1 ORDER BY rowid DESC LIMIT 1`,
	)
	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLaunch(s scanner) (*Launch, error) {
	l := &Launch{}
	var success int
	var closedAt sql.NullTime

	err := s.Scan(&l.ID, &l.Plugin, &l.Dir, &l.EntryFile, &success, &l.Error, &l.StartedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	l.Success = success != 0
	if closedAt.Valid {
		t := closedAt.Time
		l.ClosedAt = &t
	}
	return l, nil
}
