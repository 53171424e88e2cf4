package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// WatchlistEntry is a plate of interest.
type WatchlistEntry struct {
	ID          string
	Plate       string
	Label       string
	MaxDistance int
	CreatedAt   time.Time
}

// WatchlistRepository provides CRUD operations for the watchlist.
type WatchlistRepository struct {
	db *sql.DB
}

// Watchlist returns the watchlist repository for this store.
func (s *Store) Watchlist() *WatchlistRepository {
	return &WatchlistRepository{db: s.db}
}

// Create inserts e. A plate already on the list yields ErrConflict.
func (r *WatchlistRepository) Create(e *WatchlistEntry) error {
	e.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO watchlist (id, plate, label, max_distance, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Plate, e.Label, e.MaxDistance, e.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}

// GetByID retrieves an entry by its ID.
func (r *WatchlistRepository) GetByID(id string) (*WatchlistEntry, error) {
	e := &WatchlistEntry{}
	err := r.db.QueryRow(
		`SELECT id, plate, label, max_distance, created_at FROM watchlist WHERE id = ?`, id,
	).Scan(&e.ID, &e.Plate, &e.Label, &e.MaxDistance, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns all entries ordered by plate.
func (r *WatchlistRepository) List() ([]*WatchlistEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, plate, label, max_distance, created_at FROM watchlist ORDER BY plate`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*WatchlistEntry
	for rows.Next() {
		e := &WatchlistEntry{}
		if err := rows.Scan(&e.ID, &e.Plate, &e.Label, &e.MaxDistance, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Delete removes an entry by its ID.
func (r *WatchlistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM watchlist WHERE id = ?`, id)
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
