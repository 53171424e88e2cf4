package store

import (
	"database/sql"
	"errors"
	"time"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// Detection is a stored plate reading.
type Detection struct {
	ID          string
	Text        string
	Normalized  string
	X           int
	Y           int
	Width       int
	Height      int
	Watchlisted bool
	// Snapshot is the annotated frame as JPEG. It is only populated on
	// Create; reads use Snapshot() and report HasSnapshot instead.
	Snapshot    []byte
	HasSnapshot bool
	DetectedAt  time.Time
}

// DetectionFilter narrows List results.
type DetectionFilter struct {
	// Plate matches normalized readings containing this substring.
	Plate string
	// Limit caps the number of rows; <= 0 selects DefaultListLimit.
	Limit int
}

// DetectionRepository provides access to detections.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// Create inserts d. DetectedAt defaults to now.
func (r *DetectionRepository) Create(d *Detection) error {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now()
	}

	var snapshot any
	if len(d.Snapshot) > 0 {
		snapshot = d.Snapshot
		d.HasSnapshot = true
	}

	_, err := r.db.Exec(
		`INSERT INTO detections (id, text, normalized, x, y, width, height, watchlisted, snapshot, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Text, d.Normalized, d.X, d.Y, d.Width, d.Height, boolToInt(d.Watchlisted), snapshot, d.DetectedAt,
	)
	return err
}

const detectionColumns = `id, text, normalized, x, y, width, height, watchlisted, snapshot IS NOT NULL, detected_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row rowScanner) (*Detection, error) {
	d := &Detection{}
	var watchlisted, hasSnapshot int
	err := row.Scan(&d.ID, &d.Text, &d.Normalized, &d.X, &d.Y, &d.Width, &d.Height,
		&watchlisted, &hasSnapshot, &d.DetectedAt)
	if err != nil {
		return nil, err
	}
	d.Watchlisted = watchlisted != 0
	d.HasSnapshot = hasSnapshot != 0
	return d, nil
}

// GetByID retrieves a detection without its snapshot bytes.
func (r *DetectionRepository) GetByID(id string) (*Detection, error) {
	d, err := scanDetection(r.db.QueryRow(
		`SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns detections newest first.
func (r *DetectionRepository) List(f DetectionFilter) ([]*Detection, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT `+detectionColumns+` FROM detections
		 WHERE (? = '' OR instr(normalized, ?) > 0)
		 ORDER BY detected_at DESC
		 LIMIT ?`,
		f.Plate, f.Plate, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return detections, nil
}

// Snapshot returns the JPEG stored with a detection. A detection without a
// snapshot reports ErrNotFound.
func (r *DetectionRepository) Snapshot(id string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT snapshot FROM detections WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// Count returns the number of stored detections.
func (r *DetectionRepository) Count() (int, error) {
	return r.CountMatching("")
}

// CountMatching counts detections whose normalized text contains plate, using
// the same match as List. An empty plate counts every detection.
func (r *DetectionRepository) CountMatching(plate string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM detections WHERE (? = '' OR instr(normalized, ?) > 0)`,
		plate, plate,
	).Scan(&n)
	return n, err
}

// Delete removes a detection by its ID.
func (r *DetectionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM detections WHERE id = ?`, id)
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
