package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Side identifies which face of the card a scan captured.
type Side string

const (
	// SideFront is the portrait side carrying the printed fields.
	SideFront Side = "front"
	// SideBack is the side carrying the machine readable zone.
	SideBack Side = "back"
)

// Scan represents one processed frame and its verification outcome.
type Scan struct {
	ID         string
	Side       Side
	Detected   bool
	Confidence float64
	GlareScore float64
	BlurScore  float64
	MRZScore   int
	TCKN       string
	TCKNValid  bool
	CreatedAt  time.Time
}

// ScanField is one recognized text value tied to a scan.
type ScanField struct {
	ScanID string
	Field  string
	Text   string
}

// ScanRepository provides CRUD operations for scans and their fields.
type ScanRepository struct {
	db *sql.DB
}

// Scans returns the scan repository for this store.
func (s *Store) Scans() *ScanRepository {
	return &ScanRepository{db: s.db}
}

// Create inserts a new scan into the database.
func (r *ScanRepository) Create(sc *Scan) error {
	sc.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO scans (id, side, detected, confidence, glare_score, blur_score, mrz_score, tckn, tckn_valid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, string(sc.Side), sc.Detected, sc.Confidence, sc.GlareScore,
		sc.BlurScore, sc.MRZScore, sc.TCKN, sc.TCKNValid, sc.CreatedAt,
	)
	return err
}

// GetByID retrieves a scan by its ID.
func (r *ScanRepository) GetByID(id string) (*Scan, error) {
	sc := &Scan{}
	var side string

	err := r.db.QueryRow(
		`SELECT id, side, detected, confidence, glare_score, blur_score, mrz_score, tckn, tckn_valid, created_at
		 FROM scans WHERE id = ?`,
		id,
	).Scan(&sc.ID, &side, &sc.Detected, &sc.Confidence, &sc.GlareScore,
		&sc.BlurScore, &sc.MRZScore, &sc.TCKN, &sc.TCKNValid, &sc.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sc.Side = Side(side)
	return sc, nil
}

// List retrieves all scans, newest first.
func (r *ScanRepository) List() ([]*Scan, error) {
	rows, err := r.db.Query(
		`SELECT id, side, detected, confidence, glare_score, blur_score, mrz_score, tckn, tckn_valid, created_at
		 FROM scans ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		sc := &Scan{}
		var side string
		if err := rows.Scan(&sc.ID, &side, &sc.Detected, &sc.Confidence, &sc.GlareScore,
			&sc.BlurScore, &sc.MRZScore, &sc.TCKN, &sc.TCKNValid, &sc.CreatedAt); err != nil {
			return nil, err
		}
		sc.Side = Side(side)
		scans = append(scans, sc)
	}

	return scans, rows.Err()
}

// Delete removes a scan and, via cascade, its fields.
func (r *ScanRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// AddField records one recognized text value for a scan.
func (r *ScanRepository) AddField(scanID, field, text string) error {
	_, err := r.db.Exec(
		`INSERT INTO scan_fields (scan_id, field, text) VALUES (?, ?, ?)`,
		scanID, field, text,
	)
	return err
}

// Fields retrieves the recognized fields of a scan as a field-to-text map.
func (r *ScanRepository) Fields(scanID string) (map[string]string, error) {
	rows, err := r.db.Query(
		`SELECT field, text FROM scan_fields WHERE scan_id = ? ORDER BY id`,
		scanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, text string
		if err := rows.Scan(&field, &text); err != nil {
			return nil, err
		}
		fields[field] = text
	}

	return fields, rows.Err()
}
