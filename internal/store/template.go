package store

import (
	"database/sql"
	"errors"
	"time"
)

// Template represents a trained gesture template stored in the database.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gesture   string    `json:"gesture"`
	Signal    string    `json:"signal"`
	Tolerance float64   `json:"tolerance"`
	MinExtent float64   `json:"min_extent"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PathPoint is one point of a stored template path.
type PathPoint struct {
	X           float64
	Y           float64
	TimestampMs int64
}

// TemplateRepository provides CRUD operations for gesture templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

const templateColumns = `id, name, gesture, signal, tolerance, min_extent, samples, created_at, updated_at`

// Create inserts a new template into the database.
func (r *TemplateRepository) Create(t *Template) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO gesture_templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Gesture, t.Signal, t.Tolerance, t.MinExtent, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	t := &Template{}
	err := row.Scan(&t.ID, &t.Name, &t.Gesture, &t.Signal, &t.Tolerance, &t.MinExtent, &t.Samples, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(id string) (*Template, error) {
	return scanTemplate(r.db.QueryRow(
		`SELECT `+templateColumns+` FROM gesture_templates WHERE id = ?`, id,
	))
}

// GetByName retrieves a template by its name.
func (r *TemplateRepository) GetByName(name string) (*Template, error) {
	return scanTemplate(r.db.QueryRow(
		`SELECT `+templateColumns+` FROM gesture_templates WHERE name = ?`, name,
	))
}

// List retrieves all templates, newest first.
func (r *TemplateRepository) List() ([]*Template, error) {
	rows, err := r.db.Query(
		`SELECT ` + templateColumns + ` FROM gesture_templates ORDER BY created_at DESC, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// Update updates an existing template in the database.
func (r *TemplateRepository) Update(t *Template) error {
	t.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE gesture_templates
		 SET name = ?, gesture = ?, signal = ?, tolerance = ?, min_extent = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Gesture, t.Signal, t.Tolerance, t.MinExtent, t.Samples, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Delete removes a template and its path and samples.
func (r *TemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gesture_templates WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// SavePath replaces the reference path of a template.
func (r *TemplateRepository) SavePath(templateID string, path []PathPoint) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM gesture_templates WHERE id = ?`, templateID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM template_paths WHERE template_id = ?`, templateID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO template_paths (template_id, sequence, x, y, timestamp_ms) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range path {
		if _, err := stmt.Exec(templateID, i, p.X, p.Y, p.TimestampMs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPath returns the reference path of a template in sequence order.
func (r *TemplateRepository) GetPath(templateID string) ([]PathPoint, error) {
	rows, err := r.db.Query(
		`SELECT x, y, timestamp_ms FROM template_paths WHERE template_id = ? ORDER BY sequence`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []PathPoint
	for rows.Next() {
		var p PathPoint
		if err := rows.Scan(&p.X, &p.Y, &p.TimestampMs); err != nil {
			return nil, err
		}
		path = append(path, p)
	}

	return path, rows.Err()
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
