package store

import (
	"database/sql"
	"time"
)

// Recognition is one logged gesture recognition.
type Recognition struct {
	ID           int64     `json:"id"`
	Gesture      string    `json:"gesture"`
	Score        float64   `json:"score"`
	TrackingID   uint64    `json:"tracking_id"`
	Published    bool      `json:"published"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// RecognitionRepository records recognized gestures.
type RecognitionRepository struct {
	db *sql.DB
}

// Recognitions returns the recognition repository for this store.
func (s *Store) Recognitions() *RecognitionRepository {
	return &RecognitionRepository{db: s.db}
}

// Create inserts a recognition and sets its ID.
func (r *RecognitionRepository) Create(rec *Recognition) error {
	if rec.RecognizedAt.IsZero() {
		rec.RecognizedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO recognitions (gesture, score, tracking_id, published, recognized_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Gesture, rec.Score, int64(rec.TrackingID), rec.Published, rec.RecognizedAt.UTC(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// ListRecent returns up to limit recognitions, newest first.
func (r *RecognitionRepository) ListRecent(limit int) ([]*Recognition, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, score, tracking_id, published, recognized_at
		 FROM recognitions ORDER BY recognized_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognition
	for rows.Next() {
		rec := &Recognition{}
		var trackingID int64
		if err := rows.Scan(&rec.ID, &rec.Gesture, &rec.Score, &trackingID, &rec.Published, &rec.RecognizedAt); err != nil {
			return nil, err
		}
		rec.TrackingID = uint64(trackingID)
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// CountByGesture returns how often each gesture was recognized.
func (r *RecognitionRepository) CountByGesture() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT gesture, COUNT(*) FROM recognitions GROUP BY gesture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var gesture string
		var n int
		if err := rows.Scan(&gesture, &n); err != nil {
			return nil, err
		}
		counts[gesture] = n
	}

	return counts, rows.Err()
}

// DeleteBefore removes recognitions older than t and returns how many were removed.
func (r *RecognitionRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM recognitions WHERE recognized_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
