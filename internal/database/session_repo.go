package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdimtricp/pulsecam/internal/models"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession inserts a finished session record. Implements session.Store.
func (r *SessionRepository) SaveSession(rec *models.SessionRecord) error {
	query := r.db.rebind(`
		INSERT INTO sessions (id, started_at, duration_s, final_bpm, mean_rr, sdnn, rmssd, pnn50, sd1, sd2, sample_count, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.conn.Exec(query,
		rec.ID, rec.StartedAt, rec.DurationS, rec.FinalBPM,
		rec.MeanRR, rec.SDNN, rec.RMSSD, rec.PNN50, rec.SD1, rec.SD2,
		rec.SampleCount, rec.Quality)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	query := r.db.rebind(`
		SELECT id, started_at, duration_s, final_bpm, mean_rr, sdnn, rmssd, pnn50, sd1, sd2, sample_count, quality
		FROM sessions WHERE id = ?`)

	rec := &models.SessionRecord{}
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.StartedAt, &rec.DurationS, &rec.FinalBPM,
		&rec.MeanRR, &rec.SDNN, &rec.RMSSD, &rec.PNN50, &rec.SD1, &rec.SD2,
		&rec.SampleCount, &rec.Quality)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit sessions, newest first.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.rebind(`
		SELECT id, started_at, duration_s, final_bpm, mean_rr, sdnn, rmssd, pnn50, sd1, sd2, sample_count, quality
		FROM sessions ORDER BY started_at DESC LIMIT ?`)

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		if err := rows.Scan(
			&rec.ID, &rec.StartedAt, &rec.DurationS, &rec.FinalBPM,
			&rec.MeanRR, &rec.SDNN, &rec.RMSSD, &rec.PNN50, &rec.SD1, &rec.SD2,
			&rec.SampleCount, &rec.Quality); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
