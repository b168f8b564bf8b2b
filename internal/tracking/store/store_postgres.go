package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"profast/internal/tracking/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/document"
	"profast/pkg/platform/tx"
)

// PostgresStore persists tracking events. The seq column records insertion
// order for tie-breaking.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e *models.Event) error {
	meta, err := e.Metadata.Encode()
	if err != nil {
		return fmt.Errorf("encode tracking metadata: %w", err)
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO trackings (id, tracking_id, status, recorded_at, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(e.ID), e.TrackingID, e.Status, e.Timestamp, meta)
	if err != nil {
		return fmt.Errorf("insert tracking event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTrackingID(ctx context.Context, q models.Query) ([]models.Event, error) {
	query := `
		SELECT id, tracking_id, status, recorded_at, metadata
		FROM trackings
		WHERE tracking_id = $1
		ORDER BY recorded_at DESC, seq DESC
		OFFSET $2`
	args := []any{q.TrackingID, q.Page.Offset}
	if q.Page.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, q.Page.Limit)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		var (
			e     models.Event
			rawID uuid.UUID
			meta  []byte
		)
		if err := rows.Scan(&rawID, &e.TrackingID, &e.Status, &e.Timestamp, &meta); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		e.ID = id.EventID(rawID)
		e.Timestamp = e.Timestamp.UTC()
		if e.Metadata, err = document.Parse(meta); err != nil {
			return nil, fmt.Errorf("decode tracking metadata: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking events: %w", err)
	}
	return out, nil
}
