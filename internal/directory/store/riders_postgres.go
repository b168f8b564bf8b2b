package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"profast/internal/directory/models"
	"profast/internal/platform/postgres"
	id "profast/pkg/domain"
	"profast/pkg/platform/document"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
)

type PostgresRiders struct {
	db *sql.DB
}

func NewPostgresRiders(db *sql.DB) *PostgresRiders {
	return &PostgresRiders{db: db}
}

const riderColumns = `id, email, name, status, attributes`

func (s *PostgresRiders) Create(ctx context.Context, r *models.Rider) error {
	attrs, err := r.Attributes.Encode()
	if err != nil {
		return fmt.Errorf("encode rider attributes: %w", err)
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO riders (`+riderColumns+`) VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(r.ID), r.Email, r.Name, string(r.Status), attrs)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("rider %s: %w", r.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

// List filters by status; an empty status set matches every row.
func (s *PostgresRiders) List(ctx context.Context, f models.RiderFilter) ([]models.Rider, error) {
	statuses := []string{}
	if f.Status != "" && f.Status != "all" {
		statuses = append(statuses, string(f.Status))
	}
	query := `SELECT ` + riderColumns + ` FROM riders
		WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
		ORDER BY inserted_at, id OFFSET $2`
	args := []any{pq.Array(statuses), f.Page.Offset}
	if f.Page.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, f.Page.Limit)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	out := []models.Rider{}
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rider: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate riders: %w", err)
	}
	return out, nil
}

func (s *PostgresRiders) FindByID(ctx context.Context, riderID id.RiderID) (*models.Rider, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+riderColumns+` FROM riders WHERE id = $1 FOR UPDATE`, uuid.UUID(riderID))
	r, err := scanRider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rider %s: %w", riderID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find rider: %w", err)
	}
	return r, nil
}

func (s *PostgresRiders) SetStatus(ctx context.Context, riderID id.RiderID, status models.RiderStatus) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE riders SET status = $2 WHERE id = $1`, uuid.UUID(riderID), string(status))
	if err != nil {
		return fmt.Errorf("set rider status: %w", err)
	}
	return requireOne(res, "rider "+riderID.String())
}

func scanRider(row scanner) (*models.Rider, error) {
	var (
		r      models.Rider
		rawID  uuid.UUID
		status string
		attrs  []byte
	)
	if err := row.Scan(&rawID, &r.Email, &r.Name, &status, &attrs); err != nil {
		return nil, err
	}
	r.ID = id.RiderID(rawID)
	r.Status = models.RiderStatus(status)
	decoded, err := document.Parse(attrs)
	if err != nil {
		return nil, fmt.Errorf("decode rider attributes: %w", err)
	}
	r.Attributes = decoded
	return &r, nil
}
