package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"profast/internal/payment/models"
	"profast/internal/platform/postgres"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Payment) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payments (id, parcel_id, email, amount, payment_method, transaction_id, paid_at_string, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(p.ID), uuid.UUID(p.ParcelID), p.Email, p.Amount, p.PaymentMethod, p.TransactionID, p.PaidAtString, p.PaidAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("payment for parcel %s: %w", p.ParcelID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEmail(ctx context.Context, q models.ListQuery) ([]models.Payment, error) {
	query := `
		SELECT id, parcel_id, email, amount, payment_method, transaction_id, paid_at_string, paid_at
		FROM payments
		WHERE email = $1
		ORDER BY paid_at DESC
		OFFSET $2`
	args := []any{q.Email, q.Page.Offset}
	if q.Page.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, q.Page.Limit)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		var (
			p                   models.Payment
			paymentID, parcelID uuid.UUID
		)
		if err := rows.Scan(&paymentID, &parcelID, &p.Email, &p.Amount, &p.PaymentMethod,
			&p.TransactionID, &p.PaidAtString, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.ID = id.PaymentID(paymentID)
		p.ParcelID = id.ParcelID(parcelID)
		p.PaidAt = p.PaidAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}
