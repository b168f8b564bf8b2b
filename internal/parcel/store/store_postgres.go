package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"profast/internal/parcel/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/document"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
)

// PostgresStore persists parcels in PostgreSQL. Typed fields are columns;
// everything else lives in the attributes JSONB column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const parcelColumns = `id, tracking_id, created_by, title, type, sender_region, receiver_region,
	parcel_weight, delivery_cost, delivery_status, payment_status, created_at, attributes`

func (s *PostgresStore) Create(ctx context.Context, p *models.Parcel) error {
	attrs, err := p.StoredAttributes().Encode()
	if err != nil {
		return fmt.Errorf("encode parcel attributes: %w", err)
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO parcels (`+parcelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, uuid.UUID(p.ID), p.TrackingID, p.CreatedBy, p.Title, p.Type, p.SenderRegion, p.ReceiverRegion,
		nullNumber(p.ParcelWeight), nullNumber(p.DeliveryCost), string(p.DeliveryStatus), string(p.PaymentStatus),
		p.CreatedAt, attrs)
	if err != nil {
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE ($1 = '' OR created_by = $1)
		ORDER BY created_at DESC, id DESC OFFSET $2`
	args := []any{filter.CreatedBy, filter.Page.Offset}
	if filter.Page.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, filter.Page.Limit)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	out := []models.Summary{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parcels: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error) {
	return s.findOne(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1`, parcelID)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error) {
	return s.findOne(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1 FOR UPDATE`, parcelID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, parcelID id.ParcelID) (*models.Parcel, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(parcelID))
	p, err := scanParcel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("parcel %s: %w", parcelID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find parcel: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, parcelID id.ParcelID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM parcels WHERE id = $1`, uuid.UUID(parcelID))
	if err != nil {
		return fmt.Errorf("delete parcel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete parcel rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("parcel %s: %w", parcelID, sentinel.ErrNotFound)
	}
	return nil
}

// MarkPaid is a conditional update; zero rows means absent or already paid,
// and a follow-up read tells the two apart.
func (s *PostgresStore) MarkPaid(ctx context.Context, parcelID id.ParcelID) error {
	exec := tx.Executor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE parcels SET payment_status = 'paid'
		WHERE id = $1 AND payment_status <> 'paid'
	`, uuid.UUID(parcelID))
	if err != nil {
		return fmt.Errorf("mark parcel paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark parcel paid rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, parcelID); err != nil {
		return err
	}
	return fmt.Errorf("parcel %s already paid: %w", parcelID, sentinel.ErrInvalidState)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanParcel(row scanner) (*models.Parcel, error) {
	var (
		p              models.Parcel
		rawID          uuid.UUID
		weight, cost   sql.NullFloat64
		delivery, paid string
		attrs          []byte
	)
	if err := row.Scan(&rawID, &p.TrackingID, &p.CreatedBy, &p.Title, &p.Type, &p.SenderRegion,
		&p.ReceiverRegion, &weight, &cost, &delivery, &paid, &p.CreatedAt, &attrs); err != nil {
		return nil, err
	}
	p.ID = id.ParcelID(rawID)
	p.DeliveryStatus = models.DeliveryStatus(delivery)
	p.PaymentStatus = models.PaymentStatus(paid)
	p.CreatedAt = p.CreatedAt.UTC()
	if weight.Valid {
		p.ParcelWeight = id.Number(weight.Float64).Ptr()
	}
	if cost.Valid {
		p.DeliveryCost = id.Number(cost.Float64).Ptr()
	}
	decoded, err := document.Parse(attrs)
	if err != nil {
		return nil, fmt.Errorf("decode parcel attributes: %w", err)
	}
	p.RestoreAttributes(decoded)
	return &p, nil
}

func nullNumber(n *id.Number) sql.NullFloat64 {
	if n == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: n.Float64(), Valid: true}
}
