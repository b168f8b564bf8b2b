package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"profast/internal/directory/models"
	"profast/internal/platform/postgres"
	id "profast/pkg/domain"
	"profast/pkg/platform/document"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
)

// PostgresUsers stores users with the profile remainder in attributes JSONB.
type PostgresUsers struct {
	db *sql.DB
}

func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

const userColumns = `id, email, role, display_name, attributes`

func (s *PostgresUsers) Create(ctx context.Context, u *models.User) error {
	attrs, err := u.Attributes.Encode()
	if err != nil {
		return fmt.Errorf("encode user attributes: %w", err)
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(u.ID), u.Email, string(u.EffectiveRole()), u.DisplayName, attrs)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresUsers) Update(ctx context.Context, u *models.User) error {
	attrs, err := u.Attributes.Encode()
	if err != nil {
		return fmt.Errorf("encode user attributes: %w", err)
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET display_name = $2, attributes = $3 WHERE email = $1
	`, u.Email, u.DisplayName, attrs)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireOne(res, "user "+u.Email)
}

func (s *PostgresUsers) SetRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns,
		uuid.UUID(userID), string(role))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set user role: %w", err)
	}
	return u, nil
}

func (s *PostgresUsers) SetRoleByEmail(ctx context.Context, email string, role models.Role) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE email = $1`, email, string(role))
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	return requireOne(res, "user "+email)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresUsers) Search(ctx context.Context, q models.SearchQuery) ([]models.Summary, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE display_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\'
		ORDER BY inserted_at, id`
	args := []any{"%" + likeEscaper.Replace(q.Text) + "%"}
	if q.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, q.Limit)
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	out := []models.Summary{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u     models.User
		rawID uuid.UUID
		role  string
		attrs []byte
	)
	if err := row.Scan(&rawID, &u.Email, &role, &u.DisplayName, &attrs); err != nil {
		return nil, err
	}
	u.ID = id.UserID(rawID)
	u.Role = models.Role(role)
	decoded, err := document.Parse(attrs)
	if err != nil {
		return nil, fmt.Errorf("decode user attributes: %w", err)
	}
	u.Attributes = decoded
	return &u, nil
}

func requireOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}
