package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/dbx"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// duplicateField maps a violated constraint to the identity field callers
// report back to the user.
func duplicateField(constraint string) string {
	switch constraint {
	case "users_username_key":
		return "username"
	case "users_email_key":
		return "email"
	case "users_external_id_key":
		return "external_id"
	default:
		return "identity"
	}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (external_id, username, password_hash, email)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ExternalID, user.Name, user.PasswordHash, user.Email).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return nil, &common.DuplicateError{Field: duplicateField(constraint)}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query :=
		`SELECT id, external_id, username, password_hash, email, created_at FROM users
		 WHERE username = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query :=
		`SELECT id, external_id, username, password_hash, email, created_at FROM users
		 WHERE external_id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, externalID))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.ExternalID, &user.Name, &user.PasswordHash, &user.Email, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE external_id = $1)
		 `

	var exists bool
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, externalID string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE external_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, externalID, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM users
		 `

	var count int64
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int64) ([]*models.User, error) {
	query :=
		`SELECT id, external_id, username, password_hash, email, created_at FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.ExternalID, &user.Name, &user.PasswordHash, &user.Email, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
