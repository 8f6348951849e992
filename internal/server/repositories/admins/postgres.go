package admins

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

func (r *PostgresRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {

	query :=
		`INSERT INTO admins (admin_name, password_hash)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		admin.AdminName, admin.PasswordHash).Scan(&admin.ID, &admin.CreatedAt)

	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, &common.DuplicateError{Field: "admin_name"}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return admin, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, adminName string) (*models.Admin, error) {
	query :=
		`SELECT id, admin_name, password_hash, created_at FROM admins
		 WHERE admin_name = $1
		 `

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, adminName).Scan(&admin.ID, &admin.AdminName, &admin.PasswordHash, &admin.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return admin, nil
}
