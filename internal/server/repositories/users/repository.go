package users

import (
	"context"

	"github.com/dmitrijs2005/chatgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	ExternalIDExists(ctx context.Context, externalID string) (bool, error)
	UpdatePassword(ctx context.Context, externalID string, passwordHash string) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int64) ([]*models.User, error)
}
