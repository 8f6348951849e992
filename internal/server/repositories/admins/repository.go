package admins

import (
	"context"

	"github.com/dmitrijs2005/chatgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	GetByName(ctx context.Context, adminName string) (*models.Admin, error)
}
