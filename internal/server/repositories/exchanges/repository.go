package exchanges

import (
	"context"

	"github.com/dmitrijs2005/chatgate/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, exchange *models.Exchange) (*models.Exchange, error)
	ListByTopic(ctx context.Context, userUUID, topicID string) ([]*models.Exchange, error)
	TopicExists(ctx context.Context, userUUID, topicID string) (bool, error)
	ListTopics(ctx context.Context, userUUID string, offset, limit int64) ([]*models.TopicSummary, error)
	CountTopics(ctx context.Context, userUUID string) (int64, error)
	DeleteTopic(ctx context.Context, userUUID, topicID string) (int64, error)
}
