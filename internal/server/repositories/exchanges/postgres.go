package exchanges

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatgate/internal/dbx"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, exchange *models.Exchange) (*models.Exchange, error) {

	query :=
		`INSERT INTO exchanges (user_uuid, topic_id, question, answer)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		exchange.UserUUID, exchange.TopicID, exchange.Question, exchange.Answer).Scan(&exchange.ID, &exchange.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return exchange, nil
}

// ListByTopic returns all exchanges of one topic in insertion order. The
// ordering is what makes context reconstruction deterministic.
func (r *PostgresRepository) ListByTopic(ctx context.Context, userUUID, topicID string) ([]*models.Exchange, error) {
	query :=
		`SELECT id, user_uuid, topic_id, question, answer, created_at FROM exchanges
		 WHERE user_uuid = $1 AND topic_id = $2
		 ORDER BY id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userUUID, topicID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Exchange
	for rows.Next() {
		e := &models.Exchange{}
		err := rows.Scan(&e.ID, &e.UserUUID, &e.TopicID, &e.Question, &e.Answer, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) TopicExists(ctx context.Context, userUUID, topicID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM exchanges WHERE user_uuid = $1 AND topic_id = $2)
		 `

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userUUID, topicID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

// ListTopics returns one summary per distinct topic of the user, ordered by
// the topic's first exchange, with its first question as the title.
func (r *PostgresRepository) ListTopics(ctx context.Context, userUUID string, offset, limit int64) ([]*models.TopicSummary, error) {
	query :=
		`SELECT e.topic_id, e.question
		 FROM exchanges e
		 JOIN (
		     SELECT topic_id, MIN(id) AS first_id
		     FROM exchanges
		     WHERE user_uuid = $1
		     GROUP BY topic_id
		 ) f ON e.id = f.first_id
		 ORDER BY f.first_id ASC
		 LIMIT $2 OFFSET $3
		 `

	rows, err := r.db.QueryContext(ctx, query, userUUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.TopicSummary
	for rows.Next() {
		s := &models.TopicSummary{}
		err := rows.Scan(&s.TopicID, &s.FirstQuestion)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountTopics(ctx context.Context, userUUID string) (int64, error) {
	query :=
		`SELECT COUNT(DISTINCT topic_id) FROM exchanges
		 WHERE user_uuid = $1
		 `

	var count int64
	err := r.db.QueryRowContext(ctx, query, userUUID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

// DeleteTopic removes every exchange of the topic and returns how many rows
// went away. Zero means the topic did not exist for this user; the caller
// decides whether that is an error.
func (r *PostgresRepository) DeleteTopic(ctx context.Context, userUUID, topicID string) (int64, error) {
	query :=
		`DELETE FROM exchanges
		 WHERE user_uuid = $1 AND topic_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, userUUID, topicID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return affected, nil
}
