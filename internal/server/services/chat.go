package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/logging"
	"github.com/dmitrijs2005/chatgate/internal/server/aichat"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/idgen"
	"github.com/dmitrijs2005/chatgate/internal/server/metrics"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/repomanager"
)

// Reply is the outcome of one Ask call: the topic the exchange belongs to
// (freshly allocated when the caller passed none) and the backend's answer.
type Reply struct {
	TopicID string
	Answer  string
}

// ChatService assembles conversation context from stored exchanges, calls
// the completion backend, and persists the resulting question/answer pair.
type ChatService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	allocator    *idgen.Allocator
	completer    aichat.Completer
	systemPrompt string
	logger       logging.Logger
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, allocator *idgen.Allocator, completer aichat.Completer, cfg *config.Config, logger logging.Logger) *ChatService {
	return &ChatService{
		db:           db,
		repomanager:  m,
		allocator:    allocator,
		completer:    completer,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}
}

// StartOrContinue resolves the topic an incoming question belongs to. An
// empty topicID means a new conversation and yields a fresh identifier; a
// non-empty one is returned unchanged.
func (s *ChatService) StartOrContinue(ctx context.Context, accountID, topicID string) (string, error) {
	if topicID != "" {
		return topicID, nil
	}
	return s.allocator.TopicID(ctx, accountID)
}

// BuildContext reconstructs the message list for one completion call: the
// system preamble, then every stored exchange of the topic as a user and an
// assistant turn in insertion order, then the new question. The result for a
// topic with N stored exchanges is always 2N+2 messages. Reading the same
// topic twice without an intervening write yields the same list.
func (s *ChatService) BuildContext(ctx context.Context, accountID, topicID, question string) ([]aichat.Message, error) {
	history, err := s.repomanager.Exchanges(s.db).ListByTopic(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("error loading topic history: %v", err)
	}

	messages := make([]aichat.Message, 0, 2*len(history)+2)
	messages = append(messages, aichat.Message{Role: aichat.RoleSystem, Content: s.systemPrompt})
	for _, e := range history {
		messages = append(messages, aichat.Message{Role: aichat.RoleUser, Content: e.Question})
		messages = append(messages, aichat.Message{Role: aichat.RoleAssistant, Content: e.Answer})
	}
	messages = append(messages, aichat.Message{Role: aichat.RoleUser, Content: question})

	return messages, nil
}

// Ask runs one full conversation turn. A backend failure writes nothing and
// surfaces ErrBackendUnavailable. After a successful completion the exchange
// is appended best-effort: a failed write is logged and counted but the
// answer is still returned, since the backend call already happened and
// cannot be taken back.
func (s *ChatService) Ask(ctx context.Context, accountID, topicID, question string) (*Reply, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", common.ErrorValidation)
	}

	topicID, err := s.StartOrContinue(ctx, accountID, topicID)
	if err != nil {
		return nil, err
	}

	messages, err := s.BuildContext(ctx, accountID, topicID, question)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, messages)
	if err != nil {
		metrics.BackendErrors.Inc()
		return nil, err
	}

	exchange := &models.Exchange{
		UserUUID: accountID,
		TopicID:  topicID,
		Question: question,
		Answer:   answer,
	}
	if _, err := s.repomanager.Exchanges(s.db).Append(ctx, exchange); err != nil {
		metrics.PersistenceFailures.Inc()
		s.logger.Error(ctx, "failed to persist exchange",
			"account_id", accountID, "topic_id", topicID, "error", err)
	}

	return &Reply{TopicID: topicID, Answer: answer}, nil
}

// ListTopics returns one page of the account's topics in the order they
// were started, plus the total topic count. An account with no topics at all
// yields ErrorNotFound.
func (s *ChatService) ListTopics(ctx context.Context, accountID string, offset, limit int64) ([]*models.TopicSummary, int64, error) {
	repo := s.repomanager.Exchanges(s.db)

	total, err := repo.CountTopics(ctx, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting topics: %v", err)
	}
	if total == 0 {
		return nil, 0, common.ErrorNotFound
	}

	topics, err := repo.ListTopics(ctx, accountID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing topics: %v", err)
	}

	return topics, total, nil
}

// GetTopic returns the ordered exchanges of one topic. A topic with no
// exchanges for this account, whether absent or owned by someone else, is
// reported as ErrorNotFound.
func (s *ChatService) GetTopic(ctx context.Context, accountID, topicID string) ([]*models.Exchange, error) {
	history, err := s.repomanager.Exchanges(s.db).ListByTopic(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("error loading topic history: %v", err)
	}
	if len(history) == 0 {
		return nil, common.ErrorNotFound
	}
	return history, nil
}

// DeleteTopic removes every exchange of the topic. Deleting a topic the
// account does not own behaves exactly like deleting one that never existed.
func (s *ChatService) DeleteTopic(ctx context.Context, accountID, topicID string) error {
	affected, err := s.repomanager.Exchanges(s.db).DeleteTopic(ctx, accountID, topicID)
	if err != nil {
		return fmt.Errorf("error deleting topic: %v", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
