package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req struct {
		Text    string `json:"text"`
		TopicID string `json:"topic_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	reply, err := s.chat.Ask(r.Context(), identity.User.AccountID, req.TopicID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			respondMessage(w, http.StatusBadRequest, false, err.Error())
		case errors.Is(err, common.ErrBackendUnavailable):
			respondMessage(w, http.StatusBadGateway, false, "assistant is unavailable, please try again later")
		default:
			s.logger.Error(r.Context(), "chat request failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"reply":    reply.Answer,
		"topic_id": reply.TopicID,
	})
}

func (s *Server) handleNewTopic(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req struct {
		New bool `json:"new"`
	}
	if err := decodeJSON(r, &req); err != nil || !req.New {
		respondMessage(w, http.StatusBadRequest, false, "missing parameter")
		return
	}

	topicID, err := s.chat.StartOrContinue(r.Context(), identity.User.AccountID, "")
	if err != nil {
		s.logger.Error(r.Context(), "failed to start topic", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "new topic started",
		"topic_id": topicID,
		"chat_history": []map[string]string{
			{"role": "system", "content": s.systemPrompt},
		},
	})
}

func (s *Server) handleTopicList(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	page, size := parsePage(r, 10)

	topics, total, err := s.chat.ListTopics(r.Context(), identity.User.AccountID, (page-1)*size, size)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(w, http.StatusNotFound, false, "no records found")
			return
		}
		s.logger.Error(r.Context(), "failed to list topics", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		return
	}

	history := make([]map[string]string, 0, len(topics))
	for _, t := range topics {
		history = append(history, map[string]string{
			"topic_id":      t.TopicID,
			"first_message": t.FirstQuestion,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   total,
		"page":    page,
		"size":    size,
		"history": history,
	})
}

func (s *Server) handleTopicDetail(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	topicID := chi.URLParam(r, "topicID")

	exchanges, err := s.chat.GetTopic(r.Context(), identity.User.AccountID, topicID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(w, http.StatusNotFound, false, "topic does not exist or access denied")
			return
		}
		s.logger.Error(r.Context(), "failed to load topic", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		return
	}

	details := make([]map[string]any, 0, len(exchanges))
	for _, e := range exchanges {
		details = append(details, map[string]any{
			"id":           e.ID,
			"user_message": e.Question,
			"ai_reply":     e.Answer,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"topic_id":     topicID,
		"chat_details": details,
	})
}

func (s *Server) handleTopicDelete(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	topicID := chi.URLParam(r, "topicID")

	if err := s.chat.DeleteTopic(r.Context(), identity.User.AccountID, topicID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(w, http.StatusNotFound, false, "topic does not exist or access denied")
			return
		}
		s.logger.Error(r.Context(), "failed to delete topic", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "deletion failed, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("records for topic %s deleted", topicID),
		"topic_id": topicID,
	})
}
