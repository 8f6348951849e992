package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
)

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	user, err := s.users.GetByExternalID(r.Context(), identity.User.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(w, http.StatusNotFound, false, "user does not exist")
			return
		}
		s.logger.Error(r.Context(), "failed to load user info", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user_info": map[string]any{
			"username":      user.Name,
			"email":         user.Email,
			"user_uuid":     user.ExternalID,
			"register_time": user.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondMessage(w, http.StatusBadRequest, false, "old and new passwords are required")
		return
	}

	err := s.users.UpdatePassword(r.Context(), identity.User.AccountID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			respondMessage(w, http.StatusBadRequest, false, err.Error())
		case errors.Is(err, common.ErrInvalidCredential):
			respondMessage(w, http.StatusBadRequest, false, "old password is incorrect")
		case errors.Is(err, common.ErrorNotFound):
			respondMessage(w, http.StatusNotFound, false, "user does not exist")
		default:
			s.logger.Error(r.Context(), "password update failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, false, "update failed, please try again later")
		}
		return
	}

	respondMessage(w, http.StatusOK, true, "password updated successfully")
}
