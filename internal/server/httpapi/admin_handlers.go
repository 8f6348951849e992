package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminName string `json:"admin_name"`
		Password  string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	token, admin, err := s.admins.Login(r.Context(), req.AdminName, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			respondMessage(w, http.StatusUnauthorized, false, "incorrect admin name or password")
			return
		}
		s.logger.Error(r.Context(), "admin login failed", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "login failed, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "admin login successful",
		"admin_name": admin.AdminName,
		"token":      token,
	})
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req struct {
		AdminName string `json:"admin_name"`
		Password  string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	_, err := s.admins.Create(r.Context(), identity.Admin.AdminName, req.AdminName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			respondMessage(w, http.StatusForbidden, false, "not allowed to create admins")
		case errors.Is(err, common.ErrorValidation):
			respondMessage(w, http.StatusBadRequest, false, err.Error())
		case errors.Is(err, common.ErrDuplicateIdentity):
			respondMessage(w, http.StatusBadRequest, false, "admin already exists")
		default:
			s.logger.Error(r.Context(), "admin creation failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, false, "creation failed, please try again later")
		}
		return
	}

	respondMessage(w, http.StatusOK, true, "new admin created successfully")
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	page, size := parsePage(r, 20)

	users, total, err := s.users.List(r.Context(), (page-1)*size, size)
	if err != nil {
		s.logger.Error(r.Context(), "failed to list users", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "request failed, please try again later")
		return
	}

	list := make([]map[string]any, 0, len(users))
	for _, u := range users {
		list = append(list, map[string]any{
			"user_uuid":     u.ExternalID,
			"username":      u.Name,
			"email":         u.Email,
			"register_time": u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   total,
		"page":    page,
		"size":    size,
		"users":   list,
	})
}
