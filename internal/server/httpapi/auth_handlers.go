package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chatgate/internal/common"
)

// slotCookieName identifies the requester's challenge slot across the
// captcha fetch and the subsequent login or register call.
const slotCookieName = "captcha_slot"

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	slot := slotFromRequest(r)
	if slot == "" {
		var err error
		slot, err = common.MakeRandHexString(16)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, false, "failed to generate captcha")
			return
		}
	}

	challenge, err := s.challenges.Issue(r.Context(), slot)
	if err != nil {
		s.logger.Error(r.Context(), "failed to issue challenge", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "failed to generate captcha")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     slotCookieName,
		Value:    slot,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	_, _ = w.Write(challenge.ImagePNG)
}

func slotFromRequest(r *http.Request) string {
	if c, err := r.Cookie(slotCookieName); err == nil {
		return c.Value
	}
	return ""
}

// consumeChallenge validates the supplied captcha answer against the
// requester's slot, writing the error response itself when the check fails.
func (s *Server) consumeChallenge(w http.ResponseWriter, r *http.Request, supplied string) bool {
	slot := slotFromRequest(r)
	if slot == "" {
		respondMessage(w, http.StatusBadRequest, false, "captcha expired, please refresh")
		return false
	}

	ok, err := s.challenges.CheckAndConsume(r.Context(), slot, supplied)
	if err != nil {
		if errors.Is(err, common.ErrChallengeExpired) {
			respondMessage(w, http.StatusBadRequest, false, "captcha expired, please refresh")
			return false
		}
		s.logger.Error(r.Context(), "challenge check failed", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "captcha check failed")
		return false
	}
	if !ok {
		respondMessage(w, http.StatusBadRequest, false, "captcha incorrect")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Captcha  string `json:"captcha"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	if !s.consumeChallenge(w, r, req.Captcha) {
		return
	}

	token, user, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			respondMessage(w, http.StatusUnauthorized, false, "incorrect username or password")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "login failed, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "login successful",
		"username": user.Name,
		"token":    token,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Captcha  string `json:"captcha"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	if !s.consumeChallenge(w, r, req.Captcha) {
		return
	}

	if req.Email == "" {
		respondMessage(w, http.StatusBadRequest, false, "username, password and email are required")
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		var dup *common.DuplicateError
		switch {
		case errors.Is(err, common.ErrorValidation):
			respondMessage(w, http.StatusBadRequest, false, err.Error())
		case errors.As(err, &dup) && dup.Field == "email":
			respondMessage(w, http.StatusBadRequest, false, "email already exists")
		case errors.Is(err, common.ErrDuplicateIdentity):
			respondMessage(w, http.StatusBadRequest, false, "username already exists")
		default:
			s.logger.Error(r.Context(), "registration failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, false, "registration failed, please try again later")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "registration successful",
		"user_uuid": user.ExternalID,
	})
}
