package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hostel-ts/internal/middleware"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/service"
	"hostel-ts/internal/utils"
)

type AuthHTTP struct {
	svc   *service.AuthService
	users repository.UserRepository
}

func NewAuthHTTP(s *service.AuthService, users repository.UserRepository) *AuthHTTP {
	return &AuthHTTP{svc: s, users: users}
}

// POST /api/auth/register
func (h *AuthHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.Registration
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := h.svc.Register(r.Context(), in)
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, service.ErrEmailTaken):
			utils.Error(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			utils.Error(w, http.StatusInternalServerError, "registration failed")
			return
		}
		utils.JSON(w, http.StatusCreated, p)
	}
}

// POST /api/auth/login
func (h *AuthHTTP) Login(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		token, u, err := h.svc.Login(r.Context(), in.Email, in.Password)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   secure,
			Expires:  time.Now().Add(h.svc.TTL()),
		})

		// The CLI keeps the token itself; browsers use the cookie.
		utils.JSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  u,
		})
	}
}

// POST /api/auth/logout
func (h *AuthHTTP) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,              // expire immediately
			Expires:  time.Unix(0, 0), // for older browsers
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/auth/me
func (h *AuthHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetString(r.Context(), middleware.CtxUserID)
		if !ok || uid == "" {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		u, err := h.users.GetByID(r.Context(), uid)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "user lookup failed")
			return
		}
		if u == nil {
			// token for a deleted account
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}
