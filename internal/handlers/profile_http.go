package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"hostel-ts/internal/middleware"
	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ProfileHTTP struct {
	repo repository.ProfileRepository
}

func NewProfileHTTP(r repository.ProfileRepository) *ProfileHTTP {
	return &ProfileHTTP{repo: r}
}

// GET /api/profiles?role=
func (h *ProfileHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := models.Role(strings.TrimSpace(r.URL.Query().Get("role")))
		if role != "" && !role.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid role")
			return
		}
		items, err := h.repo.List(r.Context(), role)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	}
}

// GET /api/profiles/{id}
func (h *ProfileHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !utils.ValidID(id) {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		p, err := h.repo.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			utils.Error(w, http.StatusNotFound, "profile not found")
			return
		}
		utils.JSON(w, http.StatusOK, p)
	}
}

// POST /api/profiles creates the caller's own profile. The role is always the default.
func (h *ProfileHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, _ := middleware.Identity(r)
		email, _ := utils.GetString(r.Context(), middleware.CtxEmail)

		var in struct {
			Name   string `json:"name"`
			Hostel string `json:"hostel"`
			Block  string `json:"block"`
			Room   string `json:"room"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		p := models.DefaultProfile(uid, email)
		if name := strings.TrimSpace(in.Name); name != "" {
			p.Name = name
		}
		p.Hostel = strings.TrimSpace(in.Hostel)
		p.Block = strings.TrimSpace(in.Block)
		p.Room = strings.TrimSpace(in.Room)

		created, err := h.repo.Create(r.Context(), p)
		if errors.Is(err, repository.ErrConflict) {
			utils.Error(w, http.StatusConflict, "profile already exists")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, created)
	}
}

// PATCH /api/profiles/{id}
func (h *ProfileHTTP) UpdateBasic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Name   string `json:"name"`
			Hostel string `json:"hostel"`
			Block  string `json:"block"`
			Room   string `json:"room"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			utils.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		p, err := h.repo.UpdateBasic(r.Context(), id,
			strings.TrimSpace(req.Name), strings.TrimSpace(req.Hostel), strings.TrimSpace(req.Block), strings.TrimSpace(req.Room))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			utils.Error(w, http.StatusNotFound, "profile not found")
			return
		}
		utils.JSON(w, http.StatusOK, p)
	}
}

// PATCH /api/profiles/{id}/role
func (h *ProfileHTTP) UpdateRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Role models.Role `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Role.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid role")
			return
		}
		p, err := h.repo.UpdateRole(r.Context(), id, req.Role)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			utils.Error(w, http.StatusNotFound, "profile not found")
			return
		}
		utils.JSON(w, http.StatusOK, p)
	}
}
