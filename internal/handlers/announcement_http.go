package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hostel-ts/internal/middleware"
	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"
)

type AnnouncementHTTP struct {
	repo     repository.AnnouncementRepository
	profiles repository.ProfileRepository
}

func NewAnnouncementHTTP(repo repository.AnnouncementRepository, profiles repository.ProfileRepository) *AnnouncementHTTP {
	return &AnnouncementHTTP{repo: repo, profiles: profiles}
}

// GET /api/announcements
// Management sees every announcement; others see untargeted ones plus those for their block.
func (h *AnnouncementHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role := middleware.Identity(r)
		var targets []string
		if role != models.RoleManagement {
			targets = []string{}
			p, err := h.profiles.Get(r.Context(), uid)
			if err != nil {
				utils.Error(w, http.StatusInternalServerError, err.Error())
				return
			}
			if p != nil {
				if t := models.BlockTarget(p.Block); t != "" {
					targets = append(targets, t)
				}
			}
		}
		items, err := h.repo.List(r.Context(), targets)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// POST /api/announcements
func (h *AnnouncementHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Block   string `json:"block"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		a := &models.Announcement{
			Title:   strings.TrimSpace(in.Title),
			Content: strings.TrimSpace(in.Content),
			Target:  models.BlockTarget(in.Block),
		}
		if a.Title == "" || a.Content == "" {
			utils.Error(w, http.StatusBadRequest, "title and content are required")
			return
		}
		a.AuthorID, _ = middleware.Identity(r)
		if err := h.repo.Create(r.Context(), a); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, a)
	}
}

// DELETE /api/announcements/{id}
func (h *AnnouncementHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := h.load(w, r)
		if a == nil {
			return
		}
		if err := h.repo.Delete(r.Context(), a.ID); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/announcements/{id}/comments
func (h *AnnouncementHTTP) Comments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := h.load(w, r)
		if a == nil {
			return
		}
		items, err := h.repo.Comments(r.Context(), a.ID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// POST /api/announcements/{id}/comments
func (h *AnnouncementHTTP) AddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := h.load(w, r)
		if a == nil {
			return
		}
		var in struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Text) == "" {
			utils.Error(w, http.StatusBadRequest, "text is required")
			return
		}
		uid, role := middleware.Identity(r)
		c := &models.AnnouncementComment{AnnouncementID: a.ID, AuthorID: uid, AuthorRole: role, Text: strings.TrimSpace(in.Text)}
		if err := h.repo.AddComment(r.Context(), c); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, c)
	}
}

// DELETE /api/announcements/comments/{cid}: the author or management.
func (h *AnnouncementHTTP) DeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		if !utils.ValidID(cid) {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		c, err := h.repo.GetComment(r.Context(), cid)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if c == nil {
			utils.Error(w, http.StatusNotFound, "comment not found")
			return
		}
		uid, role := middleware.Identity(r)
		if c.AuthorID != uid && role != models.RoleManagement {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := h.repo.DeleteComment(r.Context(), cid); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *AnnouncementHTTP) load(w http.ResponseWriter, r *http.Request) *models.Announcement {
	id := chi.URLParam(r, "id")
	if !utils.ValidID(id) {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if a == nil {
		utils.Error(w, http.StatusNotFound, "announcement not found")
		return nil
	}
	return a
}
