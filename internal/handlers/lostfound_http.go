package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hostel-ts/internal/middleware"
	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"
)

type LostFoundHTTP struct {
	items    repository.LostFoundRepository
	profiles repository.ProfileRepository
	log      zerolog.Logger
}

func NewLostFoundHTTP(items repository.LostFoundRepository, profiles repository.ProfileRepository, log zerolog.Logger) *LostFoundHTTP {
	return &LostFoundHTTP{items: items, profiles: profiles, log: log}
}

// canUpdateItem: the poster and management may change an item's status.
func canUpdateItem(it *models.LostFoundItem, uid string, role models.Role) bool {
	return role == models.RoleManagement || it.ReportedBy == uid
}

// GET /api/lost-found?status=lost|found|claimed&limit=&offset=
func (h *LostFoundHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		status := models.ItemStatus(strings.ToLower(strings.TrimSpace(qv.Get("status"))))
		if status == "" {
			status = models.ItemLost
		}
		if !status.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		items, err := h.items.List(r.Context(), status, utils.QueryInt(qv, "limit", 50), utils.QueryInt(qv, "offset", 0))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// POST /api/lost-found
func (h *LostFoundHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			ItemName    string `json:"itemName"`
			Description string `json:"description"`
			Location    string `json:"location"`
			Status      string `json:"status"`
			ImageURL    string `json:"imageUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		it := &models.LostFoundItem{
			ItemName:    strings.TrimSpace(in.ItemName),
			Description: strings.TrimSpace(in.Description),
			Location:    strings.TrimSpace(in.Location),
			Status:      models.ItemStatus(strings.ToLower(strings.TrimSpace(in.Status))),
			ImageURL:    strings.TrimSpace(in.ImageURL),
		}
		if it.ItemName == "" {
			utils.Error(w, http.StatusBadRequest, "itemName is required")
			return
		}
		if it.Status == "" {
			it.Status = models.ItemLost
		}
		if it.Status != models.ItemLost && it.Status != models.ItemFound {
			utils.Error(w, http.StatusBadRequest, "status must be lost or found")
			return
		}

		uid, _ := middleware.Identity(r)
		p, err := h.profiles.Get(r.Context(), uid)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			utils.Error(w, http.StatusForbidden, "profile required")
			return
		}
		it.ReportedBy = uid
		it.Hostel, it.Block = p.Hostel, p.Block

		if err := h.items.Create(r.Context(), it); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		it.ReporterName = p.Name
		h.log.Info().Str("item", it.ID).Str("by", uid).Str("status", string(it.Status)).Msg("lost-and-found item posted")
		utils.JSON(w, http.StatusCreated, it)
	}
}

// POST /api/lost-found/{id}/status {status}: the poster or management.
func (h *LostFoundHTTP) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		status := models.ItemStatus(strings.ToLower(strings.TrimSpace(in.Status)))
		if !status.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		it := h.load(w, r)
		if it == nil {
			return
		}
		uid, role := middleware.Identity(r)
		if !canUpdateItem(it, uid, role) {
			utils.Error(w, http.StatusForbidden, "only the poster or management can update this item")
			return
		}
		h.setStatus(w, r, it, status)
	}
}

// POST /api/lost-found/{id}/claim: whoever recognises the item closes it out.
func (h *LostFoundHTTP) Claim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it := h.load(w, r)
		if it == nil {
			return
		}
		h.setStatus(w, r, it, models.ItemClaimed)
	}
}

func (h *LostFoundHTTP) setStatus(w http.ResponseWriter, r *http.Request, it *models.LostFoundItem, status models.ItemStatus) {
	if it.Status == models.ItemClaimed {
		utils.Error(w, http.StatusConflict, "item already claimed")
		return
	}
	uid, _ := middleware.Identity(r)
	updated, err := h.items.SetStatus(r.Context(), it.ID, status, uid)
	switch {
	case errors.Is(err, repository.ErrConflict):
		utils.Error(w, http.StatusConflict, "item already claimed")
		return
	case err != nil:
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	case updated == nil:
		utils.Error(w, http.StatusNotFound, "item not found")
		return
	}
	h.log.Info().Str("item", it.ID).Str("by", uid).Str("from", string(it.Status)).Str("to", string(status)).Msg("lost-and-found item updated")
	utils.JSON(w, http.StatusOK, updated)
}

func (h *LostFoundHTTP) load(w http.ResponseWriter, r *http.Request) *models.LostFoundItem {
	id := chi.URLParam(r, "id")
	if !utils.ValidID(id) {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	it, err := h.items.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if it == nil {
		utils.Error(w, http.StatusNotFound, "item not found")
		return nil
	}
	return it
}
