package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hostel-ts/internal/lifecycle"
	"hostel-ts/internal/middleware"
	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"
)

// IssueHTTP wires issue endpoints to the repository and the lifecycle manager.
type IssueHTTP struct {
	issues   repository.IssueRepository
	profiles repository.ProfileRepository
	lc       *lifecycle.Manager
	log      zerolog.Logger
}

func NewIssueHTTP(issues repository.IssueRepository, profiles repository.ProfileRepository, lc *lifecycle.Manager, log zerolog.Logger) *IssueHTTP {
	return &IssueHTTP{issues: issues, profiles: profiles, lc: lc, log: log}
}

// canView: management sees everything, staff what is assigned to them, and
// everyone sees their own and public issues.
func canView(i *models.Issue, uid string, role models.Role) bool {
	switch {
	case role == models.RoleManagement:
		return true
	case i.CreatedBy == uid:
		return true
	case role == models.RoleStaff && i.AssignedTo == uid:
		return true
	}
	return i.Visibility == models.VisibilityPublic
}

// canRemark limits internal remarks to management and the assigned staff member.
func canRemark(i *models.Issue, uid string, role models.Role) bool {
	return role == models.RoleManagement || (role == models.RoleStaff && i.AssignedTo == uid)
}

// loadVisible fetches {id} and writes the error response itself when it returns nil.
func (h *IssueHTTP) loadVisible(w http.ResponseWriter, r *http.Request) *models.Issue {
	id := chi.URLParam(r, "id")
	if !utils.ValidID(id) {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	i, err := h.issues.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	uid, role := middleware.Identity(r)
	if i == nil || !canView(i, uid, role) {
		utils.Error(w, http.StatusNotFound, "issue not found")
		return nil
	}
	return i
}

// -----------------------------------------------------------------------------
// GET /api/issues?q=&status=&category=&priority=&open=&limit=&offset=
// -----------------------------------------------------------------------------
func (h *IssueHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.IssueFilter{
			Q:        strings.TrimSpace(qv.Get("q")),
			Category: models.Category(strings.TrimSpace(qv.Get("category"))),
			Priority: models.Priority(strings.TrimSpace(qv.Get("priority"))),
			Limit:    utils.QueryInt(qv, "limit", 50),
			Offset:   utils.QueryInt(qv, "offset", 0),
		}
		if s := qv.Get("status"); s != "" {
			st, ok := models.ParseStatus(s)
			if !ok {
				utils.Error(w, http.StatusBadRequest, "invalid status")
				return
			}
			f.Status = st
		}
		if f.Category != "" && !f.Category.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid category")
			return
		}
		if f.Priority != "" && !f.Priority.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid priority")
			return
		}
		f.OpenOnly = utils.QueryBool(qv, "open")

		uid, role := middleware.Identity(r)
		switch role {
		case models.RoleManagement:
		case models.RoleStaff:
			f.AssignedTo = uid
		default:
			f.CreatedBy = uid
		}

		items, total, err := h.issues.List(r.Context(), f)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
	}
}

// GET /api/issues/feed
func (h *IssueHTTP) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, _ := middleware.Identity(r)
		qv := r.URL.Query()
		items, err := h.issues.Feed(r.Context(), uid, utils.QueryInt(qv, "limit", 50), utils.QueryInt(qv, "offset", 0))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// GET /api/issues/{id}
func (h *IssueHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := h.loadVisible(w, r)
		if i == nil {
			return
		}
		comments, err := h.issues.Comments(r.Context(), i.ID, false)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		i.Comments = comments
		utils.JSON(w, http.StatusOK, i)
	}
}

// -----------------------------------------------------------------------------
// POST /api/issues
// -----------------------------------------------------------------------------
func (h *IssueHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Category    string   `json:"category"`
			Priority    string   `json:"priority"`
			Visibility  string   `json:"visibility"`
			MediaURLs   []string `json:"mediaUrls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		i := &models.Issue{
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
			Category:    models.Category(strings.ToLower(strings.TrimSpace(in.Category))),
			Priority:    models.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
			Visibility:  models.Visibility(strings.ToLower(strings.TrimSpace(in.Visibility))),
			Status:      models.StatusReported,
			MediaURLs:   in.MediaURLs,
		}
		if i.Title == "" {
			utils.Error(w, http.StatusBadRequest, "title is required")
			return
		}
		if i.Category == "" {
			i.Category = models.CategoryOther
		}
		if i.Priority == "" {
			i.Priority = models.PriorityMedium
		}
		if i.Visibility == "" {
			i.Visibility = models.VisibilityPublic
		}
		if !i.Category.Valid() || !i.Priority.Valid() || !i.Visibility.Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid category, priority or visibility")
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
		i.CreatedBy = uid
		i.Hostel, i.Block, i.Room = p.Hostel, p.Block, p.Room

		if err := h.issues.Create(r.Context(), i); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		i.ReporterName = p.Name
		h.log.Info().Str("issue", i.ID).Str("by", uid).Str("category", string(i.Category)).Msg("issue reported")
		utils.JSON(w, http.StatusCreated, i)
	}
}

// -----------------------------------------------------------------------------
// Lifecycle: POST /api/issues/{id}/status, POST /api/issues/{id}/assign
// -----------------------------------------------------------------------------
func (h *IssueHTTP) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !utils.ValidID(id) {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		var in struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		st, ok := models.ParseStatus(in.Status)
		if !ok {
			utils.Error(w, http.StatusBadRequest, lifecycle.ErrInvalidStatus.Error())
			return
		}
		uid, role := middleware.Identity(r)
		updated, err := h.lc.Advance(r.Context(), lifecycle.Transition{
			IssueID: id, To: st, ActorID: uid, ActorRole: role,
		})
		if err != nil {
			h.lifecycleError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, updated)
	}
}

func (h *IssueHTTP) Assign() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !utils.ValidID(id) {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		var in struct {
			AssigneeID string `json:"assigneeId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !utils.ValidID(strings.TrimSpace(in.AssigneeID)) {
			utils.Error(w, http.StatusBadRequest, "assigneeId is required")
			return
		}
		uid, role := middleware.Identity(r)
		updated, err := h.lc.Assign(r.Context(), id, in.AssigneeID, uid, role)
		if err != nil {
			h.lifecycleError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, updated)
	}
}

func (h *IssueHTTP) lifecycleError(w http.ResponseWriter, err error) {
	var rejected *lifecycle.TransitionRejectedError
	switch {
	case errors.Is(err, lifecycle.ErrInvalidStatus), errors.Is(err, lifecycle.ErrInvalidAssignee):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrForbidden), errors.Is(err, lifecycle.ErrNotAssigned):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &rejected):
		h.log.Error().Err(rejected.Err).Str("issue", rejected.IssueID).Msg("issue update rejected")
		utils.Error(w, http.StatusInternalServerError, "issue update failed")
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// -----------------------------------------------------------------------------
// Comments, remarks and likes
// -----------------------------------------------------------------------------

// POST /api/issues/{id}/comments
func (h *IssueHTTP) AddComment() http.HandlerFunc {
	return h.addComment(false)
}

// POST /api/issues/{id}/remarks
func (h *IssueHTTP) AddRemark() http.HandlerFunc {
	return h.addComment(true)
}

func (h *IssueHTTP) addComment(internal bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := h.loadVisible(w, r)
		if i == nil {
			return
		}
		uid, role := middleware.Identity(r)
		if internal && !canRemark(i, uid, role) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		var in struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Text) == "" {
			utils.Error(w, http.StatusBadRequest, "text is required")
			return
		}
		c := &models.Comment{IssueID: i.ID, AuthorID: uid, Text: strings.TrimSpace(in.Text), Internal: internal}
		if err := h.issues.AddComment(r.Context(), c); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusCreated, c)
	}
}

// GET /api/issues/{id}/remarks
func (h *IssueHTTP) Remarks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := h.loadVisible(w, r)
		if i == nil {
			return
		}
		if uid, role := middleware.Identity(r); !canRemark(i, uid, role) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		items, err := h.issues.Comments(r.Context(), i.ID, true)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// PUT|DELETE /api/issues/{id}/like
func (h *IssueHTTP) SetLike(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := h.loadVisible(w, r)
		if i == nil {
			return
		}
		uid, _ := middleware.Identity(r)
		if err := h.issues.SetLike(r.Context(), i.ID, uid, liked); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
