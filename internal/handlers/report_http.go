package handlers

import (
	"net/http"

	"hostel-ts/internal/service"
	"hostel-ts/internal/utils"
)

type ReportsHTTP struct {
	svc *service.OverviewService
}

func NewReportsHTTP(s *service.OverviewService) *ReportsHTTP { return &ReportsHTTP{svc: s} }

// GET /api/reports/overview
// Returns: { total, byStatus, pending, resolved, avgResolutionMinutes, avgResponseMinutes, byCategory, byHostel }
func (h *ReportsHTTP) Overview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := h.svc.Overview(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, o)
	}
}
