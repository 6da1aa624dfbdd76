package handlers

import (
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
)

// DashboardHandler serves the aggregate financial counters.
type DashboardHandler struct {
	Dashboard *services.DashboardService
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
