package handlers

import (
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// HealthHandler reports liveness and store reachability.
type HealthHandler struct {
	Store *store.Store
}

// Live is the bare liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready probes the document store with a single bounded call, no retry.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.Store.CheckHealth(r.Context()) {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "ok"})
}
