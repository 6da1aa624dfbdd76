package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// PaiementHandler serves payment capture and the batch reconciliation run.
type PaiementHandler struct {
	Store     *store.Store
	Paiements *services.PaiementService
	Migrator  *services.Migrator
}

type createPaiementRequest struct {
	QuiAPaye   string   `json:"qui_a_paye" validate:"required"`
	FactureIDs []string `json:"facture_ids" validate:"required,min=1"`
	Montant    float64  `json:"montant" validate:"required,gt=0"`
	Methode    string   `json:"methode" validate:"required"`
}

func (h *PaiementHandler) List(w http.ResponseWriter, r *http.Request) {
	col := h.Store.Collection(store.Paiements)
	var (
		docs []store.Document
		err  error
	)
	if payer := r.URL.Query().Get("qui_a_paye"); payer != "" {
		docs, err = col.Query(r.Context(), store.Eq(models.FieldQuiAPaye, payer))
	} else {
		docs, err = col.GetAll(r.Context())
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	limit, offset := paging(r)
	page := pageSlice(docs, limit, offset)
	out := make([]models.Paiement, 0, len(page))
	for _, doc := range page {
		out = append(out, models.PaiementFromDocument(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"paiements": out, "total": len(docs)})
}

func (h *PaiementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.Collection(store.Paiements).Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.PaiementFromDocument(doc))
}

// Create captures a payment and allocates it across the named invoices.
func (h *PaiementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaiementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}

	// payer_user_id stays unset here: reconciliation owns that field and
	// writes it exactly once, when it first rewrites a divergent payer
	p := models.Paiement{
		QuiAPaye:   req.QuiAPaye,
		FactureIDs: req.FactureIDs,
		Montant:    req.Montant,
		Methode:    req.Methode,
	}

	saved, violations, err := h.Paiements.Appliquer(r.Context(), p)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if violations != nil {
		writeViolations(w, r, violations)
		return
	}
	httpx.JSON(w, http.StatusCreated, saved)
}

// Reconcile runs the payment field-convergence pass over the whole
// collection and returns the counters.
func (h *PaiementHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Migrator.ReconcilePaiements(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
