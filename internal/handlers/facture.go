package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// FactureHandler serves invoice CRUD plus the batch reconciliation run.
type FactureHandler struct {
	Store    *store.Store
	Migrator *services.Migrator
}

type createFactureRequest struct {
	EtudiantID   string  `json:"etudiant_id" validate:"required"`
	Numero       string  `json:"numero"`
	MontantTotal float64 `json:"montant_total" validate:"required,gt=0"`
	DateEmission string  `json:"date_emission"`
}

func (h *FactureHandler) List(w http.ResponseWriter, r *http.Request) {
	col := h.Store.Collection(store.Factures)
	var (
		docs []store.Document
		err  error
	)
	if etudiant := r.URL.Query().Get("etudiant_id"); etudiant != "" {
		docs, err = col.Query(r.Context(), store.Eq(models.FieldEtudiantID, etudiant))
	} else if statut := r.URL.Query().Get("statut"); statut != "" {
		docs, err = col.Query(r.Context(), store.Eq(models.FieldStatut, statut))
	} else {
		docs, err = col.GetAll(r.Context())
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	limit, offset := paging(r)
	page := pageSlice(docs, limit, offset)
	out := make([]models.Facture, 0, len(page))
	for _, doc := range page {
		out = append(out, models.FactureFromDocument(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"factures": out, "total": len(docs)})
}

func (h *FactureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.Collection(store.Factures).Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.FactureFromDocument(doc))
}

func (h *FactureHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFactureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}

	f := models.Facture{
		EtudiantID:     req.EtudiantID,
		Numero:         req.Numero,
		MontantTotal:   req.MontantTotal,
		MontantRestant: req.MontantTotal,
		Statut:         models.StatutImpayee,
		DateEmission:   time.Now().UTC(),
	}
	if req.DateEmission != "" {
		t, err := time.Parse("2006-01-02", req.DateEmission)
		if err != nil {
			writeViolations(w, r, map[string]string{"date_emission": "invalid"})
			return
		}
		f.DateEmission = t
	}

	col := h.Store.Collection(store.Factures)
	id, err := col.Add(r.Context(), f.ToDocument())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	f.ID = id
	if f.Numero == "" {
		// no numero supplied: converge it the way the migration would
		doc, err := col.Get(r.Context(), id)
		if err == nil {
			if patch, flags := services.ReconcileInvoice(doc); len(flags) == 0 && patch != nil {
				if err := col.Patch(r.Context(), id, patch); err == nil {
					f.Numero, _ = patch[models.FieldNumero].(string)
				}
			}
		}
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *FactureHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var patch store.Document
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	delete(patch, "id")
	if len(patch) == 0 {
		writeViolations(w, r, map[string]string{"body": "required"})
		return
	}
	col := h.Store.Collection(store.Factures)
	if err := col.Patch(r.Context(), id, patch); err != nil {
		writeStoreError(w, r, err)
		return
	}
	doc, err := col.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.FactureFromDocument(doc))
}

func (h *FactureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Collection(store.Factures).Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Reconcile runs the invoice field-convergence pass over the whole
// collection and returns the counters.
func (h *FactureHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Migrator.ReconcileFactures(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
