package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// TarifHandler serves fee-definition CRUD. Writes are admin-only, enforced
// by the router.
type TarifHandler struct {
	Store *store.Store
}

type tarifRequest struct {
	Nom           string  `json:"nom" validate:"required"`
	Montant       float64 `json:"montant" validate:"required,gt=0"`
	Type          string  `json:"type" validate:"required"`
	AnneeScolaire string  `json:"annee_scolaire" validate:"required"`
	Actif         *bool   `json:"actif"`
}

func (h *TarifHandler) List(w http.ResponseWriter, r *http.Request) {
	col := h.Store.Collection(store.Tarifs)
	var (
		docs []store.Document
		err  error
	)
	if annee := r.URL.Query().Get("annee_scolaire"); annee != "" {
		docs, err = col.Query(r.Context(), store.Eq(models.FieldAnneeScolaire, annee))
	} else {
		docs, err = col.GetAll(r.Context())
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	out := make([]models.Tarif, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.TarifFromDocument(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tarifs": out, "total": len(out)})
}

func (h *TarifHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.Collection(store.Tarifs).Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.TarifFromDocument(doc))
}

func (h *TarifHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tarifRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}
	t := models.Tarif{
		Nom:           req.Nom,
		Montant:       req.Montant,
		Type:          req.Type,
		AnneeScolaire: req.AnneeScolaire,
		Actif:         true,
	}
	if req.Actif != nil {
		t.Actif = *req.Actif
	}
	id, err := h.Store.Collection(store.Tarifs).Add(r.Context(), t.ToDocument())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	t.ID = id
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *TarifHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	col := h.Store.Collection(store.Tarifs)
	if err := col.Patch(r.Context(), id, patch); err != nil {
		writeStoreError(w, r, err)
		return
	}
	doc, err := col.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.TarifFromDocument(doc))
}

func (h *TarifHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Collection(store.Tarifs).Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
