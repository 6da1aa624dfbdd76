package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/i18n"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// EtudiantHandler serves student CRUD. Enrollment issues the initial
// tuition invoice from the active tariffs of the target year.
type EtudiantHandler struct {
	Store    *store.Store
	Factures *services.FactureService
}

type createEtudiantRequest struct {
	Nom           string `json:"nom" validate:"required"`
	Prenom        string `json:"prenom" validate:"required"`
	ClasseID      string `json:"classe_id"`
	ParentID      string `json:"parent_id"`
	BourseID      string `json:"bourse_id"`
	AnneeScolaire string `json:"annee_scolaire" validate:"required"`
}

func (h *EtudiantHandler) List(w http.ResponseWriter, r *http.Request) {
	col := h.Store.Collection(store.Etudiants)
	var (
		docs []store.Document
		err  error
	)
	if classe := r.URL.Query().Get("classe_id"); classe != "" {
		docs, err = col.Query(r.Context(), store.Eq("classe_id", classe))
	} else if parent := r.URL.Query().Get("parent_id"); parent != "" {
		docs, err = col.Query(r.Context(), store.Eq("parent_id", parent))
	} else {
		docs, err = col.GetAll(r.Context())
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	limit, offset := paging(r)
	page := pageSlice(docs, limit, offset)
	out := make([]models.Etudiant, 0, len(page))
	for _, doc := range page {
		out = append(out, models.EtudiantFromDocument(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"etudiants": out, "total": len(docs)})
}

func (h *EtudiantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.Collection(store.Etudiants).Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.EtudiantFromDocument(doc))
}

// Create registers the student then issues the initial invoice. A missing
// tariff grid blocks enrollment: the student record is not kept without
// its invoice.
func (h *EtudiantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEtudiantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}

	e := models.Etudiant{
		Nom:      req.Nom,
		Prenom:   req.Prenom,
		ClasseID: req.ClasseID,
		ParentID: req.ParentID,
		BourseID: req.BourseID,
	}
	col := h.Store.Collection(store.Etudiants)
	id, err := col.Add(r.Context(), e.ToDocument())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	e.ID = id

	facture, err := h.Factures.CreerInitiale(r.Context(), e, req.AnneeScolaire)
	if err != nil {
		if delErr := col.Delete(r.Context(), id); delErr != nil {
			log.Printf("rollback etudiant %s: %v", id, delErr)
		}
		if errors.Is(err, services.ErrTarifManquant) {
			lang := requestLang(r)
			httpx.JSONErrorMsg(w, http.StatusUnprocessableEntity, "tarif_missing", i18n.T(lang, "tarif_missing"), nil)
			return
		}
		writeStoreError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"etudiant": e, "facture": facture})
}

func (h *EtudiantHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	col := h.Store.Collection(store.Etudiants)
	if err := col.Patch(r.Context(), id, patch); err != nil {
		writeStoreError(w, r, err)
		return
	}
	doc, err := col.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.EtudiantFromDocument(doc))
}

func (h *EtudiantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Collection(store.Etudiants).Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
