package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
	"github.com/chaima229/fraisScolaire-backend-sub001/validation"
)

// CheckBourse validates a scholarship body: the percentage must be a
// number between 0 and 100.
func CheckBourse(doc store.Document) validation.Violations {
	v := validation.Violations{}
	raw, ok := doc["pourcentage"]
	if !ok || raw == nil {
		return v // absence is handled by the required-field pass
	}
	pct, _, parseable := validation.CoerceNumber(raw)
	if !parseable {
		v["pourcentage"] = "invalid_number"
		return v
	}
	validation.RangeFloat("pourcentage", pct, 0, 100, v)
	return v
}

// RessourceHandler is the generic document CRUD used by the collections
// that carry no business rules of their own (parents, classes, bourses).
type RessourceHandler struct {
	Store      *store.Store
	Collection string
	// Required lists fields a create body must carry.
	Required []string
	// Check runs extra per-collection validation on a create body.
	Check func(doc store.Document) validation.Violations
}

func (h *RessourceHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.Collection(h.Collection).GetAll(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	limit, offset := paging(r)
	httpx.JSON(w, http.StatusOK, map[string]any{
		h.Collection: pageSlice(docs, limit, offset),
		"total":      len(docs),
	})
}

func (h *RessourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.Collection(h.Collection).Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *RessourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var doc store.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	delete(doc, "id")
	violations := validation.Violations{}
	for _, field := range h.Required {
		v, ok := doc[field]
		if !ok || v == nil {
			violations[field] = "required"
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			violations[field] = "required"
		}
	}
	if h.Check != nil {
		violations.Merge(h.Check(doc))
	}
	if len(violations) > 0 {
		writeViolations(w, r, violations)
		return
	}
	id, err := h.Store.Collection(h.Collection).Add(r.Context(), doc)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	doc["id"] = id
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *RessourceHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	col := h.Store.Collection(h.Collection)
	if err := col.Patch(r.Context(), id, patch); err != nil {
		writeStoreError(w, r, err)
		return
	}
	doc, err := col.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *RessourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Collection(h.Collection).Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
